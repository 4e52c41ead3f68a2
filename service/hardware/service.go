// Package hardware simulates the machine underneath the OS: a CPU, the
// display, the system clock and an audio device. Memory figures come from
// the real allocator so the system monitor shows live numbers.
package hardware

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
	"github.com/Saroosh05/MiniMindOS/service/memory"
)

// DefaultClockInterval is how often clock listeners are notified.
const DefaultClockInterval = time.Second

// joinTimeout bounds how long Shutdown waits for the clock loop.
const joinTimeout = 2 * time.Second

// CPUInfo describes the simulated processor.
type CPUInfo struct {
	Name        string  `json:"name"`
	Cores       int     `json:"cores"`
	ClockSpeed  string  `json:"clockSpeed"`
	Utilization float64 `json:"utilization"`
}

// DisplayInfo describes the simulated screen.
type DisplayInfo struct {
	Width       int `json:"width"`
	Height      int `json:"height"`
	ColorDepth  int `json:"colorDepth"`
	RefreshRate int `json:"refreshRate"`
}

// Resolution returns the display resolution as WxH.
func (d DisplayInfo) Resolution() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// AudioStatus reports the audio device state.
type AudioStatus struct {
	Playing bool   `json:"playing"`
	Sound   string `json:"sound,omitempty"`
	Volume  int    `json:"volume"`
}

// ClockEvent is delivered to clock listeners once per interval.
type ClockEvent struct {
	Time   time.Time
	Uptime time.Duration
}

// SystemInfo aggregates everything the system monitor screen shows.
type SystemInfo struct {
	OSName  string       `json:"osName"`
	Version string       `json:"version"`
	Uptime  string       `json:"uptime"`
	Time    string       `json:"time"`
	Date    string       `json:"date"`
	CPU     CPUInfo      `json:"cpu"`
	Memory  memory.Stats `json:"memory"`
	Display DisplayInfo  `json:"display"`
	Audio   AudioStatus  `json:"audio"`
}

// Service is the hardware simulation.
type Service struct {
	mu        sync.Mutex
	cpu       CPUInfo
	display   DisplayInfo
	audio     AudioStatus
	startTime time.Time
	allocator *memory.Service

	interval time.Duration
	running  bool
	stopCh   chan struct{}
	doneCh   chan struct{}

	cbMu      sync.Mutex
	listeners []func(ClockEvent)
}

// Option customises the service.
type Option func(*Service)

// WithClockInterval overrides the clock notification interval (tests).
func WithClockInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// New creates the hardware simulation backed by the given allocator.
func New(allocator *memory.Service, options ...Option) *Service {
	s := &Service{
		cpu:       CPUInfo{Name: "MiniMind CPU", Cores: 2, ClockSpeed: "1.0 GHz"},
		display:   DisplayInfo{Width: 1024, Height: 768, ColorDepth: 32, RefreshRate: 60},
		audio:     AudioStatus{Volume: 50},
		startTime: clock.Now(),
		allocator: allocator,
		interval:  DefaultClockInterval,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Uptime returns how long the system has been running.
func (s *Service) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clock.Since(s.startTime)
}

// UptimeString formats the uptime as HH:MM:SS.
func (s *Service) UptimeString() string {
	uptime := int(s.Uptime().Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", uptime/3600, (uptime%3600)/60, uptime%60)
}

// CPU returns the processor info.
func (s *Service) CPU() CPUInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cpu
}

// SetCPUUtilization updates the utilization figure, clamped to 0-100.
func (s *Service) SetCPUUtilization(utilization float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpu.Utilization = clamp(utilization, 0, 100)
}

// Display returns the display info.
func (s *Service) Display() DisplayInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.display
}

// Memory returns live figures from the allocator.
func (s *Service) Memory() memory.Stats {
	return s.allocator.Stats()
}

// PlaySound starts playback of the named sound.
func (s *Service) PlaySound(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio.Playing = true
	s.audio.Sound = name
}

// StopSound halts playback.
func (s *Service) StopSound() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio.Playing = false
	s.audio.Sound = ""
}

// SetVolume sets the audio volume, clamped to 0-100.
func (s *Service) SetVolume(volume int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audio.Volume = int(clamp(float64(volume), 0, 100))
}

// Audio returns the audio device state.
func (s *Service) Audio() AudioStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.audio
}

// Info aggregates all hardware figures for the system monitor.
func (s *Service) Info() SystemInfo {
	now := clock.Now()
	s.mu.Lock()
	cpu, display, audio := s.cpu, s.display, s.audio
	s.mu.Unlock()
	return SystemInfo{
		OSName:  "MiniMind OS",
		Version: "1.0.0",
		Uptime:  s.UptimeString(),
		Time:    now.Format("03:04:05 PM"),
		Date:    now.Format("January 02, 2006"),
		CPU:     cpu,
		Memory:  s.allocator.Stats(),
		Display: display,
		Audio:   audio,
	}
}

// OnClock registers a listener for the periodic clock event.
func (s *Service) OnClock(listener func(ClockEvent)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.listeners = append(s.listeners, listener)
}

// Start launches the clock loop. Idempotent.
func (s *Service) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	stopCh, doneCh := s.stopCh, s.doneCh
	s.mu.Unlock()
	go s.clockLoop(stopCh, doneCh)
}

// Shutdown stops the clock loop and audio. Idempotent.
func (s *Service) Shutdown() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	doneCh := s.doneCh
	s.mu.Unlock()

	select {
	case <-doneCh:
	case <-time.After(joinTimeout):
	}
	s.StopSound()
}

func (s *Service) clockLoop(stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			event := ClockEvent{Time: clock.Now(), Uptime: s.Uptime()}
			s.cbMu.Lock()
			listeners := make([]func(ClockEvent), len(s.listeners))
			copy(listeners, s.listeners)
			s.cbMu.Unlock()
			for _, listener := range listeners {
				notify(listener, event)
			}
		}
	}
}

func notify(listener func(ClockEvent), event ClockEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("hardware: clock listener panic recovered: %v", r)
		}
	}()
	listener(event)
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

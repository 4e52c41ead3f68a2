package parental

import (
	"bytes"
	"context"
	"log"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
	"github.com/Saroosh05/MiniMindOS/service/activity"
)

// DefaultTrackInterval is how often the usage tracking loop adds screen time.
const DefaultTrackInterval = time.Minute

// joinTimeout bounds how long Stop waits for the tracking loop.
const joinTimeout = 2 * time.Second

// warnThresholds are the remaining-minutes marks at which a time warning
// fires.
var warnThresholds = map[int]bool{15: true, 10: true, 5: true, 1: true}

// settings is the persisted shape of the parental state.
type settings struct {
	PasswordHash      string  `yaml:"passwordHash"`
	Policy            Policy  `yaml:"policy"`
	TodayUsageMinutes float64 `yaml:"todayUsageMinutes"`
	LastSaveDate      string  `yaml:"lastSaveDate"`
}

// Status summarises the control state for display.
type Status struct {
	ParentMode       bool   `json:"parentMode"`
	Locked           bool   `json:"locked"`
	LockReason       string `json:"lockReason"`
	Bedtime          bool   `json:"bedtime"`
	UsageMinutes     int    `json:"usageMinutes"`
	RemainingMinutes int    `json:"remainingMinutes"`
	DailyLimit       int    `json:"dailyLimit"`
	PasswordSet      bool   `json:"passwordSet"`
}

// Service enforces the parental policy: authentication, app permissions,
// daily/session time limits and the bedtime window. A background loop adds
// screen time and locks the system when a limit is hit.
type Service struct {
	mu            sync.Mutex
	policy        Policy
	passwordHash  []byte
	parentMode    bool
	locked        bool
	lockReason    string
	usageMinutes  float64
	lastBreak     time.Time
	lastWarned    int
	trackInterval time.Duration

	activity *activity.Service
	fs       afs.Service
	url      string

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	cbMu      sync.Mutex
	onLock    []func(reason string)
	onUnlock  []func()
	onWarning []func(minutesLeft int)
}

// Option customises the service.
type Option func(*Service)

// WithStorage enables YAML persistence of settings under baseURL.
func WithStorage(fs afs.Service, baseURL string) Option {
	return func(s *Service) {
		s.fs = fs
		s.url = path.Join(baseURL, "parental_settings.yaml")
	}
}

// WithActivity wires the activity log.
func WithActivity(activity *activity.Service) Option {
	return func(s *Service) { s.activity = activity }
}

// WithTrackInterval overrides the usage tracking interval (tests).
func WithTrackInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.trackInterval = interval
		}
	}
}

// WithPolicy replaces the default policy.
func WithPolicy(policy Policy) Option {
	return func(s *Service) { s.policy = policy }
}

// New creates the service, reloading persisted settings when storage is
// configured. Usage carries over only within the same calendar day.
func New(options ...Option) *Service {
	s := &Service{
		policy:        DefaultPolicy(),
		lastBreak:     clock.Now(),
		trackInterval: DefaultTrackInterval,
	}
	for _, option := range options {
		option(s)
	}
	s.load()
	return s
}

// SetPassword stores a bcrypt hash of the parent password.
func (s *Service) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.passwordHash = hash
	s.mu.Unlock()
	s.save()
	s.logActivity("SECURITY", "Parent password set", "parent")
	return nil
}

// CheckPassword verifies the parent password. With no password set yet any
// input is accepted, matching first-run behaviour.
func (s *Service) CheckPassword(password string) bool {
	s.mu.Lock()
	hash := s.passwordHash
	s.mu.Unlock()
	if len(hash) == 0 {
		return true
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// PasswordSet reports whether a parent password exists.
func (s *Service) PasswordSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.passwordHash) > 0
}

// EnterParentMode switches to parent mode when the password matches.
func (s *Service) EnterParentMode(password string) bool {
	if !s.CheckPassword(password) {
		s.logActivity("SECURITY", "Failed parent login attempt", "kid")
		return false
	}
	s.mu.Lock()
	s.parentMode = true
	s.mu.Unlock()
	s.logActivity("SECURITY", "Parent mode activated", "parent")
	return true
}

// ExitParentMode returns to kid mode.
func (s *Service) ExitParentMode() {
	s.mu.Lock()
	s.parentMode = false
	s.mu.Unlock()
	s.logActivity("SECURITY", "Parent mode deactivated", "parent")
}

// ParentMode reports whether parent mode is active.
func (s *Service) ParentMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.parentMode
}

// Policy returns a copy of the current policy.
func (s *Service) Policy() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	policy := s.policy
	policy.AllowedApps = append([]string(nil), s.policy.AllowedApps...)
	return policy
}

// UpdatePolicy replaces the policy and persists it.
func (s *Service) UpdatePolicy(policy Policy) {
	s.mu.Lock()
	s.policy = policy
	s.mu.Unlock()
	s.save()
	s.logActivity("POLICY", "Policy updated", "parent")
}

// AppAllowed reports whether the named app may be launched. Parent mode
// bypasses the allow list.
func (s *Service) AppAllowed(app string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentMode {
		return true
	}
	for _, allowed := range s.policy.AllowedApps {
		if strings.EqualFold(allowed, app) {
			return true
		}
	}
	return false
}

// ToggleApp enables or disables an app in the allow list.
func (s *Service) ToggleApp(app string, enabled bool) {
	app = strings.ToLower(app)
	s.mu.Lock()
	idx := -1
	for i, allowed := range s.policy.AllowedApps {
		if allowed == app {
			idx = i
			break
		}
	}
	if enabled && idx < 0 {
		s.policy.AllowedApps = append(s.policy.AllowedApps, app)
	}
	if !enabled && idx >= 0 {
		s.policy.AllowedApps = append(s.policy.AllowedApps[:idx], s.policy.AllowedApps[idx+1:]...)
	}
	s.mu.Unlock()
	s.save()
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	s.logActivity("POLICY", "App "+app+" "+state, "parent")
}

// Bedtime reports whether the current time falls inside the bedtime window.
// A window whose start is later than its end spans midnight.
func (s *Service) Bedtime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bedtimeLocked()
}

func (s *Service) bedtimeLocked() bool {
	if !s.policy.BedtimeEnabled || s.parentMode {
		return false
	}
	now := clock.Now()
	current := now.Hour()*60 + now.Minute()
	start, okStart := parseClock(s.policy.BedtimeStart)
	end, okEnd := parseClock(s.policy.BedtimeEnd)
	if !okStart || !okEnd {
		return false
	}
	if start > end {
		return current >= start || current < end
	}
	return start <= current && current < end
}

func parseClock(value string) (int, bool) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return hour*60 + minute, true
}

// TimeLimitReached reports whether today's usage hit the daily limit.
func (s *Service) TimeLimitReached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentMode {
		return false
	}
	return s.usageMinutes >= float64(s.policy.DailyLimitMinutes)
}

// RemainingMinutes returns how many minutes of screen time are left today.
func (s *Service) RemainingMinutes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := float64(s.policy.DailyLimitMinutes) - s.usageMinutes
	if remaining < 0 {
		return 0
	}
	return int(remaining)
}

// NeedsBreak reports whether the current session exceeded the session limit.
func (s *Service) NeedsBreak() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.parentMode {
		return false
	}
	return clock.Since(s.lastBreak).Minutes() >= float64(s.policy.SessionLimitMinutes)
}

// TakeBreak records that a break was taken.
func (s *Service) TakeBreak() {
	s.mu.Lock()
	s.lastBreak = clock.Now()
	s.mu.Unlock()
	s.logActivity("BREAK", "Break taken", "kid")
}

// ResetDailyUsage zeroes today's usage (new day, or parent action).
func (s *Service) ResetDailyUsage() {
	s.mu.Lock()
	s.usageMinutes = 0
	s.lastWarned = 0
	s.mu.Unlock()
	s.save()
}

// CheckAndLock locks the system when bedtime or the daily limit applies.
// It returns true when the system is (now) locked.
func (s *Service) CheckAndLock() bool {
	s.mu.Lock()
	if s.parentMode {
		s.mu.Unlock()
		return false
	}
	var reason string
	switch {
	case s.bedtimeLocked():
		reason = "It's bedtime! 🌙"
	case s.usageMinutes >= float64(s.policy.DailyLimitMinutes):
		reason = "Daily time limit reached! 🕐"
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()
	s.lock(reason)
	return true
}

// ForceLock locks the system immediately (parent action).
func (s *Service) ForceLock(reason string) {
	if reason == "" {
		reason = "Locked by parent"
	}
	s.lock(reason)
}

// lock latches the first reason until Unlock.
func (s *Service) lock(reason string) {
	s.mu.Lock()
	if s.locked {
		s.mu.Unlock()
		return
	}
	s.locked = true
	s.lockReason = reason
	s.mu.Unlock()
	s.logActivity("LOCK", reason, "system")

	s.cbMu.Lock()
	callbacks := make([]func(string), len(s.onLock))
	copy(callbacks, s.onLock)
	s.cbMu.Unlock()
	for _, callback := range callbacks {
		invoke(func() { callback(reason) })
	}
}

// Unlock clears the lock when the parent password matches.
func (s *Service) Unlock(password string) bool {
	if !s.CheckPassword(password) {
		s.logActivity("SECURITY", "Failed unlock attempt", "kid")
		return false
	}
	s.mu.Lock()
	s.locked = false
	s.lockReason = ""
	s.mu.Unlock()
	s.logActivity("UNLOCK", "System unlocked by parent", "parent")

	s.cbMu.Lock()
	callbacks := make([]func(), len(s.onUnlock))
	copy(callbacks, s.onUnlock)
	s.cbMu.Unlock()
	for _, callback := range callbacks {
		invoke(callback)
	}
	return true
}

// Locked returns the lock flag and reason.
func (s *Service) Locked() (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked, s.lockReason
}

// OnLock registers a callback for lock events.
func (s *Service) OnLock(callback func(reason string)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onLock = append(s.onLock, callback)
}

// OnUnlock registers a callback for unlock events.
func (s *Service) OnUnlock(callback func()) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onUnlock = append(s.onUnlock, callback)
}

// OnTimeWarning registers a callback for low-remaining-time warnings.
func (s *Service) OnTimeWarning(callback func(minutesLeft int)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.onWarning = append(s.onWarning, callback)
}

// Status returns the current control state for display.
func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	remaining := float64(s.policy.DailyLimitMinutes) - s.usageMinutes
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		ParentMode:       s.parentMode,
		Locked:           s.locked,
		LockReason:       s.lockReason,
		Bedtime:          s.bedtimeLocked(),
		UsageMinutes:     int(s.usageMinutes),
		RemainingMinutes: int(remaining),
		DailyLimit:       s.policy.DailyLimitMinutes,
		PasswordSet:      len(s.passwordHash) > 0,
	}
}

// Start launches the usage tracking loop. Idempotent.
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
	go s.trackLoop(stopCh, doneCh)
}

// Stop halts the tracking loop and persists the state. Idempotent.
func (s *Service) Stop() {
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
	s.save()
}

func (s *Service) trackLoop(stopCh <-chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	ticker := time.NewTicker(s.trackInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.track()
		}
	}
}

// track adds one interval of screen time and applies limits and warnings.
func (s *Service) track() {
	s.mu.Lock()
	if s.parentMode || s.locked {
		s.mu.Unlock()
		return
	}
	s.usageMinutes += s.trackInterval.Minutes()
	remaining := int(float64(s.policy.DailyLimitMinutes) - s.usageMinutes)
	if remaining < 0 {
		remaining = 0
	}
	warn := warnThresholds[remaining] && s.lastWarned != remaining
	if warn {
		s.lastWarned = remaining
	}
	s.mu.Unlock()

	s.CheckAndLock()
	if warn {
		s.cbMu.Lock()
		callbacks := make([]func(int), len(s.onWarning))
		copy(callbacks, s.onWarning)
		s.cbMu.Unlock()
		for _, callback := range callbacks {
			invoke(func() { callback(remaining) })
		}
	}
	s.save()
}

func invoke(callback func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("parental: callback panic recovered: %v", r)
		}
	}()
	callback()
}

func (s *Service) logActivity(kind, detail, user string) {
	if s.activity != nil {
		s.activity.Log(kind, detail, user)
	}
}

// save persists the settings as YAML; best effort.
func (s *Service) save() {
	if s.fs == nil {
		return
	}
	s.mu.Lock()
	state := settings{
		PasswordHash:      string(s.passwordHash),
		Policy:            s.policy,
		TodayUsageMinutes: s.usageMinutes,
		LastSaveDate:      clock.Now().Format("2006-01-02"),
	}
	s.mu.Unlock()
	data, err := yaml.Marshal(&state)
	if err != nil {
		return
	}
	_ = s.fs.Upload(context.Background(), s.url, file.DefaultFileOsMode, bytes.NewReader(data))
}

func (s *Service) load() {
	if s.fs == nil {
		return
	}
	ctx := context.Background()
	if ok, _ := s.fs.Exists(ctx, s.url); !ok {
		return
	}
	data, err := s.fs.DownloadWithURL(ctx, s.url)
	if err != nil {
		return
	}
	var state settings
	if err := yaml.Unmarshal(data, &state); err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.passwordHash = []byte(state.PasswordHash)
	if len(state.Policy.AllowedApps) > 0 || state.Policy.DailyLimitMinutes > 0 {
		s.policy = state.Policy
	}
	// Usage carries over only within the same day.
	if state.LastSaveDate == clock.Now().Format("2006-01-02") {
		s.usageMinutes = state.TodayUsageMinutes
	}
}

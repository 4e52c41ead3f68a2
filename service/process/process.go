package process

import "time"

// State represents a position in the process lifecycle.
type State string

// Process lifecycle states. Transitions run one-way towards Terminated;
// Waiting is reserved for future blocking I/O and is only reachable through
// an explicit SetState call.
const (
	StateNew        State = "New"
	StateReady      State = "Ready"
	StateRunning    State = "Running"
	StateWaiting    State = "Waiting"
	StateTerminated State = "Terminated"
)

// Process represents one launched application instance.
type Process struct {
	PID        int       `json:"pid"`
	Name       string    `json:"name"`
	Priority   int       `json:"priority"`
	State      State     `json:"state"`
	MemoryUsed int       `json:"memoryUsed"`
	CPUTime    float64   `json:"cpuTime"`
	StartTime  time.Time `json:"startTime"`
	ParentPID  int       `json:"parentPid"`
	Icon       string    `json:"icon"`
}

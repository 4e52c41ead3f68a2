package event

import (
	"time"

	"github.com/Saroosh05/MiniMindOS/internal/clock"
)

// Context identifies what a simulation event is about.
type Context struct {
	Kind   string `json:"kind"`
	PID    int    `json:"pid,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Event carries a typed payload to listeners such as the GUI shell.
type Event[T any] struct {
	Context   *Context  `json:"context"`
	CreatedAt time.Time `json:"createdAt"`
	Data      T         `json:"data"`
}

// NewEvent creates an event stamped with the current (test-overridable)
// clock.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: clock.Now(),
		Data:      data,
	}
}

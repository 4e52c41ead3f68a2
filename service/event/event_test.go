package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saroosh05/MiniMindOS/service/messaging/memory"
)

func TestPublisher_PublishConsume(t *testing.T) {
	queue := memory.NewQueue[Event[string]](memory.DefaultConfig())
	publisher := NewPublisher[string](queue)
	ctx := context.Background()

	err := publisher.Publish(ctx, NewEvent(&Context{Kind: "process.created", PID: 1}, "Drawing App"))
	require.NoError(t, err)

	event, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, "process.created", event.Context.Kind)
	assert.Equal(t, 1, event.Context.PID)
	assert.Equal(t, "Drawing App", event.Data)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestListener_HandlesEvents(t *testing.T) {
	queue := memory.NewQueue[Event[int]](memory.DefaultConfig())
	publisher := NewPublisher[int](queue)

	var mu sync.Mutex
	var seen []int
	listener := NewListener(publisher, func(e *Event[int]) {
		mu.Lock()
		seen = append(seen, e.Data)
		mu.Unlock()
	})
	listener.Start()
	defer listener.Stop()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		require.NoError(t, publisher.Publish(ctx, NewEvent(&Context{Kind: "tick"}, i)))
	}

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)

	listener.Stop()
	listener.Stop() // idempotent
}

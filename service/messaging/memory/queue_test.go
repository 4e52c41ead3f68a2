package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	PID  int
	Kind string
}

func TestQueue_PublishConsume(t *testing.T) {
	q := NewQueue[payload](DefaultConfig())
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, &payload{PID: 1, Kind: "process.created"}))
	assert.Equal(t, 1, q.Size())

	msg, err := q.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, msg.T().PID)
	assert.NoError(t, msg.Ack())
	assert.Error(t, msg.Ack(), "double ack must fail")
}

func TestQueue_ConsumeHonoursCancel(t *testing.T) {
	q := NewQueue[payload](DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := q.Consume(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQueue_NackRetriesThenDeadLetters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	cfg.RetryDelay = time.Millisecond
	q := NewQueue[payload](cfg)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, &payload{PID: 2, Kind: "process.terminated"}))

	msg, err := q.Consume(ctx)
	require.NoError(t, err)
	require.NoError(t, msg.Nack(fmt.Errorf("listener failed")))

	// The retry is republished after the delay.
	retryCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	msg, err = q.Consume(retryCtx)
	require.NoError(t, err)

	// Past the retry limit the message lands in the DLQ.
	require.NoError(t, msg.Nack(fmt.Errorf("listener failed again")))
	assert.Eventually(t, func() bool { return q.DLQSize() == 1 }, time.Second, 5*time.Millisecond)
}

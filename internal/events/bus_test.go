package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestBusDeliversInOrder(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 16)

	var mu sync.Mutex
	var got []string
	bus.SubscribeFunc(CandidateAdmitted, func(_ context.Context, e Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(CandidateAdmittedEvent).Address)
		return nil
	})

	for _, addr := range []string{"a", "b", "c"} {
		require.NoError(t, bus.Publish(CandidateAdmittedEvent{
			BaseEvent: NewBaseEvent(CandidateAdmitted),
			Address:   addr,
		}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))

	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestBusPublishAfterShutdown(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	require.NoError(t, bus.Shutdown(context.Background()))

	err := bus.Publish(SwapFailedEvent{BaseEvent: NewBaseEvent(SwapFailed)})
	assert.ErrorIs(t, err, ErrBusClosed)
}

func TestBusPublishSyncCollectsErrors(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t), 1)
	defer bus.Shutdown(context.Background())

	boom := errors.New("boom")
	sub := bus.SubscribeFunc(SwapSubmitted, func(context.Context, Event) error { return boom })

	err := bus.PublishSync(context.Background(), SwapSubmittedEvent{BaseEvent: NewBaseEvent(SwapSubmitted)})
	assert.ErrorIs(t, err, boom)

	sub.Unsubscribe()
	assert.NoError(t, bus.PublishSync(context.Background(), SwapSubmittedEvent{BaseEvent: NewBaseEvent(SwapSubmitted)}))
}

package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/staff-service/internal/config"
	"github.com/spec-kit/staff-service/internal/events"
	"github.com/spec-kit/staff-service/internal/service"
)

type capturePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	block    chan struct{}
}

func (p *capturePublisher) Publish(ctx context.Context, _ string, payload []byte) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *capturePublisher) types(t *testing.T) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.payloads))
	for _, raw := range p.payloads {
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		out = append(out, decoded["type"].(string))
	}
	return out
}

func newWorker(t *testing.T, publisher service.EventPublisher, size int, logger *zap.Logger) (events.Dispatcher, *EventWorker) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher(logger)
	relay := service.NewEventRelay(dispatcher, publisher, config.EventsConfig{Channel: "staff.events"}, zap.NewNop())
	return dispatcher, NewEventWorker(relay, size, logger)
}

func TestEventWorkerDrainsOnStop(t *testing.T) {
	publisher := &capturePublisher{}
	dispatcher, w := newWorker(t, publisher, 16, zap.NewNop())
	w.Start()

	ctx := context.Background()
	for _, eventType := range service.RelayedEvents {
		require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(eventType, "s-1", nil)))
	}

	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, w.Stop(stopCtx))

	assert.Equal(t, []string{"staff.created", "staff.updated", "staff.deactivated", "schedule.attached"}, publisher.types(t))
}

func TestEventWorkerQueueFull(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	publisher := &capturePublisher{block: make(chan struct{})}
	dispatcher, w := newWorker(t, publisher, 1, zap.New(core))
	w.Start()

	ctx := context.Background()
	// the consumer holds the first event, the second fills the queue
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventStaffCreated, "s-1", nil)))
	require.Eventually(t, func() bool { return len(w.queue) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventStaffUpdated, "s-1", nil)))
	require.NoError(t, dispatcher.Publish(ctx, events.NewEvent(events.EventStaffDeactivated, "s-1", nil)))

	failed := logs.FilterMessage("event handler failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "staff.deactivated", failed[0].ContextMap()["event_type"])
	assert.Equal(t, ErrQueueFull.Error(), failed[0].ContextMap()["error"])

	close(publisher.block)
	require.NoError(t, w.Stop(ctx))
	assert.Equal(t, []string{"staff.created", "staff.updated"}, publisher.types(t))
}

func TestEventWorkerRejectsAfterStop(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	publisher := &capturePublisher{}
	dispatcher, w := newWorker(t, publisher, 4, zap.New(core))
	w.Start()
	require.NoError(t, w.Stop(context.Background()))
	require.NoError(t, w.Stop(context.Background()))

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventStaffCreated, "s-1", nil)))

	failed := logs.FilterMessage("event handler failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, ErrWorkerStopped.Error(), failed[0].ContextMap()["error"])
	assert.Empty(t, publisher.types(t))
}

func TestEventWorkerStopHonorsDeadline(t *testing.T) {
	publisher := &capturePublisher{block: make(chan struct{})}
	dispatcher, w := newWorker(t, publisher, 4, zap.NewNop())
	w.Start()
	t.Cleanup(func() { close(publisher.block) })

	require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(events.EventStaffCreated, "s-1", nil)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Stop(ctx), context.DeadlineExceeded)
}

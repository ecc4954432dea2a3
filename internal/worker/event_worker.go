package worker

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-service/internal/events"
	"github.com/spec-kit/staff-service/internal/service"
)

const DefaultQueueSize = 256

var (
	ErrQueueFull     = errors.New("event queue full")
	ErrWorkerStopped = errors.New("event worker stopped")
)

// EventWorker moves relay work off the request path. Events are queued by the
// dispatcher and forwarded by a single goroutine in publish order.
type EventWorker struct {
	relay  *service.EventRelay
	logger *zap.Logger
	queue  chan events.Event

	mu      sync.RWMutex
	started bool
	closed  bool
	done    chan struct{}
}

// NewEventWorker builds a worker with a bounded queue.
func NewEventWorker(relay *service.EventRelay, queueSize int, logger *zap.Logger) *EventWorker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventWorker{
		relay:  relay,
		logger: logger,
		queue:  make(chan events.Event, queueSize),
		done:   make(chan struct{}),
	}
}

// Start subscribes the worker and launches the consumer. Calling it twice is a no-op.
func (w *EventWorker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.closed {
		return
	}
	w.started = true
	w.relay.Subscribe(w.enqueue)
	go w.run()
}

func (w *EventWorker) enqueue(_ context.Context, event events.Event) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return ErrWorkerStopped
	}
	select {
	case w.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *EventWorker) run() {
	defer close(w.done)
	for event := range w.queue {
		if err := w.relay.Handle(context.Background(), event); err != nil {
			w.logger.Warn("relay event",
				zap.String("event_type", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
}

// Stop refuses new events and waits for the queue to drain or ctx to end.
func (w *EventWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	started := w.started
	close(w.queue)
	w.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn("event worker stopped before draining", zap.Int("pending", len(w.queue)))
		return ctx.Err()
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-service/internal/config"
	"github.com/spec-kit/staff-service/internal/events"
)

const relayPublishTimeout = 2 * time.Second

// EventPublisher sends an encoded event to a named channel.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// EventRelay logs domain events and forwards them to an external channel.
type EventRelay struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	channel    string
	logger     *zap.Logger
}

// NewEventRelay creates the relay. A nil publisher keeps events log-only.
func NewEventRelay(dispatcher events.Dispatcher, publisher EventPublisher, cfg config.EventsConfig, logger *zap.Logger) *EventRelay {
	return &EventRelay{
		dispatcher: dispatcher,
		publisher:  publisher,
		channel:    cfg.Channel,
		logger:     logger,
	}
}

// RelayedEvents lists the event types the relay forwards.
var RelayedEvents = []events.EventType{
	events.EventStaffCreated,
	events.EventStaffUpdated,
	events.EventStaffDeactivated,
	events.EventScheduleAttached,
}

// RegisterHandlers relays events synchronously on the publishing goroutine.
func (r *EventRelay) RegisterHandlers() {
	r.Subscribe(r.Handle)
}

// Subscribe attaches handler to every relayed event type.
func (r *EventRelay) Subscribe(handler events.EventHandler) {
	if r.dispatcher == nil {
		return
	}
	for _, t := range RelayedEvents {
		r.dispatcher.Subscribe(t, handler)
	}
}

// Handle logs the event and forwards it to the configured channel.
func (r *EventRelay) Handle(ctx context.Context, event events.Event) error {
	r.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("staff_id", event.StaffID),
		zap.String("franchise_id", event.FranchiseID))

	if r.publisher == nil || strings.TrimSpace(r.channel) == "" {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), relayPublishTimeout)
	defer cancel()
	if err := r.publisher.Publish(pubCtx, r.channel, payload); err != nil {
		return fmt.Errorf("publish event %s: %w", event.ID, err)
	}
	return nil
}

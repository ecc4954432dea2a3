package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventStaffCreated     EventType = "staff.created"
	EventStaffUpdated     EventType = "staff.updated"
	EventStaffDeactivated EventType = "staff.deactivated"
	EventScheduleAttached EventType = "schedule.attached"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	BusinessID  string    `json:"businessId,omitempty"`
	FranchiseID string    `json:"franchiseId,omitempty"`
	StaffID     string    `json:"staffId"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     any       `json:"payload,omitempty"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, staffID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		StaffID:   staffID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// StaffChangedPayload carries the staff fields after a write.
type StaffChangedPayload struct {
	Name   string  `json:"name"`
	Email  *string `json:"email,omitempty"`
	Role   string  `json:"role"`
	Active bool    `json:"active"`
}

// ScheduleAttachedPayload payload.
type ScheduleAttachedPayload struct {
	ScheduleID string    `json:"scheduleId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

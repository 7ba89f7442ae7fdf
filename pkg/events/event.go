package events

import (
	"context"
	"time"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "booking.intent").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to whatever bus is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// BookingIntentType is emitted when a turn is classified as a booking request.
const BookingIntentType = "booking.intent"

// Subject is the bus subject/topic an event is published on.
func Subject(e Event) string {
	return "events." + e.EventType()
}

type BookingIntent struct {
	SessionID    string
	Municipality string
	Query        string
	DocumentID   string
	Answer       string
}

func NewBookingIntentEvent(b BookingIntent, at time.Time) BaseEvent {
	return BaseEvent{
		Type: BookingIntentType,
		Data: map[string]interface{}{
			"session_id":   b.SessionID,
			"municipality": b.Municipality,
			"query":        b.Query,
			"document_id":  b.DocumentID,
			"answer":       b.Answer,
			"occurred_at":  at.UTC().Format(time.RFC3339),
		},
		OccurredAt: at,
	}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Handler processes one delivered event. A non-nil error asks for redelivery.
type Handler func(ctx context.Context, event Event) error

// Subscriber registers a handler on a subject. durable names the consumer group
// on buses that support it.
type Subscriber interface {
	Subscribe(ctx context.Context, subject, durable string, handler Handler) error
}

// TypeFromSubject reverses Subject.
func TypeFromSubject(subject string) string {
	const prefix = "events."
	if len(subject) > len(prefix) && subject[:len(prefix)] == prefix {
		return subject[len(prefix):]
	}
	return subject
}

package events

import "time"

const NoteAddedEventType = "NOTE_ADDED"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "NOTE_ADDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
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

// NewNoteAddedEvent announces a note the remote API accepted.
func NewNoteAddedEvent(routeKey, name, url string) BaseEvent {
	now := time.Now()
	return BaseEvent{
		Type: NoteAddedEventType,
		Data: map[string]interface{}{
			"route_key":   routeKey,
			"name":        name,
			"url":         url,
			"occurred_at": now.Format(time.RFC3339),
		},
		OccurredAt: now,
	}
}

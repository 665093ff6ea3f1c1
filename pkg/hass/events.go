package hass

import "context"

// Event is one narration emission. The wire shape is
// {"type": "status"|"message", "data": {...}}, which is what the host
// renders while an operation is still running.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// StatusData describes operation progress. Done marks the terminal
// emission of an operation.
type StatusData struct {
	Description string `json:"description"`
	Done        bool   `json:"done"`
}

// MessageData carries free-form markdown for the host to render.
type MessageData struct {
	Content string `json:"content"`
}

// Status builds a status event.
func Status(description string, done bool) Event {
	return Event{Type: "status", Data: StatusData{Description: description, Done: done}}
}

// Message builds a markdown message event.
func Message(content string) Event {
	return Event{Type: "message", Data: MessageData{Content: content}}
}

// EventSink receives narration events from a running operation.
// Implementations are expected to serialize their own output; the client
// only guarantees emission order within a single operation.
type EventSink interface {
	Emit(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to the EventSink interface.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Emit(ctx context.Context, ev Event) error { return f(ctx, ev) }

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(context.Context, Event) error { return nil }

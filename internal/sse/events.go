// Package sse implements Server-Sent Events for live catalog notifications.
package sse

import (
	"time"

	"github.com/librisapp/libris-server/internal/dto"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventBookAdded represents a book creation event. This is the single
	// catalog topic live subscribers attach to.
	EventBookAdded EventType = "book.added"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// BookAddedEventData is the data payload for book.added events.
// The book carries its author inlined so events are self-contained and
// renderable without further queries.
type BookAddedEventData struct {
	Book *dto.Book `json:"bookAdded"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewBookAddedEvent creates a book.added event.
// Expects a populated dto.Book with the author resolved.
func NewBookAddedEvent(book *dto.Book) Event {
	return Event{
		Type:      EventBookAdded,
		Data:      BookAddedEventData{Book: book},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}

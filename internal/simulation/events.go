package simulation

import "github.com/simcoach/simcoach/internal/models"

// EventType discriminates the events streamed to the SSE consumer during a turn.
type EventType string

const (
	// EventChunk carries one delta of the character's streamed reply.
	EventChunk EventType = "chunk"
	// EventMood carries the accumulated partial mood analysis for live display.
	EventMood EventType = "mood"
	// EventTurn is the terminal event with the turn outcome.
	EventTurn EventType = "turn"
	// EventError is the terminal event when the assistant stream fails.
	EventError EventType = "error"
)

// Event is one server-sent event of a chat turn.
type Event struct {
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	// Status and Messages are set on the terminal event.
	Status   models.ChatStatus `json:"status,omitempty"`
	Messages []models.Message  `json:"messages,omitempty"`
}

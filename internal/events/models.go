package events

import "time"

// Event is a call lifecycle notification. Events are fire-and-forget:
// consumers that miss one re-read the call record.
type Event struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`

	CallID       string `json:"call_id"`
	RemoteCallID string `json:"remote_call_id,omitempty"`
	UserID       string `json:"user_id"`
	Status       string `json:"status"`

	OccurredAt time.Time `json:"occurred_at"`
}

type Type string

const (
	TypeCallStatusChanged Type = "call.status_changed"
)

// DefaultChannel is the pub/sub channel call events are published on.
const DefaultChannel = "voice-dispatch:call-events"

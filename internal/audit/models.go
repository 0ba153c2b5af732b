package audit

import "time"

// Event is an immutable, append-only record of one call lifecycle transition.
//
// Invariants:
// - Events are never updated or deleted.
// - Appends are best-effort; call handling must not block on audit failures.
type Event struct {
	ID string `json:"id" db:"id"`

	// CallSID ties the event to a call log record.
	CallSID string `json:"callSid" db:"call_sid"`

	Type EventType `json:"type" db:"type"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EventType string

const (
	EventTypeCallInitiated    EventType = "call_initiated"
	EventTypeStatusChanged    EventType = "status_changed"
	EventTypeResponseCaptured EventType = "response_captured"
	EventTypeVoicemailLeft    EventType = "voicemail_left"
	EventTypeSMSSent          EventType = "sms_sent"
	EventTypeRetryScheduled   EventType = "retry_scheduled"
	EventTypeRedialDispatched EventType = "redial_dispatched"
	EventTypeRecordingSaved   EventType = "recording_saved"
)

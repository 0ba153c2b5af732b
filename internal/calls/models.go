package calls

import "time"

// CallLog represents one outbound medication reminder call and its lifecycle
// state. A record is created when the call is placed and mutated by every
// carrier webhook for its CallSID; records are never deleted.
//
// Concurrency: webhook handlers race on the same row with last-write-wins
// semantics. No optimistic locking is applied.
type CallLog struct {
	// CallSID is the carrier-assigned call identifier, unique and immutable
	// once assigned.
	CallSID string `json:"callSid" db:"call_sid"`

	PatientPhone string `json:"patientPhone" db:"patient_phone"`

	Status    CallStatus `json:"status" db:"status"`
	Direction Direction  `json:"direction" db:"direction"`

	// PatientResponse is the carrier-transcribed speech result, overwritten
	// on each gather cycle.
	PatientResponse string `json:"patientResponse,omitempty" db:"patient_response"`

	DurationSeconds int `json:"duration" db:"duration"`

	RecordingURL string `json:"recordingUrl,omitempty" db:"recording_url"`

	// VoicemailLeft and SMSSent only ever flip false -> true.
	VoicemailLeft bool `json:"voicemailLeft" db:"voicemail_left"`
	SMSSent       bool `json:"smsSent" db:"sms_sent"`

	ErrorMessage string `json:"error,omitempty" db:"error_message"`

	// MedicationList is the checklist read to the patient, fixed at creation.
	MedicationList []string `json:"medicationList" db:"medication_list"`

	// CallAttempts starts at 1 and is bumped only when a retry qualifies.
	CallAttempts int `json:"callAttempts" db:"call_attempts"`

	LastAttemptAt time.Time  `json:"lastAttemptAt" db:"last_attempt_at"`
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty" db:"next_attempt_at"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CallStatus string

const (
	CallStatusInitiated  CallStatus = "initiated"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in-progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no-answer"
	CallStatusVoicemail  CallStatus = "voicemail"
)

// ValidStatus reports whether s is a status this service tracks.
// Carrier webhooks are the only source of status strings, so anything else
// is rejected before it reaches storage.
func ValidStatus(s CallStatus) bool {
	switch s {
	case CallStatusInitiated, CallStatusRinging, CallStatusInProgress,
		CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusVoicemail:
		return true
	default:
		return false
	}
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// ApplyStatus records a status transition. LastAttemptAt moves together with
// Status and only then; callers must not touch LastAttemptAt directly.
func (c *CallLog) ApplyStatus(s CallStatus, now time.Time) {
	c.Status = s
	c.LastAttemptAt = now
}

// NeedsRetry reports whether the unanswered call qualifies for another
// attempt under the given cap.
func (c *CallLog) NeedsRetry(maxAttempts int) bool {
	return c.Status == CallStatusNoAnswer && c.CallAttempts < maxAttempts
}

// ScheduleRetry bumps the attempt counter and records when the next attempt
// is due. Callers must check NeedsRetry first.
func (c *CallLog) ScheduleRetry(now time.Time, delay time.Duration) {
	c.CallAttempts++
	at := now.Add(delay)
	c.NextAttemptAt = &at
}

// DurationMinutes is the rounded call duration for display.
func (c *CallLog) DurationMinutes() int {
	return (c.DurationSeconds + 30) / 60
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Status       CallStatus
	PatientPhone string
}

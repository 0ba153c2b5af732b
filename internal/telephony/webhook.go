package telephony

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// WebhookEvent captures the subset of Twilio voice webhook fields this
// service reacts to. Twilio posts application/x-www-form-urlencoded by
// default; JSON bodies are accepted for tooling and tests.
//
// Keep it provider-adapter-only. Lifecycle decisions are not made here.
type WebhookEvent struct {
	CallSID         string
	AccountSID      string
	From            string
	To              string
	CallStatus      string
	AnsweredBy      string
	SpeechResult    string
	DurationSeconds int
	RecordingURL    string
	RecordingSID    string
}

// MachineAnswered reports whether machine detection attributed the answer to
// voicemail rather than a person.
func (e WebhookEvent) MachineAnswered() bool {
	return strings.HasPrefix(e.AnsweredBy, "machine") || e.AnsweredBy == "fax"
}

// ParseWebhookEvent extracts a WebhookEvent from an inbound carrier request.
func ParseWebhookEvent(r *http.Request) (WebhookEvent, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		return parseJSONEvent(r)
	}
	return parseFormEvent(r)
}

func parseFormEvent(r *http.Request) (WebhookEvent, error) {
	if err := r.ParseForm(); err != nil {
		return WebhookEvent{}, err
	}
	dur, _ := strconv.Atoi(r.PostFormValue("CallDuration"))
	return WebhookEvent{
		CallSID:         r.PostFormValue("CallSid"),
		AccountSID:      r.PostFormValue("AccountSid"),
		From:            strings.TrimSpace(r.PostFormValue("From")),
		To:              strings.TrimSpace(r.PostFormValue("To")),
		CallStatus:      r.PostFormValue("CallStatus"),
		AnsweredBy:      r.PostFormValue("AnsweredBy"),
		SpeechResult:    r.PostFormValue("SpeechResult"),
		DurationSeconds: dur,
		RecordingURL:    r.PostFormValue("RecordingUrl"),
		RecordingSID:    r.PostFormValue("RecordingSid"),
	}, nil
}

type jsonEvent struct {
	CallSid      string          `json:"CallSid"`
	AccountSid   string          `json:"AccountSid"`
	From         string          `json:"From"`
	To           string          `json:"To"`
	CallStatus   string          `json:"CallStatus"`
	AnsweredBy   string          `json:"AnsweredBy"`
	SpeechResult string          `json:"SpeechResult"`
	CallDuration json.RawMessage `json:"CallDuration"`
	RecordingUrl string          `json:"RecordingUrl"`
	RecordingSid string          `json:"RecordingSid"`
}

func parseJSONEvent(r *http.Request) (WebhookEvent, error) {
	var body jsonEvent
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return WebhookEvent{}, err
	}
	// CallDuration arrives as a string in carrier payloads but tooling may
	// send a bare number; accept both.
	dur, _ := strconv.Atoi(strings.Trim(string(body.CallDuration), `"`))
	return WebhookEvent{
		CallSID:         body.CallSid,
		AccountSID:      body.AccountSid,
		From:            strings.TrimSpace(body.From),
		To:              strings.TrimSpace(body.To),
		CallStatus:      body.CallStatus,
		AnsweredBy:      body.AnsweredBy,
		SpeechResult:    body.SpeechResult,
		DurationSeconds: dur,
		RecordingURL:    body.RecordingUrl,
		RecordingSID:    body.RecordingSid,
	}, nil
}

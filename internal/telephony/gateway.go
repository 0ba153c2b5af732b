package telephony

import "context"

// Gateway defines the provider-agnostic telephony interface used by business
// logic.
//
// Rules:
// - No provider SDK or REST calls outside telephony adapters.
// - Keep request/response types provider-agnostic; business logic must not
//   depend on carrier payload shapes.
type Gateway interface {
	// PlaceCall starts an outbound call and returns the carrier call id.
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)

	// SendSMS sends a text message.
	SendSMS(ctx context.Context, req SendSMSRequest) (SendSMSResult, error)

	// FetchRecording resolves metadata for a completed call recording.
	FetchRecording(ctx context.Context, req FetchRecordingRequest) (FetchRecordingResult, error)
}

// PlaceCallRequest describes an outbound call. URLs are the webhook callbacks
// the carrier posts progress to.
type PlaceCallRequest struct {
	// To is the destination in E.164 where possible.
	To string

	// AnswerURL receives the voice webhook when the call connects.
	AnswerURL string
	// StatusURL receives lifecycle status events.
	StatusURL string
	// RecordingURL receives the recording-available event.
	RecordingURL string

	// Record asks the carrier to record the call.
	Record bool
}

type PlaceCallResult struct {
	// CallSID is the carrier's unique identifier for the call.
	CallSID string
	Status  string
}

type SendSMSRequest struct {
	To   string
	Body string
}

type SendSMSResult struct {
	MessageSID string
}

type FetchRecordingRequest struct {
	CallSID string
	// RecordingURL is the resource URL delivered by the recording webhook.
	RecordingURL string
}

type FetchRecordingResult struct {
	RecordingSID string
	// URI is the canonical resource reference persisted on the call log.
	URI string
	// MediaURL points at the raw audio, usable for transcription.
	MediaURL        string
	DurationSeconds int
}

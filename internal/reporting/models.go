package reporting

import "time"

// TimeRange bounds a summary query; To is exclusive.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// AdherenceSummaryRequest requests aggregated reminder-call metrics.
type AdherenceSummaryRequest struct {
	Range TimeRange `json:"range"`
}

// AdherenceSummary aggregates reminder outcomes over a time range.
// Response outcomes are derived by classifying stored patient responses;
// NoResponse counts calls that never produced a transcript.
type AdherenceSummary struct {
	Range TimeRange `json:"range"`

	TotalCalls int `json:"total_calls"`

	Confirmed  int `json:"confirmed"`
	Denied     int `json:"denied"`
	Unclear    int `json:"unclear"`
	NoResponse int `json:"no_response"`

	CompletedCalls int `json:"completed_calls"`
	FailedCalls    int `json:"failed_calls"`
	NoAnswerCalls  int `json:"no_answer_calls"`

	VoicemailsLeft int `json:"voicemails_left"`
	SMSSent        int `json:"sms_sent"`
	RecordedCalls  int `json:"recorded_calls"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

package reporting

import (
	"context"
	"errors"
	"time"

	"medremind/internal/calls"
	"medremind/internal/speech"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// CallSource abstracts read access to call logs for reporting.
// The calls repositories satisfy it directly.
type CallSource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]calls.CallLog, error)
}

type Service struct {
	source CallSource
}

func NewService(source CallSource) *Service { return &Service{source: source} }

// AdherenceSummary aggregates reminder-call outcomes over the requested
// range.
func (s *Service) AdherenceSummary(ctx context.Context, req AdherenceSummaryRequest) (AdherenceSummary, error) {
	if req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From) {
		return AdherenceSummary{}, ErrInvalidRequest
	}
	if s.source == nil {
		return AdherenceSummary{}, errors.New("reporting: call source not configured")
	}

	rows, err := s.source.ListBetween(ctx, req.Range.From, req.Range.To)
	if err != nil {
		return AdherenceSummary{}, err
	}

	out := AdherenceSummary{Range: req.Range}
	for _, c := range rows {
		out.TotalCalls++
		out.TotalDurationSeconds += c.DurationSeconds
		if c.RecordingURL != "" {
			out.RecordedCalls++
		}
		if c.VoicemailLeft {
			out.VoicemailsLeft++
		}
		if c.SMSSent {
			out.SMSSent++
		}

		if c.PatientResponse == "" {
			out.NoResponse++
		} else {
			outcome, _ := speech.Classify(c.PatientResponse)
			switch outcome {
			case speech.OutcomeConfirmed:
				out.Confirmed++
			case speech.OutcomeDenied:
				out.Denied++
			case speech.OutcomeUnclear:
				out.Unclear++
			}
		}

		switch c.Status {
		case calls.CallStatusCompleted:
			out.CompletedCalls++
		case calls.CallStatusFailed:
			out.FailedCalls++
		case calls.CallStatusNoAnswer:
			out.NoAnswerCalls++
		case calls.CallStatusInitiated, calls.CallStatusRinging,
			calls.CallStatusInProgress, calls.CallStatusVoicemail:
			// in-flight states are not broken out separately
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
	}
	return out, nil
}

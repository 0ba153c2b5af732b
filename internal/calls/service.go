package calls

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"medremind/internal/audit"
	"medremind/internal/speech"
	"medremind/internal/telephony"
	"medremind/pkg/logger"
)

// CallbackURLs are the absolute webhook URLs handed to the carrier when a
// call is placed.
type CallbackURLs struct {
	Answer    string
	Gather    string
	Status    string
	Recording string
}

// RetryPolicy governs the no-answer branch.
type RetryPolicy struct {
	// MaxAttempts caps attempts per reminder chain, first call included.
	MaxAttempts int
	// Delay is how far ahead the next attempt is scheduled.
	Delay time.Duration
}

// ServiceConfig wires collaborator instances and policy into the controller.
// Everything is constructed at startup and injected; no package-level state.
type ServiceConfig struct {
	Medications []string
	Callbacks   CallbackURLs
	Retry       RetryPolicy

	// Events receives the audit trail. Optional; appends are best-effort.
	Events *audit.Service

	// Transcriber is used when a voicemail recording arrives for a call
	// that never produced a carrier transcript. Optional.
	Transcriber speech.Transcriber

	// Clock overrides time.Now in tests.
	Clock func() time.Time
}

// Service is the call lifecycle controller. It owns every state transition
// of a CallLog and is the only writer to the repository.
type Service struct {
	repo        Repository
	gateway     telephony.Gateway
	events      *audit.Service
	transcriber speech.Transcriber
	medications []string
	urls        CallbackURLs
	retry       RetryPolicy
	clock       func() time.Time
}

func NewService(repo Repository, gateway telephony.Gateway, cfg ServiceConfig) (*Service, error) {
	if repo == nil {
		return nil, errors.New("calls: repository is required")
	}
	if gateway == nil {
		return nil, errors.New("calls: telephony gateway is required")
	}
	if cfg.Callbacks.Answer == "" || cfg.Callbacks.Gather == "" ||
		cfg.Callbacks.Status == "" || cfg.Callbacks.Recording == "" {
		return nil, errors.New("calls: all callback urls are required")
	}
	if len(cfg.Medications) == 0 {
		return nil, errors.New("calls: medication list is required")
	}
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.Delay <= 0 {
		cfg.Retry.Delay = 30 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Service{
		repo:        repo,
		gateway:     gateway,
		events:      cfg.Events,
		transcriber: cfg.Transcriber,
		medications: append([]string(nil), cfg.Medications...),
		urls:        cfg.Callbacks,
		retry:       cfg.Retry,
		clock:       cfg.Clock,
	}, nil
}

// Initiate places an outbound reminder call and creates its call log.
// No record is written if the carrier rejects the call.
func (s *Service) Initiate(ctx context.Context, phoneNumber string) (CallLog, error) {
	phone := strings.TrimSpace(phoneNumber)
	if phone == "" {
		return CallLog{}, validationf("phone number is required")
	}

	res, err := s.gateway.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:           phone,
		AnswerURL:    s.urls.Answer,
		StatusURL:    s.urls.Status,
		RecordingURL: s.urls.Recording,
		Record:       true,
	})
	if err != nil {
		return CallLog{}, UpstreamError{Op: "place call", Err: err}
	}

	now := s.clock().UTC()
	log := CallLog{
		CallSID:        res.CallSID,
		PatientPhone:   phone,
		Status:         CallStatusInitiated,
		Direction:      DirectionOutbound,
		MedicationList: append([]string(nil), s.medications...),
		CallAttempts:   1,
		LastAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, &log); err != nil {
		return CallLog{}, err
	}

	s.recordEvent(ctx, log.CallSID, audit.EventTypeCallInitiated,
		"outbound reminder call placed", fmt.Sprintf(`{"to":%q}`, phone))
	logger.From(ctx).Info("call initiated", "call_sid", log.CallSID, "to", phone)
	return log, nil
}

// HandleAnswer processes the voice webhook fired when the call connects and
// returns the medication checklist prompt as voice markup. When machine
// detection attributes the answer to voicemail, the reminder message is left
// on the machine instead of running the checklist.
func (s *Service) HandleAnswer(ctx context.Context, callSID, callStatus string, machineAnswered bool) (string, error) {
	if callSID == "" {
		return "", validationf("CallSid is required")
	}

	log, err := s.repo.GetBySID(ctx, callSID)
	if err != nil {
		return "", err
	}

	var twiml string
	if machineAnswered {
		twiml, err = telephony.VoicemailTwiML(speech.VoicemailMessage, s.urls.Recording)
		if err != nil {
			return "", err
		}
		log.VoicemailLeft = true
		s.recordEvent(ctx, callSID, audit.EventTypeVoicemailLeft,
			"voicemail message left on answering machine", "")
	} else {
		twiml, err = telephony.GatherTwiML(speech.MedicationPrompt(log.MedicationList), s.urls.Gather)
		if err != nil {
			return "", err
		}
	}

	now := s.clock().UTC()
	if callStatus != "" {
		if err := s.transition(ctx, &log, callStatus, now); err != nil {
			return "", err
		}
	}
	log.UpdatedAt = now
	if err := s.repo.Update(ctx, &log); err != nil {
		return "", err
	}
	return twiml, nil
}

// HandleGather records the patient's spoken response, classifies it, and
// returns the reply as voice markup.
func (s *Service) HandleGather(ctx context.Context, callSID, speechResult string) (string, error) {
	if callSID == "" {
		return "", validationf("CallSid is required")
	}

	log, err := s.repo.GetBySID(ctx, callSID)
	if err != nil {
		return "", err
	}

	log.PatientResponse = speechResult
	outcome, reply := speech.Classify(speechResult)

	twiml, err := telephony.SayTwiML(reply)
	if err != nil {
		return "", err
	}

	log.UpdatedAt = s.clock().UTC()
	if err := s.repo.Update(ctx, &log); err != nil {
		return "", err
	}

	s.recordEvent(ctx, callSID, audit.EventTypeResponseCaptured,
		"patient response classified", fmt.Sprintf(`{"outcome":%q}`, outcome))
	logger.From(ctx).Info("patient response captured",
		"call_sid", callSID, "outcome", string(outcome))
	return twiml, nil
}

// HandleStatus processes a lifecycle status event. On no-answer it runs the
// voicemail + SMS branch and, while attempts remain, schedules a retry.
func (s *Service) HandleStatus(ctx context.Context, callSID, callStatus string, durationSeconds int) error {
	if callSID == "" {
		return validationf("CallSid is required")
	}
	if callStatus == "" {
		return validationf("CallStatus is required")
	}

	log, err := s.repo.GetBySID(ctx, callSID)
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	if err := s.transition(ctx, &log, callStatus, now); err != nil {
		return err
	}
	if durationSeconds > 0 {
		log.DurationSeconds = durationSeconds
	}

	if log.Status == CallStatusNoAnswer {
		if err := s.handleNoAnswer(ctx, &log, now); err != nil {
			return err
		}
	}

	log.UpdatedAt = now
	return s.repo.Update(ctx, &log)
}

// handleNoAnswer marks the voicemail, sends the follow-up SMS, and schedules
// the next attempt when the cap allows. The caller persists the record.
func (s *Service) handleNoAnswer(ctx context.Context, log *CallLog, now time.Time) error {
	log.VoicemailLeft = true
	s.recordEvent(ctx, log.CallSID, audit.EventTypeVoicemailLeft, "voicemail branch entered", "")

	_, err := s.gateway.SendSMS(ctx, telephony.SendSMSRequest{
		To:   log.PatientPhone,
		Body: speech.VoicemailMessage,
	})
	if err != nil {
		// Persist what we know before surfacing the failure; a later status
		// event would otherwise lose the voicemail flag.
		log.ErrorMessage = err.Error()
		log.UpdatedAt = now
		if uerr := s.repo.Update(ctx, log); uerr != nil {
			logger.From(ctx).Error("call log update failed after sms error",
				"call_sid", log.CallSID, "err", uerr)
		}
		return UpstreamError{Op: "send sms", Err: err}
	}
	log.SMSSent = true
	s.recordEvent(ctx, log.CallSID, audit.EventTypeSMSSent, "no-answer follow-up sms sent", "")

	if log.NeedsRetry(s.retry.MaxAttempts) {
		log.ScheduleRetry(now, s.retry.Delay)
		s.recordEvent(ctx, log.CallSID, audit.EventTypeRetryScheduled,
			"retry scheduled", fmt.Sprintf(`{"attempt":%d,"next_attempt_at":%q}`,
				log.CallAttempts, log.NextAttemptAt.Format(time.RFC3339)))
	}
	return nil
}

// HandleRecording resolves recording metadata and stores the reference.
// When the call never produced a carrier transcript, the voicemail audio is
// transcribed as a fallback.
func (s *Service) HandleRecording(ctx context.Context, callSID, recordingURL string) error {
	if callSID == "" {
		return validationf("CallSid is required")
	}
	if recordingURL == "" {
		return validationf("RecordingUrl is required")
	}

	log, err := s.repo.GetBySID(ctx, callSID)
	if err != nil {
		return err
	}

	rec, err := s.gateway.FetchRecording(ctx, telephony.FetchRecordingRequest{
		CallSID:      callSID,
		RecordingURL: recordingURL,
	})
	if err != nil {
		return UpstreamError{Op: "fetch recording", Err: err}
	}

	log.RecordingURL = rec.URI
	s.recordEvent(ctx, callSID, audit.EventTypeRecordingSaved, "recording stored",
		fmt.Sprintf(`{"recording_sid":%q}`, rec.RecordingSID))

	if log.PatientResponse == "" && s.transcriber != nil && rec.MediaURL != "" {
		transcript, terr := s.transcriber.TranscribeURL(ctx, rec.MediaURL)
		if terr != nil {
			logger.From(ctx).Warn("voicemail transcription failed",
				"call_sid", callSID, "err", terr)
		} else {
			log.PatientResponse = transcript
			s.recordEvent(ctx, callSID, audit.EventTypeResponseCaptured,
				"voicemail transcript captured", "")
		}
	}

	log.UpdatedAt = s.clock().UTC()
	return s.repo.Update(ctx, &log)
}

// List returns a page of call logs plus the total match count, newest first.
func (s *Service) List(ctx context.Context, f Filter, page, limit int) ([]CallLog, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, validationf("unsupported status filter %q", f.Status)
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.List(ctx, f, page, limit)
}

// DueRetries returns call logs whose scheduled attempt time has passed.
func (s *Service) DueRetries(ctx context.Context, limit int) ([]CallLog, error) {
	return s.repo.ListDueRetries(ctx, s.clock().UTC(), limit)
}

// Redial places the next attempt for an unanswered call. The carrier assigns
// a fresh CallSID, so the attempt becomes a new record that inherits the
// attempt counter; the originating record's NextAttemptAt is cleared.
func (s *Service) Redial(ctx context.Context, origSID string) (CallLog, error) {
	orig, err := s.repo.GetBySID(ctx, origSID)
	if err != nil {
		return CallLog{}, err
	}
	if orig.NextAttemptAt == nil {
		// Already dispatched by a concurrent replica.
		return CallLog{}, nil
	}

	res, err := s.gateway.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:           orig.PatientPhone,
		AnswerURL:    s.urls.Answer,
		StatusURL:    s.urls.Status,
		RecordingURL: s.urls.Recording,
		Record:       true,
	})
	if err != nil {
		// Leave NextAttemptAt set so the next dispatcher pass tries again.
		return CallLog{}, UpstreamError{Op: "place retry call", Err: err}
	}

	now := s.clock().UTC()
	orig.NextAttemptAt = nil
	orig.UpdatedAt = now
	if err := s.repo.Update(ctx, &orig); err != nil {
		return CallLog{}, err
	}
	s.recordEvent(ctx, orig.CallSID, audit.EventTypeRedialDispatched,
		"retry call placed", fmt.Sprintf(`{"new_call_sid":%q}`, res.CallSID))

	next := CallLog{
		CallSID:        res.CallSID,
		PatientPhone:   orig.PatientPhone,
		Status:         CallStatusInitiated,
		Direction:      DirectionOutbound,
		MedicationList: append([]string(nil), orig.MedicationList...),
		CallAttempts:   orig.CallAttempts,
		LastAttemptAt:  now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, &next); err != nil {
		return CallLog{}, err
	}
	s.recordEvent(ctx, next.CallSID, audit.EventTypeCallInitiated,
		"retry attempt placed", fmt.Sprintf(`{"attempt":%d}`, next.CallAttempts))
	logger.From(ctx).Info("retry call dispatched",
		"orig_call_sid", orig.CallSID, "call_sid", next.CallSID, "attempt", next.CallAttempts)
	return next, nil
}

// Trail returns the audit event history of a call.
func (s *Service) Trail(ctx context.Context, callSID string) ([]audit.Event, error) {
	if s.events == nil {
		return []audit.Event{}, nil
	}
	if _, err := s.repo.GetBySID(ctx, callSID); err != nil {
		return nil, err
	}
	return s.events.Trail(ctx, callSID)
}

func (s *Service) transition(ctx context.Context, log *CallLog, callStatus string, now time.Time) error {
	cs := CallStatus(callStatus)
	if !ValidStatus(cs) {
		return validationf("unsupported call status %q", callStatus)
	}
	prev := log.Status
	log.ApplyStatus(cs, now)
	if prev != cs {
		s.recordEvent(ctx, log.CallSID, audit.EventTypeStatusChanged,
			"status changed", fmt.Sprintf(`{"from":%q,"to":%q}`, prev, cs))
	}
	return nil
}

func (s *Service) recordEvent(ctx context.Context, callSID string, typ audit.EventType, message, metadata string) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, callSID, typ, message, metadata); err != nil {
		logger.From(ctx).Warn("audit append failed", "call_sid", callSID, "err", err)
	}
}

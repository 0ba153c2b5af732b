package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only. No Update/Delete methods are provided by design.
type Repository interface {
	Append(ctx context.Context, e Event) error
	ListByCall(ctx context.Context, callSID string) ([]Event, error)
}

var ErrInvalidEvent = errors.New("audit: invalid event")

// Service records the call event trail.
//
// Callers should treat audit logging as best-effort: log append errors,
// never fail the webhook on them.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.CallSID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// Record appends a typed event for a call.
func (s *Service) Record(ctx context.Context, callSID string, typ EventType, message, metadata string) error {
	return s.Append(ctx, Event{
		CallSID:  callSID,
		Type:     typ,
		Message:  message,
		Metadata: metadata,
	})
}

// Trail returns the event history of one call, oldest first.
func (s *Service) Trail(ctx context.Context, callSID string) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("audit: repository not configured")
	}
	if callSID == "" {
		return nil, ErrInvalidEvent
	}
	return s.repo.ListByCall(ctx, callSID)
}

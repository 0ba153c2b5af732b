package calls

import (
	"context"
	"time"
)

// Repository is the persistence contract for call logs.
//
// Lookups by CallSID must be indexed. List is newest-first with offset
// pagination. Implementations do not enforce cross-record transactions;
// each write is independent (last write wins).
type Repository interface {
	Create(ctx context.Context, log *CallLog) error
	GetBySID(ctx context.Context, callSID string) (CallLog, error)
	Update(ctx context.Context, log *CallLog) error

	// List returns the page of matching records plus the total match count.
	List(ctx context.Context, f Filter, page, limit int) ([]CallLog, int, error)

	// ListDueRetries returns records whose NextAttemptAt has passed,
	// oldest due first, capped at limit.
	ListDueRetries(ctx context.Context, now time.Time, limit int) ([]CallLog, error)

	// ListBetween returns records created within [from, to), newest first.
	// Used by reporting.
	ListBetween(ctx context.Context, from, to time.Time) ([]CallLog, error)
}

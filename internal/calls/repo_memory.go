package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is a simple in-memory call log repository for tests and early
// development. It mirrors the Postgres repository's ordering guarantees.
type MemoryRepo struct {
	mu   sync.Mutex
	logs map[string]CallLog
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{logs: map[string]CallLog{}}
}

func (r *MemoryRepo) Create(ctx context.Context, log *CallLog) error {
	if log.CallSID == "" {
		return validationf("call sid is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.CallSID]; ok {
		return ErrDuplicate
	}
	r.logs[log.CallSID] = cloneLog(*log)
	return nil
}

func (r *MemoryRepo) GetBySID(ctx context.Context, callSID string) (CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	log, ok := r.logs[callSID]
	if !ok {
		return CallLog{}, ErrNotFound
	}
	return cloneLog(log), nil
}

func (r *MemoryRepo) Update(ctx context.Context, log *CallLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.logs[log.CallSID]; !ok {
		return ErrNotFound
	}
	r.logs[log.CallSID] = cloneLog(*log)
	return nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter, page, limit int) ([]CallLog, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]CallLog, 0)
	for _, log := range r.logs {
		if f.Status != "" && log.Status != f.Status {
			continue
		}
		if f.PatientPhone != "" && log.PatientPhone != f.PatientPhone {
			continue
		}
		matched = append(matched, cloneLog(log))
	}
	sortNewestFirst(matched)

	total := len(matched)
	offset := (page - 1) * limit
	if offset >= total {
		return []CallLog{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryRepo) ListDueRetries(ctx context.Context, now time.Time, limit int) ([]CallLog, error) {
	if limit < 1 {
		limit = 50
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]CallLog, 0)
	for _, log := range r.logs {
		if log.NextAttemptAt == nil || log.NextAttemptAt.After(now) {
			continue
		}
		due = append(due, cloneLog(log))
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].NextAttemptAt.Before(*due[j].NextAttemptAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *MemoryRepo) ListBetween(ctx context.Context, from, to time.Time) ([]CallLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]CallLog, 0)
	for _, log := range r.logs {
		if log.CreatedAt.Before(from) || !log.CreatedAt.Before(to) {
			continue
		}
		out = append(out, cloneLog(log))
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(logs []CallLog) {
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].CallSID > logs[j].CallSID
		}
		return logs[i].CreatedAt.After(logs[j].CreatedAt)
	})
}

func cloneLog(log CallLog) CallLog {
	out := log
	if log.MedicationList != nil {
		out.MedicationList = append([]string(nil), log.MedicationList...)
	}
	if log.NextAttemptAt != nil {
		at := *log.NextAttemptAt
		out.NextAttemptAt = &at
	}
	return out
}

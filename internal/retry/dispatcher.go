// Package retry re-dispatches unanswered reminder calls whose scheduled
// attempt time has passed. The call-status webhook only records
// NextAttemptAt; this dispatcher is the component that reads it and places
// the next call.
package retry

import (
	"context"
	"errors"
	"time"

	"medremind/internal/calls"
	"medremind/pkg/logger"

	"github.com/google/uuid"
)

// Claimer grants exclusive dispatch claims so that, with multiple API
// replicas polling, at most one places a given retry call.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type Config struct {
	// PollInterval is how often due retries are scanned for.
	PollInterval time.Duration
	// BatchSize caps records handled per scan.
	BatchSize int
	// ClaimTTL bounds how long a claim survives a crashed replica.
	ClaimTTL time.Duration
}

func (c Config) withDefaults() Config {
	out := c
	if out.PollInterval <= 0 {
		out.PollInterval = time.Minute
	}
	if out.BatchSize <= 0 {
		out.BatchSize = 50
	}
	if out.ClaimTTL <= 0 {
		out.ClaimTTL = 5 * time.Minute
	}
	return out
}

type Dispatcher struct {
	svc     *calls.Service
	claimer Claimer
	cfg     Config
}

func NewDispatcher(svc *calls.Service, claimer Claimer, cfg Config) (*Dispatcher, error) {
	if svc == nil {
		return nil, errors.New("retry: call service is required")
	}
	if claimer == nil {
		return nil, errors.New("retry: claimer is required")
	}
	return &Dispatcher{svc: svc, claimer: claimer, cfg: cfg.withDefaults()}, nil
}

// Run polls until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	log := logger.From(ctx)
	log.Info("retry dispatcher started",
		"poll_interval", d.cfg.PollInterval.String(), "batch_size", d.cfg.BatchSize)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("retry dispatcher stopped")
			return
		case <-ticker.C:
			if n, err := d.RunOnce(ctx); err != nil {
				log.Error("retry scan failed", "err", err)
			} else if n > 0 {
				log.Info("retries dispatched", "count", n)
			}
		}
	}
}

// RunOnce performs a single scan and returns how many calls were
// re-dispatched. A failed redial leaves the record due so a later scan picks
// it up again.
func (d *Dispatcher) RunOnce(ctx context.Context) (int, error) {
	due, err := d.svc.DueRetries(ctx, d.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	log := logger.From(ctx)
	dispatched := 0
	for _, rec := range due {
		key := "retry:dispatch:" + rec.CallSID
		ok, err := d.claimer.Claim(ctx, key, d.cfg.ClaimTTL)
		if err != nil {
			log.Error("retry claim failed", "call_sid", rec.CallSID, "err", err)
			continue
		}
		if !ok {
			continue
		}

		if _, err := d.svc.Redial(ctx, rec.CallSID); err != nil {
			log.Error("redial failed", "call_sid", rec.CallSID, "err", err)
			// Release so another pass can try again before the TTL expires.
			if rerr := d.claimer.Release(ctx, key); rerr != nil {
				log.Warn("retry claim release failed", "call_sid", rec.CallSID, "err", rerr)
			}
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

// NewClaimerID returns a unique owner token for a dispatcher replica.
func NewClaimerID() string { return uuid.NewString() }

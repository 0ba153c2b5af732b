package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"medremind/internal/calls"
	"medremind/internal/telephony"
)

type fakeClaimer struct {
	denyAll  bool
	claimErr error

	claims   []string
	releases []string
}

func (f *fakeClaimer) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.denyAll {
		return false, nil
	}
	f.claims = append(f.claims, key)
	return true, nil
}

func (f *fakeClaimer) Release(ctx context.Context, key string) error {
	f.releases = append(f.releases, key)
	return nil
}

type countingGateway struct {
	placed   int
	placeErr error
}

func (g *countingGateway) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (telephony.PlaceCallResult, error) {
	if g.placeErr != nil {
		return telephony.PlaceCallResult{}, g.placeErr
	}
	g.placed++
	return telephony.PlaceCallResult{CallSID: fmt.Sprintf("CA%03d", g.placed), Status: "queued"}, nil
}

func (g *countingGateway) SendSMS(ctx context.Context, req telephony.SendSMSRequest) (telephony.SendSMSResult, error) {
	return telephony.SendSMSResult{MessageSID: "SM001"}, nil
}

func (g *countingGateway) FetchRecording(ctx context.Context, req telephony.FetchRecordingRequest) (telephony.FetchRecordingResult, error) {
	return telephony.FetchRecordingResult{}, nil
}

func newDispatcherFixture(t *testing.T, gw telephony.Gateway, claimer Claimer) (*Dispatcher, *calls.MemoryRepo) {
	t.Helper()
	repo := calls.NewMemoryRepo()
	svc, err := calls.NewService(repo, gw, calls.ServiceConfig{
		Medications: []string{"Aspirin"},
		Callbacks: calls.CallbackURLs{
			Answer:    "https://svc.example.com/api/calls/webhook",
			Gather:    "https://svc.example.com/api/calls/gather",
			Status:    "https://svc.example.com/api/calls/status",
			Recording: "https://svc.example.com/api/calls/recording",
		},
		Retry: calls.RetryPolicy{MaxAttempts: 3, Delay: 30 * time.Minute},
	})
	if err != nil {
		t.Fatalf("service init failed: %v", err)
	}
	d, err := NewDispatcher(svc, claimer, Config{})
	if err != nil {
		t.Fatalf("dispatcher init failed: %v", err)
	}
	return d, repo
}

func seedDue(t *testing.T, repo *calls.MemoryRepo, sid string, due time.Time) {
	t.Helper()
	log := calls.CallLog{
		CallSID:       sid,
		PatientPhone:  "+1234567890",
		Status:        calls.CallStatusNoAnswer,
		Direction:     calls.DirectionOutbound,
		CallAttempts:  2,
		LastAttemptAt: due.Add(-30 * time.Minute),
		NextAttemptAt: &due,
		CreatedAt:     due.Add(-30 * time.Minute),
		UpdatedAt:     due.Add(-30 * time.Minute),
	}
	if err := repo.Create(context.Background(), &log); err != nil {
		t.Fatalf("seed %s failed: %v", sid, err)
	}
}

func TestRunOnce_DispatchesDueRetries(t *testing.T) {
	gw := &countingGateway{}
	claimer := &fakeClaimer{}
	d, repo := newDispatcherFixture(t, gw, claimer)
	seedDue(t, repo, "CAdue", time.Now().Add(-time.Minute))

	n, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 1 || gw.placed != 1 {
		t.Fatalf("expected one redial, got n=%d placed=%d", n, gw.placed)
	}
	if len(claimer.claims) != 1 || claimer.claims[0] != "retry:dispatch:CAdue" {
		t.Fatalf("unexpected claims: %v", claimer.claims)
	}
	if len(claimer.releases) != 0 {
		t.Fatalf("expected claim kept after success")
	}

	orig, _ := repo.GetBySID(context.Background(), "CAdue")
	if orig.NextAttemptAt != nil {
		t.Fatalf("expected schedule cleared after dispatch")
	}

	// A second scan finds nothing due.
	n, err = d.RunOnce(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected idle second scan, got n=%d err=%v", n, err)
	}
}

func TestRunOnce_SkipsUnclaimedRecords(t *testing.T) {
	gw := &countingGateway{}
	d, repo := newDispatcherFixture(t, gw, &fakeClaimer{denyAll: true})
	seedDue(t, repo, "CAdue", time.Now().Add(-time.Minute))

	n, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 0 || gw.placed != 0 {
		t.Fatalf("expected nothing dispatched, got n=%d placed=%d", n, gw.placed)
	}
}

func TestRunOnce_ReleasesClaimOnRedialFailure(t *testing.T) {
	gw := &countingGateway{placeErr: errors.New("carrier down")}
	claimer := &fakeClaimer{}
	d, repo := newDispatcherFixture(t, gw, claimer)
	seedDue(t, repo, "CAdue", time.Now().Add(-time.Minute))

	n, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("scan itself should not fail: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no dispatches, got %d", n)
	}
	if len(claimer.releases) != 1 {
		t.Fatalf("expected claim released after redial failure")
	}

	// Record stays due for the next pass.
	orig, _ := repo.GetBySID(context.Background(), "CAdue")
	if orig.NextAttemptAt == nil {
		t.Fatalf("expected schedule preserved after failure")
	}
}

func TestRunOnce_ClaimErrorContinues(t *testing.T) {
	gw := &countingGateway{}
	d, repo := newDispatcherFixture(t, gw, &fakeClaimer{claimErr: errors.New("redis down")})
	seedDue(t, repo, "CAdue", time.Now().Add(-time.Minute))

	n, err := d.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("claim errors are per-record, scan should succeed: %v", err)
	}
	if n != 0 || gw.placed != 0 {
		t.Fatalf("expected nothing dispatched, got n=%d placed=%d", n, gw.placed)
	}
}

func TestNewDispatcher_Validation(t *testing.T) {
	if _, err := NewDispatcher(nil, &fakeClaimer{}, Config{}); err == nil {
		t.Fatalf("expected error for nil service")
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PollInterval != time.Minute || cfg.BatchSize != 50 || cfg.ClaimTTL != 5*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

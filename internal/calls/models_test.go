package calls

import (
	"testing"
	"time"
)

func TestApplyStatus_MovesLastAttemptAt(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := CallLog{Status: CallStatusInitiated}

	c.ApplyStatus(CallStatusRinging, now)
	if c.Status != CallStatusRinging {
		t.Fatalf("expected ringing, got %q", c.Status)
	}
	if !c.LastAttemptAt.Equal(now) {
		t.Fatalf("expected last attempt at %v, got %v", now, c.LastAttemptAt)
	}
}

func TestNeedsRetry(t *testing.T) {
	c := CallLog{Status: CallStatusNoAnswer, CallAttempts: 1}
	if !c.NeedsRetry(3) {
		t.Fatalf("expected retry for first no-answer")
	}
	c.CallAttempts = 3
	if c.NeedsRetry(3) {
		t.Fatalf("expected no retry at attempt cap")
	}
	c = CallLog{Status: CallStatusCompleted, CallAttempts: 1}
	if c.NeedsRetry(3) {
		t.Fatalf("expected no retry for completed call")
	}
}

func TestScheduleRetry(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := CallLog{Status: CallStatusNoAnswer, CallAttempts: 1}

	c.ScheduleRetry(now, 30*time.Minute)
	if c.CallAttempts != 2 {
		t.Fatalf("expected attempts 2, got %d", c.CallAttempts)
	}
	if c.NextAttemptAt == nil || !c.NextAttemptAt.Equal(now.Add(30*time.Minute)) {
		t.Fatalf("expected next attempt 30m out, got %v", c.NextAttemptAt)
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []CallStatus{
		CallStatusInitiated, CallStatusRinging, CallStatusInProgress,
		CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer, CallStatusVoicemail,
	} {
		if !ValidStatus(s) {
			t.Fatalf("expected %q valid", s)
		}
	}
	if ValidStatus("busy") {
		t.Fatalf("expected busy invalid for this service")
	}
	if ValidStatus("") {
		t.Fatalf("expected empty status invalid")
	}
}

func TestDurationMinutes(t *testing.T) {
	c := CallLog{DurationSeconds: 95}
	if got := c.DurationMinutes(); got != 2 {
		t.Fatalf("expected 2 minutes, got %d", got)
	}
	c.DurationSeconds = 29
	if got := c.DurationMinutes(); got != 0 {
		t.Fatalf("expected 0 minutes, got %d", got)
	}
}

package utils

import (
	"context"
	"testing"
	"time"
)

func TestRedisConfigDefaults(t *testing.T) {
	cfg := RedisConfig{Addr: "localhost:6379"}.withDefaults()
	if cfg.DialTimeout != 3*time.Second {
		t.Fatalf("unexpected dial timeout: %v", cfg.DialTimeout)
	}
	if cfg.PoolSize != 20 {
		t.Fatalf("unexpected pool size: %d", cfg.PoolSize)
	}
	if cfg.ConnMaxLifetime != 30*time.Minute {
		t.Fatalf("unexpected conn lifetime: %v", cfg.ConnMaxLifetime)
	}
}

func TestOpenRedis_RequiresAddr(t *testing.T) {
	if _, err := OpenRedis(context.Background(), RedisConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}

func TestClaimDispatch_InputValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := ClaimDispatch(ctx, nil, "k", "o", time.Minute); err == nil {
		t.Fatalf("expected error for nil client")
	}
	if err := ReleaseDispatch(ctx, nil, "k", "o"); err == nil {
		t.Fatalf("expected error for nil client")
	}
}

func TestDispatchScriptsDefined(t *testing.T) {
	if dispatchClaimScript == nil || dispatchReleaseScript == nil {
		t.Fatalf("dispatch scripts must be initialized")
	}
	if dispatchClaimScript.Hash() == dispatchReleaseScript.Hash() {
		t.Fatalf("claim and release scripts must differ")
	}
}

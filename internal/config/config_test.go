package config

import (
	"testing"
	"time"
)

func validConfig(env string) Config {
	return Config{
		App:        AppConfig{Env: env, Port: 8080, BaseURL: "https://reminders.example.com"},
		DB:         DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "medremind", SSLMode: "disable"},
		Redis:      RedisConfig{Host: "localhost", Port: 6379},
		Auth:       AuthConfig{JWTSecret: "secret", OperatorAPIKey: "op-key"},
		Twilio:     TwilioConfig{AccountSID: "AC123", AuthToken: "token", PhoneNumber: "+15550000000"},
		Deepgram:   DeepgramConfig{APIKey: "dg"},
		ElevenLabs: ElevenLabsConfig{APIKey: "el"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validConfig("production")
	c.DB.SSLMode = ""
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for production without DB_SSLMODE")
	}
}

func TestValidate_LocalDefaultsSSLMode(t *testing.T) {
	c := validConfig("local")
	c.DB.SSLMode = ""
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
}

func TestValidate_AppliesRetryAndMedicationDefaults(t *testing.T) {
	c := validConfig("local")
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.Retry.MaxAttempts != 3 {
		t.Fatalf("expected default max attempts 3, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Delay != 30*time.Minute {
		t.Fatalf("expected default retry delay 30m, got %v", c.Retry.Delay)
	}
	if c.Retry.PollInterval != time.Minute {
		t.Fatalf("expected default poll interval 1m, got %v", c.Retry.PollInterval)
	}
	if len(c.Medication.List) != 3 {
		t.Fatalf("expected default medication list, got %v", c.Medication.List)
	}
}

func TestValidate_RejectsRelativeBaseURL(t *testing.T) {
	c := validConfig("local")
	c.App.BaseURL = "reminders.example.com"
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-absolute BASE_URL")
	}
}

func TestWebhookURL(t *testing.T) {
	c := validConfig("local")
	if got, want := c.WebhookURL("gather"), "https://reminders.example.com/api/calls/gather"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got, want := c.WebhookURL("/status"), "https://reminders.example.com/api/calls/status"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

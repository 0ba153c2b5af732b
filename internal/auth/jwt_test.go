package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medremind/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{
		JWTSecret:      "test-secret",
		OperatorAPIKey: "test-api-key",
		AccessTokenTTL: 15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("manager init failed: %v", err)
	}
	return m
}

func TestExchangeAndVerify(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tok, err := m.Exchange(now, "test-api-key", "alex")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}

	claims, err := m.Verify(tok, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Operator != "alex" {
		t.Fatalf("expected operator preserved, got %q", claims.Operator)
	}
}

func TestExchange_WrongAPIKey(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.Exchange(time.Now(), "wrong", "alex"); err == nil {
		t.Fatalf("expected rejection for wrong api key")
	}
}

func TestExchange_DefaultsOperatorName(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()
	tok, err := m.Exchange(now, "test-api-key", "")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	claims, err := m.Verify(tok, now)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.Operator != "operator" {
		t.Fatalf("expected default operator, got %q", claims.Operator)
	}
}

func TestVerify_Expired(t *testing.T) {
	m := newTestManager(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	tok, err := m.Exchange(now, "test-api-key", "alex")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if _, err := m.Verify(tok, now.Add(16*time.Minute)); err == nil {
		t.Fatalf("expected expiry rejection")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(config.AuthConfig{
		JWTSecret:      "other-secret",
		OperatorAPIKey: "test-api-key",
	})
	if err != nil {
		t.Fatalf("manager init failed: %v", err)
	}

	now := time.Now()
	tok, err := other.Exchange(now, "test-api-key", "alex")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected signature rejection")
	}
}

func TestVerify_WrongTokenType(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Operator:  "alex",
		TokenType: "refresh",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	if _, err := m.Verify(tok, now); err == nil {
		t.Fatalf("expected token_type rejection")
	}
}

func TestNewManager_Validation(t *testing.T) {
	if _, err := NewManager(config.AuthConfig{OperatorAPIKey: "k"}); err == nil {
		t.Fatalf("expected error for missing secret")
	}
	if _, err := NewManager(config.AuthConfig{JWTSecret: "s"}); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestRequireAccessToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager(t)

	var seenOperator string
	r := gin.New()
	r.GET("/protected", RequireAccessToken(m), func(c *gin.Context) {
		seenOperator, _ = Operator(c.Request.Context())
		c.Status(http.StatusOK)
	})

	// No header.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/protected", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Garbage token.
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", w.Code)
	}

	// Valid token.
	tok, err := m.Exchange(time.Now(), "test-api-key", "alex")
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	req = httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if seenOperator != "alex" {
		t.Fatalf("expected operator in request context, got %q", seenOperator)
	}
}

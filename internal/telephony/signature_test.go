package telephony

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func signedWebhookRouter(authToken, baseURL string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/calls/status", RequireSignature(authToken, baseURL), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestComputeSignature_Deterministic(t *testing.T) {
	form := map[string][]string{
		"CallSid":    {"CA900"},
		"CallStatus": {"completed"},
	}
	a := ComputeSignature("token", "https://svc.example.com/api/calls/status", form)
	b := ComputeSignature("token", "https://svc.example.com/api/calls/status", form)
	if a == "" || a != b {
		t.Fatalf("expected stable signature, got %q vs %q", a, b)
	}
	c := ComputeSignature("other", "https://svc.example.com/api/calls/status", form)
	if a == c {
		t.Fatalf("expected token to change signature")
	}
}

func TestRequireSignature_Valid(t *testing.T) {
	const baseURL = "https://svc.example.com"
	router := signedWebhookRouter("token", baseURL)

	form := url.Values{}
	form.Set("CallSid", "CA900")
	form.Set("CallStatus", "completed")

	req := httptest.NewRequest("POST", "/api/calls/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature",
		ComputeSignature("token", baseURL+"/api/calls/status", form))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireSignature_Missing(t *testing.T) {
	router := signedWebhookRouter("token", "https://svc.example.com")

	req := httptest.NewRequest("POST", "/api/calls/status", strings.NewReader("CallSid=CA900"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRequireSignature_Mismatch(t *testing.T) {
	router := signedWebhookRouter("token", "https://svc.example.com")

	req := httptest.NewRequest("POST", "/api/calls/status", strings.NewReader("CallSid=CA900"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "not-the-signature")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"medremind/internal/auth"
	"medremind/internal/calls"
	"medremind/internal/reporting"
	"medremind/internal/speech"
	"medremind/internal/telephony"
	"medremind/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON
// or voice markup.
type Handlers struct {
	Calls   *calls.Service
	Reports *reporting.Service
	Auth    *auth.Manager

	// TTS renders the prompt preview endpoint. Optional.
	TTS speech.Synthesizer

	// Medications is the default checklist, used by the prompt preview.
	Medications []string

	Production bool
}

var errSynthNotConfigured = errors.New("synthesizer not configured")

// reqCtx carries the request-scoped logger into service calls.
func reqCtx(c *gin.Context) context.Context {
	return logger.With(c.Request.Context(), logger.FromGin(c))
}

// --- Calls ---

type initiateRequest struct {
	PhoneNumber string `json:"phoneNumber"`
}

// InitiateCall places an outbound reminder call.
func (h Handlers) InitiateCall(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, calls.ValidationError{Reason: "phone number is required"})
		return
	}

	log, err := h.Calls.Initiate(reqCtx(c), req.PhoneNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"callSid": log.CallSID,
			"status":  log.Status,
		},
	})
}

// AnswerWebhook handles the carrier voice webhook fired when the patient
// answers; the response is the medication checklist prompt as voice markup.
func (h Handlers) AnswerWebhook(c *gin.Context) {
	ev, err := telephony.ParseWebhookEvent(c.Request)
	if err != nil {
		h.respondError(c, calls.ValidationError{Reason: "invalid webhook payload"})
		return
	}

	twiml, err := h.Calls.HandleAnswer(reqCtx(c), ev.CallSID, ev.CallStatus, ev.MachineAnswered())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twiml)
}

// GatherWebhook handles the speech-gather result and replies with voice
// markup for the classified outcome.
func (h Handlers) GatherWebhook(c *gin.Context) {
	ev, err := telephony.ParseWebhookEvent(c.Request)
	if err != nil {
		h.respondError(c, calls.ValidationError{Reason: "invalid webhook payload"})
		return
	}

	twiml, err := h.Calls.HandleGather(reqCtx(c), ev.CallSID, ev.SpeechResult)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, twiml)
}

// StatusWebhook records lifecycle status updates, including the no-answer
// branch.
func (h Handlers) StatusWebhook(c *gin.Context) {
	ev, err := telephony.ParseWebhookEvent(c.Request)
	if err != nil {
		h.respondError(c, calls.ValidationError{Reason: "invalid webhook payload"})
		return
	}

	if err := h.Calls.HandleStatus(reqCtx(c), ev.CallSID, ev.CallStatus, ev.DurationSeconds); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// RecordingWebhook stores the recording reference for a call.
func (h Handlers) RecordingWebhook(c *gin.Context) {
	ev, err := telephony.ParseWebhookEvent(c.Request)
	if err != nil {
		h.respondError(c, calls.ValidationError{Reason: "invalid webhook payload"})
		return
	}

	if err := h.Calls.HandleRecording(reqCtx(c), ev.CallSID, ev.RecordingURL); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// ListLogs returns a page of call logs, newest first.
func (h Handlers) ListLogs(c *gin.Context) {
	page := intQuery(c, "page", 1)
	limit := intQuery(c, "limit", 10)

	f := calls.Filter{
		Status:       calls.CallStatus(c.Query("status")),
		PatientPhone: c.Query("phoneNumber"),
	}

	logs, total, err := h.Calls.List(reqCtx(c), f, page, limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(logs),
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
		"data": gin.H{"callLogs": logs},
	})
}

// CallTrail returns the audit event history of one call.
func (h Handlers) CallTrail(c *gin.Context) {
	sid := c.Param("callSid")
	events, err := h.Calls.Trail(reqCtx(c), sid)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   gin.H{"events": events},
	})
}

// --- Reporting ---

// Stats returns the adherence summary for a time range; defaults to the last
// seven days.
func (h Handlers) Stats(c *gin.Context) {
	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -7), To: now}

	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.respondError(c, calls.ValidationError{Reason: "from must be RFC3339"})
			return
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.respondError(c, calls.ValidationError{Reason: "to must be RFC3339"})
			return
		}
		rng.To = t
	}

	summary, err := h.Reports.AdherenceSummary(reqCtx(c), reporting.AdherenceSummaryRequest{Range: rng})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"summary": summary}})
}

// --- Prompt preview ---

// PromptPreview synthesizes the default medication prompt so operators can
// audition the spoken text.
func (h Handlers) PromptPreview(c *gin.Context) {
	if h.TTS == nil {
		h.respondError(c, calls.UpstreamError{Op: "synthesize prompt", Err: errSynthNotConfigured})
		return
	}

	audio, err := h.TTS.Synthesize(reqCtx(c), speech.MedicationPrompt(h.Medications))
	if err != nil {
		h.respondError(c, calls.UpstreamError{Op: "synthesize prompt", Err: err})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

// --- Auth ---

type tokenRequest struct {
	APIKey   string `json:"apiKey"`
	Operator string `json:"operator"`
}

// IssueToken exchanges the operator API key for a bearer token.
func (h Handlers) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.APIKey == "" {
		h.respondError(c, calls.ValidationError{Reason: "apiKey is required"})
		return
	}

	token, err := h.Auth.Exchange(time.Now(), req.APIKey, req.Operator)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, errorEnvelope{Status: "fail", Message: "invalid api key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data": gin.H{
			"accessToken": token,
			"tokenType":   "Bearer",
			"expiresIn":   int(h.Auth.AccessTTL().Seconds()),
		},
	})
}

// --- Health ---

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   "medication reminder service is healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v := c.Query(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

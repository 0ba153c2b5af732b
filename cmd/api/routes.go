package main

import (
	"medremind/internal/auth"
	"medremind/internal/config"
	"medremind/internal/httpapi"
	"medremind/internal/telephony"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
//
// Route groups:
// - /health is public.
// - /api/calls webhook endpoints are public for the carrier but guarded by
//   Twilio signature validation (unless disabled for local testing).
// - Operator endpoints (initiate, logs, stats, prompt preview) require a
//   bearer token issued via /api/auth/token.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, cfg config.Config, m *auth.Manager) {
	r.GET("/health", h.Health)

	r.POST("/api/auth/token", h.IssueToken)

	api := r.Group("/api/calls")

	webhooks := api.Group("")
	if cfg.Twilio.ValidateSignature {
		webhooks.Use(telephony.RequireSignature(cfg.Twilio.AuthToken, cfg.App.BaseURL))
	}
	{
		webhooks.POST("/webhook", h.AnswerWebhook)
		webhooks.POST("/gather", h.GatherWebhook)
		webhooks.POST("/status", h.StatusWebhook)
		webhooks.POST("/recording", h.RecordingWebhook)
	}

	operator := api.Group("")
	operator.Use(auth.RequireAccessToken(m))
	{
		operator.POST("/initiate", h.InitiateCall)
		operator.GET("/logs", h.ListLogs)
		operator.GET("/logs/:callSid/events", h.CallTrail)
		operator.GET("/stats", h.Stats)
		operator.GET("/prompt/preview", h.PromptPreview)
	}
}

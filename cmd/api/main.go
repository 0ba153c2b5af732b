package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"medremind/internal/audit"
	"medremind/internal/auth"
	"medremind/internal/calls"
	"medremind/internal/config"
	"medremind/internal/httpapi"
	"medremind/internal/reporting"
	"medremind/internal/retry"
	"medremind/internal/speech"
	"medremind/internal/telephony"
	"medremind/pkg/logger"
	"medremind/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	callRepo := calls.NewPostgresRepo(db)
	if err := callRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("call log schema init failed", "err", err)
		os.Exit(1)
	}
	auditRepo := audit.NewPostgresRepo(db)
	if err := auditRepo.EnsureSchema(rootCtx); err != nil {
		log.Error("audit schema init failed", "err", err)
		os.Exit(1)
	}

	twilioClient, err := telephony.NewTwilioClient(
		cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.PhoneNumber)
	if err != nil {
		log.Error("twilio client init failed", "err", err)
		os.Exit(1)
	}
	transcriber, err := speech.NewDeepgramClient(cfg.Deepgram.APIKey)
	if err != nil {
		log.Error("deepgram client init failed", "err", err)
		os.Exit(1)
	}
	synthesizer, err := speech.NewElevenLabsClient(cfg.ElevenLabs.APIKey)
	if err != nil {
		log.Error("elevenlabs client init failed", "err", err)
		os.Exit(1)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	callService, err := calls.NewService(callRepo, twilioClient, calls.ServiceConfig{
		Medications: cfg.Medication.List,
		Callbacks: calls.CallbackURLs{
			Answer:    cfg.WebhookURL("webhook"),
			Gather:    cfg.WebhookURL("gather"),
			Status:    cfg.WebhookURL("status"),
			Recording: cfg.WebhookURL("recording"),
		},
		Retry: calls.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			Delay:       cfg.Retry.Delay,
		},
		Events:      audit.NewService(auditRepo),
		Transcriber: transcriber,
	})
	if err != nil {
		log.Error("call service init failed", "err", err)
		os.Exit(1)
	}

	claimer, err := retry.NewRedisClaimer(rdb)
	if err != nil {
		log.Error("retry claimer init failed", "err", err)
		os.Exit(1)
	}
	dispatcher, err := retry.NewDispatcher(callService, claimer, retry.Config{
		PollInterval: cfg.Retry.PollInterval,
	})
	if err != nil {
		log.Error("retry dispatcher init failed", "err", err)
		os.Exit(1)
	}
	go dispatcher.Run(logger.With(rootCtx, log))

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	h := httpapi.Handlers{
		Calls:       callService,
		Reports:     reporting.NewService(callRepo),
		Auth:        authManager,
		TTS:         synthesizer,
		Medications: cfg.Medication.List,
		Production:  cfg.IsProduction(),
	}
	registerRoutes(r, h, cfg, authManager)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_dispatch_backend/internal/dispatch"
	apphttp "crm_dispatch_backend/internal/http"
	"crm_dispatch_backend/internal/http/router"
	"crm_dispatch_backend/internal/voice"
	"crm_dispatch_backend/internal/zoho"
	"crm_dispatch_backend/platform/config"
	"crm_dispatch_backend/platform/logger"
	"crm_dispatch_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	zohoModule := zoho.NewModule(cfg, log)

	voiceClient := voice.NewClient(cfg, log)
	if voiceClient == nil {
		log.Info("voice provider disabled: VOICE_API_KEY or VOICE_AGENT_ID not configured")
	}

	dispatchModule := dispatch.NewModule(zohoModule.Service(), voiceClient, cfg, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Modules: []apphttp.Module{
			dispatchModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Traia-IO/test-serper-api-mcp-server/config"
	"github.com/Traia-IO/test-serper-api-mcp-server/facilitator"
	"github.com/Traia-IO/test-serper-api-mcp-server/gateway"
	"github.com/Traia-IO/test-serper-api-mcp-server/logger"
	"github.com/Traia-IO/test-serper-api-mcp-server/serper"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Configuration errors are fatal before any serving begins.
		logger.New("error").Fatal("invalid configuration", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	log.Info("starting serper MCP gateway",
		zap.String("service", cfg.Server.Name),
		zap.String("version", version),
		zap.String("paymentAddress", cfg.Payment.PayTo),
		zap.String("network", cfg.Payment.Network),
		zap.String("facilitator", cfg.Payment.FacilitatorURL),
		zap.Bool("internalKeySet", cfg.Serper.APIKey != ""),
	)
	if cfg.Payment.TestingMode {
		log.Warn("TESTING MODE ENABLED: all requests are admitted without payment verification")
	}
	if cfg.Serper.APIKey == "" {
		log.Warn("SERPER_API_KEY not set: payment required for all requests")
	}

	var authority facilitator.Authority
	if cfg.Payment.FacilitatorURL != "" {
		var opts []facilitator.Option
		if cfg.Payment.FacilitatorAPIKey != "" {
			opts = append(opts, facilitator.WithAuthorization("Bearer "+cfg.Payment.FacilitatorAPIKey))
		}
		authority = facilitator.NewHTTPClient(cfg.Payment.FacilitatorURL, opts...)
	}

	serperClient := serper.NewClient(cfg.Serper.APIKey, serper.WithBaseURL(cfg.Serper.BaseURL))

	srv := gateway.NewServer(cfg.Server.Name, version)
	serper.RegisterTools(srv, serperClient)

	handler, err := srv.Handler(gateway.Options{
		TestingMode:        cfg.Payment.TestingMode,
		InternalCredential: cfg.Serper.APIKey,
		PayTo:              cfg.Payment.PayTo,
		Authority:          authority,
		Logger:             log,
	})
	if err != nil {
		log.Fatal("failed to build gateway", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
}

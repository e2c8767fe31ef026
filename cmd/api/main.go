// Package main is the entry point for the intake API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/spot2/intake-engine/internal/config"
	"github.com/spot2/intake-engine/internal/docstore"
	"github.com/spot2/intake-engine/internal/extract"
	"github.com/spot2/intake-engine/internal/handler"
	"github.com/spot2/intake-engine/internal/llm"
	"github.com/spot2/intake-engine/internal/middleware"
	natsclient "github.com/spot2/intake-engine/internal/nats"
	"github.com/spot2/intake-engine/internal/schema"
	"github.com/spot2/intake-engine/internal/service"
	"github.com/spot2/intake-engine/internal/session"
	"github.com/spot2/intake-engine/pkg/logger"
	"github.com/spot2/intake-engine/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting intake API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "intake-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream audit stream and record buckets exist
	audit := natsclient.NewAuditStream(natsClient)
	if err := audit.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure audit stream", zap.Error(err))
		os.Exit(1)
	}
	gateway := docstore.NewJetStreamGateway(natsClient, log)
	if err := gateway.EnsureBuckets(ctx); err != nil {
		log.Error("failed to ensure record buckets", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
		if err != nil {
			log.Warn("failed to create Anthropic client, extraction degraded", zap.Error(err))
		}
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
		if err != nil {
			log.Warn("failed to create OpenAI client, extraction degraded", zap.Error(err))
		}
	} else {
		log.Warn("no LLM API key configured, extraction degraded")
	}

	// Initialize the intake engine
	registry := schema.Default()
	extractor := extract.New(llmClient, registry, extract.Config{
		Model:      cfg.ExtractionModel,
		Timeout:    cfg.ExtractTimeout,
		Retries:    cfg.ExtractRetries,
		MaxHistory: cfg.MaxHistoryLength,
	}, log)
	store := session.NewMemoryStore()
	intake := service.NewIntake(registry, store, extractor, gateway, audit, service.Limits{
		MaxPromptLength:  cfg.MaxPromptLength,
		MaxFieldLength:   cfg.MaxFieldLength,
		MaxHistoryLength: cfg.MaxHistoryLength,
		SaveTimeout:      cfg.SaveTimeout,
		IdleTimeout:      cfg.IdleTimeout,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	sessionHandler := handler.NewSessionHandler(intake, cfg.MaxPromptLength, log)
	recordHandler := handler.NewRecordHandler(gateway, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Abandon)
			r.Post("/messages", sessionHandler.SendMessage)
		})

		r.Route("/records", func(r chi.Router) {
			r.Get("/collections", recordHandler.ListCollections)
			r.Get("/{collection}", recordHandler.ListDocuments)
			r.Get("/{collection}/count", recordHandler.CountDocuments)
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

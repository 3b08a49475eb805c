// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package orchestrator provides the core orchestrator service for
// RemediumLocal.
//
// This package contains the main Service type that coordinates all
// components: HTTP routing, the LLM backend, the consensus agents, the
// ethical gate, the vector database, the human-review queue, and
// observability infrastructure.
//
// # Usage
//
//	cfg := orchestrator.Config{Port: 12210, LLMBackend: "ollama"}
//	svc, err := orchestrator.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	log.Fatal(svc.Run())
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/consensus"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/language"
	"github.com/remedium-ai/RemediumLocal/services/llm"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/observability"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/routes"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/services"
	"github.com/remedium-ai/RemediumLocal/services/retrieval"
	"github.com/remedium-ai/RemediumLocal/services/safety"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Service defines the contract for the orchestrator service.
//
// # Description
//
// Service abstracts the orchestrator lifecycle, enabling testing and
// alternative implementations. Run() blocks until a shutdown signal or
// server error; it should be called at most once per instance.
//
// # Thread Safety
//
// Implementations must be safe for concurrent use after construction.
type Service interface {
	// Run starts the HTTP server and blocks until shutdown or error.
	Run() error

	// Router returns the underlying Gin engine for integration testing.
	// Callers must not modify the registered routes.
	Router() *gin.Engine
}

// =============================================================================
// Configuration
// =============================================================================

// Config holds orchestrator configuration options. All fields have
// defaults applied by New(), so the zero value is runnable in lightweight
// mode.
type Config struct {
	// Port is the HTTP server port. Default: 12210
	Port int

	// LLMBackend specifies the model provider.
	// Valid values: "ollama", "openai". Default: "ollama"
	LLMBackend string

	// WeaviateURL is the Weaviate vector database URL.
	// If empty, retrieval is disabled and queries run against an empty
	// context (lightweight mode).
	WeaviateURL string

	// OTelEndpoint is the OpenTelemetry collector endpoint.
	// Default: "remedium-otel-collector:4317"
	OTelEndpoint string

	// GinMode sets the Gin framework mode ("debug", "release", "test").
	// Default: uses the GIN_MODE env var or "debug".
	GinMode string

	// MaxIterations bounds the consensus reform loop.
	// Zero or negative values use the policy default.
	MaxIterations int

	// AcceptThreshold is the minimum verification confidence for an
	// accept vote, in (0,1]. Out-of-range values use the policy default.
	AcceptThreshold float64

	// PostSafetyCheck re-runs the ethical gate on generated answers.
	// Default: false.
	PostSafetyCheck bool

	// AuditPath is the directory for the human-review audit trail.
	// If empty, decisions are not persisted across restarts.
	AuditPath string
}

// applyConfigDefaults fills in missing configuration values.
func applyConfigDefaults(cfg Config) Config {
	if cfg.Port == 0 {
		cfg.Port = 12210
	}
	if cfg.LLMBackend == "" {
		cfg.LLMBackend = "ollama"
	}
	if cfg.OTelEndpoint == "" {
		cfg.OTelEndpoint = "remedium-otel-collector:4317"
	}
	if cfg.MaxIterations == 0 {
		cfg.MaxIterations = consensus.DefaultMaxIterations
	}
	return cfg
}

// =============================================================================
// Implementation
// =============================================================================

// service implements Service for production use. All fields are read-only
// after New() returns.
type service struct {
	config         Config
	router         *gin.Engine
	llmClient      llm.LLMClient
	weaviateClient *weaviate.Client
	queryService   *services.QueryService
	reviews        *humanloop.Manager
	tracerCleanup  func(context.Context)
}

// New creates a new orchestrator Service with the given configuration.
//
// # Description
//
// New initializes all components in dependency order: tracing, metrics,
// the Weaviate client (optional), the LLM backend, the language detector,
// the ethical gate, the consensus agents, the human-review queue, and the
// HTTP router. Weaviate failures are not fatal; the service degrades to
// lightweight mode.
//
// # Inputs
//
//   - cfg: Service configuration. Zero values use defaults.
//
// # Outputs
//
//   - Service: Ready-to-run orchestrator service.
//   - error: Non-nil if a required component fails to initialize.
func New(cfg Config) (Service, error) {
	s := &service{config: applyConfigDefaults(cfg)}

	cleanup, err := s.initTracer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracer: %w", err)
	}
	s.tracerCleanup = cleanup

	observability.InitMetrics()

	if err := s.initWeaviate(); err != nil {
		slog.Warn("Weaviate initialization failed, running in lightweight mode", "error", err)
	}

	if err := s.initLLMClient(); err != nil {
		s.cleanup()
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	if err := s.initPipeline(); err != nil {
		s.cleanup()
		return nil, err
	}

	s.initRouter()
	return s, nil
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a server
// error. In-flight requests get a grace period before the listener is
// torn down.
func (s *service) Run() error {
	defer s.cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting orchestrator server", "port", s.config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down orchestrator server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (s *service) Router() *gin.Engine {
	return s.router
}

// =============================================================================
// Private Initialization Methods
// =============================================================================

// initTracer sets up the OTLP trace exporter. Uses an insecure gRPC
// connection, appropriate for internal networks.
func (s *service) initTracer() (func(context.Context), error) {
	ctx := context.Background()

	conn, err := grpc.NewClient(s.config.OTelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("orchestrator-service")))
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))

	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	cleanup := func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}
	return cleanup, nil
}

// initWeaviate creates the Weaviate client if a URL is configured and
// bootstraps the MedicalDocument schema. An empty URL selects lightweight
// mode and is not an error.
func (s *service) initWeaviate() error {
	weaviateURL := strings.Trim(s.config.WeaviateURL, "\"' ")
	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("Weaviate URL not configured, running in lightweight mode")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		return fmt.Errorf("invalid Weaviate URL: %s", weaviateURL)
	}

	s.weaviateClient, err = weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		return fmt.Errorf("failed to create Weaviate client: %w", err)
	}

	retrieval.EnsureSchema(s.weaviateClient)
	slog.Info("Weaviate client initialized", "url", weaviateURL)
	return nil
}

// initLLMClient creates the model backend client.
func (s *service) initLLMClient() error {
	var err error
	switch s.config.LLMBackend {
	case "ollama":
		s.llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	case "openai":
		s.llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	default:
		slog.Warn("Unknown LLM backend, defaulting to ollama", "backend", s.config.LLMBackend)
		s.llmClient, err = llm.NewOllamaClient()
	}
	return err
}

// initPipeline wires the agents, the gate, the detector and the review
// queue into the query service.
func (s *service) initPipeline() error {
	detector, err := language.NewDetector()
	if err != nil {
		return fmt.Errorf("failed to initialize language detector: %w", err)
	}

	gate, err := safety.NewGate()
	if err != nil {
		return fmt.Errorf("failed to initialize ethical gate: %w", err)
	}

	var store *humanloop.AuditStore
	if s.config.AuditPath != "" {
		store, err = humanloop.OpenAuditStore(s.config.AuditPath)
		if err != nil {
			return fmt.Errorf("failed to open audit store: %w", err)
		}
	}
	s.reviews, err = humanloop.NewManager(store)
	if err != nil {
		return fmt.Errorf("failed to initialize human-loop manager: %w", err)
	}

	generator := agents.NewGeneratorAgent(s.llmClient)
	verifier := agents.NewVerifierAgent(s.llmClient, s.config.AcceptThreshold)
	reformer := agents.NewReformerAgent(s.llmClient)
	translator := agents.NewTranslatorAgent(s.llmClient, detector.DefaultLanguage())
	controller := consensus.NewController(generator, verifier, reformer, s.config.MaxIterations)

	var retriever services.ContextRetriever
	if s.weaviateClient != nil {
		retriever = retrieval.NewRetriever(s.weaviateClient)
	}

	s.queryService = services.NewQueryService(detector, gate, retriever, controller,
		translator, s.reviews, services.QueryServiceConfig{
			PivotLanguage:   detector.DefaultLanguage(),
			PostSafetyCheck: s.config.PostSafetyCheck,
		})
	return nil
}

// initRouter creates the Gin engine, applies middleware and registers all
// routes.
func (s *service) initRouter() {
	if s.config.GinMode != "" {
		gin.SetMode(s.config.GinMode)
	}
	s.router = gin.Default()
	s.router.Use(otelgin.Middleware("orchestrator-service"))

	routes.SetupRoutes(s.router, s.queryService, s.reviews, s.weaviateClient)
}

// cleanup releases resources on Run() exit or failed initialization.
func (s *service) cleanup() {
	if s.reviews != nil {
		if err := s.reviews.Close(); err != nil {
			slog.Warn("human-loop manager close error", "error", err)
		}
	}
	if s.tracerCleanup != nil {
		s.tracerCleanup(context.Background())
	}
}

// =============================================================================
// Compile-time Interface Compliance
// =============================================================================

var _ Service = (*service)(nil)

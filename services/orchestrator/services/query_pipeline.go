// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package services contains the business logic of the orchestrator,
// decoupled from HTTP handling.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/consensus"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/language"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/observability"
	"github.com/remedium-ai/RemediumLocal/services/safety"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("remedium.orchestrator.pipeline")

// Per-stage timeouts. Each stage gets its own deadline so one slow
// dependency cannot consume the whole request budget.
const (
	retrievalTimeout   = 30 * time.Second
	consensusTimeout   = 120 * time.Second
	translationTimeout = 60 * time.Second
)

// ContextRetriever abstracts document retrieval for the pipeline.
//
// Implementations must degrade rather than block: a retrieval failure is
// reported as an error and the pipeline continues with an empty context.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) (*datatypes.RetrievedContext, error)
}

// QueryServiceConfig carries the pipeline toggles.
type QueryServiceConfig struct {
	// PivotLanguage is the language drafts are produced in. Answers are
	// translated out of it when the target differs.
	PivotLanguage string
	// PostSafetyCheck re-runs the ethical gate on the generated answer.
	// Off by default: the pre-gate on the query is the contractual check.
	PostSafetyCheck bool
}

// QueryService executes the full multi-agent QA pipeline for one query.
//
// # Description
//
// The stages run strictly in order: language detection, ethical gate,
// context retrieval, the consensus loop, optional post-generation gate,
// translation, the human-review heuristic, and response assembly. Exactly
// one QueryResponse comes out per query on every path.
//
// The service holds no per-query state and is safe for concurrent use.
type QueryService struct {
	detector   *language.Detector
	gate       *safety.Gate
	retriever  ContextRetriever
	controller *consensus.Controller
	translator agents.Translator
	reviews    *humanloop.Manager
	assembler  *ResponseAssembler
	metrics    *observability.PipelineMetrics
	cfg        QueryServiceConfig
	logger     *slog.Logger
}

// NewQueryService wires the pipeline together. All collaborators are
// required except the retriever, which may be nil in lightweight mode
// (every query then runs against an empty context).
func NewQueryService(
	detector *language.Detector,
	gate *safety.Gate,
	retriever ContextRetriever,
	controller *consensus.Controller,
	translator agents.Translator,
	reviews *humanloop.Manager,
	cfg QueryServiceConfig,
) *QueryService {
	if cfg.PivotLanguage == "" {
		cfg.PivotLanguage = "en"
	}
	return &QueryService{
		detector:   detector,
		gate:       gate,
		retriever:  retriever,
		controller: controller,
		translator: translator,
		reviews:    reviews,
		assembler:  NewResponseAssembler(cfg.PivotLanguage),
		metrics:    observability.InitMetrics(),
		cfg:        cfg,
		logger:     slog.Default().With("component", "query_service"),
	}
}

// ProcessQuery runs one question through the whole pipeline.
//
// # Inputs
//   - ctx: Request-scoped context from the HTTP layer.
//   - req: Validated request with defaults applied.
//
// # Outputs
//   - datatypes.QueryResponse: Always populated; degraded paths are
//     expressed inside the response, not as errors.
//   - error: Non-nil only for failures that prevent assembling any
//     response at all (currently none; reserved for future stages).
func (s *QueryService) ProcessQuery(ctx context.Context, req datatypes.QueryRequest) (datatypes.QueryResponse, error) {
	ctx, span := tracer.Start(ctx, "QueryService.ProcessQuery")
	defer span.End()
	start := time.Now()

	detected := s.detector.Detect(req.Question)
	target := req.TargetLanguage
	if target == "" {
		target = detected
	} else if !s.detector.Supported(target) {
		s.logger.Warn("requested target language not supported, falling back to detected",
			"requested", target, "detected", detected)
		target = detected
	}
	query := datatypes.NewQuery(req.Question, detected)
	span.SetAttributes(
		attribute.String("query.id", query.Id),
		attribute.String("query.detected_language", detected),
		attribute.String("query.target_language", target),
	)
	logger := s.logger.With("query_id", query.Id, "request_id", req.RequestID)
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		logger = logger.With("trace_id", sc.TraceID().String())
	}

	// The ethical gate runs before any retrieval or model call.
	if s.gate.ShouldBlock(query.Text, detected) {
		logger.Warn("query blocked by ethical gate",
			"language", detected,
			"term", s.gate.MatchedTerm(query.Text, detected),
		)
		span.AddEvent("ethical_gate_blocked")
		return s.finishFallback(query, target, start), nil
	}

	retrieved := s.retrieve(ctx, logger, query.Text)
	record := s.runConsensus(ctx, query.Text, *retrieved)

	// Optional defense-in-depth check on the generated answer.
	if s.cfg.PostSafetyCheck && s.gate.ShouldBlock(record.Best().Response.Answer, s.cfg.PivotLanguage) {
		logger.Warn("generated answer blocked by post-generation gate")
		span.AddEvent("post_safety_gate_blocked")
		return s.finishFallback(query, target, start), nil
	}

	translation := agents.TranslationResult{Text: record.Best().Response.Answer}
	if target != s.cfg.PivotLanguage {
		translation = s.translate(ctx, logger, record.Best().Response.Answer, target)
	}

	required := s.evaluateReview(logger, query, record, translation.Text)

	response := s.assembler.AssembleConsensus(query, target, record, retrieved, translation, required, time.Since(start))
	s.metrics.QueriesTotal.WithLabelValues(datatypes.WorkflowConsensus, record.Status).Inc()
	s.metrics.ConsensusIterations.Observe(float64(record.Iteration + 1))
	s.metrics.ProcessingSeconds.WithLabelValues(datatypes.WorkflowConsensus).Observe(response.ProcessingTime)

	logger.Info("query processed",
		"workflow", response.Workflow,
		"consensus", record.Status,
		"iterations", record.Iteration+1,
		"human_validation_required", required,
		"processing_time", response.ProcessingTime,
	)
	return response, nil
}

// finishFallback assembles the canonical safety response and records its
// metrics.
func (s *QueryService) finishFallback(query datatypes.Query, target string, start time.Time) datatypes.QueryResponse {
	fallback := s.gate.BuildFallback(target)
	response := s.assembler.AssembleFallback(query, target, fallback, time.Since(start))
	s.metrics.QueriesTotal.WithLabelValues(datatypes.WorkflowEthicalFallback, "blocked").Inc()
	s.metrics.ProcessingSeconds.WithLabelValues(datatypes.WorkflowEthicalFallback).Observe(response.ProcessingTime)
	return response
}

// retrieve binds the document context once per query. Failures and
// lightweight mode both degrade to an empty context.
func (s *QueryService) retrieve(ctx context.Context, logger *slog.Logger, text string) *datatypes.RetrievedContext {
	if s.retriever == nil {
		return datatypes.EmptyContext()
	}
	ctx, cancel := context.WithTimeout(ctx, retrievalTimeout)
	defer cancel()

	retrieved, err := s.retriever.Retrieve(ctx, text)
	if err != nil {
		logger.Warn("retrieval failed, continuing without context", "error", err)
		return datatypes.EmptyContext()
	}
	return retrieved
}

func (s *QueryService) runConsensus(ctx context.Context, text string, retrieved datatypes.RetrievedContext) datatypes.ConsensusRecord {
	ctx, cancel := context.WithTimeout(ctx, consensusTimeout)
	defer cancel()
	return s.controller.Run(ctx, text, retrieved)
}

func (s *QueryService) translate(ctx context.Context, logger *slog.Logger, answer, target string) agents.TranslationResult {
	ctx, cancel := context.WithTimeout(ctx, translationTimeout)
	defer cancel()

	translation := s.translator.Translate(ctx, answer, target)
	if translation.Degraded {
		logger.Warn("translation degraded, serving pivot-language answer", "target_language", target)
		s.metrics.TranslationsDegraded.Inc()
	}
	return translation
}

// evaluateReview applies the human-loop heuristic and enqueues the
// response when review is required.
func (s *QueryService) evaluateReview(logger *slog.Logger, query datatypes.Query, record datatypes.ConsensusRecord, answer string) bool {
	required, reason, priority := s.reviews.Evaluate(query.Text, query.Language, record.Status)
	if !required {
		return false
	}
	req := datatypes.NewValidationRequest(query.Id, query.Text, answer, priority, reason)
	if err := s.reviews.Enqueue(req); err != nil {
		logger.Error("failed to enqueue validation request", "error", err)
	}
	s.metrics.ValidationQueueDepth.Set(float64(s.reviews.QueueDepth()))
	return true
}

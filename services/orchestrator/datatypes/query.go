// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides data structures for the orchestrator service.
//
// This file contains the query request/response types for the multi-agent
// QA pipeline. For consensus-loop records see consensus.go, for retrieval
// types see retrieval.go, and for human-review types see validation.go.
package datatypes

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// =============================================================================
// Constants for Security Compliance
// =============================================================================

const (
	// MaxQuestionBytes is the maximum size of a single question.
	// Unbounded query input is rejected before any model call.
	MaxQuestionBytes = 16 * 1024 // 16KB
)

// queryValidate is the shared validator instance for query datatypes.
var queryValidate *validator.Validate

func init() {
	queryValidate = validator.New()
	_ = queryValidate.RegisterValidation("maxbytes", validateQuestionBytes)
}

// validateQuestionBytes enforces MaxQuestionBytes on byte length, not rune
// count, so multi-byte payloads cannot bypass the limit.
func validateQuestionBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxQuestionBytes
}

// =============================================================================
// Query Types
// =============================================================================

// Query is the immutable, request-scoped representation of one user
// question after language detection.
//
// # Fields
//
//   - Id: Unique identifier (UUID v4), generated at construction.
//   - Text: The raw question text, never mutated after creation.
//   - Language: Detected ISO 639-1 language code (e.g. "en", "fr").
//   - CreatedAt: Unix timestamp in milliseconds (UTC).
type Query struct {
	Id        string `json:"id"`
	Text      string `json:"text"`
	Language  string `json:"language"`
	CreatedAt int64  `json:"created_at"`
}

// NewQuery builds a Query with a fresh UUID and the current timestamp.
func NewQuery(text, language string) Query {
	return Query{
		Id:        uuid.NewString(),
		Text:      text,
		Language:  language,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// QueryRequest represents the POST /v1/query request body.
//
// # Description
//
// QueryRequest carries the user's pharmaceutical question plus optional
// correlation fields. Every request ends up with a unique ID and timestamp
// for audit trails; missing values are populated by EnsureDefaults.
//
// # Validation
//
// Uses go-playground/validator:
//   - Question: required, max 16KB (maxbytes)
//   - RequestID: optional, must be UUID v4 when supplied
type QueryRequest struct {
	RequestID string `json:"request_id" validate:"omitempty,uuid4"`
	Timestamp int64  `json:"timestamp" validate:"gte=0"`
	Question  string `json:"question" validate:"required,maxbytes"`
	// TargetLanguage forces the response language instead of the detected
	// one. Optional; empty means "answer in the detected language".
	TargetLanguage string `json:"target_language,omitempty" validate:"omitempty,len=2"`
}

// Validate validates the QueryRequest fields after JSON binding.
func (r *QueryRequest) Validate() error {
	return queryValidate.Struct(r)
}

// EnsureDefaults populates RequestID and Timestamp if the client omitted
// them, so every request is traceable end to end.
func (r *QueryRequest) EnsureDefaults() {
	if r.RequestID == "" {
		r.RequestID = uuid.NewString()
	}
	if r.Timestamp == 0 {
		r.Timestamp = time.Now().UnixMilli()
	}
}

// =============================================================================
// Assembled Response
// =============================================================================

// SourceInfo identifies one retrieved document chunk that supported the
// answer, with its similarity score in [0,1].
type SourceInfo struct {
	Source string  `json:"source"`
	Score  float64 `json:"score,omitempty"`
}

// VerificationSummary is the caller-facing digest of the final
// VerificationResult.
type VerificationSummary struct {
	Success    bool    `json:"success"`
	Confidence float64 `json:"confidence"`
}

// QueryResponse is the single assembled result returned to the caller.
//
// Exactly one QueryResponse is produced per query regardless of which path
// (normal consensus, ethical fallback, exhausted consensus) was taken. The
// shape is identical on every path; only the content differs.
//
// # Fields
//
//   - Success: False only for transport-level failures, never for degraded
//     answers (degradation is expressed via Consensus/ContextFound markers).
//   - Answer: Final answer text, possibly translated.
//   - Sources: Supporting chunks; empty on ethical fallback.
//   - Confidence: Verification confidence of the selected answer; 0.0 on
//     ethical fallback.
//   - DetectedLanguage / TargetLanguage: ISO 639-1 codes.
//   - ProcessingTime: Wall-clock seconds for the whole pipeline.
//   - Workflow: "consensus" or "ethical_fallback".
//   - AgentWorkflow: Ordered list of the agents that actually ran.
//   - Consensus: "accepted" or "partial"; empty on ethical fallback.
//   - Iteration: Zero-based index of the final consensus iteration.
//   - HumanValidationRequired: Result of the independent human-loop heuristic.
//   - EthicalFallback / SafetyNote / SuggestedActions: Populated only when
//     the safety gate replaced the answer.
//   - ContextFound: False when retrieval degraded to an empty context.
//   - TranslationDegraded: True when translation failed and the pivot-language
//     text was returned instead.
type QueryResponse struct {
	Success                 bool                `json:"success"`
	ResponseId              string              `json:"response_id"`
	Answer                  string              `json:"answer"`
	Sources                 []SourceInfo        `json:"sources"`
	Confidence              float64             `json:"confidence"`
	DetectedLanguage        string              `json:"detected_language"`
	TargetLanguage          string              `json:"target_language"`
	ProcessingTime          float64             `json:"processing_time"`
	Workflow                string              `json:"workflow"`
	AgentWorkflow           []string            `json:"agent_workflow"`
	Consensus               string              `json:"consensus,omitempty"`
	Iteration               int                 `json:"iteration"`
	Verification            VerificationSummary `json:"verification"`
	HumanValidationRequired bool                `json:"human_validation_required"`
	EthicalFallback         bool                `json:"ethical_fallback,omitempty"`
	SafetyNote              string              `json:"safety_note,omitempty"`
	SuggestedActions        []string            `json:"suggested_actions,omitempty"`
	ContextFound            bool                `json:"context_found"`
	TranslationDegraded     bool                `json:"translation_degraded,omitempty"`
}

// Workflow values for QueryResponse.Workflow.
const (
	WorkflowConsensus       = "consensus"
	WorkflowEthicalFallback = "ethical_fallback"
)

// FallbackResponse is the canonical safety-message payload for one language.
// Instances are selected from the embedded policy table, never computed.
type FallbackResponse struct {
	Message          string   `json:"message"`
	Language         string   `json:"language"`
	SafetyNote       string   `json:"safety_note"`
	SuggestedActions []string `json:"suggested_actions,omitempty"`
}

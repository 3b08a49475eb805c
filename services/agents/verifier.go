// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/remedium-ai/RemediumLocal/services/llm"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var verifierTracer = otel.Tracer("remedium.agents.verifier")

// DefaultAcceptThreshold is the minimum combined confidence for an
// accept vote. Overridable via CONSENSUS_ACCEPT_THRESHOLD.
const DefaultAcceptThreshold = 0.7

// genericAnswerMarkers disqualify an answer from acceptance regardless
// of its scores: a template "not found" reply is never consensus.
var genericAnswerMarkers = []string{
	"i cannot find this information",
	"i can't find this information",
	"no information available",
	"je ne trouve pas cette information",
	"no puedo encontrar esta información",
	"ich kann diese information nicht finden",
}

const verifyPrompt = `You are a strict medical answer reviewer.
Score the candidate answer against the question and the reference
documents. Respond with ONLY a JSON object, no prose:
{"accuracy": <0.0-1.0>, "completeness": <0.0-1.0>, "rationale": "<one sentence>"}

Reference documents:
%s

Question: %s

Candidate answer:
%s`

// verdictPayload is the JSON shape the verifier model is asked to emit.
type verdictPayload struct {
	Accuracy     float64 `json:"accuracy"`
	Completeness float64 `json:"completeness"`
	Rationale    string  `json:"rationale"`
}

// VerifierAgent scores drafts and casts accept/reject votes.
//
// The combined confidence is the equal-weight mean of accuracy and
// completeness. A verifier-side failure (model error, unparseable
// verdict) is treated conservatively: vote=reject, success=false.
type VerifierAgent struct {
	client          llm.LLMClient
	params          llm.GenerationParams
	acceptThreshold float64
	accuracyWeight  float64
}

// NewVerifierAgent builds a verifier with the given acceptance threshold.
// Pass 0 to use DefaultAcceptThreshold.
func NewVerifierAgent(client llm.LLMClient, acceptThreshold float64) *VerifierAgent {
	if acceptThreshold <= 0 || acceptThreshold > 1 {
		acceptThreshold = DefaultAcceptThreshold
	}
	temp := float32(0.0) // scoring should not be creative
	return &VerifierAgent{
		client:          client,
		params:          llm.GenerationParams{Temperature: &temp},
		acceptThreshold: acceptThreshold,
		accuracyWeight:  0.5,
	}
}

// Verify implements the Verifier interface.
func (v *VerifierAgent) Verify(ctx context.Context, query, contextText, answer string) datatypes.VerificationResult {
	ctx, span := verifierTracer.Start(ctx, "VerifierAgent.Verify")
	defer span.End()

	if isGenericAnswer(answer) {
		span.AddEvent("generic_answer_rejected")
		return datatypes.VerificationResult{
			Vote:      datatypes.VoteReject,
			Rationale: "answer is a generic not-found template",
			Success:   true,
		}
	}

	prompt := buildVerifyPrompt(contextText, query, answer)
	raw, err := v.client.Generate(ctx, prompt, v.params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verifier model call failed")
		slog.Error("Verifier model call failed", "error", err)
		return datatypes.VerificationResult{
			Vote:      datatypes.VoteReject,
			Rationale: "verification unavailable: model call failed",
			Success:   false,
		}
	}

	verdict, ok := parseVerdict(raw)
	if !ok {
		span.AddEvent("unparseable_verdict")
		slog.Warn("Verifier returned an unparseable verdict", "raw_prefix", prefix(raw, 120))
		return datatypes.VerificationResult{
			Vote:      datatypes.VoteReject,
			Rationale: "verification unavailable: unparseable verdict",
			Success:   false,
		}
	}

	confidence := v.accuracyWeight*verdict.Accuracy + (1-v.accuracyWeight)*verdict.Completeness
	vote := datatypes.VoteReject
	if confidence >= v.acceptThreshold {
		vote = datatypes.VoteAccept
	}

	span.SetAttributes(
		attribute.Float64("verifier.accuracy", verdict.Accuracy),
		attribute.Float64("verifier.completeness", verdict.Completeness),
		attribute.Float64("verifier.confidence", confidence),
		attribute.String("verifier.vote", string(vote)),
	)

	return datatypes.VerificationResult{
		Vote:         vote,
		Confidence:   confidence,
		Accuracy:     verdict.Accuracy,
		Completeness: verdict.Completeness,
		Rationale:    verdict.Rationale,
		Success:      true,
	}
}

// buildVerifyPrompt substitutes the scoring prompt. An empty context is
// labeled explicitly so the model does not hallucinate support.
func buildVerifyPrompt(contextText, query, answer string) string {
	if strings.TrimSpace(contextText) == "" {
		contextText = "(no reference documents were retrieved)"
	}
	return fmt.Sprintf(verifyPrompt, contextText, query, answer)
}

// parseVerdict extracts the first JSON object from the model output and
// clamps the scores into [0,1]. Models occasionally wrap the JSON in
// prose or code fences.
func parseVerdict(raw string) (verdictPayload, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return verdictPayload{}, false
	}

	var verdict verdictPayload
	if err := json.Unmarshal([]byte(raw[start:end+1]), &verdict); err != nil {
		return verdictPayload{}, false
	}
	verdict.Accuracy = clamp01(verdict.Accuracy)
	verdict.Completeness = clamp01(verdict.Completeness)
	return verdict, true
}

// isGenericAnswer reports whether the answer is a canned not-found
// template rather than real content.
func isGenericAnswer(answer string) bool {
	lowered := strings.ToLower(answer)
	for _, marker := range genericAnswerMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return strings.TrimSpace(answer) == ""
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

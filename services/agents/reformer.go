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
	"fmt"
	"log/slog"
	"strings"

	"github.com/remedium-ai/RemediumLocal/services/llm"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var reformerTracer = otel.Tracer("remedium.agents.reformer")

const reformPrompt = `You are a careful pharmaceutical information assistant.
A previous draft answer was rejected by a reviewer. Produce a corrected
answer using ONLY the reference documents below. Address the reviewer's
feedback directly. If the documents do not contain the answer, say
exactly: "I cannot find this information in the available documents."

Reference documents:
%s

Question: %s

Rejected draft:
%s

Reviewer feedback: %s

Corrected answer:`

// ReformerAgent revises rejected drafts using the verifier's rationale.
type ReformerAgent struct {
	client llm.LLMClient
	params llm.GenerationParams
}

// NewReformerAgent wires a reformer on top of the given LLM backend.
func NewReformerAgent(client llm.LLMClient) *ReformerAgent {
	temp := float32(0.3) // slightly warmer than generation to escape the rejected phrasing
	return &ReformerAgent{
		client: client,
		params: llm.GenerationParams{Temperature: &temp},
	}
}

// Reform implements the Reformer interface. Like Generate, it wraps one
// model call and converts failures into success=false results.
func (r *ReformerAgent) Reform(ctx context.Context, query, contextText string,
	prior datatypes.AgentResponse, feedback datatypes.VerificationResult) datatypes.AgentResponse {

	ctx, span := reformerTracer.Start(ctx, "ReformerAgent.Reform")
	defer span.End()
	span.SetAttributes(attribute.Int("reformer.prior_iteration", prior.Iteration))

	docs := contextText
	if strings.TrimSpace(docs) == "" {
		docs = "(no reference documents were retrieved)"
	}
	rationale := feedback.Rationale
	if rationale == "" {
		rationale = "the draft was rejected without a stated reason; be more precise and cite the documents"
	}

	prompt := fmt.Sprintf(reformPrompt, docs, query, prior.Answer, rationale)
	text, err := r.client.Generate(ctx, prompt, r.params)
	if err != nil {
		span.RecordError(err)
		slog.Error("Reformer model call failed", "error", err)
		return datatypes.AgentResponse{
			Agent:      NameReformer,
			Success:    false,
			Confidence: 0.0,
		}
	}

	confidence := baseConfidence
	if strings.TrimSpace(contextText) == "" {
		confidence *= noContextPenalty
	}

	return datatypes.AgentResponse{
		Agent:      NameReformer,
		Answer:     strings.TrimSpace(text),
		Confidence: confidence,
		Success:    true,
	}
}

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

var generatorTracer = otel.Tracer("remedium.agents.generator")

const (
	// baseConfidence is the confidence assigned to a successful draft
	// backed by retrieved context.
	baseConfidence = 0.85

	// noContextPenalty scales confidence down when generation had to run
	// against an empty context (degraded retrieval).
	noContextPenalty = 0.75
)

const generatePromptWithContext = `You are a careful pharmaceutical information assistant.
Answer the question using ONLY the reference documents below. If the
documents do not contain the answer, say exactly: "I cannot find this
information in the available documents."

Reference documents:
%s

Question: %s

Answer:`

const generatePromptNoContext = `You are a careful pharmaceutical information assistant.
No reference documents are available for this question. Answer only if
the information is general pharmaceutical knowledge; otherwise say
exactly: "I cannot find this information in the available documents."

Question: %s

Answer:`

// GeneratorAgent produces the initial draft answer. It wraps exactly one
// model call per invocation.
type GeneratorAgent struct {
	client llm.LLMClient
	params llm.GenerationParams
}

// NewGeneratorAgent wires a generator on top of the given LLM backend.
func NewGeneratorAgent(client llm.LLMClient) *GeneratorAgent {
	temp := float32(0.2)
	return &GeneratorAgent{
		client: client,
		params: llm.GenerationParams{Temperature: &temp},
	}
}

// Generate implements the Generator interface.
//
// A model-service failure never raises: it is captured as success=false,
// confidence=0.0, which the consensus controller treats as an automatic
// reject for the iteration.
func (g *GeneratorAgent) Generate(ctx context.Context, query, contextText string) datatypes.AgentResponse {
	ctx, span := generatorTracer.Start(ctx, "GeneratorAgent.Generate")
	defer span.End()

	hasContext := strings.TrimSpace(contextText) != ""
	span.SetAttributes(attribute.Bool("generator.has_context", hasContext))

	var prompt string
	if hasContext {
		prompt = fmt.Sprintf(generatePromptWithContext, contextText, query)
	} else {
		prompt = fmt.Sprintf(generatePromptNoContext, query)
	}

	text, err := g.client.Generate(ctx, prompt, g.params)
	if err != nil {
		span.RecordError(err)
		slog.Error("Generator model call failed", "error", err)
		return datatypes.AgentResponse{
			Agent:      NameGenerator,
			Success:    false,
			Confidence: 0.0,
		}
	}

	confidence := baseConfidence
	if !hasContext {
		confidence *= noContextPenalty
	}
	span.SetAttributes(attribute.Float64("generator.confidence", confidence))

	return datatypes.AgentResponse{
		Agent:      NameGenerator,
		Answer:     strings.TrimSpace(text),
		Confidence: confidence,
		Success:    true,
	}
}

// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package agents contains the reasoning agents of the consensus pipeline.
//
// Each agent wraps exactly one call to the generation model service per
// invocation and never raises to the caller: model failures are captured
// as structured results (success=false, zero confidence) so that no
// failure can propagate past the consensus controller boundary.
//
// The capability surface is split into one small interface per
// operation. Concrete agents implement the subset they support and the
// controller depends only on the interfaces, not on agent identity.
package agents

import (
	"context"

	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
)

// Agent names carried on AgentResponse.Agent and in the caller-facing
// agent_workflow list.
const (
	NameGenerator  = "generator"
	NameVerifier   = "verifier"
	NameReformer   = "reformer"
	NameTranslator = "translator"
)

// Generator produces a draft answer from query + retrieved context.
type Generator interface {
	Generate(ctx context.Context, query, contextText string) datatypes.AgentResponse
}

// Verifier scores a draft answer and casts an accept/reject vote.
type Verifier interface {
	Verify(ctx context.Context, query, contextText, answer string) datatypes.VerificationResult
}

// Reformer revises a rejected draft using the verifier's feedback.
type Reformer interface {
	Reform(ctx context.Context, query, contextText string,
		prior datatypes.AgentResponse, feedback datatypes.VerificationResult) datatypes.AgentResponse
}

// TranslationResult is the outcome of one translation attempt. Degraded
// means the model call failed and Text carries the untranslated input.
type TranslationResult struct {
	Text     string
	Degraded bool
}

// Translator converts finalized answer text into the caller's language.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) TranslationResult
}

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
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var translatorTracer = otel.Tracer("remedium.agents.translator")

const translatePrompt = `Translate the following medical text into the language
with ISO 639-1 code "%s". Preserve dosage numbers, units and drug names
exactly. Respond with ONLY the translated text.

Text:
%s`

// TranslatorAgent converts finalized answers from the pivot language
// into the caller's detected language.
type TranslatorAgent struct {
	client        llm.LLMClient
	params        llm.GenerationParams
	pivotLanguage string
}

// NewTranslatorAgent builds a translator. pivotLanguage is the language
// generation runs in (usually "en"); translation to it is a no-op.
func NewTranslatorAgent(client llm.LLMClient, pivotLanguage string) *TranslatorAgent {
	temp := float32(0.0)
	return &TranslatorAgent{
		client:        client,
		params:        llm.GenerationParams{Temperature: &temp},
		pivotLanguage: pivotLanguage,
	}
}

// Translate implements the Translator interface.
//
// Identity when targetLanguage equals the pivot language. A model
// failure returns the original text with Degraded=true instead of
// failing the request.
func (t *TranslatorAgent) Translate(ctx context.Context, text, targetLanguage string) TranslationResult {
	if targetLanguage == "" || targetLanguage == t.pivotLanguage || strings.TrimSpace(text) == "" {
		return TranslationResult{Text: text}
	}

	ctx, span := translatorTracer.Start(ctx, "TranslatorAgent.Translate")
	defer span.End()
	span.SetAttributes(attribute.String("translator.target_language", targetLanguage))

	prompt := fmt.Sprintf(translatePrompt, targetLanguage, text)
	translated, err := t.client.Generate(ctx, prompt, t.params)
	if err != nil || strings.TrimSpace(translated) == "" {
		span.AddEvent("translation_degraded")
		slog.Warn("Translation degraded, returning pivot-language text",
			"target_language", targetLanguage, "error", err)
		return TranslationResult{Text: text, Degraded: true}
	}

	return TranslationResult{Text: strings.TrimSpace(translated)}
}

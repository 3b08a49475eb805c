// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package safety implements the ethical gate: the policy that decides
// whether a pharmaceutical query must be replaced by a canned safety
// fallback instead of reaching the generation pipeline.
//
// The gate inspects the query only, not generated text. Answer-content
// re-screening exists as an optional second invocation after consensus
// (see the orchestrator's SAFETY_POST_CHECK flag) but uses the same
// query-side tables — it is a policy extension, not a separate engine.
package safety

import (
	"fmt"
	"strings"

	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/safety/enforcement"
	"gopkg.in/yaml.v3"
)

// Gate serves as the main entry point for ethical-gate decisions. It
// holds the loaded per-language term tables and canonical fallbacks.
//
// Gate is immutable after construction and shared read-only across
// workers.
type Gate struct {
	defaultLanguage string
	terms           map[string][]string
	fallbacks       map[string]fallbackEntry
}

// NewGate initializes a Gate from the policy tables embedded in the
// binary via the enforcement package.
//
// Returns an error if the embedded YAML is malformed or a language block
// is missing its fallback message.
func NewGate() (*Gate, error) {
	var file safetyTermFile
	if err := yaml.Unmarshal(enforcement.SafetyTermTables, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded safety policy: %w", err)
	}
	if file.DefaultLanguage == "" {
		return nil, fmt.Errorf("embedded safety policy missing default_language")
	}

	g := &Gate{
		defaultLanguage: file.DefaultLanguage,
		terms:           make(map[string][]string, len(file.Languages)),
		fallbacks:       make(map[string]fallbackEntry, len(file.Languages)),
	}
	for _, lang := range file.Languages {
		if lang.Code == "" {
			return nil, fmt.Errorf("safety policy language block missing code")
		}
		if lang.Fallback.Message == "" {
			return nil, fmt.Errorf("safety policy for %q missing fallback message", lang.Code)
		}
		g.terms[lang.Code] = lang.Terms
		g.fallbacks[lang.Code] = lang.Fallback
	}
	if _, ok := g.fallbacks[g.defaultLanguage]; !ok {
		return nil, fmt.Errorf("safety policy default language %q has no block", g.defaultLanguage)
	}
	return g, nil
}

// ShouldBlock reports whether the query must be replaced by the canonical
// safety fallback for its language.
//
// The check is a substring match of each configured term against the
// lowercased query. Unknown language codes fall back to the default
// language's table so an unexpected locale can never bypass the gate.
func (g *Gate) ShouldBlock(query, language string) bool {
	terms, ok := g.terms[language]
	if !ok {
		terms = g.terms[g.defaultLanguage]
	}
	lowered := strings.ToLower(query)
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}

// MatchedTerm returns the first configured term found in the query, or
// "" when nothing matches. Used for audit logging and reviewer reasons.
func (g *Gate) MatchedTerm(query, language string) string {
	terms, ok := g.terms[language]
	if !ok {
		terms = g.terms[g.defaultLanguage]
	}
	lowered := strings.ToLower(query)
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return term
		}
	}
	return ""
}

// BuildFallback selects the canonical safety payload for a language. The
// payload is selected, never computed — exact message match is a tested
// property of the pipeline. Unknown languages receive the default
// language's payload.
func (g *Gate) BuildFallback(language string) datatypes.FallbackResponse {
	entry, ok := g.fallbacks[language]
	lang := language
	if !ok {
		entry = g.fallbacks[g.defaultLanguage]
		lang = g.defaultLanguage
	}
	return datatypes.FallbackResponse{
		Message:          entry.Message,
		Language:         lang,
		SafetyNote:       entry.SafetyNote,
		SuggestedActions: entry.SuggestedActions,
	}
}

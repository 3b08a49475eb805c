// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGate_EmbeddedPolicy(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err, "embedded policy should parse")
	require.NotNil(t, g)
}

func TestShouldBlock_SafetyTerms(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err)

	tests := []struct {
		name     string
		query    string
		language string
		blocked  bool
	}{
		{"english side effects", "What are the side effects of chemotherapy?", "en", true},
		{"english contraindication", "Is there a CONTRAINDICATION with aspirin?", "en", true},
		{"english pregnancy", "Can I take ibuprofen while pregnant?", "en", true},
		{"english reimbursement", "What is the insurance coverage for this drug?", "en", true},
		{"english benign", "What is the active ingredient of paracetamol?", "en", false},
		{"french effets indesirables", "Quels sont les effets indésirables ?", "fr", true},
		{"french remboursement", "Quel est le taux de remboursement ?", "fr", true},
		{"french benign", "Quel est le principe actif du doliprane ?", "fr", false},
		{"german nebenwirkung", "Welche Nebenwirkungen hat das Medikament?", "de", true},
		{"spanish sobredosis", "¿Qué hago en caso de sobredosis?", "es", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.blocked, g.ShouldBlock(tt.query, tt.language))
		})
	}
}

func TestShouldBlock_UnknownLanguageUsesDefaultTable(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err)

	// "zz" is not a configured language; the English table must still fire
	// so an unexpected locale can never bypass the gate.
	assert.True(t, g.ShouldBlock("tell me about adverse reactions", "zz"))
	assert.False(t, g.ShouldBlock("what is paracetamol", "zz"))
}

func TestMatchedTerm(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err)

	term := g.MatchedTerm("What are the side effects of chemotherapy?", "en")
	assert.Equal(t, "side effect", term)

	assert.Empty(t, g.MatchedTerm("what is paracetamol", "en"))
}

func TestBuildFallback_CanonicalPayload(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err)

	en := g.BuildFallback("en")
	assert.Equal(t, "en", en.Language)
	assert.NotEmpty(t, en.Message)
	assert.NotEmpty(t, en.SafetyNote)
	assert.NotEmpty(t, en.SuggestedActions)

	fr := g.BuildFallback("fr")
	assert.Equal(t, "fr", fr.Language)
	assert.NotEqual(t, en.Message, fr.Message)

	// Selection is stable: the payload is a fixed table entry.
	again := g.BuildFallback("en")
	assert.Equal(t, en, again)
}

func TestBuildFallback_UnknownLanguageFallsBackToDefault(t *testing.T) {
	g, err := NewGate()
	require.NoError(t, err)

	resp := g.BuildFallback("zz")
	assert.Equal(t, "en", resp.Language)
	assert.Equal(t, g.BuildFallback("en").Message, resp.Message)
}

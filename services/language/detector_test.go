// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDetector_EmbeddedTables(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err, "embedded tables should parse")
	assert.Equal(t, "en", d.DefaultLanguage())
	assert.True(t, d.Supported("en"))
	assert.True(t, d.Supported("fr"))
	assert.False(t, d.Supported("zz"))
}

func TestDetect_English(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	lang := d.Detect("What are the side effects of this medicine?")
	assert.Equal(t, "en", lang)
}

func TestDetect_French(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	lang := d.Detect("Quels sont les effets indésirables de ce médicament ?")
	assert.Equal(t, "fr", lang)
}

func TestDetect_EmptyInputReturnsDefault(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	assert.Equal(t, "en", d.Detect(""))
	assert.Equal(t, "en", d.Detect("   \t\n"))
}

func TestDetect_ZeroMatchesReturnsDefault(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	// No keyword from any table appears in this string.
	assert.Equal(t, "en", d.Detect("zzz qqq xxx"))
}

func TestDetect_WholeWordMatchingOnly(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	// "la" appears only inside "relation"; must not count for French.
	assert.Equal(t, "en", d.Detect("what is the relation between these drugs"))
}

// TestDetect_Deterministic verifies that identical input always yields the
// identical language code across repeated calls.
func TestDetect_Deterministic(t *testing.T) {
	d, err := NewDetector()
	require.NoError(t, err)

	inputs := []string{
		"What are the side effects of chemotherapy?",
		"Quelle est la posologie du paracétamol ?",
		"¿Cuáles son los efectos del medicamento?",
		"Welche Nebenwirkungen hat das Medikament?",
		"",
	}
	for _, input := range inputs {
		first := d.Detect(input)
		for i := 0; i < 25; i++ {
			assert.Equal(t, first, d.Detect(input), "input %q", input)
		}
	}
}

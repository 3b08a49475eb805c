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

// fallbackEntry is the canonical safety payload for one language as
// declared in safety_terms.yaml.
type fallbackEntry struct {
	Message          string   `yaml:"message"`
	SafetyNote       string   `yaml:"safety_note"`
	SuggestedActions []string `yaml:"suggested_actions"`
}

// languagePolicy is one language block of safety_terms.yaml.
type languagePolicy struct {
	Code     string        `yaml:"code"`
	Terms    []string      `yaml:"terms"`
	Fallback fallbackEntry `yaml:"fallback"`
}

// safetyTermFile mirrors the embedded safety_terms.yaml layout.
type safetyTermFile struct {
	DefaultLanguage string           `yaml:"default_language"`
	Languages       []languagePolicy `yaml:"languages"`
}

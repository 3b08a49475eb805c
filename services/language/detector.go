// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package language classifies query text into one of the supported
// locales.
//
// Detection is deliberately simple and deterministic: count occurrences
// of each language's keyword set in the lowercased text and pick the
// strict-majority winner. No external calls, no state, no randomness —
// identical input always yields the identical language code.
//
// The keyword tables are baked into the binary via the embed directive
// so the supported-locale set is immutable at runtime and travels with
// the executable.
package language

import (
	"fmt"
	"strings"

	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed language_keywords.yaml
var keywordTables []byte

// languageEntry is one language block of the embedded YAML table.
type languageEntry struct {
	Code     string   `yaml:"code"`
	Keywords []string `yaml:"keywords"`
}

// keywordFile mirrors the embedded language_keywords.yaml layout.
type keywordFile struct {
	DefaultLanguage string          `yaml:"default_language"`
	Languages       []languageEntry `yaml:"languages"`
}

// Detector classifies text into a supported language code.
//
// The zero value is not usable; construct via NewDetector. Detector is
// immutable after construction and safe for concurrent use.
type Detector struct {
	defaultLanguage string
	// keywords maps language code -> keyword set, preserving table order
	// via codes so that iteration is deterministic.
	codes    []string
	keywords map[string][]string
}

// NewDetector loads the embedded keyword tables.
//
// Returns an error only if the embedded YAML is malformed, which is a
// build defect rather than a runtime condition.
func NewDetector() (*Detector, error) {
	var file keywordFile
	if err := yaml.Unmarshal(keywordTables, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded language tables: %w", err)
	}
	if file.DefaultLanguage == "" {
		return nil, fmt.Errorf("embedded language tables missing default_language")
	}

	d := &Detector{
		defaultLanguage: file.DefaultLanguage,
		keywords:        make(map[string][]string, len(file.Languages)),
	}
	for _, entry := range file.Languages {
		if entry.Code == "" || len(entry.Keywords) == 0 {
			return nil, fmt.Errorf("embedded language table entry is incomplete: %+v", entry)
		}
		d.codes = append(d.codes, entry.Code)
		d.keywords[entry.Code] = entry.Keywords
	}
	return d, nil
}

// DefaultLanguage returns the configured fallback language code.
func (d *Detector) DefaultLanguage() string {
	return d.defaultLanguage
}

// Supported reports whether code is in the closed set of detectable
// languages.
func (d *Detector) Supported(code string) bool {
	_, ok := d.keywords[code]
	return ok
}

// Detect returns the language code for text.
//
// Empty input returns the default language; detection never fails. The
// winner needs a strict majority of keyword matches — ties between
// languages and zero-match inputs both resolve to the default.
func (d *Detector) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return d.defaultLanguage
	}

	words := tokenize(strings.ToLower(text))

	bestCode := d.defaultLanguage
	bestCount := 0
	tied := false
	for _, code := range d.codes {
		count := 0
		for _, kw := range d.keywords[code] {
			count += words[kw]
		}
		switch {
		case count > bestCount:
			bestCode = code
			bestCount = count
			tied = false
		case count == bestCount && count > 0:
			tied = true
		}
	}

	if bestCount == 0 || tied {
		return d.defaultLanguage
	}
	return bestCode
}

// tokenize splits lowercased text into word-occurrence counts. Keyword
// matching is whole-word so that "la" does not fire inside "relation".
func tokenize(text string) map[string]int {
	counts := make(map[string]int)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', '\r', '.', ',', ';', ':', '!', '?', '(', ')', '"', '\'':
			return true
		}
		return false
	})
	for _, f := range fields {
		counts[f]++
	}
	return counts
}

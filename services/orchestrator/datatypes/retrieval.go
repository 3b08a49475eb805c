// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"fmt"
	"strings"
)

// ContextChunk is one retrieved document chunk with its similarity score
// in [0,1] and source metadata.
type ContextChunk struct {
	Content string  `json:"content"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
}

// RetrievedContext is the ordered chunk sequence for one query. It is
// owned by the request scope and discarded after response assembly.
//
// An empty RetrievedContext is a valid, non-error state: the pipeline
// proceeds with an empty context and surfaces ContextFound=false to the
// assembler.
type RetrievedContext struct {
	Chunks []ContextChunk `json:"chunks"`
	Count  int            `json:"count"`
}

// EmptyContext returns the degraded no-context value used when retrieval
// fails or returns nothing.
func EmptyContext() *RetrievedContext {
	return &RetrievedContext{Chunks: nil, Count: 0}
}

// Found reports whether any supporting chunk was retrieved.
func (rc *RetrievedContext) Found() bool {
	return rc != nil && len(rc.Chunks) > 0
}

// ContextText formats the chunks for prompt injection:
//
//	[Document 1: leaflet_42.txt]
//	<content>
func (rc *RetrievedContext) ContextText() string {
	if !rc.Found() {
		return ""
	}
	var b strings.Builder
	for i, chunk := range rc.Chunks {
		fmt.Fprintf(&b, "[Document %d: %s]\n%s\n\n", i+1, chunk.Source, chunk.Content)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Sources projects the chunks into the caller-facing source list.
func (rc *RetrievedContext) Sources() []SourceInfo {
	if !rc.Found() {
		return []SourceInfo{}
	}
	sources := make([]SourceInfo, len(rc.Chunks))
	for i, chunk := range rc.Chunks {
		sources[i] = SourceInfo{Source: chunk.Source, Score: chunk.Score}
	}
	return sources
}

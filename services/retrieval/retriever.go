// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval binds the orchestrator to the knowledge store.
//
// The Retriever embeds the query via the external embedding service and
// runs a nearVector search against Weaviate. It is invoked at most once
// per query; any failure (timeout, empty result, missing client) is
// non-fatal — the pipeline proceeds with an empty context and surfaces
// context_found=false to the caller.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// retrievalTracer is the OpenTelemetry tracer for retrieval operations.
var retrievalTracer = otel.Tracer("remedium.retrieval")

// MedicalDocumentClass is the Weaviate class holding ingested leaflet and
// monograph chunks.
const MedicalDocumentClass = "MedicalDocument"

const (
	// defaultMaxChunks bounds how many chunks one query may pull in.
	defaultMaxChunks = 5

	// defaultMinCertainty filters out chunks that are too far from the
	// query vector to be useful prompt context.
	defaultMinCertainty = 0.6
)

// Retriever performs nearest-neighbor context retrieval for one query.
//
// A nil Weaviate client puts the Retriever in lightweight mode: Retrieve
// returns an empty context without error, matching the degrade policy.
type Retriever struct {
	weaviateClient *weaviate.Client
	httpClient     *http.Client
	embedURL       string
	maxChunks      int
	minCertainty   float64
}

// NewRetriever creates a Retriever backed by the given Weaviate client.
//
// The embedding service URL is read from EMBEDDING_SERVICE_URL. When it
// is unset and client is non-nil, retrieval degrades to the empty-context
// path at call time rather than failing construction.
func NewRetriever(client *weaviate.Client) *Retriever {
	embedURL := strings.TrimSuffix(os.Getenv("EMBEDDING_SERVICE_URL"), "/")
	if embedURL == "" && client != nil {
		slog.Warn("EMBEDDING_SERVICE_URL not set, retrieval will degrade to empty context")
	}
	return &Retriever{
		weaviateClient: client,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		embedURL:       embedURL,
		maxChunks:      defaultMaxChunks,
		minCertainty:   defaultMinCertainty,
	}
}

// Retrieve fetches supporting context chunks for the query text.
//
// Invoked at most once per query. Errors are returned for observability
// but the caller is expected to continue with datatypes.EmptyContext();
// an empty result is a valid, non-error response.
func (r *Retriever) Retrieve(ctx context.Context, query string) (*datatypes.RetrievedContext, error) {
	ctx, span := retrievalTracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()

	if r.weaviateClient == nil {
		span.AddEvent("lightweight_mode")
		return datatypes.EmptyContext(), nil
	}
	if r.embedURL == "" {
		err := &RetrievalError{Stage: "embed", Message: "embedding service not configured"}
		span.RecordError(err)
		span.SetStatus(codes.Error, "no embedding service")
		return datatypes.EmptyContext(), err
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "embedding failed")
		return datatypes.EmptyContext(), err
	}

	nearVector := r.weaviateClient.GraphQL().NearVectorArgBuilder().
		WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "_additional { certainty }"},
	}

	result, err := r.weaviateClient.GraphQL().Get().
		WithClassName(MedicalDocumentClass).
		WithFields(fields...).
		WithNearVector(nearVector).
		WithLimit(r.maxChunks).
		Do(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weaviate search failed")
		return datatypes.EmptyContext(), &RetrievalError{Stage: "search", Message: err.Error()}
	}
	if len(result.Errors) > 0 {
		err := &RetrievalError{Stage: "search", Message: result.Errors[0].Message}
		span.RecordError(err)
		span.SetStatus(codes.Error, "weaviate search error")
		return datatypes.EmptyContext(), err
	}

	chunks := parseSearchResponse(result.Data, r.minCertainty)
	span.SetAttributes(
		attribute.Int("retrieval.chunks_count", len(chunks)),
		attribute.Float64("retrieval.min_certainty", r.minCertainty),
	)
	slog.Info("Retrieved context", "chunks", len(chunks))

	return &datatypes.RetrievedContext{Chunks: chunks, Count: len(chunks)}, nil
}

// embedQuery calls the external embedding service for the query vector.
func (r *Retriever) embedQuery(ctx context.Context, text string) ([]float32, error) {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.embedURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &RetrievalError{Stage: "embed", Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RetrievalError{
			Stage:      "embed",
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	var embedResp struct {
		Vector []float32 `json:"vector"`
	}
	if err := json.Unmarshal(body, &embedResp); err != nil {
		return nil, fmt.Errorf("failed to parse embedding response: %w", err)
	}
	if len(embedResp.Vector) == 0 {
		return nil, &RetrievalError{Stage: "embed", Message: "embedding service returned an empty vector"}
	}
	return embedResp.Vector, nil
}

// parseSearchResponse walks the GraphQL response map into context chunks,
// dropping anything below minCertainty. Certainty is carried through as
// the chunk's similarity score in [0,1].
func parseSearchResponse(data map[string]models.JSONObject, minCertainty float64) []datatypes.ContextChunk {
	var chunks []datatypes.ContextChunk

	get, ok := data["Get"].(map[string]interface{})
	if !ok {
		return chunks
	}
	docs, ok := get[MedicalDocumentClass].([]interface{})
	if !ok {
		return chunks
	}

	for _, item := range docs {
		doc, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		content, _ := doc["content"].(string)
		source, _ := doc["source"].(string)
		if content == "" {
			continue
		}

		score := 0.0
		if additional, ok := doc["_additional"].(map[string]interface{}); ok {
			if certainty, ok := additional["certainty"].(float64); ok {
				score = certainty
			}
		}
		if score < minCertainty {
			continue
		}

		chunks = append(chunks, datatypes.ContextChunk{
			Content: content,
			Score:   score,
			Source:  source,
		})
	}
	return chunks
}

// =============================================================================
// Error Types
// =============================================================================

// RetrievalError wraps failures from the embedding service or the vector
// search. Stage is "embed" or "search".
type RetrievalError struct {
	Stage      string
	StatusCode int
	Message    string
}

// Error implements the error interface for RetrievalError.
func (e *RetrievalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("retrieval %s error (status %d): %s", e.Stage, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("retrieval %s error: %s", e.Stage, e.Message)
}

// IsRetrievalError checks if an error is a RetrievalError.
func IsRetrievalError(err error) bool {
	_, ok := err.(*RetrievalError)
	return ok
}

// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/remedium-ai/RemediumLocal/services/retrieval"
	"github.com/tmc/langchaingo/textsplitter"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

var (
	chunkSize    = 1000
	chunkOverlap = chunkSize / 10

	defaultSeparators  = []string{"\n\n", "\n", " ", ""}
	markdownSeparators = []string{
		"\n# ", "\n## ", "\n### ", "\n#### ",
		"\n\n", "\n", " ", "",
	}
)

// IngestDocumentRequest is one reference document to chunk, embed and store.
type IngestDocumentRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type batchEmbeddingRequest struct {
	Texts []string `json:"texts"`
}

type batchEmbeddingResponse struct {
	Vectors [][]float32 `json:"vectors"`
	Model   string      `json:"model"`
	Dim     int         `json:"dim"`
}

// IngestDocument serves POST /v1/documents: a thin wrapper around
// RunIngestion.
func IngestDocument(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store not configured"})
			return
		}
		var req IngestDocumentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if req.Content == "" || req.Source == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content and source are required"})
			return
		}

		created, err := RunIngestion(c.Request.Context(), client, req)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"source":         req.Source,
			"chunks_created": created,
		})
	}
}

// ListDocuments serves GET /v1/documents: distinct parent sources with
// their chunk counts, for operators checking what the corpus holds.
func ListDocuments(client *weaviate.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "document store not configured"})
			return
		}
		agg, err := client.GraphQL().Aggregate().
			WithClassName(retrieval.MedicalDocumentClass).
			WithGroupBy("parent_source").
			Do(c.Request.Context())
		if err != nil {
			slog.Error("failed to aggregate documents", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list documents"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": parentSources(agg.Data)})
	}
}

// parentSources walks the nested aggregate response down to the grouped
// parent_source values.
func parentSources(data map[string]models.JSONObject) []string {
	sources := []string{}
	aggMap, ok := data["Aggregate"].(map[string]interface{})
	if !ok {
		return sources
	}
	groups, ok := aggMap[retrieval.MedicalDocumentClass].([]interface{})
	if !ok {
		return sources
	}
	for _, groupItem := range groups {
		groupMap, ok := groupItem.(map[string]interface{})
		if !ok {
			continue
		}
		groupedBy, ok := groupMap["groupedBy"].(map[string]interface{})
		if !ok {
			continue
		}
		if source, ok := groupedBy["value"].(string); ok {
			sources = append(sources, source)
		}
	}
	return sources
}

// RunIngestion chunks the document, embeds the chunks in one batch call
// and imports them into Weaviate in one batch request.
//
// Chunk IDs are derived from a content hash, so re-ingesting the same
// document overwrites its chunks instead of duplicating them.
func RunIngestion(ctx context.Context, client *weaviate.Client, req IngestDocumentRequest) (int, error) {
	embeddingServiceBaseURL := os.Getenv("EMBEDDING_SERVICE_URL")
	if embeddingServiceBaseURL == "" {
		slog.Error("EMBEDDING_SERVICE_URL not set for orchestrator")
		return 0, fmt.Errorf("embedding service not configured")
	}
	batchEmbeddingURL := strings.TrimSuffix(embeddingServiceBaseURL, "/embed") + "/batch_embed"
	slog.Info("ingestion request received", "source", req.Source)

	splitter := splitterForFile(req.Source)
	chunks, err := splitter.SplitText(req.Content)
	if err != nil {
		slog.Error("failed to split text", "source", req.Source, "error", err)
		return 0, fmt.Errorf("failed to split content: %w", err)
	}
	if len(chunks) == 0 {
		slog.Warn("no chunks produced after splitting", "source", req.Source)
		return 0, nil
	}
	slog.Info("split document into chunks", "source", req.Source, "chunk_count", len(chunks))

	vectors, err := callBatchEmbed(batchEmbeddingURL, chunks)
	if err != nil {
		slog.Error("failed to get batch embeddings", "source", req.Source, "error", err)
		return 0, err
	}
	if len(vectors) != len(chunks) {
		slog.Error("mismatch between chunk count and vector count",
			"chunks", len(chunks), "vectors", len(vectors))
		return 0, fmt.Errorf("embedding service returned mismatched vector count")
	}

	objects := make([]*models.Object, len(chunks))
	for i, chunk := range chunks {
		chunkSource := fmt.Sprintf("%s_part_%d", req.Source, i+1)
		hash := sha256.Sum256([]byte(chunk))
		docUUID, _ := uuid.FromBytes(hash[:16])

		objects[i] = &models.Object{
			Class:  retrieval.MedicalDocumentClass,
			ID:     strfmt.UUID(docUUID.String()),
			Vector: vectors[i],
			Properties: map[string]interface{}{
				"content":       chunk,
				"source":        chunkSource,
				"parent_source": req.Source,
				"ingested_at":   time.Now().UnixMilli(),
			},
		}
	}

	resp, err := client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		slog.Error("failed to perform batch import to weaviate", "error", err)
		return 0, fmt.Errorf("failed to save objects to weaviate: %w", err)
	}

	chunksCreated := 0
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			chunksCreated++
			continue
		}
		for _, errItem := range item.Result.Errors.Error {
			if errItem != nil {
				slog.Warn("error in weaviate batch item", "source", req.Source, "error", errItem.Message)
			}
		}
	}
	if chunksCreated < len(chunks) {
		slog.Warn("errors encountered during weaviate batch import",
			"source", req.Source, "successful_chunks", chunksCreated)
	}
	return chunksCreated, nil
}

func callBatchEmbed(batchEmbedURL string, chunks []string) ([][]float32, error) {
	reqBody := batchEmbeddingRequest{Texts: chunks}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch embed request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(batchEmbedURL, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to call /batch_embed endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read /batch_embed response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("/batch_embed returned status %d: %s", resp.StatusCode, string(body))
	}

	var batchResp batchEmbeddingResponse
	if err = json.Unmarshal(body, &batchResp); err != nil {
		return nil, fmt.Errorf("failed to decode batch embed response: %w", err)
	}
	return batchResp.Vectors, nil
}

// splitterForFile picks chunking separators by extension. Medical
// reference material is mostly markdown or extracted plain text.
func splitterForFile(filename string) textsplitter.TextSplitter {
	separators := defaultSeparators
	if ext := strings.ToLower(filepath.Ext(filename)); ext == ".md" || ext == ".markdown" {
		separators = markdownSeparators
	}
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
	)
}

// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/consensus"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/language"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/services"
	"github.com/remedium-ai/RemediumLocal/services/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopGenerator struct{}

func (noopGenerator) Generate(ctx context.Context, query, contextText string) datatypes.AgentResponse {
	return datatypes.AgentResponse{Answer: "ok", Confidence: 0.85, Success: true, Agent: agents.NameGenerator}
}

type noopVerifier struct{}

func (noopVerifier) Verify(ctx context.Context, query, contextText, answer string) datatypes.VerificationResult {
	return datatypes.VerificationResult{Vote: datatypes.VoteAccept, Confidence: 0.9, Success: true}
}

type noopReformer struct{}

func (noopReformer) Reform(ctx context.Context, query, contextText string, prior datatypes.AgentResponse, fb datatypes.VerificationResult) datatypes.AgentResponse {
	return prior
}

type noopTranslator struct{}

func (noopTranslator) Translate(ctx context.Context, text, targetLanguage string) agents.TranslationResult {
	return agents.TranslationResult{Text: text}
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	detector, err := language.NewDetector()
	require.NoError(t, err)
	gate, err := safety.NewGate()
	require.NoError(t, err)
	reviews, err := humanloop.NewManager(nil)
	require.NoError(t, err)

	ctrl := consensus.NewController(noopGenerator{}, noopVerifier{}, noopReformer{}, 2)
	service := services.NewQueryService(detector, gate, nil, ctrl, noopTranslator{}, reviews,
		services.QueryServiceConfig{})

	router := gin.New()
	SetupRoutes(router, service, reviews, nil)
	return router
}

func get(router *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSetupRoutes_HealthAndMetrics(t *testing.T) {
	router := testRouter(t)

	assert.Equal(t, http.StatusOK, get(router, "/health").Code)
	assert.Equal(t, http.StatusOK, get(router, "/metrics").Code)
}

func TestSetupRoutes_V1EndpointsRegistered(t *testing.T) {
	router := testRouter(t)

	// Wrong method yields 404 from gin for unregistered combinations;
	// registered GET endpoints answer.
	assert.Equal(t, http.StatusOK, get(router, "/v1/validations/pending").Code)
	assert.Equal(t, http.StatusOK, get(router, "/v1/validations/history").Code)
	assert.Equal(t, http.StatusNotFound, get(router, "/v1/nope").Code)
}

func TestSetupRoutes_DocumentsUnavailableWithoutStore(t *testing.T) {
	router := testRouter(t)
	assert.Equal(t, http.StatusServiceUnavailable, get(router, "/v1/documents").Code)
}

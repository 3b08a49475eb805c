// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/consensus"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/language"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/safety"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Pipeline stubs
// =============================================================================

type stubRetriever struct {
	retrieved *datatypes.RetrievedContext
	err       error
}

func (r *stubRetriever) Retrieve(ctx context.Context, query string) (*datatypes.RetrievedContext, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.retrieved, nil
}

type stubGenerator struct{ response datatypes.AgentResponse }

func (g *stubGenerator) Generate(ctx context.Context, query, contextText string) datatypes.AgentResponse {
	return g.response
}

type stubVerifier struct {
	verdicts []datatypes.VerificationResult
	calls    int
}

func (v *stubVerifier) Verify(ctx context.Context, query, contextText, answer string) datatypes.VerificationResult {
	result := v.verdicts[v.calls%len(v.verdicts)]
	v.calls++
	return result
}

type stubReformer struct{ response datatypes.AgentResponse }

func (r *stubReformer) Reform(ctx context.Context, query, contextText string, prior datatypes.AgentResponse, fb datatypes.VerificationResult) datatypes.AgentResponse {
	return r.response
}

type stubTranslator struct {
	result agents.TranslationResult
	calls  int
}

func (t *stubTranslator) Translate(ctx context.Context, text, targetLanguage string) agents.TranslationResult {
	t.calls++
	if t.result.Text == "" && !t.result.Degraded {
		return agents.TranslationResult{Text: text}
	}
	return t.result
}

type pipelineFixture struct {
	service    *QueryService
	translator *stubTranslator
	reviews    *humanloop.Manager
}

func newPipeline(t *testing.T, retriever ContextRetriever, verifier agents.Verifier, translator *stubTranslator) *pipelineFixture {
	t.Helper()
	detector, err := language.NewDetector()
	require.NoError(t, err)
	gate, err := safety.NewGate()
	require.NoError(t, err)
	reviews, err := humanloop.NewManager(nil)
	require.NoError(t, err)

	gen := &stubGenerator{response: datatypes.AgentResponse{
		Answer: "Paracetamol is an analgesic used for mild pain.", Confidence: 0.85, Success: true, Agent: agents.NameGenerator,
	}}
	ref := &stubReformer{response: datatypes.AgentResponse{
		Answer: "Reformed draft.", Confidence: 0.85, Success: true, Agent: agents.NameReformer,
	}}
	ctrl := consensus.NewController(gen, verifier, ref, 2)
	if translator == nil {
		translator = &stubTranslator{}
	}

	service := NewQueryService(detector, gate, retriever, ctrl, translator, reviews, QueryServiceConfig{})
	return &pipelineFixture{service: service, translator: translator, reviews: reviews}
}

func acceptVerdict() datatypes.VerificationResult {
	return datatypes.VerificationResult{Vote: datatypes.VoteAccept, Confidence: 0.9, Success: true}
}

func rejectVerdict() datatypes.VerificationResult {
	return datatypes.VerificationResult{Vote: datatypes.VoteReject, Confidence: 0.4, Rationale: "too thin", Success: true}
}

func singleChunkContext() *datatypes.RetrievedContext {
	return &datatypes.RetrievedContext{
		Chunks: []datatypes.ContextChunk{{Content: "Paracetamol monograph.", Score: 0.92, Source: "bnf.pdf"}},
		Count:  1,
	}
}

func request(question string) datatypes.QueryRequest {
	req := datatypes.QueryRequest{Question: question}
	req.EnsureDefaults()
	return req
}

// =============================================================================
// Tests
// =============================================================================

func TestProcessQuery_SensitiveQueryGetsEthicalFallback(t *testing.T) {
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("What are the side effects of chemotherapy?"))
	require.NoError(t, err)

	gate, err := safety.NewGate()
	require.NoError(t, err)
	fallback := gate.BuildFallback("en")

	assert.True(t, resp.Success)
	assert.Equal(t, datatypes.WorkflowEthicalFallback, resp.Workflow)
	assert.True(t, resp.EthicalFallback)
	assert.Equal(t, fallback.Message, resp.Answer)
	assert.Equal(t, fallback.SafetyNote, resp.SafetyNote)
	assert.Equal(t, fallback.SuggestedActions, resp.SuggestedActions)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.Confidence)
	assert.Empty(t, resp.Consensus)
	assert.Zero(t, f.translator.calls, "no agent runs on the fallback path")
}

func TestProcessQuery_AcceptedConsensusFlow(t *testing.T) {
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("What is paracetamol used for?"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, datatypes.WorkflowConsensus, resp.Workflow)
	assert.Equal(t, datatypes.ConsensusAccepted, resp.Consensus)
	assert.Equal(t, "Paracetamol is an analgesic used for mild pain.", resp.Answer)
	assert.Equal(t, "en", resp.DetectedLanguage)
	assert.Equal(t, "en", resp.TargetLanguage)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "bnf.pdf", resp.Sources[0].Source)
	assert.True(t, resp.ContextFound)
	assert.False(t, resp.HumanValidationRequired)
	assert.Equal(t, []string{agents.NameGenerator, agents.NameVerifier}, resp.AgentWorkflow)
	assert.Zero(t, f.translator.calls, "pivot-language targets skip translation")
	assert.NotEmpty(t, resp.ResponseId)
	assert.GreaterOrEqual(t, resp.ProcessingTime, 0.0)
}

func TestProcessQuery_FrenchQueryIsTranslated(t *testing.T) {
	translator := &stubTranslator{result: agents.TranslationResult{Text: "Le paracétamol est un antalgique."}}
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, translator)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("Quelle est la composition du paracétamol ?"))
	require.NoError(t, err)

	assert.Equal(t, "fr", resp.DetectedLanguage)
	assert.Equal(t, "fr", resp.TargetLanguage)
	assert.Equal(t, "Le paracétamol est un antalgique.", resp.Answer)
	assert.False(t, resp.TranslationDegraded)
	assert.Equal(t, 1, translator.calls)
	require.NotEmpty(t, resp.AgentWorkflow)
	assert.Equal(t, agents.NameTranslator, resp.AgentWorkflow[len(resp.AgentWorkflow)-1])
}

func TestProcessQuery_TargetLanguageOverridesDetection(t *testing.T) {
	translator := &stubTranslator{result: agents.TranslationResult{Text: "El paracetamol es un analgésico."}}
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, translator)

	req := request("What is paracetamol used for?")
	req.TargetLanguage = "es"
	resp, err := f.service.ProcessQuery(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "en", resp.DetectedLanguage)
	assert.Equal(t, "es", resp.TargetLanguage)
	assert.Equal(t, "El paracetamol es un analgésico.", resp.Answer)
}

func TestProcessQuery_UnsupportedTargetLanguageFallsBackToDetected(t *testing.T) {
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	req := request("What is paracetamol used for?")
	req.TargetLanguage = "xx"
	resp, err := f.service.ProcessQuery(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "en", resp.DetectedLanguage)
	assert.Equal(t, "en", resp.TargetLanguage)
	assert.Zero(t, f.translator.calls, "unknown targets collapse to the detected language")
}

func TestProcessQuery_ExhaustedConsensusRequiresReview(t *testing.T) {
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{rejectVerdict()}}, nil)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("What is paracetamol used for?"))
	require.NoError(t, err)

	assert.Equal(t, datatypes.ConsensusPartial, resp.Consensus)
	assert.Equal(t, 2, resp.Iteration)
	assert.True(t, resp.HumanValidationRequired)

	pending := f.reviews.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, resp.ResponseId, pending[0].ResponseId)
	assert.Equal(t, datatypes.PriorityHigh, pending[0].Priority)
	assert.Equal(t, humanloop.ReasonConsensusPartial, pending[0].Reason)
}

func TestProcessQuery_ReviewTermFlagsAcceptedAnswer(t *testing.T) {
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	// "warfarin" is a review trigger but not an ethical-gate term.
	resp, err := f.service.ProcessQuery(context.Background(),
		request("What is the mechanism of action of warfarin?"))
	require.NoError(t, err)

	assert.Equal(t, datatypes.WorkflowConsensus, resp.Workflow)
	assert.Equal(t, datatypes.ConsensusAccepted, resp.Consensus)
	assert.True(t, resp.HumanValidationRequired)

	pending := f.reviews.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, datatypes.PriorityNormal, pending[0].Priority)
	assert.Equal(t, humanloop.ReasonReviewTermMatch, pending[0].Reason)
}

func TestProcessQuery_RetrievalFailureDegradesToEmptyContext(t *testing.T) {
	f := newPipeline(t, &stubRetriever{err: errors.New("weaviate unreachable")},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("What is paracetamol used for?"))
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.False(t, resp.ContextFound)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, datatypes.ConsensusAccepted, resp.Consensus)
}

func TestProcessQuery_NilRetrieverRunsLightweight(t *testing.T) {
	f := newPipeline(t, nil,
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, nil)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("What is paracetamol used for?"))
	require.NoError(t, err)
	assert.False(t, resp.ContextFound)
	assert.True(t, resp.Success)
}

func TestProcessQuery_TranslationFailureIsMarkedDegraded(t *testing.T) {
	translator := &stubTranslator{result: agents.TranslationResult{
		Text: "Paracetamol is an analgesic used for mild pain.", Degraded: true,
	}}
	f := newPipeline(t, &stubRetriever{retrieved: singleChunkContext()},
		&stubVerifier{verdicts: []datatypes.VerificationResult{acceptVerdict()}}, translator)

	resp, err := f.service.ProcessQuery(context.Background(),
		request("Quelle est la composition du paracétamol ?"))
	require.NoError(t, err)

	assert.True(t, resp.TranslationDegraded)
	assert.Equal(t, "Paracetamol is an analgesic used for mild pain.", resp.Answer)
}

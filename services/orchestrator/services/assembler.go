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
	"time"

	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/consensus"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
)

// ResponseAssembler maps pipeline outcomes onto the single response shape.
//
// Every path through the pipeline ends here, so the caller always receives
// the same schema. Degradation markers (ContextFound, TranslationDegraded,
// partial consensus) are set from the inputs, never recomputed.
type ResponseAssembler struct {
	pivotLanguage string
}

func NewResponseAssembler(pivotLanguage string) *ResponseAssembler {
	return &ResponseAssembler{pivotLanguage: pivotLanguage}
}

// AssembleConsensus builds the response for a query that went through the
// consensus loop, whether it converged or exhausted its bound.
func (a *ResponseAssembler) AssembleConsensus(
	query datatypes.Query,
	target string,
	record datatypes.ConsensusRecord,
	retrieved *datatypes.RetrievedContext,
	translation agents.TranslationResult,
	humanValidationRequired bool,
	elapsed time.Duration,
) datatypes.QueryResponse {
	best := record.Best()

	return datatypes.QueryResponse{
		Success:          true,
		ResponseId:       query.Id,
		Answer:           translation.Text,
		Sources:          retrieved.Sources(),
		Confidence:       best.Verification.Confidence,
		DetectedLanguage: query.Language,
		TargetLanguage:   target,
		ProcessingTime:   elapsed.Seconds(),
		Workflow:         datatypes.WorkflowConsensus,
		AgentWorkflow:    agentWorkflow(record, target, a.pivotLanguage),
		Consensus:        record.Status,
		Iteration:        record.Iteration,
		Verification: datatypes.VerificationSummary{
			Success:    best.Verification.Success,
			Confidence: best.Verification.Confidence,
		},
		HumanValidationRequired: humanValidationRequired,
		ContextFound:            retrieved.Found(),
		TranslationDegraded:     translation.Degraded,
	}
}

// AssembleFallback builds the canonical safety response. No sources, zero
// confidence, and no consensus markers: nothing was generated.
func (a *ResponseAssembler) AssembleFallback(
	query datatypes.Query,
	target string,
	fallback datatypes.FallbackResponse,
	elapsed time.Duration,
) datatypes.QueryResponse {
	return datatypes.QueryResponse{
		Success:                 true,
		ResponseId:              query.Id,
		Answer:                  fallback.Message,
		Sources:                 []datatypes.SourceInfo{},
		Confidence:              0.0,
		DetectedLanguage:        query.Language,
		TargetLanguage:          fallback.Language,
		ProcessingTime:          elapsed.Seconds(),
		Workflow:                datatypes.WorkflowEthicalFallback,
		AgentWorkflow:           []string{},
		Iteration:               0,
		HumanValidationRequired: false,
		EthicalFallback:         true,
		SafetyNote:              fallback.SafetyNote,
		SuggestedActions:        fallback.SuggestedActions,
		ContextFound:            false,
	}
}

// agentWorkflow reconstructs the ordered list of agents that ran from the
// consensus trail. Drafts whose generation failed never reached the
// verifier, and the translator only runs for non-pivot targets.
func agentWorkflow(record datatypes.ConsensusRecord, target, pivot string) []string {
	workflow := make([]string, 0, 2*len(record.Attempts)+1)
	for _, attempt := range record.Attempts {
		workflow = append(workflow, attempt.Response.Agent)
		if attempt.Verification.Rationale != consensus.RationaleGenerationFailed {
			workflow = append(workflow, agents.NameVerifier)
		}
	}
	if target != pivot && target != "" {
		workflow = append(workflow, agents.NameTranslator)
	}
	return workflow
}

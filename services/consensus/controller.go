// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package consensus runs the bounded generate -> verify -> reform loop that
// turns a retrieved context and a question into one authoritative answer.
package consensus

import (
	"context"
	"log/slog"

	"github.com/remedium-ai/RemediumLocal/services/agents"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("remedium.consensus")

// DefaultMaxIterations bounds the reform loop. With the default of 2 a
// query sees at most three generation attempts: the initial draft plus
// two reformed ones.
const DefaultMaxIterations = 2

// RationaleGenerationFailed marks verification entries the controller
// synthesized for drafts that never reached the verifier.
const RationaleGenerationFailed = "generation failed; verification skipped"

// Controller drives the consensus loop for a single query.
//
// # Description
// Each iteration produces exactly one AgentResponse and one
// VerificationResult. The loop terminates on the first accepted draft or
// when the iteration bound is reached, whichever comes first. The
// controller never retries a model call inside an iteration; a failed
// generation is scored as an automatic reject and the loop moves on.
//
// A Controller is stateless between queries and safe for concurrent use
// as long as its agents are.
type Controller struct {
	generator     agents.Generator
	verifier      agents.Verifier
	reformer      agents.Reformer
	maxIterations int
	logger        *slog.Logger
}

// NewController wires the three consensus agents together. A negative
// maxIterations falls back to DefaultMaxIterations; zero is legal and
// means a single generation attempt with no reform.
func NewController(generator agents.Generator, verifier agents.Verifier, reformer agents.Reformer, maxIterations int) *Controller {
	if maxIterations < 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Controller{
		generator:     generator,
		verifier:      verifier,
		reformer:      reformer,
		maxIterations: maxIterations,
		logger:        slog.Default().With("component", "consensus_controller"),
	}
}

// MaxIterations exposes the configured bound, mainly for response assembly.
func (c *Controller) MaxIterations() int {
	return c.maxIterations
}

// Run executes the consensus loop and returns the full attempt trail.
//
// # Inputs
//   - ctx: Request-scoped context; cancellation aborts in-flight model calls.
//   - query: The user question as received; drafts are produced in the
//     pivot language and translated downstream.
//   - retrieved: The document context bound once before the loop starts.
//     Every iteration sees this same context.
//
// # Outputs
//   - datatypes.ConsensusRecord: Status is ConsensusAccepted when a draft
//     passed verification, ConsensusPartial when the bound was exhausted.
//     len(Attempts) always equals Iteration+1.
func (c *Controller) Run(ctx context.Context, query string, retrieved datatypes.RetrievedContext) datatypes.ConsensusRecord {
	ctx, span := tracer.Start(ctx, "Controller.Run")
	defer span.End()
	span.SetAttributes(
		attribute.Int("consensus.max_iterations", c.maxIterations),
		attribute.Bool("consensus.context_found", retrieved.Found()),
	)

	contextText := retrieved.ContextText()
	record := datatypes.ConsensusRecord{
		Attempts: make([]datatypes.ConsensusAttempt, 0, c.maxIterations+1),
	}

	for iteration := 0; ; iteration++ {
		response := c.attempt(ctx, iteration, query, contextText, record)
		verification := c.verify(ctx, query, contextText, response)

		record.Iteration = iteration
		record.Attempts = append(record.Attempts, datatypes.ConsensusAttempt{
			Response:     response,
			Verification: verification,
		})

		c.logger.InfoContext(ctx, "consensus iteration complete",
			"iteration", iteration,
			"agent", response.Agent,
			"vote", verification.Vote,
			"verification_confidence", verification.Confidence,
		)

		if verification.Vote == datatypes.VoteAccept {
			record.FinalVote = datatypes.VoteAccept
			record.Status = datatypes.ConsensusAccepted
			record.Selected = len(record.Attempts) - 1
			span.SetAttributes(attribute.Int("consensus.iterations", iteration+1))
			return record
		}

		if iteration >= c.maxIterations {
			break
		}
	}

	// Bound exhausted: surface the best rejected draft instead of nothing.
	record.FinalVote = datatypes.VoteReject
	record.Status = datatypes.ConsensusPartial
	record.Selected = selectBest(record.Attempts)
	span.SetAttributes(
		attribute.Int("consensus.iterations", record.Iteration+1),
		attribute.Int("consensus.selected", record.Selected),
	)
	c.logger.WarnContext(ctx, "consensus exhausted without acceptance",
		"iterations", record.Iteration+1,
		"selected", record.Selected,
	)
	return record
}

// attempt produces the draft for one iteration: the generator on iteration
// zero, the reformer with the previous attempt's feedback afterwards.
func (c *Controller) attempt(ctx context.Context, iteration int, query, contextText string, record datatypes.ConsensusRecord) datatypes.AgentResponse {
	var response datatypes.AgentResponse
	if iteration == 0 {
		response = c.generator.Generate(ctx, query, contextText)
	} else {
		prior := record.Attempts[len(record.Attempts)-1]
		response = c.reformer.Reform(ctx, query, contextText, prior.Response, prior.Verification)
	}
	response.Iteration = iteration
	return response
}

// verify scores one draft. A failed generation never reaches the verifier:
// it is rejected outright so the loop can spend its remaining iterations
// on fresh drafts.
func (c *Controller) verify(ctx context.Context, query, contextText string, response datatypes.AgentResponse) datatypes.VerificationResult {
	if !response.Success {
		return datatypes.VerificationResult{
			Vote:      datatypes.VoteReject,
			Rationale: RationaleGenerationFailed,
			Success:   true,
		}
	}
	return c.verifier.Verify(ctx, query, contextText, response.Answer)
}

// selectBest picks the attempt with the highest verification confidence.
// Strict comparison keeps the earliest iteration on exact ties, so replays
// of the same trail always select the same attempt.
func selectBest(attempts []datatypes.ConsensusAttempt) int {
	best := 0
	for i := 1; i < len(attempts); i++ {
		if attempts[i].Verification.Confidence > attempts[best].Verification.Confidence {
			best = i
		}
	}
	return best
}

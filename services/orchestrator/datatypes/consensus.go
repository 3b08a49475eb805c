// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the typed records produced inside the consensus loop.
// One ConsensusRecord is spawned per Query; AgentResponse and
// VerificationResult instances are superseded, never mutated, between
// iterations.
package datatypes

// AgentResponse is one generation (or reform) attempt.
//
// Agents never raise to the caller: a model-service failure is captured as
// Success=false, Confidence=0.0, which the consensus controller treats as
// an automatic reject for that iteration.
type AgentResponse struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
	Success    bool    `json:"success"`
	// Agent names the producer ("generator", "reformer").
	Agent string `json:"agent"`
	// Iteration is the zero-based consensus iteration this attempt belongs to.
	Iteration int `json:"iteration"`
}

// VerificationVote is the accept/reject decision cast by the verifier.
type VerificationVote string

const (
	VoteAccept VerificationVote = "accept"
	VoteReject VerificationVote = "reject"
)

// VerificationResult scores one draft answer. Produced once per
// verification attempt; immutable.
//
// Confidence is the policy-weighted combination of Accuracy and
// Completeness (equal weights by default). Success=false means the
// verifier call itself failed, which is treated conservatively as a
// reject.
type VerificationResult struct {
	Vote         VerificationVote `json:"vote"`
	Confidence   float64          `json:"confidence"`
	Accuracy     float64          `json:"accuracy"`
	Completeness float64          `json:"completeness"`
	Rationale    string           `json:"rationale"`
	Success      bool             `json:"success"`
}

// ConsensusStatus values carried on ConsensusRecord.Status.
const (
	ConsensusAccepted = "accepted"
	ConsensusPartial  = "partial"
)

// ConsensusAttempt pairs one generation attempt with its verification.
type ConsensusAttempt struct {
	Response     AgentResponse      `json:"response"`
	Verification VerificationResult `json:"verification"`
}

// ConsensusRecord is the full trail of one query's consensus loop.
//
// Invariants:
//   - Iteration <= the controller's max-iterations policy constant.
//   - len(Attempts) == Iteration + 1 (the initial generation plus reforms).
//   - Status is ConsensusAccepted iff FinalVote == VoteAccept.
type ConsensusRecord struct {
	// Iteration is the zero-based index of the final iteration.
	Iteration int              `json:"iteration"`
	FinalVote VerificationVote `json:"final_vote"`
	Status    string           `json:"status"`
	Attempts  []ConsensusAttempt `json:"attempts"`
	// Selected indexes the authoritative attempt in Attempts: the last one
	// on acceptance, the best-scoring one on exhaustion.
	Selected int `json:"selected"`
}

// Best returns the authoritative attempt for this record.
//
// On ConsensusAccepted this is the most recent attempt. On
// ConsensusPartial it is the attempt with the highest paired verification
// confidence; exact ties keep the earliest iteration so the selection is
// deterministic across replays.
func (r *ConsensusRecord) Best() ConsensusAttempt {
	if len(r.Attempts) == 0 {
		return ConsensusAttempt{}
	}
	return r.Attempts[r.Selected]
}

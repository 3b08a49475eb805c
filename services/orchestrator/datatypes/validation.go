// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// This file contains the human-in-the-loop review types. ValidationRequest
// entries live in the in-memory pending queue; ValidationRecord entries
// persist across requests as an append-only audit trail.
package datatypes

import "time"

// Validation priorities.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// ValidationDecision is a reviewer's verdict on a flagged response.
type ValidationDecision string

const (
	DecisionApproved ValidationDecision = "approved"
	DecisionRejected ValidationDecision = "rejected"
)

// Valid reports whether d is one of the accepted decision values.
func (d ValidationDecision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// ValidationRequest is one pending-queue entry, keyed by response
// identifier. A request is removed from the queue exactly once, atomically
// with the insertion of its terminal ValidationRecord.
type ValidationRequest struct {
	ResponseId string `json:"response_id"`
	Query      string `json:"query"`
	Answer     string `json:"answer"`
	Priority   string `json:"priority"`
	Reason     string `json:"reason"`
	CreatedAt  int64  `json:"created_at"`
}

// NewValidationRequest builds a pending-queue entry with the current
// timestamp.
func NewValidationRequest(responseId, query, answer, priority, reason string) ValidationRequest {
	return ValidationRequest{
		ResponseId: responseId,
		Query:      query,
		Answer:     answer,
		Priority:   priority,
		Reason:     reason,
		CreatedAt:  time.Now().UnixMilli(),
	}
}

// ValidationRecord is the terminal audit record for one reviewer decision.
//
// Records for unknown response IDs are accepted (Known=false) but never
// remove anything from the pending queue.
type ValidationRecord struct {
	ResponseId string             `json:"response_id"`
	Decision   ValidationDecision `json:"decision"`
	Notes      string             `json:"notes,omitempty"`
	// Known is false when no matching request was pending at decision time.
	Known     bool  `json:"known"`
	DecidedAt int64 `json:"decided_at"`
}

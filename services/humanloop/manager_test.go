// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package humanloop

import (
	"sync"
	"testing"

	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	store, err := OpenInMemoryAuditStore()
	require.NoError(t, err)
	m, err := NewManager(store)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

// =============================================================================
// Evaluate
// =============================================================================

func TestEvaluate_PartialConsensusIsHighPriority(t *testing.T) {
	m := newTestManager(t)

	required, reason, priority := m.Evaluate("what is paracetamol", "en", datatypes.ConsensusPartial)
	assert.True(t, required)
	assert.Equal(t, ReasonConsensusPartial, reason)
	assert.Equal(t, datatypes.PriorityHigh, priority)
}

func TestEvaluate_ReviewTermMatchIsNormalPriority(t *testing.T) {
	m := newTestManager(t)

	required, reason, priority := m.Evaluate(
		"What is the recommended dosage of ibuprofen?", "en", datatypes.ConsensusAccepted)
	assert.True(t, required)
	assert.Equal(t, ReasonReviewTermMatch, reason)
	assert.Equal(t, datatypes.PriorityNormal, priority)
}

func TestEvaluate_FrenchTerms(t *testing.T) {
	m := newTestManager(t)

	required, _, _ := m.Evaluate(
		"Quelle est la posologie du paracétamol ?", "fr", datatypes.ConsensusAccepted)
	assert.True(t, required)
}

func TestEvaluate_UnknownLanguageFallsBackToDefault(t *testing.T) {
	m := newTestManager(t)

	required, _, _ := m.Evaluate(
		"possible drug interaction with warfarin", "pt", datatypes.ConsensusAccepted)
	assert.True(t, required)
}

func TestEvaluate_BenignQueryNotFlagged(t *testing.T) {
	m := newTestManager(t)

	required, reason, priority := m.Evaluate(
		"What is the molecular formula of water?", "en", datatypes.ConsensusAccepted)
	assert.False(t, required)
	assert.Empty(t, reason)
	assert.Empty(t, priority)
}

// =============================================================================
// Queue semantics
// =============================================================================

func TestSubmitDecision_RemovesPendingAtomically(t *testing.T) {
	m := newTestManager(t)
	req := datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityHigh, ReasonConsensusPartial)
	require.NoError(t, m.Enqueue(req))
	require.Equal(t, 1, m.QueueDepth())

	record, err := m.SubmitDecision("resp-1", datatypes.DecisionApproved, "looks right")
	require.NoError(t, err)
	assert.True(t, record.Known)
	assert.Equal(t, datatypes.DecisionApproved, record.Decision)
	assert.Zero(t, m.QueueDepth())
}

func TestSubmitDecision_UnknownIdLeavesQueueUntouched(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))

	record, err := m.SubmitDecision("no-such-id", datatypes.DecisionRejected, "")
	require.NoError(t, err)
	assert.False(t, record.Known)
	assert.Equal(t, 1, m.QueueDepth())
}

func TestSubmitDecision_InvalidDecisionRejected(t *testing.T) {
	m := newTestManager(t)

	_, err := m.SubmitDecision("resp-1", datatypes.ValidationDecision("maybe"), "")
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestEnqueue_SameIdReplacesInPlace(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q1", "a1", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q1", "a1-revised", datatypes.PriorityHigh, ReasonConsensusPartial)))

	pending := m.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "a1-revised", pending[0].Answer)
	assert.Equal(t, datatypes.PriorityHigh, pending[0].Priority)
}

func TestPending_PreservesEnqueueOrder(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, m.Enqueue(datatypes.NewValidationRequest(id, "q", "ans", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	}
	_, err := m.SubmitDecision("b", datatypes.DecisionApproved, "")
	require.NoError(t, err)

	pending := m.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, "a", pending[0].ResponseId)
	assert.Equal(t, "c", pending[1].ResponseId)
}

func TestConcurrentDecisions_ExactlyOneWins(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityHigh, ReasonConsensusPartial)))

	const workers = 16
	known := make(chan bool, workers)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := m.SubmitDecision("resp-1", datatypes.DecisionApproved, "")
			assert.NoError(t, err)
			known <- record.Known
		}()
	}
	wg.Wait()
	close(known)

	winners := 0
	for k := range known {
		if k {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "exactly one decision removes the request")
	assert.Zero(t, m.QueueDepth())
}

// =============================================================================
// Audit trail
// =============================================================================

func TestHistory_ReturnsDecisionRecordsNewestFirst(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"resp-1", "resp-2"} {
		require.NoError(t, m.Enqueue(datatypes.NewValidationRequest(id, "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	}
	_, err := m.SubmitDecision("resp-1", datatypes.DecisionApproved, "ok")
	require.NoError(t, err)
	_, err = m.SubmitDecision("resp-2", datatypes.DecisionRejected, "wrong dose")
	require.NoError(t, err)

	records, err := m.History(0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "resp-2", records[0].ResponseId)
	assert.Equal(t, datatypes.DecisionRejected, records[0].Decision)
	assert.Equal(t, "resp-1", records[1].ResponseId)
	assert.Equal(t, datatypes.DecisionApproved, records[1].Decision)
}

func TestHistory_LimitBoundsRecordsNotEvents(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	_, err := m.SubmitDecision("resp-1", datatypes.DecisionApproved, "ok")
	require.NoError(t, err)

	// Newer enqueues must not push the decision off a limited page.
	for _, id := range []string{"resp-2", "resp-3"} {
		require.NoError(t, m.Enqueue(datatypes.NewValidationRequest(id, "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	}

	records, err := m.History(2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "resp-1", records[0].ResponseId)
}

func TestAuditTrail_ReplaysAllEventsNewestFirst(t *testing.T) {
	m := newTestManager(t)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	_, err := m.SubmitDecision("resp-1", datatypes.DecisionApproved, "ok")
	require.NoError(t, err)

	events, err := m.AuditTrail(0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventDecision, events[0].Kind)
	require.NotNil(t, events[0].Record)
	assert.Equal(t, "resp-1", events[0].Record.ResponseId)
	assert.Equal(t, EventEnqueued, events[1].Kind)
	require.NotNil(t, events[1].Request)
}

func TestAuditTrail_LimitTruncates(t *testing.T) {
	m := newTestManager(t)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, m.Enqueue(datatypes.NewValidationRequest(id, "q", "ans", datatypes.PriorityNormal, ReasonReviewTermMatch)))
	}

	events, err := m.AuditTrail(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "d", events[0].Request.ResponseId)
	assert.Equal(t, "c", events[1].Request.ResponseId)
}

func TestManager_NilStoreIsLightweight(t *testing.T) {
	m, err := NewManager(nil)
	require.NoError(t, err)
	require.NoError(t, m.Enqueue(datatypes.NewValidationRequest("resp-1", "q", "a", datatypes.PriorityNormal, ReasonReviewTermMatch)))

	records, err := m.History(0)
	require.NoError(t, err)
	assert.Nil(t, records)
	events, err := m.AuditTrail(0)
	require.NoError(t, err)
	assert.Nil(t, events)
	require.NoError(t, m.Close())
}

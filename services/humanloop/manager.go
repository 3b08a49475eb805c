// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package humanloop manages the human-in-the-loop review queue: deciding
// which responses need reviewer sign-off, holding them in a pending queue,
// and recording decisions in a replayable audit trail.
package humanloop

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/safety/enforcement"
	"gopkg.in/yaml.v3"
)

// Reasons recorded on flagged responses.
const (
	ReasonConsensusPartial = "consensus_not_reached"
	ReasonReviewTermMatch  = "sensitive_topic"
)

// ErrInvalidDecision is returned by SubmitDecision for decision values
// other than approved/rejected.
var ErrInvalidDecision = errors.New("decision must be approved or rejected")

type reviewLanguage struct {
	Code  string   `yaml:"code"`
	Terms []string `yaml:"terms"`
}

type reviewTermFile struct {
	Languages []reviewLanguage `yaml:"languages"`
}

// Manager owns the pending review queue and the audit trail.
//
// # Description
// The queue is in-memory and mutex-guarded; enqueue and decision are the
// only mutations, and a decision removes its request atomically with the
// creation of the terminal ValidationRecord. Every mutation is also
// appended to the AuditStore, so a restart can replay the full history
// even though the live queue itself is not persisted.
//
// Thread Safety: all methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	pending []datatypes.ValidationRequest
	byId    map[string]int

	store           *AuditStore
	terms           map[string][]string
	defaultLanguage string
	logger          *slog.Logger
}

// NewManager builds a Manager from the embedded review-term tables. The
// store may be nil in lightweight deployments; decisions are then only
// held in memory for the life of the process.
func NewManager(store *AuditStore) (*Manager, error) {
	var file reviewTermFile
	if err := yaml.Unmarshal(enforcement.ReviewTermTables, &file); err != nil {
		return nil, fmt.Errorf("parse review term tables: %w", err)
	}
	terms := make(map[string][]string, len(file.Languages))
	for _, lang := range file.Languages {
		if lang.Code == "" || len(lang.Terms) == 0 {
			return nil, fmt.Errorf("review term table entry missing code or terms")
		}
		lowered := make([]string, len(lang.Terms))
		for i, term := range lang.Terms {
			lowered[i] = strings.ToLower(term)
		}
		terms[lang.Code] = lowered
	}
	return &Manager{
		byId:            make(map[string]int),
		store:           store,
		terms:           terms,
		defaultLanguage: "en",
		logger:          slog.Default().With("component", "humanloop_manager"),
	}, nil
}

// Evaluate decides whether a response needs reviewer sign-off.
//
// An unconverged consensus always requires review at high priority. A
// converged answer still requires review, at normal priority, when the
// query touches one of the per-language trigger terms. Unknown languages
// fall back to the default table.
func (m *Manager) Evaluate(query, language, consensusStatus string) (bool, string, string) {
	if consensusStatus == datatypes.ConsensusPartial {
		return true, ReasonConsensusPartial, datatypes.PriorityHigh
	}
	terms, ok := m.terms[language]
	if !ok {
		terms = m.terms[m.defaultLanguage]
	}
	lowered := strings.ToLower(query)
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true, ReasonReviewTermMatch, datatypes.PriorityNormal
		}
	}
	return false, "", ""
}

// Enqueue adds a request to the pending queue. Re-enqueueing an ID that is
// already pending replaces the entry in place rather than duplicating it.
func (m *Manager) Enqueue(req datatypes.ValidationRequest) error {
	m.mu.Lock()
	if idx, ok := m.byId[req.ResponseId]; ok {
		m.pending[idx] = req
	} else {
		m.byId[req.ResponseId] = len(m.pending)
		m.pending = append(m.pending, req)
	}
	m.mu.Unlock()

	m.logger.Info("validation request enqueued",
		"response_id", req.ResponseId,
		"priority", req.Priority,
		"reason", req.Reason,
	)
	return m.audit(AuditEvent{Kind: EventEnqueued, Request: &req})
}

// SubmitDecision records a reviewer verdict.
//
// When the response ID is pending, the request is removed from the queue
// and the returned record has Known=true; both happen under one lock so no
// observer can see the request pending after its decision exists. Unknown
// IDs still produce a record (Known=false) and leave the queue untouched,
// which makes decision submission idempotent.
func (m *Manager) SubmitDecision(responseId string, decision datatypes.ValidationDecision, notes string) (datatypes.ValidationRecord, error) {
	if !decision.Valid() {
		return datatypes.ValidationRecord{}, ErrInvalidDecision
	}

	record := datatypes.ValidationRecord{
		ResponseId: responseId,
		Decision:   decision,
		Notes:      notes,
		DecidedAt:  time.Now().UnixMilli(),
	}

	m.mu.Lock()
	if idx, ok := m.byId[responseId]; ok {
		record.Known = true
		m.pending = append(m.pending[:idx], m.pending[idx+1:]...)
		delete(m.byId, responseId)
		for i := idx; i < len(m.pending); i++ {
			m.byId[m.pending[i].ResponseId] = i
		}
	}
	m.mu.Unlock()

	m.logger.Info("validation decision recorded",
		"response_id", responseId,
		"decision", decision,
		"known", record.Known,
	)
	if err := m.audit(AuditEvent{Kind: EventDecision, Record: &record}); err != nil {
		return record, err
	}
	return record, nil
}

// Pending returns a snapshot of the queue in enqueue order.
func (m *Manager) Pending() []datatypes.ValidationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]datatypes.ValidationRequest, len(m.pending))
	copy(snapshot, m.pending)
	return snapshot
}

// QueueDepth returns the number of pending requests.
func (m *Manager) QueueDepth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// History returns up to limit reviewer decision records, newest first.
// Enqueue events are not counted against limit; use AuditTrail for the raw
// event stream. Returns nil when no store is attached.
func (m *Manager) History(limit int) ([]datatypes.ValidationRecord, error) {
	if m.store == nil {
		return nil, nil
	}
	events, err := m.store.Replay(0)
	if err != nil {
		return nil, err
	}
	var records []datatypes.ValidationRecord
	for _, event := range events {
		if limit > 0 && len(records) >= limit {
			break
		}
		if event.Kind == EventDecision && event.Record != nil {
			records = append(records, *event.Record)
		}
	}
	return records, nil
}

// AuditTrail replays up to limit raw audit events (enqueues and decisions),
// newest first. Returns nil when no store is attached.
func (m *Manager) AuditTrail(limit int) ([]AuditEvent, error) {
	if m.store == nil {
		return nil, nil
	}
	return m.store.Replay(limit)
}

// Close releases the audit store, if any.
func (m *Manager) Close() error {
	if m.store == nil {
		return nil
	}
	return m.store.Close()
}

func (m *Manager) audit(event AuditEvent) error {
	if m.store == nil {
		return nil
	}
	return m.store.Append(event)
}

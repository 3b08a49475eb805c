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
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
)

// Audit event kinds.
const (
	EventEnqueued = "enqueued"
	EventDecision = "decision"
)

const auditKeyPrefix = "audit:"

// AuditEvent is one append-only entry in the review audit trail. Exactly
// one of Request/Record is set, according to Kind.
type AuditEvent struct {
	Kind    string                        `json:"kind"`
	Request *datatypes.ValidationRequest  `json:"request,omitempty"`
	Record  *datatypes.ValidationRecord   `json:"record,omitempty"`
	At      int64                         `json:"at"`
}

// AuditStore persists the review audit trail in an embedded BadgerDB.
//
// Entries are append-only under monotonically increasing keys, so a replay
// in key order reconstructs the exact decision history. Nothing is ever
// rewritten or deleted.
type AuditStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// OpenAuditStore opens a persistent audit store at path, creating the
// directory if needed.
func OpenAuditStore(path string) (*AuditStore, error) {
	if path == "" {
		return nil, errors.New("audit store path is required")
	}
	if err := os.MkdirAll(path, 0750); err != nil {
		return nil, fmt.Errorf("create audit store directory %s: %w", path, err)
	}
	opts := badger.DefaultOptions(path).
		WithSyncWrites(true).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	return openAuditStore(opts)
}

// OpenInMemoryAuditStore opens a non-persistent store for testing.
func OpenInMemoryAuditStore() (*AuditStore, error) {
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil)
	return openAuditStore(opts)
}

func openAuditStore(opts badger.Options) (*AuditStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open audit store: %w", err)
	}
	seq, err := db.GetSequence([]byte("audit_seq"), 128)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open audit sequence: %w", err)
	}
	return &AuditStore{db: db, seq: seq}, nil
}

// Append writes one event to the trail.
func (s *AuditStore) Append(event AuditEvent) error {
	if event.At == 0 {
		event.At = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	n, err := s.seq.Next()
	if err != nil {
		return fmt.Errorf("next audit sequence: %w", err)
	}
	key := fmt.Appendf(nil, "%s%020d", auditKeyPrefix, n)
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, payload)
	})
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// Replay returns up to limit events, newest first. limit <= 0 returns the
// whole trail.
func (s *AuditStore) Replay(limit int) ([]AuditEvent, error) {
	var events []AuditEvent
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(auditKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts past the highest possible audit key.
		seek := append([]byte(auditKeyPrefix), 0xFF)
		for it.Seek(seek); it.Valid(); it.Next() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var event AuditEvent
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &event)
			})
			if err != nil {
				return fmt.Errorf("decode audit event: %w", err)
			}
			events = append(events, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Close releases the sequence lease and the underlying database.
func (s *AuditStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return fmt.Errorf("release audit sequence: %w", err)
	}
	return s.db.Close()
}

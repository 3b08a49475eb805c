// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetOrchestratorBaseURL_Default(t *testing.T) {
	t.Setenv("REMEDIUM_ORCHESTRATOR_URL", "")
	if got := getOrchestratorBaseURL(); got != "http://localhost:12210" {
		t.Errorf("expected default base URL, got %q", got)
	}
}

func TestGetOrchestratorBaseURL_EnvOverride(t *testing.T) {
	t.Setenv("REMEDIUM_ORCHESTRATOR_URL", "http://remedium.internal:9999")
	if got := getOrchestratorBaseURL(); got != "http://remedium.internal:9999" {
		t.Errorf("expected env override, got %q", got)
	}
}

func TestPostJSON_RoundTrip(t *testing.T) {
	mockOrchestrator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/query" {
			t.Errorf("expected path /v1/query, got %s", r.URL.Path)
		}
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)
		if reqBody["question"] != "What is metformin?" {
			t.Errorf("unexpected question: %v", reqBody["question"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"answer": "mock answer"})
	}))
	defer mockOrchestrator.Close()
	t.Setenv("REMEDIUM_ORCHESTRATOR_URL", mockOrchestrator.URL)

	var out struct {
		Answer string `json:"answer"`
	}
	err := postJSON("/v1/query", map[string]string{"question": "What is metformin?"}, &out, 5*time.Second)
	if err != nil {
		t.Fatalf("postJSON returned error: %v", err)
	}
	if out.Answer != "mock answer" {
		t.Errorf("expected mock answer, got %q", out.Answer)
	}
}

func TestPostJSON_ErrorStatusIncludesBody(t *testing.T) {
	mockOrchestrator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"question is required"}`))
	}))
	defer mockOrchestrator.Close()
	t.Setenv("REMEDIUM_ORCHESTRATOR_URL", mockOrchestrator.URL)

	err := postJSON("/v1/query", map[string]string{}, nil, 5*time.Second)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "question is required") {
		t.Errorf("expected body text in error, got %v", err)
	}
}

func TestGetJSON_Pending(t *testing.T) {
	mockOrchestrator := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/validations/pending" {
			t.Errorf("expected pending path, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"pending": []map[string]interface{}{
				{"response_id": "resp-1", "priority": "high", "reason": "consensus_not_reached"},
			},
		})
	}))
	defer mockOrchestrator.Close()
	t.Setenv("REMEDIUM_ORCHESTRATOR_URL", mockOrchestrator.URL)

	var resp pendingValidationsResponse
	if err := getJSON("/v1/validations/pending", &resp, 5*time.Second); err != nil {
		t.Fatalf("getJSON returned error: %v", err)
	}
	if resp.Count != 1 || len(resp.Pending) != 1 {
		t.Fatalf("unexpected pending response: %+v", resp)
	}
	if resp.Pending[0].ResponseId != "resp-1" {
		t.Errorf("expected resp-1, got %q", resp.Pending[0].ResponseId)
	}
}

func TestCollectIngestableFiles(t *testing.T) {
	dir := t.TempDir()
	mustWrite := func(rel, content string) string {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	mustWrite("aspirin.md", "# Aspirin")
	mustWrite("notes/warfarin.txt", "warfarin notes")
	mustWrite("image.png", "not text")
	mustWrite(".git/config", "[core]")

	files, err := collectIngestableFiles([]string{dir})
	if err != nil {
		t.Fatalf("collectIngestableFiles returned error: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 ingestable files, got %d: %v", len(files), files)
	}

	// Explicitly named files bypass the extension filter.
	csv := mustWrite("dosages.csv", "drug,dose")
	files, err = collectIngestableFiles([]string{csv})
	if err != nil {
		t.Fatalf("collectIngestableFiles returned error: %v", err)
	}
	if len(files) != 1 || files[0] != csv {
		t.Errorf("expected explicit file to be kept, got %v", files)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("expected unchanged string, got %q", got)
	}
	if got := truncate("a long answer about dosage", 6); got != "a long…" {
		t.Errorf("expected truncated string, got %q", got)
	}
}

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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/remedium-ai/RemediumLocal/pkg/ux"
	"github.com/spf13/cobra"
)

const (
	DefaultOrchestratorHost = "localhost"
	DefaultOrchestratorPort = 12210
)

func getOrchestratorBaseURL() string {
	// 1. Priority: Environment Variable (Used by Tests & Docker overrides)
	if url := os.Getenv("REMEDIUM_ORCHESTRATOR_URL"); url != "" {
		return url
	}
	// 2. Default: Standard Host/Port
	return fmt.Sprintf("http://%s:%d", DefaultOrchestratorHost, DefaultOrchestratorPort)
}

// postJSON sends payload to the orchestrator and decodes the response body
// into out. Non-2xx statuses are returned as errors carrying the body text.
func postJSON(path string, payload any, out any, timeout time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	url := getOrchestratorBaseURL() + path
	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(url, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to reach the orchestrator at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("orchestrator returned status %d: %s", resp.StatusCode, string(text))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse orchestrator response: %w", err)
	}
	return nil
}

// getJSON fetches path from the orchestrator and decodes the body into out.
func getJSON(path string, out any, timeout time.Duration) error {
	url := getOrchestratorBaseURL() + path
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("failed to reach the orchestrator at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("orchestrator returned status %d: %s", resp.StatusCode, string(text))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse orchestrator response: %w", err)
	}
	return nil
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	var status struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	if err := getJSON("/health", &status, 5*time.Second); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	ux.Success(fmt.Sprintf("%s is %s", status.Service, status.Status))
}

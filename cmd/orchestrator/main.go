// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command orchestrator starts the RemediumLocal orchestrator HTTP server.
//
// This is the main entry point for the containerized orchestrator service.
// It reads configuration from environment variables and starts the server.
//
// # Environment Variables
//
//   - ORCHESTRATOR_PORT: HTTP server port (default: 12210)
//   - LLM_BACKEND_TYPE: model provider - ollama, openai (default: ollama)
//   - WEAVIATE_SERVICE_URL: Weaviate vector DB URL (optional)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OpenTelemetry collector (default: remedium-otel-collector:4317)
//   - CONSENSUS_MAX_ITERATIONS: reform-loop bound (default: 2)
//   - CONSENSUS_ACCEPT_THRESHOLD: verifier accept threshold (default: 0.7)
//   - SAFETY_POST_CHECK: re-run the ethical gate on answers ("true" to enable)
//   - HUMANLOOP_AUDIT_PATH: directory for the review audit trail (optional)
//   - REMEDIUM_LOG_DIR: directory for JSON file logs (optional)
//
// # Usage
//
//	# Build
//	go build -o orchestrator ./cmd/orchestrator
//
//	# Run
//	./orchestrator
//
//	# Or via container
//	podman-compose up orchestrator
package main

import (
	"log"
	"log/slog"
	"os"
	"strconv"

	"github.com/remedium-ai/RemediumLocal/pkg/logging"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator"
)

func main() {
	// Setup structured logging; REMEDIUM_LOG_DIR enables file logging.
	logger := logging.New(logging.Config{
		Level:   logging.LevelInfo,
		LogDir:  os.Getenv("REMEDIUM_LOG_DIR"),
		Service: "orchestrator",
	})
	defer logger.Close()
	slog.SetDefault(logger.Slog())

	// Build configuration from environment variables
	cfg := orchestrator.Config{
		Port:            getEnvInt("ORCHESTRATOR_PORT", 12210),
		LLMBackend:      getEnvString("LLM_BACKEND_TYPE", "ollama"),
		WeaviateURL:     os.Getenv("WEAVIATE_SERVICE_URL"),
		OTelEndpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "remedium-otel-collector:4317"),
		MaxIterations:   getEnvInt("CONSENSUS_MAX_ITERATIONS", 0),
		AcceptThreshold: getEnvFloat("CONSENSUS_ACCEPT_THRESHOLD", 0),
		PostSafetyCheck: os.Getenv("SAFETY_POST_CHECK") == "true",
		AuditPath:       os.Getenv("HUMANLOOP_AUDIT_PATH"),
	}

	slog.Info("Starting orchestrator",
		"port", cfg.Port,
		"llm_backend", cfg.LLMBackend,
		"weaviate_url", cfg.WeaviateURL,
	)

	svc, err := orchestrator.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create orchestrator: %v", err)
	}

	// Run the server (blocks until shutdown)
	if err := svc.Run(); err != nil {
		log.Fatalf("Orchestrator error: %v", err)
	}
}

// getEnvString returns the environment variable value or a default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

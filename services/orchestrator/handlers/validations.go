// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/observability"
)

// DecisionRequest is the POST /v1/validations/decision body.
type DecisionRequest struct {
	ResponseId string `json:"response_id" binding:"required"`
	Decision   string `json:"decision" binding:"required"`
	Notes      string `json:"notes"`
}

// ListPendingValidations serves GET /v1/validations/pending.
func ListPendingValidations(manager *humanloop.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending := manager.Pending()
		c.JSON(http.StatusOK, gin.H{
			"count":   len(pending),
			"pending": pending,
		})
	}
}

// SubmitValidationDecision serves POST /v1/validations/decision.
//
// Decisions for unknown response IDs are accepted and recorded; the body
// reports known=false so reviewers can spot stale submissions.
func SubmitValidationDecision(manager *humanloop.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		record, err := manager.SubmitDecision(req.ResponseId, datatypes.ValidationDecision(req.Decision), req.Notes)
		if errors.Is(err, humanloop.ErrInvalidDecision) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			slog.Error("failed to record validation decision", "response_id", req.ResponseId, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record decision"})
			return
		}

		observability.InitMetrics().ValidationQueueDepth.Set(float64(manager.QueueDepth()))
		c.JSON(http.StatusOK, record)
	}
}

// ListValidationHistory serves GET /v1/validations/history?limit=N,
// returning the most recent reviewer decision records, newest first.
func ListValidationHistory(manager *humanloop.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}

		records, err := manager.History(limit)
		if err != nil {
			slog.Error("failed to load validation history", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load history"})
			return
		}
		if records == nil {
			records = []datatypes.ValidationRecord{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":   len(records),
			"records": records,
		})
	}
}

// ListValidationAudit serves GET /v1/validations/audit?limit=N, replaying
// the raw audit trail (enqueues and decisions) newest first.
func ListValidationAudit(manager *humanloop.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := parseLimit(c)
		if !ok {
			return
		}

		events, err := manager.AuditTrail(limit)
		if err != nil {
			slog.Error("failed to replay validation audit trail", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load audit trail"})
			return
		}
		if events == nil {
			events = []humanloop.AuditEvent{}
		}
		c.JSON(http.StatusOK, gin.H{
			"count":  len(events),
			"events": events,
		})
	}
}

// parseLimit reads the optional ?limit= query parameter. On a malformed
// value it writes the 400 response and reports false.
func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return parsed, true
}

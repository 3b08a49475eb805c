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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/services"
)

// HandleQuery processes POST /v1/query: the main QA entry point.
//
// The handler only does transport work: bind, validate, delegate. All
// degraded paths come back as HTTP 200 with markers inside the body; only
// malformed requests and pipeline-level failures map to error statuses.
func HandleQuery(service *services.QueryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		req.EnsureDefaults()
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		response, err := service.ProcessQuery(c.Request.Context(), req)
		if err != nil {
			slog.Error("query processing failed", "request_id", req.RequestID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query processing failed"})
			return
		}
		c.JSON(http.StatusOK, response)
	}
}

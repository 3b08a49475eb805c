// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/handlers"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/middleware"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/services"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// SetupRoutes registers all orchestrator endpoints.
//
// The weaviate client may be nil in lightweight mode; document endpoints
// then answer 503 while the query pipeline keeps working without context.
func SetupRoutes(router *gin.Engine, queryService *services.QueryService,
	reviews *humanloop.Manager, client *weaviate.Client) {

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	v1.Use(middleware.RateLimit(0, 0))
	{
		v1.POST("/query", handlers.HandleQuery(queryService))

		v1.POST("/documents", handlers.IngestDocument(client))
		v1.GET("/documents", handlers.ListDocuments(client))

		// Human-in-the-loop review routes
		validations := v1.Group("/validations")
		{
			validations.GET("/pending", handlers.ListPendingValidations(reviews))
			validations.POST("/decision", handlers.SubmitValidationDecision(reviews))
			validations.GET("/history", handlers.ListValidationHistory(reviews))
			validations.GET("/audit", handlers.ListValidationAudit(reviews))
		}
	}
}

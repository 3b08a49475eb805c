// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the orchestrator service.
//
// Query processing fans out into several model calls per request, so a
// single aggressive client can saturate the local model backend. The rate
// limiter bounds the accepted request rate before any pipeline work
// starts; everything above the burst is answered with 429 immediately
// instead of queueing.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate limiter defaults, tuned for a single local model backend.
const (
	DefaultQueriesPerSecond = 5
	DefaultBurst            = 10
)

// RateLimit returns a middleware enforcing a global token-bucket limit.
// Zero or negative inputs fall back to the defaults.
func RateLimit(queriesPerSecond float64, burst int) gin.HandlerFunc {
	if queriesPerSecond <= 0 {
		queriesPerSecond = DefaultQueriesPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	limiter := rate.NewLimiter(rate.Limit(queriesPerSecond), burst)

	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded, retry later",
			})
			return
		}
		c.Next()
	}
}

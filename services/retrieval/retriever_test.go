// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate/entities/models"
)

func TestRetrieve_LightweightModeReturnsEmptyContext(t *testing.T) {
	r := NewRetriever(nil)

	rc, err := r.Retrieve(context.Background(), "what is paracetamol")
	require.NoError(t, err, "lightweight mode is not an error")
	assert.False(t, rc.Found())
	assert.Empty(t, rc.ContextText())
	assert.Empty(t, rc.Sources())
}

func TestParseSearchResponse(t *testing.T) {
	data := map[string]models.JSONObject{
		"Get": map[string]interface{}{
			MedicalDocumentClass: []interface{}{
				map[string]interface{}{
					"content": "Paracetamol is an analgesic.",
					"source":  "leaflet_para.txt_part_1",
					"_additional": map[string]interface{}{
						"certainty": 0.91,
					},
				},
				map[string]interface{}{
					"content": "Unrelated text.",
					"source":  "leaflet_other.txt_part_3",
					"_additional": map[string]interface{}{
						"certainty": 0.41,
					},
				},
				map[string]interface{}{
					// Empty content chunks are dropped regardless of score.
					"content": "",
					"source":  "broken",
					"_additional": map[string]interface{}{
						"certainty": 0.99,
					},
				},
			},
		},
	}

	chunks := parseSearchResponse(data, 0.6)
	require.Len(t, chunks, 1, "low-certainty and empty chunks must be filtered")
	assert.Equal(t, "Paracetamol is an analgesic.", chunks[0].Content)
	assert.Equal(t, "leaflet_para.txt_part_1", chunks[0].Source)
	assert.InDelta(t, 0.91, chunks[0].Score, 1e-9)
}

func TestParseSearchResponse_MalformedShapes(t *testing.T) {
	assert.Empty(t, parseSearchResponse(nil, 0.6))
	assert.Empty(t, parseSearchResponse(map[string]models.JSONObject{"Get": "not a map"}, 0.6))
	assert.Empty(t, parseSearchResponse(map[string]models.JSONObject{
		"Get": map[string]interface{}{MedicalDocumentClass: "not a list"},
	}, 0.6))
}

func TestRetrievalError_Error(t *testing.T) {
	withStatus := &RetrievalError{Stage: "embed", StatusCode: 503, Message: "overloaded"}
	assert.Contains(t, withStatus.Error(), "503")
	assert.Contains(t, withStatus.Error(), "embed")

	withoutStatus := &RetrievalError{Stage: "search", Message: "connection refused"}
	assert.Contains(t, withoutStatus.Error(), "search")

	assert.True(t, IsRetrievalError(withStatus))
	assert.False(t, IsRetrievalError(assert.AnError))
}

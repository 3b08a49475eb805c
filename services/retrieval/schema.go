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
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"
)

// GetMedicalDocumentSchema returns the Weaviate class definition for
// ingested leaflet/monograph chunks. Vectors come from the external
// embedding service, so the class vectorizer is "none".
func GetMedicalDocumentSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       MedicalDocumentClass,
		Description: "A chunk of pharmaceutical reference text and its source.",
		Vectorizer:  "none",
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The chunk text injected into generation prompts.",
				Tokenization: "word",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "The chunk identifier (document_part_N).",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "parent_source",
				DataType:        []string{"text"},
				Description:     "The original document this chunk was split from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "ingested_at",
				DataType:        []string{"number"},
				Description:     "Timestamp (Unix ms) of when the chunk was ingested.",
				IndexFilterable: indexFilterable,
			},
		},
	}
}

// EnsureSchema creates the MedicalDocument class if it does not already
// exist. Called once at startup when a Weaviate client is configured;
// failures are logged but non-fatal so the service can come up in
// lightweight mode.
func EnsureSchema(client *weaviate.Client) {
	if client == nil {
		return
	}
	ctx := context.Background()

	exists, err := client.Schema().ClassExistenceChecker().
		WithClassName(MedicalDocumentClass).
		Do(ctx)
	if err != nil {
		slog.Error("Failed to check Weaviate schema", "class", MedicalDocumentClass, "error", err)
		return
	}
	if exists {
		slog.Debug("Weaviate class already present", "class", MedicalDocumentClass)
		return
	}

	if err := client.Schema().ClassCreator().
		WithClass(GetMedicalDocumentSchema()).
		Do(ctx); err != nil {
		slog.Error("Failed to create Weaviate class", "class", MedicalDocumentClass, "error", err)
		return
	}
	slog.Info("Created Weaviate class", "class", MedicalDocumentClass)
}

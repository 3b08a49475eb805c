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
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/remedium-ai/RemediumLocal/pkg/ux"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/spf13/cobra"
)

// askTimeout covers the full pipeline: retrieval, up to three consensus
// attempts against a local model, and translation.
const askTimeout = 5 * time.Minute

func runAskCommand(cmd *cobra.Command, args []string) {
	question := strings.Join(args, " ")
	ux.Muted("Asking: " + question)

	req := datatypes.QueryRequest{
		Question:       question,
		TargetLanguage: targetLanguage,
	}
	req.EnsureDefaults()

	var resp datatypes.QueryResponse
	if err := postJSON("/v1/query", req, &resp, askTimeout); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	renderQueryResponse(resp)
}

func renderQueryResponse(resp datatypes.QueryResponse) {
	if resp.EthicalFallback {
		ux.WarningBox("Unable to answer", resp.Answer)
		if resp.SafetyNote != "" {
			ux.Info(resp.SafetyNote)
		}
		for _, action := range resp.SuggestedActions {
			fmt.Printf("  %s %s\n", ux.IconBullet.Render(), action)
		}
		return
	}

	ux.Box("Answer", resp.Answer)

	ux.KeyValue("confidence", fmt.Sprintf("%.2f", resp.Confidence))
	ux.KeyValue("consensus", fmt.Sprintf("%s (iteration %d)", resp.Consensus, resp.Iteration))
	ux.KeyValue("language", resp.TargetLanguage)
	ux.KeyValue("agents", strings.Join(resp.AgentWorkflow, " → "))

	if len(resp.Sources) > 0 {
		ux.Title("Sources")
		for i, source := range resp.Sources {
			scoreInfo := ""
			if source.Score != 0 {
				scoreInfo = fmt.Sprintf("(score: %.4f)", source.Score)
			}
			fmt.Printf("  %d. %s %s\n", i+1, source.Source, scoreInfo)
		}
	} else if !resp.ContextFound {
		ux.Muted("No reference documents matched this question.")
	}

	if resp.TranslationDegraded {
		ux.Warning("Translation degraded: the answer is shown in the pipeline's working language.")
	}
	if resp.HumanValidationRequired {
		ux.Warning(fmt.Sprintf("This answer was queued for human review (response %s).", resp.ResponseId))
	}
}

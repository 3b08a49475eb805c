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
	"time"

	"github.com/remedium-ai/RemediumLocal/pkg/ux"
	"github.com/remedium-ai/RemediumLocal/services/humanloop"
	"github.com/remedium-ai/RemediumLocal/services/orchestrator/datatypes"
	"github.com/spf13/cobra"
)

const validationsTimeout = 30 * time.Second

type pendingValidationsResponse struct {
	Count   int                           `json:"count"`
	Pending []datatypes.ValidationRequest `json:"pending"`
}

type validationHistoryResponse struct {
	Count   int                          `json:"count"`
	Records []datatypes.ValidationRecord `json:"records"`
}

type validationAuditResponse struct {
	Count  int                    `json:"count"`
	Events []humanloop.AuditEvent `json:"events"`
}

func runListValidations(cmd *cobra.Command, args []string) {
	var resp pendingValidationsResponse
	if err := getJSON("/v1/validations/pending", &resp, validationsTimeout); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if resp.Count == 0 {
		ux.Success("The validation queue is empty.")
		return
	}

	ux.Title(fmt.Sprintf("Pending validations (%d)", resp.Count))
	for _, item := range resp.Pending {
		icon := ux.IconPending
		if item.Priority == datatypes.PriorityHigh {
			icon = ux.IconWarning
		}
		fmt.Printf("%s %s [%s] %s\n", icon.Render(), item.ResponseId, item.Priority, item.Reason)
		ux.KeyValue("query", item.Query)
		ux.KeyValue("answer", truncate(item.Answer, 160))
	}
}

func runDecideValidation(cmd *cobra.Command, args []string) {
	submitDecision(args[0], decisionValue)
}

func runApproveValidation(cmd *cobra.Command, args []string) {
	submitDecision(args[0], string(datatypes.DecisionApproved))
}

func runRejectValidation(cmd *cobra.Command, args []string) {
	submitDecision(args[0], string(datatypes.DecisionRejected))
}

func submitDecision(responseId, decision string) {
	payload := map[string]string{
		"response_id": responseId,
		"decision":    decision,
		"notes":       decisionNotes,
	}
	var record datatypes.ValidationRecord
	if err := postJSON("/v1/validations/decision", payload, &record, validationsTimeout); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if !record.Known {
		ux.Warning(fmt.Sprintf("No pending validation for %s; the decision was recorded for audit only.", responseId))
		return
	}
	ux.Success(fmt.Sprintf("Recorded %s for %s", record.Decision, record.ResponseId))
}

func runValidationHistory(cmd *cobra.Command, args []string) {
	path := fmt.Sprintf("/v1/validations/history?limit=%d", historyLimit)
	var resp validationHistoryResponse
	if err := getJSON(path, &resp, validationsTimeout); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if resp.Count == 0 {
		ux.Muted("No reviewer decisions recorded yet.")
		return
	}

	ux.Title(fmt.Sprintf("Decisions (%d, newest first)", resp.Count))
	for _, record := range resp.Records {
		at := time.UnixMilli(record.DecidedAt).Format(time.RFC3339)
		icon := ux.IconSuccess
		if record.Decision == datatypes.DecisionRejected {
			icon = ux.IconError
		}
		fmt.Printf("%s %s  %s → %s\n", icon.Render(), at, record.ResponseId, record.Decision)
		if record.Notes != "" {
			ux.KeyValue("notes", record.Notes)
		}
	}
}

func runValidationAudit(cmd *cobra.Command, args []string) {
	path := fmt.Sprintf("/v1/validations/audit?limit=%d", auditLimit)
	var resp validationAuditResponse
	if err := getJSON(path, &resp, validationsTimeout); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if resp.Count == 0 {
		ux.Muted("No audit events recorded yet.")
		return
	}

	ux.Title(fmt.Sprintf("Audit trail (%d events, newest first)", resp.Count))
	for _, event := range resp.Events {
		at := time.UnixMilli(event.At).Format(time.RFC3339)
		switch event.Kind {
		case humanloop.EventDecision:
			if event.Record != nil {
				fmt.Printf("%s %s  decision  %s → %s\n",
					ux.IconSuccess.Render(), at, event.Record.ResponseId, event.Record.Decision)
			}
		case humanloop.EventEnqueued:
			if event.Request != nil {
				fmt.Printf("%s %s  enqueued  %s (%s)\n",
					ux.IconPending.Render(), at, event.Request.ResponseId, event.Request.Reason)
			}
		default:
			fmt.Printf("%s %s  %s\n", ux.IconBullet.Render(), at, event.Kind)
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

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
	"github.com/remedium-ai/RemediumLocal/pkg/ux"
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	targetLanguage   string
	decisionValue    string
	decisionNotes    string
	historyLimit     int
	auditLimit       int
	personalityLevel string // UX personality level (standard/minimal/machine)

	rootCmd = &cobra.Command{
		Use:   "remedium",
		Short: "A cli to interact with the Remedium medical QA orchestrator",
		Long: `Remedium answers medication and treatment questions using a
				multi-agent consensus pipeline over a local document store,
				with human review for anything the pipeline is not sure about.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize UX personality from flag or environment
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
		},
	}

	// --- Ask ---
	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Asks a medical question through the consensus pipeline",
		Args:  cobra.MinimumNArgs(1),
		Run:   runAskCommand, // Defined in cmd_ask.go
	}

	// --- Ingest ---
	ingestCmd = &cobra.Command{
		Use:     "ingest [file or directory path...]",
		Short:   "Ingest documents into the medical knowledge base",
		Aliases: []string{"i"},
		Args:    cobra.MinimumNArgs(1),
		Run:     runIngestCommand, // Defined in cmd_ingest.go
	}
	documentsCmd = &cobra.Command{
		Use:   "documents",
		Short: "List the documents currently in the knowledge base",
		Run:   runListDocuments, // Defined in cmd_ingest.go
	}

	// --- Human Validation ---
	validationsCmd = &cobra.Command{
		Use:   "validations",
		Short: "Manage the human validation queue",
	}
	validationsListCmd = &cobra.Command{
		Use:   "list",
		Short: "List responses waiting for human review",
		Run:   runListValidations, // Defined in cmd_validations.go
	}
	validationsDecideCmd = &cobra.Command{
		Use:   "decide [response_id]",
		Short: "Record a reviewer decision for a flagged response",
		Args:  cobra.ExactArgs(1),
		Run:   runDecideValidation, // Defined in cmd_validations.go
	}
	validationsApproveCmd = &cobra.Command{
		Use:   "approve [response_id]",
		Short: "Approve a flagged response (shorthand for decide --decision approved)",
		Args:  cobra.ExactArgs(1),
		Run:   runApproveValidation, // Defined in cmd_validations.go
	}
	validationsRejectCmd = &cobra.Command{
		Use:   "reject [response_id]",
		Short: "Reject a flagged response (shorthand for decide --decision rejected)",
		Args:  cobra.ExactArgs(1),
		Run:   runRejectValidation, // Defined in cmd_validations.go
	}
	validationsHistoryCmd = &cobra.Command{
		Use:   "history",
		Short: "Show recent reviewer decisions, newest first",
		Run:   runValidationHistory, // Defined in cmd_validations.go
	}
	validationsAuditCmd = &cobra.Command{
		Use:   "audit",
		Short: "Show the raw audit trail of queue events, newest first",
		Run:   runValidationAudit, // Defined in cmd_validations.go
	}

	// --- Health ---
	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Check whether the orchestrator is reachable",
		Run:   runHealthCommand, // Defined in cmd_utils.go
	}
)

// init runs when the Go program starts
func init() {
	// Global UX personality flag
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: standard (default), minimal, or machine (scripting)")

	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&targetLanguage, "lang", "l", "",
		"ISO 639-1 code for the answer language (default: language of the question)")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(documentsCmd)

	rootCmd.AddCommand(validationsCmd)
	validationsCmd.AddCommand(validationsListCmd)
	validationsCmd.AddCommand(validationsDecideCmd)
	validationsDecideCmd.Flags().StringVar(&decisionValue, "decision", "",
		"Reviewer verdict: approved or rejected (required)")
	validationsDecideCmd.Flags().StringVar(&decisionNotes, "notes", "", "Optional reviewer notes")
	validationsDecideCmd.MarkFlagRequired("decision")
	validationsCmd.AddCommand(validationsApproveCmd)
	validationsApproveCmd.Flags().StringVar(&decisionNotes, "notes", "", "Optional reviewer notes")
	validationsCmd.AddCommand(validationsRejectCmd)
	validationsRejectCmd.Flags().StringVar(&decisionNotes, "notes", "", "Optional reviewer notes")
	validationsCmd.AddCommand(validationsHistoryCmd)
	validationsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of decisions to show")
	validationsCmd.AddCommand(validationsAuditCmd)
	validationsAuditCmd.Flags().IntVar(&auditLimit, "limit", 20, "Maximum number of events to show")

	rootCmd.AddCommand(healthCmd)
}

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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/remedium-ai/RemediumLocal/pkg/ux"
	"github.com/spf13/cobra"
)

// ingestTimeout is per document; embedding large files is slow on CPU.
const ingestTimeout = 10 * time.Minute

var ingestableExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".text":     true,
}

type ingestResponse struct {
	Source        string `json:"source"`
	ChunksCreated int    `json:"chunks_created"`
}

func runIngestCommand(cmd *cobra.Command, args []string) {
	files, err := collectIngestableFiles(args)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
	if len(files) == 0 {
		ux.Warning("No ingestable files found (supported: .md, .markdown, .txt, .text).")
		return
	}

	ingested, failed := 0, 0
	for i, path := range files {
		if ux.IsInteractive() {
			fmt.Printf("\r%s %s", ux.ProgressBar(i, len(files), 30), path)
		}
		if err := ingestFile(path); err != nil {
			failed++
			ux.FileStatus(path, ux.IconError, err.Error())
			continue
		}
		ingested++
	}
	if ux.IsInteractive() {
		fmt.Printf("\r%s\n", ux.ProgressBar(len(files), len(files), 30))
	}

	ux.Summary(ingested, failed, len(files))
	if failed > 0 {
		os.Exit(1)
	}
}

func ingestFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if len(strings.TrimSpace(string(content))) == 0 {
		return fmt.Errorf("file is empty")
	}

	payload := map[string]string{
		"content": string(content),
		"source":  filepath.Base(path),
	}
	var resp ingestResponse
	if err := postJSON("/v1/documents", payload, &resp, ingestTimeout); err != nil {
		return err
	}
	ux.FileStatus(path, ux.IconSuccess, fmt.Sprintf("%d chunks", resp.ChunksCreated))
	return nil
}

// collectIngestableFiles expands the given paths, walking directories and
// keeping only files with a supported extension. Explicitly named files are
// kept regardless of extension so odd filenames can still be ingested.
func collectIngestableFiles(paths []string) ([]string, error) {
	var files []string
	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", root, err)
		}
		if !info.IsDir() {
			files = append(files, root)
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// Skip hidden directories like .git
				if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if ingestableExtensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return files, nil
}

func runListDocuments(cmd *cobra.Command, args []string) {
	var resp struct {
		Documents []string `json:"documents"`
	}
	if err := getJSON("/v1/documents", &resp, 30*time.Second); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if len(resp.Documents) == 0 {
		ux.Muted("The knowledge base is empty.")
		return
	}
	ux.Title(fmt.Sprintf("Documents (%d)", len(resp.Documents)))
	for _, doc := range resp.Documents {
		fmt.Printf("  %s %s\n", ux.IconBullet.Render(), doc)
	}
}

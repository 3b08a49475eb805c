// Copyright (C) 2026 Remedium AI (dev@remedium.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
This file serves as the bridge between the build system and the runtime logic. It utilizes the Go
embed package to bake the policy YAML files directly into the compiled binary. This ensures that
the safety and review term tables are immutable at runtime and travel with the executable.
*/

package enforcement

import (
	_ "embed"
)

// SafetyTermTables holds the raw byte content of 'safety_terms.yaml'.
//
// Populated at compile-time via the Go 'embed' directive. Baking the YAML
// into the binary guarantees the ethical-gate policy cannot be tampered
// with on the host filesystem without recompiling the application.
//
// Usage:
//
//	// Pass these bytes directly to yaml.Unmarshal
//	err := yaml.Unmarshal(enforcement.SafetyTermTables, &targetStruct)
//
//go:embed safety_terms.yaml
var SafetyTermTables []byte

// ReviewTermTables holds the raw byte content of 'review_terms.yaml',
// the independently tuned trigger table for human-in-the-loop escalation.
//
//go:embed review_terms.yaml
var ReviewTermTables []byte

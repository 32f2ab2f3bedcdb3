// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reach

import "errors"

// Sentinel errors for the reachability engine.
var (
	// ErrAlreadyAnalyzed is returned when Analyze is called twice on one
	// engine. Build a fresh engine (after closing the previous one) to
	// re-run an analysis.
	ErrAlreadyAnalyzed = errors.New("engine has already run an analysis")

	// ErrEngineClosed is returned by Analyze on an engine whose pools were
	// drained, and by a second Close.
	ErrEngineClosed = errors.New("engine is closed")

	// ErrConflictingAssignment is returned when a transition's action
	// parameter would be bound to two different candidate sets by one
	// supporting tuple. This marks an inconsistency in the DTG wiring, a
	// programmer error.
	ErrConflictingAssignment = errors.New("conflicting action parameter assignment")
)

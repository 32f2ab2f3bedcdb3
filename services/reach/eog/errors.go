// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package eog provides the equivalence machinery of the reachability
// engine: reachable facts over equivalent object groups, the groups
// themselves (a forwarding-link union structure with per-iteration
// history), and the manager that drives merges.
package eog

import "errors"

// Sentinel errors for the equivalence machinery. These mark programmer
// errors: the engine aborts the analysis when one surfaces.
var (
	// ErrArityMismatch is returned when a reachable fact is created with a
	// term-group array whose length differs from its atom's arity.
	ErrArityMismatch = errors.New("reachable fact arity mismatch")

	// ErrGroupGrounded is returned on an attempt to merge a grounded
	// group. TryMergeWith refuses grounded pairs without error; only the
	// internal merge path can surface this.
	ErrGroupGrounded = errors.New("grounded groups cannot merge")

	// ErrNotRoot is returned when the internal merge path is handed a
	// group that has already been merged away.
	ErrNotRoot = errors.New("group is not a root")

	// ErrReplacementCycle is returned when replacing a fact would create a
	// cycle in the replaced_by chain.
	ErrReplacementCycle = errors.New("fact replacement would cycle")

	// ErrUnknownObject is returned when querying the manager for an object
	// that was never registered.
	ErrUnknownObject = errors.New("object has no equivalent object entry")
)

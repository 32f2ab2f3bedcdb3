// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dtg provides the domain transition graph the reachability engine
// analyzes: nodes of jointly bound atoms and transitions carrying an
// action, preconditions, and externally-dependent parameter domains.
//
// # Lifecycle
//
// A graph is assembled with AddNode calls (each NewTransition registers
// itself on its from-node) and then frozen.
// After Freeze() the graph is read-only and may be handed to the engine.
package dtg

import "errors"

// Sentinel errors for graph assembly.
var (
	// ErrGraphFrozen is returned when attempting to modify a frozen graph.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrDuplicateNode is returned when adding a node whose name already
	// exists in the graph.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrNodeNotFound is returned when looking up a node name that was never
	// added to the graph.
	ErrNodeNotFound = errors.New("node not found")
)

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package eog

import (
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// EquivalentObject pairs a domain object with its original group and the
// initial reachable facts that mention the object. The initial facts are
// the witness set for merge decisions: two groups merge only when each can
// reach the other's initial facts.
type EquivalentObject struct {
	object       *sas.Object
	group        *EquivalentObjectGroup
	initialFacts []*ReachableFact
}

// Object returns the underlying domain object.
func (e *EquivalentObject) Object() *sas.Object { return e.object }

// Group returns the object's current root group.
func (e *EquivalentObject) Group() *EquivalentObjectGroup { return e.group.Root() }

// InitialFacts returns the object's initial-fact witness set.
func (e *EquivalentObject) InitialFacts() []*ReachableFact { return e.initialFacts }

// AddInitialFact records an initial fact for the object and registers it
// on the owning group's reachable-fact list.
func (e *EquivalentObject) AddInitialFact(f *ReachableFact) {
	for _, existing := range e.initialFacts {
		if existing == f {
			return
		}
	}
	e.initialFacts = append(e.initialFacts, f)
	e.group.Root().addFactIfAbsent(f)
}

// InitialStateReachable reports whether every initial fact of the object
// is matched by some fact in the given reachable set. An object with no
// initial facts is vacuously reachable, matching the original analyzer's
// behavior.
func (e *EquivalentObject) InitialStateReachable(reachable []*ReachableFact) bool {
	for _, initial := range e.initialFacts {
		matched := false
		for _, f := range reachable {
			if initial.EquivalentTo(f) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

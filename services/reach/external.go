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

import (
	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// handleExternalDependencies resolves transitions whose parameters depend
// on a DTG outside their owning property space.
//
// Description:
//
//	The canonical case is unloading in a logistics domain: the node
//	{(in pkg truck), (at truck loc)} transitions to (at pkg loc), but the
//	package's final location is governed by the truck's DTG, not the
//	package's. For each transition carrying externally-dependent parameter
//	domains, the pass searches for nodes structurally identical to the
//	from-node except at the dependent positions; when the dependent facts
//	are separately established, the alternative node is declared reachable
//	and its supporters are recorded.
//
//	The candidate list is iterated in full and the from-node is skipped by
//	identity.
//
// Returns whether any new supporting tuple was recorded.
func (a *Analyzer) handleExternalDependencies() (bool, error) {
	newSupport := false
	for _, node := range a.graph.Nodes() {
		for _, t := range node.ExternalDependentTransitions() {
			added, err := a.resolveExternalDependency(t)
			if err != nil {
				return newSupport, err
			}
			newSupport = newSupport || added
		}
	}
	return newSupport, nil
}

func (a *Analyzer) resolveExternalDependency(t *dtg.Transition) (bool, error) {
	from := t.From()
	fromAtoms := from.Atoms()

	// Mark which terms of which from-node atoms carry the dependency, and
	// build the probe atoms: domains pinned to the originals everywhere
	// except at dependent positions, which stay free so structurally
	// identical nodes differing only there can match.
	dependentTerm := make([][]bool, len(fromAtoms))
	hasDependency := make([]bool, len(fromAtoms))
	probe := make([]*sas.BoundedAtom, len(fromAtoms))
	for ai, fromAtom := range fromAtoms {
		dependentTerm[ai] = make([]bool, fromAtom.Atom().Arity())
		id := a.bindings.NextStep()
		probe[ai] = sas.NewInvariableBoundedAtom(id, fromAtom.Atom(), fromAtom.InvariableIndex())
		for ti, term := range fromAtom.Atom().Terms() {
			original := a.bindings.Domain(term, fromAtom.ID())
			if t.DependsOn(original) {
				dependentTerm[ai][ti] = true
				hasDependency[ai] = true
				continue
			}
			if err := a.bindings.MakeDomainEqualTo(term, id, original.Objects()); err != nil {
				return false, err
			}
		}
	}

	newSupport := false
	for _, candidate := range a.graph.NodesMatching(a.bindings, probe) {
		if candidate == from {
			continue
		}
		if len(candidate.Atoms()) != len(fromAtoms) {
			continue
		}

		for _, supporting := range a.supported[from] {
			reachableFacts := make([]*sas.BoundedAtom, 0, len(fromAtoms))
			allReached := true
			for ai := range fromAtoms {
				if !hasDependency[ai] {
					reachableFacts = append(reachableFacts, supporting[ai])
					continue
				}

				// Construct the fact to reach: dependent positions take
				// the candidate node's domains, the rest stay with the
				// from-node support.
				target := candidate.Atoms()[ai]
				id := a.bindings.NextStep()
				toReach := sas.NewInvariableBoundedAtom(id, target.Atom(), target.InvariableIndex())
				for ti, term := range target.Atom().Terms() {
					var objects []*sas.Object
					if dependentTerm[ai][ti] {
						objects = a.bindings.Domain(term, target.ID()).Objects()
					} else {
						objects = supporting[ai].VariableDomain(ti, a.bindings).Objects()
					}
					if err := a.bindings.MakeDomainEqualTo(term, id, objects); err != nil {
						return newSupport, err
					}
				}
				reachableFacts = append(reachableFacts, toReach)

				reached := false
				for _, established := range a.established {
					if a.bindings.CanUnify(established.Atom(), established.ID(),
						toReach.Atom(), toReach.ID()) {
						reached = true
						break
					}
				}
				if !reached {
					allReached = false
					break
				}
			}
			if !allReached {
				continue
			}

			added, err := a.makeReachable(candidate, reachableFacts)
			if err != nil {
				return newSupport, err
			}
			newSupport = newSupport || added
		}
	}
	return newSupport, nil
}

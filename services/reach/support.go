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
	"maps"

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// Assignments maps variable domains (by pointer identity) to the candidate
// objects currently assigned to them during a support search.
type Assignments map[*sas.Domain][]*sas.Object

// SupportFinder enumerates tuples of known facts that jointly unify with a
// list of goal atoms under consistent shared-variable assignments.
//
// Description:
//
//	Depth-first backtracking on the goal index. At each depth every known
//	fact that can unify with the current goal atom is tried: each of the
//	goal atom's variable domains is either bound to the fact's
//	corresponding domain or narrowed to the sorted intersection with the
//	existing binding. An empty intersection is a normal local backtrack,
//	never an error. The assignment map is copied before recursing so a
//	failed branch cannot leak partial bindings.
type SupportFinder struct {
	bindings sas.Bindings
}

// NewSupportFinder creates a finder over the given bindings oracle.
func NewSupportFinder(bindings sas.Bindings) *SupportFinder {
	return &SupportFinder{bindings: bindings}
}

// FindSupports returns every distinct tuple of known facts, one per goal
// atom in order, that jointly unifies with the goal atoms. The seed
// assignments pre-constrain shared domains (used when firing transitions
// to pin precondition variables to an already chosen node support); pass
// nil for an unconstrained search.
//
// Each emitted tuple consists of freshly synthesized bounded atoms whose
// variable domains are pinned to their final intersected candidate sets.
func (sf *SupportFinder) FindSupports(goal []*sas.BoundedAtom, seed Assignments,
	known []*sas.BoundedAtom) ([][]*sas.BoundedAtom, error) {

	if len(goal) == 0 {
		return nil, nil
	}
	assignments := make(Assignments, len(seed))
	maps.Copy(assignments, seed)
	var out [][]*sas.BoundedAtom
	if err := sf.find(goal, assignments, 0, known, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (sf *SupportFinder) find(goal []*sas.BoundedAtom, assignments Assignments,
	depth int, known []*sas.BoundedAtom, out *[][]*sas.BoundedAtom) error {

	target := goal[depth]
	for _, fact := range known {
		if !sf.bindings.CanUnify(fact.Atom(), fact.ID(), target.Atom(), target.ID()) {
			continue
		}

		supported := true
		branch := make(Assignments, len(assignments)+target.Atom().Arity())
		maps.Copy(branch, assignments)
		for i, term := range target.Atom().Terms() {
			domain := sf.bindings.Domain(term, target.ID())
			factObjects := fact.VariableDomain(i, sf.bindings).Objects()
			existing, bound := branch[domain]
			if !bound {
				branch[domain] = factObjects
				continue
			}
			intersection := sas.IntersectObjects(existing, factObjects)
			if len(intersection) == 0 {
				supported = false
				break
			}
			branch[domain] = intersection
		}
		if !supported {
			continue
		}

		if depth+1 == len(goal) {
			tuple, err := sf.synthesize(goal, branch)
			if err != nil {
				return err
			}
			*out = append(*out, tuple)
			continue
		}
		if err := sf.find(goal, branch, depth+1, known, out); err != nil {
			return err
		}
	}
	return nil
}

// synthesize builds the emitted tuple: one fresh bounded atom per goal
// atom, each variable domain pinned to its final intersected set.
func (sf *SupportFinder) synthesize(goal []*sas.BoundedAtom, assignments Assignments) ([]*sas.BoundedAtom, error) {
	tuple := make([]*sas.BoundedAtom, len(goal))
	for i, goalAtom := range goal {
		id := sf.bindings.NextStep()
		fresh := sas.NewInvariableBoundedAtom(id, goalAtom.Atom(), goalAtom.InvariableIndex())
		for _, term := range goalAtom.Atom().Terms() {
			objects, bound := assignments[sf.bindings.Domain(term, goalAtom.ID())]
			if !bound {
				objects = sf.bindings.Domain(term, goalAtom.ID()).Objects()
			}
			if err := sf.bindings.MakeDomainEqualTo(term, id, objects); err != nil {
				return nil, err
			}
		}
		tuple[i] = fresh
	}
	return tuple, nil
}

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
	"fmt"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// ReachableFact is a lifted atom whose term positions are occupied by
// equivalent object groups rather than objects.
//
// Description:
//
//	When two groups merge, one of two facts that become indistinguishable
//	is marked with a replacement pointer rather than deleted: facts are
//	shared among the groups of every term position, and immediate
//	collection would require reverse indices. Affected groups purge
//	tombstoned facts in a deferred sweep (DeleteRemovedFacts).
//
// Lifecycle:
//
//	Facts are allocated from the arena's slab pool and never freed
//	individually during a run; the pool is drained at teardown.
type ReachableFact struct {
	atom            *sas.Atom
	terms           []*EquivalentObjectGroup
	invariableIndex int
	replacedBy      *ReachableFact
}

// Atom returns the fact's lifted atom.
func (f *ReachableFact) Atom() *sas.Atom { return f.atom }

// InvariableIndex returns the term position pinned by the owning property
// space, or sas.NoInvariableIndex.
func (f *ReachableFact) InvariableIndex() int { return f.invariableIndex }

// TermGroup returns the group occupying position i.
func (f *ReachableFact) TermGroup(i int) *EquivalentObjectGroup { return f.terms[i] }

// TermGroups returns the fact's term-group array. Callers must not mutate
// it.
func (f *ReachableFact) TermGroups() []*EquivalentObjectGroup { return f.terms }

// UpdateTermsToRoot rewrites each term slot to its current root group and
// reports whether any slot changed. Idempotent: a second call returns
// false.
func (f *ReachableFact) UpdateTermsToRoot() bool {
	updated := false
	for i, g := range f.terms {
		if root := g.Root(); root != g {
			f.terms[i] = root
			updated = true
		}
	}
	return updated
}

// IdenticalTo reports whether both facts resolve to pointer-equal root
// groups at every position.
func (f *ReachableFact) IdenticalTo(other *ReachableFact) bool {
	if !f.atom.Predicate().Matches(other.atom.Predicate()) ||
		f.atom.IsNegated() != other.atom.IsNegated() {
		return false
	}
	for i := range f.terms {
		if f.terms[i].Root() != other.terms[i].Root() {
			return false
		}
	}
	return true
}

// EquivalentTo reports whether the facts describe the same lifted fact up
// to the groups under equivalence test. Positions at either fact's
// invariable index only require fingerprint-compatible groups (the groups
// being compared for a merge sit there); every other position must resolve
// to the same root.
func (f *ReachableFact) EquivalentTo(other *ReachableFact) bool {
	if !f.atom.Predicate().Matches(other.atom.Predicate()) ||
		f.atom.IsNegated() != other.atom.IsNegated() {
		return false
	}
	for i := range f.terms {
		a, b := f.terms[i].Root(), other.terms[i].Root()
		if a == b {
			continue
		}
		if i == f.invariableIndex || i == other.invariableIndex {
			if a.SameFingerprint(b) {
				continue
			}
		}
		return false
	}
	return true
}

// ReplaceBy marks the fact as subsumed by replacement. Following the
// replacement chain from any tombstone must reach a live fact; a direct
// cycle is a programmer error.
func (f *ReachableFact) ReplaceBy(replacement *ReachableFact) error {
	for r := replacement; r != nil; r = r.replacedBy {
		if r == f {
			return fmt.Errorf("%w: %s", ErrReplacementCycle, f)
		}
	}
	f.replacedBy = replacement
	return nil
}

// MarkedForRemoval reports whether the fact has been subsumed.
func (f *ReachableFact) MarkedForRemoval() bool { return f.replacedBy != nil }

// Replacement follows the replaced_by chain to the live terminus. Returns
// the fact itself when it was never subsumed.
func (f *ReachableFact) Replacement() *ReachableFact {
	r := f
	for r.replacedBy != nil {
		r = r.replacedBy
	}
	return r
}

func (f *ReachableFact) String() string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(f.atom.Predicate().Name())
	for _, g := range f.terms {
		sb.WriteString(" ")
		sb.WriteString(g.Root().String())
	}
	sb.WriteString(")")
	return sb.String()
}

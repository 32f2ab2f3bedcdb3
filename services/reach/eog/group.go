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
	"bytes"
	"math"
	"strings"

	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// notMerged is the merged_at_iteration value of a root group.
const notMerged = math.MaxInt

// EquivalentObjectGroup is a set of objects treated as interchangeable by
// the current reachability state.
//
// Description:
//
//	Merged groups are never destroyed: the losing group keeps a forwarding
//	link to the group it merged into and records the iteration at which it
//	stopped being a root. Every public operation follows links to the
//	root. Member lists are prefix-stable (merged objects are appended),
//	which is what makes the per-iteration size snapshots sufficient for
//	historical membership queries.
type EquivalentObjectGroup struct {
	objects           []*EquivalentObject
	fingerprint       []byte
	reachableFacts    []*ReachableFact
	link              *EquivalentObjectGroup
	mergedAtIteration int
	sizePerIteration  []int
	grounded          bool
}

// newGroup creates a singleton group for object. A nil object creates the
// zero-arity group (always grounded, empty fingerprint bits).
func newGroup(graph *dtg.Graph, object *sas.Object, grounded bool) *EquivalentObjectGroup {
	g := &EquivalentObjectGroup{
		grounded:          grounded,
		mergedAtIteration: notMerged,
		fingerprint:       fingerprintFor(graph, object),
	}
	return g
}

// fingerprintFor computes the boolean vector with one bit per
// (node, atom, term position), set when the object's type is admitted by
// that position's declared type.
func fingerprintFor(graph *dtg.Graph, object *sas.Object) []byte {
	size := 0
	for _, n := range graph.Nodes() {
		for _, a := range n.Atoms() {
			size += a.Atom().Arity()
		}
	}
	fp := make([]byte, size)
	if object == nil {
		return fp
	}
	i := 0
	for _, n := range graph.Nodes() {
		for _, a := range n.Atoms() {
			for _, term := range a.Atom().Terms() {
				if object.Type().IsEqual(term.Type()) || object.Type().IsSubtypeOf(term.Type()) {
					fp[i] = 1
				}
				i++
			}
		}
	}
	return fp
}

// Root follows forwarding links to the root group. The root's link is nil.
func (g *EquivalentObjectGroup) Root() *EquivalentObjectGroup {
	root := g
	for root.link != nil {
		root = root.link
	}
	return root
}

// IsRoot reports whether the group has not been merged away.
func (g *EquivalentObjectGroup) IsRoot() bool { return g.link == nil }

// Grounded reports whether the group is pinned: grounded groups never
// merge.
func (g *EquivalentObjectGroup) Grounded() bool { return g.grounded }

// MergedAtIteration returns the first iteration at which the group became
// non-root, or math.MaxInt for roots.
func (g *EquivalentObjectGroup) MergedAtIteration() int { return g.mergedAtIteration }

// SameFingerprint reports byte-equality of the two groups' fingerprints.
func (g *EquivalentObjectGroup) SameFingerprint(other *EquivalentObjectGroup) bool {
	return bytes.Equal(g.fingerprint, other.fingerprint)
}

// EquivalentObjects returns the group's member entries in merge-append
// order.
func (g *EquivalentObjectGroup) EquivalentObjects() []*EquivalentObject { return g.objects }

// ReachableFacts returns the group's reachable-fact list, tombstones
// included until the next sweep.
func (g *EquivalentObjectGroup) ReachableFacts() []*ReachableFact { return g.reachableFacts }

// Contains reports current membership of object.
func (g *EquivalentObjectGroup) Contains(object *sas.Object) bool {
	for _, eo := range g.objects {
		if eo.object == object {
			return true
		}
	}
	return false
}

// ContainsAt reports membership of object as of the given iteration. A
// group merged at or before the queried iteration routes the query through
// its forwarding link; otherwise only the members recorded in that
// iteration's size snapshot are scanned.
func (g *EquivalentObjectGroup) ContainsAt(object *sas.Object, iteration int) bool {
	if g.mergedAtIteration <= iteration {
		return g.link.ContainsAt(object, iteration)
	}
	if iteration < 0 || iteration >= len(g.sizePerIteration) {
		return false
	}
	for i := 0; i < g.sizePerIteration[iteration]; i++ {
		if g.objects[i].object == object {
			return true
		}
	}
	return false
}

// SizeAt returns the member count as of the given iteration, routing
// through links like ContainsAt.
func (g *EquivalentObjectGroup) SizeAt(iteration int) int {
	if g.mergedAtIteration <= iteration {
		return g.link.SizeAt(iteration)
	}
	if iteration < 0 || iteration >= len(g.sizePerIteration) {
		return 0
	}
	return g.sizePerIteration[iteration]
}

func (g *EquivalentObjectGroup) addEquivalentObject(eo *EquivalentObject) {
	g.objects = append(g.objects, eo)
}

// addFactIfAbsent appends f unless an identical fact is already listed.
func (g *EquivalentObjectGroup) addFactIfAbsent(f *ReachableFact) bool {
	if g.containsIdentical(f) {
		return false
	}
	g.reachableFacts = append(g.reachableFacts, f)
	return true
}

func (g *EquivalentObjectGroup) containsIdentical(f *ReachableFact) bool {
	for _, existing := range g.reachableFacts {
		if existing == f || existing.IdenticalTo(f) {
			return true
		}
	}
	return false
}

// TryMergeWith merges other into g when the two are equivalence-mergeable
// at the given iteration: neither grounded, byte-equal fingerprints, and a
// symmetric initial-state witness check — some object of other can reach
// its whole initial state within g's reachable facts, and vice versa.
// Groups touched by the merge's fact rewrites are appended to affected so
// the manager can sweep their tombstones afterwards.
//
// A refused merge is normal and returns false; only internal invariant
// violations return an error.
func (g *EquivalentObjectGroup) TryMergeWith(other *EquivalentObjectGroup, affected *[]*EquivalentObjectGroup, iteration int) (bool, error) {
	if g.grounded || other.grounded {
		return false, nil
	}
	thisRoot, otherRoot := g.Root(), other.Root()
	if thisRoot == otherRoot {
		return true, nil
	}
	if g != thisRoot || other != otherRoot {
		return thisRoot.TryMergeWith(otherRoot, affected, iteration)
	}
	if !g.SameFingerprint(other) {
		return false, nil
	}

	canMerge := false
	for _, eo := range other.objects {
		if eo.InitialStateReachable(g.reachableFacts) {
			canMerge = true
			break
		}
	}
	if !canMerge {
		return false, nil
	}
	canMerge = false
	for _, eo := range g.objects {
		if eo.InitialStateReachable(other.reachableFacts) {
			canMerge = true
			break
		}
	}
	if !canMerge {
		return false, nil
	}

	if err := g.merge(other, affected); err != nil {
		return false, err
	}
	other.mergedAtIteration = iteration
	mergesTotal.Inc()
	return true, nil
}

// merge folds other into g: other becomes a forwarder, its members are
// appended, and both fact lists are reconciled. Facts of g that reference
// a non-root group are dropped from g's list (the merged-in side carries
// the updated rendition); facts of other are rewritten to root groups and
// either adopted or tombstoned against an identical survivor.
func (g *EquivalentObjectGroup) merge(other *EquivalentObjectGroup, affected *[]*EquivalentObjectGroup) error {
	if other.link != nil {
		return ErrNotRoot
	}
	if g.grounded || other.grounded {
		return ErrGroupGrounded
	}
	g.objects = append(g.objects, other.objects...)
	other.link = g

	kept := g.reachableFacts[:0]
	for _, f := range g.reachableFacts {
		stale := false
		for _, tg := range f.terms {
			if !tg.IsRoot() {
				stale = true
				break
			}
		}
		if !stale {
			kept = append(kept, f)
			continue
		}
		for _, tg := range f.terms {
			if tg != g {
				appendAffected(affected, tg)
			}
		}
	}
	g.reachableFacts = kept

	updated := append([]*ReachableFact(nil), g.reachableFacts...)
	for _, f := range other.reachableFacts {
		if f.MarkedForRemoval() {
			continue
		}
		alreadyPresent := false
		if f.UpdateTermsToRoot() {
			var identical *ReachableFact
			for _, u := range updated {
				if u != f && u.IdenticalTo(f) {
					identical = u
					break
				}
			}
			if identical != nil {
				alreadyPresent = true
				if err := f.ReplaceBy(identical); err != nil {
					return err
				}
				for _, tg := range f.terms {
					appendAffected(affected, tg)
				}
			} else {
				updated = append(updated, f)
			}
		}
		if !alreadyPresent {
			g.reachableFacts = append(g.reachableFacts, f)
		}
	}
	return nil
}

func appendAffected(affected *[]*EquivalentObjectGroup, g *EquivalentObjectGroup) {
	for _, existing := range *affected {
		if existing == g {
			return
		}
	}
	*affected = append(*affected, g)
}

// DeleteRemovedFacts purges tombstoned facts from the group's list.
func (g *EquivalentObjectGroup) DeleteRemovedFacts() {
	kept := g.reachableFacts[:0]
	for _, f := range g.reachableFacts {
		if f.MarkedForRemoval() {
			tombstonesSweptTotal.Inc()
			continue
		}
		kept = append(kept, f)
	}
	g.reachableFacts = kept
}

// snapshotSize appends the current member count to the per-iteration size
// history. Only roots snapshot; historical queries on merged groups route
// through their links.
func (g *EquivalentObjectGroup) snapshotSize() {
	g.sizePerIteration = append(g.sizePerIteration, len(g.objects))
}

// SizeHistory returns the per-iteration size snapshots recorded while the
// group was a root.
func (g *EquivalentObjectGroup) SizeHistory() []int { return g.sizePerIteration }

func (g *EquivalentObjectGroup) String() string {
	root := g.Root()
	names := make([]string, len(root.objects))
	for i, eo := range root.objects {
		names[i] = eo.object.Name()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

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
	"log/slog"

	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// Manager owns every equivalent object group and the object-to-group map,
// and drives the per-iteration equivalence updates.
//
// Description:
//
//	One group is created per object at initialization and never destroyed;
//	merged groups remain as forwarders. Facts with no terms are parked on
//	a dedicated grounded zero-arity group, as in the original analyzer.
//
// Thread Safety: not safe for concurrent use.
type Manager struct {
	graph     *dtg.Graph
	bindings  sas.Bindings
	arena     *Arena
	groups    []*EquivalentObjectGroup
	objects   map[*sas.Object]*EquivalentObject
	zeroArity *EquivalentObjectGroup
	logger    *slog.Logger
}

// NewManager creates the per-object singleton groups over the given
// catalog. The grounded predicate marks objects that must never merge
// (for example, objects named in the goal).
func NewManager(graph *dtg.Graph, bindings sas.Bindings, objects []*sas.Object,
	grounded func(*sas.Object) bool, slabSize int, logger *slog.Logger) *Manager {

	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		graph:    graph,
		bindings: bindings,
		arena:    NewArena(slabSize, graph.MaxArity()),
		objects:  make(map[*sas.Object]*EquivalentObject, len(objects)),
		logger:   logger,
	}
	for _, obj := range objects {
		g := newGroup(graph, obj, grounded != nil && grounded(obj))
		eo := &EquivalentObject{object: obj, group: g}
		g.addEquivalentObject(eo)
		m.groups = append(m.groups, g)
		m.objects[obj] = eo
	}
	m.zeroArity = newGroup(graph, nil, true)
	m.groups = append(m.groups, m.zeroArity)
	return m
}

// Arena returns the manager's fact arena.
func (m *Manager) Arena() *Arena { return m.arena }

// Close drains the manager's arena. Must be called before a new engine is
// initialized over the same process.
func (m *Manager) Close() error { return m.arena.Close() }

// MaterializeInitial lifts the initial-state bounded atoms into reachable
// facts and records them as the initial-fact witness sets of every object
// they mention.
func (m *Manager) MaterializeInitial(facts []*sas.BoundedAtom) error {
	for _, ba := range facts {
		created, err := m.materialize(ba)
		if err != nil {
			return fmt.Errorf("materialize initial fact %s: %w", ba.Format(m.bindings), err)
		}
		for _, f := range created {
			if f.Atom().Arity() == 0 {
				m.zeroArity.addFactIfAbsent(f)
				continue
			}
			for _, g := range f.TermGroups() {
				for _, eo := range g.Root().EquivalentObjects() {
					eo.AddInitialFact(f)
				}
			}
		}
	}
	return nil
}

// MaterializeSupport lifts a support tuple's bounded atoms into reachable
// facts on the groups they mention. Called by the engine every time a node
// gains a new supporting tuple.
func (m *Manager) MaterializeSupport(tuple []*sas.BoundedAtom) error {
	for _, ba := range tuple {
		created, err := m.materialize(ba)
		if err != nil {
			return fmt.Errorf("materialize support fact %s: %w", ba.Format(m.bindings), err)
		}
		for _, f := range created {
			if f.Atom().Arity() == 0 {
				m.zeroArity.addFactIfAbsent(f)
				continue
			}
			seen := make(map[*EquivalentObjectGroup]bool, len(f.TermGroups()))
			for _, g := range f.TermGroups() {
				root := g.Root()
				if !seen[root] {
					seen[root] = true
					root.addFactIfAbsent(f)
				}
			}
		}
	}
	return nil
}

// materialize enumerates one reachable fact per combination of distinct
// per-position root groups covering the bounded atom's domains, skipping
// combinations an identical fact already represents.
func (m *Manager) materialize(ba *sas.BoundedAtom) ([]*ReachableFact, error) {
	arity := ba.Atom().Arity()
	invariable := m.resolveInvariableIndex(ba)
	if arity == 0 {
		if m.zeroArity.containsIdentical(&ReachableFact{atom: ba.Atom()}) {
			return nil, nil
		}
		f, err := m.arena.NewFact(ba.Atom(), invariable, nil)
		if err != nil {
			return nil, err
		}
		factsMaterializedTotal.Inc()
		return []*ReachableFact{f}, nil
	}

	// Per-position candidate root groups, first-occurrence order.
	candidates := make([][]*EquivalentObjectGroup, arity)
	for i := 0; i < arity; i++ {
		domain := ba.VariableDomain(i, m.bindings)
		for _, obj := range domain.Objects() {
			eo, ok := m.objects[obj]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownObject, obj.Name())
			}
			root := eo.Group()
			dup := false
			for _, g := range candidates[i] {
				if g == root {
					dup = true
					break
				}
			}
			if !dup {
				candidates[i] = append(candidates[i], root)
			}
		}
		if len(candidates[i]) == 0 {
			return nil, nil
		}
	}

	var created []*ReachableFact
	combo := make([]*EquivalentObjectGroup, arity)
	var walk func(pos int) error
	walk = func(pos int) error {
		if pos == arity {
			probe := &ReachableFact{atom: ba.Atom(), terms: combo, invariableIndex: invariable}
			if combo[0].containsIdentical(probe) {
				return nil
			}
			f, err := m.arena.NewFact(ba.Atom(), invariable, combo)
			if err != nil {
				return err
			}
			factsMaterializedTotal.Inc()
			created = append(created, f)
			return nil
		}
		for _, g := range candidates[pos] {
			combo[pos] = g
			if err := walk(pos + 1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0); err != nil {
		return nil, err
	}
	return created, nil
}

// resolveInvariableIndex returns the bounded atom's own invariable index
// when it has one, and otherwise inherits the index of the first DTG node
// atom the fact can unify with. Facts that match no pinned node atom stay
// at NoInvariableIndex.
func (m *Manager) resolveInvariableIndex(ba *sas.BoundedAtom) int {
	if ba.InvariableIndex() != sas.NoInvariableIndex {
		return ba.InvariableIndex()
	}
	for _, n := range m.graph.Nodes() {
		for _, nodeAtom := range n.Atoms() {
			if nodeAtom.InvariableIndex() == sas.NoInvariableIndex {
				continue
			}
			if m.bindings.CanUnify(nodeAtom.Atom(), nodeAtom.ID(), ba.Atom(), ba.ID()) {
				return nodeAtom.InvariableIndex()
			}
		}
	}
	return sas.NoInvariableIndex
}

// UpdateEquivalences runs one equivalence pass at the given iteration:
// every pair of root groups with matching fingerprints and symmetric
// initial-state witnesses is merged, affected roots sweep their
// tombstones, and each surviving root appends a size snapshot. Returns
// the number of merges performed.
func (m *Manager) UpdateEquivalences(iteration int) (int, error) {
	var affected []*EquivalentObjectGroup
	merges := 0
	for _, g := range m.groups {
		if !g.IsRoot() {
			continue
		}
		for _, other := range m.groups {
			if other == g || !other.IsRoot() {
				continue
			}
			merged, err := g.TryMergeWith(other, &affected, iteration)
			if err != nil {
				return merges, err
			}
			if merged {
				merges++
				m.logger.Debug("merged equivalent object groups",
					"into", g.String(), "iteration", iteration)
			}
			if !g.IsRoot() {
				break
			}
		}
	}

	for _, g := range affected {
		if g.IsRoot() {
			g.DeleteRemovedFacts()
		}
	}
	for _, g := range m.groups {
		if g.IsRoot() {
			g.snapshotSize()
		}
	}
	return merges, nil
}

// EquivalentObjectOf returns the catalog entry pairing object with its
// group.
func (m *Manager) EquivalentObjectOf(object *sas.Object) (*EquivalentObject, error) {
	eo, ok := m.objects[object]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, object.Name())
	}
	return eo, nil
}

// GroupOf returns the current root group of object.
func (m *Manager) GroupOf(object *sas.Object) (*EquivalentObjectGroup, error) {
	eo, err := m.EquivalentObjectOf(object)
	if err != nil {
		return nil, err
	}
	return eo.Group(), nil
}

// ContainsAt reports whether object's group contained it as of the given
// iteration.
func (m *Manager) ContainsAt(object *sas.Object, iteration int) (bool, error) {
	eo, err := m.EquivalentObjectOf(object)
	if err != nil {
		return false, err
	}
	return eo.group.ContainsAt(object, iteration), nil
}

// SizeAt returns the member count of object's group as of the given
// iteration.
func (m *Manager) SizeAt(object *sas.Object, iteration int) (int, error) {
	eo, err := m.EquivalentObjectOf(object)
	if err != nil {
		return 0, err
	}
	return eo.group.SizeAt(iteration), nil
}

// Groups returns every group, roots and forwarders alike.
func (m *Manager) Groups() []*EquivalentObjectGroup { return m.groups }

// ZeroArityGroup returns the grounded group holding facts with no terms.
func (m *Manager) ZeroArityGroup() *EquivalentObjectGroup { return m.zeroArity }

// NumGroups returns the number of root groups holding at least one
// object. The zero-arity group is bookkeeping, not an equivalence class.
func (m *Manager) NumGroups() int {
	n := 0
	for _, g := range m.groups {
		if g.IsRoot() && len(g.objects) > 0 {
			n++
		}
	}
	return n
}

// AllReachableFacts returns every live reachable fact exactly once. A
// group whose facts were already collected is skipped through a closed
// list, as facts are shared by every group they mention.
func (m *Manager) AllReachableFacts() []*ReachableFact {
	closed := make(map[*EquivalentObjectGroup]bool)
	var out []*ReachableFact
	for _, g := range m.groups {
		if !g.IsRoot() {
			continue
		}
		for _, f := range g.reachableFacts {
			if f.MarkedForRemoval() {
				continue
			}
			processed := false
			for _, tg := range f.terms {
				if closed[tg.Root()] {
					processed = true
					break
				}
			}
			if !processed {
				out = append(out, f)
			}
		}
		closed[g] = true
	}
	return out
}

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
	"testing"

	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// truckWorld is the shared fixture: two trucks, two locations, and a
// two-node DTG over (at ?truck ?location) with the truck position
// invariable.
type truckWorld struct {
	bindings *sas.BindingTable
	graph    *dtg.Graph
	at       *sas.Predicate
	truck1   *sas.Object
	truck2   *sas.Object
	l1       *sas.Object
	l2       *sas.Object
}

func newTruckWorld(t *testing.T) *truckWorld {
	t.Helper()

	truckType := sas.NewType("truck", nil)
	locationType := sas.NewType("location", nil)
	w := &truckWorld{
		truck1: sas.NewObject("truck1", truckType),
		truck2: sas.NewObject("truck2", truckType),
		l1:     sas.NewObject("l1", locationType),
		l2:     sas.NewObject("l2", locationType),
	}
	w.bindings = sas.NewBindingTable([]*sas.Object{w.truck1, w.truck2, w.l1, w.l2})
	w.at = sas.NewPredicate("at", truckType, locationType)

	w.graph = dtg.NewGraph()
	for i, loc := range []*sas.Object{w.l1, w.l2} {
		step := w.bindings.NextStep()
		truckVar := sas.NewVariable("?t", truckType)
		locVar := sas.NewVariable("?l", locationType)
		atom := sas.NewInvariableBoundedAtom(step, sas.MustAtom(w.at, truckVar, locVar), 0)
		if err := w.bindings.MakeDomainEqualTo(locVar, step, []*sas.Object{loc}); err != nil {
			t.Fatal(err)
		}
		name := []string{"at-l1", "at-l2"}[i]
		if err := w.graph.AddNode(dtg.NewNode(name, step, atom)); err != nil {
			t.Fatal(err)
		}
	}
	w.graph.Freeze()
	return w
}

func (w *truckWorld) objects() []*sas.Object {
	return []*sas.Object{w.truck1, w.truck2, w.l1, w.l2}
}

// ground binds a ground atom at a fresh step.
func (w *truckWorld) ground(t *testing.T, objs ...*sas.Object) *sas.BoundedAtom {
	t.Helper()
	terms := make([]*sas.Term, len(objs))
	for i, o := range objs {
		terms[i] = sas.NewConstant(o)
	}
	return sas.NewBoundedAtom(w.bindings.NextStep(), sas.MustAtom(w.at, terms...))
}

func (w *truckWorld) newManager(t *testing.T, grounded func(*sas.Object) bool) *Manager {
	t.Helper()
	m := NewManager(w.graph, w.bindings, w.objects(), grounded, 64, nil)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func mustGroup(t *testing.T, m *Manager, o *sas.Object) *EquivalentObjectGroup {
	t.Helper()
	g, err := m.GroupOf(o)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

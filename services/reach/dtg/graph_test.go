// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dtg

import (
	"errors"
	"testing"

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// fixture is a two-node truck graph used across the package tests.
type fixture struct {
	bindings *sas.BindingTable
	graph    *Graph
	atL1     *Node
	atL2     *Node
	drive    *Transition
	trucks   *sas.Type
	places   *sas.Type
	objects  []*sas.Object
}

func buildFixture(t *testing.T) *fixture {
	t.Helper()

	trucks := sas.NewType("truck", nil)
	places := sas.NewType("location", nil)
	objects := []*sas.Object{
		sas.NewObject("truck1", trucks),
		sas.NewObject("l1", places),
		sas.NewObject("l2", places),
	}
	bindings := sas.NewBindingTable(objects)
	at := sas.NewPredicate("at", trucks, places)

	graph := NewGraph()

	s1 := bindings.NextStep()
	fromVar := sas.NewVariable("?t", trucks)
	fromLoc := sas.NewVariable("?from", places)
	atL1 := NewNode("at-l1", s1,
		sas.NewInvariableBoundedAtom(s1, sas.MustAtom(at, fromVar, fromLoc), 0))
	if err := bindings.MakeDomainEqualTo(fromLoc, s1, objects[1:2]); err != nil {
		t.Fatal(err)
	}

	s2 := bindings.NextStep()
	toVar := sas.NewVariable("?t", trucks)
	toLoc := sas.NewVariable("?to", places)
	atL2 := NewNode("at-l2", s2,
		sas.NewInvariableBoundedAtom(s2, sas.MustAtom(at, toVar, toLoc), 0))
	if err := bindings.MakeDomainEqualTo(toLoc, s2, objects[2:3]); err != nil {
		t.Fatal(err)
	}

	if err := graph.AddNode(atL1); err != nil {
		t.Fatal(err)
	}
	if err := graph.AddNode(atL2); err != nil {
		t.Fatal(err)
	}

	s3 := bindings.NextStep()
	pTruck := sas.NewVariable("?t", trucks)
	pFrom := sas.NewVariable("?from", places)
	pTo := sas.NewVariable("?to", places)
	bindings.Unify(fromVar, s1, pTruck, s3)
	bindings.Unify(fromLoc, s1, pFrom, s3)
	bindings.Unify(toVar, s2, pTruck, s3)
	bindings.Unify(toLoc, s2, pTo, s3)

	action := NewAction("drive", pTruck, pFrom, pTo)
	drive := NewTransition(atL1, atL2, action, s3,
		[]*sas.Atom{sas.MustAtom(at, pTruck, pFrom)},
		[]*sas.Domain{bindings.Domain(pTo, s3)})

	graph.Freeze()
	return &fixture{
		bindings: bindings, graph: graph,
		atL1: atL1, atL2: atL2, drive: drive,
		trucks: trucks, places: places, objects: objects,
	}
}

func TestGraphFreeze(t *testing.T) {
	f := buildFixture(t)

	err := f.graph.AddNode(NewNode("late", f.bindings.NextStep()))
	if !errors.Is(err, ErrGraphFrozen) {
		t.Fatalf("expected ErrGraphFrozen, got %v", err)
	}
}

func TestGraphDuplicateNode(t *testing.T) {
	g := NewGraph()
	bindings := sas.NewBindingTable(nil)
	s := bindings.NextStep()
	if err := g.AddNode(NewNode("n", s)); err != nil {
		t.Fatal(err)
	}
	err := g.AddNode(NewNode("n", s))
	if !errors.Is(err, ErrDuplicateNode) {
		t.Fatalf("expected ErrDuplicateNode, got %v", err)
	}
}

func TestGraphNodeLookup(t *testing.T) {
	f := buildFixture(t)

	n, err := f.graph.Node("at-l1")
	if err != nil || n != f.atL1 {
		t.Fatalf("lookup failed: %v", err)
	}
	if _, err := f.graph.Node("missing"); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("expected ErrNodeNotFound, got %v", err)
	}
}

func TestTransitionWiring(t *testing.T) {
	f := buildFixture(t)

	if got := f.atL1.Transitions(); len(got) != 1 || got[0] != f.drive {
		t.Fatalf("drive should be registered as outgoing on at-l1, got %v", got)
	}
	if len(f.atL2.Transitions()) != 0 {
		t.Fatal("at-l2 has no outgoing transitions")
	}
	if f.drive.From() != f.atL1 || f.drive.To() != f.atL2 {
		t.Fatal("transition endpoints are wrong")
	}

	dependent := f.bindings.Domain(f.drive.Action().Variables()[2], f.drive.Step())
	if !f.drive.DependsOn(dependent) {
		t.Fatal("?to domain should be externally dependent")
	}
	if got := f.atL1.ExternalDependentTransitions(); len(got) != 1 || got[0] != f.drive {
		t.Fatalf("expected drive in external-dependent list, got %v", got)
	}
}

func TestGraphMaxArity(t *testing.T) {
	f := buildFixture(t)
	if got := f.graph.MaxArity(); got != 2 {
		t.Fatalf("expected max arity 2, got %d", got)
	}
}

func TestNodesMatching(t *testing.T) {
	f := buildFixture(t)

	// A probe with a free location matches both nodes.
	at := f.atL1.Atoms()[0].Atom().Predicate()
	probeStep := f.bindings.NextStep()
	probeTruck := sas.NewVariable("?t", f.trucks)
	probeLoc := sas.NewVariable("?l", f.places)
	probe := sas.NewBoundedAtom(probeStep, sas.MustAtom(at, probeTruck, probeLoc))

	got := f.graph.NodesMatching(f.bindings, []*sas.BoundedAtom{probe})
	if len(got) != 2 {
		t.Fatalf("expected both nodes to match, got %d", len(got))
	}

	// Pinning the location to l2 excludes at-l1.
	if err := f.bindings.MakeDomainEqualTo(probeLoc, probeStep, f.objects[2:3]); err != nil {
		t.Fatal(err)
	}
	got = f.graph.NodesMatching(f.bindings, []*sas.BoundedAtom{probe})
	if len(got) != 1 || got[0] != f.atL2 {
		t.Fatalf("expected only at-l2 to match, got %v", got)
	}
}

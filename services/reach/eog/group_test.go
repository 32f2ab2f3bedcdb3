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

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

func TestFingerprints(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, nil)

	gT1 := mustGroup(t, m, w.truck1)
	gT2 := mustGroup(t, m, w.truck2)
	gL1 := mustGroup(t, m, w.l1)

	if !gT1.SameFingerprint(gT2) {
		t.Error("same-typed objects must have byte-equal fingerprints")
	}
	if gT1.SameFingerprint(gL1) {
		t.Error("a truck and a location must not share a fingerprint")
	}
}

func TestGroundedGroupsNeverMerge(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, func(o *sas.Object) bool { return o == w.truck1 })

	gT1 := mustGroup(t, m, w.truck1)
	gT2 := mustGroup(t, m, w.truck2)
	if !gT1.Grounded() {
		t.Fatal("truck1's group should be grounded")
	}

	var affected []*EquivalentObjectGroup
	merged, err := gT1.TryMergeWith(gT2, &affected, 0)
	if err != nil {
		t.Fatal(err)
	}
	if merged {
		t.Fatal("grounded groups must refuse to merge")
	}
	merged, err = gT2.TryMergeWith(gT1, &affected, 0)
	if err != nil || merged {
		t.Fatalf("merge into a grounded group must be refused (merged=%v err=%v)", merged, err)
	}
}

func TestFingerprintMismatchRefusesMerge(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, nil)

	gT1 := mustGroup(t, m, w.truck1)
	gL1 := mustGroup(t, m, w.l1)

	var affected []*EquivalentObjectGroup
	merged, err := gT1.TryMergeWith(gL1, &affected, 0)
	if err != nil {
		t.Fatal(err)
	}
	if merged {
		t.Fatal("differing fingerprints must refuse the merge")
	}
}

func TestMergeMechanics(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, nil)

	gT1 := mustGroup(t, m, w.truck1)
	gT2 := mustGroup(t, m, w.truck2)
	mergeVacuously(t, gT1, gT2)

	if gT2.IsRoot() {
		t.Fatal("merged group must forward")
	}
	if gT2.Root() != gT1 {
		t.Fatal("merged group must resolve to the winner")
	}
	if gT2.MergedAtIteration() != 0 {
		t.Fatalf("merged_at_iteration should be 0, got %d", gT2.MergedAtIteration())
	}
	if gT1.MergedAtIteration() != notMerged {
		t.Fatal("winner must stay unmerged")
	}

	members := gT1.EquivalentObjects()
	if len(members) != 2 || members[0].Object() != w.truck1 || members[1].Object() != w.truck2 {
		t.Fatal("members must be appended in merge order (prefix-stable)")
	}
	if !gT1.Contains(w.truck2) {
		t.Fatal("winner must contain the merged object")
	}

	// Merging again through either handle is a no-op success.
	var affected []*EquivalentObjectGroup
	merged, err := gT2.TryMergeWith(gT1, &affected, 1)
	if err != nil || !merged {
		t.Fatalf("re-merge through a forwarder must succeed trivially (merged=%v err=%v)", merged, err)
	}
}

func TestContainsAtHistory(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, nil)

	gT1 := mustGroup(t, m, w.truck1)
	gT2 := mustGroup(t, m, w.truck2)

	// Iteration 0: everything separate. Both trucks start at l1, so their
	// groups hold matching initial facts; l2 has none, so it stays apart
	// from l1.
	if err := m.MaterializeInitial([]*sas.BoundedAtom{
		w.ground(t, w.truck1, w.l1),
		w.ground(t, w.truck2, w.l1),
	}); err != nil {
		t.Fatal(err)
	}

	// The trucks share an initial location, so iteration 0 merges them.
	if _, err := m.UpdateEquivalences(0); err != nil {
		t.Fatal(err)
	}
	if gT2.IsRoot() {
		t.Fatal("expected the truck groups to merge at iteration 0")
	}

	if _, err := m.UpdateEquivalences(1); err != nil {
		t.Fatal(err)
	}

	root := gT1.Root()
	if !root.ContainsAt(w.truck1, 0) {
		t.Error("truck1 must be in its root group at iteration 0")
	}
	if !root.ContainsAt(w.truck2, 1) {
		t.Error("truck2 must be in the merged group at iteration 1")
	}
	// The forwarder routes historical queries through its link once the
	// queried iteration is at or past the merge point.
	if !gT2.ContainsAt(w.truck2, 1) {
		t.Error("forwarded group must answer through its link")
	}
	if gT2.ContainsAt(w.truck1, 1) == false {
		t.Error("link routing must expose the merged membership")
	}

	// History is monotone.
	history := root.SizeHistory()
	for i := 1; i < len(history); i++ {
		if history[i] < history[i-1] {
			t.Fatalf("size history must be non-decreasing, got %v", history)
		}
	}
}

func TestSizeAtRoutesThroughLink(t *testing.T) {
	w := newTruckWorld(t)
	m := w.newManager(t, nil)

	if err := m.MaterializeInitial([]*sas.BoundedAtom{
		w.ground(t, w.truck1, w.l1),
		w.ground(t, w.truck2, w.l1),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := m.UpdateEquivalences(0); err != nil {
		t.Fatal(err)
	}

	size, err := m.SizeAt(w.truck2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 {
		t.Fatalf("merged group should have size 2 at iteration 0, got %d", size)
	}
}

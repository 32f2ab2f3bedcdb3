// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package sas

import "strings"

// BoundedAtom pairs an atom with the binding step under which its terms
// resolve to variable domains.
type BoundedAtom struct {
	id              StepID
	atom            *Atom
	invariableIndex int
}

// NewBoundedAtom binds an atom at the given step. The invariable index
// defaults to NoInvariableIndex.
func NewBoundedAtom(id StepID, atom *Atom) *BoundedAtom {
	return &BoundedAtom{id: id, atom: atom, invariableIndex: NoInvariableIndex}
}

// NewInvariableBoundedAtom binds an atom at the given step with the given
// invariable term position.
func NewInvariableBoundedAtom(id StepID, atom *Atom, invariableIndex int) *BoundedAtom {
	return &BoundedAtom{id: id, atom: atom, invariableIndex: invariableIndex}
}

// ID returns the binding step.
func (b *BoundedAtom) ID() StepID { return b.id }

// Atom returns the underlying atom.
func (b *BoundedAtom) Atom() *Atom { return b.atom }

// InvariableIndex returns the term position whose value is constrained to
// a single object across the owning DTG node's lifetime, or
// NoInvariableIndex.
func (b *BoundedAtom) InvariableIndex() int { return b.invariableIndex }

// VariableDomain resolves the i-th term's domain through the oracle.
func (b *BoundedAtom) VariableDomain(i int, bindings Bindings) *Domain {
	return bindings.Domain(b.atom.TermAt(i), b.id)
}

// Format renders the bounded atom with its current domains, e.g.
// "(at {truck1, truck2} {s1})". Used by logging and the CLI.
func (b *BoundedAtom) Format(bindings Bindings) string {
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(b.atom.Predicate().Name())
	for i := range b.atom.Terms() {
		sb.WriteString(" ")
		sb.WriteString(b.VariableDomain(i, bindings).String())
	}
	sb.WriteString(")")
	return sb.String()
}

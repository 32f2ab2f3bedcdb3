// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package sas provides the SAS+ data model consumed by the reachability
// engine: object and type catalogs, predicates, atoms, variable domains,
// and the binding table that resolves terms to domains.
//
// # Ownership Model
//
// Catalog values (Type, Object, Predicate) are created once during problem
// assembly and are immutable for the lifetime of an analysis. Identity is
// pointer identity; two catalogs must not be mixed within one engine.
//
// # Thread Safety
//
// None of the types in this package are safe for concurrent use. The engine
// is strictly sequential (single-writer); see the reach package.
package sas

import (
	"fmt"
	"sort"
	"strings"
)

// NoInvariableIndex marks a bounded atom that has no term position pinned
// to a single object across its DTG node's lifetime.
const NoInvariableIndex = -1

// StepID identifies a binding context. Every bounded atom carries the step
// under which its terms resolve to variable domains.
type StepID uint32

// Type is a node in the domain's subtype lattice.
type Type struct {
	name   string
	parent *Type
}

// NewType creates a type with an optional parent. A nil parent marks a root
// type.
func NewType(name string, parent *Type) *Type {
	return &Type{name: name, parent: parent}
}

// Name returns the type's name.
func (t *Type) Name() string { return t.name }

// IsEqual reports whether two types are the same catalog entry.
func (t *Type) IsEqual(other *Type) bool {
	return t == other
}

// IsSubtypeOf reports whether t is a strict descendant of other in the
// subtype lattice.
func (t *Type) IsSubtypeOf(other *Type) bool {
	for p := t.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}

// Object is an opaque domain value with a type. Objects are immutable for
// the lifetime of the engine.
type Object struct {
	name string
	typ  *Type
}

// NewObject creates an object of the given type.
func NewObject(name string, typ *Type) *Object {
	return &Object{name: name, typ: typ}
}

// Name returns the object's name.
func (o *Object) Name() string { return o.name }

// Type returns the object's type.
func (o *Object) Type() *Type { return o.typ }

func (o *Object) String() string { return o.name }

// Predicate is a name plus a per-position type signature.
type Predicate struct {
	name  string
	types []*Type
}

// NewPredicate creates a predicate with the given positional types.
func NewPredicate(name string, types ...*Type) *Predicate {
	return &Predicate{name: name, types: types}
}

// Name returns the predicate's name.
func (p *Predicate) Name() string { return p.name }

// Arity returns the number of term positions.
func (p *Predicate) Arity() int { return len(p.types) }

// TypeAt returns the declared type of the i-th position.
func (p *Predicate) TypeAt(i int) *Type { return p.types[i] }

// Matches reports whether two predicates agree on name and arity. The
// engine compares predicates structurally so that loaders may intern them
// independently.
func (p *Predicate) Matches(other *Predicate) bool {
	return p.name == other.name && len(p.types) == len(other.types)
}

// Term is a slot in an atom. A term either names a constant (Object is
// non-nil) or a typed variable whose candidates are resolved through a
// BindingTable.
type Term struct {
	name   string
	typ    *Type
	object *Object
}

// NewVariable creates a variable term of the given type.
func NewVariable(name string, typ *Type) *Term {
	return &Term{name: name, typ: typ}
}

// NewConstant creates a constant term denoting the given object.
func NewConstant(object *Object) *Term {
	return &Term{name: object.Name(), typ: object.Type(), object: object}
}

// Name returns the term's name.
func (t *Term) Name() string { return t.name }

// Type returns the term's declared type.
func (t *Term) Type() *Type { return t.typ }

// Object returns the denoted object for constant terms, nil for variables.
func (t *Term) Object() *Object { return t.object }

// IsVariable reports whether the term is a variable.
func (t *Term) IsVariable() bool { return t.object == nil }

// Atom is a predicate applied to an ordered list of terms, with a negation
// flag.
type Atom struct {
	predicate *Predicate
	terms     []*Term
	negated   bool
}

// NewAtom creates an atom. The number of terms must match the predicate's
// arity; a mismatch is an input-malformation error surfaced before any
// analysis begins.
func NewAtom(predicate *Predicate, terms ...*Term) (*Atom, error) {
	if len(terms) != predicate.Arity() {
		return nil, fmt.Errorf("%w: predicate %s expects %d terms, got %d",
			ErrArityMismatch, predicate.Name(), predicate.Arity(), len(terms))
	}
	return &Atom{predicate: predicate, terms: terms}, nil
}

// MustAtom is NewAtom for statically known-correct atoms, used by tests and
// loaders that have already validated their input.
func MustAtom(predicate *Predicate, terms ...*Term) *Atom {
	a, err := NewAtom(predicate, terms...)
	if err != nil {
		panic(err)
	}
	return a
}

// Negate returns a negated copy of the atom sharing its terms.
func (a *Atom) Negate() *Atom {
	return &Atom{predicate: a.predicate, terms: a.terms, negated: !a.negated}
}

// Predicate returns the atom's predicate.
func (a *Atom) Predicate() *Predicate { return a.predicate }

// Terms returns the atom's ordered term list. Callers must not mutate it.
func (a *Atom) Terms() []*Term { return a.terms }

// TermAt returns the i-th term.
func (a *Atom) TermAt(i int) *Term { return a.terms[i] }

// Arity returns the atom's arity.
func (a *Atom) Arity() int { return len(a.terms) }

// IsNegated reports whether the atom carries a negation flag.
func (a *Atom) IsNegated() bool { return a.negated }

func (a *Atom) String() string {
	var sb strings.Builder
	if a.negated {
		sb.WriteString("(not ")
	}
	sb.WriteString("(")
	sb.WriteString(a.predicate.Name())
	for _, t := range a.terms {
		sb.WriteString(" ")
		sb.WriteString(t.Name())
	}
	sb.WriteString(")")
	if a.negated {
		sb.WriteString(")")
	}
	return sb.String()
}

// Domain is an ordered list of candidate objects for one bound term. The
// support finder keys its assignment map on Domain pointer identity, so a
// Domain must never be copied once handed out by a BindingTable.
type Domain struct {
	objects []*Object
}

// Objects returns the candidate objects in order. Callers must not mutate
// the returned slice.
func (d *Domain) Objects() []*Object { return d.objects }

// Size returns the number of candidates.
func (d *Domain) Size() int { return len(d.objects) }

// Contains reports whether the domain holds the given object.
func (d *Domain) Contains(o *Object) bool {
	for _, c := range d.objects {
		if c == o {
			return true
		}
	}
	return false
}

func (d *Domain) String() string {
	names := make([]string, len(d.objects))
	for i, o := range d.objects {
		names[i] = o.Name()
	}
	return "{" + strings.Join(names, ", ") + "}"
}

// equalAsSet reports element-wise set equality of two object lists.
func equalAsSet(a, b []*Object) bool {
	if len(a) != len(b) {
		return false
	}
	for _, o := range a {
		found := false
		for _, p := range b {
			if o == p {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// IntersectObjects returns the sorted intersection of two object lists.
// The result is ordered by object name so that repeated intersections are
// deterministic regardless of input order.
func IntersectObjects(a, b []*Object) []*Object {
	var out []*Object
	for _, o := range a {
		for _, p := range b {
			if o == p {
				out = append(out, o)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

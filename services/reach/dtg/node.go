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
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// Action is a parametrized operator attached to a transition. Its variable
// terms are bound at the owning transition's step; effect and precondition
// atoms reference them by term identity.
type Action struct {
	name      string
	variables []*sas.Term
}

// NewAction creates an action over the given variable terms.
func NewAction(name string, variables ...*sas.Term) *Action {
	return &Action{name: name, variables: variables}
}

// Name returns the action name.
func (a *Action) Name() string { return a.name }

// Variables returns the action's parameter terms in declaration order.
func (a *Action) Variables() []*sas.Term { return a.variables }

// Node is a set of bounded atoms sharing variable domains, with outgoing
// transitions.
type Node struct {
	name        string
	step        sas.StepID
	atoms       []*sas.BoundedAtom
	transitions []*Transition
}

// NewNode creates a node whose atoms are bound at the given step. Atoms
// that share variables must share *sas.Term values (or be connected later
// through BindingTable.Unify) so their domains alias.
func NewNode(name string, step sas.StepID, atoms ...*sas.BoundedAtom) *Node {
	return &Node{name: name, step: step, atoms: atoms}
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Step returns the binding step the node's atoms are bound at.
func (n *Node) Step() sas.StepID { return n.step }

// Atoms returns the node's bounded atoms. Callers must not mutate the
// returned slice.
func (n *Node) Atoms() []*sas.BoundedAtom { return n.atoms }

// Transitions returns the node's outgoing transitions.
func (n *Node) Transitions() []*Transition { return n.transitions }

// ExternalDependentTransitions returns the outgoing transitions that carry
// at least one externally-dependent parameter domain.
func (n *Node) ExternalDependentTransitions() []*Transition {
	var out []*Transition
	for _, t := range n.transitions {
		if len(t.dependentDomains) > 0 {
			out = append(out, t)
		}
	}
	return out
}

// MaxArity returns the largest atom arity in the node.
func (n *Node) MaxArity() int {
	max := 0
	for _, a := range n.atoms {
		if a.Atom().Arity() > max {
			max = a.Atom().Arity()
		}
	}
	return max
}

// Transition connects two nodes through a parametrized action.
type Transition struct {
	from, to         *Node
	action           *Action
	step             sas.StepID
	preconditions    []*sas.Atom
	dependentDomains []*sas.Domain
}

// NewTransition creates a transition and registers it as outgoing on the
// from-node. The preconditions are bound at the transition's step; the
// dependent domains mark action parameters whose reachable values are
// governed by a DTG outside the transition's owning property space.
func NewTransition(from, to *Node, action *Action, step sas.StepID,
	preconditions []*sas.Atom, dependentDomains []*sas.Domain) *Transition {

	t := &Transition{
		from:             from,
		to:               to,
		action:           action,
		step:             step,
		preconditions:    preconditions,
		dependentDomains: dependentDomains,
	}
	from.transitions = append(from.transitions, t)
	return t
}

// From returns the transition's source node.
func (t *Transition) From() *Node { return t.from }

// To returns the transition's target node.
func (t *Transition) To() *Node { return t.to }

// Action returns the transition's action.
func (t *Transition) Action() *Action { return t.action }

// Step returns the binding step of the action variables and preconditions.
func (t *Transition) Step() sas.StepID { return t.step }

// Preconditions returns the precondition atoms, bound at Step().
func (t *Transition) Preconditions() []*sas.Atom { return t.preconditions }

// DependentDomains returns the externally-dependent parameter domains.
func (t *Transition) DependentDomains() []*sas.Domain { return t.dependentDomains }

// DependsOn reports whether the given domain is one of the transition's
// externally-dependent parameter domains.
func (t *Transition) DependsOn(d *sas.Domain) bool {
	for _, dep := range t.dependentDomains {
		if dep == d {
			return true
		}
	}
	return false
}

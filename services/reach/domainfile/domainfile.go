// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package domainfile loads a compiled planning problem from YAML: type and
// object catalogs, predicates, the domain transition graph, and the
// initial state. It is the programmatic front door used by the CLI and
// the integration tests; it is not a PDDL parser.
//
// Variables are written with a leading question mark ("?truck"); any other
// term is an object constant. Within a node, equal variable names denote
// one shared term. A transition's parameters are unified by name with the
// variables of its from- and to-node atoms, which is how effect atoms pick
// up the values chosen for the preconditions.
package domainfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/AleutianPlan/services/reach/dtg"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// MaxFileSize is the maximum allowed domain file size (4MB).
const MaxFileSize = 4 * 1024 * 1024

// Sentinel errors for domain loading.
var (
	// ErrFileTooLarge is returned when the domain file exceeds
	// MaxFileSize.
	ErrFileTooLarge = errors.New("domain file too large")

	// ErrUnknownPredicate is returned when an atom references an
	// undeclared predicate.
	ErrUnknownPredicate = errors.New("predicate not declared")

	// ErrUnknownVariable is returned when a precondition or dependency
	// references a parameter the transition never declared.
	ErrUnknownVariable = errors.New("variable not declared")

	// ErrGroundRequired is returned when an initial-state atom contains a
	// variable.
	ErrGroundRequired = errors.New("initial facts must be ground")
)

// File is the YAML document shape.
type File struct {
	Types       []TypeDecl       `yaml:"types"`
	Objects     []ObjectDecl     `yaml:"objects" validate:"min=1,dive"`
	Grounded    []string         `yaml:"grounded"`
	Predicates  []PredicateDecl  `yaml:"predicates" validate:"min=1,dive"`
	Nodes       []NodeDecl       `yaml:"nodes" validate:"min=1,dive"`
	Transitions []TransitionDecl `yaml:"transitions" validate:"dive"`
	Initial     []AtomDecl       `yaml:"initial" validate:"dive"`
}

// TypeDecl declares a type with an optional parent.
type TypeDecl struct {
	Name   string `yaml:"name" validate:"required"`
	Parent string `yaml:"parent"`
}

// ObjectDecl declares a typed object.
type ObjectDecl struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
}

// PredicateDecl declares a predicate with positional parameter types.
type PredicateDecl struct {
	Name       string   `yaml:"name" validate:"required"`
	Parameters []string `yaml:"parameters"`
}

// AtomDecl is a predicate application over variables and constants.
type AtomDecl struct {
	Predicate       string   `yaml:"predicate" validate:"required"`
	Terms           []string `yaml:"terms"`
	Negated         bool     `yaml:"negated"`
	InvariableIndex *int     `yaml:"invariable-index"`
}

// NodeDecl declares a DTG node. The domains map restricts node variables
// to the node's value, e.g. {"?loc": [l1]} for the node representing "the
// truck is at l1".
type NodeDecl struct {
	Name    string              `yaml:"name" validate:"required"`
	Atoms   []AtomDecl          `yaml:"atoms" validate:"min=1,dive"`
	Domains map[string][]string `yaml:"domains"`
}

// ParameterDecl declares a typed action parameter.
type ParameterDecl struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required"`
}

// TransitionDecl declares a transition between two nodes.
type TransitionDecl struct {
	Name              string          `yaml:"name" validate:"required"`
	From              string          `yaml:"from" validate:"required"`
	To                string          `yaml:"to" validate:"required"`
	Parameters        []ParameterDecl `yaml:"parameters" validate:"dive"`
	Preconditions     []AtomDecl      `yaml:"preconditions" validate:"dive"`
	ExternalDependent []string        `yaml:"external-dependent"`
}

// Problem is the assembled analysis input.
type Problem struct {
	Types      map[string]*sas.Type
	Objects    []*sas.Object
	Predicates map[string]*sas.Predicate
	Graph      *dtg.Graph
	Bindings   *sas.BindingTable
	Initial    []*sas.BoundedAtom

	grounded map[*sas.Object]bool
}

// Grounded reports whether the object was declared grounded (must never
// merge).
func (p *Problem) Grounded(o *sas.Object) bool { return p.grounded[o] }

// Load reads, validates, and assembles a domain file.
func Load(path string) (*Problem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat domain file: %w", err)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrFileTooLarge, path, info.Size())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domain file: %w", err)
	}
	return Parse(raw)
}

// Parse validates and assembles a domain document.
func Parse(raw []byte) (*Problem, error) {
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse domain file: %w", err)
	}
	if err := validator.New().Struct(file); err != nil {
		return nil, fmt.Errorf("validate domain file: %w", err)
	}
	return assemble(&file)
}

func assemble(file *File) (*Problem, error) {
	p := &Problem{
		Types:      make(map[string]*sas.Type),
		Predicates: make(map[string]*sas.Predicate),
		grounded:   make(map[*sas.Object]bool),
	}

	for _, decl := range file.Types {
		var parent *sas.Type
		if decl.Parent != "" {
			var ok bool
			if parent, ok = p.Types[decl.Parent]; !ok {
				return nil, fmt.Errorf("%w: parent %s of type %s (declare parents first)",
					sas.ErrUnknownType, decl.Parent, decl.Name)
			}
		}
		p.Types[decl.Name] = sas.NewType(decl.Name, parent)
	}

	objectsByName := make(map[string]*sas.Object)
	for _, decl := range file.Objects {
		typ, ok := p.Types[decl.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %s for object %s", sas.ErrUnknownType, decl.Type, decl.Name)
		}
		obj := sas.NewObject(decl.Name, typ)
		p.Objects = append(p.Objects, obj)
		objectsByName[decl.Name] = obj
	}
	for _, name := range file.Grounded {
		obj, ok := objectsByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: grounded object %s", sas.ErrUnknownObject, name)
		}
		p.grounded[obj] = true
	}

	for _, decl := range file.Predicates {
		types := make([]*sas.Type, len(decl.Parameters))
		for i, name := range decl.Parameters {
			typ, ok := p.Types[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s in predicate %s", sas.ErrUnknownType, name, decl.Name)
			}
			types[i] = typ
		}
		p.Predicates[decl.Name] = sas.NewPredicate(decl.Name, types...)
	}

	p.Bindings = sas.NewBindingTable(p.Objects)
	p.Graph = dtg.NewGraph()

	// Nodes: variables with equal names share one term within a node.
	nodeVars := make(map[*dtg.Node]map[string]*sas.Term)
	for _, decl := range file.Nodes {
		step := p.Bindings.NextStep()
		vars := make(map[string]*sas.Term)
		atoms := make([]*sas.BoundedAtom, len(decl.Atoms))
		for i, atomDecl := range decl.Atoms {
			atom, err := p.buildAtom(atomDecl, vars, objectsByName)
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", decl.Name, err)
			}
			invariable := sas.NoInvariableIndex
			if atomDecl.InvariableIndex != nil {
				invariable = *atomDecl.InvariableIndex
			}
			atoms[i] = sas.NewInvariableBoundedAtom(step, atom, invariable)
		}
		for name, objNames := range decl.Domains {
			term, ok := vars[name]
			if !ok {
				return nil, fmt.Errorf("node %s: %w: %s", decl.Name, ErrUnknownVariable, name)
			}
			restricted := make([]*sas.Object, len(objNames))
			for i, objName := range objNames {
				obj, ok := objectsByName[objName]
				if !ok {
					return nil, fmt.Errorf("node %s: %w: %s", decl.Name, sas.ErrUnknownObject, objName)
				}
				restricted[i] = obj
			}
			if err := p.Bindings.MakeDomainEqualTo(term, step, restricted); err != nil {
				return nil, fmt.Errorf("node %s: %w", decl.Name, err)
			}
		}
		node := dtg.NewNode(decl.Name, step, atoms...)
		if err := p.Graph.AddNode(node); err != nil {
			return nil, err
		}
		nodeVars[node] = vars
	}

	for _, decl := range file.Transitions {
		if err := p.buildTransition(decl, nodeVars, objectsByName); err != nil {
			return nil, fmt.Errorf("transition %s: %w", decl.Name, err)
		}
	}
	p.Graph.Freeze()

	for _, decl := range file.Initial {
		ba, err := p.buildInitialFact(decl, objectsByName)
		if err != nil {
			return nil, fmt.Errorf("initial state: %w", err)
		}
		p.Initial = append(p.Initial, ba)
	}
	return p, nil
}

func isVariable(term string) bool { return strings.HasPrefix(term, "?") }

// buildAtom resolves an atom declaration against a variable scope. New
// variables take the predicate's positional type.
func (p *Problem) buildAtom(decl AtomDecl, vars map[string]*sas.Term, objects map[string]*sas.Object) (*sas.Atom, error) {
	predicate, ok := p.Predicates[decl.Predicate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, decl.Predicate)
	}
	terms := make([]*sas.Term, len(decl.Terms))
	for i, name := range decl.Terms {
		if isVariable(name) {
			term, ok := vars[name]
			if !ok {
				if i >= predicate.Arity() {
					return nil, fmt.Errorf("%w: %s", sas.ErrArityMismatch, decl.Predicate)
				}
				term = sas.NewVariable(name, predicate.TypeAt(i))
				vars[name] = term
			}
			terms[i] = term
			continue
		}
		obj, ok := objects[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", sas.ErrUnknownObject, name)
		}
		terms[i] = sas.NewConstant(obj)
	}
	atom, err := sas.NewAtom(predicate, terms...)
	if err != nil {
		return nil, err
	}
	if decl.Negated {
		atom = atom.Negate()
	}
	return atom, nil
}

// buildTransition assembles a transition: typed parameters bound at the
// transition's step, preconditions over those parameters, name-based
// unification with the from- and to-node variables, and resolution of the
// externally-dependent parameter domains.
func (p *Problem) buildTransition(decl TransitionDecl, nodeVars map[*dtg.Node]map[string]*sas.Term, objects map[string]*sas.Object) error {
	from, err := p.Graph.Node(decl.From)
	if err != nil {
		return err
	}
	to, err := p.Graph.Node(decl.To)
	if err != nil {
		return err
	}

	step := p.Bindings.NextStep()
	params := make(map[string]*sas.Term, len(decl.Parameters))
	variables := make([]*sas.Term, len(decl.Parameters))
	for i, param := range decl.Parameters {
		typ, ok := p.Types[param.Type]
		if !ok {
			return fmt.Errorf("%w: %s for parameter %s", sas.ErrUnknownType, param.Type, param.Name)
		}
		term := sas.NewVariable(param.Name, typ)
		params[param.Name] = term
		variables[i] = term
	}

	preconditions := make([]*sas.Atom, len(decl.Preconditions))
	for i, atomDecl := range decl.Preconditions {
		atom, err := p.buildPreconditionAtom(atomDecl, params, objects)
		if err != nil {
			return err
		}
		preconditions[i] = atom
	}

	// Connect node variables with same-named action parameters so their
	// domains alias across binding steps.
	for _, node := range []*dtg.Node{from, to} {
		for name, nodeTerm := range nodeVars[node] {
			if param, ok := params[name]; ok {
				p.Bindings.Unify(nodeTerm, node.Step(), param, step)
			}
		}
	}

	dependent := make([]*sas.Domain, len(decl.ExternalDependent))
	for i, name := range decl.ExternalDependent {
		param, ok := params[name]
		if !ok {
			return fmt.Errorf("%w: external-dependent %s", ErrUnknownVariable, name)
		}
		dependent[i] = p.Bindings.Domain(param, step)
	}

	action := dtg.NewAction(decl.Name, variables...)
	dtg.NewTransition(from, to, action, step, preconditions, dependent)
	return nil
}

// buildPreconditionAtom resolves a precondition against the transition's
// declared parameters; undeclared variables are an error rather than an
// implicit declaration.
func (p *Problem) buildPreconditionAtom(decl AtomDecl, params map[string]*sas.Term, objects map[string]*sas.Object) (*sas.Atom, error) {
	predicate, ok := p.Predicates[decl.Predicate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, decl.Predicate)
	}
	terms := make([]*sas.Term, len(decl.Terms))
	for i, name := range decl.Terms {
		if isVariable(name) {
			term, ok := params[name]
			if !ok {
				return nil, fmt.Errorf("%w: %s in precondition %s", ErrUnknownVariable, name, decl.Predicate)
			}
			terms[i] = term
			continue
		}
		obj, ok := objects[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", sas.ErrUnknownObject, name)
		}
		terms[i] = sas.NewConstant(obj)
	}
	atom, err := sas.NewAtom(predicate, terms...)
	if err != nil {
		return nil, err
	}
	if decl.Negated {
		atom = atom.Negate()
	}
	return atom, nil
}

// buildInitialFact resolves a ground initial-state atom at its own fresh
// binding step.
func (p *Problem) buildInitialFact(decl AtomDecl, objects map[string]*sas.Object) (*sas.BoundedAtom, error) {
	predicate, ok := p.Predicates[decl.Predicate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, decl.Predicate)
	}
	terms := make([]*sas.Term, len(decl.Terms))
	for i, name := range decl.Terms {
		if isVariable(name) {
			return nil, fmt.Errorf("%w: %s in %s", ErrGroundRequired, name, decl.Predicate)
		}
		obj, ok := objects[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", sas.ErrUnknownObject, name)
		}
		terms[i] = sas.NewConstant(obj)
	}
	atom, err := sas.NewAtom(predicate, terms...)
	if err != nil {
		return nil, err
	}
	return sas.NewBoundedAtom(p.Bindings.NextStep(), atom), nil
}

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
	"fmt"

	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// Graph is a domain transition graph.
//
// # Thread Safety
//
// Graph is not safe for concurrent use during assembly. After Freeze() it
// is read-only and may be read from multiple goroutines, though the engine
// that consumes it is strictly sequential.
type Graph struct {
	nodes  []*Node
	byName map[string]*Node
	frozen bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{byName: make(map[string]*Node)}
}

// AddNode registers a node with the graph.
func (g *Graph) AddNode(n *Node) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if _, ok := g.byName[n.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.Name())
	}
	g.nodes = append(g.nodes, n)
	g.byName[n.Name()] = n
	return nil
}

// Freeze finalizes the graph. Further AddNode calls fail with
// ErrGraphFrozen.
func (g *Graph) Freeze() { g.frozen = true }

// Nodes returns the graph's nodes in insertion order.
func (g *Graph) Nodes() []*Node { return g.nodes }

// Node returns the named node, or an error if it was never added.
func (g *Graph) Node(name string) (*Node, error) {
	n, ok := g.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, name)
	}
	return n, nil
}

// MaxArity returns the largest atom arity across all nodes.
func (g *Graph) MaxArity() int {
	max := 0
	for _, n := range g.nodes {
		if a := n.MaxArity(); a > max {
			max = a
		}
	}
	return max
}

// NodesMatching returns every node that is structurally compatible with
// the given bounded atoms: equal atom count and a positional CanUnify at
// every index. The external-dependency pass uses this to find the nodes
// identical to a transition's from-node except at dependent positions.
func (g *Graph) NodesMatching(bindings sas.Bindings, atoms []*sas.BoundedAtom) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if len(n.atoms) != len(atoms) {
			continue
		}
		match := true
		for i, want := range atoms {
			got := n.atoms[i]
			if !bindings.CanUnify(got.Atom(), got.ID(), want.Atom(), want.ID()) {
				match = false
				break
			}
		}
		if match {
			out = append(out, n)
		}
	}
	return out
}

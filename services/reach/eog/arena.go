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

	"github.com/AleutianAI/AleutianPlan/services/reach/pools"
	"github.com/AleutianAI/AleutianPlan/services/reach/sas"
)

// Arena owns the storage for reachable facts and their term-group arrays:
// a slab pool of fact slots plus one array pool per arity up to the
// domain's maximum. Groups reference facts and facts reference groups;
// neither side owns the other — the arena (held by the manager) owns both.
type Arena struct {
	facts      *pools.Pool[ReachableFact]
	termArrays []*termArrayPool
	slabSize   int
	maxArity   int
}

// termArrayPool hands out fixed-arity group arrays carved from larger
// backing slabs, mirroring the fact pool's slab discipline.
type termArrayPool struct {
	arity    int
	slabSize int
	free     [][]*EquivalentObjectGroup
}

func (p *termArrayPool) get() []*EquivalentObjectGroup {
	if len(p.free) == 0 {
		backing := make([]*EquivalentObjectGroup, p.slabSize*p.arity)
		for i := 0; i < p.slabSize; i++ {
			p.free = append(p.free, backing[i*p.arity:(i+1)*p.arity:(i+1)*p.arity])
		}
	}
	arr := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return arr
}

// NewArena creates an arena with array pools for every arity up to the
// given maximum. Larger arities (a predicate the graph never mentions)
// grow the pool family on demand.
func NewArena(slabSize, maxArity int) *Arena {
	if slabSize <= 0 {
		slabSize = pools.DefaultSlabSize
	}
	a := &Arena{
		facts:    pools.New[ReachableFact]("reachable_facts", slabSize),
		slabSize: slabSize,
		maxArity: maxArity,
	}
	a.termArrays = make([]*termArrayPool, maxArity+1)
	for arity := 1; arity <= maxArity; arity++ {
		a.termArrays[arity] = &termArrayPool{arity: arity, slabSize: slabSize}
	}
	return a
}

func (a *Arena) arrayPool(arity int) *termArrayPool {
	for len(a.termArrays) <= arity {
		a.termArrays = append(a.termArrays,
			&termArrayPool{arity: len(a.termArrays), slabSize: a.slabSize})
	}
	return a.termArrays[arity]
}

// NewFact allocates a reachable fact over the given term groups. The group
// count must match the atom's arity.
func (a *Arena) NewFact(atom *sas.Atom, invariableIndex int, groups []*EquivalentObjectGroup) (*ReachableFact, error) {
	if len(groups) != atom.Arity() {
		return nil, fmt.Errorf("%w: atom %s has arity %d, got %d term groups",
			ErrArityMismatch, atom.Predicate().Name(), atom.Arity(), len(groups))
	}
	f, err := a.facts.Get()
	if err != nil {
		return nil, err
	}
	var terms []*EquivalentObjectGroup
	if atom.Arity() > 0 {
		terms = a.arrayPool(atom.Arity()).get()
		copy(terms, groups)
	}
	f.atom = atom
	f.terms = terms
	f.invariableIndex = invariableIndex
	f.replacedBy = nil
	return f, nil
}

// Close drains the arena. Closing an arena twice is a usage error; the
// second Close fails with pools.ErrPoolClosed.
func (a *Arena) Close() error {
	a.termArrays = nil
	return a.facts.Close()
}

// FactsInUse returns the number of live fact slots, for diagnostics.
func (a *Arena) FactsInUse() int { return a.facts.InUse() }

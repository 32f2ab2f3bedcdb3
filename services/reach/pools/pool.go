// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pools provides the slab allocators backing the reachability
// engine's arenas: fixed-size slabs, a free list of slots, grow-on-empty,
// and an explicit teardown drain.
//
// Pools are engine-scoped values, not process-wide singletons. Allocating
// from a closed pool is a usage error surfaced as ErrPoolClosed.
//
// # Thread Safety
//
// Pools are not safe for concurrent use; the engine is strictly
// sequential.
package pools

import "fmt"

// DefaultSlabSize is the number of slots allocated per slab.
const DefaultSlabSize = 100000

// Pool is a slab allocator for values of type T. Slots are recycled
// through a free list; slabs are only released by Close.
type Pool[T any] struct {
	name     string
	slabSize int
	slabs    [][]T
	free     []*T
	inUse    int
	closed   bool
}

// New creates a pool with the given slab size. A non-positive slab size
// falls back to DefaultSlabSize. The name labels the pool's metrics.
func New[T any](name string, slabSize int) *Pool[T] {
	if slabSize <= 0 {
		slabSize = DefaultSlabSize
	}
	return &Pool[T]{name: name, slabSize: slabSize}
}

// Get returns a zeroed slot, growing the pool by one slab when the free
// list is empty.
func (p *Pool[T]) Get() (*T, error) {
	if p.closed {
		return nil, fmt.Errorf("%w: %s", ErrPoolClosed, p.name)
	}
	if len(p.free) == 0 {
		p.grow()
	}
	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	var zero T
	*slot = zero
	p.inUse++
	slotsInUse.WithLabelValues(p.name).Set(float64(p.inUse))
	return slot, nil
}

// Put returns a slot to the free list. The engine never calls Put: no
// reachable fact is freed mid-run, and Close drains the pool at teardown.
func (p *Pool[T]) Put(slot *T) {
	if p.closed || slot == nil {
		return
	}
	p.free = append(p.free, slot)
	p.inUse--
	slotsInUse.WithLabelValues(p.name).Set(float64(p.inUse))
}

func (p *Pool[T]) grow() {
	slab := make([]T, p.slabSize)
	p.slabs = append(p.slabs, slab)
	for i := p.slabSize - 1; i >= 0; i-- {
		p.free = append(p.free, &slab[i])
	}
	slabsTotal.WithLabelValues(p.name).Set(float64(len(p.slabs)))
}

// Close drains the pool. All outstanding slots become invalid; further Get
// calls fail with ErrPoolClosed. Closing twice is an error.
func (p *Pool[T]) Close() error {
	if p.closed {
		return fmt.Errorf("%w: %s", ErrPoolClosed, p.name)
	}
	p.closed = true
	p.slabs = nil
	p.free = nil
	p.inUse = 0
	slotsInUse.WithLabelValues(p.name).Set(0)
	slabsTotal.WithLabelValues(p.name).Set(0)
	return nil
}

// Closed reports whether the pool has been drained.
func (p *Pool[T]) Closed() bool { return p.closed }

// Slabs returns the number of slabs currently held.
func (p *Pool[T]) Slabs() int { return len(p.slabs) }

// InUse returns the number of slots handed out and not yet returned.
func (p *Pool[T]) InUse() int { return p.inUse }

// Capacity returns the total number of slots across all slabs.
func (p *Pool[T]) Capacity() int { return len(p.slabs) * p.slabSize }

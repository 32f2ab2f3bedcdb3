// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package pools

import (
	"errors"
	"testing"
)

type payload struct {
	value int
	next  *payload
}

func TestPoolGrowsOnDemand(t *testing.T) {
	p := New[payload]("test_grow", 2)
	if p.Slabs() != 0 {
		t.Fatal("no slab should be allocated before first Get")
	}

	var slots []*payload
	for i := 0; i < 5; i++ {
		slot, err := p.Get()
		if err != nil {
			t.Fatal(err)
		}
		slot.value = i
		slots = append(slots, slot)
	}

	if p.Slabs() != 3 {
		t.Fatalf("5 slots over slab size 2 need 3 slabs, got %d", p.Slabs())
	}
	if p.InUse() != 5 {
		t.Fatalf("expected 5 slots in use, got %d", p.InUse())
	}
	if p.Capacity() != 6 {
		t.Fatalf("expected capacity 6, got %d", p.Capacity())
	}
	for i, slot := range slots {
		if slot.value != i {
			t.Fatalf("slot %d corrupted: %d", i, slot.value)
		}
	}
}

func TestPoolReusesFreedSlots(t *testing.T) {
	p := New[payload]("test_reuse", 4)
	slot, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	slot.value = 42
	slot.next = slot

	p.Put(slot)
	again, err := p.Get()
	if err != nil {
		t.Fatal(err)
	}
	if again != slot {
		t.Fatal("freed slot should be handed out again")
	}
	if again.value != 0 || again.next != nil {
		t.Fatal("recycled slot must be zeroed")
	}
	if p.Slabs() != 1 {
		t.Fatalf("reuse must not grow the pool, got %d slabs", p.Slabs())
	}
}

func TestPoolDefaultSlabSize(t *testing.T) {
	p := New[payload]("test_default", 0)
	if _, err := p.Get(); err != nil {
		t.Fatal(err)
	}
	if p.Capacity() != DefaultSlabSize {
		t.Fatalf("expected default slab size %d, got %d", DefaultSlabSize, p.Capacity())
	}
}

func TestPoolClose(t *testing.T) {
	p := New[payload]("test_close", 4)
	if _, err := p.Get(); err != nil {
		t.Fatal(err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if !p.Closed() {
		t.Fatal("pool should report closed")
	}
	if _, err := p.Get(); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("Get after Close must fail with ErrPoolClosed, got %v", err)
	}
	if err := p.Close(); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("double Close must fail with ErrPoolClosed, got %v", err)
	}
	if p.Slabs() != 0 || p.InUse() != 0 {
		t.Fatal("Close must drain all slabs")
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package heap

import (
	"testing"

	"github.com/klover-go/klover/memory"
	"github.com/klover-go/klover/types"
)

func newTestHeap(t *testing.T) *ManagedHeap {
	t.Helper()
	h, err := NewManagedHeap(4 * memory.PageSize)
	if err != nil {
		t.Fatalf("NewManagedHeap: %v", err)
	}
	return h
}

func TestMemAllocationBumpsSequentially(t *testing.T) {
	h := newTestHeap(t)

	b1, off1, err := h.MemAllocation(types.WordSize(2), false)
	if err != nil {
		t.Fatalf("first allocation failed: %v", err)
	}
	if len(b1) != 2*types.Word {
		t.Errorf("expected a 2-word block, got %d bytes", len(b1))
	}

	b2, off2, err := h.MemAllocation(types.WordSize(1), false)
	if err != nil {
		t.Fatalf("second allocation failed: %v", err)
	}
	if len(b2) != types.Word {
		t.Errorf("expected a 1-word block, got %d bytes", len(b2))
	}
	if off2 != off1+2*types.Word {
		t.Errorf("second allocation at offset %d, want %d (right after the first)", off2, off1+2*types.Word)
	}
}

func TestMemAllocationZeroesWhenAsked(t *testing.T) {
	h := newTestHeap(t)

	block, _, err := h.MemAllocation(types.WordSize(1), false)
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	for i := range block {
		block[i] = 0xFF
	}

	zeroed, _, err := h.MemAllocation(types.WordSize(1), true)
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	for i, b := range zeroed {
		if b != 0 {
			t.Fatalf("expected a zeroed block, byte %d was %#x", i, b)
		}
	}
}

func TestMemAllocationExhaustionSurfacesAsOutOfMemory(t *testing.T) {
	h, err := NewManagedHeap(memory.PageSize)
	if err != nil {
		t.Fatalf("NewManagedHeap: %v", err)
	}

	words := types.WordSize(memory.PageSize / types.Word)
	if _, _, err := h.MemAllocation(words, false); err != nil {
		t.Fatalf("expected the heap's entire committed region to satisfy one allocation: %v", err)
	}

	_, _, err = h.MemAllocation(types.WordSize(1), false)
	if err == nil {
		t.Fatal("expected the next allocation to exhaust the heap")
	}
	if !ErrExhausted(err) {
		t.Errorf("expected ErrExhausted(err) to be true, got err=%v", err)
	}
}

func TestDescriptionIsDoNothingGC(t *testing.T) {
	h := newTestHeap(t)
	if h.Description() != "Do-nothing GC" {
		t.Errorf("expected %q, got %q", "Do-nothing GC", h.Description())
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package heap implements C5: the managed object heap every "new" and
// "newarray" allocation stamps its header into. Grounded on
// original_source/src/gc/managed_heap.rs's ManagedHeap -- one VirtSpace
// plus one Bumper over the committed part, with a single
// mem_allocation(word_size, zero) entry point. This VM runs no
// collector (the original's own doc comment calls it a "Do-nothing
// GC"), so the heap only ever grows; there is no free.
package heap

import (
	"errors"
	"fmt"

	"github.com/klover-go/klover/memory"
	"github.com/klover-go/klover/oop"
	"github.com/klover-go/klover/types"
)

// errExhausted is returned by MemAllocation when the bump pointer runs
// past the heap's reservation. The object package's header stamping
// ignores it, and no caller turns it into an OutOfMemoryError.
var errExhausted = errors.New("heap: managed heap exhausted")

// ManagedHeap owns the single reserved VirtualSpace objects are
// allocated from, the bump allocator over its committed prefix, and
// the narrow-OOP encoder relative to the space's base (the codec
// compressed heap references decode against; narrow klass pointers are
// encoded relative to metaspace instead).
type ManagedHeap struct {
	virt    *memory.VirtualSpace
	bumper  *memory.Bumper
	encoder oop.Encoder
}

// NewManagedHeap reserves a heap region of size bytes and commits it in
// full up front, mirroring managed_heap.rs's `new`: `VirtSpace::new`
// followed immediately by `expand_by(word_size)` rather than the
// lazy, grow-on-demand commit metaspace uses -- the heap's size is the
// VM's `-Xmx`, fixed for the life of the process.
func NewManagedHeap(size int64) (*ManagedHeap, error) {
	virt, err := memory.NewVirtualSpace(size, false)
	if err != nil {
		return nil, fmt.Errorf("heap: reserve failed: %w", err)
	}
	if err := virt.ExpandBy(size); err != nil {
		return nil, fmt.Errorf("heap: commit failed: %w", err)
	}
	return &ManagedHeap{
		virt:    virt,
		bumper:  memory.NewBumper(virt),
		encoder: oop.NewEncoder(virt.Base()),
	}, nil
}

// Description matches managed_heap.rs's ManagedHeap::description: this
// collector never reclaims, it only bumps.
func (h *ManagedHeap) Description() string { return "Do-nothing GC" }

// Encoder returns the narrow-OOP encoder for this heap.
func (h *ManagedHeap) Encoder() oop.Encoder { return h.encoder }

// Base returns the address of the first reserved byte.
func (h *ManagedHeap) Base() uintptr { return h.virt.Base() }

// MemAllocation is managed_heap.rs's mem_allocation: bump-allocate
// wordSize words from the heap and, if zero is set, memset the block
// before handing it back. Returns the block as a byte slice backed
// directly by the reservation (so a caller stamping a mark-word into
// it writes straight into the heap) and its byte offset from Base().
func (h *ManagedHeap) MemAllocation(wordSize types.WordSize, zero bool) ([]byte, int64, error) {
	size := int64(wordSize.ToBytes())
	off := h.bumper.ParAlloc(size)
	if off < 0 {
		return nil, 0, errExhausted
	}
	block := h.virt.Bytes()[off : off+size]
	if zero {
		for i := range block {
			block[i] = 0
		}
	}
	return block, off, nil
}

// ErrExhausted reports whether err is the out-of-memory condition
// MemAllocation returns when the heap's reservation is used up.
func ErrExhausted(err error) bool {
	return errors.Is(err, errExhausted)
}

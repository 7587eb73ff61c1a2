/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package memory

import (
	"sync/atomic"
)

// Bumper owns a VirtualSpace and hands out sequential allocations from
// a monotonically advancing "top" pointer (an offset from the
// VirtualSpace's base, not a raw pointer, so it survives the space
// being grown). Grounded on original_source/src/gc/mem_allocator.rs's
// MemAllocator, which computes a word size and defers the actual bump
// to "allocate" -- here fully implemented rather than left
// unimplemented!().
type Bumper struct {
	space *VirtualSpace
	top   int64 // atomic: next free byte offset from space.Base()
}

// NewBumper creates a Bumper over the whole (currently committed)
// region of space.
func NewBumper(space *VirtualSpace) *Bumper {
	return &Bumper{space: space}
}

// Alloc performs a single-threaded bump allocation of size bytes,
// returning the byte offset from the space's base, or -1 if the
// region is exhausted. Callers that can guarantee no concurrent
// allocator should prefer this over ParAlloc: it avoids the CAS retry
// loop entirely.
func (b *Bumper) Alloc(size int64) int64 {
	cur := b.top
	next := cur + size
	if next > b.space.Committed() {
		return -1
	}
	b.top = next
	return cur
}

// ParAlloc is Alloc's lock-free counterpart: any number of goroutines
// may call it concurrently. It retries the compare-and-swap until it
// either wins a slice of the region or observes exhaustion.
func (b *Bumper) ParAlloc(size int64) int64 {
	for {
		cur := atomic.LoadInt64(&b.top)
		next := cur + size
		if next > b.space.Committed() {
			return -1
		}
		if atomic.CompareAndSwapInt64(&b.top, cur, next) {
			return cur
		}
	}
}

// Clear resets the bump pointer to the start of the region. Only safe
// when the caller holds exclusive access (e.g. after a full GC, not
// modeled by this spec, or in tests).
func (b *Bumper) Clear() {
	atomic.StoreInt64(&b.top, 0)
}

// Top returns the current bump offset, mostly for tests and metrics.
func (b *Bumper) Top() int64 {
	return atomic.LoadInt64(&b.top)
}

// ExpandBy grows the underlying VirtualSpace by delta bytes so future
// allocations can use the new capacity.
func (b *Bumper) ExpandBy(delta int64) error {
	return b.space.ExpandBy(delta)
}

// Bytes returns the raw backing slice for the committed region, for
// callers (the managed heap's mem_allocation) that need to memset a
// freshly bumped block.
func (b *Bumper) Bytes() []byte {
	return b.space.Bytes()
}

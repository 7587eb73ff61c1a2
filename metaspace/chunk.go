/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package metaspace

import (
	"sync/atomic"
	"unsafe"

	"github.com/klover-go/klover/collections"
)

// Chunk is one chunk-sized slab handed out to a class-loader's current
// allocation slot. Its StackNode is embedded as the first field so it
// can live in the free-list Stack (collections.Stack requires this).
// Small, same-loader class-metadata allocations are bump-allocated
// lock-free out of a Chunk's own top offset; when a Chunk fills, a
// fresh one is requested from the MSActor.
type Chunk struct {
	collections.StackNode

	base uintptr
	size int64
	top  int64 // atomic bump offset within [0, size)
}

// Base returns the chunk's base address.
func (c *Chunk) Base() uintptr { return c.base }

// Size returns the chunk's total size in bytes.
func (c *Chunk) Size() int64 { return c.size }

// bumpAlloc attempts a lock-free bump allocation of n bytes within this
// chunk, returning the address or 0 if the chunk doesn't have room.
func (c *Chunk) bumpAlloc(n int64) uintptr {
	for {
		cur := atomic.LoadInt64(&c.top)
		next := cur + n
		if next > c.size {
			return 0
		}
		if atomic.CompareAndSwapInt64(&c.top, cur, next) {
			return c.base + uintptr(cur)
		}
	}
}

// reset clears a chunk's bump pointer so it can be reused verbatim
// (same base address) once every allocation carved from it has been
// released -- this is what the "metaspace chunk reuse" scenario in §8
// checks: free all of a chunk's allocations, allocate again, and
// observe the same base address come back.
func (c *Chunk) reset() {
	atomic.StoreInt64(&c.top, 0)
}

func chunkNodeOf(c *Chunk) *collections.StackNode { return &c.StackNode }

// ChunkSlot is the publication point for "the loader's current chunk"
// (§4.6): TryAndAllocateSmallChunk first attempts a lock-free bump in
// whatever chunk is currently published here; only on failure does it
// go through the actor, which then republishes a fresh chunk with a
// release-store so a concurrent acquire-load on another mutator thread
// observes a fully initialized Chunk.
type ChunkSlot struct {
	ptr unsafe.Pointer // *Chunk
}

// Load acquire-loads the currently published chunk, or nil if none has
// been assigned yet.
func (s *ChunkSlot) Load() *Chunk {
	return (*Chunk)(atomic.LoadPointer(&s.ptr))
}

// Publish release-stores a newly allocated chunk into the slot.
func (s *ChunkSlot) Publish(c *Chunk) {
	atomic.StorePointer(&s.ptr, unsafe.Pointer(c))
}

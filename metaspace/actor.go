/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package metaspace

import (
	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/collections"
	"github.com/klover-go/klover/types"
)

// Message types for the MS actor (§4.6): AllocateSizedChunk handles a
// large (multi-chunk) allocation that always takes a fresh region;
// TryAndAllocateSmallChunk handles the common case of a loader's next
// small class landing in its current chunk, falling back to handing
// out a new chunk when that one is full; FreeChunk returns a chunk to
// the free list for reuse.
type AllocateSizedChunk struct {
	Size int64
}

type TryAndAllocateSmallChunk struct {
	Slot *ChunkSlot
	Size int64
}

type FreeChunk struct {
	Chunk *Chunk
}

// Actor owns the metaspace's chunk free-list and the underlying Space,
// exactly the single-writer resources §4.10 says must be routed
// through an actor rather than protected with fine-grained locks.
type Actor struct {
	space    *Space
	freeList *collections.Stack[Chunk]
	mailbox  actor.Mailbox
}

// NewActor starts the metaspace actor goroutine over space and returns
// the mailbox other goroutines send requests to.
func NewActor(space *Space) (actor.Mailbox, *Actor) {
	a := &Actor{
		space:    space,
		freeList: collections.NewStack[Chunk](chunkNodeOf),
		mailbox:  actor.NewMailbox(),
	}
	go a.run()
	return a.mailbox, a
}

func (a *Actor) run() {
	for env := range a.mailbox {
		switch msg := env.Msg.(type) {
		case AllocateSizedChunk:
			c, err := a.allocateSizedChunk(msg.Size)
			if err != nil {
				env.Reply <- err
			} else {
				env.Reply <- c
			}

		case TryAndAllocateSmallChunk:
			c, err := a.tryAndAllocateSmallChunk(msg.Slot, msg.Size)
			if err != nil {
				env.Reply <- err
			} else {
				env.Reply <- c
			}

		case FreeChunk:
			msg.Chunk.reset()
			a.freeList.Push(msg.Chunk)
			env.Reply <- true

		case actor.Shutdown:
			env.Reply <- true
			close(a.mailbox)
			return
		}
	}
}

// allocateSizedChunk always takes a fresh region, rounded up to a
// multiple of DefaultChunkSize (§4.6: "Larger allocations round up to
// a multiple of the chunk size and always take a fresh region").
func (a *Actor) allocateSizedChunk(size int64) (*Chunk, error) {
	aligned := AlignedChunkSize(types.ByteSize(size))
	base, err := a.space.reserveRaw(aligned)
	if err != nil {
		return nil, err
	}
	return &Chunk{base: base, size: aligned}, nil
}

// tryAndAllocateSmallChunk is reached only after the caller's
// lock-free bump attempt in its currently published chunk has already
// failed (or no chunk was published yet). It first checks the
// free-list for a reusable chunk (this is what makes the "metaspace
// chunk reuse" scenario in §8 observe the same base address), and only
// reserves a fresh region if the free-list is empty.
func (a *Actor) tryAndAllocateSmallChunk(slot *ChunkSlot, size int64) (*Chunk, error) {
	if size > DefaultChunkSize {
		c, err := a.allocateSizedChunk(size)
		if err != nil {
			return nil, err
		}
		slot.Publish(c)
		return c, nil
	}

	if reused := a.freeList.Pop(); reused != nil {
		slot.Publish(reused)
		return reused, nil
	}

	base, err := a.space.reserveRaw(DefaultChunkSize)
	if err != nil {
		return nil, err
	}
	c := &Chunk{base: base, size: DefaultChunkSize}
	slot.Publish(c)
	return c, nil
}

// TryAndAllocateSmallChunk is the client-side entry point: attempt a
// lock-free bump in the loader's published chunk first, and only visit
// the actor (which may hand out a fresh or reused chunk) on failure.
func TryAndAllocateSmallChunk(mailbox actor.Mailbox, slot *ChunkSlot, size int64) (uintptr, error) {
	if cur := slot.Load(); cur != nil {
		if addr := cur.bumpAlloc(size); addr != 0 {
			return addr, nil
		}
	}
	reply, err := mailbox.SendSafe(TryAndAllocateSmallChunk{Slot: slot, Size: size})
	if err != nil {
		return 0, err
	}
	switch v := reply.(type) {
	case error:
		return 0, v
	case *Chunk:
		if addr := v.bumpAlloc(size); addr != 0 {
			return addr, nil
		}
		return 0, errMetaspaceExhausted
	}
	return 0, errMetaspaceExhausted
}

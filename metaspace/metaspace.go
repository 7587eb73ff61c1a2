/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package metaspace implements C6: a chunk allocator over a reserved
// virtual-space region, sized at most 32 GiB so any address within it
// fits the 32-bit narrow-pointer encoding (§3). Class metadata (Klass,
// symbols, the runtime constant pool) is allocated from here, not from
// the managed heap.
//
// Grounded on §4.6 and on the MSActor message set in original_source's
// implied design (class_data/klass_table.rs holds the Klass table this
// package backs); there is no teacher source for metaspace since
// jacobin's own metadata is simply Go-heap-allocated.
package metaspace

import (
	"github.com/klover-go/klover/memory"
	"github.com/klover-go/klover/oop"
	"github.com/klover-go/klover/types"
)

// DefaultChunkSize is the default chunk granularity metaspace commits
// in, per §4.6.
const DefaultChunkSize int64 = 8 * 1024

// MaxBytes is the spec's §3 ceiling: at most 32 GiB so any metaspace
// address encodes into a 32-bit narrow pointer.
const MaxBytes = oop.MaxRegionBytes

// Space owns the reserved metaspace region, its bump allocator for
// carving out fresh chunks, and the narrow-pointer encoder relative to
// its base (the one the spec says Universe carries).
type Space struct {
	virt    *memory.VirtualSpace
	bumper  *memory.Bumper
	encoder oop.Encoder
}

// NewSpace reserves a metaspace region of the given size (clamped to
// MaxBytes) and commits an initial slab so early chunk allocations
// don't need to round-trip ExpandBy.
func NewSpace(size int64) (*Space, error) {
	if size > MaxBytes {
		size = MaxBytes
	}
	virt, err := memory.NewVirtualSpace(size, false)
	if err != nil {
		return nil, err
	}
	// Commit an initial slab; later growth happens lazily as chunks
	// are carved out and the bumper runs past the committed prefix.
	initial := DefaultChunkSize * 64
	if initial > size {
		initial = size
	}
	if err := virt.ExpandBy(initial); err != nil {
		return nil, err
	}
	return &Space{
		virt:    virt,
		bumper:  memory.NewBumper(virt),
		encoder: oop.NewEncoder(virt.Base()),
	}, nil
}

// Encoder returns the narrow-klass encoder for this space.
func (s *Space) Encoder() oop.Encoder { return s.encoder }

// reserveRaw bump-allocates rawSize bytes from the underlying region,
// growing the committed prefix on demand. Returns the base address of
// the new block.
func (s *Space) reserveRaw(rawSize int64) (uintptr, error) {
	off := s.bumper.ParAlloc(rawSize)
	if off < 0 {
		// Try to commit more of the reservation and retry once.
		growBy := rawSize
		if growBy < DefaultChunkSize*64 {
			growBy = DefaultChunkSize * 64
		}
		if err := s.bumper.ExpandBy(growBy); err != nil {
			return 0, err
		}
		off = s.bumper.ParAlloc(rawSize)
		if off < 0 {
			return 0, errMetaspaceExhausted
		}
	}
	return s.virt.Base() + uintptr(off), nil
}

var errMetaspaceExhausted = metaspaceExhausted{}

type metaspaceExhausted struct{}

func (metaspaceExhausted) Error() string { return "metaspace: region exhausted" }

// AlignedChunkSize rounds a requested chunk size up to a multiple of
// DefaultChunkSize, as §4.6 requires for "larger allocations."
func AlignedChunkSize(requested types.ByteSize) int64 {
	return types.AlignUp(int64(requested), DefaultChunkSize)
}

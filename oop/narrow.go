/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package oop

import "math/bits"

// NarrowKlass is a 32-bit encoding of a metaspace pointer (the spec
// only needs 26 of those bits in the mark-word, but the free-standing
// encoder that klass/metaspace use to build one is 32 bits wide, per
// §3's "Metaspace narrow-pointer" definition).
type NarrowKlass uint32

// NarrowOOP is a 32-bit encoding of a managed-heap pointer, used when
// UseCompressedOops is enabled.
type NarrowOOP uint32

// Null is the universal "no object" / "no klass" encoding: 0, for both
// narrow-pointer kinds.
const Null = 0

// Log2Word is log2(8) = 3: metaspace/heap addresses are always
// word-aligned, so the encoder can safely shift the offset down by 3
// bits before truncating to 32 bits, extending the addressable range
// 8x over a byte-granular encoding.
const Log2Word = 3

func init() {
	if 1<<Log2Word != 8 {
		panic("oop: Log2Word must track types.Word")
	}
	_ = bits.Len // silence unused import if Log2Word changes later
}

// Encoder converts between a full address and its narrow encoding
// within a single base-relative region of at most 32 GiB (2^35 bytes,
// i.e. 2^32 word-granular slots), per §3. One Encoder exists per
// region (one for metaspace, one for the managed heap when compressed
// OOPs are enabled).
type Encoder struct {
	base uintptr
}

// NewEncoder builds an Encoder for a region starting at base.
func NewEncoder(base uintptr) Encoder {
	return Encoder{base: base}
}

// Encode converts a full address into its narrow form. addr == 0 (a Go
// nil) always encodes to Null, regardless of base.
func (e Encoder) Encode(addr uintptr) uint32 {
	if addr == 0 {
		return Null
	}
	return uint32((addr-e.base)>>Log2Word) + 1
}

// Decode reverses Encode. Decoding Null always yields 0 (nil).
func (e Encoder) Decode(n uint32) uintptr {
	if n == Null {
		return 0
	}
	return e.base + uintptr(n-1)<<Log2Word
}

// MaxRegionBytes is the largest region a single Encoder can address:
// 2^32 distinct non-null word-granular slots.
const MaxRegionBytes = int64(1) << 35

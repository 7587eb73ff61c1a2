/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package oop holds the object-model primitives (C8) that sit below the
// teacher's `object` package: the atomic mark-word, narrow-OOP and
// narrow-klass codecs, and object/array header sizing. Grounded on
// original_source/src/oops/obj_desc.rs and oops/oop_hierarchy.rs; the
// bit layout itself is taken verbatim from spec.md §3, which is the
// resolution of an open question between two conflicting sketches in
// the original.
package oop

import "sync/atomic"

// LockState is the two-bit lock field of the mark-word.
type LockState uint64

const (
	LockLightLocked LockState = 0b00
	LockUnlocked    LockState = 0b01
	LockHeavyMonitor LockState = 0b10
	LockGCMarked    LockState = 0b11
)

// Bit layout, LSB first, per spec §3:
//
//	lock            2 bits  [0:2)
//	self-forwarded  1 bit   [2:3)
//	age             4 bits  [3:7)
//	hash            31 bits [7:38)
//	narrow klass    26 bits [38:64)
const (
	lockShift  = 0
	lockBits   = 2
	lockMask   = (uint64(1) << lockBits) - 1

	selfFwdShift = lockShift + lockBits
	selfFwdBits  = 1
	selfFwdMask  = (uint64(1) << selfFwdBits) - 1

	ageShift = selfFwdShift + selfFwdBits
	ageBits  = 4
	ageMask  = (uint64(1) << ageBits) - 1

	hashShift = ageShift + ageBits
	hashBits  = 31
	hashMask  = (uint64(1) << hashBits) - 1

	klassShift = hashShift + hashBits
	klassBits  = 26
	klassMask  = (uint64(1) << klassBits) - 1
)

// MarkWord is the atomic header word every in-heap object starts with.
// All mutation goes through CAS: the spec requires that a stale
// expected value leaves memory untouched and that a successful CAS
// synchronizes-with any later SeqCst load of the same word.
type MarkWord struct {
	bits uint64
}

// NewPrototype builds the mark-word a freshly allocated object starts
// with: unlocked, age 0, hash absent (0), narrow klass encoding k.
func NewPrototype(k NarrowKlass) MarkWord {
	var m MarkWord
	m.bits = pack(LockUnlocked, false, 0, 0, k)
	return m
}

func pack(lock LockState, selfFwd bool, age uint8, hash uint32, k NarrowKlass) uint64 {
	var sf uint64
	if selfFwd {
		sf = 1
	}
	return (uint64(lock)&lockMask)<<lockShift |
		(sf&selfFwdMask)<<selfFwdShift |
		(uint64(age)&ageMask)<<ageShift |
		(uint64(hash)&hashMask)<<hashShift |
		(uint64(k)&klassMask)<<klassShift
}

// Load reads the current bits with SeqCst ordering.
func (m *MarkWord) Load() uint64 { return atomic.LoadUint64(&m.bits) }

// Lock returns the two-bit lock state.
func (m *MarkWord) Lock() LockState {
	return LockState((m.Load() >> lockShift) & lockMask)
}

// SelfForwarded reports whether the GC has installed a self-forwarding
// pointer in this word.
func (m *MarkWord) SelfForwarded() bool {
	return (m.Load()>>selfFwdShift)&selfFwdMask != 0
}

// Age returns the generational age (0-15).
func (m *MarkWord) Age() uint8 {
	return uint8((m.Load() >> ageShift) & ageMask)
}

// Hash returns the identity hash, or 0 if it has not yet been computed.
func (m *MarkWord) Hash() uint32 {
	return uint32((m.Load() >> hashShift) & hashMask)
}

// Klass returns the encoded narrow-klass pointer.
func (m *MarkWord) Klass() NarrowKlass {
	return NarrowKlass((m.Load() >> klassShift) & klassMask)
}

// WithLock, WithAge, WithHash, WithSelfForwarded, WithKlass return a new
// bit pattern (not yet installed) with only the named field replaced;
// callers compose these, then CompareAndSwap the result in. This
// mirrors the builder-style `MarkWord::new().with_age(a).with_hash(h)`
// round-trip property the spec's tests assert (§8).
func WithLock(bits uint64, lock LockState) uint64 {
	return (bits &^ (lockMask << lockShift)) | (uint64(lock)&lockMask)<<lockShift
}

func WithSelfForwarded(bits uint64, v bool) uint64 {
	var sf uint64
	if v {
		sf = 1
	}
	return (bits &^ (selfFwdMask << selfFwdShift)) | (sf&selfFwdMask)<<selfFwdShift
}

func WithAge(bits uint64, age uint8) uint64 {
	return (bits &^ (ageMask << ageShift)) | (uint64(age)&ageMask)<<ageShift
}

func WithHash(bits uint64, hash uint32) uint64 {
	return (bits &^ (hashMask << hashShift)) | (uint64(hash)&hashMask)<<hashShift
}

func WithKlass(bits uint64, k NarrowKlass) uint64 {
	return (bits &^ (klassMask << klassShift)) | (uint64(k)&klassMask)<<klassShift
}

// CompareAndSwap installs des iff the current bits equal exp, retrying
// is the caller's responsibility (most callers loop: load, compute a
// new pattern with the With* helpers, CAS, retry on failure). Returns
// whether the swap succeeded.
func (m *MarkWord) CompareAndSwap(exp, des uint64) bool {
	return atomic.CompareAndSwapUint64(&m.bits, exp, des)
}

// EnsureHash returns the identity hash, lazily computing and installing
// one via CAS if it is currently absent (0). seed is combined with a
// fixed multiplier so repeated calls for the same object (before the
// CAS lands) tend to agree, reducing retries.
func (m *MarkWord) EnsureHash(seed uint32) uint32 {
	for {
		cur := m.Load()
		h := uint32((cur >> hashShift) & hashMask)
		if h != 0 {
			return h
		}
		newHash := (seed*2654435761 + 1) & uint32(hashMask)
		if newHash == 0 {
			newHash = 1
		}
		des := WithHash(cur, newHash)
		if m.CompareAndSwap(cur, des) {
			return newHash
		}
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package oop

import "testing"

func TestMarkWordBitfieldRoundTrip(t *testing.T) {
	bits := pack(LockUnlocked, false, 0, 0, 0)
	bits = WithAge(bits, 9)
	bits = WithHash(bits, 123456)
	bits = WithLock(bits, LockHeavyMonitor)
	bits = WithKlass(bits, 0x3ABCDEF)

	var m MarkWord
	m.bits = bits

	if m.Age() != 9 {
		t.Errorf("Age() = %d, want 9", m.Age())
	}
	if m.Hash() != 123456 {
		t.Errorf("Hash() = %d, want 123456", m.Hash())
	}
	if m.Lock() != LockHeavyMonitor {
		t.Errorf("Lock() = %v, want LockHeavyMonitor", m.Lock())
	}
	if m.Klass() != 0x3ABCDEF {
		t.Errorf("Klass() = %x, want 0x3ABCDEF", m.Klass())
	}
}

func TestMarkWordCASFailsOnStaleExpected(t *testing.T) {
	m := MarkWord{bits: pack(LockUnlocked, false, 0, 0, 42)}
	stale := pack(LockLightLocked, false, 0, 0, 42) // deliberately wrong expected value
	before := m.Load()

	if m.CompareAndSwap(stale, pack(LockHeavyMonitor, false, 0, 0, 42)) {
		t.Fatal("CAS with stale expected value unexpectedly succeeded")
	}
	if m.Load() != before {
		t.Fatal("failed CAS mutated memory")
	}
}

func TestMarkWordPrototype(t *testing.T) {
	m := NewPrototype(7)
	if m.Lock() != LockUnlocked {
		t.Errorf("prototype lock = %v, want Unlocked", m.Lock())
	}
	if m.Age() != 0 || m.Hash() != 0 {
		t.Errorf("prototype age/hash not zero: age=%d hash=%d", m.Age(), m.Hash())
	}
	if m.Klass() != 7 {
		t.Errorf("prototype klass = %d, want 7", m.Klass())
	}
}

func TestEnsureHashIsLazyAndStable(t *testing.T) {
	m := NewPrototype(1)
	if m.Hash() != 0 {
		t.Fatal("fresh mark-word should have hash == 0 (absent)")
	}
	h1 := m.EnsureHash(0xdead)
	h2 := m.EnsureHash(0xbeef) // second call must not recompute
	if h1 != h2 {
		t.Errorf("hash changed across calls: %d != %d", h1, h2)
	}
	if h1 == 0 {
		t.Error("computed hash must never be 0 (0 means absent)")
	}
}

func TestNarrowEncoderRoundTrip(t *testing.T) {
	const base = 0x10000000
	enc := NewEncoder(base)

	addrs := []uintptr{base, base + 8, base + 4096, base + 1<<20}
	for _, a := range addrs {
		n := enc.Encode(a)
		got := enc.Decode(n)
		if got != a {
			t.Errorf("Decode(Encode(%x)) = %x, want %x", a, got, a)
		}
	}
}

func TestNarrowEncoderNullRoundTrip(t *testing.T) {
	enc := NewEncoder(0x10000000)
	if enc.Encode(0) != Null {
		t.Errorf("Encode(0) = %d, want Null", enc.Encode(0))
	}
	if enc.Decode(Null) != 0 {
		t.Errorf("Decode(Null) = %x, want 0", enc.Decode(Null))
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package access

import (
	"testing"
	"unsafe"
)

func TestLoadStoreInt32RoundTrip(t *testing.T) {
	var v int32
	addr := uintptr(unsafe.Pointer(&v))
	Store[int32](addr, 42, NotInHeap, SeqCst)
	if got := Load[int32](addr, SeqCst); got != 42 {
		t.Fatalf("got %d, want 42", got)
	}
}

func TestLoadStoreInt64RoundTrip(t *testing.T) {
	var v int64
	addr := uintptr(unsafe.Pointer(&v))
	Store[int64](addr, 1<<40, NotInHeap, Relaxed)
	if got := Load[int64](addr, Relaxed); got != 1<<40 {
		t.Fatalf("got %d, want %d", got, int64(1)<<40)
	}
}

func TestCmpXchgInt32(t *testing.T) {
	var v int32 = 10
	addr := uintptr(unsafe.Pointer(&v))
	prev, ok := CmpXchg[int32](addr, 10, 20)
	if !ok || prev != 20 {
		t.Fatalf("CmpXchg success case: prev=%d ok=%v", prev, ok)
	}
	prev, ok = CmpXchg[int32](addr, 10, 99)
	if ok {
		t.Fatalf("CmpXchg should fail on stale expected, got ok=%v prev=%d", ok, prev)
	}
	if v != 20 {
		t.Fatalf("value mutated on failed CmpXchg: %d", v)
	}
}

func TestXchgInt64(t *testing.T) {
	var v int64 = 5
	addr := uintptr(unsafe.Pointer(&v))
	old := Xchg[int64](addr, 7)
	if old != 5 || v != 7 {
		t.Fatalf("old=%d v=%d, want old=5 v=7", old, v)
	}
}

func TestOopStoreAtRunsBarrier(t *testing.T) {
	var preCalls, postCalls int
	SetBarrier(Barrier{
		PreStore:  func(slot *OOP, old, new OOP) { preCalls++ },
		PostStore: func(slot *OOP, new OOP) { postCalls++ },
	})
	defer SetBarrier(Barrier{})

	var slot OOP
	addr := uintptr(unsafe.Pointer(&slot))
	OopStoreAt(addr, OOP(0x1000), SeqCst)

	if preCalls != 1 || postCalls != 1 {
		t.Fatalf("preCalls=%d postCalls=%d, want 1/1", preCalls, postCalls)
	}
	if got := OopLoadAt(addr, SeqCst); got != 0x1000 {
		t.Fatalf("got %x, want 0x1000", got)
	}
}

func TestArrayCopyMovesBytes(t *testing.T) {
	src := [4]int32{1, 2, 3, 4}
	dst := [4]int32{}
	ArrayCopy(uintptr(unsafe.Pointer(&src[0])), uintptr(unsafe.Pointer(&dst[0])), 0, 0, 4, 4)
	if dst != src {
		t.Fatalf("got %v, want %v", dst, src)
	}
}

func TestOopArrayCopyHandlesOverlap(t *testing.T) {
	arr := [4]OOP{1, 2, 3, 4}
	addr := uintptr(unsafe.Pointer(&arr[0]))
	// Shift right by one within the same array (overlapping).
	OopArrayCopy(addr, addr, 0, 1, 3)
	want := [4]OOP{1, 1, 2, 3}
	if arr != want {
		t.Fatalf("got %v, want %v", arr, want)
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package access implements C12: a decorator-parameterized load/store
// API over raw memory, the single place GC barriers hook in. The
// interpreter's field, array and local-slot opcodes do not use it:
// they read and write object.Object's FieldTable, object.Array's
// Elements and frames.Frame's Locals directly as Go values.
package access

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// MemoryOrder mirrors the decorators §4.7 lists: MO_UNORDERED and
// MO_RELAXED both compile to a plain load/store on every platform Go
// targets (Go gives no weaker guarantee than acquire/release is free
// to provide), MO_ACQUIRE/MO_RELEASE/MO_SEQ_CST map onto sync/atomic.
type MemoryOrder int

const (
	Unordered MemoryOrder = iota
	Relaxed
	Acquire
	Release
	SeqCst
)

// Location is IN_HEAP vs NOT_IN_HEAP: IN_HEAP accesses may need a GC
// barrier (oop fields, array elements); NOT_IN_HEAP accesses (handles,
// metaspace, off-heap bookkeeping) never do.
type Location int

const (
	InHeap Location = iota
	NotInHeap
)

// OOP is a raw reference to a managed-heap object: the address a
// narrow OOP decodes to, or a direct pointer when compressed oops are
// off. Access never interprets the bits; it only moves them.
type OOP = uintptr

// Barrier hooks a collector can install to intercept every IN_HEAP oop
// store and array-of-oop copy. Both default to no-ops: this VM ships
// without a collector, but the interpreter and Access API are written
// against this seam so one can be wired in later without touching call
// sites, per §4.7's "pluggable GC barriers."
type Barrier struct {
	PreStore  func(slot *OOP, old, new OOP)
	PostStore func(slot *OOP, new OOP)
}

var (
	barrierMu sync.RWMutex
	barrier   Barrier
)

// SetBarrier installs b as the active barrier, replacing whatever was
// there (including the default no-op).
func SetBarrier(b Barrier) {
	barrierMu.Lock()
	barrier = b
	barrierMu.Unlock()
}

func currentBarrier() Barrier {
	barrierMu.RLock()
	defer barrierMu.RUnlock()
	return barrier
}

// widthFallback protects accesses whose type isn't one of the
// atomic-capable widths switched on below. It is coarse-grained on
// purpose: the interpreter's primitive opcodes all operate on widths
// sync/atomic covers directly, so this path is cold.
var widthFallback sync.Mutex

// Load reads a T at addr honoring order. T must be a fixed-width
// scalar (the JavaXxx aliases in package types, OOP/uintptr, or a Go
// numeric type) -- anything else falls back to a mutex-guarded plain
// read, which is correct but not lock-free.
func Load[T any](addr uintptr, order MemoryOrder) T {
	var zero T
	switch any(zero).(type) {
	case int32:
		v := loadInt32(addr, order)
		return any(v).(T)
	case uint32:
		v := uint32(loadInt32(addr, order))
		return any(v).(T)
	case int64:
		v := loadInt64(addr, order)
		return any(v).(T)
	case uint64:
		v := uint64(loadInt64(addr, order))
		return any(v).(T)
	case uintptr:
		v := uintptr(loadInt64(addr, order))
		return any(v).(T)
	default:
		widthFallback.Lock()
		defer widthFallback.Unlock()
		p := (*T)(unsafe.Pointer(addr))
		return *p
	}
}

// Store writes v of type T to addr honoring order. When loc is InHeap
// and T is OOP-shaped (uintptr), the installed Barrier's PreStore and
// PostStore are invoked around the write.
func Store[T any](addr uintptr, v T, loc Location, order MemoryOrder) {
	switch vv := any(v).(type) {
	case int32:
		storeInt32(addr, vv, order)
	case uint32:
		storeInt32(addr, int32(vv), order)
	case int64:
		storeInt64(addr, vv, order)
	case uint64:
		storeInt64(addr, int64(vv), order)
	case uintptr:
		if loc == InHeap {
			slot := (*OOP)(unsafe.Pointer(addr))
			old := OOP(loadInt64(addr, Relaxed))
			b := currentBarrier()
			if b.PreStore != nil {
				b.PreStore(slot, old, vv)
			}
			storeInt64(addr, int64(vv), order)
			if b.PostStore != nil {
				b.PostStore(slot, vv)
			}
			return
		}
		storeInt64(addr, int64(vv), order)
	default:
		widthFallback.Lock()
		defer widthFallback.Unlock()
		p := (*T)(unsafe.Pointer(addr))
		*p = v
	}
}

// CmpXchg performs a compare-and-swap of a 4- or 8-byte scalar at addr.
// T must be int32/uint32/int64/uint64/uintptr; any other width panics,
// matching the spec's note that cmp_xchg is only defined for those.
func CmpXchg[T any](addr uintptr, old, new T) (T, bool) {
	switch o := any(old).(type) {
	case int32:
		n := any(new).(int32)
		p := (*int32)(unsafe.Pointer(addr))
		swapped := atomic.CompareAndSwapInt32(p, o, n)
		return any(atomic.LoadInt32(p)).(T), swapped
	case uint32:
		n := any(new).(uint32)
		p := (*int32)(unsafe.Pointer(addr))
		swapped := atomic.CompareAndSwapInt32(p, int32(o), int32(n))
		return any(uint32(atomic.LoadInt32(p))).(T), swapped
	case int64:
		n := any(new).(int64)
		p := (*int64)(unsafe.Pointer(addr))
		swapped := atomic.CompareAndSwapInt64(p, o, n)
		return any(atomic.LoadInt64(p)).(T), swapped
	case uint64:
		n := any(new).(uint64)
		p := (*int64)(unsafe.Pointer(addr))
		swapped := atomic.CompareAndSwapInt64(p, int64(o), int64(n))
		return any(uint64(atomic.LoadInt64(p))).(T), swapped
	case uintptr:
		n := any(new).(uintptr)
		p := (*int64)(unsafe.Pointer(addr))
		swapped := atomic.CompareAndSwapInt64(p, int64(o), int64(n))
		return any(uintptr(atomic.LoadInt64(p))).(T), swapped
	default:
		panic("access: CmpXchg requires a 4- or 8-byte scalar type")
	}
}

// Xchg atomically replaces the value at addr with v, returning the
// previous value. Same width restriction as CmpXchg.
func Xchg[T any](addr uintptr, v T) T {
	switch vv := any(v).(type) {
	case int32:
		p := (*int32)(unsafe.Pointer(addr))
		return any(atomic.SwapInt32(p, vv)).(T)
	case uint32:
		p := (*int32)(unsafe.Pointer(addr))
		return any(uint32(atomic.SwapInt32(p, int32(vv)))).(T)
	case int64:
		p := (*int64)(unsafe.Pointer(addr))
		return any(atomic.SwapInt64(p, vv)).(T)
	case uint64:
		p := (*int64)(unsafe.Pointer(addr))
		return any(uint64(atomic.SwapInt64(p, int64(vv)))).(T)
	case uintptr:
		p := (*int64)(unsafe.Pointer(addr))
		return any(uintptr(atomic.SwapInt64(p, int64(vv)))).(T)
	default:
		panic("access: Xchg requires a 4- or 8-byte scalar type")
	}
}

// OopLoadAt reads an OOP field/array-slot at addr. Currently
// indistinguishable from Load[OOP] since there is no read barrier
// installed by default, but kept as its own entry point so a future
// collector has a single place to add one (§4.7 lists load and store
// barriers as separate hooks even when the load side starts as a
// plain load).
func OopLoadAt(addr uintptr, order MemoryOrder) OOP {
	return Load[OOP](addr, order)
}

// OopStoreAt writes an OOP field/array-slot at addr, running the
// installed Barrier.
func OopStoreAt(addr uintptr, v OOP, order MemoryOrder) {
	Store[OOP](addr, v, InHeap, order)
}

func loadInt32(addr uintptr, order MemoryOrder) int32 {
	p := (*int32)(unsafe.Pointer(addr))
	if order == Unordered || order == Relaxed {
		return *p
	}
	return atomic.LoadInt32(p)
}

func storeInt32(addr uintptr, v int32, order MemoryOrder) {
	p := (*int32)(unsafe.Pointer(addr))
	if order == Unordered || order == Relaxed {
		*p = v
		return
	}
	atomic.StoreInt32(p, v)
}

func loadInt64(addr uintptr, order MemoryOrder) int64 {
	p := (*int64)(unsafe.Pointer(addr))
	if order == Unordered || order == Relaxed {
		return *p
	}
	return atomic.LoadInt64(p)
}

func storeInt64(addr uintptr, v int64, order MemoryOrder) {
	p := (*int64)(unsafe.Pointer(addr))
	if order == Unordered || order == Relaxed {
		*p = v
		return
	}
	atomic.StoreInt64(p, v)
}

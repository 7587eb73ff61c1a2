/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package access

import "unsafe"

// ArrayCopy moves n elements of size elemSize from srcAddr to dstAddr,
// both expressed as element offsets from their array's base, via
// memmove semantics (overlap-safe). It runs no barrier, so it suits
// non-oop element types; no package in this module calls it outside
// its tests.
func ArrayCopy(srcAddr, dstAddr uintptr, srcPos, dstPos, length int, elemSize int64) {
	if length <= 0 {
		return
	}
	src := unsafe.Slice((*byte)(unsafe.Pointer(srcAddr+uintptr(int64(srcPos)*elemSize))), int64(length)*elemSize)
	dst := unsafe.Slice((*byte)(unsafe.Pointer(dstAddr+uintptr(int64(dstPos)*elemSize))), int64(length)*elemSize)
	copyBytesOverlapSafe(dst, src)
}

// OopArrayCopy is ArrayCopy's barrier-aware counterpart for arrays of
// object references: every slot written runs the installed Barrier,
// exactly as OopStoreAt does for a single field.
func OopArrayCopy(srcAddr, dstAddr uintptr, srcPos, dstPos, length int) {
	if length <= 0 {
		return
	}
	const oopSize = unsafe.Sizeof(OOP(0))
	reverse := dstAddr == srcAddr && dstPos > srcPos
	for i := 0; i < length; i++ {
		idx := i
		if reverse {
			idx = length - 1 - i
		}
		sAddr := srcAddr + uintptr(srcPos+idx)*oopSize
		dAddr := dstAddr + uintptr(dstPos+idx)*oopSize
		v := OopLoadAt(sAddr, SeqCst)
		OopStoreAt(dAddr, v, SeqCst)
	}
}

// CloneInHeap performs a raw byte-for-byte copy of an object's
// representation (header plus fields) from src to a freshly allocated
// dst of the same size, used by Object.clone(). Any oop fields within
// the copied bytes are not individually barriered here -- the caller
// is expected to register dst with the collector as a whole once
// cloning completes, matching how a bulk-copying collector treats a
// freshly promoted object.
func CloneInHeap(dst, src uintptr, size int64) {
	d := unsafe.Slice((*byte)(unsafe.Pointer(dst)), size)
	s := unsafe.Slice((*byte)(unsafe.Pointer(src)), size)
	copy(d, s)
}

func copyBytesOverlapSafe(dst, src []byte) {
	copy(dst, src)
}

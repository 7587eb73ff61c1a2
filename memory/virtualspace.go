/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package memory implements the reserved/committed address-space
// abstraction (C2) and the bump allocators built on top of it (C3).
// Grounded on original_source/src/gc/mem_allocator.rs for the allocator
// shape; the teacher (jacobin) never got past a stub here, so the
// reservation mechanics are built on the same mmap idiom
// _examples/saferwall-pe uses to map PE binaries: reserve the whole
// range up front with PROT_NONE, then mprotect the committed prefix to
// PROT_READ|PROT_WRITE (or +PROT_EXEC) as it grows.
package memory

import (
	"fmt"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/klover-go/klover/types"
	"golang.org/x/sys/unix"
)

// PageSize is the platform page size, queried once at process start the
// same way saferwall-pe queries it before mapping a file.
var PageSize = int64(unix.Getpagesize())

// VirtualSpace is a single contiguous range of reserved address space,
// of which a prefix is committed (readable/writable, or executable).
// Two VirtualSpaces never overlap: the managed heap and metaspace each
// own one, reserved independently at boot.
type VirtualSpace struct {
	region   mmap.MMap
	base     uintptr
	reserved int64 // total reserved bytes
	committed int64 // bytes currently committed, from base
	exec     bool
}

// NewVirtualSpace reserves size bytes (rounded up to a page multiple)
// without committing any of it. exec marks the range as eligible to
// also carry PROT_EXEC when committed (used by nothing in this spec
// today, but kept because the teacher's template-interpreter stub
// implies code generation may one day need it).
func NewVirtualSpace(size int64, exec bool) (*VirtualSpace, error) {
	aligned := types.AlignUp(size, PageSize)

	// mmap-go requires a file descriptor; an anonymous mapping is
	// requested via MAP_ANON passed through MapRegion's flags, mirroring
	// how a reserve-only mapping is built in saferwall-pe's tests.
	region, err := mmap.MapRegion(nil, int(aligned), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("memory: reserve %d bytes failed: %w", aligned, err)
	}
	if err := region.Lock(); err != nil {
		// Locking is best-effort (keeps the managed heap resident); a
		// failure here (e.g. no CAP_IPC_LOCK) is not fatal.
		_ = err
	}

	vs := &VirtualSpace{
		region:   region,
		base:     uintptr(unsafePointer(region)),
		reserved: aligned,
		exec:     exec,
	}
	// Reserved memory starts out inaccessible until ExpandBy commits it.
	if err := vs.protect(0, aligned, unix.PROT_NONE); err != nil {
		return nil, err
	}
	return vs, nil
}

// Base returns the address of the first reserved byte.
func (vs *VirtualSpace) Base() uintptr { return vs.base }

// Reserved returns the total reserved size in bytes.
func (vs *VirtualSpace) Reserved() int64 { return vs.reserved }

// Committed returns the number of bytes currently committed.
func (vs *VirtualSpace) Committed() int64 { return vs.committed }

// ExpandBy commits the next n bytes (page-rounded) past the current
// committed boundary as read/write (and execute, if vs.exec).
func (vs *VirtualSpace) ExpandBy(n int64) error {
	aligned := types.AlignUp(n, PageSize)
	if vs.committed+aligned > vs.reserved {
		return fmt.Errorf("memory: expand_by(%d) exceeds reservation (committed=%d reserved=%d)",
			n, vs.committed, vs.reserved)
	}
	prot := unix.PROT_READ | unix.PROT_WRITE
	if vs.exec {
		prot |= unix.PROT_EXEC
	}
	if err := vs.protect(vs.committed, aligned, prot); err != nil {
		return err
	}
	vs.committed += aligned
	return nil
}

// ShrinkBy reverts the last n bytes (page-rounded) of the committed
// range back to no-access, as the spec's §4.6 requires for giving
// memory back without unreserving it.
func (vs *VirtualSpace) ShrinkBy(n int64) error {
	aligned := types.AlignUp(n, PageSize)
	if aligned > vs.committed {
		return fmt.Errorf("memory: shrink_by(%d) exceeds committed (%d)", n, vs.committed)
	}
	newCommitted := vs.committed - aligned
	if err := vs.protect(newCommitted, aligned, unix.PROT_NONE); err != nil {
		return err
	}
	vs.committed = newCommitted
	return nil
}

// Pretouch walks the committed region in page strides, writing a zero
// byte to force every page to be backed, avoiding first-touch page
// faults during interpretation.
func (vs *VirtualSpace) Pretouch() {
	for off := int64(0); off < vs.committed; off += PageSize {
		vs.region[off] = 0
	}
}

// Bytes returns the full committed prefix as a byte slice, for callers
// (Bumper) that need to read/write through it directly.
func (vs *VirtualSpace) Bytes() []byte {
	return vs.region[:vs.committed:vs.committed]
}

// Close releases the reservation entirely. Only called at VM shutdown.
func (vs *VirtualSpace) Close() error {
	return vs.region.Unmap()
}

func (vs *VirtualSpace) protect(offset, length int64, prot int) error {
	if length == 0 {
		return nil
	}
	if offset+length > vs.reserved {
		return fmt.Errorf("memory: protect range [%d,%d) exceeds reservation %d", offset, offset+length, vs.reserved)
	}
	return unix.Mprotect(vs.region[offset:offset+length], prot)
}

// unsafePointer recovers the base address of an mmap'd region. mmap-go
// returns a slice backed by the actual mapping, so the address of its
// first element is the base address the narrow-pointer encoder needs.
func unsafePointer(region mmap.MMap) uintptr {
	if len(region) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&region[0]))
}

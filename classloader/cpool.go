/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by  the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package classloader

import "sync"

// Constant-pool tag values, per JVMS §4.4 Table 4.3. CPutils.go's
// FetchCPentry switches on these.
const (
	UTF8          = 1
	IntConst      = 3
	FloatConst    = 4
	LongConst     = 5
	DoubleConst   = 6
	ClassRef      = 7
	StringConst   = 8
	FieldRef      = 9
	MethodRef     = 10
	Interface     = 11 // InterfaceMethodref
	NameAndType   = 12
	MethodHandle  = 15
	MethodType    = 16
	Dynamic       = 17
	InvokeDynamic = 18
	Module        = 19
	Package       = 20
)

// CpEntry is one slot of the raw constant-pool index: its tag plus the
// index into the tag-specific parallel array (CPutils.go's
// FetchCPentry dereferences this pair).
type CpEntry struct {
	Type uint16
	Slot int
}

type fieldRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type methodRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type interfaceRefEntry struct {
	ClassIndex  uint16
	NameAndType uint16
}

type nameAndTypeEntry struct {
	NameIndex uint16
	DescIndex uint16
}

type methodHandleEntry struct {
	RefKind  uint8
	RefIndex uint16
}

type dynamicEntry struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

// CPool is the per-class constant pool: the raw, already-parsed table
// of entries plus a lazily-populated resolved cache and a resolved
// bitset, grounded on code/cp_cache.rs's ConstantPoolCache (a
// capacity-sized Vec, read/written under a single lock) and on the
// spec's requirement that symbolic-reference resolution be both lazy
// and idempotent.
type CPool struct {
	CpIndex []CpEntry

	IntConsts      []int32
	LongConsts     []int64
	Floats         []float32
	Doubles        []float64
	Utf8Refs       []string
	ClassRefs      []uint32
	StringRefs     []uint32
	FieldRefs      []fieldRefEntry
	MethodRefs     []methodRefEntry
	InterfaceRefs  []interfaceRefEntry
	NameAndTypes   []nameAndTypeEntry
	MethodTypes    []uint16
	MethodHandles  []methodHandleEntry
	Dynamics       []dynamicEntry
	InvokeDynamics []dynamicEntry

	resolveMu sync.Mutex
	resolved  []bool        // parallel to CpIndex: has this index been resolved?
	cache     []interface{} // parallel to CpIndex: the resolved value, once resolved is true
}

// ensureCacheLocked grows resolved/cache to CpIndex's length. Called
// with resolveMu held.
func (cp *CPool) ensureCacheLocked() {
	if len(cp.resolved) == len(cp.CpIndex) {
		return
	}
	resized := make([]bool, len(cp.CpIndex))
	copy(resized, cp.resolved)
	cp.resolved = resized

	resizedCache := make([]interface{}, len(cp.CpIndex))
	copy(resizedCache, cp.cache)
	cp.cache = resizedCache
}

// ResolveOrCompute returns the cached resolution for index if one
// exists, otherwise calls compute exactly once (subsequent concurrent
// callers block on resolveMu and then observe the cached result) and
// caches its outcome -- including a cached error, since a symbolic
// reference that failed to resolve once (e.g. NoClassDefFoundError)
// fails identically on every subsequent use per JVMS §5.4.3.
func (cp *CPool) ResolveOrCompute(index int, compute func() (interface{}, error)) (interface{}, error) {
	cp.resolveMu.Lock()
	defer cp.resolveMu.Unlock()
	cp.ensureCacheLocked()
	if index >= 0 && index < len(cp.resolved) && cp.resolved[index] {
		if err, isErr := cp.cache[index].(error); isErr {
			return nil, err
		}
		return cp.cache[index], nil
	}
	v, err := compute()
	if index >= 0 && index < len(cp.resolved) {
		cp.resolved[index] = true
		if err != nil {
			cp.cache[index] = err
		} else {
			cp.cache[index] = v
		}
	}
	return v, err
}

// IsResolved reports whether index has already been resolved, without
// triggering resolution.
func (cp *CPool) IsResolved(index int) bool {
	cp.resolveMu.Lock()
	defer cp.resolveMu.Unlock()
	return index >= 0 && index < len(cp.resolved) && cp.resolved[index]
}

// ClassName implements klass.ConstantPool: resolves a ClassRef entry
// to the class name it names, without touching the resolved cache
// (names are immutable and cheap to re-derive, unlike a full symbolic
// resolution to a Klass).
func (cp *CPool) ClassName(index uint32) (string, bool) {
	s := GetClassNameFromCPclassref(cp, uint16(index))
	return s, s != ""
}

// Utf8 implements klass.ConstantPool: fetches the raw UTF-8 string at
// index.
func (cp *CPool) Utf8(index uint32) (string, bool) {
	entry := FetchCPentry(cp, int(index))
	if entry.RetType != IS_STRING_ADDR || entry.StringVal == nil {
		return "", false
	}
	return *entry.StringVal, true
}

// FetchUTF8stringFromCPEntryNumber returns the raw UTF-8 bytes at a CP
// index that is known to point at a UTF8 entry (used internally by
// FetchCPentry's ClassRef case).
func FetchUTF8stringFromCPEntryNumber(cp *CPool, classRefIdx uint32) string {
	if int(classRefIdx) >= len(cp.CpIndex) {
		return ""
	}
	utf8Entry := cp.CpIndex[classRefIdx]
	if utf8Entry.Type != UTF8 {
		return ""
	}
	if utf8Entry.Slot < 0 || utf8Entry.Slot >= len(cp.Utf8Refs) {
		return ""
	}
	return cp.Utf8Refs[utf8Entry.Slot]
}

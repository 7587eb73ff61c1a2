/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package object is the runtime representation of a Java object: a
// mark-word (§3's lock/hash/age bitfield, via package oop), a
// reference to the Klass it is an instance of, and a field table.
// Objects here are ordinary Go-heap values rather than raw metaspace
// bytes -- matching how the teacher represents objects as Go structs
// with a map-based FieldTable rather than a byte-for-byte emulation of
// HotSpot's oop layout -- while still exercising the real mark-word
// and narrow-klass machinery in package oop for identity hash and
// locking state.
package object

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"

	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/oop"
	"github.com/klover-go/klover/types"
)

// Field is one instance or static field slot: its JVMS field
// descriptor (first character identifies the primitive/array/object
// kind) and its boxed Go value.
type Field struct {
	Ftype  string
	Fvalue interface{}
}

// Object is the runtime representation every "new", "newarray", or
// interned-constant allocation produces.
type Object struct {
	Mark oop.MarkWord

	// KlassName is the string-pool index of the defining class's name,
	// kept alongside the Klass pointer itself so code that only needs
	// to ask "is this a String" (JavaByteArrayFromStringObject and
	// friends) doesn't need to dereference Klass.
	KlassName uint32
	Klass     *klass.Klass

	// HeapOffset is the byte offset, from the managed heap's base, of
	// the one-word block NewObject stamped this object's mark-word
	// into (§4.6's "object allocations go to the managed heap via an
	// allocator that stamps the header"). Zero when no heap was live
	// at allocation time (most unit tests construct objects directly).
	HeapOffset int64
	InHeap     bool

	FieldTable map[string]Field

	// Fields is an insertion-ordered mirror of FieldTable, used by
	// ToString so output is deterministic; tests that only care about
	// a single field still index Fields[0] the way the teacher's tests
	// do.
	Fields []Field
}

// NewObject allocates a zero-valued instance of k with a fresh
// identity mark-word. When the process has a live managed heap (set
// by the boot sequence via globals.SetManagedHeap), the allocator also
// stamps that mark-word into a freshly bumped one-word heap block --
// the data flow spec §4.6 describes as "object allocations go to the
// managed heap via an allocator that stamps the header." A test or
// tool that builds objects without booting a heap still gets a fully
// usable Object; it just never touches raw heap bytes.
func NewObject(k *klass.Klass) *Object {
	nameIdx := uint32(0)
	if k != nil {
		nameIdx = k.NameIndex
	}
	obj := &Object{
		Mark:       oop.NewPrototype(0),
		KlassName:  nameIdx,
		Klass:      k,
		FieldTable: make(map[string]Field),
	}
	stampHeapHeader(obj)
	return obj
}

// stampHeapHeader bump-allocates a single word from the process's
// managed heap (if one is live) and writes obj's mark-word bits into
// it, recording the block's offset on obj. A heap exhausted mid-run is
// not fatal to object construction: obj is returned with InHeap false.
// No caller checks InHeap, so an exhausted heap raises no
// OutOfMemoryError; the object is used as an ordinary Go value.
func stampHeapHeader(obj *Object) {
	g := globals.GetGlobalRef()
	if g.ManagedHeap == nil {
		return
	}
	block, off, err := g.ManagedHeap.MemAllocation(types.WordSize(1), true)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint64(block, obj.Mark.Load())
	obj.HeapOffset = off
	obj.InHeap = true
}

// NewInstanceOf allocates an instance of k with every inherited and
// declared instance field present and set to its JVMS default value
// (JVMS §2.3/§2.4: numeric zero, false, or null), the state a "new"
// bytecode leaves an object in before any constructor has run.
func NewInstanceOf(k *klass.Klass) *Object {
	obj := NewObject(k)
	for _, f := range k.AllInstanceFields() {
		obj.SetField(f.Name, Field{Ftype: f.Desc, Fvalue: ZeroValueForDescriptor(f.Desc)})
	}
	return obj
}

// MakeEmptyObject builds an Object with no Klass, for tests and for
// bootstrapping before the real java/lang/Object Klass is loaded.
func MakeEmptyObject() *Object {
	return &Object{
		Mark:       oop.NewPrototype(0),
		FieldTable: make(map[string]Field),
	}
}

// NewStringObject builds an empty java.lang.String-shaped object: a
// "value" field holding a compact byte array, per JEP 254's compact
// strings representation this VM's String always uses.
func NewStringObject() *Object {
	obj := MakeEmptyObject()
	obj.KlassName = types.StringPoolStringIndex
	obj.FieldTable["value"] = Field{Ftype: types.ByteArray, Fvalue: []types.JavaByte{}}
	return obj
}

// CreateCompactStringFromGoString builds a java.lang.String object
// whose "value" field holds the UTF-8 bytes of *s reinterpreted as
// Java bytes (valid for the ASCII/Latin-1 subset compact strings
// cover).
func CreateCompactStringFromGoString(s *string) *Object {
	obj := NewStringObject()
	obj.FieldTable["value"] = Field{Ftype: types.ByteArray, Fvalue: JavaByteArrayFromGoString(*s)}
	return obj
}

// GoStringFromStringObject is CreateCompactStringFromGoString's
// inverse: given a java.lang.String-shaped Object, recover its
// contents as a Go string. Returns "" for a nil object or one that
// isn't a String.
func GoStringFromStringObject(obj *Object) string {
	return GoStringFromJavaByteArray(JavaByteArrayFromStringObject(obj))
}

// SetField inserts or replaces a named field, keeping the Fields slice
// in sync for ToString's deterministic iteration.
func (o *Object) SetField(name string, f Field) {
	if o.FieldTable == nil {
		o.FieldTable = make(map[string]Field)
	}
	if _, exists := o.FieldTable[name]; !exists {
		o.Fields = append(o.Fields, f)
	}
	o.FieldTable[name] = f
}

// GetField looks up a named field's current value.
func (o *Object) GetField(name string) (Field, bool) {
	f, ok := o.FieldTable[name]
	return f, ok
}

// ToString renders a human-readable dump of the object's class name
// and fields, used by diagnostics and by the teacher-style tests that
// just check the output is non-empty and log it.
func (o *Object) ToString() string {
	var sb strings.Builder

	className := "<unknown>"
	if o.Klass != nil {
		className = o.Klass.Name
	}
	fmt.Fprintf(&sb, "object of class %s {\n", className)

	names := make([]string, 0, len(o.FieldTable))
	for name := range o.FieldTable {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f := o.FieldTable[name]
		fmt.Fprintf(&sb, "  %s %s = %v\n", f.Ftype, name, f.Fvalue)
	}
	for i, f := range o.Fields {
		fmt.Fprintf(&sb, "  [%d] %s = %v\n", i, f.Ftype, f.Fvalue)
	}
	sb.WriteString("}")
	return sb.String()
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package object

import (
	"encoding/binary"
	"fmt"

	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/oop"
	"github.com/klover-go/klover/types"
)

// Array is the runtime representation of a single-dimensional Java
// array: a mark-word (for identity hash/locking, same as Object), the
// component type's descriptor and Klass (nil for a primitive
// component), and a flat slice of boxed elements.
type Array struct {
	Mark oop.MarkWord

	// ElemDesc is the component type's JVMS descriptor, e.g. "I" for
	// int[] or "Ljava/lang/String;" for an Object[].
	ElemDesc     string
	ElementKlass *klass.Klass

	// HeapOffset/InHeap mirror Object's fields: size_of_array_desc is
	// two words (mark-word plus length, per §4.6), so an array's heap
	// header stamp covers both in one allocation.
	HeapOffset int64
	InHeap     bool

	Elements []interface{}
}

// NewArray allocates a length-element array whose slots hold
// elemDesc's zero value (0, 0.0, false, or nil for a reference type).
// When a managed heap is live, it also stamps the array's two-word
// header (mark-word, length) the way NewObject stamps an object's
// one-word header.
func NewArray(elemDesc string, elementKlass *klass.Klass, length int) *Array {
	a := &Array{
		Mark:         oop.NewPrototype(0),
		ElemDesc:     elemDesc,
		ElementKlass: elementKlass,
		Elements:     make([]interface{}, length),
	}
	zero := ZeroValueForDescriptor(elemDesc)
	for i := range a.Elements {
		a.Elements[i] = zero
	}
	stampArrayHeapHeader(a, length)
	return a
}

// stampArrayHeapHeader bump-allocates a two-word block (mark-word,
// length) from the process's managed heap, if one is live, mirroring
// object.stampHeapHeader.
func stampArrayHeapHeader(a *Array, length int) {
	g := globals.GetGlobalRef()
	if g.ManagedHeap == nil {
		return
	}
	block, off, err := g.ManagedHeap.MemAllocation(types.WordSize(2), true)
	if err != nil {
		return
	}
	binary.LittleEndian.PutUint64(block[:8], a.Mark.Load())
	binary.LittleEndian.PutUint64(block[8:16], uint64(length))
	a.HeapOffset = off
	a.InHeap = true
}

// Length returns the array's element count.
func (a *Array) Length() int {
	return len(a.Elements)
}

// ZeroValueForDescriptor returns the JVMS default value for a field or
// array-component descriptor: numeric zero, false, or nil for any
// reference/array type.
func ZeroValueForDescriptor(desc string) interface{} {
	if len(desc) == 0 {
		return nil
	}
	switch desc[0] {
	case 'B':
		return int8(0)
	case 'C':
		return uint16(0)
	case 'D':
		return float64(0)
	case 'F':
		return float32(0)
	case 'I':
		return int32(0)
	case 'J':
		return int64(0)
	case 'S':
		return int16(0)
	case 'Z':
		return false
	default: // 'L' or '[' -- reference or array type
		return nil
	}
}

func (a *Array) String() string {
	return fmt.Sprintf("array of %s, length %d", a.ElemDesc, len(a.Elements))
}

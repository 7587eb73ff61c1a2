/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package frames is the activation-record half of C15's frame layout:
// "last-frame back-pointer | saved pc | saved boundary | method pointer
// | max_locals | [locals...] | [operand stack grows down]" from
// original_source/src/runtime/frame.rs and interpreter_runtime.rs,
// reworked from that file's raw-arena slot math into ordinary Go
// slices -- the same "Go-heap values, not raw bytes" choice already
// made for the object model (package object) and the Klass metadata
// (package klass). The thread's frame stack itself is a
// *container/list.List so PushFrame/PopFrame read the way the
// teacher's runtime stack push/pop do.
package frames

import (
	"container/list"
	"errors"

	"github.com/klover-go/klover/klass"
)

// Frame is one method activation. Locals and OpStack hold boxed Java
// values (the types package's JavaInt/JavaLong/... or an *object.Object
// for references). On OpStack a long or double occupies one Go slot,
// unlike the two 4-byte slots JVMS specifies for a raw byte-addressed
// stack, since nothing here ever takes an address into the middle of a
// slot. Locals is indexed as in the class file, so a long or double
// parameter takes two local slots there, the second left unused.
type Frame struct {
	ClName   string
	MethName string
	MethType string

	Method *klass.Method
	Klass  *klass.Klass
	CP     klass.ConstantPool

	PC int

	Locals  []interface{}
	OpStack []interface{}

	// ExceptionTable mirrors Method.ExceptionTable for quick access
	// during athrow's unwind walk.
	ExceptionTable []klass.ExceptionHandler
}

// CreateFrame allocates a Frame with maxLocals local slots (zeroed)
// and an empty operand stack. It takes no maximum stack depth: OpStack
// starts with capacity 8 and grows by append as values are pushed.
func CreateFrame(maxLocals int) *Frame {
	return &Frame{
		Locals:  make([]interface{}, maxLocals),
		OpStack: make([]interface{}, 0, 8),
	}
}

// Push appends v to the top of the operand stack.
func (f *Frame) Push(v interface{}) {
	f.OpStack = append(f.OpStack, v)
}

// Pop removes and returns the top of the operand stack. It panics on
// underflow -- a malformed method body reaching stack underflow is an
// interpreter bug, not a recoverable runtime condition.
func (f *Frame) Pop() interface{} {
	n := len(f.OpStack)
	v := f.OpStack[n-1]
	f.OpStack = f.OpStack[:n-1]
	return v
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() interface{} {
	return f.OpStack[len(f.OpStack)-1]
}

// TOS reports the current operand-stack depth.
func (f *Frame) TOS() int {
	return len(f.OpStack)
}

// CreateFrameStack builds an empty, ready-to-use frame stack for one
// thread.
func CreateFrameStack() *list.List {
	return list.New()
}

// PushFrame pushes f onto the front (top) of fs.
func PushFrame(fs *list.List, f *Frame) error {
	if fs == nil {
		return errors.New("frames: nil frame stack")
	}
	fs.PushFront(f)
	return nil
}

// PopFrame removes and returns the top frame of fs.
func PopFrame(fs *list.List) (*Frame, error) {
	if fs == nil || fs.Len() == 0 {
		return nil, errors.New("frames: frame stack is empty")
	}
	e := fs.Front()
	fs.Remove(e)
	f, ok := e.Value.(*Frame)
	if !ok {
		return nil, errors.New("frames: frame stack corrupted")
	}
	return f, nil
}

// PeekFrame returns the top frame of fs without removing it.
func PeekFrame(fs *list.List) (*Frame, bool) {
	if fs == nil || fs.Len() == 0 {
		return nil, false
	}
	f, ok := fs.Front().Value.(*Frame)
	return f, ok
}

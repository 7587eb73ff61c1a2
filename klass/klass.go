/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package klass implements C9: the Klass metadata record every loaded
// type (instance class, array class, or primitive pseudo-class) is
// represented by. Grounded on original_source's oops/klass.rs (the
// name/super/loader/mirror fields and the init_normal vs.
// init_array_class split) and on the teacher's ParsedClass/field/
// method shapes in classloader/classloader.go, reworked into a single
// metadata record addressable from a narrow klass pointer instead of
// the teacher's name-keyed map.
package klass

import (
	"sync"

	"github.com/klover-go/klover/access"
)

// Kind is the Klass tagged variant §4.2/§9 calls for: every Klass is
// exactly one of these, and Array/Primitive klasses carry no method
// table or runtime constant pool.
type Kind int

const (
	Instance Kind = iota
	Array
	Primitive
)

func (k Kind) String() string {
	switch k {
	case Instance:
		return "instance"
	case Array:
		return "array"
	case Primitive:
		return "primitive"
	default:
		return "unknown"
	}
}

// Field is one declared field slot: its name/descriptor (both as
// strings and as the declaring class's constant-pool indices), its
// offset within an instance, and its access flags.
type Field struct {
	Name        string
	Desc        string
	NameIndex   uint32
	DescIndex   uint32
	AccessFlags int
	Offset      int64 // byte offset from the object header, per oop.SizeOfInstance
	Static      bool
	ConstValue  interface{}
}

// Method is one declared method: its name/descriptor, access flags,
// bytecode, and exception table. The runtime constant pool lives on
// the owning Klass, not per-method, since every method of a class
// shares one constant pool per JVMS §4.1.
type Method struct {
	Name        string
	Desc        string
	NameIndex   uint32
	DescIndex   uint32
	AccessFlags int
	MaxStack    int
	MaxLocals   int
	Code        []byte
	ExceptionTable []ExceptionHandler
	ArgSlots    int // number of local-variable slots the parameters occupy
}

// ExceptionHandler is one entry of a method's exception table (JVMS
// §4.7.3): [StartPC, EndPC) covered by HandlerPC when the thrown
// exception is assignable to CatchType (0 means catch-all, i.e.
// finally blocks).
type ExceptionHandler struct {
	StartPC   int
	EndPC     int
	HandlerPC int
	CatchType uint32 // constant-pool index of the caught class's CONSTANT_Class entry, or 0
}

// ConstantPool is the minimal surface Klass needs from the runtime
// constant pool (C11): Klass never reaches into its internals, which
// keeps this package free of an import cycle with classloader (the
// package that actually builds and resolves pools).
type ConstantPool interface {
	ClassName(index uint32) (string, bool)
	Utf8(index uint32) (string, bool)
}

// Klass is the per-type metadata record, access flags plus layout plus
// a mirror handle onto its java.lang.Class instance. Every access to a
// mutable field (the mirror pointer and the initialization state
// machine) is mediated by mu, mirroring the teacher's classloader map
// being guarded by a RWMutex (classloader.go's Classes map lock).
type Kstate int

const (
	NotLinked Kstate = iota
	Linked
	Initializing
	Initialized
	InErrorState
)

type Klass struct {
	mu sync.RWMutex

	Name      string
	NameIndex uint32
	Kind      Kind

	Super      *Klass
	Interfaces []*Klass

	// Loader identifies the defining class loader by its OOP, not by a
	// direct pointer to a ClassLoaderData: the CLD graph (package cld)
	// is the only thing that maps an OOP to its ClassLoaderData, which
	// is what keeps this package acyclic with respect to cld.
	Loader access.OOP

	Fields  []Field
	Methods []Method
	CP      ConstantPool

	InstanceWords int64 // size of an instance in heap words, excluding header

	// Array/primitive-only fields.
	ElementKlass *Klass // component type, for Kind == Array
	ElemSize     int64  // element width in bytes, for Kind == Array

	mirror access.OOP
	state  Kstate

	statics map[string]interface{}
}

// StaticGet reads a static field's current value, or nil if it has
// never been set (for example a static whose class has not run
// <clinit>). desc is not used; callers such as getstatic apply the
// descriptor's default value themselves.
func (k *Klass) StaticGet(name, desc string) interface{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.statics == nil {
		k.statics = make(map[string]interface{})
	}
	if v, ok := k.statics[name]; ok {
		return v
	}
	return nil
}

// StaticSet installs a static field's value, called by putstatic and
// by <clinit> execution.
func (k *Klass) StaticSet(name string, v interface{}) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.statics == nil {
		k.statics = make(map[string]interface{})
	}
	k.statics[name] = v
}

// NewInstanceKlass builds the Klass for an ordinary class or
// interface. super may be nil only for java.lang.Object.
func NewInstanceKlass(name string, nameIndex uint32, super *Klass, loader access.OOP) *Klass {
	return &Klass{
		Name:      name,
		NameIndex: nameIndex,
		Kind:      Instance,
		Super:     super,
		Loader:    loader,
	}
}

// NewArrayKlass builds the Klass for an array type, per
// init_array_class in original_source's oops/klass.rs: array classes
// are always rooted at java.lang.Object and carry no field/method
// table of their own.
func NewArrayKlass(name string, nameIndex uint32, element *Klass, elemSize int64, loader access.OOP, objectKlass *Klass) *Klass {
	return &Klass{
		Name:         name,
		NameIndex:    nameIndex,
		Kind:         Array,
		Super:        objectKlass,
		Loader:       loader,
		ElementKlass: element,
		ElemSize:     elemSize,
	}
}

// NewPrimitiveKlass builds the pseudo-Klass standing in for a JVM
// primitive type (int, long, ...), used where the spec's type system
// needs every array's component type -- including primitive arrays --
// to resolve to *some* Klass.
func NewPrimitiveKlass(name string, elemSize int64) *Klass {
	return &Klass{
		Name:     name,
		Kind:     Primitive,
		ElemSize: elemSize,
	}
}

// Mirror returns the OOP of this Klass's java.lang.Class instance, or
// 0 if not yet assigned (before the defining loader's define_class
// completes).
func (k *Klass) Mirror() access.OOP {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.mirror
}

// SetMirror assigns the java.lang.Class mirror OOP, done once by
// define_class after the Class instance has been allocated.
func (k *Klass) SetMirror(oop access.OOP) {
	k.mu.Lock()
	k.mirror = oop
	k.mu.Unlock()
}

// State returns the class's initialization state (JVMS §5.5).
func (k *Klass) State() Kstate {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.state
}

// SetState transitions the class's initialization state.
func (k *Klass) SetState(s Kstate) {
	k.mu.Lock()
	k.state = s
	k.mu.Unlock()
}

// IsSubclassOf reports whether k is other or a (possibly indirect)
// subclass of other, walking the Super chain.
func (k *Klass) IsSubclassOf(other *Klass) bool {
	for c := k; c != nil; c = c.Super {
		if c == other {
			return true
		}
	}
	return false
}

// Implements reports whether k's interface set (including those
// inherited from superclasses) contains iface.
func (k *Klass) Implements(iface *Klass) bool {
	for c := k; c != nil; c = c.Super {
		for _, i := range c.Interfaces {
			if i == iface || i.Implements(iface) {
				return true
			}
		}
	}
	return false
}

// AllInstanceFields collects every non-static field k's instances
// carry, ordered superclass-first, the layout order the allocator
// (package object) uses to build a fresh instance's field table.
func (k *Klass) AllInstanceFields() []Field {
	var chain []*Klass
	for c := k; c != nil; c = c.Super {
		chain = append(chain, c)
	}
	var fields []Field
	for i := len(chain) - 1; i >= 0; i-- {
		for _, f := range chain[i].Fields {
			if !f.Static {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

// FindMethod looks up a declared (non-inherited) method by name and
// descriptor. Matching by string rather than by CP index is required
// here: name/descriptor CP indices are only meaningful relative to
// the CP of the class that declared them, so a Super walk comparing
// raw indices across classes (each with its own CP) would be
// comparing unrelated numbers.
func (k *Klass) FindMethod(name, desc string) (*Method, bool) {
	for i := range k.Methods {
		m := &k.Methods[i]
		if m.Name == name && m.Desc == desc {
			return m, true
		}
	}
	return nil, false
}

// ResolveMethod looks up a method starting at k and walking up Super,
// per JVMS §5.4.3.3's instance method resolution.
func (k *Klass) ResolveMethod(name, desc string) (*Klass, *Method, bool) {
	for c := k; c != nil; c = c.Super {
		if m, ok := c.FindMethod(name, desc); ok {
			return c, m, true
		}
	}
	return nil, nil, false
}

// FindField looks up a declared (non-inherited) field.
func (k *Klass) FindField(name, desc string) (*Field, bool) {
	for i := range k.Fields {
		f := &k.Fields[i]
		if f.Name == name && f.Desc == desc {
			return f, true
		}
	}
	return nil, false
}

// ResolveField looks up a field starting at k and walking up Super,
// per JVMS §5.4.3.2's field resolution (interfaces are not consulted
// since this runtime's object model has no default-field interfaces).
func (k *Klass) ResolveField(name, desc string) (*Klass, *Field, bool) {
	for c := k; c != nil; c = c.Super {
		if f, ok := c.FindField(name, desc); ok {
			return c, f, true
		}
	}
	return nil, nil, false
}

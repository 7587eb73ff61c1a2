/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package klass

import (
	"testing"

	"github.com/klover-go/klover/access"
)

func TestNewInstanceKlassFields(t *testing.T) {
	obj := NewInstanceKlass("java/lang/Object", 1, nil, access.OOP(0))
	if obj.Kind != Instance {
		t.Errorf("expected Instance kind, got %v", obj.Kind)
	}
	if obj.Super != nil {
		t.Errorf("expected java/lang/Object to have no super, got %v", obj.Super)
	}

	sub := NewInstanceKlass("Sub", 2, obj, access.OOP(1))
	if sub.Super != obj {
		t.Errorf("expected Sub's super to be obj")
	}
	if sub.Loader != access.OOP(1) {
		t.Errorf("expected loader OOP 1, got %v", sub.Loader)
	}
}

func TestNewArrayKlassRootsAtObject(t *testing.T) {
	objectKlass := NewInstanceKlass("java/lang/Object", 1, nil, access.OOP(0))
	intKlass := NewPrimitiveKlass("I", 4)
	arr := NewArrayKlass("[I", 3, intKlass, 4, access.OOP(0), objectKlass)

	if arr.Kind != Array {
		t.Errorf("expected Array kind, got %v", arr.Kind)
	}
	if arr.Super != objectKlass {
		t.Error("expected array klass to be rooted at java/lang/Object")
	}
	if arr.ElementKlass != intKlass {
		t.Error("expected array klass's component type to be the int primitive klass")
	}
}

func TestStaticGetSetRoundTrip(t *testing.T) {
	k := NewInstanceKlass("Counter", 0, nil, access.OOP(0))
	if v := k.StaticGet("count", "I"); v != nil {
		t.Fatalf("expected nil before any StaticSet, got %v", v)
	}
	k.StaticSet("count", int32(42))
	if v := k.StaticGet("count", "I"); v.(int32) != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}

func TestMirrorDefaultsToZero(t *testing.T) {
	k := NewInstanceKlass("Thing", 0, nil, access.OOP(0))
	if k.Mirror() != access.OOP(0) {
		t.Errorf("expected a fresh klass's mirror to be zero, got %v", k.Mirror())
	}
	k.SetMirror(access.OOP(99))
	if k.Mirror() != access.OOP(99) {
		t.Errorf("expected mirror 99, got %v", k.Mirror())
	}
}

func TestStateTransitions(t *testing.T) {
	k := NewInstanceKlass("Thing", 0, nil, access.OOP(0))
	if k.State() != NotLinked {
		t.Errorf("expected a fresh klass to start NotLinked, got %v", k.State())
	}
	k.SetState(Linked)
	k.SetState(Initializing)
	k.SetState(Initialized)
	if k.State() != Initialized {
		t.Errorf("expected Initialized, got %v", k.State())
	}
}

func TestIsSubclassOf(t *testing.T) {
	object := NewInstanceKlass("java/lang/Object", 0, nil, access.OOP(0))
	base := NewInstanceKlass("Base", 1, object, access.OOP(0))
	derived := NewInstanceKlass("Derived", 2, base, access.OOP(0))
	unrelated := NewInstanceKlass("Unrelated", 3, object, access.OOP(0))

	if !derived.IsSubclassOf(base) {
		t.Error("expected Derived to be a subclass of Base")
	}
	if !derived.IsSubclassOf(object) {
		t.Error("expected Derived to be a subclass of Object (transitively)")
	}
	if derived.IsSubclassOf(unrelated) {
		t.Error("did not expect Derived to be a subclass of Unrelated")
	}
	if !derived.IsSubclassOf(derived) {
		t.Error("expected a klass to be a subclass of itself")
	}
}

func TestImplementsWalksSuperclassChain(t *testing.T) {
	iface := NewInstanceKlass("Runnable", 0, nil, access.OOP(0))
	base := NewInstanceKlass("Base", 1, nil, access.OOP(0))
	base.Interfaces = []*Klass{iface}
	derived := NewInstanceKlass("Derived", 2, base, access.OOP(0))

	if !derived.Implements(iface) {
		t.Error("expected Derived to implement Runnable via its superclass")
	}
	other := NewInstanceKlass("Other", 3, nil, access.OOP(0))
	if derived.Implements(other) {
		t.Error("did not expect Derived to implement an unrelated klass")
	}
}

func TestAllInstanceFieldsOrdersSuperclassFirst(t *testing.T) {
	base := NewInstanceKlass("Base", 0, nil, access.OOP(0))
	base.Fields = []Field{
		{Name: "baseField", Desc: "I"},
		{Name: "baseStatic", Desc: "I", Static: true},
	}
	derived := NewInstanceKlass("Derived", 1, base, access.OOP(0))
	derived.Fields = []Field{
		{Name: "derivedField", Desc: "J"},
	}

	fields := derived.AllInstanceFields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 non-static fields, got %d: %v", len(fields), fields)
	}
	if fields[0].Name != "baseField" || fields[1].Name != "derivedField" {
		t.Errorf("expected [baseField derivedField] order, got %v", fields)
	}
}

func TestFindMethodDoesNotSeeInherited(t *testing.T) {
	base := NewInstanceKlass("Base", 0, nil, access.OOP(0))
	base.Methods = []Method{{Name: "greet", Desc: "()V"}}
	derived := NewInstanceKlass("Derived", 1, base, access.OOP(0))

	if _, ok := derived.FindMethod("greet", "()V"); ok {
		t.Error("FindMethod should not see a superclass's method")
	}
	if _, ok := base.FindMethod("greet", "()V"); !ok {
		t.Error("expected FindMethod to find greet on its declaring klass")
	}
}

func TestResolveMethodWalksSuperclassChain(t *testing.T) {
	base := NewInstanceKlass("Base", 0, nil, access.OOP(0))
	base.Methods = []Method{{Name: "greet", Desc: "()V"}}
	derived := NewInstanceKlass("Derived", 1, base, access.OOP(0))

	owner, m, ok := derived.ResolveMethod("greet", "()V")
	if !ok {
		t.Fatal("expected ResolveMethod to find greet via the superclass chain")
	}
	if owner != base {
		t.Errorf("expected greet to resolve to Base, got %v", owner.Name)
	}
	if m.Name != "greet" {
		t.Errorf("expected method named greet, got %s", m.Name)
	}

	if _, _, ok := derived.ResolveMethod("missing", "()V"); ok {
		t.Error("did not expect to resolve a nonexistent method")
	}
}

func TestResolveFieldWalksSuperclassChain(t *testing.T) {
	base := NewInstanceKlass("Base", 0, nil, access.OOP(0))
	base.Fields = []Field{{Name: "x", Desc: "I"}}
	derived := NewInstanceKlass("Derived", 1, base, access.OOP(0))

	owner, f, ok := derived.ResolveField("x", "I")
	if !ok {
		t.Fatal("expected ResolveField to find x via the superclass chain")
	}
	if owner != base {
		t.Errorf("expected x to resolve to Base, got %v", owner.Name)
	}
	if f.Name != "x" {
		t.Errorf("expected field named x, got %s", f.Name)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Instance:  "instance",
		Array:     "array",
		Primitive: "primitive",
		Kind(99):  "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
}

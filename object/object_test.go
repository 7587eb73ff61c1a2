/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

package object

import (
	"testing"

	"github.com/klover-go/klover/globals"
	"github.com/klover-go/klover/heap"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/types"
)

func TestObjectToStringIncludesEveryField(t *testing.T) {
	k := klass.NewInstanceKlass("java/lang/madeUpClass", 0, nil, 0)
	obj := NewObject(k)

	obj.SetField("myFloat", Field{Ftype: "F", Fvalue: 1.0})
	obj.SetField("myDouble", Field{Ftype: "D", Fvalue: 2.0})
	obj.SetField("myInt", Field{Ftype: "I", Fvalue: 42})
	obj.SetField("myLong", Field{Ftype: "J", Fvalue: int64(42)})
	obj.SetField("myShort", Field{Ftype: "S", Fvalue: int16(42)})
	obj.SetField("myByte", Field{Ftype: "B", Fvalue: byte(0x61)})
	obj.SetField("myStaticTrue", Field{Ftype: "XZ", Fvalue: true})
	obj.SetField("myFalse", Field{Ftype: "Z", Fvalue: false})
	obj.SetField("myChar", Field{Ftype: "C", Fvalue: 'C'})
	obj.SetField("myString", Field{Ftype: "Ljava/lang/String;", Fvalue: "Hello, Unka Andoo !"})

	str := obj.ToString()
	if len(str) == 0 {
		t.Fatal("empty string for object.ToString()")
	}
	t.Log(str)
}

func TestCompactStringRoundTrip(t *testing.T) {
	literal := "This is a compact string from a Go string"
	csObj := CreateCompactStringFromGoString(&literal)

	retStr := csObj.ToString()
	if len(retStr) == 0 {
		t.Fatal("empty string for object.ToString()")
	}
	t.Log(retStr)

	gotBack := GoStringFromJavaByteArray(csObj.FieldTable["value"].Fvalue.([]types.JavaByte))
	if gotBack != literal {
		t.Fatalf("round trip mismatch: got %q, want %q", gotBack, literal)
	}

	if viaHelper := GoStringFromStringObject(csObj); viaHelper != literal {
		t.Fatalf("GoStringFromStringObject mismatch: got %q, want %q", viaHelper, literal)
	}
}

func TestGoStringFromStringObjectRejectsNonString(t *testing.T) {
	k := klass.NewInstanceKlass("NotAString", 0, nil, 0)
	obj := NewObject(k)
	if got := GoStringFromStringObject(obj); got != "" {
		t.Fatalf("expected empty string for a non-String object, got %q", got)
	}
}

func TestNewObjectStampsHeapHeaderWhenHeapIsLive(t *testing.T) {
	globals.InitGlobals("test")
	h, err := heap.NewManagedHeap(64 * 1024)
	if err != nil {
		t.Fatalf("NewManagedHeap: %v", err)
	}
	globals.SetManagedHeap(h)
	defer globals.SetManagedHeap(nil)

	k := klass.NewInstanceKlass("java/lang/madeUpClass", 0, nil, 0)
	o1 := NewObject(k)
	if !o1.InHeap {
		t.Fatal("expected InHeap to be true with a live managed heap")
	}

	o2 := NewObject(k)
	if o2.HeapOffset <= o1.HeapOffset {
		t.Fatalf("expected sequential heap offsets, got o1=%d o2=%d", o1.HeapOffset, o2.HeapOffset)
	}
}

func TestMakeEmptyObjectHasNoKlass(t *testing.T) {
	obj := MakeEmptyObject()
	if obj.Klass != nil {
		t.Fatalf("MakeEmptyObject should have a nil Klass, got %v", obj.Klass)
	}
	if obj.FieldTable == nil {
		t.Fatal("FieldTable should be initialized, not nil")
	}
}

func TestToStringIndexedFieldsTrackOverwrites(t *testing.T) {
	k := klass.NewInstanceKlass("java/lang/madeUpClass", 0, nil, 0)
	obj := NewObject(k)

	obj.Fields = append(obj.Fields, Field{Ftype: "F", Fvalue: 1.0})
	if s := obj.ToString(); len(s) == 0 {
		t.Fatal("empty ToString with one positional field")
	}

	obj.Fields[0] = Field{Ftype: "D", Fvalue: 2.0}
	if s := obj.ToString(); len(s) == 0 {
		t.Fatal("empty ToString after overwriting positional field")
	}
}

func TestSetFieldReplacesWithoutDuplicatingFieldsSlice(t *testing.T) {
	obj := MakeEmptyObject()
	obj.SetField("x", Field{Ftype: "I", Fvalue: 1})
	obj.SetField("x", Field{Ftype: "I", Fvalue: 2})

	if len(obj.Fields) != 1 {
		t.Fatalf("Fields should have exactly one entry after overwriting the same name, got %d", len(obj.Fields))
	}
	if obj.FieldTable["x"].Fvalue != 2 {
		t.Fatalf("FieldTable[x] = %v, want 2", obj.FieldTable["x"].Fvalue)
	}
}

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
)

func TestNewArrayZeroesElements(t *testing.T) {
	arr := NewArray("I", nil, 3)
	if arr.Length() != 3 {
		t.Fatalf("expected length 3, got %d", arr.Length())
	}
	for i, v := range arr.Elements {
		if v != int32(0) {
			t.Fatalf("element %d: expected int32(0), got %v (%T)", i, v, v)
		}
	}
}

func TestNewArrayReferenceElementsAreNil(t *testing.T) {
	arr := NewArray("Ljava/lang/String;", nil, 2)
	for i, v := range arr.Elements {
		if v != nil {
			t.Fatalf("element %d: expected nil, got %v", i, v)
		}
	}
}

func TestNewArrayWithNoLiveHeapLeavesInHeapFalse(t *testing.T) {
	globals.InitGlobals("test")
	arr := NewArray("I", nil, 1)
	if arr.InHeap {
		t.Fatal("expected InHeap to be false with no managed heap installed")
	}
}

func TestNewArrayStampsHeapHeaderWhenHeapIsLive(t *testing.T) {
	globals.InitGlobals("test")
	h, err := heap.NewManagedHeap(64 * 1024)
	if err != nil {
		t.Fatalf("NewManagedHeap: %v", err)
	}
	globals.SetManagedHeap(h)
	defer globals.SetManagedHeap(nil)

	a1 := NewArray("I", nil, 4)
	if !a1.InHeap {
		t.Fatal("expected InHeap to be true with a live managed heap")
	}

	a2 := NewArray("I", nil, 4)
	if a2.HeapOffset <= a1.HeapOffset {
		t.Fatalf("expected sequential heap offsets, got a1=%d a2=%d", a1.HeapOffset, a2.HeapOffset)
	}
}

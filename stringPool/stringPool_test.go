/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package stringPool

import (
	"sync"
	"testing"
)

func TestInternPreservesIdentity(t *testing.T) {
	p := NewPool()
	s1, i1 := p.InternString("java/lang/Object")
	s2, i2 := p.InternString("java/lang/Object")

	if s1 != s2 {
		t.Errorf("interning the same bytes twice returned different Symbols")
	}
	if i1 != i2 {
		t.Errorf("interning the same bytes twice returned different indexes: %d != %d", i1, i2)
	}
}

func TestInternConcurrentSameBytes(t *testing.T) {
	p := NewPool()
	const goroutines = 32
	results := make([]*Symbol, goroutines)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		i := i
		go func() {
			defer wg.Done()
			sym, _ := p.InternString("java/lang/Object")
			results[i] = sym
		}()
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different Symbol than goroutine 0", i)
		}
	}
}

func TestInternTriggersRehash(t *testing.T) {
	p := NewPool()
	initialBuckets := len(p.buckets)

	for i := 0; i < initialBucketCount*4; i++ {
		name := string(rune('a'+i%26)) + string(rune(i))
		p.InternString(name)
	}

	if len(p.buckets) <= initialBuckets {
		t.Errorf("bucket count did not grow after interning many symbols: %d", len(p.buckets))
	}
	if len(p.buckets)&(len(p.buckets)-1) != 0 {
		t.Errorf("bucket count %d is not a power of two", len(p.buckets))
	}
}

func TestGetByIndexOutOfRange(t *testing.T) {
	p := NewPool()
	if p.GetByIndex(999) != nil {
		t.Error("GetByIndex on an unused index should return nil")
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package collections implements the two intrusive data structures the
// spec's memory subsystem is built on (C4): a lock-free singly-linked
// stack (metaspace's chunk free-list) and an intrusive doubly-linked
// list (a class-loader data's owned-Klass list). Grounded directly on
// §4.9's algorithm description -- no teacher or pack source implements
// either, so the CAS retry loop and the sentinel-node list are built
// from the spec text itself.
package collections

import (
	"sync/atomic"
	"unsafe"
)

// StackNode is embedded (by pointer) in any type that wants to live in
// a lock-free Stack. Only the next pointer is needed; a node must not
// be recycled while a concurrent Pop might still be dereferencing it
// (the spec explicitly declines to solve ABA -- callers are expected
// to use hazard pointers, epochs, or simply never free nodes that have
// ever been pushed, which is exactly what the metaspace chunk
// free-list does).
type StackNode struct {
	next unsafe.Pointer // *T, but atomics need a concrete pointer type
}

// Stack is a Treiber-style lock-free LIFO stack over *T, where T embeds
// StackNode (accessed through nodeOf). top is the address of the head
// StackNode, or nil when empty.
type Stack[T any] struct {
	top    unsafe.Pointer // *StackNode
	nodeOf func(*T) *StackNode
}

// NewStack builds a Stack whose elements are *T; nodeOf must return the
// embedded *StackNode for a given *T (Go has no offset_of, so the
// caller supplies the accessor instead of the spec's field-offset
// macro).
func NewStack[T any](nodeOf func(*T) *StackNode) *Stack[T] {
	return &Stack[T]{nodeOf: nodeOf}
}

// Push installs n atop the stack. Retries the CAS until it observes no
// concurrent writer raced it.
func (s *Stack[T]) Push(n *T) {
	node := s.nodeOf(n)
	for {
		oldTop := atomic.LoadPointer(&s.top)
		atomic.StorePointer(&node.next, oldTop)
		if atomic.CompareAndSwapPointer(&s.top, oldTop, unsafe.Pointer(node)) {
			return
		}
	}
}

// Pop removes and returns the top element, or nil if the stack is
// empty. As with Push, failure to win the CAS simply means retry: the
// stack was mutated by another goroutine between the load and the
// swap.
func (s *Stack[T]) Pop() *T {
	for {
		oldTop := atomic.LoadPointer(&s.top)
		if oldTop == nil {
			return nil
		}
		oldNode := (*StackNode)(oldTop)
		next := atomic.LoadPointer(&oldNode.next)
		if atomic.CompareAndSwapPointer(&s.top, oldTop, next) {
			return nodeOwner[T](oldTop)
		}
	}
}

// nodeOwner recovers the *T a *StackNode is embedded in. Since Go
// cannot do a generic offset_of either, Stack instead requires T to
// carry its StackNode as its first field when used through this
// helper; nodeOf(n) and nodeOwner(ptr) must agree, which NewStack's
// caller is responsible for by construction (see metaspace's chunk
// free-list for the canonical usage).
func nodeOwner[T any](nodePtr unsafe.Pointer) *T {
	return (*T)(nodePtr)
}

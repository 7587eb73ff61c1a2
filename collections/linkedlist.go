/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package collections

// ListNode is embedded inside any type that lives in a LinkedList. The
// spec's C++-ish template stores a field-offset and reinterprets raw
// bytes; Go instead stores a node-accessor closure per element type
// (see LinkedList.nodeOf), which is the idiomatic Go substitute for
// "create_ll!(T, field_name)" -- no unsafe offset arithmetic, same
// O(1) push/pop.
type ListNode struct {
	prev, next *ListNode
	owner      interface{} // the *T this node is embedded in, for iteration
}

// LinkedList is an intrusive doubly-linked list with a sentinel node,
// so Front/Back never need a nil check: an empty list has
// sentinel.prev == sentinel.next == &sentinel. Grounded on §4.9's
// LinkedListNode description. The list never owns its members: dropping
// a LinkedList does not destroy the T values still linked into it,
// matching the spec's "no ownership" invariant.
type LinkedList[T any] struct {
	sentinel ListNode
	nodeOf   func(*T) *ListNode
	len      int
}

// NewLinkedList builds an empty list. nodeOf must return the *ListNode
// embedded in t, and must be injective (every T maps to a distinct
// node) -- the contract the spec's offset-of macro enforced at compile
// time for the original language.
func NewLinkedList[T any](nodeOf func(*T) *ListNode) *LinkedList[T] {
	l := &LinkedList[T]{nodeOf: nodeOf}
	l.sentinel.prev = &l.sentinel
	l.sentinel.next = &l.sentinel
	return l
}

// Len returns the number of elements currently linked.
func (l *LinkedList[T]) Len() int { return l.len }

// PushFront links t at the head of the list. t must not already be
// linked into this or any other LinkedList -- the spec is explicit
// that a node lives in exactly one list at a time and must never be
// copied; moving requires an explicit Erase followed by a fresh push.
func (l *LinkedList[T]) PushFront(t *T) {
	n := l.nodeOf(t)
	n.owner = t
	head := l.sentinel.next
	n.prev = &l.sentinel
	n.next = head
	head.prev = n
	l.sentinel.next = n
	l.len++
}

// PushBack links t at the tail of the list.
func (l *LinkedList[T]) PushBack(t *T) {
	n := l.nodeOf(t)
	n.owner = t
	tail := l.sentinel.prev
	n.prev = tail
	n.next = &l.sentinel
	tail.next = n
	l.sentinel.prev = n
	l.len++
}

// PopFront unlinks and returns the head element, or nil if empty.
func (l *LinkedList[T]) PopFront() *T {
	if l.len == 0 {
		return nil
	}
	n := l.sentinel.next
	l.unlink(n)
	return n.owner.(*T)
}

// PopBack unlinks and returns the tail element, or nil if empty.
func (l *LinkedList[T]) PopBack() *T {
	if l.len == 0 {
		return nil
	}
	n := l.sentinel.prev
	l.unlink(n)
	return n.owner.(*T)
}

// Erase unlinks t from the list without returning it, for the
// move-by-erase-then-push pattern the spec requires ("moves must be
// explicit erase + re-push").
func (l *LinkedList[T]) Erase(t *T) {
	n := l.nodeOf(t)
	if n.prev == nil || n.next == nil {
		return // not currently linked; erase is then a no-op
	}
	l.unlink(n)
}

func (l *LinkedList[T]) unlink(n *ListNode) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev, n.next = nil, nil
	l.len--
}

// Iterate walks the list front-to-back, calling f on each element.
// Stops early the first time f returns true, mirroring the spec's
// "early-exit on Some" behavior for iterate(f).
func (l *LinkedList[T]) Iterate(f func(*T) bool) {
	for n := l.sentinel.next; n != &l.sentinel; n = n.next {
		if f(n.owner.(*T)) {
			return
		}
	}
}

// IterateReversed walks the list back-to-front.
func (l *LinkedList[T]) IterateReversed(f func(*T) bool) {
	for n := l.sentinel.prev; n != &l.sentinel; n = n.prev {
		if f(n.owner.(*T)) {
			return
		}
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2023 by  the Jacobin authors. Consult jacobin.org.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0) All rights reserved.
 */

// Package thread is the mutator-thread half of §4.10's "Parallel: any
// number of mutator threads run interpreters concurrently. Each
// mutator has its own interpreter stack and per-thread local storage
// (ThrdLocalStorage)." Every ExecThread owns exactly one frame stack;
// nothing here is shared between threads, so ExecThread carries no
// lock of its own.
package thread

import (
	"container/list"
	"sync/atomic"
)

var nextID int64

// ExecThread is one JVM thread of execution: an identity, its
// per-thread local storage map, and its frame stack (LIFO, front of
// the list is the topmost/currently-executing frame).
type ExecThread struct {
	ID               int64
	Name             string
	Stack            *list.List
	ThrdLocalStorage map[string]interface{}
}

// CreateThread allocates a fresh ExecThread with an empty frame stack
// and a unique ID, per-process.
func CreateThread() ExecThread {
	return ExecThread{
		ID:               atomic.AddInt64(&nextID, 1),
		Stack:            list.New(),
		ThrdLocalStorage: make(map[string]interface{}),
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package oopstorage

import (
	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/actor"
)

// Allocate asks the actor to reserve a slot in purpose/family and
// returns an owning handle. §4.10 routes oop-storage mutation through
// a single-writer actor the same way CLD and metaspace are, since slot
// tables are shared across every mutator goroutine.
type Allocate struct {
	Purpose Purpose
	Family  Family
}

// ReleaseSlot frees a previously allocated slot back to its Storage.
type ReleaseSlot struct {
	Purpose Purpose
	Index   int
}

// handleResult is what Allocate replies with: the purpose/index pair
// an ObjHandle or WeakHandle wraps, plus the Storage it lives in so
// loads/stores don't need another actor round-trip.
type handleResult struct {
	storage *Storage
	index   int
}

// Actor serializes allocation and release against the shared Set.
// Loads and stores of an already-acquired slot bypass the actor
// entirely (Storage.Load/Store are their own lock-protected critical
// section), matching the spec's framing that oop storage needs a
// single writer only for slot bookkeeping, not for every access.
type Actor struct {
	set     *Set
	mailbox actor.Mailbox
}

// NewActor starts the oop-storage actor goroutine over set.
func NewActor(set *Set) actor.Mailbox {
	a := &Actor{set: set, mailbox: actor.NewMailbox()}
	go a.run()
	return a.mailbox
}

func (a *Actor) run() {
	for env := range a.mailbox {
		switch msg := env.Msg.(type) {
		case Allocate:
			st := a.set.For(msg.Purpose, msg.Family)
			idx := st.Allocate()
			env.Reply <- handleResult{storage: st, index: idx}

		case ReleaseSlot:
			st := a.set.For(msg.Purpose, Strong)
			st.Free(msg.Index)
			env.Reply <- true

		case actor.Shutdown:
			env.Reply <- true
			close(a.mailbox)
			return
		}
	}
}

// ObjHandle is an owning handle to a strong slot: the referent is
// always a GC root for as long as the handle is alive.
type ObjHandle struct {
	mailbox actor.Mailbox
	purpose Purpose
	storage *Storage
	index   int
}

// NewObjHandle acquires a strong slot for purpose and wraps it.
func NewObjHandle(mailbox actor.Mailbox, purpose Purpose) (*ObjHandle, error) {
	reply, err := mailbox.SendSafe(Allocate{Purpose: purpose, Family: Strong})
	if err != nil {
		return nil, err
	}
	hr := reply.(handleResult)
	return &ObjHandle{mailbox: mailbox, purpose: purpose, storage: hr.storage, index: hr.index}, nil
}

// Get reads the handle's current referent.
func (h *ObjHandle) Get() access.OOP { return h.storage.Load(h.index) }

// Set updates the handle's referent.
func (h *ObjHandle) Set(v access.OOP) { h.storage.Store(h.index, v) }

// Release returns the underlying slot to its Storage. The handle must
// not be used afterward.
func (h *ObjHandle) Release() error {
	_, err := h.mailbox.SendSafe(ReleaseSlot{Purpose: h.purpose, Index: h.index})
	return err
}

// WeakHandle is an owning handle to a weak slot: the collector (out of
// scope here) is free to clear it when the referent becomes otherwise
// unreachable, which is why Get returns ok=false once cleared rather
// than a stale/zero OOP indistinguishable from null.
type WeakHandle struct {
	mailbox actor.Mailbox
	purpose Purpose
	storage *Storage
	index   int
}

// NewWeakHandle acquires a weak slot for purpose and wraps it.
func NewWeakHandle(mailbox actor.Mailbox, purpose Purpose) (*WeakHandle, error) {
	reply, err := mailbox.SendSafe(Allocate{Purpose: purpose, Family: Weak})
	if err != nil {
		return nil, err
	}
	hr := reply.(handleResult)
	return &WeakHandle{mailbox: mailbox, purpose: purpose, storage: hr.storage, index: hr.index}, nil
}

// Get reads the handle's current referent. ok is false when the slot
// holds the null OOP, which a clearing collector would leave behind.
func (h *WeakHandle) Get() (v access.OOP, ok bool) {
	v = h.storage.Load(h.index)
	return v, v != 0
}

// Set updates the handle's referent.
func (h *WeakHandle) Set(v access.OOP) { h.storage.Store(h.index, v) }

// Release returns the underlying slot to its Storage.
func (h *WeakHandle) Release() error {
	_, err := h.mailbox.SendSafe(ReleaseSlot{Purpose: h.purpose, Index: h.index})
	return err
}

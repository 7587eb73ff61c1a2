/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package cld

import (
	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/klass"
)

// Message types mirror CLDMsg in original_source's classfile/cld_actor.rs
// one for one: RegisterCLD creates (or returns the existing) CLD for a
// loader OOP, RegisterKlass adds a Klass to a loader's owned set, and
// FindCLD looks one up without creating it.
type RegisterCLD struct {
	Loader access.OOP
}

type RegisterKlass struct {
	Loader access.OOP
	Klass  *klass.Klass
}

type FindCLD struct {
	Loader access.OOP
}

// Actor is the single-writer goroutine serializing mutation of the
// class-loader-data graph, per §4.10: every loader's first class
// definition, and the loader's klass registrations, funnel through
// here rather than through a graph-wide lock.
type Actor struct {
	graph             *Graph
	oopStorageMailbox actor.Mailbox
	mailbox           actor.Mailbox
}

// NewActor starts the CLD actor goroutine over graph.
func NewActor(graph *Graph, oopStorageMailbox actor.Mailbox) actor.Mailbox {
	a := &Actor{graph: graph, oopStorageMailbox: oopStorageMailbox, mailbox: actor.NewMailbox()}
	go a.run()
	return a.mailbox
}

func (a *Actor) run() {
	for env := range a.mailbox {
		switch msg := env.Msg.(type) {
		case RegisterCLD:
			cld, err := a.registerCLD(msg.Loader)
			if err != nil {
				env.Reply <- err
			} else {
				env.Reply <- cld
			}

		case RegisterKlass:
			cld, err := a.registerCLD(msg.Loader)
			if err != nil {
				env.Reply <- false
				continue
			}
			env.Reply <- cld.RegisterKlass(msg.Klass)

		case FindCLD:
			a.graph.mu.RLock()
			cld, ok := a.graph.byID[msg.Loader]
			a.graph.mu.RUnlock()
			if !ok {
				env.Reply <- (*ClassLoaderData)(nil)
			} else {
				env.Reply <- cld
			}

		case actor.Shutdown:
			env.Reply <- true
			close(a.mailbox)
			return
		}
	}
}

func (a *Actor) registerCLD(loader access.OOP) (*ClassLoaderData, error) {
	a.graph.mu.Lock()
	defer a.graph.mu.Unlock()
	if cld, ok := a.graph.byID[loader]; ok {
		return cld, nil
	}
	cld, err := newClassLoaderData(loader, a.oopStorageMailbox)
	if err != nil {
		return nil, err
	}
	a.graph.byID[loader] = cld
	return cld, nil
}

// client helpers wrapping the three-message protocol as plain function
// calls, the way the metaspace package exposes
// TryAndAllocateSmallChunk.

// RegisterLoader returns the ClassLoaderData for loader, creating one
// if this is its first class definition.
func RegisterLoader(mailbox actor.Mailbox, loader access.OOP) (*ClassLoaderData, error) {
	reply, err := mailbox.SendSafe(RegisterCLD{Loader: loader})
	if err != nil {
		return nil, err
	}
	if e, ok := reply.(error); ok {
		return nil, e
	}
	return reply.(*ClassLoaderData), nil
}

// RegisterLoadedKlass adds k to loader's owned set, creating the CLD
// if needed.
func RegisterLoadedKlass(mailbox actor.Mailbox, loader access.OOP, k *klass.Klass) (bool, error) {
	reply, err := mailbox.SendSafe(RegisterKlass{Loader: loader, Klass: k})
	if err != nil {
		return false, err
	}
	return reply.(bool), nil
}

// Find looks up an already-registered loader's CLD without creating
// one, returning ok=false if it has never defined a class.
func Find(mailbox actor.Mailbox, loader access.OOP) (*ClassLoaderData, bool, error) {
	reply, err := mailbox.SendSafe(FindCLD{Loader: loader})
	if err != nil {
		return nil, false, err
	}
	cld, ok := reply.(*ClassLoaderData)
	return cld, ok && cld != nil, nil
}

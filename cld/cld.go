/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package cld implements C10: ClassLoaderData, the per-loader record
// holding a weak handle to the loader's mirror object, the set of
// Klasses it has defined, and the metaspace chunk it currently bump-
// allocates class metadata from. Grounded on original_source's
// classfile/class_loader_data.rs (inferred from cld_actor.rs's calls
// into it), classfile/cld_graph.rs (the process-wide Vec<Arc<CLD>>),
// and classfile/cld_actor.rs (the RegisterCLD/RegisterKlass/FindCLD
// message set), reworked onto this module's collections.LinkedList
// and metaspace.ChunkSlot instead of Rust's Arc/RefCell.
package cld

import (
	"sync"

	"github.com/klover-go/klover/access"
	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/collections"
	"github.com/klover-go/klover/klass"
	"github.com/klover-go/klover/metaspace"
	"github.com/klover-go/klover/oopstorage"
)

// klassNode adapts a *klass.Klass into the intrusive LinkedList node
// shape (package klass has no reason to know about collections, so
// the wrapper lives here instead of embedding a ListNode into Klass
// itself).
type klassNode struct {
	collections.ListNode
	k *klass.Klass
}

// ClassLoaderData is the per-loader bundle described in §4.3/§9: a
// weak mirror handle (the loader is never kept alive just because it
// has defined classes -- that would leak every loader forever), the
// intrusive list of Klasses it owns, and its current metaspace
// allocation slot.
type ClassLoaderData struct {
	mu sync.RWMutex

	LoaderOOP access.OOP
	mirror    *oopstorage.WeakHandle

	klasses     *collections.LinkedList[klassNode]
	klassByName map[string]*klass.Klass

	Chunk metaspace.ChunkSlot
}

func newClassLoaderData(loaderOOP access.OOP, oopStorageMailbox actor.Mailbox) (*ClassLoaderData, error) {
	cld := &ClassLoaderData{
		LoaderOOP:   loaderOOP,
		klasses:     collections.NewLinkedList[klassNode](func(n *klassNode) *collections.ListNode { return &n.ListNode }),
		klassByName: make(map[string]*klass.Klass),
	}
	if oopStorageMailbox != nil {
		h, err := oopstorage.NewWeakHandle(oopStorageMailbox, oopstorage.PurposeCLDWeak)
		if err != nil {
			return nil, err
		}
		h.Set(loaderOOP)
		cld.mirror = h
	}
	return cld, nil
}

// Mirror returns the defining loader's own OOP (the object the loader
// instance itself is), or 0 and false once the weak handle has been
// cleared by a collector.
func (c *ClassLoaderData) Mirror() (access.OOP, bool) {
	if c.mirror == nil {
		return c.LoaderOOP, true
	}
	return c.mirror.Get()
}

// RegisterKlass adds k to this loader's owned set, keyed by name. It
// returns false (and leaves the table unchanged) if a class of that
// name is already registered -- the spec's ClassCircularityError and
// duplicate-definition cases are detected this way by the caller.
func (c *ClassLoaderData) RegisterKlass(k *klass.Klass) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.klassByName[k.Name]; exists {
		return false
	}
	c.klassByName[k.Name] = k
	c.klasses.PushBack(&klassNode{k: k})
	return true
}

// FindKlass looks up a previously registered class by name.
func (c *ClassLoaderData) FindKlass(name string) (*klass.Klass, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.klassByName[name]
	return k, ok
}

// Klasses returns a snapshot slice of every Klass this loader owns.
func (c *ClassLoaderData) Klasses() []*klass.Klass {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*klass.Klass, 0, len(c.klassByName))
	c.klasses.Iterate(func(n *klassNode) bool {
		out = append(out, n.k)
		return false
	})
	return out
}

// Graph is the process-wide set of ClassLoaderData records, one per
// distinct defining loader, keyed by the loader's own OOP (0 is
// reserved for the bootstrap loader, which has no Java-visible
// instance). Grounded on cld_graph.rs's Vec<Arc<ClassLoaderData>>,
// reworked as a map since lookup by loader OOP is this runtime's
// dominant access pattern (the Rust original's find_cld is unimplemented
// there; the map gives it for free).
type Graph struct {
	mu   sync.RWMutex
	byID map[access.OOP]*ClassLoaderData
}

func newGraph() *Graph {
	return &Graph{byID: make(map[access.OOP]*ClassLoaderData)}
}

// BootstrapLoaderOOP is the sentinel identifying the bootstrap loader,
// which -- per JVMS §5.3.1 -- has no corresponding ClassLoader
// instance.
const BootstrapLoaderOOP access.OOP = 0

var (
	once      sync.Once
	bootstrap *ClassLoaderData
	graph     *Graph
)

// Init builds the process-wide CLD graph and its distinguished
// bootstrap CLD singleton. Safe to call more than once; later calls
// are no-ops, matching globals.InitGlobals's idempotent-singleton
// style elsewhere in this module.
func Init(oopStorageMailbox actor.Mailbox) (*Graph, *ClassLoaderData, error) {
	var err error
	once.Do(func() {
		graph = newGraph()
		bootstrap, err = newClassLoaderData(BootstrapLoaderOOP, oopStorageMailbox)
		if err == nil {
			graph.byID[BootstrapLoaderOOP] = bootstrap
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return graph, bootstrap, nil
}

// Bootstrap returns the bootstrap CLD singleton. Panics if Init has
// not yet been called -- mirroring how globals.GetGlobalRef requires
// InitGlobals to have run first in spirit, but CLD's bootstrap loader
// is foundational enough that a nil here is always a startup-ordering
// bug rather than a recoverable condition.
func Bootstrap() *ClassLoaderData {
	if bootstrap == nil {
		panic("cld: Init must be called before Bootstrap")
	}
	return bootstrap
}

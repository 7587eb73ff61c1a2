/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package globals exposes the Universe singleton (§9 of the spec): the
// one process-wide struct carrying the VM name, trace toggles, the
// class-path search list, the actor mailboxes and the managed heap.
// Each InitGlobals call rebuilds the struct, keeping only the
// mailboxes, the managed heap and FuncThrowException; SetActorMailboxes
// and SetManagedHeap replace those fields outright.
package globals

import (
	"sync"

	"github.com/klover-go/klover/actor"
	"github.com/klover-go/klover/excNames"
	"github.com/klover-go/klover/heap"
)

// Globals is the Universe singleton. Fields are grouped by concern. Of
// the process-wide services it holds only the managed heap and the
// actor mailboxes: it carries no symbol table (package stringPool keeps
// its own permanent pool), no metaspace narrow-pointer encoder and no
// VM flag registry (vmflags.Registry is built by main.go).
type Globals struct {
	JacobinName string
	JavaHome    string
	StartingJar string
	Classpath   []string

	// Trace toggles. The classloader reads TraceCloadi before calling
	// trace.Trace so a disabled trace point costs one branch and no
	// string formatting; no package reads TraceClass or TraceInstrs.
	TraceClass    bool
	TraceCloadi   bool
	TraceInstrs   bool

	StrictJDK          bool
	JvmFrameStackShown bool

	// GoStackShown/ErrorGoStack/PanicCauseShown back jvm.showGoStackTrace
	// and jvm.showPanicCause: a captured Go panic's stack trace and
	// cause are shown to the user at most once per fatal error.
	GoStackShown    bool
	ErrorGoStack    string
	PanicCauseShown bool

	// FuncThrowException lets packages that can't import jvm (to avoid
	// an import cycle) raise a Java-level exception. InitGlobals
	// installs a default built on excNames.NewException when none is set.
	FuncThrowException func(excType excNames.JVMException, msg string) error

	// Actor mailboxes (§4.10). Set by SetActorMailboxes once main.go's
	// bootActors has started the three actor goroutines; nil until then.
	CLDMailbox        actor.Mailbox
	MetaspaceMailbox  actor.Mailbox
	OOPStorageMailbox actor.Mailbox

	// ManagedHeap is the C5 object heap, reserved and committed once at
	// boot per -Xmx. Unlike the three actor-mediated subsystems above,
	// allocation from it is lock-free (CAS bump), so it's held directly
	// rather than behind a mailbox. nil until SetManagedHeap runs --
	// code that allocates objects outside a live VM (most unit tests)
	// must tolerate that and skip the raw header stamp.
	ManagedHeap *heap.ManagedHeap

	initialized bool
}

var (
	global Globals
	mu     sync.RWMutex
)

// InitGlobals sets the JVM instance name and resets trace toggles. It
// is safe to call more than once (tests do), but actor mailboxes set by
// the real boot sequence are preserved across a re-init so package
// tests that only need trace/name state don't have to fake up actors.
func InitGlobals(name string) *Globals {
	mu.Lock()
	defer mu.Unlock()

	saved := global
	global = Globals{
		JacobinName: name,
		StrictJDK:   false,
	}
	global.CLDMailbox = saved.CLDMailbox
	global.MetaspaceMailbox = saved.MetaspaceMailbox
	global.OOPStorageMailbox = saved.OOPStorageMailbox
	global.ManagedHeap = saved.ManagedHeap
	global.FuncThrowException = saved.FuncThrowException
	if global.FuncThrowException == nil {
		global.FuncThrowException = func(excType excNames.JVMException, msg string) error {
			return excNames.NewException(excType, msg)
		}
	}
	global.initialized = true
	return &global
}

// GetGlobalRef returns the Universe singleton, initializing it with a
// default name if InitGlobals hasn't run yet.
func GetGlobalRef() *Globals {
	mu.RLock()
	init := global.initialized
	mu.RUnlock()
	if !init {
		return InitGlobals("klover")
	}
	mu.RLock()
	defer mu.RUnlock()
	return &global
}

// SetActorMailboxes wires the three actor mailboxes into the Universe.
// Called exactly once by the process boot sequence (main.go's
// bootActors, or a test harness that wants live actors).
func SetActorMailboxes(cld, metaspace, oopStorage actor.Mailbox) {
	mu.Lock()
	defer mu.Unlock()
	global.CLDMailbox = cld
	global.MetaspaceMailbox = metaspace
	global.OOPStorageMailbox = oopStorage
}

// SetManagedHeap installs the process's C5 managed heap, reserved once
// by the boot sequence per -Xmx.
func SetManagedHeap(h *heap.ManagedHeap) {
	mu.Lock()
	defer mu.Unlock()
	global.ManagedHeap = h
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package shutdown centralizes the VM's process-exit codes. Internal
// and fatal errors (§7 of the spec: metaspace exhaustion, a closed actor
// reply channel, an invariant violation) are not catchable Java
// exceptions — they abort the process through this package.
package shutdown

import (
	"os"
	"strconv"

	"github.com/klover-go/klover/trace"
)

// Exit codes mirror the JVM's own convention: 0 is clean, anything else
// is a distinguishable failure reason for scripts driving the VM.
const (
	OK           = 0
	JVM_EXCEPTION = 1
	APP_EXCEPTION = 2
	UNHANDLED_EXCEPTION = 3
)

// Exit logs why the VM is going down, then terminates the process.
// There is no recovery path past this call: the spec is explicit that
// internal/fatal conditions abort the VM rather than unwind.
func Exit(code int) {
	trace.Error("VM shutting down, exit code: " + strconv.Itoa(code))
	os.Exit(code)
}

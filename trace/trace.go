/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package trace is the VM-wide logging sink. It is deliberately terse:
// a message string in, a timestamped line to stderr out. The
// classloader gates its call to Trace behind globals.TraceCloadi so the
// cost of a disabled trace point is a single branch; the jvm package's
// calls are not gated.
package trace

import (
	"fmt"
	"os"
	"sync"
	"time"
)

var mu sync.Mutex

// Trace writes an informational line.
func Trace(msg string) {
	emit("TRACE", msg)
}

// Error writes an error line. Unlike Trace, Error is never gated by a
// toggle — errors are always surfaced.
func Error(msg string) {
	emit("ERROR", msg)
}

// Warning writes a warning line.
func Warning(msg string) {
	emit("WARNING", msg)
}

func emit(level, msg string) {
	mu.Lock()
	defer mu.Unlock()
	_, _ = fmt.Fprintf(os.Stderr, "[%s] %s %s\n", time.Now().Format("15:04:05.000"), level, msg)
}

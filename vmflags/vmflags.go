/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package vmflags is the typed VM-flag registry §6 calls for: each
// flag carries a name, a default, an optional constraint, and a
// description, persisted as runtime config rather than consulted only
// at parse time. Grounded on the CLI surface the pack's saferwall-pe
// example wires with cobra, plus xyproto/env for the JDK-style
// environment variables (JAVA_HOME, JAVA_TOOL_OPTIONS, _JAVA_OPTIONS,
// JDK_JAVA_OPTIONS) that options strings can also arrive through.
package vmflags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	env "github.com/xyproto/env/v2"
)

// Constraint validates a flag's value once it's been parsed, returning
// a non-nil error to reject it (e.g. a negative heap size).
type Constraint func(v interface{}) error

// Flag is one typed VM flag's metadata plus its current value.
type Flag struct {
	Name        string
	Description string
	Default     interface{}
	Constraint  Constraint
	value       interface{}
}

// Value returns the flag's current value (its default, until Set is called).
func (f *Flag) Value() interface{} {
	if f.value == nil {
		return f.Default
	}
	return f.value
}

// Set validates and installs v as the flag's current value.
func (f *Flag) Set(v interface{}) error {
	if f.Constraint != nil {
		if err := f.Constraint(v); err != nil {
			return fmt.Errorf("vmflags: %s: %w", f.Name, err)
		}
	}
	f.value = v
	return nil
}

const mib = 1024 * 1024

// Registry holds every flag §6 names, keyed by name.
type Registry struct {
	flags map[string]*Flag
}

// nonNegative rejects a negative int64, the shared constraint for
// every size-like flag below.
func nonNegative(v interface{}) error {
	n, ok := v.(int64)
	if !ok {
		return fmt.Errorf("expected an integer size")
	}
	if n < 0 {
		return fmt.Errorf("must not be negative, got %d", n)
	}
	return nil
}

// NewRegistry builds the registry with §6's core flags pre-registered
// at their specified defaults: IntpStackSize (4 MiB per thread),
// UseCompressedOops (true), and Xmx (heap cap in bytes, 0 meaning
// "no explicit cap set").
func NewRegistry() *Registry {
	r := &Registry{flags: make(map[string]*Flag)}
	r.register(&Flag{
		Name:        "IntpStackSize",
		Description: "interpreter stack size per thread, in bytes",
		Default:     int64(4 * mib),
		Constraint:  nonNegative,
	})
	r.register(&Flag{
		Name:        "UseCompressedOops",
		Description: "narrow (32-bit) object references when the heap fits",
		Default:     true,
	})
	r.register(&Flag{
		Name:        "Xmx",
		Description: "maximum heap size, in bytes (0 = unset, use the platform default)",
		Default:     int64(0),
		Constraint:  nonNegative,
	})
	return r
}

func (r *Registry) register(f *Flag) {
	r.flags[f.Name] = f
}

// Get returns a registered flag by name, or nil if unknown.
func (r *Registry) Get(name string) *Flag {
	return r.flags[name]
}

// IntpStackSize returns the configured interpreter stack size in bytes.
func (r *Registry) IntpStackSize() int64 {
	return r.Get("IntpStackSize").Value().(int64)
}

// UseCompressedOops returns whether narrow references are enabled.
func (r *Registry) UseCompressedOops() bool {
	return r.Get("UseCompressedOops").Value().(bool)
}

// Xmx returns the configured heap cap in bytes (0 if unset).
func (r *Registry) Xmx() int64 {
	return r.Get("Xmx").Value().(int64)
}

// parseSize parses a Java-style size argument: a decimal number
// optionally suffixed with k/K, m/M, or g/G, per the -Xmx<size> form
// §6's CLI surface names.
func parseSize(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}
	mult := int64(1)
	suffix := s[len(s)-1]
	switch suffix {
	case 'k', 'K':
		mult = 1024
		s = s[:len(s)-1]
	case 'm', 'M':
		mult = mib
		s = s[:len(s)-1]
	case 'g', 'G':
		mult = 1024 * mib
		s = s[:len(s)-1]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return n * mult, nil
}

// ParseOptionsString splits a JavaVMInitArgs-style options string
// (the form JAVA_TOOL_OPTIONS/_JAVA_OPTIONS/JDK_JAVA_OPTIONS carry,
// and what -Xmx<size> arrives as when passed through a single
// argument) and applies every -Xmx/-XX: option it recognises.
// ignoreUnrecognized controls whether an option this registry does
// not know about is silently skipped (true) or rejected (false), per
// §6's "unrecognised options: depend on ignoreUnrecognized".
func (r *Registry) ParseOptionsString(options string, ignoreUnrecognized bool) error {
	for _, tok := range strings.Fields(options) {
		if err := r.applyOption(tok); err != nil {
			if ignoreUnrecognized {
				continue
			}
			return err
		}
	}
	return nil
}

func (r *Registry) applyOption(tok string) error {
	switch {
	case strings.HasPrefix(tok, "-Xmx"):
		size, err := parseSize(tok[len("-Xmx"):])
		if err != nil {
			return err
		}
		return r.Get("Xmx").Set(size)
	case strings.HasPrefix(tok, "-XX:+UseCompressedOops"):
		return r.Get("UseCompressedOops").Set(true)
	case strings.HasPrefix(tok, "-XX:-UseCompressedOops"):
		return r.Get("UseCompressedOops").Set(false)
	default:
		return fmt.Errorf("vmflags: unrecognized option %q", tok)
	}
}

// ApplyEnvironment reads JAVA_TOOL_OPTIONS, JDK_JAVA_OPTIONS, and
// _JAVA_OPTIONS, in that increasing-precedence order (matching the
// real JDK's documented override order), applying each as an options
// string. Unrecognised options from the environment are always
// ignored rather than rejected, since these variables are meant to be
// silently-composable across unrelated JVM invocations.
func (r *Registry) ApplyEnvironment() error {
	for _, name := range []string{"JAVA_TOOL_OPTIONS", "JDK_JAVA_OPTIONS", "_JAVA_OPTIONS"} {
		if v := env.Str(name); v != "" {
			if err := r.ParseOptionsString(v, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// JavaHome resolves JAVA_HOME from the environment, the directory the
// bootstrap classloader reads its runtime classes from.
func JavaHome() string {
	return env.Str("JAVA_HOME")
}

// BindCobraFlags registers the --Xmx and --no-compressed-oops flags on
// cmd, wiring each directly into the registry on Execute.
func (r *Registry) BindCobraFlags(cmd *cobra.Command) {
	var xmx string
	cmd.Flags().StringVar(&xmx, "Xmx", "", r.Get("Xmx").Description)
	cmd.PreRunE = chainPreRunE(cmd.PreRunE, func(*cobra.Command, []string) error {
		if xmx != "" {
			size, err := parseSize(xmx)
			if err != nil {
				return err
			}
			return r.Get("Xmx").Set(size)
		}
		return nil
	})

	var noCompressedOops bool
	cmd.Flags().BoolVar(&noCompressedOops, "no-compressed-oops", false, "disable "+r.Get("UseCompressedOops").Description)
	cmd.PreRunE = chainPreRunE(cmd.PreRunE, func(*cobra.Command, []string) error {
		if noCompressedOops {
			return r.Get("UseCompressedOops").Set(false)
		}
		return nil
	})
}

func chainPreRunE(existing, next func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if existing != nil {
			if err := existing(cmd, args); err != nil {
				return err
			}
		}
		return next(cmd, args)
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package util holds small cross-cutting helpers that don't deserve
// their own package, in the teacher's own style (classloader.go already
// calls util.ConvertToPlatformPathSeparators).
package util

import (
	"os"
	"strings"
)

// ConvertToPlatformPathSeparators turns a JVM-internal class name
// (slash-separated, e.g. "java/lang/String") into the current
// platform's file path separator so it can be used to open a .class
// file directly off the class path.
func ConvertToPlatformPathSeparators(name string) string {
	if os.PathSeparator == '/' {
		return name
	}
	return strings.ReplaceAll(name, "/", string(os.PathSeparator))
}

// ConvertInternalClassNameToFilename appends ".class" if not already
// present, after converting path separators.
func ConvertInternalClassNameToFilename(name string) string {
	converted := ConvertToPlatformPathSeparators(name)
	if !strings.HasSuffix(converted, ".class") {
		converted += ".class"
	}
	return converted
}

// ConvertClassFilenameToInternalFormat strips ".class" and normalizes
// separators back to "/", the JVM-internal form.
func ConvertClassFilenameToInternalFormat(filename string) string {
	name := strings.TrimSuffix(filename, ".class")
	return strings.ReplaceAll(name, string(os.PathSeparator), "/")
}

// ParseMethodDescriptor splits a JVMS §4.3.3 method descriptor, e.g.
// "(ILjava/lang/String;)V", into its parameter-type descriptors and
// its return-type descriptor.
func ParseMethodDescriptor(desc string) (params []string, ret string) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, ""
	}
	i := 1
	for i < len(desc) && desc[i] != ')' {
		start := i
		for desc[i] == '[' {
			i++
		}
		if desc[i] == 'L' {
			for desc[i] != ';' {
				i++
			}
		}
		i++
		params = append(params, desc[start:i])
	}
	if i+1 <= len(desc) {
		ret = desc[i+1:]
	}
	return params, ret
}

// ArgSlotsForDescriptor counts the local-variable slots a method
// descriptor's parameters occupy, per JVMS §4.6: long and double each
// take two slots, every other type (including references) takes one.
// The implicit "this" slot for an instance method is not included
// here -- callers that need it add one themselves.
func ArgSlotsForDescriptor(desc string) int {
	params, _ := ParseMethodDescriptor(desc)
	slots := 0
	for _, p := range params {
		if p == "J" || p == "D" {
			slots += 2
		} else {
			slots++
		}
	}
	return slots
}

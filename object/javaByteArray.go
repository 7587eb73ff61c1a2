/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by  the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package object

import (
	"strings"

	"github.com/klover-go/klover/types"
)

// GoStringFromJavaByteArray renders a compact string's underlying Java
// byte array back into a Go string (valid for the ASCII/Latin-1
// subset compact strings cover).
func GoStringFromJavaByteArray(jbarr []types.JavaByte) string {
	var sb strings.Builder
	for _, b := range jbarr {
		sb.WriteByte(byte(b))
	}
	return sb.String()
}

// JavaByteArrayFromGoString is GoStringFromJavaByteArray's inverse,
// used by CreateCompactStringFromGoString to build a String object's
// "value" field.
func JavaByteArrayFromGoString(str string) []types.JavaByte {
	jbarr := make([]types.JavaByte, len(str))
	for i, b := range str {
		jbarr[i] = types.JavaByte(b)
	}
	return jbarr
}

// JavaByteArrayFromStringObject extracts a String object's backing
// byte array, or nil if obj isn't a java.lang.String-shaped Object.
func JavaByteArrayFromStringObject(obj *Object) []types.JavaByte {
	if obj == nil || obj.KlassName != types.StringPoolStringIndex {
		return nil
	}
	return obj.FieldTable["value"].Fvalue.([]types.JavaByte)
}

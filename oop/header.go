/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2025 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

package oop

import "github.com/klover-go/klover/types"

// ObjDescWords is the header size (in words) of an ordinary object:
// just the mark-word (§4.2: "ObjDesc::size_of_normal_desc = one word").
const ObjDescWords types.WordSize = 1

// ArrayObjDescWords is the header size (in words) of an array object:
// mark-word, plus a 32-bit length padded out to a full word (§4.2:
// "ObjDesc::size_of_array_desc = two words").
const ArrayObjDescWords types.WordSize = 2

// SizeOfInstance computes the total aligned word size of an ordinary
// object with the given field layout, where fieldWords is the sum of
// each field's already-aligned word contribution.
func SizeOfInstance(fieldWords types.WordSize) types.WordSize {
	return ObjDescWords + fieldWords
}

// SizeOfArray computes the total aligned word size of an array object
// of length elements, each elemWords whole words wide (1 for a
// long/double or an uncompressed ref; elements narrower than a word
// cannot be expressed in this unit).
func SizeOfArray(length int, elemWords types.WordSize) types.WordSize {
	elementBytes := types.WordSize(length) * elemWords
	return ArrayObjDescWords + elementBytes
}

// FieldAlignment returns the byte alignment required for a field of
// the given JVMS descriptor's first character: pointer-width for
// references and arrays, natural width for primitives.
func FieldAlignment(descriptorFirstChar byte, compressedOops bool) int64 {
	switch descriptorFirstChar {
	case 'J', 'D': // long, double: 8-byte aligned regardless of compression
		return 8
	case 'L', '[': // reference or array
		if compressedOops {
			return 4
		}
		return 8
	default: // B C S I F Z -- at most 4 bytes
		return 4
	}
}

// FieldSize returns the storage size in bytes for a field of the given
// descriptor's first character.
func FieldSize(descriptorFirstChar byte, compressedOops bool) int64 {
	switch descriptorFirstChar {
	case 'J', 'D':
		return 8
	case 'L', '[':
		if compressedOops {
			return 4
		}
		return 8
	case 'B', 'Z':
		return 1
	case 'C', 'S':
		return 2
	default: // I, F
		return 4
	}
}

/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2024 by the Jacobin Authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)  Consult jacobin.org.
 */

// Package types holds the fixed-width primitive types and word/byte-size
// wrappers that every other package in the VM builds on. Keeping byte
// counts and word counts as distinct Go types (rather than bare ints)
// catches the classic "forgot to multiply by word size" bug at compile
// time instead of at a crash dump.
package types

// JavaByte is a signed 8-bit Java byte, stored as an int64 in the
// teacher's original object model so it can live in an interface{}
// field table slot without boxing allocations; kept here unchanged.
type JavaByte int64

// JavaChar, JavaShort, JavaInt, JavaLong, JavaFloat, JavaDouble are the
// remaining one- and two-slot Java primitives.
type (
	JavaChar   = uint16
	JavaShort  = int16
	JavaInt    = int32
	JavaLong   = int64
	JavaFloat  = float32
	JavaDouble = float64
)

// Word is the target machine word: 8 bytes on the only target this VM
// supports (64-bit).
const Word = 8

// HeapWord is one pointer-sized slot in the managed heap or metaspace.
type HeapWord [Word]byte

// ByteSize is a count of bytes. It must never be added to a WordSize
// without an explicit conversion.
type ByteSize int64

// WordSize is a count of Word-sized slots.
type WordSize int64

// ToBytes converts a word count to a byte count.
func (w WordSize) ToBytes() ByteSize { return ByteSize(w) * Word }

// ToWords converts a byte count to a word count, rounding up.
func (b ByteSize) ToWords() WordSize {
	return WordSize((int64(b) + Word - 1) / Word)
}

// AlignUp rounds size up to the next multiple of align. align must be a
// power of two.
func AlignUp(size, align int64) int64 {
	return (size + align - 1) &^ (align - 1)
}

// IsAligned reports whether size is already a multiple of align.
func IsAligned(size, align int64) bool {
	return size&(align-1) == 0
}

// Fixed class-name tags the object package writes into
// Object.KlassName (StringPoolStringIndex marks a java/lang/String
// object). The stringPool package does not pre-intern these names, so
// the values are not looked up in, or reserved in, any pool.
const (
	InvalidStringIndex    uint32 = 0
	ObjectPoolStringIndex uint32 = 1 // tag for java/lang/Object
	StringPoolStringIndex uint32 = 2 // tag for java/lang/String
)

// RefArray and Array are the class-reference prefixes used in
// descriptor strings, e.g. "[Ljava/lang/String;" or "[I".
const (
	RefArray = "[L"
	Array    = "["
)

// ByteArray is the descriptor used for raw Java byte arrays stored as
// []JavaByte field values (compact strings, byte[] objects).
const ByteArray = "[B"

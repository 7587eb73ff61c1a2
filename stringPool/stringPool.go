/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-5 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package stringPool is the symbol table (C7): an interned, immutable
// UTF-8 byte-sequence store. Kept under the teacher's own package name
// (object/javaByteArray.go already calls stringPool.GetStringPointer),
// but rebuilt to the spec's chained-hash-with-rehash design rather than
// the teacher's simpler map-backed one, and extended with the
// permanent-vs-per-loader-scope split §3/§4.5 require.
package stringPool

import "sync"

const (
	initialBucketCount = 16
	maxChainBeforeRehash = 8
)

// Symbol is an interned, immutable byte sequence. Equal byte sequences
// interned in the same scope always return the identical *Symbol (§8:
// "identity is preserved").
type Symbol struct {
	bytes []byte
	hash  uint32
}

// Bytes returns the symbol's underlying byte sequence. Callers must
// not mutate the returned slice -- symbols are immutable once interned.
func (s *Symbol) Bytes() []byte { return s.bytes }

// String returns the symbol's contents as a string (a copy).
func (s *Symbol) String() string { return string(s.bytes) }

// entry is one interned string plus the Symbol wrapping it. The pool
// hands out dense uint32 indexes into entries so callers (the
// classloader's ParsedClass, the object package) can store a compact
// index instead of a pointer.
type entry struct {
	symbol *Symbol
}

// Pool is one symbol-table scope: either the single process-wide
// permanent scope (bootstrap-loader symbols, "lives until process
// exit") or one per-CLD transient scope ("lives until its CLD is
// unloaded", §3). Each Pool is independently rehashed, so unloading a
// CLD's Pool frees its entire bucket array and entries slice at once.
//
// The spec describes per-bucket mutexes; a single pool-wide mutex is
// used here instead, since buckets are rehashed (and therefore
// relocated) by the same pool, and a lock captured by bucket index
// would otherwise have to survive across a concurrent rehash. A single
// mutex over the whole table gives the same "concurrent intern is
// serialised" guarantee with none of that hazard, at the cost of
// intern calls on unrelated buckets also serializing with each other --
// an acceptable trade for a symbol table that is write-rarely,
// read-often.
type Pool struct {
	mu      sync.Mutex
	buckets [][]uint32 // chained hash: bucket -> indexes into entries
	entries []entry
}

// NewPool creates an empty scope with the initial power-of-two bucket
// count.
func NewPool() *Pool {
	p := &Pool{}
	p.buckets = make([][]uint32, initialBucketCount)
	return p
}

// fnvLike hashes bytes the way §4.5 specifies: h = h*31 + b, seeded
// nonzero so an empty string still hashes to a nonzero bucket seed
// (the spec says the Symbol's cached hash uses 0 to mean
// "uncomputed," so the hash function itself must never produce 0).
func fnvLike(b []byte) uint32 {
	h := uint32(2166136261)
	for _, c := range b {
		h = h*31 + uint32(c)
	}
	if h == 0 {
		h = 1
	}
	return h
}

func (p *Pool) bucketIndex(hash uint32) int {
	mask := uint32(len(p.buckets) - 1)
	return int(hash & mask)
}

// Intern returns the Symbol for bytes, allocating a new one (and a new
// dense pool index) if this exact byte sequence has never been interned
// in this scope before. It takes no perm flag: whether a symbol is
// permanent depends only on which Pool it is interned into (the
// package-level permanent pool, or a Pool made with NewPool).
func (p *Pool) Intern(bytes []byte) (*Symbol, uint32) {
	hash := fnvLike(bytes)

	p.mu.Lock()
	bucket := p.bucketIndex(hash)
	for _, idx := range p.buckets[bucket] {
		e := p.entries[idx]
		if e.symbol.hash == hash && equalBytes(e.symbol.bytes, bytes) {
			p.mu.Unlock()
			return e.symbol, idx
		}
	}

	owned := make([]byte, len(bytes))
	copy(owned, bytes)
	sym := &Symbol{bytes: owned, hash: hash}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, entry{symbol: sym})
	p.buckets[bucket] = append(p.buckets[bucket], idx)
	needsRehash := len(p.entries) > len(p.buckets) || len(p.buckets[bucket]) > maxChainBeforeRehash
	p.mu.Unlock()

	if needsRehash {
		p.rehash()
	}
	return sym, idx
}

// InternString is Intern for a Go string, the common case.
func (p *Pool) InternString(s string) (*Symbol, uint32) {
	return p.Intern([]byte(s))
}

func equalBytes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// rehash doubles the bucket count and relinks every existing symbol by
// its hash modulo the new count. No Symbol is moved in memory -- only
// the bucket slices (the index lists) are rebuilt, per §4.5.
func (p *Pool) rehash() {
	p.mu.Lock()
	defer p.mu.Unlock()

	newCount := len(p.buckets) * 2
	newBuckets := make([][]uint32, newCount)
	mask := uint32(newCount - 1)
	for i, e := range p.entries {
		b := e.symbol.hash & mask
		newBuckets[b] = append(newBuckets[b], uint32(i))
	}
	p.buckets = newBuckets
}

// GetByIndex returns the Symbol for a previously interned index.
func (p *Pool) GetByIndex(idx uint32) *Symbol {
	p.mu.Lock()
	defer p.mu.Unlock()
	if int(idx) >= len(p.entries) {
		return nil
	}
	return p.entries[idx].symbol
}

// Size returns the number of distinct interned symbols in this scope.
func (p *Pool) Size() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint32(len(p.entries))
}

// ---- process-wide permanent scope ----
//
// Kept as package-level functions (rather than requiring every caller
// to thread a *Pool through) because the teacher's existing code
// already calls stringPool.GetStringPointer(index) as a free function.

var permanent = NewPool()

// Intern interns bytes in the permanent (bootstrap) scope. This is
// the teacher-compatible free-function entry point; transient
// interning goes through a separate Pool made with NewPool instead.
func Intern(bytes []byte) (*Symbol, uint32) {
	return permanent.Intern(bytes)
}

// InternString is the string-argument convenience form of Intern.
func InternString(s string) (*Symbol, uint32) {
	return permanent.InternString(s)
}

// GetStringPointer returns a pointer to the Go string held at index in
// the permanent scope, or nil if the index is out of range. Matches
// the teacher's existing call sites verbatim.
func GetStringPointer(index uint32) *string {
	sym := permanent.GetByIndex(index)
	if sym == nil {
		return nil
	}
	s := sym.String()
	return &s
}

// GetStringPoolSize returns the number of interned entries in the
// permanent scope.
func GetStringPoolSize() uint32 {
	return permanent.Size()
}

// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package peg

// Key identifies one memoized parse attempt: a single atom applied at a
// single byte offset of the input. The same atom re-attempted at the same
// offset, no matter how the interpreter got there, is served from cache.
type Key struct {
	Atom string
	Pos  int
}

// Result is the cached outcome for a Key. Ok false records a failed
// attempt; Tree and Pos are meaningful only when Ok is true. Pos is the
// offset where the remainder starts.
type Result struct {
	Tree Node
	Pos  int
	Ok   bool
}

// Cache memoizes parse attempts within a single top-level Parse call. Each
// Parse owns its cache, so implementations need not be safe for concurrent
// use. Memoization is a pure speedup: any Cache, including one that stores
// nothing, yields identical parse results.
type Cache interface {
	Get(k Key) (Result, bool)
	Put(k Key, r Result)
}

// MapCache is the default Cache.
type MapCache map[Key]Result

func NewMapCache() MapCache { return make(MapCache) }

func (c MapCache) Get(k Key) (Result, bool) {
	r, ok := c[k]
	return r, ok
}

func (c MapCache) Put(k Key, r Result) { c[k] = r }

// NopCache stores nothing. Parsing with it recomputes every attempt, which
// can be exponentially slower but never changes the result.
var NopCache Cache = nopCache{}

type nopCache struct{}

func (nopCache) Get(Key) (Result, bool) { return Result{}, false }

func (nopCache) Put(Key, Result) {}

// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package peg

import "regexp"

// Parse matches text against the start symbol of g and returns the parse
// tree, the unconsumed remainder, and whether the parse succeeded. A
// remainder of "" means the whole input was consumed; any other remainder
// is a successful partial parse, not a failure.
//
// Failure is the uniform (nil, "", false) triple at every level. There is
// no partial result and no diagnostic: callers learn only that no
// alternative of the start symbol matched.
//
// Because this is a PEG, alternative order matters. Write
// "E => T op E | T", putting the longest parse first, never "E => T | T op E".
// Left recursion ("E => E op T") is not supported and recurses without
// bound; avoiding it is the grammar author's responsibility.
//
// Each call owns a fresh memo table, so Parse may be called concurrently
// with the same grammar.
func Parse(start, text string, g *Grammar) (Node, string, bool) {
	return ParseWithCache(start, text, g, NewMapCache())
}

// ParseWithCache is Parse with a caller-supplied memo table. The cache must
// not be shared across calls or grammars: its keys carry no grammar
// identity, so a stale entry from another session would corrupt results.
// Useful for instrumenting cache behavior or disabling memoization with
// NopCache.
func ParseWithCache(start, text string, g *Grammar, cache Cache) (Node, string, bool) {
	s := &session{grammar: g, input: text, memo: cache}
	tree, pos, ok := s.parseAtom(start, 0)
	if !ok {
		return nil, "", false
	}
	return tree, text[pos:], true
}

// Parse is shorthand for the package-level Parse against g.
func (g *Grammar) Parse(start, text string) (Node, string, bool) {
	return Parse(start, text, g)
}

// session is the state of one top-level Parse call: the shared input
// buffer, the memo table, and patterns compiled on demand for terminals
// that never appear inside the grammar (a terminal start symbol, say).
type session struct {
	grammar *Grammar
	input   string
	memo    Cache
	lazy    map[string]*regexp.Regexp
}

func (s *session) parseAtom(atom string, pos int) (Node, int, bool) {
	key := Key{Atom: atom, Pos: pos}
	if r, ok := s.memo.Get(key); ok {
		return r.Tree, r.Pos, r.Ok
	}
	tree, next, ok := s.evalAtom(atom, pos)
	s.memo.Put(key, Result{Tree: tree, Pos: next, Ok: ok})
	return tree, next, ok
}

func (s *session) evalAtom(atom string, pos int) (Node, int, bool) {
	alternatives, isRule := s.grammar.rules[atom]
	if !isRule {
		return s.matchTerminal(atom, pos)
	}
	// Ordered choice: commit to the first alternative that matches, even
	// if a later one would consume more input.
	for _, sequence := range alternatives {
		kids, next, ok := s.parseSequence(sequence, pos)
		if ok {
			return &Tree{Symbol: atom, Kids: kids}, next, true
		}
	}
	return nil, 0, false
}

// parseSequence matches the atoms of one alternative left to right,
// threading the offset forward. Any atom failing fails the whole sequence.
func (s *session) parseSequence(sequence []string, pos int) ([]Node, int, bool) {
	kids := make([]Node, 0, len(sequence))
	for _, atom := range sequence {
		tree, next, ok := s.parseAtom(atom, pos)
		if !ok {
			return nil, 0, false
		}
		kids = append(kids, tree)
		pos = next
	}
	return kids, pos, true
}

func (s *session) matchTerminal(atom string, pos int) (Node, int, bool) {
	re, known := s.grammar.terminals[atom]
	if !known {
		if re, known = s.lazy[atom]; !known {
			re = compileTerminal(s.grammar.whitespace, atom)
			if s.lazy == nil {
				s.lazy = make(map[string]*regexp.Regexp)
			}
			s.lazy[atom] = re
		}
	}
	if re == nil {
		// pattern did not compile; treated as a terminal that never matches
		return nil, 0, false
	}
	m := re.FindStringSubmatchIndex(s.input[pos:])
	if m == nil {
		return nil, 0, false
	}
	// Group 1 excludes the skipped whitespace; the remainder starts after
	// the whole match, so the whitespace is consumed and discarded.
	return Leaf(s.input[pos+m[2] : pos+m[3]]), pos + m[1], true
}

// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package peg compiles plain-text grammar descriptions and parses input
// against them with a memoized, ordered-choice recursive descent (PEG)
// interpreter.
//
// A description is line-oriented. Each line defines one rule:
//
//	symbol => atom atom ... | atom ...
//
// Alternatives are separated by " | " and tried in declaration order; the
// first one that matches wins. An atom is a non-terminal when it names a
// rule defined anywhere in the same description, otherwise it is a regular
// expression matched against the front of the remaining input (after
// skipping the grammar's whitespace pattern).
//
// Atoms are split on whitespace, so a terminal pattern cannot itself
// contain a space, not even escaped inside a character class. That is a
// limitation of the description format, not of the matcher.
package peg

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultWhitespace is the pattern skipped before each terminal match when
// the caller does not supply one.
const DefaultWhitespace = `\s*`

// Grammar is an immutable mapping from symbol name to an ordered sequence
// of alternatives, plus the whitespace pattern skipped before terminals.
// Build one with Compile; a Grammar is safe for concurrent Parse calls.
type Grammar struct {
	whitespace string
	rules      map[string][][]string
	terminals  map[string]*regexp.Regexp // nil entry: pattern did not compile, never matches
}

// ErrMalformedLine reports a description line that could not be turned into
// a rule: the " => " separator is missing or the right-hand side yields no
// alternatives. Compile returns no grammar when any line is malformed.
type ErrMalformedLine struct {
	Line   int // 1-based line number in the description
	Text   string
	Reason string
}

func (e *ErrMalformedLine) Error() string {
	return fmt.Sprintf("grammar line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Compile converts a description to a Grammar. The whitespace argument is a
// regular expression skipped (and discarded) before every terminal match;
// pass "" for DefaultWhitespace.
//
// Blank lines are ignored and tabs are treated as spaces, so multi-line
// descriptions may be indented freely. When the same symbol is defined on
// more than one line, the last definition wins.
//
// Terminal patterns are compiled here, once, after the full rule set is
// known. A terminal whose pattern is not a valid regular expression does
// not abort compilation; it simply never matches, so the failure surfaces
// as a failed parse.
func Compile(description, whitespace string) (*Grammar, error) {
	if whitespace == "" {
		whitespace = DefaultWhitespace
	}
	g := &Grammar{
		whitespace: whitespace,
		rules:      make(map[string][][]string),
	}
	description = strings.ReplaceAll(description, "\t", " ")
	for n, line := range strings.Split(description, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lhs, rhs, found := strings.Cut(line, " => ")
		if !found {
			return nil, &ErrMalformedLine{Line: n + 1, Text: line, Reason: `missing " => " separator`}
		}
		lhs = strings.TrimSpace(lhs)
		var alternatives [][]string
		for _, alt := range strings.Split(rhs, " | ") {
			atoms := strings.Fields(alt)
			if len(atoms) == 0 {
				continue
			}
			alternatives = append(alternatives, atoms)
		}
		if lhs == "" || len(alternatives) == 0 {
			return nil, &ErrMalformedLine{Line: n + 1, Text: line, Reason: "no alternatives"}
		}
		g.rules[lhs] = alternatives
	}
	g.resolveTerminals()
	return g, nil
}

// MustCompile is like Compile but panics if the description is malformed.
// It simplifies safe initialization of package-level grammar variables.
func MustCompile(description, whitespace string) *Grammar {
	g, err := Compile(description, whitespace)
	if err != nil {
		panic("peg: " + err.Error())
	}
	return g
}

// resolveTerminals classifies every atom against the final rule set and
// compiles the match pattern for each terminal. Classification is exactly
// "is this atom a rule name": an atom like [0-9]+ stays a terminal unless a
// rule of that literal name exists.
func (g *Grammar) resolveTerminals() {
	g.terminals = make(map[string]*regexp.Regexp)
	for _, alternatives := range g.rules {
		for _, sequence := range alternatives {
			for _, atom := range sequence {
				if _, isRule := g.rules[atom]; isRule {
					continue
				}
				if _, seen := g.terminals[atom]; seen {
					continue
				}
				g.terminals[atom] = compileTerminal(g.whitespace, atom)
			}
		}
	}
}

// compileTerminal anchors the terminal pattern at the front of the
// remaining input. Group 1 captures the matched value; the leading
// whitespace is consumed but excluded from the capture.
func compileTerminal(whitespace, atom string) *regexp.Regexp {
	re, err := regexp.Compile(`^(?:` + whitespace + `)(` + atom + `)`)
	if err != nil {
		return nil
	}
	return re
}

// Whitespace returns the pattern skipped before each terminal match.
func (g *Grammar) Whitespace() string { return g.whitespace }

// IsRule reports whether name is defined as a rule in the grammar.
func (g *Grammar) IsRule(name string) bool {
	_, ok := g.rules[name]
	return ok
}

// Symbols returns the defined rule names in sorted order.
func (g *Grammar) Symbols() []string {
	names := make([]string, 0, len(g.rules))
	for name := range g.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Alternatives returns the ordered alternatives for a symbol, each an
// ordered sequence of atom tokens. It returns nil when the symbol is not
// defined. The result is a copy; callers cannot mutate the grammar.
func (g *Grammar) Alternatives(symbol string) [][]string {
	alternatives, ok := g.rules[symbol]
	if !ok {
		return nil
	}
	out := make([][]string, len(alternatives))
	for i, sequence := range alternatives {
		out[i] = append([]string(nil), sequence...)
	}
	return out
}

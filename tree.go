// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package peg

import (
	"encoding/json"
	"strings"
)

// Node is one vertex of a parse tree. A Leaf holds the text matched by a
// terminal. A Tree holds a rule name and the ordered results of the winning
// alternative, one child per atom. Trees are pure values: they keep no
// reference to the grammar or the input they came from.
type Node interface {
	String() string
	isNode()
}

// Leaf is the substring matched by a terminal atom, with the skipped
// leading whitespace already removed.
type Leaf string

func (Leaf) isNode() {}

func (l Leaf) String() string { return string(l) }

func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

// Tree is the parse tree for a non-terminal match.
type Tree struct {
	Symbol string
	Kids   []Node
}

func (*Tree) isNode() {}

// String renders the tree as a bracketed list, [symbol child child ...],
// nesting subtrees. Handy in tests and log output.
func (t *Tree) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(t.Symbol)
	for _, kid := range t.Kids {
		sb.WriteByte(' ')
		sb.WriteString(kid.String())
	}
	sb.WriteByte(']')
	return sb.String()
}

// MarshalJSON encodes the tree as a JSON array whose first element is the
// symbol name: ["symbol", child, ...]. Leaves encode as plain strings.
func (t *Tree) MarshalJSON() ([]byte, error) {
	row := make([]any, 0, len(t.Kids)+1)
	row = append(row, t.Symbol)
	for _, kid := range t.Kids {
		row = append(row, kid)
	}
	return json.Marshal(row)
}

// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package jsong defines a JSON grammar for the peg package. It is a sample
// consumer of the core library, useful in tests and from the command line
// tool; it adds no contract of its own.
package jsong

import (
	"github.com/mdhender/peg"
)

// Description is the JSON grammar. Alternatives are ordered longest first
// because the parser commits to the first alternative that matches: number
// tries "int frac exp" before the shorter forms, members and elements try
// the recursive form before the single-item form.
const Description = `
object   => [{] members [}]
members  => pair [,] members | pair
pair     => string [:] value
value    => object | array | number | string
array    => [[] elements []]
elements => value [,] elements | value
number   => int frac exp | int frac | int exp | int
int      => [-+]?[0-9]+
frac     => [.][0-9]+
exp      => e[+-][0-9]+
string   => "([^"\\]|\["\/bfnrtu])*"
`

// JSON is the compiled grammar.
var JSON = peg.MustCompile(Description, peg.DefaultWhitespace)

// Parse matches text against the grammar's "value" rule. It returns the
// parse tree, the unconsumed remainder, and whether the parse succeeded.
func Parse(text string) (peg.Node, string, bool) {
	return peg.Parse("value", text, JSON)
}

// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package peg_test

import (
	"errors"
	"testing"

	"github.com/mdhender/peg"
)

func TestCompile_RoundTrip(t *testing.T) {
	description := `
		Exp    => Term [+-] Exp | Term
		Term   => Factor [*/] Term | Factor
		Factor => [(] Exp [)] | [0-9]+
	`
	g, err := peg.Compile(description, "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	for _, tc := range []struct {
		symbol string
		alts   int
	}{
		{"Exp", 2},
		{"Term", 2},
		{"Factor", 2},
	} {
		alts := g.Alternatives(tc.symbol)
		if alts == nil {
			t.Fatalf("symbol %q not defined", tc.symbol)
		}
		if got, want := len(alts), tc.alts; got != want {
			t.Fatalf("%s: alternatives = %d, want %d", tc.symbol, got, want)
		}
	}

	if got, want := len(g.Symbols()), 3; got != want {
		t.Fatalf("symbols = %d, want %d", got, want)
	}

	// first alternative of Exp, in declaration order
	alt := g.Alternatives("Exp")[0]
	if got, want := len(alt), 3; got != want {
		t.Fatalf("Exp alt 0: atoms = %d, want %d", got, want)
	}
	if got, want := alt[1], "[+-]"; got != want {
		t.Fatalf("Exp alt 0 atom 1 = %q, want %q", got, want)
	}
}

func TestCompile_MixedIndentation(t *testing.T) {
	// tabs are treated as spaces, so mixed indentation must not matter
	g, err := peg.Compile("\ta\t=> b\n\t\tb => [0-9]", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !g.IsRule("a") || !g.IsRule("b") {
		t.Fatalf("symbols = %v, want [a b]", g.Symbols())
	}
}

func TestCompile_MissingSeparator(t *testing.T) {
	_, err := peg.Compile("greeting hello world", "")
	if err == nil {
		t.Fatal("compile: expected error, got nil")
	}
	var malformed *peg.ErrMalformedLine
	if !errors.As(err, &malformed) {
		t.Fatalf("compile: error = %T, want *peg.ErrMalformedLine", err)
	}
	if got, want := malformed.Line, 1; got != want {
		t.Fatalf("line = %d, want %d", got, want)
	}
}

func TestCompile_MalformedLineAborts(t *testing.T) {
	// one bad line fails the whole description, no partial grammar
	g, err := peg.Compile("a => b\nc d e\nf => g", "")
	if err == nil {
		t.Fatal("compile: expected error, got nil")
	}
	if g != nil {
		t.Fatalf("compile: grammar = %v, want nil", g)
	}
}

func TestCompile_LastWriteWins(t *testing.T) {
	g, err := peg.Compile("a => x\na => y | z", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	alts := g.Alternatives("a")
	if got, want := len(alts), 2; got != want {
		t.Fatalf("alternatives = %d, want %d", got, want)
	}
	if got, want := alts[0][0], "y"; got != want {
		t.Fatalf("alt 0 atom 0 = %q, want %q", got, want)
	}
}

func TestCompile_DefaultWhitespace(t *testing.T) {
	g, err := peg.Compile("a => b", "")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if got, want := g.Whitespace(), peg.DefaultWhitespace; got != want {
		t.Fatalf("whitespace = %q, want %q", got, want)
	}
}

func TestMustCompile_PanicsOnMalformed(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("MustCompile: expected panic, got none")
		}
	}()
	peg.MustCompile("not a rule", "")
}

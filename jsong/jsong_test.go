// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package jsong_test

import (
	"reflect"
	"testing"

	"github.com/mdhender/peg"
	"github.com/mdhender/peg/jsong"
)

func tree(symbol string, kids ...peg.Node) *peg.Tree {
	return &peg.Tree{Symbol: symbol, Kids: kids}
}

func leaf(text string) peg.Leaf { return peg.Leaf(text) }

func value(kid peg.Node) *peg.Tree { return tree("value", kid) }

func number(kids ...peg.Node) *peg.Tree { return tree("number", kids...) }

func intval(text string) *peg.Tree { return tree("int", leaf(text)) }

func str(text string) *peg.Tree { return tree("string", leaf(text)) }

func TestParse_Array(t *testing.T) {
	got, rem, ok := jsong.Parse(`["testing", 1, 2, 3]`)
	if !ok {
		t.Fatal("parse failed")
	}
	if rem != "" {
		t.Fatalf("remainder = %q, want \"\"", rem)
	}

	want := value(
		tree("array",
			leaf("["),
			tree("elements",
				value(str(`"testing"`)),
				leaf(","),
				tree("elements",
					value(number(intval("1"))),
					leaf(","),
					tree("elements",
						value(number(intval("2"))),
						leaf(","),
						tree("elements",
							value(number(intval("3"))))))),
			leaf("]")))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tree:\n got %s\nwant %s", got, want)
	}
}

func TestParse_Number(t *testing.T) {
	got, rem, ok := jsong.Parse("-123.456e+789")
	if !ok {
		t.Fatal("parse failed")
	}
	if rem != "" {
		t.Fatalf("remainder = %q, want \"\"", rem)
	}

	want := value(number(
		intval("-123"),
		tree("frac", leaf(".456")),
		tree("exp", leaf("e+789"))))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tree:\n got %s\nwant %s", got, want)
	}
}

func TestParse_Object(t *testing.T) {
	got, rem, ok := jsong.Parse(`{"age": 21, "state":"CO","occupation":"rides the rodeo"}`)
	if !ok {
		t.Fatal("parse failed")
	}
	if rem != "" {
		t.Fatalf("remainder = %q, want \"\"", rem)
	}

	want := value(
		tree("object",
			leaf("{"),
			tree("members",
				tree("pair", str(`"age"`), leaf(":"), value(number(intval("21")))),
				leaf(","),
				tree("members",
					tree("pair", str(`"state"`), leaf(":"), value(str(`"CO"`))),
					leaf(","),
					tree("members",
						tree("pair", str(`"occupation"`), leaf(":"), value(str(`"rides the rodeo"`)))))),
			leaf("}")))
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("tree:\n got %s\nwant %s", got, want)
	}
}

func TestParse_Failure(t *testing.T) {
	node, rem, ok := jsong.Parse("not json at all")
	if ok {
		t.Fatal("parse succeeded, want failure")
	}
	if node != nil || rem != "" {
		t.Fatalf("failure = (%v, %q), want (nil, \"\")", node, rem)
	}
}

func TestParse_PartialConsumption(t *testing.T) {
	_, rem, ok := jsong.Parse("[1, 2] trailing")
	if !ok {
		t.Fatal("parse failed")
	}
	if want := " trailing"; rem != want {
		t.Fatalf("remainder = %q, want %q", rem, want)
	}
}

func TestParse_NestedStructures(t *testing.T) {
	_, rem, ok := jsong.Parse(`{"a": [1, {"b": [2, 3]}], "c": {"d": []}}`)
	if ok {
		// {"d": []} has an empty array, which the grammar does not allow
		t.Fatalf("parse succeeded with remainder %q, want failure", rem)
	}

	_, rem, ok = jsong.Parse(`{"a": [1, {"b": [2, 3]}], "c": {"d": [4]}}`)
	if !ok {
		t.Fatal("parse failed")
	}
	if rem != "" {
		t.Fatalf("remainder = %q, want \"\"", rem)
	}
}

func TestGrammar_Symbols(t *testing.T) {
	for _, symbol := range []string{
		"object", "members", "pair", "value", "array", "elements",
		"number", "int", "frac", "exp", "string",
	} {
		if !jsong.JSON.IsRule(symbol) {
			t.Fatalf("symbol %q not defined", symbol)
		}
	}
}

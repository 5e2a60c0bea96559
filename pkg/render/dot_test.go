package render

import (
	"strings"
	"testing"

	"github.com/matzehuels/graphsplit/pkg/ir"
	"github.com/matzehuels/graphsplit/pkg/split"
)

func TestGraphDOT(t *testing.T) {
	g := ir.NewGraph()
	x := g.Placeholder("x")
	w := g.GetAttr("weight")
	mul := g.CallFunction("mul", []ir.Arg{x, w}, nil)
	g.Output(mul)

	dot := GraphDOT(g, Options{})

	for _, want := range []string{
		"digraph G {",
		`"x" -> "mul";`,
		`"weight" -> "mul";`,
		`"mul" -> "output";`,
		"fillcolor=lightyellow", // placeholder styling
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestGraphDOT_DetailedLabels(t *testing.T) {
	g := ir.NewGraph()
	x := g.Placeholder("x")
	g.Output(g.CallModule("layers.act", []ir.Arg{x}, nil))

	dot := GraphDOT(g, Options{Detailed: true})
	if !strings.Contains(dot, "target: layers.act") {
		t.Errorf("detailed DOT missing call target:\n%s", dot)
	}
	if !strings.Contains(dot, "op: call_module") {
		t.Errorf("detailed DOT missing op kind:\n%s", dot)
	}
}

func TestPartitionDOT(t *testing.T) {
	parts := []split.Partition{
		{Name: "A", Members: []string{"add"}, Outputs: []string{"add"}, Dependents: []string{"B"}},
		{Name: "B", Members: []string{"mul"}, Inputs: []string{"add"}, DependsOn: []string{"A"}},
	}

	dot := PartitionDOT(parts, Options{})
	for _, want := range []string{
		"digraph partitions {",
		`"A" [label="submod_A"];`,
		`"B" [label="submod_B"];`,
		`"A" -> "B";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	detailed := PartitionDOT(parts, Options{Detailed: true})
	if !strings.Contains(detailed, "nodes: mul") {
		t.Errorf("detailed DOT missing member list:\n%s", detailed)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?><svg width="100pt" height="50pt" viewBox="0.00 0.00 120.50 60.25" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 120.50 60.25"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="121"`) && !strings.Contains(out, `width="120"`) {
		t.Errorf("width not rewritten: %s", out)
	}

	// SVG without a viewBox passes through untouched
	plain := []byte("<svg><g/></svg>")
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("SVG without viewBox should be unchanged")
	}
}

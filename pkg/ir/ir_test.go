package ir

import (
	"errors"
	"reflect"
	"slices"
	"testing"
)

func TestGraph_BuilderNaming(t *testing.T) {
	g := NewGraph()
	x := g.Placeholder("x")
	a1 := g.CallFunction("add", []Arg{x, 1}, nil)
	a2 := g.CallFunction("add", []Arg{a1, 2}, nil)
	w := g.GetAttr("layers.fc.weight")
	sp := g.Placeholder("my input")

	if x.Name != "x" {
		t.Errorf("placeholder name = %s, want x", x.Name)
	}
	if a1.Name != "add" || a2.Name != "add_1" {
		t.Errorf("call names = %s, %s, want add, add_1", a1.Name, a2.Name)
	}
	if w.Name != "weight" {
		t.Errorf("get_attr name = %s, want weight (last path segment)", w.Name)
	}
	if w.Target != "layers.fc.weight" {
		t.Errorf("get_attr target = %s, want full path", w.Target)
	}
	if sp.Name != "my_input" {
		t.Errorf("sanitized name = %s, want my_input", sp.Name)
	}
}

func TestGraph_NameCollisionWithSuffix(t *testing.T) {
	g := NewGraph()
	g.Placeholder("v_1")
	first := g.CallFunction("v", nil, nil)
	second := g.CallFunction("v", nil, nil)

	if first.Name != "v" {
		t.Errorf("first name = %s, want v", first.Name)
	}
	// "v_1" is taken by the placeholder, so the counter must keep going.
	if second.Name != "v_2" {
		t.Errorf("second name = %s, want v_2", second.Name)
	}
}

func TestGraph_Lookup(t *testing.T) {
	g := NewGraph()
	x := g.Placeholder("x")
	n := g.CallFunction("neg", []Arg{x}, nil)
	g.Output(n)

	if got, ok := g.Node("neg"); !ok || got != n {
		t.Errorf("Node(neg) = %v, %v", got, ok)
	}
	if _, ok := g.Node("nope"); ok {
		t.Error("Node(nope) found a node")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	if g.Result() != Arg(n) {
		t.Error("Result() is not the value passed to Output")
	}
}

func TestGraph_PlaceholderOrder(t *testing.T) {
	g := NewGraph()
	g.Placeholder("b")
	g.CallFunction("noop", nil, nil)
	g.Placeholder("a")

	var names []string
	for _, p := range g.Placeholders() {
		names = append(names, p.Name)
	}
	if !slices.Equal(names, []string{"b", "a"}) {
		t.Errorf("Placeholders() = %v, want declaration order [b a]", names)
	}
}

func TestMapArgs_RewritesNestedReferences(t *testing.T) {
	g := NewGraph()
	x := g.Placeholder("x")
	y := g.Placeholder("y")

	in := []Arg{x, 42, map[string]Arg{"k": y, "lit": "s"}}
	out := MapArgs(in, func(n *Node) Arg { return n.Name })

	want := []Arg{"x", 42, map[string]Arg{"k": "y", "lit": "s"}}
	if !reflect.DeepEqual(out, Arg(want)) {
		t.Errorf("MapArgs = %v, want %v", out, want)
	}

	// The input structure must be untouched.
	if in[0] != Arg(x) {
		t.Error("MapArgs modified its input")
	}
}

func TestVisitNodes_DeterministicMapOrder(t *testing.T) {
	g := NewGraph()
	a := g.Placeholder("a")
	b := g.Placeholder("b")
	c := g.Placeholder("c")

	arg := map[string]Arg{"z": c, "m": b, "a": []Arg{a}}
	for i := 0; i < 10; i++ {
		var names []string
		VisitNodes(arg, func(n *Node) { names = append(names, n.Name) })
		if !slices.Equal(names, []string{"a", "b", "c"}) {
			t.Fatalf("VisitNodes order = %v, want sorted key order [a b c]", names)
		}
	}
}

func TestOpKind_String(t *testing.T) {
	pairs := map[OpKind]string{
		OpPlaceholder:  "placeholder",
		OpGetAttr:      "get_attr",
		OpCallFunction: "call_function",
		OpCallModule:   "call_module",
		OpOutput:       "output",
	}
	for k, want := range pairs {
		if got := k.String(); got != want {
			t.Errorf("%d.String() = %s, want %s", int(k), got, want)
		}
	}
}

func TestModule_Resolve(t *testing.T) {
	inner := NewModule(nil)
	inner.SetAttr("weight", 7)

	m := NewModule(nil)
	m.SetAttr("fc", inner)
	m.SetAttr("cfg", map[string]any{"depth": 3})
	m.SetAttr("a.b", "dotted")

	if v, err := m.Resolve([]string{"fc", "weight"}); err != nil || v != 7 {
		t.Errorf("Resolve(fc.weight) = %v, %v", v, err)
	}
	if v, err := m.Resolve([]string{"cfg", "depth"}); err != nil || v != 3 {
		t.Errorf("Resolve(cfg.depth) = %v, %v", v, err)
	}
	// A registration under the full dotted name wins over segment descent.
	if v, err := m.Resolve([]string{"a", "b"}); err != nil || v != "dotted" {
		t.Errorf("Resolve(a.b) = %v, %v", v, err)
	}

	if _, err := m.Resolve([]string{"fc", "bias"}); !errors.Is(err, ErrUnresolvedTarget) {
		t.Errorf("Resolve(fc.bias) error = %v, want ErrUnresolvedTarget", err)
	}
	if _, err := m.Resolve([]string{"cfg", "depth", "deeper"}); !errors.Is(err, ErrUnresolvedTarget) {
		t.Errorf("Resolve past a leaf error = %v, want ErrUnresolvedTarget", err)
	}
	if _, err := m.Resolve(nil); !errors.Is(err, ErrUnresolvedTarget) {
		t.Errorf("Resolve(empty) error = %v, want ErrUnresolvedTarget", err)
	}
}

func TestModule_AttrNames(t *testing.T) {
	m := NewModule(nil)
	m.SetAttr("b", 1)
	m.SetAttr("a", 2)
	m.SetAttr("b", 3) // replace keeps the original position

	if got := m.AttrNames(); !slices.Equal(got, []string{"b", "a"}) {
		t.Errorf("AttrNames = %v, want [b a]", got)
	}
	if v, _ := m.Attr("b"); v != 3 {
		t.Errorf("Attr(b) = %v, want 3", v)
	}
}

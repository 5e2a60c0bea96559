package graphio

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

func buildGraph() *ir.Graph {
	g := ir.NewGraph()
	x := g.Placeholder("x")
	w := g.GetAttr("fc.weight")
	mul := g.CallFunction("mul", []ir.Arg{x, w}, nil)
	act := g.CallModule("act", []ir.Arg{mul}, map[string]ir.Arg{"slope": "steep"})
	g.Output([]ir.Arg{act, mul})
	return g
}

func TestGraph_RoundTrip(t *testing.T) {
	g := buildGraph()

	data, err := json.Marshal(FromGraph(g))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	sg, err := UnmarshalGraph(data)
	if err != nil {
		t.Fatalf("UnmarshalGraph: %v", err)
	}
	got, err := ToGraph(sg)
	if err != nil {
		t.Fatalf("ToGraph: %v", err)
	}

	// The output node is folded into result, so counts must match exactly.
	if got.NodeCount() != g.NodeCount() {
		t.Fatalf("rebuilt graph has %d nodes, want %d", got.NodeCount(), g.NodeCount())
	}
	for i, orig := range g.Nodes() {
		n := got.Nodes()[i]
		if n.Name != orig.Name || n.Op != orig.Op || n.Target != orig.Target {
			t.Errorf("node %d = %s/%s/%s, want %s/%s/%s",
				i, n.Name, n.Op, n.Target, orig.Name, orig.Op, orig.Target)
		}
	}

	// Result must reference the rebuilt nodes, not the originals.
	list, ok := got.Result().([]ir.Arg)
	if !ok || len(list) != 2 {
		t.Fatalf("rebuilt result = %#v, want a 2-element list", got.Result())
	}
	act, _ := got.Node("act")
	if list[0] != ir.Arg(act) {
		t.Error("rebuilt result does not reference the rebuilt act node")
	}
}

func TestGraph_ZeroLiteralSurvives(t *testing.T) {
	g := ir.NewGraph()
	x := g.Placeholder("x")
	n := g.CallFunction("add", []ir.Arg{x, 0}, nil)
	g.Output(n)

	data, err := json.Marshal(FromGraph(g))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"lit"`)) {
		t.Fatalf("zero literal dropped from %s", data)
	}

	got, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	add, _ := got.Node("add")
	// JSON numbers decode as float64.
	if add.Args[1] != ir.Arg(float64(0)) {
		t.Errorf("literal decoded as %#v, want float64(0)", add.Args[1])
	}
}

func TestToGraph_Invalid(t *testing.T) {
	cases := []struct {
		name string
		in   Graph
	}{
		{"unknown op", Graph{Nodes: []Node{{Name: "n", Op: "teleport"}}}},
		{"output as node op", Graph{Nodes: []Node{{Name: "n", Op: "output"}}}},
		{"missing call target", Graph{Nodes: []Node{{Name: "n", Op: OpCallFunction}}}},
		{"missing attr target", Graph{Nodes: []Node{{Name: "n", Op: OpGetAttr}}}},
		{"undeclared reference", Graph{Nodes: []Node{
			{Name: "n", Op: OpCallFunction, Target: "f", Args: []Value{{Node: "ghost"}}},
		}}},
		{"forward reference", Graph{Nodes: []Node{
			{Name: "n", Op: OpCallFunction, Target: "f", Args: []Value{{Node: "later"}}},
			{Name: "later", Op: OpPlaceholder},
		}}},
	}
	for _, tc := range cases {
		if _, err := ToGraph(tc.in); !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("%s: error = %v, want ErrInvalidGraph", tc.name, err)
		}
	}
}

func TestReadJSON_Documented(t *testing.T) {
	const in = `{
	  "nodes": [
	    {"name": "x", "op": "placeholder"},
	    {"name": "neg", "op": "call_function", "target": "neg",
	     "args": [{"node": "x"}]}
	  ],
	  "result": {"node": "neg"}
	}`

	g, err := ReadJSON(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if g.NodeCount() != 3 { // placeholder, call, output
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	neg, ok := g.Node("neg")
	if !ok || g.Result() != ir.Arg(neg) {
		t.Error("result does not reference the neg node")
	}
}

func TestExportImportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	g := buildGraph()

	if err := ExportJSON(g, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if got.NodeCount() != g.NodeCount() {
		t.Errorf("imported graph has %d nodes, want %d", got.NodeCount(), g.NodeCount())
	}

	if _, err := ImportJSON(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("ImportJSON succeeded on a missing file")
	}
}

func TestModule_RoundTrip(t *testing.T) {
	subg := ir.NewGraph()
	sx := subg.Placeholder("sx")
	subg.Output(subg.CallFunction("neg", []ir.Arg{sx}, nil))
	sub := ir.NewModule(subg)
	sub.SetAttr("bias", 0.5)

	m := ir.NewModule(nil)
	m.SetAttr("submod_0", sub)
	m.SetAttr("rate", 3)
	m.SetAttr("act", ir.OpFunc(func(args []any, _ map[string]any) (any, error) {
		return args[0], nil
	}))

	var buf bytes.Buffer
	if err := WriteModuleJSON(m, &buf); err != nil {
		t.Fatalf("WriteModuleJSON: %v", err)
	}

	// Without the function table the callable cannot be restored.
	if _, err := ReadModuleJSON(bytes.NewReader(buf.Bytes()), nil); !errors.Is(err, ErrUnknownCallable) {
		t.Errorf("ReadModuleJSON error = %v, want ErrUnknownCallable", err)
	}

	funcs := map[string]ir.OpFunc{
		"act": func(args []any, _ map[string]any) (any, error) { return args[0], nil },
	}
	got, err := ReadModuleJSON(bytes.NewReader(buf.Bytes()), funcs)
	if err != nil {
		t.Fatalf("ReadModuleJSON: %v", err)
	}

	wantNames := []string{"submod_0", "rate", "act"}
	names := got.AttrNames()
	if len(names) != len(wantNames) {
		t.Fatalf("AttrNames = %v, want %v", names, wantNames)
	}
	for i := range wantNames {
		if names[i] != wantNames[i] {
			t.Errorf("AttrNames[%d] = %s, want %s", i, names[i], wantNames[i])
		}
	}

	sv, _ := got.Attr("submod_0")
	gotSub, ok := sv.(*ir.Module)
	if !ok {
		t.Fatalf("submod_0 decoded as %T, want *ir.Module", sv)
	}
	if gotSub.Graph() == nil || gotSub.Graph().NodeCount() != 3 {
		t.Error("sub-module graph lost in round trip")
	}
	if bias, _ := gotSub.Attr("bias"); bias != 0.5 {
		t.Errorf("sub-module bias = %v, want 0.5", bias)
	}
	if rate, _ := got.Attr("rate"); rate != float64(3) {
		t.Errorf("rate = %v (%T), want float64(3)", rate, rate)
	}
	if av, _ := got.Attr("act"); av == nil {
		t.Error("callable attribute not restored")
	}
}

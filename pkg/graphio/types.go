// Package graphio is the canonical serialization format for computation
// graphs and modules. It is used for API responses, storage, caching, and
// file-based import/export.
//
// The format is human-readable and designed for round-trip fidelity:
// import, transform, export, re-import produces an equivalent graph. Literal
// values pass through encoding/json, so numeric literals come back as
// float64 regardless of their original Go type.
package graphio

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

var (
	// ErrInvalidGraph is returned when decoded data cannot be rebuilt into a
	// well-formed graph: an unknown op kind, a reference to an undeclared
	// node, or a call without a target.
	ErrInvalidGraph = errors.New("invalid graph data")

	// ErrUnknownCallable is returned by [ToModule] when a serialized module
	// declares a callable attribute the supplied function table does not
	// provide. Callables serialize by name only.
	ErrUnknownCallable = errors.New("unknown callable attribute")
)

// Op kind names used on the wire.
const (
	OpPlaceholder  = "placeholder"
	OpGetAttr      = "get_attr"
	OpCallFunction = "call_function"
	OpCallModule   = "call_module"
)

var opFromString = map[string]ir.OpKind{
	OpPlaceholder:  ir.OpPlaceholder,
	OpGetAttr:      ir.OpGetAttr,
	OpCallFunction: ir.OpCallFunction,
	OpCallModule:   ir.OpCallModule,
}

// Graph is the serialization form of an ir.Graph. Nodes appear in evaluation
// order; the output node is folded into Result.
type Graph struct {
	Nodes  []Node `json:"nodes" bson:"nodes"`
	Result *Value `json:"result,omitempty" bson:"result,omitempty"`
}

// Node is one serialized operation.
type Node struct {
	Name   string           `json:"name" bson:"name"`
	Op     string           `json:"op" bson:"op"`
	Target string           `json:"target,omitempty" bson:"target,omitempty"`
	Args   []Value          `json:"args,omitempty" bson:"args,omitempty"`
	Kwargs map[string]Value `json:"kwargs,omitempty" bson:"kwargs,omitempty"`
}

// Value is a serialized argument: exactly one of Node (a reference by name),
// List, Map, or Lit is set. A zero Value decodes as a nil literal.
type Value struct {
	Node string           `json:"node,omitempty" bson:"node,omitempty"`
	List []Value          `json:"list,omitempty" bson:"list,omitempty"`
	Map  map[string]Value `json:"map,omitempty" bson:"map,omitempty"`
	Lit  *Literal         `json:"lit,omitempty" bson:"lit,omitempty"`
}

// Literal wraps a literal value so that zero values (0, false, "") survive
// omitempty on the enclosing [Value].
type Literal struct {
	Value any `json:"value" bson:"value"`
}

// Module is the serialization form of an ir.Module. Attrs is a slice so that
// registration order survives the round trip.
type Module struct {
	Graph *Graph `json:"graph,omitempty" bson:"graph,omitempty"`
	Attrs []Attr `json:"attrs,omitempty" bson:"attrs,omitempty"`
}

// Attr is one serialized module attribute: a nested module, a literal value,
// or a callable recorded by name only (Callable set, no payload).
type Attr struct {
	Name     string   `json:"name" bson:"name"`
	Module   *Module  `json:"module,omitempty" bson:"module,omitempty"`
	Value    *Literal `json:"value,omitempty" bson:"value,omitempty"`
	Callable bool     `json:"callable,omitempty" bson:"callable,omitempty"`
}

// FromGraph converts a graph to its serialization format.
func FromGraph(g *ir.Graph) Graph {
	out := Graph{}
	for _, n := range g.Nodes() {
		if n.Op == ir.OpOutput {
			continue
		}
		sn := Node{Name: n.Name, Op: n.Op.String(), Target: n.Target}
		if len(n.Args) > 0 {
			sn.Args = make([]Value, len(n.Args))
			for i, a := range n.Args {
				sn.Args[i] = fromArg(a)
			}
		}
		if len(n.Kwargs) > 0 {
			sn.Kwargs = make(map[string]Value, len(n.Kwargs))
			for k, a := range n.Kwargs {
				sn.Kwargs[k] = fromArg(a)
			}
		}
		out.Nodes = append(out.Nodes, sn)
	}
	if r := g.Result(); r != nil {
		v := fromArg(r)
		out.Result = &v
	}
	return out
}

// ToGraph rebuilds a graph from its serialization format. Node references
// resolve against previously declared nodes; forward references are invalid.
func ToGraph(sg Graph) (*ir.Graph, error) {
	g := ir.NewGraph()
	env := make(map[string]*ir.Node, len(sg.Nodes))

	for _, sn := range sg.Nodes {
		kind, ok := opFromString[sn.Op]
		if !ok {
			return nil, fmt.Errorf("%w: node %s has op %q", ErrInvalidGraph, sn.Name, sn.Op)
		}

		var args []ir.Arg
		if len(sn.Args) > 0 {
			args = make([]ir.Arg, len(sn.Args))
			for i, v := range sn.Args {
				a, err := toArg(v, env)
				if err != nil {
					return nil, fmt.Errorf("node %s: %w", sn.Name, err)
				}
				args[i] = a
			}
		}
		var kwargs map[string]ir.Arg
		if len(sn.Kwargs) > 0 {
			kwargs = make(map[string]ir.Arg, len(sn.Kwargs))
			for k, v := range sn.Kwargs {
				a, err := toArg(v, env)
				if err != nil {
					return nil, fmt.Errorf("node %s: %w", sn.Name, err)
				}
				kwargs[k] = a
			}
		}

		var n *ir.Node
		switch kind {
		case ir.OpPlaceholder:
			n = g.Placeholder(sn.Name)
		case ir.OpGetAttr:
			if sn.Target == "" {
				return nil, fmt.Errorf("%w: get_attr node %s has no target", ErrInvalidGraph, sn.Name)
			}
			n = g.GetAttr(sn.Target)
		case ir.OpCallFunction:
			if sn.Target == "" {
				return nil, fmt.Errorf("%w: call node %s has no target", ErrInvalidGraph, sn.Name)
			}
			n = g.CallFunction(sn.Target, args, kwargs)
		case ir.OpCallModule:
			if sn.Target == "" {
				return nil, fmt.Errorf("%w: call node %s has no target", ErrInvalidGraph, sn.Name)
			}
			n = g.CallModule(sn.Target, args, kwargs)
		}
		env[sn.Name] = n
	}

	if sg.Result != nil {
		r, err := toArg(*sg.Result, env)
		if err != nil {
			return nil, fmt.Errorf("result: %w", err)
		}
		g.Output(r)
	}
	return g, nil
}

// FromModule converts a module and its nested sub-modules to the
// serialization format. Callable attributes are recorded by name only.
func FromModule(m *ir.Module) Module {
	out := Module{}
	if g := m.Graph(); g != nil {
		sg := FromGraph(g)
		out.Graph = &sg
	}
	for _, name := range m.AttrNames() {
		v, _ := m.Attr(name)
		a := Attr{Name: name}
		switch av := v.(type) {
		case *ir.Module:
			sm := FromModule(av)
			a.Module = &sm
		case ir.OpFunc:
			a.Callable = true
		default:
			a.Value = &Literal{Value: av}
		}
		out.Attrs = append(out.Attrs, a)
	}
	return out
}

// ToModule rebuilds a module from its serialization format. Callable
// attributes are restored from funcs by attribute name; a callable with no
// entry in funcs fails with [ErrUnknownCallable].
func ToModule(sm Module, funcs map[string]ir.OpFunc) (*ir.Module, error) {
	var g *ir.Graph
	if sm.Graph != nil {
		var err error
		g, err = ToGraph(*sm.Graph)
		if err != nil {
			return nil, err
		}
	}
	m := ir.NewModule(g)
	for _, a := range sm.Attrs {
		switch {
		case a.Module != nil:
			sub, err := ToModule(*a.Module, funcs)
			if err != nil {
				return nil, fmt.Errorf("attr %s: %w", a.Name, err)
			}
			m.SetAttr(a.Name, sub)
		case a.Callable:
			fn, ok := funcs[a.Name]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownCallable, a.Name)
			}
			m.SetAttr(a.Name, fn)
		case a.Value != nil:
			m.SetAttr(a.Name, a.Value.Value)
		default:
			m.SetAttr(a.Name, nil)
		}
	}
	return m, nil
}

// UnmarshalGraph deserializes JSON bytes to a Graph.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

func fromArg(a ir.Arg) Value {
	switch v := a.(type) {
	case *ir.Node:
		return Value{Node: v.Name}
	case []ir.Arg:
		list := make([]Value, len(v))
		for i, e := range v {
			list[i] = fromArg(e)
		}
		return Value{List: list}
	case map[string]ir.Arg:
		m := make(map[string]Value, len(v))
		for k, e := range v {
			m[k] = fromArg(e)
		}
		return Value{Map: m}
	default:
		return Value{Lit: &Literal{Value: v}}
	}
}

func toArg(v Value, env map[string]*ir.Node) (ir.Arg, error) {
	switch {
	case v.Node != "":
		n, ok := env[v.Node]
		if !ok {
			return nil, fmt.Errorf("%w: reference to undeclared node %s", ErrInvalidGraph, v.Node)
		}
		return n, nil
	case v.List != nil:
		out := make([]ir.Arg, len(v.List))
		for i, e := range v.List {
			a, err := toArg(e, env)
			if err != nil {
				return nil, err
			}
			out[i] = a
		}
		return out, nil
	case v.Map != nil:
		out := make(map[string]ir.Arg, len(v.Map))
		for k, e := range v.Map {
			a, err := toArg(e, env)
			if err != nil {
				return nil, err
			}
			out[k] = a
		}
		return out, nil
	case v.Lit != nil:
		return v.Lit.Value, nil
	default:
		return nil, nil
	}
}

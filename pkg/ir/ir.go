package ir

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnresolvedTarget is returned by [Module.Resolve] when a path segment
	// does not exist on the module or on a nested value along the path.
	ErrUnresolvedTarget = errors.New("target not found")

	// ErrMissingInput is returned by [Interpret] when the input assignment
	// lacks a value for one of the graph's placeholders.
	ErrMissingInput = errors.New("missing graph input")

	// ErrUnknownOp is returned by [Interpret] when a call_function node names
	// an operation the registry does not provide.
	ErrUnknownOp = errors.New("unknown operation")

	// ErrNotCallable is returned by [Interpret] when a call_module node
	// resolves to an attribute that is neither a Module nor an OpFunc.
	ErrNotCallable = errors.New("attribute is not callable")
)

// OpKind identifies what a node does.
type OpKind int

const (
	// OpPlaceholder declares a graph input bound at invocation time.
	OpPlaceholder OpKind = iota
	// OpGetAttr references an attribute of the owning module by dotted path.
	OpGetAttr
	// OpCallFunction invokes an opaque operation identified by name.
	OpCallFunction
	// OpCallModule invokes a sub-module or callable attribute of the owning
	// module, resolved by dotted path.
	OpCallModule
	// OpOutput carries the graph's result expression.
	OpOutput
)

// String returns the serialization name of the kind.
func (k OpKind) String() string {
	switch k {
	case OpPlaceholder:
		return "placeholder"
	case OpGetAttr:
		return "get_attr"
	case OpCallFunction:
		return "call_function"
	case OpCallModule:
		return "call_module"
	case OpOutput:
		return "output"
	default:
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
}

// Node is one operation in a graph. Nodes are created by the [Graph] builder
// methods and must be treated as read-only afterwards; graphs are append-only
// and node identity (the pointer) is what transformations key on.
type Node struct {
	Name   string         // unique within the owning graph
	Op     OpKind         // what the node does
	Target string         // operation name or dotted attribute path
	Args   []Arg          // ordered arguments
	Kwargs map[string]Arg // keyword arguments (may be nil)
}

// Graph is an append-only computation graph: a sequence of nodes in
// evaluation order plus a result expression set by [Graph.Output].
//
// The zero value is not usable - use NewGraph. Graph is not safe for
// concurrent use without external synchronization.
type Graph struct {
	nodes  []*Node
	byName map[string]*Node
	used   map[string]bool
	result Arg
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		byName: make(map[string]*Node),
		used:   make(map[string]bool),
	}
}

// Nodes returns the graph's nodes in evaluation order. The returned slice
// shares node pointers with the graph - use it as a read-only view.
func (g *Graph) Nodes() []*Node { return g.nodes }

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// Node returns the node with the given name and true, or nil and false.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.byName[name]
	return n, ok
}

// Result returns the graph's result expression, or nil if Output has not
// been called yet.
func (g *Graph) Result() Arg { return g.result }

// Placeholders returns the graph's placeholder nodes in declaration order.
// This order defines the positional calling convention used by [Invoke].
func (g *Graph) Placeholders() []*Node {
	var phs []*Node
	for _, n := range g.nodes {
		if n.Op == OpPlaceholder {
			phs = append(phs, n)
		}
	}
	return phs
}

// Placeholder appends a graph input with the given name.
func (g *Graph) Placeholder(name string) *Node {
	return g.append(OpPlaceholder, name, name, nil, nil)
}

// GetAttr appends a reference to the owning module attribute at path
// (dotted, e.g. "sub.param").
func (g *Graph) GetAttr(path string) *Node {
	return g.append(OpGetAttr, lastSegment(path), path, nil, nil)
}

// CallFunction appends a call to the named opaque operation.
func (g *Graph) CallFunction(op string, args []Arg, kwargs map[string]Arg) *Node {
	return g.append(OpCallFunction, op, op, args, kwargs)
}

// CallModule appends a call to the owning module attribute at path.
func (g *Graph) CallModule(path string, args []Arg, kwargs map[string]Arg) *Node {
	return g.append(OpCallModule, lastSegment(path), path, args, kwargs)
}

// Output appends the graph's output node and records result as the graph's
// result expression. A graph has at most one meaningful output; calling
// Output again replaces the result expression.
func (g *Graph) Output(result Arg) *Node {
	g.result = result
	return g.append(OpOutput, "output", "output", []Arg{result}, nil)
}

// append creates a node with a uniquified name derived from base.
func (g *Graph) append(op OpKind, base, target string, args []Arg, kwargs map[string]Arg) *Node {
	n := &Node{
		Name:   g.newName(base),
		Op:     op,
		Target: target,
		Args:   args,
		Kwargs: kwargs,
	}
	g.nodes = append(g.nodes, n)
	g.byName[n.Name] = n
	return n
}

// newName sanitizes base into an identifier and suffixes it with a counter
// until it is unused within the graph.
func (g *Graph) newName(base string) string {
	base = sanitizeName(base)
	name := base
	for i := 1; g.used[name]; i++ {
		name = fmt.Sprintf("%s_%d", base, i)
	}
	g.used[name] = true
	return name
}

func sanitizeName(s string) string {
	if s == "" {
		return "node"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

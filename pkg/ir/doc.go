// Package ir defines the computation-graph intermediate representation used
// throughout graphsplit.
//
// A [Graph] is an append-only sequence of operation nodes in evaluation
// order, terminated by a result expression. Each [Node] has one of five
// kinds:
//
//   - placeholder: a graph input, bound at invocation time
//   - get_attr: a reference to an attribute of the owning module
//   - call_function: an opaque operation identified by name
//   - call_module: a call to a sub-module resolved on the owning module
//   - output: the graph's result expression
//
// Node arguments are [Arg] values: references to earlier nodes, literals, or
// nested slices and maps of those. [MapArgs] and [VisitNodes] walk argument
// structures without the caller caring about nesting.
//
// A [Module] pairs a graph with an attribute table holding sub-modules,
// lifted parameter values, and callable targets. Modules resolve dotted
// attribute paths and can be evaluated directly with [Invoke] against an
// operation registry, which is how tests establish that a transformed graph
// behaves like its original.
//
// Graphs are built through the [Graph] methods and never mutated afterwards:
//
//	g := ir.NewGraph()
//	x := g.Placeholder("x")
//	p := g.GetAttr("param")
//	sum := g.CallFunction("add", []ir.Arg{x, p}, nil)
//	g.Output(sum)
package ir

// Package split partitions a computation graph into named groups and rebuilds
// an equivalent top-level graph that calls one sub-module per group.
//
// The caller supplies an assignment function mapping each node to a group
// name. [Split] discovers every value that crosses a group boundary, orders
// the groups by their data dependencies, builds a self-contained sub-graph
// per group, and emits a new top-level graph that invokes the sub-graphs in
// dependency order. The rebuilt module computes exactly what the original
// graph computed, for all inputs.
//
//	mod, err := split.Split(g, root, func(n *ir.Node) string {
//	    return groupFor(n)
//	})
//
// Placeholder and attribute-reference nodes are never assigned to a group;
// each sub-graph re-declares the external values it consumes as its own
// inputs. Sub-modules are registered on the result under "submod_<group>".
//
// The transformation is a pure function of its inputs: the original graph is
// never mutated, and repeated calls with the same arguments produce
// structurally identical results. A cyclic group dependency structure is
// reported with [ErrPartitionCycle]; no partial result is produced.
//
// [Analyze] runs discovery and ordering alone, returning per-group metadata
// without building any graphs. It is what the CLI uses to render partition
// dependency diagrams.
package split

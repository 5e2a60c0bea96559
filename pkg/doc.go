// Package pkg provides the core libraries for graphsplit.
//
// # Overview
//
// Graphsplit partitions a traced computation graph into named groups and
// rebuilds an observationally equivalent module that calls one sub-module
// per group. The pkg directory is organized into:
//
//  1. [ir] - Graph model: nodes, modules, attribute resolution, interpreter
//  2. [split] - Partitioning: discovery, ordering, sub-graph construction,
//     top-level rebuild
//  3. [graphio] - Canonical JSON serialization of graphs and modules
//  4. [pipeline] - Orchestration (load → split → render) with caching
//  5. [render] - DOT/SVG diagrams of graphs and partition dependencies
//  6. [cache], [store] - Byte cache backends and the persisted run store
//
// # Architecture
//
// The typical data flow:
//
//	graph JSON
//	     ↓
//	[graphio] decode into an ir.Graph
//	     ↓
//	[split] discover partitions, order them, rebuild as sub-modules
//	     ↓
//	[render] / [graphio] DOT, SVG, or JSON output
//
// # Quick Start
//
//	g, err := graphio.ImportJSON("model.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mod, err := split.Split(g, ir.NewModule(g), split.RoundRobin(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := ir.Invoke(mod, ops.Registry(), 3.0, 4.0)
package pkg

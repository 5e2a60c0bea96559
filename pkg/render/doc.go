// Package render produces visual output for computation graphs and split
// results.
//
// # Overview
//
// This package generates directed graph visualizations using Graphviz, where
// nodes appear as boxes connected by arrows. Two diagram types are
// supported: the node-level computation graph and the partition dependency
// diagram produced by a split.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := render.GraphDOT(g, render.Options{Detailed: false})
//	svg, err := render.SVG(dot)
//
// Partition dependency diagrams work the same way:
//
//	dot := render.PartitionDOT(parts, render.Options{Detailed: true})
//	svg, err := render.SVG(dot)
//
// # DOT Format
//
// The DOT source produced by [GraphDOT] and [PartitionDOT] can be:
//
//   - Rendered directly via [SVG]
//   - Saved and processed with external Graphviz tools
//   - Customized before rendering
//
// The generated DOT uses top-to-bottom layout (rankdir=TB), matching
// evaluation order.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
package render

package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/graphsplit/pkg/ir"
	"github.com/matzehuels/graphsplit/pkg/split"
)

// Options configures diagram generation.
type Options struct {
	// Detailed includes op kinds and targets in node labels, and member
	// lists in partition labels. When false, only names are shown.
	Detailed bool
}

// GraphDOT converts a computation graph to Graphviz DOT format. Each node
// becomes a box; an edge is drawn from every value to each node that
// consumes it. Placeholders and attribute references get distinct styling so
// graph inputs are visible at a glance.
func GraphDOT(g *ir.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := nodeLabel(n, opts.Detailed)
		attrs := nodeAttrs(n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, n := range g.Nodes() {
		for _, a := range n.Args {
			ir.VisitNodes(a, func(d *ir.Node) {
				fmt.Fprintf(&buf, "  %q -> %q;\n", d.Name, n.Name)
			})
		}
		ir.VisitNodes(n.Kwargs, func(d *ir.Node) {
			fmt.Fprintf(&buf, "  %q -> %q;\n", d.Name, n.Name)
		})
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *ir.Node, detailed bool) string {
	if !detailed {
		return n.Name
	}
	parts := []string{fmt.Sprintf("op: %s", n.Op)}
	if n.Target != "" && n.Target != n.Name {
		parts = append(parts, fmt.Sprintf("target: %s", n.Target))
	}
	return n.Name + "\n" + strings.Join(parts, "\n")
}

func nodeAttrs(n *ir.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Op {
	case ir.OpPlaceholder:
		attrs = append(attrs, "fillcolor=lightyellow")
	case ir.OpGetAttr:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey")
	case ir.OpCallModule:
		attrs = append(attrs, "fillcolor=lightblue")
	case ir.OpOutput:
		attrs = append(attrs, "shape=doubleoctagon")
	}
	return attrs
}

// PartitionDOT converts split partition metadata to Graphviz DOT format.
// Each partition becomes one box; an edge is drawn for each dependency, so
// the diagram shows the order sub-modules run in.
func PartitionDOT(parts []split.Partition, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph partitions {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=lightblue, fontsize=24, margin=\"0.25,0.15\"];\n")
	buf.WriteString("\n")

	for _, p := range parts {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", p.Name, partitionLabel(p, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, p := range parts {
		for _, dep := range p.DependsOn {
			fmt.Fprintf(&buf, "  %q -> %q;\n", dep, p.Name)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func partitionLabel(p split.Partition, detailed bool) string {
	name := split.SubmodulePrefix + p.Name
	if !detailed {
		return name
	}
	parts := []string{
		fmt.Sprintf("nodes: %s", strings.Join(p.Members, ", ")),
		fmt.Sprintf("in: %s", strings.Join(p.Inputs, ", ")),
		fmt.Sprintf("out: %s", strings.Join(p.Outputs, ", ")),
	}
	return name + "\n" + strings.Join(parts, "\n")
}

package split

import (
	"errors"
	"fmt"
	"strings"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

var (
	// ErrPartitionCycle is returned by [Split] and [Analyze] when the group
	// dependency structure induced by the assignment function is not acyclic.
	// No usable result exists in that case; the transformation aborts.
	ErrPartitionCycle = errors.New("cycle between partitions")

	// ErrCorruptEnvironment is returned when an argument reference has no
	// entry in a partition's environment during cloning. This indicates an
	// internal invariant violation, not a problem with the input graph.
	ErrCorruptEnvironment = errors.New("value missing from partition environment")
)

// SubmodulePrefix is prepended to a group name to form the attribute under
// which its sub-module is registered on the rebuilt module.
const SubmodulePrefix = "submod_"

// GroupFunc assigns a node to a group. It must be total over all
// call-kind nodes of the graph and is never invoked for placeholder,
// get_attr, or output nodes. Any state a particular assignment policy needs
// belongs to the caller, typically captured in the closure.
type GroupFunc func(n *ir.Node) string

// Resolver resolves a dotted attribute path to a concrete value. It must be
// side-effect free and idempotent: Split may resolve the same path once per
// partition that uses it. *ir.Module implements Resolver.
type Resolver interface {
	Resolve(path []string) (any, error)
}

// Split partitions g's call nodes into groups named by groupOf and returns a
// module whose graph calls one sub-module per group, in dependency order,
// computing the same result as g for every input.
//
// Targets of call_module nodes are resolved against root and re-registered
// on the sub-module that calls them; get_attr values are resolved and lifted
// onto the returned module under their original dotted path. Resolution
// failures abort the transformation with the resolver's error.
//
// The original graph is never modified and can be split again with a
// different assignment.
func Split(g *ir.Graph, root Resolver, groupOf GroupFunc) (*ir.Module, error) {
	s := newSplitter(g, root, groupOf)
	s.discover()
	order, err := s.topoOrder()
	if err != nil {
		return nil, err
	}
	if err := s.build(order); err != nil {
		return nil, err
	}
	return s.rebuild(order)
}

// partition accumulates one group during the transformation.
type partition struct {
	name        string
	members     []string
	inputs      *orderedSet
	outputs     *orderedSet
	dependsOn   *orderedSet
	dependents  *orderedSet
	graph       *ir.Graph
	env         map[*ir.Node]*ir.Node
	targets     map[string]any
	targetOrder []string
}

func newPartition(name string) *partition {
	return &partition{
		name:       name,
		inputs:     newOrderedSet(),
		outputs:    newOrderedSet(),
		dependsOn:  newOrderedSet(),
		dependents: newOrderedSet(),
		graph:      ir.NewGraph(),
		env:        make(map[*ir.Node]*ir.Node),
		targets:    make(map[string]any),
	}
}

type splitter struct {
	graph   *ir.Graph
	root    Resolver
	groupOf GroupFunc

	parts      map[string]*partition
	discovered []string            // partition names in first-use order
	membership map[*ir.Node]string // node -> partition name; absent = no group
	origByName map[string]*ir.Node // original nodes by name
}

func newSplitter(g *ir.Graph, root Resolver, groupOf GroupFunc) *splitter {
	return &splitter{
		graph:      g,
		root:       root,
		groupOf:    groupOf,
		parts:      make(map[string]*partition),
		membership: make(map[*ir.Node]string),
		origByName: make(map[string]*ir.Node),
	}
}

// partition returns the group with the given name, creating it on first use.
func (s *splitter) partition(name string) *partition {
	p, ok := s.parts[name]
	if !ok {
		p = newPartition(name)
		s.parts[name] = p
		s.discovered = append(s.discovered, name)
	}
	return p
}

// discover assigns every call node to a group and records each value that
// crosses a group boundary, including values feeding the result expression.
func (s *splitter) discover() {
	for _, n := range s.graph.Nodes() {
		s.origByName[n.Name] = n

		// Placeholders and attribute references are re-declared per
		// consumer later; the output node is handled via the result
		// expression below.
		switch n.Op {
		case ir.OpPlaceholder, ir.OpGetAttr, ir.OpOutput:
			continue
		}

		p := s.partition(s.groupOf(n))
		p.members = append(p.members, n.Name)
		s.membership[n] = p.name

		for _, a := range n.Args {
			ir.VisitNodes(a, func(d *ir.Node) { s.recordCrossUse(d, n) })
		}
		ir.VisitNodes(n.Kwargs, func(d *ir.Node) { s.recordCrossUse(d, n) })
	}

	// The result expression consumes values from outside every group.
	ir.VisitNodes(s.graph.Result(), func(d *ir.Node) { s.recordCrossUse(d, nil) })
}

// recordCrossUse classifies the def→use edge. Same-group edges are internal
// and ignored; everything else marks an output on the producing group and an
// input on the consuming one, plus the corresponding dependency edge.
func (s *splitter) recordCrossUse(def, use *ir.Node) {
	defPart := s.membership[def]
	var usePart string
	if use != nil {
		usePart = s.membership[use]
	}
	if defPart == usePart {
		return
	}

	if defPart != "" {
		dp := s.parts[defPart]
		dp.outputs.add(def.Name)
		if usePart != "" {
			dp.dependents.add(usePart)
		}
	}
	if usePart != "" {
		up := s.parts[usePart]
		up.inputs.add(def.Name)
		if defPart != "" {
			up.dependsOn.add(defPart)
		}
	}
}

// topoOrder returns every partition name ordered so that each appears after
// all partitions it depends on. Ties between simultaneously-ready partitions
// break deterministically by first-discovery order: the worklist is seeded
// in discovery order and consumed FIFO.
//
// topoOrder consumes the dependsOn sets.
func (s *splitter) topoOrder() ([]string, error) {
	var queue []string
	for _, name := range s.discovered {
		if s.parts[name].dependsOn.len() == 0 {
			queue = append(queue, name)
		}
	}

	sorted := make([]string, 0, len(s.parts))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		sorted = append(sorted, name)

		for _, dep := range s.parts[name].dependents.values() {
			d := s.parts[dep]
			d.dependsOn.remove(name)
			if d.dependsOn.len() == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(s.parts) {
		return nil, fmt.Errorf("%w: only %d of %d partitions orderable", ErrPartitionCycle, len(sorted), len(s.parts))
	}
	return sorted, nil
}

// build constructs each partition's sub-graph: declare placeholders for its
// inputs, clone its members with arguments rewritten through the
// environment, then attach the output.
func (s *splitter) build(order []string) error {
	for _, name := range order {
		p := s.parts[name]
		for _, in := range p.inputs.values() {
			p.env[s.origByName[in]] = p.graph.Placeholder(in)
		}
	}

	// One walk over the whole original graph keeps each sub-graph's nodes
	// in original evaluation order.
	for _, n := range s.graph.Nodes() {
		name, ok := s.membership[n]
		if !ok {
			continue
		}
		if err := s.clone(s.parts[name], n); err != nil {
			return err
		}
	}

	for _, name := range order {
		p := s.parts[name]
		outs := p.outputs.values()
		vals := make([]ir.Arg, len(outs))
		for i, out := range outs {
			vals[i] = p.env[s.origByName[out]]
		}
		// A single-output sub-graph returns the bare value so that
		// downstream consumers see exactly what the original produced;
		// multi-output sub-graphs return a tuple unpacked by the caller.
		if len(vals) == 1 {
			p.graph.Output(vals[0])
		} else {
			p.graph.Output(vals)
		}
	}
	return nil
}

// clone appends n's counterpart to p's sub-graph. Call-module targets are
// resolved against the root, recorded in the partition's target registry
// under their full path, and rewritten to their final segment.
func (s *splitter) clone(p *partition, n *ir.Node) error {
	args, err := s.translate(p, n, n.Args)
	var kwargs map[string]ir.Arg
	if err == nil && len(n.Kwargs) > 0 {
		kwargs, err = s.translateKwargs(p, n, n.Kwargs)
	}
	if err != nil {
		return err
	}

	target := n.Target
	if n.Op == ir.OpCallModule {
		path := strings.Split(n.Target, ".")
		v, err := s.root.Resolve(path)
		if err != nil {
			return fmt.Errorf("resolve target %s: %w", n.Target, err)
		}
		if _, ok := p.targets[n.Target]; !ok {
			p.targetOrder = append(p.targetOrder, n.Target)
		}
		p.targets[n.Target] = v
		target = path[len(path)-1]
	}

	var clone *ir.Node
	if n.Op == ir.OpCallModule {
		clone = p.graph.CallModule(target, args, kwargs)
	} else {
		clone = p.graph.CallFunction(target, args, kwargs)
	}
	p.env[n] = clone
	return nil
}

func (s *splitter) translate(p *partition, owner *ir.Node, args []ir.Arg) ([]ir.Arg, error) {
	var missing *ir.Node
	out := make([]ir.Arg, len(args))
	for i, a := range args {
		out[i] = ir.MapArgs(a, func(d *ir.Node) ir.Arg {
			nn, ok := p.env[d]
			if !ok && missing == nil {
				missing = d
			}
			return nn
		})
	}
	if missing != nil {
		return nil, fmt.Errorf("%w: %s needed by %s in partition %s", ErrCorruptEnvironment, missing.Name, owner.Name, p.name)
	}
	return out, nil
}

func (s *splitter) translateKwargs(p *partition, owner *ir.Node, kwargs map[string]ir.Arg) (map[string]ir.Arg, error) {
	out := make(map[string]ir.Arg, len(kwargs))
	for k, a := range kwargs {
		v, err := s.translate(p, owner, []ir.Arg{a})
		if err != nil {
			return nil, err
		}
		out[k] = v[0]
	}
	return out, nil
}

// rebuild emits the replacement top-level graph: original placeholders and
// attribute references re-declared in original order, one sub-module call
// per partition in topological order, and the original result expression
// translated to the new value names.
func (s *splitter) rebuild(order []string) (*ir.Module, error) {
	base := ir.NewGraph()
	mod := ir.NewModule(base)
	baseEnv := make(map[string]ir.Arg)

	for _, n := range s.graph.Nodes() {
		switch n.Op {
		case ir.OpPlaceholder:
			baseEnv[n.Name] = base.Placeholder(n.Name)
		case ir.OpGetAttr:
			baseEnv[n.Name] = base.GetAttr(n.Target)
			v, err := s.root.Resolve(strings.Split(n.Target, "."))
			if err != nil {
				return nil, fmt.Errorf("resolve attribute %s: %w", n.Target, err)
			}
			mod.SetAttr(n.Target, v)
		}
	}

	for _, name := range order {
		p := s.parts[name]

		sub := ir.NewModule(p.graph)
		for _, path := range p.targetOrder {
			sub.SetAttr(lastSegment(path), p.targets[path])
		}
		subName := SubmodulePrefix + p.name
		mod.SetAttr(subName, sub)

		ins := p.inputs.values()
		args := make([]ir.Arg, len(ins))
		for i, in := range ins {
			v, ok := baseEnv[in]
			if !ok {
				return nil, fmt.Errorf("%w: %s feeding partition %s", ErrCorruptEnvironment, in, p.name)
			}
			args[i] = v
		}
		call := base.CallModule(subName, args, nil)

		outs := p.outputs.values()
		if len(outs) > 1 {
			for i, out := range outs {
				baseEnv[out] = base.CallFunction(ir.GetItemOp, []ir.Arg{call, i}, nil)
			}
		} else if len(outs) == 1 {
			baseEnv[outs[0]] = call
		}
	}

	var missing string
	result := ir.MapArgs(s.graph.Result(), func(d *ir.Node) ir.Arg {
		v, ok := baseEnv[d.Name]
		if !ok && missing == "" {
			missing = d.Name
		}
		return v
	})
	if missing != "" {
		return nil, fmt.Errorf("%w: result value %s", ErrCorruptEnvironment, missing)
	}
	base.Output(result)

	return mod, nil
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		return path[i+1:]
	}
	return path
}

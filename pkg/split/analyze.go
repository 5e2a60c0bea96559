package split

import (
	"slices"
	"strconv"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

// Partition describes one group after discovery and ordering. All slices are
// copies in deterministic order: Members in original evaluation order,
// Inputs and Outputs in first-crossing order, DependsOn and Dependents in
// first-edge order.
type Partition struct {
	Name       string
	Members    []string
	Inputs     []string
	Outputs    []string
	DependsOn  []string
	Dependents []string
}

// Analyze runs dependency discovery and topological ordering for the given
// assignment without building any graphs, returning one [Partition] per
// group in topological order. It fails with [ErrPartitionCycle] exactly when
// [Split] would.
func Analyze(g *ir.Graph, groupOf GroupFunc) ([]Partition, error) {
	s := newSplitter(g, nil, groupOf)
	s.discover()

	// Snapshot before ordering: topoOrder consumes the dependsOn sets.
	snapshots := make(map[string]Partition, len(s.parts))
	for name, p := range s.parts {
		snapshots[name] = Partition{
			Name:       name,
			Members:    slices.Clone(p.members),
			Inputs:     slices.Clone(p.inputs.values()),
			Outputs:    slices.Clone(p.outputs.values()),
			DependsOn:  slices.Clone(p.dependsOn.values()),
			Dependents: slices.Clone(p.dependents.values()),
		}
	}

	order, err := s.topoOrder()
	if err != nil {
		return nil, err
	}

	out := make([]Partition, len(order))
	for i, name := range order {
		out[i] = snapshots[name]
	}
	return out, nil
}

// RoundRobin returns an assignment policy that deals nodes into groups
// "0" .. strconv.Itoa(groups-1) in rotation. The rotation counter lives in
// the returned closure, so each call to RoundRobin starts a fresh cycle; the
// partitioner itself holds no policy state.
func RoundRobin(groups int) GroupFunc {
	next := 0
	return func(*ir.Node) string {
		g := next % groups
		next = (next + 1) % groups
		return strconv.Itoa(g)
	}
}

package ir

import (
	"fmt"
	"slices"
	"strings"
)

// Module pairs a graph with an attribute table. Attributes hold sub-modules,
// lifted parameter values, and callable targets; they are what get_attr and
// call_module nodes resolve against.
//
// A module without a graph (NewModule(nil)) is a plain attribute container,
// useful as the root object a transformation resolves targets on.
type Module struct {
	graph *Graph
	attrs map[string]any
	names []string
}

// NewModule creates a module owning the given graph. The graph may be nil
// for attribute-only containers.
func NewModule(g *Graph) *Module {
	return &Module{graph: g, attrs: make(map[string]any)}
}

// Graph returns the module's graph, or nil for attribute-only modules.
func (m *Module) Graph() *Graph { return m.graph }

// SetAttr registers an attribute under name. Names may be dotted paths; they
// are stored as given. Setting an existing name replaces its value.
func (m *Module) SetAttr(name string, v any) {
	if _, ok := m.attrs[name]; !ok {
		m.names = append(m.names, name)
	}
	m.attrs[name] = v
}

// Attr returns the attribute registered under exactly name.
func (m *Module) Attr(name string) (any, bool) {
	v, ok := m.attrs[name]
	return v, ok
}

// AttrNames returns all attribute names in registration order.
func (m *Module) AttrNames() []string { return slices.Clone(m.names) }

// Resolve walks path segment by segment and returns the value it names.
// A registration under the full dotted path takes precedence; otherwise each
// segment is looked up on the value reached so far, which must be a *Module
// or a map[string]any to descend further.
//
// Returns an error wrapping [ErrUnresolvedTarget] when any segment is
// absent. Resolve is side-effect free and may be called repeatedly for the
// same path.
func (m *Module) Resolve(path []string) (any, error) {
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrUnresolvedTarget)
	}
	if v, ok := m.attrs[strings.Join(path, ".")]; ok {
		return v, nil
	}

	var cur any = m
	for i, seg := range path {
		switch c := cur.(type) {
		case *Module:
			v, ok := c.attrs[seg]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnresolvedTarget, strings.Join(path[:i+1], "."))
			}
			cur = v
		case map[string]any:
			v, ok := c[seg]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnresolvedTarget, strings.Join(path[:i+1], "."))
			}
			cur = v
		default:
			return nil, fmt.Errorf("%w: %s does not support attribute lookup", ErrUnresolvedTarget, strings.Join(path[:i], "."))
		}
	}
	return cur, nil
}

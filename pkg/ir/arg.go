package ir

import (
	"maps"
	"slices"
)

// Arg is a node argument: a *Node reference to an earlier node, a literal
// value, or a nested []Arg or map[string]Arg structure of those.
type Arg any

// MapArgs returns a copy of a with every node reference replaced by fn's
// result. Nested slices and maps are rebuilt; literals pass through
// unchanged. The input is never modified.
func MapArgs(a Arg, fn func(*Node) Arg) Arg {
	switch v := a.(type) {
	case *Node:
		return fn(v)
	case []Arg:
		out := make([]Arg, len(v))
		for i, e := range v {
			out[i] = MapArgs(e, fn)
		}
		return out
	case map[string]Arg:
		out := make(map[string]Arg, len(v))
		for k, e := range v {
			out[k] = MapArgs(e, fn)
		}
		return out
	default:
		return a
	}
}

// VisitNodes calls fn for every node reference in a, depth-first. Map entries
// are visited in sorted key order so that traversal is deterministic.
func VisitNodes(a Arg, fn func(*Node)) {
	switch v := a.(type) {
	case *Node:
		fn(v)
	case []Arg:
		for _, e := range v {
			VisitNodes(e, fn)
		}
	case map[string]Arg:
		for _, k := range slices.Sorted(maps.Keys(v)) {
			VisitNodes(v[k], fn)
		}
	}
}

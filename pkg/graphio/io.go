package graphio

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/graphsplit/pkg/ir"
)

// WriteJSON encodes a graph as indented JSON and writes it to w. The output
// can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(g *ir.Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromGraph(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSON decodes a JSON graph from r.
//
// The input must be a JSON object with a "nodes" array and an optional
// "result" value:
//
//	{
//	  "nodes": [
//	    {"name": "x", "op": "placeholder"},
//	    {"name": "neg", "op": "call_function", "target": "neg",
//	     "args": [{"node": "x"}]}
//	  ],
//	  "result": {"node": "neg"}
//	}
//
// Nodes must appear in evaluation order; an argument may only reference a
// node declared earlier. Decoding failures wrap [ErrInvalidGraph] with the
// offending node's name. ReadJSON does not close r.
func ReadJSON(r io.Reader) (*ir.Graph, error) {
	var data Graph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToGraph(data)
}

// ExportJSON writes a graph to a JSON file at path.
func ExportJSON(g *ir.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(g, f)
}

// ImportJSON reads a JSON file at path and returns the decoded graph. It
// returns the same validation errors as [ReadJSON], wrapped with the file
// path for context.
func ImportJSON(path string) (*ir.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	return g, nil
}

// WriteModuleJSON encodes a module, its sub-modules, and its attribute table
// as indented JSON. Callable attributes are recorded by name only.
func WriteModuleJSON(m *ir.Module, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromModule(m)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadModuleJSON decodes a JSON module from r, restoring callable attributes
// from funcs by name.
func ReadModuleJSON(r io.Reader, funcs map[string]ir.OpFunc) (*ir.Module, error) {
	var data Module
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToModule(data, funcs)
}

// Package pipeline provides the core load → split → render pipeline for
// graphsplit.
//
// This package implements the complete pipeline that can be used by CLI,
// API, and worker components. By centralizing this logic, we ensure
// consistent behavior across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read and decode a computation graph from a file or inline JSON
//  2. Split: Partition the graph per the assignment policy and rebuild an
//     equivalent module of sub-modules
//  3. Render: Generate output in various formats (DOT, SVG, JSON)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    GraphPath: "model.json",
//	    Policy:    pipeline.PolicyRoundRobin,
//	    Groups:    3,
//	    Formats:   []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	g, err := runner.Load(ctx, opts)
//
//	// Split an existing graph
//	mod, parts, err := runner.Split(ctx, g, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphsplit/pkg/cache"
	apperrors "github.com/matzehuels/graphsplit/pkg/errors"
	"github.com/matzehuels/graphsplit/pkg/ir"
	"github.com/matzehuels/graphsplit/pkg/split"
)

// Assignment policies.
const (
	// PolicyRoundRobin deals call nodes into Groups groups in rotation.
	PolicyRoundRobin = "roundrobin"

	// PolicyTable assigns nodes from an explicit node-to-group table.
	PolicyTable = "table"
)

// ValidPolicies is the set of supported assignment policies.
var ValidPolicies = map[string]bool{
	PolicyRoundRobin: true,
	PolicyTable:      true,
}

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// Defaults applied by ValidateAndSetDefaults.
const (
	// DefaultPolicy is the assignment policy used when none is given.
	DefaultPolicy = PolicyRoundRobin

	// DefaultGroups is the round-robin group count used when none is given.
	DefaultGroups = 2

	// DefaultGroup receives table-assigned nodes the table does not name.
	DefaultGroup = "rest"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the split pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	GraphPath string `json:"graph_path,omitempty"` // graph JSON file to import
	GraphJSON []byte `json:"graph_json,omitempty"` // inline graph JSON (wins over GraphPath)
	Refresh   bool   `json:"refresh,omitempty"`    // bypass the load cache

	// Split options
	Policy     string            `json:"policy,omitempty"`
	Groups     int               `json:"groups,omitempty"`     // round-robin group count
	Assignment map[string]string `json:"assignment,omitempty"` // node name -> group, for PolicyTable

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // verbose diagram labels

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	Root   *ir.Module  `json:"-"` // target resolver; defaults to a module owning the graph

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID uniquely identifies this execution.
	RunID string

	// Graph is the loaded computation graph.
	Graph *ir.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Module is the rebuilt module calling one sub-module per partition.
	Module *ir.Module

	// Partitions holds per-group metadata in topological order.
	Partitions []split.Partition

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount      int
	PartitionCount int
	LoadTime       time.Duration
	SplitTime      time.Duration
	RenderTime     time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LoadHit   bool // Whether the decoded graph came from cache
	SplitHit  bool // Whether the split module came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePolicy checks that an assignment policy is valid.
func ValidatePolicy(policy string) error {
	if !ValidPolicies[policy] {
		return fmt.Errorf("invalid policy: %q (must be one of: roundrobin, table)", policy)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSplit(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading a graph.
func (o *Options) ValidateForLoad() error {
	if len(o.GraphJSON) == 0 && o.GraphPath == "" {
		return fmt.Errorf("graph_path or graph_json is required")
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// ValidateForSplit validates and sets defaults for the split stage.
func (o *Options) ValidateForSplit() error {
	if o.Policy == "" {
		o.Policy = DefaultPolicy
	}
	if err := ValidatePolicy(o.Policy); err != nil {
		return err
	}

	switch o.Policy {
	case PolicyRoundRobin:
		if o.Groups == 0 {
			o.Groups = DefaultGroups
		}
		if o.Groups < 1 {
			return fmt.Errorf("groups must be at least 1, got %d", o.Groups)
		}
	case PolicyTable:
		if len(o.Assignment) == 0 {
			return fmt.Errorf("assignment table is required for policy %q", PolicyTable)
		}
		for node, group := range o.Assignment {
			if err := apperrors.ValidateNodeName(node); err != nil {
				return err
			}
			if err := apperrors.ValidateGroupName(group); err != nil {
				return err
			}
		}
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatDOT}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return ValidateFormats(o.Formats)
}

// GroupFunc builds the assignment function for the configured policy. The
// returned closure owns whatever state the policy needs, so each call starts
// a fresh assignment.
func (o *Options) GroupFunc() (split.GroupFunc, error) {
	switch o.Policy {
	case PolicyRoundRobin:
		return split.RoundRobin(o.Groups), nil
	case PolicyTable:
		table := o.Assignment
		return func(n *ir.Node) string {
			if g, ok := table[n.Name]; ok {
				return g
			}
			return DefaultGroup
		}, nil
	default:
		return nil, fmt.Errorf("invalid policy: %q", o.Policy)
	}
}

// SplitKeyOpts returns cache key options for the split stage.
func (o *Options) SplitKeyOpts() cache.SplitKeyOpts {
	return cache.SplitKeyOpts{
		Policy:     o.Policy,
		Groups:     o.Groups,
		Assignment: o.Assignment,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
	}
}

package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphsplit/pkg/pipeline"
)

// splitOpts holds the command-line flags for the split command.
type splitOpts struct {
	output      string // output base path for artifacts
	assignFile  string // TOML file mapping groups to node names
	groups      int    // round-robin group count
	formats     []string
	detailed    bool
	refresh     bool
	noCache     bool
	interactive bool // browse partitions in a TUI after splitting
}

// splitCommand creates the split command.
//
// Assignment comes either from a TOML file (--assign) or from round-robin
// dealing (--groups). The assignment file maps group names to node names:
//
//	[groups]
//	front = ["add", "neg"]
//	back  = ["mul"]
//
// Nodes the file does not mention fall into the "rest" group.
func (c *CLI) splitCommand() *cobra.Command {
	var formatsStr string
	opts := splitOpts{}

	cmd := &cobra.Command{
		Use:   "split [graph.json]",
		Short: "Partition a graph and rebuild it as sub-modules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			return c.runSplit(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output base path (default: input name)")
	cmd.Flags().StringVarP(&opts.assignFile, "assign", "a", "", "TOML assignment file (group -> node names)")
	cmd.Flags().IntVarP(&opts.groups, "groups", "g", 0, "round-robin group count (ignored with --assign)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node lists and crossings in diagrams")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the load cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "browse partitions interactively")

	return cmd
}

func (c *CLI) runSplit(cmd *cobra.Command, input string, opts *splitOpts) error {
	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		GraphPath: input,
		Refresh:   opts.refresh,
		Groups:    opts.groups,
		Formats:   opts.formats,
		Detailed:  opts.detailed,
		Logger:    c.Logger,
	}
	if opts.assignFile != "" {
		assignment, err := loadAssignment(opts.assignFile)
		if err != nil {
			return err
		}
		popts.Policy = pipeline.PolicyTable
		popts.Assignment = assignment
	}

	sp := newSpinnerWithContext(cmd.Context(), "Partitioning "+input)
	sp.Start()
	result, err := runner.Execute(cmd.Context(), popts)
	sp.Stop()
	if err != nil {
		if sp.Cancelled() {
			return cmd.Context().Err()
		}
		return err
	}

	printSuccess("Partitioned %s", input)
	printStats(result.Stats.NodeCount, result.Stats.PartitionCount, result.CacheInfo.SplitHit)
	for _, p := range result.Partitions {
		printDetail("%s: %s", "submod_"+p.Name, strings.Join(p.Members, ", "))
	}

	for _, format := range opts.formats {
		path := outputPath(opts.output, input, format)
		if err := os.WriteFile(path, result.Artifacts[format], 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	if opts.interactive {
		return browsePartitions(result.Partitions)
	}
	return nil
}

// assignmentFile is the TOML shape for --assign: group name -> node names.
type assignmentFile struct {
	Groups map[string][]string `toml:"groups"`
}

// loadAssignment parses a TOML assignment file into a node -> group table.
// A node listed under two groups is an error.
func loadAssignment(path string) (map[string]string, error) {
	var file assignmentFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Groups) == 0 {
		return nil, fmt.Errorf("%s: no [groups] table", path)
	}

	// Deterministic iteration so duplicate errors always name the same pair.
	names := make([]string, 0, len(file.Groups))
	for name := range file.Groups {
		names = append(names, name)
	}
	sort.Strings(names)

	assignment := make(map[string]string)
	for _, group := range names {
		for _, node := range file.Groups[group] {
			if prev, ok := assignment[node]; ok {
				return nil, fmt.Errorf("%s: node %q assigned to both %q and %q", path, node, prev, group)
			}
			assignment[node] = group
		}
	}
	return assignment, nil
}

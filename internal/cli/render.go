package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphsplit/pkg/graphio"
	"github.com/matzehuels/graphsplit/pkg/pipeline"
	"github.com/matzehuels/graphsplit/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string
	formats  []string
	detailed bool
}

// renderCommand creates the render command, which diagrams the graph itself
// (node-level, not partitioned). Use "split --format dot" for the partition
// diagram.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{}

	cmd := &cobra.Command{
		Use:   "render [graph.json]",
		Short: "Render a graph as a DOT or SVG diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			return c.runRender(args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or base path")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): dot (default), svg, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with op kinds and targets")

	return cmd
}

func (c *CLI) runRender(input string, opts *renderOpts) error {
	prog := newProgress(c.Logger)

	g, err := graphio.ImportJSON(input)
	if err != nil {
		return err
	}
	c.Logger.Info("loaded graph", "nodes", g.NodeCount())

	dot := render.GraphDOT(g, render.Options{Detailed: opts.detailed})

	for _, format := range opts.formats {
		var data []byte
		switch format {
		case pipeline.FormatDOT:
			data = []byte(dot)
		case pipeline.FormatSVG:
			data, err = render.SVG(dot)
			if err != nil {
				return fmt.Errorf("render svg: %w", err)
			}
		case pipeline.FormatJSON:
			var buf bytes.Buffer
			if err := graphio.WriteJSON(g, &buf); err != nil {
				return err
			}
			data = buf.Bytes()
		}

		path := outputPath(opts.output, input, format)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}

	prog.done(fmt.Sprintf("Rendered %d format(s)", len(opts.formats)))
	return nil
}

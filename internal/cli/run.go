package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphsplit/pkg/graphio"
	"github.com/matzehuels/graphsplit/pkg/ir"
	"github.com/matzehuels/graphsplit/pkg/ops"
	"github.com/matzehuels/graphsplit/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	split   bool // split before executing, to check equivalence by eye
	groups  int  // round-robin group count when --split is set
	noCache bool
}

// runCommand creates the run command. It executes a graph with the built-in
// arithmetic registry, passing the trailing arguments as numeric inputs in
// placeholder order:
//
//	graphsplit run model.json 3 4.5
//
// With --split the graph is partitioned first and the rebuilt module is
// executed instead, which should produce the same result.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{}

	cmd := &cobra.Command{
		Use:   "run [graph.json] [inputs...]",
		Short: "Execute a graph on numeric inputs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := parseInputs(args[1:])
			if err != nil {
				return err
			}
			return c.runRun(cmd, args[0], inputs, &opts)
		},
	}

	cmd.Flags().BoolVar(&opts.split, "split", false, "partition the graph first and execute the rebuilt module")
	cmd.Flags().IntVarP(&opts.groups, "groups", "g", 0, "round-robin group count for --split")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runRun(cmd *cobra.Command, input string, inputs []any, opts *runOpts) error {
	g, err := graphio.ImportJSON(input)
	if err != nil {
		return err
	}

	mod := ir.NewModule(g)
	if opts.split {
		runner, err := c.newRunner(opts.noCache)
		if err != nil {
			return err
		}
		defer runner.Close()

		mod, _, err = runner.Split(cmd.Context(), g, pipeline.Options{
			GraphPath: input,
			Groups:    opts.groups,
			Logger:    c.Logger,
		})
		if err != nil {
			return err
		}
	}

	out, err := ir.Invoke(mod, ops.Registry(), inputs...)
	if err != nil {
		return err
	}

	fmt.Println(formatResult(out))
	return nil
}

// parseInputs converts trailing command arguments to float64 inputs.
func parseInputs(args []string) ([]any, error) {
	inputs := make([]any, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("input %q is not a number", a)
		}
		inputs[i] = v
	}
	return inputs, nil
}

// formatResult renders an execution result, recursing into the list and map
// shapes the interpreter can return.
func formatResult(v any) string {
	switch r := v.(type) {
	case []any:
		s := "["
		for i, e := range r {
			if i > 0 {
				s += ", "
			}
			s += formatResult(e)
		}
		return s + "]"
	case float64:
		return strconv.FormatFloat(r, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", r)
	}
}

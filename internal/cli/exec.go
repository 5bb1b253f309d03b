package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// execCommand creates the exec command, which dispatches a saved plan.
func (c *CLI) execCommand() *cobra.Command {
	var f buildFlags
	var o outputFlags

	cmd := &cobra.Command{
		Use:   "exec [plan-file]",
		Short: "Dispatch a saved command plan",
		Long: `Dispatch a saved command plan and render its diagram.

Plans come from "archviz plan" or "archviz build --save-plan" and may be
edited by hand. Unknown commands and steps with invalid parameters are
skipped with a warning; any other failing step stops the build. The plan's
own output format is used unless --format is given.`,
		Example: `  archviz exec shop.plan.json
  archviz exec shop.plan.yaml --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExec(cmd.Context(), args[0], f, o)
		},
	}

	addBuildFlags(cmd, &f)
	addOutputFlags(cmd, &o)
	return cmd
}

func (c *CLI) runExec(ctx context.Context, path string, f buildFlags, o outputFlags) error {
	p, err := readPlan(path)
	if err != nil {
		return err
	}
	opts, err := c.pipelineOptions(f, true)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, runnerOpts{noCache: f.noCache})
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := c.stepSpinner(ctx, &opts, "Dispatching plan", o.jsonOut)
	res, err := runner.Build(ctx, p, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	return c.report(res, o)
}

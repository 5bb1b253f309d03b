package cli

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	archio "github.com/matzehuels/archviz/pkg/io"
	"github.com/matzehuels/archviz/pkg/plan"
)

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	var f buildFlags
	var output, encoding string
	var interactive bool

	cmd := &cobra.Command{
		Use:   "plan [analysis-file]",
		Short: "Generate the command plan for an analysis",
		Long: `Generate the command plan for an analysis without dispatching it.

The plan lists every diagram command in execution order: initialize, the
clusters with parents before children, the nodes, the connections and a
final materialize. Write it to a file to edit it and run it later with
"archviz exec".`,
		Example: `  archviz plan shop.json -o shop.plan.yaml
  archviz plan shop.json --interactive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.runPlan(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			for _, w := range p.Warnings {
				printWarning("%s", w)
			}
			if interactive {
				return browsePlan(p)
			}
			if output != "" {
				if err := archio.ExportPlan(p, output); err != nil {
					return err
				}
				printSuccess("Planned %d steps", len(p.Steps))
				printFile(output)
				return nil
			}
			format, err := archio.ParseFormat(encoding)
			if err != nil {
				return err
			}
			return archio.WritePlan(p, os.Stdout, format)
		},
	}

	cmd.Flags().StringVar(&f.title, "title", "", "override the diagram title")
	cmd.Flags().StringVar(&f.layout, "layout", "", "rank direction: LR, RL, TB, BT")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format recorded in the materialize step")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the plan cache")
	addPatternFlag(cmd, &f)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the plan to a file (.json, .yaml or .toml)")
	cmd.Flags().StringVar(&encoding, "encoding", "json", "stdout encoding: json, yaml, toml")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the plan interactively")

	return cmd
}

func (c *CLI) runPlan(ctx context.Context, path string, f buildFlags) (*plan.Plan, error) {
	a, err := readAnalysis(path)
	if err != nil {
		return nil, err
	}
	opts, err := c.pipelineOptions(f, false)
	if err != nil {
		return nil, err
	}
	runner, err := c.newRunner(ctx, runnerOpts{noCache: f.noCache, noStore: true})
	if err != nil {
		return nil, err
	}
	defer runner.Close()
	return runner.Plan(ctx, a, opts)
}

// browsePlan runs the interactive plan browser.
func browsePlan(p *plan.Plan) error {
	_, err := tea.NewProgram(NewPlanBrowserModel(p), tea.WithAltScreen()).Run()
	return err
}

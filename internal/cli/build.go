package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archviz/pkg/dispatch"
	archio "github.com/matzehuels/archviz/pkg/io"
	"github.com/matzehuels/archviz/pkg/pipeline"
	"github.com/matzehuels/archviz/pkg/plan"
)

// outputFlags control where a build result goes.
type outputFlags struct {
	output   string // image path; derived from the title when empty
	savePlan string // also write the dispatched plan here
	jsonOut  bool   // print the build result as JSON instead of writing files
}

func addBuildFlags(cmd *cobra.Command, f *buildFlags) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: png, svg, pdf (default from config)")
	cmd.Flags().StringVar(&f.layout, "layout", "", "rank direction: LR, RL, TB, BT (default from config)")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "PNG scale factor")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "validate and assemble the diagram without rendering")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached results")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the build cache")
}

// addPatternFlag registers --pattern on commands that build a plan from an
// analysis.
func addPatternFlag(cmd *cobra.Command, f *buildFlags) {
	cmd.Flags().StringVar(&f.pattern, "pattern", "", `start from a built-in cluster pattern (see "archviz patterns")`)
	_ = cmd.RegisterFlagCompletionFunc("pattern", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return plan.PatternNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func addOutputFlags(cmd *cobra.Command, o *outputFlags) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "output file (default derived from the diagram title)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "print the build result as JSON")
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var f buildFlags
	var o outputFlags

	cmd := &cobra.Command{
		Use:   "build [analysis-file]",
		Short: "Render a diagram from an analysis file",
		Long: `Render a diagram from an analysis file.

The analysis lists services, clusters and connections in JSON, YAML or TOML
(chosen by file extension; "-" reads JSON from stdin). It is turned into a
plan of diagram commands, which is dispatched and rendered.`,
		Example: `  archviz build shop.json
  archviz build shop.yaml -f svg -o shop.svg
  archviz build shop.json --dry-run --save-plan shop.plan.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBuild(cmd.Context(), args[0], f, o)
		},
	}

	addBuildFlags(cmd, &f)
	addPatternFlag(cmd, &f)
	addOutputFlags(cmd, &o)
	cmd.Flags().StringVar(&f.title, "title", "", "override the diagram title")
	cmd.Flags().StringVar(&o.savePlan, "save-plan", "", "also write the generated plan to this file")

	return cmd
}

func (c *CLI) runBuild(ctx context.Context, path string, f buildFlags, o outputFlags) error {
	a, err := readAnalysis(path)
	if err != nil {
		return err
	}
	opts, err := c.pipelineOptions(f, false)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, runnerOpts{noCache: f.noCache})
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := c.stepSpinner(ctx, &opts, "Planning diagram", o.jsonOut)
	res, err := runner.Execute(ctx, a, opts)
	spinner.Stop()
	if err != nil {
		return err
	}

	if o.savePlan != "" {
		if err := archio.ExportPlan(res.Plan, o.savePlan); err != nil {
			return err
		}
		c.Logger.Debug("saved plan", "path", o.savePlan)
	}
	if err := c.report(res, o); err != nil {
		return err
	}
	prog.done("build finished", "steps", res.Stats.Steps, "cached", res.CacheInfo.ArtifactHit)
	return nil
}

// stepSpinner starts a spinner that follows dispatch progress. It is a
// no-op spinner when quiet is set.
func (c *CLI) stepSpinner(ctx context.Context, opts *pipeline.Options, message string, quiet bool) *Spinner {
	s := newSpinnerWithContext(ctx, message)
	if quiet {
		return s
	}
	opts.OnStep = func(index, total int, step dispatch.Step) {
		s.SetMessage("[%d/%d] %s", index, total, step.Description)
	}
	s.Start()
	return s
}

// report prints the outcome of a build and writes its image.
func (c *CLI) report(res *pipeline.Result, o outputFlags) error {
	b := res.Build
	if o.jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			ID       string `json:"id,omitempty"`
			PlanHash string `json:"plan_hash"`
			*dispatch.Result
		}{res.RecordID, res.PlanHash, b})
	}

	for _, w := range b.Warnings {
		printWarning("%s", w)
	}
	if !b.Success {
		for _, e := range b.Errors {
			printError("%s", e)
		}
		return b.Err()
	}

	if b.DryRun {
		printSuccess("Validated %s", StyleHighlight.Render(b.Title))
	} else {
		path := o.output
		if path == "" {
			path = outputPath(b.Title, b.Format)
		}
		if err := writeImage(path, b.Image); err != nil {
			return err
		}
		printSuccess("Rendered %s", StyleHighlight.Render(b.Title))
		printFile(path)
	}
	printStats(res.Stats, res.CacheInfo.ArtifactHit)
	if res.RecordID != "" {
		printDetail("Build %s", res.RecordID)
	}
	return nil
}

// readAnalysis loads an analysis from path, or JSON from stdin for "-".
func readAnalysis(path string) (*plan.Analysis, error) {
	if path == "-" {
		return archio.ReadAnalysis(os.Stdin, archio.FormatJSON)
	}
	return archio.ImportAnalysis(path)
}

// readPlan loads a plan from path, or JSON from stdin for "-".
func readPlan(path string) (*plan.Plan, error) {
	if path == "-" {
		return archio.ReadPlan(os.Stdin, archio.FormatJSON)
	}
	return archio.ImportPlan(path)
}

func writeImage(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// outputPath derives a file name from the diagram title, e.g.
// "Order Service" + "svg" → "order-service.svg".
func outputPath(title, format string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = "diagram"
	}
	return name + "." + format
}

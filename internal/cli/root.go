// Package cli implements the archviz command-line interface.
//
// The CLI turns architecture analyses into diagrams by driving the
// pipeline package: an analysis file is turned into a command plan, the
// plan is dispatched in a fresh session and the rendered image is written
// to disk. Results are cached and builds are recorded according to the
// configuration file.
//
// # Commands
//
//   - build: analysis file → diagram
//   - plan: analysis file → command plan (optionally browsed interactively)
//   - exec: saved plan → diagram
//   - commands: list the registered commands and their schemas
//   - serve: run the HTTP API
//   - cache: inspect and clear the build cache
//   - completion: generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/archviz/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   appName,
		Short: "archviz draws architecture diagrams from system analyses",
		Long: `archviz turns a structured architecture analysis (services, clusters and
connections) into a plan of diagram commands and renders it with Graphviz.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				c.SetLogLevel(LogDebug)
			}
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/archviz/config.toml)")

	root.AddCommand(c.buildCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.execCommand())
	root.AddCommand(c.commandsCommand())
	root.AddCommand(c.patternsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the CLI with the given arguments.
func (c *CLI) Execute(ctx context.Context, args []string) error {
	root := c.RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/archviz/internal/api"
)

// serveCommand creates the serve command, which runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagram API over HTTP",
		Long: `Serve the diagram API over HTTP until interrupted.

The cache and build store backends come from the config file; a Redis cache
and a Mongo store let several servers share results.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			runner, err := c.newRunner(ctx, runnerOpts{noCache: noCache})
			if err != nil {
				return err
			}
			defer runner.Close()

			defaults := cfg.PipelineOptions()
			defaults.Logger = c.Logger
			srv := api.New(api.Deps{
				Runner:       runner,
				Logger:       c.Logger,
				Defaults:     defaults,
				MaxBodyBytes: cfg.Server.MaxBodyBytes,
				Timeout:      cfg.Server.Timeout.Duration,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the build cache")
	return cmd
}

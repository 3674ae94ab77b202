package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/towerpath/pkg/api"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
		maxBody int64
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes organize over HTTP:

  GET  /healthz
  POST /v1/organize

The cache backend comes from the [cache] section of --config.`,
		Example: `  towerpath serve --addr :8080 -c towerpath.toml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			opts, err := c.loadOptions()
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, opts, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := api.New(runner,
				api.WithLogger(logger),
				api.WithTimeout(timeout),
				api.WithMaxBodyBytes(maxBody),
			)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8080", "listen address")
	f.DurationVar(&timeout, "timeout", 5*time.Minute, "per-request timeout")
	f.Int64Var(&maxBody, "max-body", api.DefaultMaxBodyBytes, "maximum request body size in bytes")
	f.BoolVar(&noCache, "no-cache", false, "disable the result cache")
	return cmd
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/bft-labs/aq2rdb/internal/server"
)

func newServeCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve single requests over HTTP",
		Long: `Serve GET /aq2rdb?t=&a=&n=&d=&p=&s=&b=&e=&l=&r=&w=&c=&v=&y=&x=
with the report in the response body and the run status in the
X-Aq2rdb-Status header. Also serves /healthz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, closeDeps, err := c.deps(ctx)
			if err != nil {
				return err
			}
			defer closeDeps()

			flags := c.cfg.Flags()
			srv := server.New(server.Config{
				Addr:              c.cfg.ListenAddr,
				Deps:              deps,
				TimeZone:          c.cfg.TimeZone,
				Flags:             flags,
				RequestsPerSecond: c.cfg.RequestsPerSecond,
				Burst:             c.cfg.Burst,
				Gatherer:          prometheus.DefaultGatherer,
				Logger:            c.log,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&c.cfg.ListenAddr, "listen", c.cfg.ListenAddr, "listen address")
	cmd.Flags().Float64Var(&c.cfg.RequestsPerSecond, "rps", c.cfg.RequestsPerSecond, "report requests per second")
	cmd.Flags().IntVar(&c.cfg.Burst, "burst", c.cfg.Burst, "report request burst")
	return cmd
}

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bft-labs/aq2rdb/internal/app"
)

func newWatchCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rerun a control file each time it is written",
		Example: `  aq2rdb watch -f requests.ctl -o reports.rdb
  aq2rdb watch -f requests.ctl -o /tmp/reports -m --debounce 2s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, closeDeps, err := c.deps(ctx)
			if err != nil {
				return err
			}
			defer closeDeps()

			wcfg := app.DefaultWatchConfig()
			wcfg.DebounceDelay = c.cfg.DebounceDelay
			return app.NewRunner(c.runConfig(), deps).Watch(ctx, wcfg)
		},
	}

	cmd.Flags().DurationVar(&c.cfg.DebounceDelay, "debounce", c.cfg.DebounceDelay, "delay between a write and the rerun")
	return cmd
}

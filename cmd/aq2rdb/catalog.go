package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/aq2rdb/internal/domain"
	"github.com/bft-labs/aq2rdb/internal/ports"
)

func newCatalogCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the station catalog",
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create the catalog tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := c.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cat.Close()
			c.log.Info("catalog ready", ports.String("driver", c.cfg.CatalogDriver))
			return nil
		},
	}

	seed := &cobra.Command{
		Use:     "seed FILE",
		Short:   "Load stations and primary descriptors from a YAML file",
		Example: "  aq2rdb catalog seed stations.yaml",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: open seed: %v", domain.ErrResource, err)
			}
			defer f.Close()

			cat, err := c.openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer cat.Close()

			stations, dds, err := cat.Load(cmd.Context(), f)
			if err != nil {
				return err
			}
			c.log.Info("catalog seeded",
				ports.String("file", args[0]),
				ports.Int("stations", stations),
				ports.Int("primary_dd", dds),
			)
			return nil
		},
	}

	cmd.AddCommand(migrate, seed)
	return cmd
}

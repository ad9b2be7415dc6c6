package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
	"github.com/ferstar/nowledge-mem-plugins/internal/render"
)

func labelsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "labels",
		Short: "List all memory labels",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			raw, err := newClient(cfg).ListLabels()
			if err != nil {
				return err
			}

			fmt.Print(render.Labels(raw, limit))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Max labels to show")

	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
	"github.com/ferstar/nowledge-mem-plugins/internal/render"
)

func expandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <thread-id>",
		Short: "View the full content of a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			raw, err := newClient(cfg).GetThread(args[0])
			if err != nil {
				return err
			}

			fmt.Print(render.ThreadDetail(raw))
			return nil
		},
	}
}

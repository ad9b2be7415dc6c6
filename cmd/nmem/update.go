package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
)

func updateCmd() *cobra.Command {
	var content, title, labels string
	var importance float64

	cmd := &cobra.Command{
		Use:   "update <memory-id>",
		Short: "Update an existing memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{}
			if cmd.Flags().Changed("content") {
				fields["content"] = content
			}
			if cmd.Flags().Changed("title") {
				fields["title"] = title
			}
			if cmd.Flags().Changed("importance") {
				if importance < 0 || importance > 1 {
					return fmt.Errorf("importance must be between 0.0 and 1.0, got %g", importance)
				}
				fields["importance"] = importance
			}
			if cmd.Flags().Changed("labels") {
				fields["labels"] = splitLabels(labels)
			}

			if len(fields) == 0 {
				fmt.Println("No changes specified. Use --content, --title, --importance, or --labels.")
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if _, err := newClient(cfg).UpdateMemory(args[0], fields); err != nil {
				return err
			}
			fmt.Printf("Memory %s updated.\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&content, "content", "c", "", "New content")
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().Float64VarP(&importance, "importance", "i", 0, "New importance (0.0-1.0)")
	cmd.Flags().StringVarP(&labels, "labels", "l", "", "Replace labels (comma-separated)")

	return cmd
}

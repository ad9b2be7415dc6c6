package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/api"
	"github.com/ferstar/nowledge-mem-plugins/internal/config"
)

func addCmd() *cobra.Command {
	var title, labels, eventStart, eventEnd, temporalContext string
	var importance float64

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Add a new memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if importance < 0 || importance > 1 {
				return fmt.Errorf("importance must be between 0.0 and 1.0, got %g", importance)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			raw, err := newClient(cfg).AddMemory(api.AddMemoryInput{
				Content:         args[0],
				Title:           title,
				Importance:      importance,
				Labels:          splitLabels(labels),
				EventStart:      eventStart,
				EventEnd:        eventEnd,
				TemporalContext: temporalContext,
			})
			if err != nil {
				return err
			}

			var resp struct {
				ID string `json:"id"`
			}
			_ = json.Unmarshal(raw, &resp)

			fmt.Println("Memory added.")
			if resp.ID != "" {
				fmt.Printf("  ID: %s\n", resp.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Memory title")
	cmd.Flags().Float64VarP(&importance, "importance", "i", 0.5, "Importance (0.0-1.0)")
	cmd.Flags().StringVarP(&labels, "labels", "l", "", "Comma-separated labels")
	cmd.Flags().StringVar(&eventStart, "event-start", "", "Event start date (YYYY, YYYY-MM, or YYYY-MM-DD)")
	cmd.Flags().StringVar(&eventEnd, "event-end", "", "Event end date")
	cmd.Flags().StringVar(&temporalContext, "temporal-context", "", "Free-form temporal context")

	return cmd
}

func splitLabels(s string) []string {
	var out []string
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
	"github.com/ferstar/nowledge-mem-plugins/internal/deepsearch"
	"github.com/ferstar/nowledge-mem-plugins/internal/render"
	"github.com/ferstar/nowledge-mem-plugins/internal/tui"
)

func searchCmd() *cobra.Command {
	var limit, threads int
	var noThreads, verbose, asJSON bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search memories with progressive thread discovery",
		Long: `Search the memory store semantically, then surface the conversational
threads the matches came from. Interactive browser when stdout is a
terminal; plain text or JSON when piped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			searcher := deepsearch.New(newClient(cfg))

			if !asJSON && term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(searcher, args[0], tui.Options{
					MemoryLimit:   limit,
					ThreadLimit:   threads,
					ExpandThreads: !noThreads,
				})
			}

			result, err := searcher.Search(args[0], limit, threads, !noThreads)
			if err != nil {
				return err
			}

			if asJSON {
				out, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Print(render.SearchResult(result, verbose))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Max memories to return")
	cmd.Flags().IntVarP(&threads, "threads", "t", 5, "Max related threads")
	cmd.Flags().BoolVar(&noThreads, "no-threads", false, "Skip thread discovery")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show more content")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

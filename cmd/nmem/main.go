package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/api"
	"github.com/ferstar/nowledge-mem-plugins/internal/config"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "nmem",
		Short:   "Nowledge Mem CLI - archive AI CLI sessions and search your memory store",
		Version: version,
	}

	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(persistCmd())
	rootCmd.AddCommand(expandCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(labelsCmd())
	rootCmd.AddCommand(doctorCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.APIURL, cfg.AuthToken, cfg.Timeout, cfg.TimeoutHealth)
}

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
	"github.com/ferstar/nowledge-mem-plugins/internal/session"
)

func doctorCmd() *cobra.Command {
	var projectPath string

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Self-check: verify config, session stores, and server connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}

			if projectPath == "" {
				projectPath, err = os.Getwd()
				if err != nil {
					return err
				}
			}

			fmt.Println("=== Config ===")
			fmt.Printf("  API URL: %s\n", cfg.APIURL)
			if cfg.AuthToken != "" {
				fmt.Println("  Auth token: set")
			} else {
				fmt.Println("  Auth token: not set (requests sent unauthenticated)")
			}
			fmt.Printf("  Session source: %s\n", cfg.SessionSource)
			fmt.Printf("  Max messages: %d\n", cfg.MaxMessages)

			fmt.Println("\n=== Session Stores ===")
			checkDir("Claude", cfg.ClaudeRoot)
			checkDir("Codex", cfg.CodexRoot)

			fmt.Printf("\n=== Latest Session (%s) ===\n", projectPath)
			locator := &session.Locator{ClaudeRoot: cfg.ClaudeRoot, CodexRoot: cfg.CodexRoot}
			for _, source := range []string{"claude", "codex"} {
				cand, err := locator.FindLatest(projectPath, source)
				switch {
				case errors.Is(err, session.ErrSessionNotFound):
					fmt.Printf("  %-6s: none found\n", source)
				case err != nil:
					fmt.Printf("  %-6s: error: %v\n", source, err)
				default:
					fmt.Printf("  %-6s: %s (modified %s)\n", source, cand.Path,
						time.Unix(cand.Mtime, 0).Format("2006-01-02 15:04:05"))
				}
			}

			fmt.Println("\n=== Server ===")
			client := newClient(cfg)
			if ok, err := client.Health(); ok {
				fmt.Println("  Health: OK")
			} else {
				fmt.Printf("  Health: FAILED (%v)\n", err)
				return nil
			}
			if ok, err := client.AuthCheck(); ok {
				if err != nil {
					fmt.Printf("  Auth: OK with warning (%v)\n", err)
				} else {
					fmt.Println("  Auth: OK")
				}
			} else {
				fmt.Printf("  Auth: FAILED (%v)\n", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&projectPath, "project-path", "p", "", "Project directory to diagnose (default: current directory)")

	return cmd
}

func checkDir(name, path string) {
	if info, err := os.Stat(path); err != nil {
		fmt.Printf("  %s: %s (NOT FOUND)\n", name, path)
	} else if !info.IsDir() {
		fmt.Printf("  %s: %s (NOT A DIRECTORY)\n", name, path)
	} else {
		fmt.Printf("  %s: %s (OK)\n", name, path)
	}
}

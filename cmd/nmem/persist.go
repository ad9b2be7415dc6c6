package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
	"github.com/ferstar/nowledge-mem-plugins/internal/session"
)

func persistCmd() *cobra.Command {
	var title, projectPath, source string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Save the current conversation session to Nowledge Mem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if projectPath == "" {
				projectPath = os.Getenv("PROJECT_PATH")
			}
			if projectPath == "" {
				projectPath, err = os.Getwd()
				if err != nil {
					return err
				}
			}
			if source == "" {
				source = cfg.SessionSource
			}

			fmt.Println("[nm] Saving current session...")
			fmt.Println()

			locator := &session.Locator{ClaudeRoot: cfg.ClaudeRoot, CodexRoot: cfg.CodexRoot}
			cand, err := locator.FindLatest(projectPath, source)
			if err != nil {
				return err
			}

			var sizeKB float64
			if info, err := os.Stat(cand.Path); err == nil {
				sizeKB = float64(info.Size()) / 1024
			}
			fmt.Printf("  Project: %s\n", projectPath)
			fmt.Printf("  Session: %s (%.1f KB)\n", cand.Path, sizeKB)
			fmt.Printf("  Source:  %s\n", cand.Source)

			limitMsg := "no limit"
			if cfg.MaxMessages > 0 {
				limitMsg = fmt.Sprintf("max %d", cfg.MaxMessages)
			}
			fmt.Printf("\n[nm] Parsing session (%s)...\n", limitMsg)

			result, err := session.Parse(cand.Path, session.Options{MaxMessages: cfg.MaxMessages})
			if err != nil {
				return err
			}
			fmt.Printf("  Extracted %d messages from %d lines\n", len(result.Messages), result.TotalLines)

			payload := session.BuildThreadRequest(
				result.Messages, projectPath, cand.Path, title, result.TotalLines, cand.Source)

			fmt.Printf("  Thread ID: %s\n", payload.ThreadID)
			fmt.Printf("  Title: %.60s\n", payload.Title)

			if dryRun {
				out, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return err
				}
				fmt.Printf("\n[nm] Dry run, payload not uploaded:\n%s\n", out)
				return nil
			}

			fmt.Println("\n[nm] Uploading to Nowledge Mem...")

			raw, err := newClient(cfg).SaveThread(payload, 1)
			if err != nil {
				return err
			}

			var resp struct {
				Thread struct {
					ThreadID     string `json:"thread_id"`
					ID           string `json:"id"`
					MessageCount int    `json:"message_count"`
				} `json:"thread"`
			}
			_ = json.Unmarshal(raw, &resp)
			if resp.Thread.MessageCount == 0 {
				resp.Thread.MessageCount = len(result.Messages)
			}

			fmt.Println("\nThread saved successfully!")
			fmt.Printf("  Thread ID: %s\n", orNA(resp.Thread.ThreadID))
			fmt.Printf("  Server ID: %s\n", orNA(resp.Thread.ID))
			fmt.Printf("  Messages:  %d\n", resp.Thread.MessageCount)
			fmt.Println("\n[nm] Done! Conversation stored in Nowledge Mem.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Custom thread title (auto-generated if not provided)")
	cmd.Flags().StringVarP(&projectPath, "project-path", "p", "", "Project directory path (default: current directory)")
	cmd.Flags().StringVar(&source, "source", "", "Session source hint (auto/claude/codex)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Build the payload but do not upload")

	return cmd
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

package session

import (
	"fmt"
	"path/filepath"
	"time"
)

const titleMaxLen = 80

// BuildThreadRequest assembles the archival payload for a parsed session.
// Pure aside from reading the clock; thread IDs are unique per invocation at
// one-second resolution.
func BuildThreadRequest(messages []Message, projectPath, sessionFile, customTitle string, totalLines int, source string) ThreadRequest {
	now := time.Now()
	projectName := filepath.Base(projectPath)
	workspace, err := filepath.Abs(projectPath)
	if err != nil {
		workspace = projectPath
	}

	title := customTitle
	if title == "" {
		title = deriveTitle(messages, now)
	}

	participants := []string{"user", "codex"}
	if source == SourceClaude {
		participants = []string{"user", "claude"}
	}

	return ThreadRequest{
		ThreadID:     fmt.Sprintf("%s_%s", projectName, now.Format("20060102_150405")),
		Title:        title,
		Messages:     messages,
		Participants: participants,
		Source:       source,
		Project:      projectName,
		Workspace:    workspace,
		ImportDate:   now.UTC().Format(time.RFC3339),
		Metadata: ThreadMetadata{
			SessionFile:       filepath.Base(sessionFile),
			TotalLinesInFile:  totalLines,
			MessagesExtracted: len(messages),
			PersistMethod:     "knowledge_mem",
			CLI:               source,
		},
	}
}

// deriveTitle uses the first user message, truncated with an ellipsis
// marker, falling back to a timestamped generic title. Truncation counts
// runes so multibyte content is never cut mid-character.
func deriveTitle(messages []Message, now time.Time) string {
	for _, m := range messages {
		if m.Role != "user" {
			continue
		}
		if runes := []rune(m.Content); len(runes) > titleMaxLen {
			return string(runes[:titleMaxLen]) + "..."
		}
		return m.Content
	}
	return "Claude Code Session - " + now.Format("2006-01-02 15:04")
}

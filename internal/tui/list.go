package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ferstar/nowledge-mem-plugins/internal/deepsearch"
	"github.com/ferstar/nowledge-mem-plugins/internal/render"
)

// linesPerItem is the number of terminal lines each memory occupies.
const linesPerItem = 2

// renderList renders the left panel: memory list with scrolling.
func (m model) renderList(width, height int) string {
	if m.result == nil || len(m.result.Memories) == 0 {
		return lipgloss.NewStyle().
			Foreground(colorDim).
			Width(width).
			Height(height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("No memories")
	}

	var lines []string
	for i, mem := range m.result.Memories {
		if i < m.listOffset {
			continue
		}
		if len(lines)+linesPerItem > height {
			break
		}
		lines = append(lines, formatMemoryLine(mem, width, i == m.cursor)...)
	}

	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

// formatMemoryLine formats one memory as two lines:
//
//	line 1: [>] score  title
//	line 2:     content snippet (dimmed)
func formatMemoryLine(mem deepsearch.MemoryItem, width int, selected bool) []string {
	title := mem.Title
	if title == "" {
		title = "[untitled]"
	}
	title = strings.ReplaceAll(title, "\n", " ")

	score := styleScore.Render(fmt.Sprintf("%4s", render.FormatScore(mem.SimilarityScore)))

	titleMax := width - 2 - 5 - 2 // prefix + score + padding
	if titleMax < 0 {
		titleMax = 0
	}
	if runewidth.StringWidth(title) > titleMax {
		title = runewidth.Truncate(title, titleMax, "")
	}

	line1 := fmt.Sprintf("%s %s", score, styleListNormal.Render(title))
	if selected {
		line1 = styleListSelected.Render("> ") + line1
	} else {
		line1 = "  " + line1
	}

	snippet := strings.ReplaceAll(mem.Content, "\n", " ")
	snippet = strings.ReplaceAll(snippet, "\t", " ")
	snippetMax := width - 4
	if snippetMax < 0 {
		snippetMax = 0
	}
	if runewidth.StringWidth(snippet) > snippetMax {
		snippet = runewidth.Truncate(snippet, snippetMax, "")
	}
	line2 := "    " + lipgloss.NewStyle().Foreground(colorDim).Render(snippet)

	return []string{line1, line2}
}

// renderMemoryDetail renders the right panel: full memory content plus
// metadata and the threads related to the current result set.
func renderMemoryDetail(mem *deepsearch.MemoryItem, result *deepsearch.Result, width int) string {
	var b strings.Builder

	title := mem.Title
	if title == "" {
		title = "[untitled]"
	}
	b.WriteString(styleListSelected.Render(title) + "\n")
	b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render(fmt.Sprintf(
		"%s match | %s importance", render.FormatScore(mem.SimilarityScore), render.FormatImportance(mem.Importance))) + "\n")

	if len(mem.Labels) > 0 {
		tags := make([]string, len(mem.Labels))
		for i, l := range mem.Labels {
			tags[i] = "#" + l
		}
		b.WriteString(styleThreadMark.Render(strings.Join(tags, " ")) + "\n")
	}
	b.WriteString("\n")

	wrapped := lipgloss.NewStyle().Width(width).Render(mem.Content)
	b.WriteString(wrapped + "\n")

	if mem.SourceThreadID != "" {
		b.WriteString("\n" + styleThreadMark.Render("Source thread: "+mem.SourceThreadID) + "\n")
	}

	if result != nil && len(result.RelatedThreads) > 0 {
		b.WriteString("\n" + styleListSelected.Render("Related threads") + "\n")
		for _, t := range result.RelatedThreads {
			name := t.Title
			if name == "" {
				name = t.Summary
			}
			if name == "" {
				name = t.ThreadID
			}
			b.WriteString(fmt.Sprintf("  > %s\n", name))
			b.WriteString(lipgloss.NewStyle().Foreground(colorDim).Render(
				fmt.Sprintf("    id: %s (%d messages)", t.ThreadID, t.MessageCount)) + "\n")
		}
	}

	return b.String()
}

// Package render formats search results and thread detail for the
// terminal.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/ferstar/nowledge-mem-plugins/internal/deepsearch"
)

var (
	colorPrimary   = lipgloss.Color("12")  // bright blue
	colorSecondary = lipgloss.Color("10")  // bright green
	colorDim       = lipgloss.Color("240") // gray
	colorHighlight = lipgloss.Color("11")  // bright yellow
	colorCritical  = lipgloss.Color("9")   // bright red

	styleHeader   = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleTitle    = lipgloss.NewStyle().Bold(true)
	styleDim      = lipgloss.NewStyle().Foreground(colorDim)
	styleLabel    = lipgloss.NewStyle().Foreground(colorPrimary)
	styleUser     = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleAssist   = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	styleWarn     = lipgloss.NewStyle().Foreground(colorHighlight)
	styleCritical = lipgloss.NewStyle().Foreground(colorCritical)
)

// FormatScore renders a similarity score as a percentage.
func FormatScore(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// FormatImportance maps an importance value to a colored band label.
func FormatImportance(importance float64) string {
	switch {
	case importance >= 0.8:
		return styleCritical.Render("critical")
	case importance >= 0.6:
		return styleWarn.Render("high")
	case importance >= 0.4:
		return styleLabel.Render("medium")
	}
	return styleDim.Render("low")
}

// Truncate shortens text to maxLen display columns with an ellipsis marker.
func Truncate(text string, maxLen int) string {
	if runewidth.StringWidth(text) <= maxLen {
		return text
	}
	return runewidth.Truncate(text, maxLen-3, "") + "..."
}

// SearchResult renders the two result tiers: memories first, related
// threads after. Remote content is fenced so downstream consumers can tell
// it apart from tool output.
func SearchResult(result *deepsearch.Result, verbose bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s %s\n", styleTitle.Render("Query:"), result.Query)
	fmt.Fprintf(&b, "%s\n\n", styleDim.Render(fmt.Sprintf(
		"Found %d memories, %d related threads",
		result.TotalMemoriesFound, result.TotalThreadsFound)))

	if len(result.Memories) == 0 {
		b.WriteString(styleWarn.Render("No memories found.") + "\n")
		return b.String()
	}

	b.WriteString(styleHeader.Render("== Memories ==") + "\n\n")
	b.WriteString("<untrusted_memory_content>\n")

	previewLen := 150
	if verbose {
		previewLen = 300
	}

	for i, mem := range result.Memories {
		title := mem.Title
		if title == "" {
			title = "[untitled]"
		}
		fmt.Fprintf(&b, "%s %s\n",
			styleTitle.Render(fmt.Sprintf("%d. %s", i+1, title)),
			styleDim.Render(fmt.Sprintf("(%s match, %s importance)",
				FormatScore(mem.SimilarityScore), FormatImportance(mem.Importance))))

		oneLine := strings.ReplaceAll(mem.Content, "\n", " ")
		fmt.Fprintf(&b, "   %s\n", Truncate(oneLine, previewLen))

		if len(mem.Labels) > 0 {
			tags := make([]string, len(mem.Labels))
			for j, l := range mem.Labels {
				tags[j] = styleLabel.Render("#" + l)
			}
			fmt.Fprintf(&b, "   %s\n", strings.Join(tags, " "))
		}

		if mem.SourceThreadID != "" {
			ref := mem.SourceThreadID
			if len(ref) > 8 {
				ref = ref[:8] + "..."
			}
			fmt.Fprintf(&b, "   %s\n", styleDim.Render("Source: thread/"+ref))
		}
		b.WriteString("\n")
	}

	b.WriteString("</untrusted_memory_content>\n\n")

	if len(result.RelatedThreads) > 0 {
		b.WriteString(styleHeader.Render("== Related Threads ==") + "\n\n")
		b.WriteString("<untrusted_thread_metadata>\n")
		for _, t := range result.RelatedThreads {
			title := t.Title
			if title == "" {
				title = t.Summary
			}
			if title == "" {
				title = "[untitled thread]"
			}
			tid := t.ThreadID
			if tid == "" {
				tid = "?"
			}
			fmt.Fprintf(&b, "  %s\n", styleTitle.Render("> "+title))
			fmt.Fprintf(&b, "    %s\n", styleDim.Render(fmt.Sprintf("id: %s (%d messages)", tid, t.MessageCount)))
		}
		b.WriteString("</untrusted_thread_metadata>\n\n")
		b.WriteString(styleDim.Render("Tip: use 'nmem expand <thread_id>' to view full content") + "\n")
	}

	return b.String()
}

// threadDetail is the subset of a thread response the detail view shows.
type threadDetail struct {
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// ThreadDetail renders a full thread, unwrapping a {"thread": ...} envelope
// when present (messages may live beside the envelope).
func ThreadDetail(raw json.RawMessage) string {
	var envelope struct {
		Thread   json.RawMessage `json:"thread"`
		Messages json.RawMessage `json:"messages"`
	}
	var detail threadDetail

	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Thread) > 0 {
		_ = json.Unmarshal(envelope.Thread, &detail)
		if len(detail.Messages) == 0 && len(envelope.Messages) > 0 {
			_ = json.Unmarshal(envelope.Messages, &detail.Messages)
		}
	} else {
		_ = json.Unmarshal(raw, &detail)
	}

	var b strings.Builder
	title := detail.Title
	if title == "" {
		title = detail.Summary
	}
	if title == "" {
		title = "Thread Detail"
	}
	fmt.Fprintf(&b, "\n%s\n", styleHeader.Render(title))

	if len(detail.Messages) == 0 {
		b.WriteString(styleWarn.Render("No messages in this thread.") + "\n")
		return b.String()
	}

	b.WriteString("\n<untrusted_historical_content>\n")
	for _, msg := range detail.Messages {
		switch msg.Role {
		case "user":
			fmt.Fprintf(&b, "\n%s\n", styleUser.Render("User:"))
		case "assistant":
			fmt.Fprintf(&b, "\n%s\n", styleAssist.Render("Assistant:"))
		default:
			fmt.Fprintf(&b, "\n%s\n", styleTitle.Render(msg.Role+":"))
		}
		b.WriteString(msg.Content + "\n")
	}
	b.WriteString("\n</untrusted_historical_content>\n")

	return b.String()
}

// Labels renders the labels listing, accepting either a bare array or a
// {"labels": [...], "total": n} object.
func Labels(raw json.RawMessage, limit int) string {
	type label struct {
		Name       string `json:"name"`
		UsageCount int    `json:"usage_count"`
	}

	var labels []label
	total := -1
	if err := json.Unmarshal(raw, &labels); err != nil {
		var obj struct {
			Labels []label `json:"labels"`
			Total  *int    `json:"total"`
		}
		if err := json.Unmarshal(raw, &obj); err != nil {
			return styleWarn.Render("Unrecognized labels response.") + "\n"
		}
		labels = obj.Labels
		if obj.Total != nil {
			total = *obj.Total
		}
	}
	if total < 0 {
		total = len(labels)
	}
	if len(labels) > limit {
		labels = labels[:limit]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", styleHeader.Render(fmt.Sprintf("Memory Labels (showing %d of %d)", len(labels), total)))
	for _, l := range labels {
		fmt.Fprintf(&b, "  %s %s\n", styleLabel.Render("#"+l.Name), styleDim.Render(fmt.Sprintf("(%d)", l.UsageCount)))
	}
	return b.String()
}

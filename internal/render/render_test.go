package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ferstar/nowledge-mem-plugins/internal/deepsearch"
)

func TestFormatScore(t *testing.T) {
	if got := FormatScore(0.876); got != "88%" {
		t.Errorf("FormatScore(0.876) = %q, want 88%%", got)
	}
	if got := FormatScore(0); got != "0%" {
		t.Errorf("FormatScore(0) = %q, want 0%%", got)
	}
}

func TestFormatImportance_Bands(t *testing.T) {
	cases := []struct {
		importance float64
		want       string
	}{
		{0.95, "critical"},
		{0.8, "critical"},
		{0.7, "high"},
		{0.5, "medium"},
		{0.1, "low"},
	}
	for _, tc := range cases {
		if got := FormatImportance(tc.importance); !strings.Contains(got, tc.want) {
			t.Errorf("FormatImportance(%v) = %q, want band %q", tc.importance, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate should leave short text alone, got %q", got)
	}
	got := Truncate("this line is definitely too long", 10)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Truncate(%q) = %q, want ellipsis suffix", "long", got)
	}
}

func TestSearchResult_FencesAndTip(t *testing.T) {
	result := &deepsearch.Result{
		Query: "deploy checklist",
		Memories: []deepsearch.MemoryItem{
			{MemoryID: "m1", Title: "Deploy steps", Content: "run migrations first",
				SimilarityScore: 0.9, Importance: 0.7, SourceThreadID: "thread-abc-123"},
		},
		RelatedThreads: []deepsearch.ThreadRef{
			{ThreadID: "thread-abc-123", Title: "Release session", MessageCount: 12},
		},
		TotalMemoriesFound: 1,
		TotalThreadsFound:  1,
	}

	out := SearchResult(result, false)
	for _, want := range []string{
		"<untrusted_memory_content>", "</untrusted_memory_content>",
		"<untrusted_thread_metadata>", "</untrusted_thread_metadata>",
		"Deploy steps", "run migrations first",
		"Release session", "nmem expand",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSearchResult_NoMemories(t *testing.T) {
	out := SearchResult(&deepsearch.Result{Query: "nothing"}, false)
	if !strings.Contains(out, "No memories found.") {
		t.Errorf("output = %q, want no-results notice", out)
	}
	if strings.Contains(out, "<untrusted_memory_content>") {
		t.Error("empty result should not open a content fence")
	}
}

func TestThreadDetail_UnwrapsEnvelope(t *testing.T) {
	raw := json.RawMessage(`{
		"thread": {"title": "Planning session"},
		"messages": [
			{"role": "user", "content": "where do we start"},
			{"role": "assistant", "content": "with the schema"}
		]
	}`)

	out := ThreadDetail(raw)
	for _, want := range []string{
		"Planning session", "<untrusted_historical_content>",
		"User:", "where do we start", "Assistant:", "with the schema",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestThreadDetail_FlatShape(t *testing.T) {
	raw := json.RawMessage(`{"title": "Flat", "messages": [{"role": "user", "content": "hi"}]}`)
	out := ThreadDetail(raw)
	if !strings.Contains(out, "Flat") || !strings.Contains(out, "hi") {
		t.Errorf("flat thread not rendered: %q", out)
	}
}

func TestLabels_BothShapes(t *testing.T) {
	bare := json.RawMessage(`[{"name": "infra", "usage_count": 4}]`)
	out := Labels(bare, 10)
	if !strings.Contains(out, "#infra") || !strings.Contains(out, "showing 1 of 1") {
		t.Errorf("bare array labels: %q", out)
	}

	wrapped := json.RawMessage(`{"labels": [{"name": "go", "usage_count": 9}], "total": 30}`)
	out = Labels(wrapped, 10)
	if !strings.Contains(out, "#go") || !strings.Contains(out, "showing 1 of 30") {
		t.Errorf("wrapped labels: %q", out)
	}
}

package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
)

func writeTranscript(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.jsonl")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

func claudeLine(role, content string) string {
	return `{"type":"` + role + `","message":{"content":"` + content + `"}}`
}

func TestParse_TotalLinesCountsEverything(t *testing.T) {
	path := writeTranscript(t,
		claudeLine("user", "hello there, how are you"),
		"",
		"not json at all {",
		`{"type":"summary","summary":"irrelevant"}`,
		claudeLine("assistant", "I am fine, thanks for asking!"),
	)

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.TotalLines != 5 {
		t.Errorf("TotalLines = %d, want 5", result.TotalLines)
	}
	if len(result.Messages) != 2 {
		t.Errorf("len(Messages) = %d, want 2", len(result.Messages))
	}
}

func TestParse_MinContentBoundary(t *testing.T) {
	exactly := strings.Repeat("a", config.MinContentLength)
	oneMore := strings.Repeat("a", config.MinContentLength+1)

	path := writeTranscript(t,
		claudeLine("user", exactly),
		claudeLine("user", oneMore),
	)

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	if result.Messages[0].Content != oneMore {
		t.Errorf("kept message = %q, want the %d-char one", result.Messages[0].Content, len(oneMore))
	}
}

func TestParse_StripsControlChars(t *testing.T) {
	// JSON escapes decode to real control bytes before sanitization runs.
	path := writeTranscript(t,
		claudeLine("user", `bad\u0000chars\u0007here\tkeep\nthese`),
	)

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	got := result.Messages[0].Content
	want := "badcharshere\tkeep\nthese"
	if got != want {
		t.Errorf("Content = %q, want %q", got, want)
	}
}

func TestParse_TruncatesLongContent(t *testing.T) {
	long := strings.Repeat("x", config.MaxContentLength+500)
	path := writeTranscript(t, claudeLine("user", long))

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	if got := len(result.Messages[0].Content); got != config.MaxContentLength {
		t.Errorf("len(Content) = %d, want %d", got, config.MaxContentLength)
	}
}

func TestParse_TruncationKeepsRuneBoundary(t *testing.T) {
	// A leading ASCII byte shifts every 3-byte rune off the byte limit, so a
	// naive byte cut would land mid-rune.
	long := "a" + strings.Repeat("记", config.MaxContentLength/3+10)
	path := writeTranscript(t, claudeLine("user", long))

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	got := result.Messages[0].Content
	if !utf8.ValidString(got) {
		t.Errorf("truncated content is not valid UTF-8")
	}
	if len(got) > config.MaxContentLength {
		t.Errorf("len(Content) = %d, want <= %d", len(got), config.MaxContentLength)
	}
}

func TestParse_ContentBlocks(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"assistant","message":{"content":[{"type":"text","text":"first part"},{"type":"tool_use","name":"bash"},{"type":"text","text":" second part"}]}}`,
	)

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("len(Messages) = %d, want 1", len(result.Messages))
	}
	// fragments concatenate in order with no separator
	if got := result.Messages[0].Content; got != "first part second part" {
		t.Errorf("Content = %q", got)
	}
}

func TestParse_CodexFormat(t *testing.T) {
	path := writeTranscript(t,
		`{"type":"session_meta","payload":{"cwd":"/tmp/proj"}}`,
		`{"type":"response_item","payload":{"type":"message","role":"user","content":[{"type":"input_text","text":"please fix the tests"}],"timestamp":"2026-02-01T10:00:00Z"}}`,
		`{"type":"response_item","payload":{"type":"message","role":"assistant","content":[{"type":"output_text","text":"done, all tests pass"}]},"timestamp":"2026-02-01T10:01:00Z"}`,
		`{"type":"response_item","payload":{"type":"reasoning","summary":"thinking"}}`,
	)

	result, err := Parse(path, Options{KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(result.Messages))
	}
	if result.Messages[0].Role != "user" || result.Messages[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", result.Messages[0].Role, result.Messages[1].Role)
	}
	// payload timestamp used when the envelope lacks one
	if result.Messages[0].Timestamp != "2026-02-01T10:00:00Z" {
		t.Errorf("Timestamp = %q, want payload fallback", result.Messages[0].Timestamp)
	}
	if result.Messages[1].Timestamp != "2026-02-01T10:01:00Z" {
		t.Errorf("Timestamp = %q, want envelope value", result.Messages[1].Timestamp)
	}
}

func TestParse_CapKeepsNewestCollected(t *testing.T) {
	lines := []string{
		claudeLine("user", "message number one"),
		claudeLine("assistant", "reply number one"),
		claudeLine("user", "message number two"),
		claudeLine("assistant", "reply number two"),
		claudeLine("user", "message number three"),
		claudeLine("assistant", "reply number three"),
	}
	path := writeTranscript(t, lines...)

	result, err := Parse(path, Options{MaxMessages: 2, KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.TotalLines != 6 {
		t.Errorf("TotalLines = %d, want 6", result.TotalLines)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(result.Messages))
	}
	// Collection stops at twice the cap (after "reply number two"), so the
	// trim keeps the newest pair of what was actually collected.
	if result.Messages[0].Content != "message number two" {
		t.Errorf("Messages[0] = %q, want %q", result.Messages[0].Content, "message number two")
	}
	if result.Messages[1].Content != "reply number two" {
		t.Errorf("Messages[1] = %q, want %q", result.Messages[1].Content, "reply number two")
	}
}

func TestParse_CapSuppressionStillCountsLines(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, claudeLine("user", "some long enough message"))
	}
	path := writeTranscript(t, lines...)

	result, err := Parse(path, Options{MaxMessages: 1, KeepTrailingTurn: true, KeepIncompleteTurns: true})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.TotalLines != 10 {
		t.Errorf("TotalLines = %d, want 10", result.TotalLines)
	}
	if len(result.Messages) != 1 {
		t.Errorf("len(Messages) = %d, want 1", len(result.Messages))
	}
}

// The end-to-end shape: a trailing lone user turn is dropped, the complete
// turn before it survives.
func TestParse_TurnFiltering(t *testing.T) {
	path := writeTranscript(t,
		claudeLine("user", "hello there, how are you"),
		claudeLine("assistant", "I am fine, thanks for asking!"),
		claudeLine("user", "ok bye now then"),
	)

	result, err := Parse(path, Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.TotalLines != 3 {
		t.Errorf("TotalLines = %d, want 3", result.TotalLines)
	}
	if len(result.Messages) != 2 {
		t.Fatalf("len(Messages) = %d, want 2", len(result.Messages))
	}
	if result.Messages[0].Role != "user" || result.Messages[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", result.Messages[0].Role, result.Messages[1].Role)
	}
}

func TestParse_EmptyFileIsNotAnError(t *testing.T) {
	path := writeTranscript(t, "")

	result, err := Parse(path, Options{})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(result.Messages) != 0 {
		t.Errorf("len(Messages) = %d, want 0", len(result.Messages))
	}
}

func TestParse_MissingFileIsAnError(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.jsonl"), Options{})
	if err == nil {
		t.Fatal("Parse should fail for a missing file")
	}
}

package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/ferstar/nowledge-mem-plugins/internal/config"
)

const maxLineSize = 10 * 1024 * 1024 // 10MB

// Options controls transcript parsing. The zero value gives unlimited
// messages with both turn filters enabled.
type Options struct {
	MaxMessages int // 0 = unlimited

	// KeepTrailingTurn keeps the current, presumably unanswered, turn.
	KeepTrailingTurn bool
	// KeepIncompleteTurns keeps user messages whose turn was cancelled.
	KeepIncompleteTurns bool
}

// envelope covers both transcript schemas; which fields are set decides the
// format.
type envelope struct {
	Type      string          `json:"type"`
	Timestamp string          `json:"timestamp"`
	Message   json.RawMessage `json:"message"` // Claude Code
	Payload   json.RawMessage `json:"payload"` // Codex CLI
}

type codexPayload struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Timestamp string          `json:"timestamp"`
	Content   json.RawMessage `json:"content"`
}

// Parse streams a JSONL transcript and extracts normalized messages.
// Malformed or unrecognized lines are skipped, never fatal; every line read
// counts toward TotalLines.
func Parse(path string, opts Options) (*ParseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := &ParseResult{}
	capLimit := opts.MaxMessages

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		result.TotalLines++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}

		msg, ok := parseClaudeLine(&env)
		if !ok {
			msg, ok = parseCodexLine(&env)
		}
		if !ok {
			continue
		}

		msg.Content = sanitizeContent(msg.Content)
		if len(msg.Content) <= config.MinContentLength {
			continue
		}

		// Memory bound: past twice the cap, lines are still counted and
		// parsed but messages are no longer retained.
		if capLimit > 0 && len(result.Messages) >= capLimit*2 {
			continue
		}
		result.Messages = append(result.Messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if capLimit > 0 && len(result.Messages) > capLimit {
		result.Messages = result.Messages[len(result.Messages)-capLimit:]
	}

	if !opts.KeepIncompleteTurns {
		result.Messages = dropIncompleteTurns(result.Messages)
	}
	if !opts.KeepTrailingTurn {
		result.Messages = dropTrailingTurn(result.Messages)
	}

	return result, nil
}

func parseClaudeLine(env *envelope) (Message, bool) {
	if env.Type != "user" && env.Type != "assistant" {
		return Message{}, false
	}
	content := extractContent(env.Message)
	if content == "" {
		return Message{}, false
	}
	return Message{Role: env.Type, Content: content, Timestamp: env.Timestamp}, true
}

func parseCodexLine(env *envelope) (Message, bool) {
	if env.Type != "response_item" || len(env.Payload) == 0 {
		return Message{}, false
	}

	var p codexPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return Message{}, false
	}
	if p.Type != "message" || (p.Role != "user" && p.Role != "assistant") {
		return Message{}, false
	}

	content := extractContent(p.Content)
	if content == "" {
		return Message{}, false
	}

	ts := env.Timestamp
	if ts == "" {
		ts = p.Timestamp
	}
	return Message{Role: p.Role, Content: content, Timestamp: ts}, true
}

// textBlockTypes are the content block kinds that carry plain text. Claude
// uses "text"; Codex uses "input_text"/"output_text". Everything else (tool
// calls, images) contributes nothing.
var textBlockTypes = map[string]bool{
	"text":        true,
	"input_text":  true,
	"output_text": true,
}

// extractContent pulls plain text out of a message value that may be a bare
// string, a list of content blocks, or an object whose "content" field holds
// either form.
func extractContent(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	if blocks, ok := decodeBlockList(raw); ok {
		return blocks
	}

	var obj struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj.Content) == 0 {
		return ""
	}
	if err := json.Unmarshal(obj.Content, &s); err == nil {
		return s
	}
	if blocks, ok := decodeBlockList(obj.Content); ok {
		return blocks
	}
	return ""
}

// decodeBlockList concatenates the text of recognized text-bearing blocks in
// order, with no separator. Individual undecodable blocks are skipped.
func decodeBlockList(raw json.RawMessage) (string, bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return "", false
	}

	var b strings.Builder
	for _, item := range items {
		var block struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &block); err != nil {
			continue
		}
		if textBlockTypes[block.Type] {
			b.WriteString(block.Text)
		}
	}
	return b.String(), true
}

// sanitizeContent truncates to MaxContentLength first, then strips ASCII
// control characters except tab, newline, and carriage return from the
// truncated slice. The cut backs up to a rune boundary so truncation never
// leaves a partial multibyte sequence.
func sanitizeContent(content string) string {
	if len(content) > config.MaxContentLength {
		cut := config.MaxContentLength
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return strings.Map(func(r rune) rune {
		if r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		if r < 0x20 || r == 0x7F {
			return -1
		}
		return r
	}, content)
}

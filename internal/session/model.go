package session

// Message is a single normalized transcript message.
type Message struct {
	Role      string `json:"role"` // "user" or "assistant"
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ParseResult is the outcome of parsing one transcript file. TotalLines
// counts every line read, including blank, malformed, and cap-suppressed
// ones.
type ParseResult struct {
	Messages   []Message
	TotalLines int
}

// ThreadRequest is the payload persisted to the server. Built once per
// invocation, never mutated.
type ThreadRequest struct {
	ThreadID     string         `json:"thread_id"`
	Title        string         `json:"title"`
	Messages     []Message      `json:"messages"`
	Participants []string       `json:"participants"`
	Source       string         `json:"source"`
	Project      string         `json:"project"`
	Workspace    string         `json:"workspace"`
	ImportDate   string         `json:"import_date"`
	Metadata     ThreadMetadata `json:"metadata"`
}

type ThreadMetadata struct {
	SessionFile       string `json:"session_file"`
	TotalLinesInFile  int    `json:"total_lines_in_file"`
	MessagesExtracted int    `json:"messages_extracted"`
	PersistMethod     string `json:"persist_method"`
	CLI               string `json:"cli"`
}

// Source labels reported by the locator and recorded on persisted threads.
const (
	SourceClaude = "claude-code"
	SourceCodex  = "codex"
)

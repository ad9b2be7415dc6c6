package session

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ErrSessionNotFound marks "no usable session" conditions so callers can
// distinguish them from plain I/O failures via errors.Is.
var ErrSessionNotFound = errors.New("session not found")

// Locator finds the most recent transcript file for a project across the
// Claude Code and Codex CLI session stores. Roots are injected so tests can
// point at temp directories.
type Locator struct {
	ClaudeRoot string
	CodexRoot  string
}

// Candidate is one located transcript file.
type Candidate struct {
	Path   string
	Mtime  int64
	Source string // SourceClaude or SourceCodex
}

// EncodeProjectPath maps an absolute project path to the directory name
// Claude Code uses under its projects root:
//
//	/. -> --  (hidden directories)
//	/  -> -
//
// with leading hyphens stripped and exactly one hyphen prefixed.
func EncodeProjectPath(absPath string) string {
	encoded := strings.ReplaceAll(absPath, string(filepath.Separator)+".", "--")
	encoded = strings.ReplaceAll(encoded, string(filepath.Separator), "-")
	encoded = strings.TrimLeft(encoded, "-")
	return "-" + encoded
}

// FindLatest returns the most relevant transcript for projectPath given a
// source preference ("auto", "claude", or "codex"; anything else is auto).
func (l *Locator) FindLatest(projectPath, preferred string) (*Candidate, error) {
	preferred = strings.ToLower(preferred)
	switch preferred {
	case "claude":
		return l.findLatestClaude(projectPath)
	case "codex":
		return l.findLatestCodex(projectPath)
	}

	// Auto mode: try both stores independently, newest mtime wins.
	var causes []string
	var best *Candidate

	for _, find := range []func(string) (*Candidate, error){l.findLatestClaude, l.findLatestCodex} {
		c, err := find(projectPath)
		if err != nil {
			causes = append(causes, err.Error())
			continue
		}
		if best == nil || c.Mtime > best.Mtime {
			best = c
		}
	}

	if best == nil {
		return nil, fmt.Errorf("%w: no session files for project %s\n%s",
			ErrSessionNotFound, projectPath, strings.Join(causes, "\n"))
	}
	return best, nil
}

func (l *Locator) findLatestClaude(projectPath string) (*Candidate, error) {
	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}

	sessionDir := filepath.Join(l.ClaudeRoot, EncodeProjectPath(absPath))
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: session directory %s does not exist (expected encoding for %s)",
				ErrSessionNotFound, sessionDir, absPath)
		}
		return nil, err
	}

	// Single pass tracking the running maximum; no sort.
	var latest *Candidate
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			log.Printf("warning: cannot stat %s: %v", filepath.Join(sessionDir, name), err)
			continue
		}
		mtime := info.ModTime().Unix()
		if latest == nil || mtime > latest.Mtime {
			latest = &Candidate{
				Path:   filepath.Join(sessionDir, name),
				Mtime:  mtime,
				Source: SourceClaude,
			}
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("%w: no session files in %s", ErrSessionNotFound, sessionDir)
	}
	return latest, nil
}

func (l *Locator) findLatestCodex(projectPath string) (*Candidate, error) {
	if _, err := os.Stat(l.CodexRoot); err != nil {
		return nil, fmt.Errorf("%w: codex sessions root not found: %s", ErrSessionNotFound, l.CodexRoot)
	}

	projectReal, err := filepath.Abs(projectPath)
	if err != nil {
		return nil, err
	}

	var latest *Candidate
	walkErr := filepath.Walk(l.CodexRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if info.IsDir() || filepath.Ext(path) != ".jsonl" {
			return nil
		}
		mtime := info.ModTime().Unix()
		if latest != nil && mtime <= latest.Mtime {
			return nil
		}
		cwd := extractCodexCwd(path)
		if cwd == "" {
			return nil
		}
		abs, err := filepath.Abs(cwd)
		if err != nil || abs != projectReal {
			return nil
		}
		latest = &Candidate{Path: path, Mtime: mtime, Source: SourceCodex}
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	if latest == nil {
		return nil, fmt.Errorf("%w: no codex session files for project %s", ErrSessionNotFound, projectReal)
	}
	return latest, nil
}

// codexMeta is the first-line session_meta record of a Codex transcript.
type codexMeta struct {
	Type    string `json:"type"`
	Payload struct {
		Cwd string `json:"cwd"`
	} `json:"payload"`
}

// extractCodexCwd reads only the first line of a Codex session file and
// returns its declared working directory, or "" if the line is missing,
// malformed, or not session metadata.
func extractCodexCwd(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	if !scanner.Scan() {
		return ""
	}

	var meta codexMeta
	if err := json.Unmarshal(scanner.Bytes(), &meta); err != nil {
		return ""
	}
	if meta.Type != "session_meta" {
		return ""
	}
	return meta.Payload.Cwd
}

// Package deepsearch implements progressive disclosure search over the
// remote memory store: a primary semantic memory search, then an optional
// pass that surfaces the conversational threads behind the matches.
package deepsearch

import (
	"encoding/json"
)

// MemoryItem is a single memory from search results.
type MemoryItem struct {
	MemoryID        string   `json:"memory_id"`
	Title           string   `json:"title,omitempty"`
	Content         string   `json:"content"`
	SimilarityScore float64  `json:"similarity_score"`
	Importance      float64  `json:"importance"`
	Labels          []string `json:"labels,omitempty"`
	SourceThreadID  string   `json:"source_thread_id,omitempty"`
}

// ThreadRef is a reference to a related thread.
type ThreadRef struct {
	ThreadID     string `json:"thread_id"`
	Title        string `json:"title,omitempty"`
	Summary      string `json:"summary,omitempty"`
	MessageCount int    `json:"message_count"`
}

// Result aggregates one search call. Constructed fresh per call, never
// cached.
type Result struct {
	Query              string       `json:"query"`
	Memories           []MemoryItem `json:"memories"`
	RelatedThreads     []ThreadRef  `json:"related_threads"`
	TotalMemoriesFound int          `json:"total_memories_found"`
	TotalThreadsFound  int          `json:"total_threads_found"`
}

// Client is the remote search collaborator. Responses come back as raw JSON
// because the server answers in several shapes; normalization happens here.
type Client interface {
	SearchMemories(query string, limit int) (json.RawMessage, error)
	SearchThreads(query string, limit int) (json.RawMessage, error)
	GetThread(threadID string) (json.RawMessage, error)
}

// Searcher runs two-phase searches against an injected collaborator.
type Searcher struct {
	client Client
}

func New(client Client) *Searcher {
	return &Searcher{client: client}
}

// Search runs phase 1 (memory search, errors fatal) and, when requested,
// phase 2 (thread discovery). Phase 2 tries direct source-thread references
// first; individual fetch failures are skipped since the thread may no
// longer exist. Only when no reference resolves does it fall back to a
// query-based thread search.
func (s *Searcher) Search(query string, memoryLimit, threadLimit int, expandThreads bool) (*Result, error) {
	result := &Result{Query: query}

	raw, err := s.client.SearchMemories(query, memoryLimit)
	if err != nil {
		return nil, err
	}

	page, err := decodeMemoryPage(raw)
	if err != nil {
		return nil, err
	}
	for _, rec := range page.records {
		item, ok := normalizeMemory(rec)
		if !ok {
			continue
		}
		result.Memories = append(result.Memories, item)
	}
	if page.declared {
		result.TotalMemoriesFound = page.total
	} else {
		result.TotalMemoriesFound = len(result.Memories)
	}

	if !expandThreads || threadLimit <= 0 {
		return result, nil
	}

	// Strategy 1: direct references via source_thread_id.
	for _, id := range s.threadIDs(result.Memories, threadLimit) {
		ref, ok := s.resolveThread(id)
		if !ok {
			continue
		}
		result.RelatedThreads = append(result.RelatedThreads, ref)
	}

	if len(result.RelatedThreads) > 0 {
		result.TotalThreadsFound = len(result.RelatedThreads)
		return result, nil
	}

	// Strategy 2: query fallback when no reference resolved.
	raw, err = s.client.SearchThreads(query, threadLimit)
	if err != nil {
		return nil, err
	}
	tpage, err := decodeThreadPage(raw)
	if err != nil {
		return nil, err
	}
	for _, rec := range tpage.records {
		ref, ok := normalizeThread(rec)
		if !ok {
			continue
		}
		result.RelatedThreads = append(result.RelatedThreads, ref)
	}
	if tpage.declared {
		result.TotalThreadsFound = tpage.total
	} else {
		result.TotalThreadsFound = len(result.RelatedThreads)
	}

	return result, nil
}

// threadIDs collects distinct non-empty source thread IDs in first-seen
// order, capped at limit.
func (s *Searcher) threadIDs(memories []MemoryItem, limit int) []string {
	seen := make(map[string]bool)
	var ids []string
	for _, m := range memories {
		if m.SourceThreadID == "" || seen[m.SourceThreadID] {
			continue
		}
		seen[m.SourceThreadID] = true
		ids = append(ids, m.SourceThreadID)
		if len(ids) == limit {
			break
		}
	}
	return ids
}

// resolveThread fetches one thread by ID. Any failure, remote or decode,
// reports ok=false; the caller's policy is to skip.
func (s *Searcher) resolveThread(id string) (ThreadRef, bool) {
	raw, err := s.client.GetThread(id)
	if err != nil {
		return ThreadRef{}, false
	}
	return normalizeThread(unwrapThread(raw))
}

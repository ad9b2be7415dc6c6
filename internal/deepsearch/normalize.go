package deepsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const defaultImportance = 0.5

// page is a search response reduced to one canonical shape before any field
// access: the raw records plus the declared total, if the response carried
// one.
type page struct {
	records  []json.RawMessage
	total    int
	declared bool
}

// decodeMemoryPage accepts either a bare JSON array of records or an object
// with a "memories" array and optional "total".
func decodeMemoryPage(raw json.RawMessage) (page, error) {
	return decodePage(raw, "memories")
}

// decodeThreadPage accepts a bare array or an object with "threads" and
// optional "total".
func decodeThreadPage(raw json.RawMessage) (page, error) {
	return decodePage(raw, "threads")
}

func decodePage(raw json.RawMessage, key string) (page, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []json.RawMessage
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return page{}, fmt.Errorf("decode %s response: %w", key, err)
		}
		return page{records: records}, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return page{}, fmt.Errorf("decode %s response: %w", key, err)
	}

	p := page{}
	if recs, ok := obj[key]; ok {
		if err := json.Unmarshal(recs, &p.records); err != nil {
			return page{}, fmt.Errorf("decode %s records: %w", key, err)
		}
	}
	if totalRaw, ok := obj["total"]; ok {
		if err := json.Unmarshal(totalRaw, &p.total); err == nil {
			p.declared = true
		}
	}
	return p, nil
}

type memoryFields struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	SimilarityScore *float64 `json:"similarity_score"`
	Importance      *float64 `json:"importance"`
	Labels          []string `json:"labels"`
	SourceThreadID  string   `json:"source_thread_id"`
}

// normalizeMemory handles both record shapes: a wrapper carrying the score
// next to a nested "memory" object, or a flat memory with an optional
// in-record score. Score defaults to 0.0 and importance to 0.5.
func normalizeMemory(raw json.RawMessage) (MemoryItem, bool) {
	var probe struct {
		Memory          json.RawMessage `json:"memory"`
		SimilarityScore *float64        `json:"similarity_score"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return MemoryItem{}, false
	}

	var fields memoryFields
	var score *float64
	if len(probe.Memory) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Memory), []byte("null")) {
		if err := json.Unmarshal(probe.Memory, &fields); err != nil {
			return MemoryItem{}, false
		}
		score = probe.SimilarityScore
	} else {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return MemoryItem{}, false
		}
		score = fields.SimilarityScore
	}

	item := MemoryItem{
		MemoryID:       fields.ID,
		Title:          fields.Title,
		Content:        fields.Content,
		Importance:     defaultImportance,
		Labels:         fields.Labels,
		SourceThreadID: fields.SourceThreadID,
	}
	if score != nil {
		item.SimilarityScore = *score
	}
	if fields.Importance != nil {
		item.Importance = *fields.Importance
	}
	return item, true
}

// unwrapThread prefers a nested {"thread": {...}} envelope over a flat
// thread object.
func unwrapThread(raw json.RawMessage) json.RawMessage {
	var probe struct {
		Thread json.RawMessage `json:"thread"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil &&
		len(probe.Thread) > 0 && !bytes.Equal(bytes.TrimSpace(probe.Thread), []byte("null")) {
		return probe.Thread
	}
	return raw
}

func normalizeThread(raw json.RawMessage) (ThreadRef, bool) {
	var fields struct {
		ThreadID     string `json:"thread_id"`
		ID           string `json:"id"`
		Title        string `json:"title"`
		Summary      string `json:"summary"`
		MessageCount int    `json:"message_count"`
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return ThreadRef{}, false
	}

	id := fields.ThreadID
	if id == "" {
		id = fields.ID
	}
	return ThreadRef{
		ThreadID:     id,
		Title:        fields.Title,
		Summary:      fields.Summary,
		MessageCount: fields.MessageCount,
	}, true
}

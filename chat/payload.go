package chat

import (
	"encoding/json"
	"strings"
	"time"
)

// Content parse kinds returned by ParseContent.
const (
	ContentPlain      = "plain"
	ContentStructured = "structured"
)

// ParsedContent is the tagged result of interpreting raw reply content.
// Either Kind is ContentStructured and Chunks holds the converted segments,
// or Kind is ContentPlain and Text holds the content unchanged. Callers
// switch on Kind instead of guessing whether content might be JSON.
type ParsedContent struct {
	Kind   string
	Text   string
	Chunks []Chunk
}

// structuredPayload is the finalized representation of a reply some
// transports deliver once streaming ends: the full content as an ordered
// segment list instead of accumulated deltas.
type structuredPayload struct {
	Type            string        `json:"type"`
	InteractionFlow []flowSegment `json:"interaction_flow"`
}

type flowSegment struct {
	Type      string          `json:"type"`
	Content   string          `json:"content,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Status    string          `json:"status,omitempty"`
	StartedAt string          `json:"started_at,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     json.RawMessage `json:"error,omitempty"`
}

// ParseContent decides whether raw is a complete structured payload or plain
// text. Segments convert 1:1 into chunks, keeping segment order and any
// timestamps the payload carries; segments without timestamps are stamped
// from base in segment order. Anything that is not a well-formed
// agent_response object - including partially streamed JSON - is plain text.
func ParseContent(raw string, base time.Time) ParsedContent {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") || !strings.Contains(trimmed, "interaction_flow") {
		return ParsedContent{Kind: ContentPlain, Text: raw}
	}

	var payload structuredPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil || payload.Type != "agent_response" {
		return ParsedContent{Kind: ContentPlain, Text: raw}
	}

	chunks := make([]Chunk, 0, len(payload.InteractionFlow))
	seq := 0
	for i, seg := range payload.InteractionFlow {
		switch seg.Type {
		case "text":
			chunks = append(chunks, Chunk{
				Kind:      ChunkText,
				Content:   seg.Content,
				Timestamp: segmentTime(seg.Timestamp, base, i),
				Seq:       seq,
			})
			seq++
		case "tool_call":
			chunks = append(chunks, Chunk{
				Kind:      ChunkToolStatus,
				CallID:    seg.ID,
				ToolName:  seg.Name,
				Status:    seg.Status,
				Result:    seg.Result,
				Error:     seg.Error,
				Timestamp: segmentTime(seg.StartedAt, base, i),
			})
		case "reasoning":
			chunks = append(chunks, Chunk{
				Kind:      ChunkReasoning,
				Content:   seg.Content,
				Timestamp: segmentTime(seg.Timestamp, base, i),
			})
		default:
			// Unknown segment types are preserved as text so no content
			// silently disappears from the transcript.
			if seg.Content != "" {
				chunks = append(chunks, Chunk{
					Kind:      ChunkText,
					Content:   seg.Content,
					Timestamp: segmentTime(seg.Timestamp, base, i),
					Seq:       seq,
				})
				seq++
			}
		}
	}
	return ParsedContent{Kind: ContentStructured, Chunks: chunks}
}

// segmentTime parses a payload timestamp, falling back to base plus the
// segment's position so provided order survives sorting.
func segmentTime(stamp string, base time.Time, index int) time.Time {
	if stamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
			return ts
		}
		if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
			return ts
		}
	}
	return base.Add(time.Duration(index) * time.Millisecond)
}

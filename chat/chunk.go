package chat

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// Chunk kinds. A reply's transcript is a sequence of these.
const (
	ChunkText       = "text"
	ChunkToolStatus = "tool_status"
	ChunkReasoning  = "reasoning"
)

// kindPriority breaks timestamp ties: reasoning sorts before text, text
// before tool status. Matches how replies read naturally - the model thinks,
// then speaks, then acts.
func kindPriority(kind string) int {
	switch kind {
	case ChunkReasoning:
		return 0
	case ChunkText:
		return 1
	case ChunkToolStatus:
		return 2
	}
	return 3
}

// Chunk is a single typed fragment of an agent reply.
type Chunk struct {
	Kind      string
	Content   string // text and reasoning chunks
	Timestamp time.Time
	Seq       int // text segment index, tie-breaker among text chunks

	// tool_status chunks only
	CallID   string
	ToolName string
	Status   string
	Result   json.RawMessage
	Error    json.RawMessage
}

// Timeline holds the content chunks of one in-flight agent reply.
//
// The transport may deliver a buffered tool-status event slightly out of
// sequence relative to text, so delivery order is NOT presentation order:
// Sorted() is the authoritative projection. Timestamps for events the
// transport does not stamp are synthesized from a base anchor plus the
// cumulative text length, so that a tool call always sorts after the text
// that preceded it (see synthesize).
type Timeline struct {
	chunks  []Chunk
	base    time.Time
	textLen int // high-water mark of cumulative text seen so far
	nextSeq int
}

// NewTimeline creates a timeline anchored at base. The anchor is normally
// the moment the stream session opened; tests inject a fixed instant.
func NewTimeline(base time.Time) *Timeline {
	return &Timeline{base: base}
}

// synthesize converts a text-length offset into a timestamp. One unit per
// character keeps ordering stable without touching the wall clock again;
// swapping this for a logical clock only requires changing the base.
func (tl *Timeline) synthesize(offset int) time.Time {
	return tl.base.Add(time.Duration(offset) * time.Millisecond)
}

// Len returns the number of chunks currently held.
func (tl *Timeline) Len() int { return len(tl.chunks) }

// Empty reports whether no chunks have been recorded yet.
func (tl *Timeline) Empty() bool { return len(tl.chunks) == 0 }

// TextLen returns the cumulative text high-water mark.
func (tl *Timeline) TextLen() int { return tl.textLen }

// AppendOrMergeText records the cumulative text seen so far (not a delta).
// The delta since the last call is computed from the high-water mark.
// A cumulative string shorter than what was already recorded is a stale or
// duplicate delivery and is ignored.
//
// While no tool or reasoning chunks exist the whole text lives in a single
// leading chunk updated in place. Once non-text chunks exist, text either
// extends the most recent text chunk (if it is chronologically after every
// non-text chunk) or starts a new segment stamped strictly after the latest
// non-text chunk, so that "text after the tool call" sorts after it.
func (tl *Timeline) AppendOrMergeText(cumulative string) {
	if len(cumulative) < tl.textLen {
		return // stale delivery
	}
	delta := cumulative[tl.textLen:]
	if delta == "" {
		return
	}
	tl.textLen = len(cumulative)

	lastNonText := tl.latestNonText()
	if lastNonText < 0 {
		// No tool/reasoning chunks yet: keep one leading text chunk.
		for i := range tl.chunks {
			if tl.chunks[i].Kind == ChunkText {
				tl.chunks[i].Content = cumulative
				return
			}
		}
		tl.chunks = append(tl.chunks, Chunk{
			Kind:      ChunkText,
			Content:   cumulative,
			Timestamp: tl.base,
			Seq:       tl.takeSeq(),
		})
		return
	}

	lastText := tl.latestText()
	if lastText >= 0 && tl.chunks[lastText].Timestamp.After(tl.chunks[lastNonText].Timestamp) {
		tl.chunks[lastText].Content += delta
		return
	}

	// Resume after a tool call: new segment stamped strictly after the
	// latest non-text chunk.
	tl.chunks = append(tl.chunks, Chunk{
		Kind:      ChunkText,
		Content:   delta,
		Timestamp: tl.chunks[lastNonText].Timestamp.Add(time.Millisecond),
		Seq:       tl.takeSeq(),
	})
}

// UpsertToolStatus records a tool-call status in the transcript. Repeated
// pushes for the same call id update status/result/error in place but keep
// the original timestamp, so the chunk's position in the timeline is stable.
// A new call is stamped after all text seen so far, ensuring it sorts after
// the text that led up to it even if the events raced.
func (tl *Timeline) UpsertToolStatus(callID, toolName, status string, result, errPayload json.RawMessage) {
	if callID == "" {
		return
	}
	for i := range tl.chunks {
		c := &tl.chunks[i]
		if c.Kind != ChunkToolStatus || c.CallID != callID {
			continue
		}
		if status != "" {
			c.Status = status
		}
		if c.ToolName == "" {
			c.ToolName = toolName
		}
		if result != nil {
			c.Result = result
		}
		if errPayload != nil {
			c.Error = errPayload
		}
		return
	}
	tl.chunks = append(tl.chunks, Chunk{
		Kind:      ChunkToolStatus,
		CallID:    callID,
		ToolName:  toolName,
		Status:    status,
		Result:    result,
		Error:     errPayload,
		Timestamp: tl.synthesize(tl.textLen + 1),
	})
}

// AppendReasoning adds a reasoning fragment, concatenating into the last
// chunk when it is also reasoning (deltas arrive in small pieces).
func (tl *Timeline) AppendReasoning(text string) {
	if text == "" {
		return
	}
	if n := len(tl.chunks); n > 0 && tl.chunks[n-1].Kind == ChunkReasoning {
		tl.chunks[n-1].Content += text
		return
	}
	tl.chunks = append(tl.chunks, Chunk{
		Kind:      ChunkReasoning,
		Content:   text,
		Timestamp: tl.synthesize(tl.textLen),
	})
}

// Sorted returns the chunks in presentation order: timestamp, then kind
// priority (reasoning, text, tool status), then text segment index. It is a
// pure projection - calling it repeatedly without intervening mutation
// returns an identical sequence.
func (tl *Timeline) Sorted() []Chunk {
	out := make([]Chunk, len(tl.chunks))
	copy(out, tl.chunks)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		pi, pj := kindPriority(out[i].Kind), kindPriority(out[j].Kind)
		if pi != pj {
			return pi < pj
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Text returns the reply's displayed text: the concatenation of text chunks
// in presentation order.
func (tl *Timeline) Text() string {
	var b strings.Builder
	for _, c := range tl.Sorted() {
		if c.Kind == ChunkText {
			b.WriteString(c.Content)
		}
	}
	return b.String()
}

// Optimize coalesces text chunks that ended up adjacent after sorting (a
// tool call completing and text resuming produces separate segments) into
// single chunks, bounding transcript size. The concatenated text is
// preserved exactly.
func (tl *Timeline) Optimize() {
	sorted := tl.Sorted()
	merged := make([]Chunk, 0, len(sorted))
	for _, c := range sorted {
		if n := len(merged); n > 0 && c.Kind == ChunkText && merged[n-1].Kind == ChunkText {
			merged[n-1].Content += c.Content
			continue
		}
		merged = append(merged, c)
	}
	tl.chunks = merged
}

// Replace discards all incremental state and installs the given chunks as
// the authoritative timeline. Used when a complete structured payload
// supersedes streamed deltas. The high-water mark is advanced so late
// stragglers from the replaced stream are treated as stale.
func (tl *Timeline) Replace(chunks []Chunk) {
	tl.chunks = append([]Chunk(nil), chunks...)
	total := 0
	maxSeq := -1
	for _, c := range tl.chunks {
		if c.Kind == ChunkText {
			total += len(c.Content)
			if c.Seq > maxSeq {
				maxSeq = c.Seq
			}
		}
	}
	if total > tl.textLen {
		tl.textLen = total
	}
	if maxSeq >= tl.nextSeq {
		tl.nextSeq = maxSeq + 1
	}
}

func (tl *Timeline) takeSeq() int {
	s := tl.nextSeq
	tl.nextSeq++
	return s
}

// latestNonText returns the index of the chronologically latest non-text
// chunk, or -1.
func (tl *Timeline) latestNonText() int {
	best := -1
	for i := range tl.chunks {
		if tl.chunks[i].Kind == ChunkText {
			continue
		}
		if best < 0 || tl.chunks[i].Timestamp.After(tl.chunks[best].Timestamp) {
			best = i
		}
	}
	return best
}

// latestText returns the index of the chronologically latest text chunk
// (ties broken by segment index), or -1.
func (tl *Timeline) latestText() int {
	best := -1
	for i := range tl.chunks {
		if tl.chunks[i].Kind != ChunkText {
			continue
		}
		if best < 0 ||
			tl.chunks[i].Timestamp.After(tl.chunks[best].Timestamp) ||
			(tl.chunks[i].Timestamp.Equal(tl.chunks[best].Timestamp) && tl.chunks[i].Seq > tl.chunks[best].Seq) {
			best = i
		}
	}
	return best
}

package chat

import "time"

// Merger is the single entry point the transport feeds. Every incoming
// event is classified and routed: reasoning fragments and tool statuses to
// the timeline (tool statuses also to the tracker - status badges and
// transcript position are overlapping but distinct concerns), text to the
// timeline's cumulative merge.
//
// Text is applied before any tool status carried by the same event, so a
// tool chunk synthesized from the text high-water mark lands after the text
// that led up to it.
type Merger struct {
	timeline *Timeline
	tracker  *Tracker
	raw      string // cumulative raw text, maintained for delta-only transports
}

// NewMerger creates a merger with a fresh timeline anchored at base.
func NewMerger(base time.Time) *Merger {
	return &Merger{
		timeline: NewTimeline(base),
		tracker:  NewTracker(nil),
	}
}

// Timeline exposes the timeline for rendering and finalization.
func (m *Merger) Timeline() *Timeline { return m.timeline }

// Tracker exposes the tool-call tracker for status display.
func (m *Merger) Tracker() *Tracker { return m.tracker }

// Raw returns the cumulative raw content accumulated so far.
func (m *Merger) Raw() string { return m.raw }

// Apply routes one transport event into the turn's timeline and tracker and
// refreshes the turn's displayed content and typing flag. Events for turns
// already finalized are dropped. Text shorter than what was already recorded
// is a stale delivery and never regresses displayed content.
func (m *Merger) Apply(ev StreamEvent, turn *Turn) {
	if turn == nil || turn.Complete {
		return
	}

	if cumulative := m.cumulativeText(ev); cumulative != "" {
		parsed := ParseContent(cumulative, m.timeline.base)
		if parsed.Kind == ContentStructured {
			// A finished structured reply supersedes all incremental state.
			m.timeline.Replace(parsed.Chunks)
		} else {
			m.timeline.AppendOrMergeText(cumulative)
		}
	}

	if ts := ev.ToolStatus; ts != nil {
		switch ts.Type {
		case EventReasoning:
			m.timeline.AppendReasoning(ts.ReasoningContent)
		case EventToolsCompleted:
			// Aggregate marker only; no per-call information. Forwarded
			// to neither the tracker nor the timeline.
		default:
			status, ok := lifecycleStatus(ts.Type)
			if !ok {
				status = ts.Status
			}
			if validStatus(status) {
				m.tracker.Update(ts)
				m.timeline.UpsertToolStatus(ts.ToolCallID, ts.ToolName, status, ts.Result, ts.Error)
			}
		}
	}

	turn.Content = m.timeline.Text()
	turn.Typing = !ev.Done
}

// cumulativeText derives the cumulative text this event implies. Transports
// that send full_content win; delta-only transports have their increments
// accumulated here. Stale full_content (shorter than already seen) yields
// the high-water value unchanged, which downstream treats as a no-op.
func (m *Merger) cumulativeText(ev StreamEvent) string {
	if ev.FullContent != "" {
		if len(ev.FullContent) > len(m.raw) {
			m.raw = ev.FullContent
		}
		return m.raw
	}
	if ev.Message != nil && ev.Message.Content != "" {
		m.raw += ev.Message.Content
		return m.raw
	}
	return m.raw
}

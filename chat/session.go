package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SafetyTimeout force-cancels a stream session that has received no
// completion signal, so the UI can never be stuck "responding" forever.
// Last-resort fallback only - the normal paths are the transport's done
// flag and user-initiated stop.
const SafetyTimeout = 6 * time.Minute

// StreamSession is the ephemeral state of one in-flight agent reply: a
// stable id events are routed by, the merger that owns the reply's timeline,
// and the cancellation handle for the transport read. EditRerun tags
// sessions opened by the edit workflow so events find the correct target
// turn even while a normal send's session also exists.
type StreamSession struct {
	ID        string
	EditRerun bool
	Merger    *Merger
	StartedAt time.Time

	cancel context.CancelFunc
	done   bool
}

// NewStreamSession opens a session anchored at base. The anchor is the
// timestamp synthesis origin for events the transport does not stamp.
func NewStreamSession(base time.Time, editRerun bool) *StreamSession {
	return &StreamSession{
		ID:        uuid.New().String(),
		EditRerun: editRerun,
		Merger:    NewMerger(base),
		StartedAt: base,
	}
}

// Bind attaches the transport's cancellation handle. Called when the stream
// command starts reading.
func (s *StreamSession) Bind(cancel context.CancelFunc) {
	s.cancel = cancel
}

// Cancel aborts the transport read, if one is attached. Safe to call more
// than once.
func (s *StreamSession) Cancel() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Finish marks the session complete. Further events routed by id should be
// dropped by the caller.
func (s *StreamSession) Finish() {
	s.done = true
}

// Done reports whether the session has completed or been cancelled.
func (s *StreamSession) Done() bool { return s.done }

// Accepts reports whether an event routed with the given session id belongs
// to this session and should still be applied.
func (s *StreamSession) Accepts(sessionID string) bool {
	return s != nil && !s.done && s.ID == sessionID
}

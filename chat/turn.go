package chat

import "time"

// Turn roles. System turns are app status lines (stream failures, forced
// stops) shown in scrollback; they never go to the provider.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Turn is one side of an exchange: a user prompt or an agent reply. Agent
// turns mutate while their stream is in flight and freeze once Complete is
// set; after that the merger refuses further events for them.
type Turn struct {
	ID        string
	Role      string
	Content   string // displayed text (concatenated text chunks for agent turns)
	Original  string // raw pre-parse content as accumulated from the transport
	CreatedAt time.Time
	Complete  bool
	Typing    bool
	AgentID   string

	// Chunks is the frozen presentation-order timeline, populated when the
	// turn is finalized.
	Chunks []Chunk
}

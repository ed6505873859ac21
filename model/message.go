package model

import "time"

// Message is one entry of the conversation as sent to an LLM provider.
type Message struct {
	Role      string
	Content   string
	Timestamp time.Time
}

package chat

import "time"

// DefaultHistoryLimit caps how many messages a room query returns when no limit is given.
const DefaultHistoryLimit = 50

// ChatMessage is one persisted chat line. It is never mutated after the store returns it.
type ChatMessage struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

package chat

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Store is the append-only, in-memory chat log shared by every room.
type Store struct {
	mu       sync.RWMutex
	messages []ChatMessage
	now      func() time.Time
	newID    func() string
}

func NewStore() *Store {
	return &Store{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Append stamps a fresh id and timestamp on the message and adds it to the log.
// Field validation happens before this is called.
func (s *Store) Append(room, username, message string) ChatMessage {
	msg := ChatMessage{
		ID:        s.newID(),
		Room:      room,
		Username:  username,
		Message:   message,
		Timestamp: s.now().UTC(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

// Query returns up to limit of the most recent messages of room in append order.
// The log is never reordered, so a wall clock stepping backwards cannot reshuffle it.
func (s *Store) Query(room string, limit int) []ChatMessage {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	s.mu.RLock()
	inRoom := lo.Filter(s.messages, func(m ChatMessage, _ int) bool {
		return m.Room == room
	})
	s.mu.RUnlock()

	if len(inRoom) > limit {
		inRoom = inRoom[len(inRoom)-limit:]
	}
	return inRoom
}

// Recent is Query behind the context-aware signature the HTTP layer reads through.
func (s *Store) Recent(ctx context.Context, room string, limit int) ([]ChatMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.Query(room, limit), nil
}

// Len reports how many messages the log holds across all rooms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

package chat

import "sync"

// Registry tracks every live connection and the room each one last joined.
// The room is informational only; broadcast does not filter on it.
type Registry struct {
	mu    sync.RWMutex
	rooms map[*Client]string // "" until the first join
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[*Client]string)}
}

// Register adds a newly opened connection with no room set.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[c] = ""
}

// Unregister removes a connection and reports whether it was present.
func (r *Registry) Unregister(c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[c]; !ok {
		return false
	}
	delete(r.rooms, c)
	return true
}

// SetRoom overwrites the connection's current room. Unknown connections are ignored.
func (r *Registry) SetRoom(c *Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rooms[c]; ok {
		r.rooms[c] = room
	}
}

// Room returns the connection's current room and whether one has been joined.
func (r *Registry) Room(c *Client) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[c]
	return room, room != ""
}

// AllOpen returns a snapshot of registered connections that still accept frames.
func (r *Registry) AllOpen() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.rooms))
	for c := range r.rooms {
		if c.Open() {
			clients = append(clients, c)
		}
	}
	return clients
}

// Len reports how many connections are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

package chat

import (
	"context"
	"errors"
	"log/slog"
)

type frameIn struct {
	client *Client
	data   []byte
}

// Hub owns the connection lifecycle. A single Run goroutine handles register,
// unregister and every inbound frame one at a time, so a chat append and its
// broadcast are never interleaved with another event.
type Hub struct {
	store    *Store
	registry *Registry
	tap      Tap
	log      *slog.Logger

	register   chan *Client
	unregister chan *Client
	inbound    chan frameIn
	done       chan struct{}
}

func NewHub(store *Store, registry *Registry, tap Tap, log *slog.Logger) *Hub {
	if tap == nil {
		tap = NopTap{}
	}
	return &Hub{
		store:      store,
		registry:   registry,
		tap:        tap,
		log:        log,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan frameIn),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until ctx is cancelled, then closes every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.registry.Register(client)
			h.log.Info("Client registered", "addr", client.addr, "clients", h.registry.Len())

		case client := <-h.unregister:
			h.drop(client)

		case in := <-h.inbound:
			h.handleFrame(in.client, in.data)
		}
	}
}

// Register hands a new connection to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a connection. Unregistering an unknown connection is a no-op.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Submit queues a raw frame received on c. It returns false once the hub has stopped.
func (h *Hub) Submit(c *Client, data []byte) bool {
	select {
	case h.inbound <- frameIn{client: c, data: data}:
		return true
	case <-h.done:
		return false
	}
}

// Done is closed when Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

func (h *Hub) handleFrame(c *Client, data []byte) {
	if !c.Open() {
		return
	}

	in, err := DecodeInbound(data)
	switch {
	case errors.Is(err, ErrIncompleteJoin):
		h.log.Debug("Ignoring join_room without room", "addr", c.addr)
		return
	case err != nil:
		h.log.Warn("Rejected frame", "addr", c.addr, "error", err)
		h.reply(c, ErrorFrame{Message: InvalidFormatText})
		return
	}

	switch msg := in.(type) {
	case JoinRoom:
		h.registry.SetRoom(c, msg.Room)
		h.reply(c, RoomJoined{Room: msg.Room})
	case SendChat:
		saved := h.store.Append(msg.Room, msg.Username, msg.Message)
		h.Broadcast(ChatBroadcast{Data: saved})
	}
}

// reply sends a frame to one connection only.
func (h *Hub) reply(c *Client, frame Outbound) {
	payload, err := Encode(frame)
	if err != nil {
		h.log.Error("Encoding reply failed", "addr", c.addr, "error", err)
		return
	}
	if !c.trySend(payload) {
		h.drop(c)
	}
}

// Broadcast serializes frame once and queues the same bytes for every open
// connection, regardless of the room it joined. Connections that cannot accept
// the frame are dropped; the rest still receive it. It returns the delivery count.
func (h *Hub) Broadcast(frame Outbound) int {
	payload, err := Encode(frame)
	if err != nil {
		h.log.Error("Encoding broadcast failed", "error", err)
		return 0
	}

	clients := h.registry.AllOpen()
	var failed []*Client
	delivered := 0
	for _, c := range clients {
		if c.trySend(payload) {
			delivered++
			continue
		}
		failed = append(failed, c)
	}
	for _, c := range failed {
		h.log.Warn("Dropping client with full send buffer", "addr", c.addr)
		h.drop(c)
	}

	if cb, ok := frame.(ChatBroadcast); ok {
		h.tap.Publish(cb.Data.Room, payload)
	}
	h.log.Debug("Broadcast delivered", "clients", delivered, "failed", len(failed))
	return delivered
}

func (h *Hub) drop(c *Client) {
	if h.registry.Unregister(c) {
		h.log.Info("Client unregistered", "addr", c.addr, "clients", h.registry.Len())
	}
	c.shutdown()
}

func (h *Hub) shutdownClients() {
	clients := h.registry.AllOpen()
	for _, c := range clients {
		h.drop(c)
	}
	h.log.Info("Closed client connections", "count", len(clients))
}

package chat

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"go-chat-relay/internal/respond"
)

// HistoryReader is what the REST read path needs from the message store.
type HistoryReader interface {
	Recent(ctx context.Context, room string, limit int) ([]ChatMessage, error)
}

// HandlerOptions tunes the websocket endpoint and the history endpoint.
type HandlerOptions struct {
	HistoryLimit   int
	SendBufferSize int
	MaxMessageSize int64
	AllowedOrigins []string
}

type Handler struct {
	hub      *Hub
	history  HistoryReader
	opts     HandlerOptions
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, history HistoryReader, opts HandlerOptions, log *slog.Logger) *Handler {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	return &Handler{
		hub:     hub,
		history: history,
		opts:    opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(opts.AllowedOrigins),
		},
		log: log,
	}
}

// ServeWs upgrades the request and hands the connection to the hub.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "addr", r.RemoteAddr, "error", err)
		return
	}

	client := NewClient(h.hub, conn, r.RemoteAddr, h.opts.SendBufferSize, h.opts.MaxMessageSize)
	if !h.hub.Register(client) {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}

	// Registered before the pumps start, so no frame is processed for an unknown client.
	go client.WritePump()
	go client.ReadPump()
}

// GetRoomHistory serves GET /api/chat/{room}: the most recent messages, oldest first.
func (h *Handler) GetRoomHistory(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	// chi routes on RawPath when it is set; otherwise the param is already decoded.
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(room); err == nil {
			room = unescaped
		}
	}

	messages, err := h.history.Recent(r.Context(), room, h.opts.HistoryLimit)
	if err != nil {
		h.log.Error("Fetching chat history failed", "room", room, "error", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []ChatMessage{}
	}
	respond.JSON(w, http.StatusOK, messages)
}

package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"go-chat-relay/internal/chat"
	myMiddleware "go-chat-relay/internal/middleware"
	"go-chat-relay/internal/notes"
)

// Deps are the feature handlers the router mounts.
type Deps struct {
	Chat   *chat.Handler
	Notes  *notes.Handler
	WSPath string
	Log    *slog.Logger
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(myMiddleware.RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	wsPath := d.WSPath
	if wsPath == "" {
		wsPath = "/ws"
	}
	r.Get(wsPath, d.Chat.ServeWs)
	r.Get("/api/chat/{room}", d.Chat.GetRoomHistory)

	if d.Notes != nil {
		r.Route("/api/notes", d.Notes.Routes)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}

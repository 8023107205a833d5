package notes

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"go-chat-relay/internal/respond"
)

type Handler struct {
	repo     Repository
	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(repo Repository, log *slog.Logger) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Handler{repo: repo, validate: v, log: log}
}

// Routes mounts the CRUD endpoints under the router it is given.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.repo.List(r.Context())
	if err != nil {
		h.fail(w, "list", err)
		return
	}
	respond.JSON(w, http.StatusOK, notes)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	note, err := h.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get", err)
		return
	}
	respond.JSON(w, http.StatusOK, note)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "title is required")
		return
	}

	note, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.fail(w, "create", err)
		return
	}
	respond.JSON(w, http.StatusCreated, note)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, http.StatusBadRequest, "title must not be blank")
		return
	}

	note, err := h.repo.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "update", err)
		return
	}
	respond.JSON(w, http.StatusOK, note)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "Note not found")
		return
	}
	h.log.Error("Notes operation failed", "op", op, "error", err)
	respond.Error(w, http.StatusInternalServerError, "Failed to "+op+" note")
}

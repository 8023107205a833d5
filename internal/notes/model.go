package notes

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/samber/lo"
)

var ErrNotFound = errors.New("note not found")

type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest is the POST body. Title must contain something besides whitespace.
type CreateRequest struct {
	Title   string   `json:"title" validate:"required,notblank"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdateRequest is the PUT body; nil fields are left untouched.
type UpdateRequest struct {
	Title   *string   `json:"title" validate:"omitempty,notblank"`
	Content *string   `json:"content"`
	Tags    *[]string `json:"tags"`
}

// Repository stores notes. Implementations return ErrNotFound for unknown ids.
type Repository interface {
	List(ctx context.Context) ([]Note, error)
	Get(ctx context.Context, id string) (Note, error)
	Create(ctx context.Context, req CreateRequest) (Note, error)
	Update(ctx context.Context, id string, req UpdateRequest) (Note, error)
	Delete(ctx context.Context, id string) error
}

// apply merges a partial update into n.
func (req UpdateRequest) apply(n Note) Note {
	if req.Title != nil {
		n.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	if req.Tags != nil {
		n.Tags = normalizeTags(*req.Tags)
	}
	return n
}

// normalizeTags trims tags, drops blanks and duplicates, and never returns nil.
func normalizeTags(tags []string) []string {
	trimmed := lo.Map(tags, func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	})
	return lo.Uniq(lo.Compact(trimmed))
}

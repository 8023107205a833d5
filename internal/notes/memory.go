package notes

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// MemoryRepository keeps notes for the lifetime of the process.
type MemoryRepository struct {
	mu    sync.RWMutex
	notes map[string]Note
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		notes: make(map[string]Note),
		now:   time.Now,
	}
}

// List returns every note, most recently updated first.
func (m *MemoryRepository) List(_ context.Context) ([]Note, error) {
	m.mu.RLock()
	all := lo.Values(m.notes)
	m.mu.RUnlock()

	slices.SortFunc(all, func(a, b Note) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return lo.Map(all, func(n Note, _ int) Note { return clone(n) }), nil
}

func (m *MemoryRepository) Get(_ context.Context, id string) (Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	return clone(n), nil
}

func (m *MemoryRepository) Create(_ context.Context, req CreateRequest) (Note, error) {
	now := m.now().UTC()
	n := Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Tags:      normalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.notes[n.ID] = n
	m.mu.Unlock()
	return clone(n), nil
}

func (m *MemoryRepository) Update(_ context.Context, id string, req UpdateRequest) (Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.notes[id]
	if !ok {
		return Note{}, ErrNotFound
	}
	updated := req.apply(existing)
	updated.UpdatedAt = m.now().UTC()
	m.notes[id] = updated
	return clone(updated), nil
}

func (m *MemoryRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.notes[id]; !ok {
		return ErrNotFound
	}
	delete(m.notes, id)
	return nil
}

func clone(n Note) Note {
	n.Tags = slices.Clone(n.Tags)
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n
}

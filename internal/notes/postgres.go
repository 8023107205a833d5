package notes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository stores notes in the notes table created by db.AutoMigrate.
type PostgresRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, now: time.Now}
}

const noteColumns = "id, title, content, tags, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(row rowScanner) (Note, error) {
	var (
		n    Note
		tags []byte
	)
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &tags, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return Note{}, err
	}
	if err := json.Unmarshal(tags, &n.Tags); err != nil {
		return Note{}, fmt.Errorf("decode tags of note %s: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.UpdatedAt = n.UpdatedAt.UTC()
	return n, nil
}

func (p *PostgresRepository) List(ctx context.Context) ([]Note, error) {
	query := "SELECT " + noteColumns + " FROM notes ORDER BY updated_at DESC, id ASC"
	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (p *PostgresRepository) Get(ctx context.Context, id string) (Note, error) {
	query := "SELECT " + noteColumns + " FROM notes WHERE id = $1"
	n, err := scanNote(p.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return n, err
}

func (p *PostgresRepository) Create(ctx context.Context, req CreateRequest) (Note, error) {
	now := p.now().UTC()
	n := Note{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		Tags:      normalizeTags(req.Tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
	tags, err := json.Marshal(n.Tags)
	if err != nil {
		return Note{}, err
	}

	query := "INSERT INTO notes (" + noteColumns + ") VALUES ($1, $2, $3, $4, $5, $6)"
	if _, err := p.db.ExecContext(ctx, query, n.ID, n.Title, n.Content, string(tags), n.CreatedAt, n.UpdatedAt); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (p *PostgresRepository) Update(ctx context.Context, id string, req UpdateRequest) (Note, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Note{}, err
	}
	defer func() { _ = tx.Rollback() }()

	query := "SELECT " + noteColumns + " FROM notes WHERE id = $1 FOR UPDATE"
	existing, err := scanNote(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	if err != nil {
		return Note{}, err
	}

	updated := req.apply(existing)
	updated.UpdatedAt = p.now().UTC()
	tags, err := json.Marshal(updated.Tags)
	if err != nil {
		return Note{}, err
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE notes SET title = $2, content = $3, tags = $4, updated_at = $5 WHERE id = $1",
		id, updated.Title, updated.Content, string(tags), updated.UpdatedAt)
	if err != nil {
		return Note{}, err
	}
	if err := tx.Commit(); err != nil {
		return Note{}, err
	}
	return updated, nil
}

func (p *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

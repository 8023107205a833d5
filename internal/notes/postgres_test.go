package notes

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"go-chat-relay/internal/db"
)

// Runs against a real database only when NOTES_TEST_DSN is set.
func newPostgresRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("NOTES_TEST_DSN")
	if dsn == "" {
		t.Skip("NOTES_TEST_DSN not set")
	}
	ctx := context.Background()
	database, err := db.NewDatabase(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, database.AutoMigrate(ctx))
	_, err = database.Conn.ExecContext(ctx, "TRUNCATE notes")
	require.NoError(t, err)
	return NewPostgresRepository(database.Conn)
}

func TestPostgresRepository_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := newPostgresRepository(t)

	created, err := repo.Create(ctx, CreateRequest{Title: " db ", Tags: []string{"x", "x", " y"}})
	req.NoError(err)
	req.Equal("db", created.Title)
	req.Equal([]string{"x", "y"}, created.Tags)

	got, err := repo.Get(ctx, created.ID)
	req.NoError(err)
	req.Equal(created.Title, got.Title)
	req.Equal(created.Tags, got.Tags)

	content := "updated"
	updated, err := repo.Update(ctx, created.ID, UpdateRequest{Content: &content})
	req.NoError(err)
	req.Equal("updated", updated.Content)
	req.Equal("db", updated.Title)

	list, err := repo.List(ctx)
	req.NoError(err)
	req.Len(list, 1)

	req.NoError(repo.Delete(ctx, created.ID))
	req.ErrorIs(repo.Delete(ctx, created.ID), ErrNotFound)
	_, err = repo.Get(ctx, created.ID)
	req.ErrorIs(err, ErrNotFound)
}

func TestPostgresRepository_UpdateUnknown(t *testing.T) {
	repo := newPostgresRepository(t)

	_, err := repo.Update(context.Background(), "missing", UpdateRequest{})

	require.ErrorIs(t, err, ErrNotFound)
}

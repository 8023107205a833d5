package chat

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newSteppedStore returns a store whose clock advances one second per append.
func newSteppedStore() *Store {
	store := NewStore()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		at = at.Add(time.Second)
		return at
	}
	return store
}

func TestStore_Append_AssignsIdentity(t *testing.T) {
	req := require.New(t)
	store := NewStore()

	first := store.Append("general", "Ann", "hi")
	second := store.Append("general", "Ann", "hi")

	req.NotEmpty(first.ID)
	req.NotEqual(first.ID, second.ID)
	req.False(first.Timestamp.IsZero())
	req.Equal("general", first.Room)
	req.Equal("Ann", first.Username)
	req.Equal("hi", first.Message)
	req.Equal(2, store.Len())
}

func TestStore_Query_GeneralScenario(t *testing.T) {
	req := require.New(t)
	store := newSteppedStore()

	store.Append("general", "Ann", "hi")
	store.Append("general", "Bo", "yo")

	got := store.Query("general", 50)
	req.Len(got, 2)
	req.Equal("Ann", got[0].Username)
	req.Equal("hi", got[0].Message)
	req.Equal("Bo", got[1].Username)
	req.Equal("yo", got[1].Message)
}

func TestStore_Query_ReturnsLastNAscending(t *testing.T) {
	req := require.New(t)
	store := newSteppedStore()

	var appended []ChatMessage
	for i := 0; i < 10; i++ {
		appended = append(appended, store.Append("tech", "u", fmt.Sprintf("m%d", i)))
	}

	for _, n := range []int{1, 3, 10, 25} {
		got := store.Query("tech", n)
		want := appended[len(appended)-min(n, len(appended)):]
		req.Equal(want, got, "limit %d", n)
	}
}

func TestStore_Query_RoomIsolation(t *testing.T) {
	req := require.New(t)
	store := newSteppedStore()

	store.Append("a", "Ann", "for a")
	store.Append("b", "Bo", "for b")
	store.Append("a", "Ann", "again a")

	for _, msg := range store.Query("b", 50) {
		req.Equal("b", msg.Room)
	}
	req.Len(store.Query("a", 50), 2)
	req.Len(store.Query("b", 50), 1)
}

func TestStore_Query_UnknownRoomIsEmpty(t *testing.T) {
	got := NewStore().Query("nobody-here", 50)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestStore_Query_DefaultLimit(t *testing.T) {
	req := require.New(t)
	store := newSteppedStore()
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		store.Append("busy", "u", fmt.Sprintf("m%d", i))
	}

	got := store.Query("busy", 0)
	req.Len(got, DefaultHistoryLimit)
	req.Equal("m5", got[0].Message)
	req.Equal(fmt.Sprintf("m%d", DefaultHistoryLimit+4), got[len(got)-1].Message)
}

func TestStore_Query_EqualTimestampsKeepInsertionOrder(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	frozen := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return frozen }

	for i := 0; i < 5; i++ {
		store.Append("same", "u", fmt.Sprintf("m%d", i))
	}

	got := store.Query("same", 3)
	req.Equal([]string{"m2", "m3", "m4"}, []string{got[0].Message, got[1].Message, got[2].Message})
}

func TestStore_Query_KeepsAppendOrderWhenClockStepsBack(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		at = at.Add(-time.Minute)
		return at
	}

	store.Append("drift", "Ann", "first")
	store.Append("drift", "Bo", "second")
	store.Append("drift", "Cy", "third")

	got := store.Query("drift", 2)
	req.Equal([]string{"second", "third"}, []string{got[0].Message, got[1].Message})
}

func TestStore_Query_DoesNotExposeInternalSlice(t *testing.T) {
	req := require.New(t)
	store := newSteppedStore()
	store.Append("r", "u", "original")

	got := store.Query("r", 50)
	got[0].Message = "tampered"

	req.Equal("original", store.Query("r", 50)[0].Message)
}

func TestStore_ConcurrentAppendAndQuery(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				store.Append("load", "writer", "x")
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = store.Query("load", 10)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 400, store.Len())
}

func TestStore_Recent_HonoursCancelledContext(t *testing.T) {
	req := require.New(t)
	store := NewStore()
	store.Append("r", "u", "m")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := store.Recent(ctx, "r", 50)
	req.ErrorIs(err, context.Canceled)

	msgs, err := store.Recent(context.Background(), "r", 50)
	req.NoError(err)
	req.Len(msgs, 1)
}

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jfmyers9/nowplayer/internal/player"
	"github.com/rs/zerolog"
)

// createTestStore creates an in-memory store for testing
func createTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

func TestOpen_FileBased(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if _, err := store.Record(context.Background(), Play{SessionID: "s", TrackName: "t", Artist: "a", PlayedAt: time.Now()}); err != nil {
		t.Fatalf("Record() error: %v", err)
	}
	_ = store.Close()

	// reopening sees the same data
	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() { _ = store.Close() }()

	count, err := store.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)

	for i, name := range []string{"First", "Second", "Third"} {
		_, err := store.Record(ctx, Play{
			SessionID: "session",
			TrackName: name,
			Artist:    "Artist",
			Album:     "Album",
			Duration:  3 * time.Minute,
			PlayedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record(%s) error: %v", name, err)
		}
	}

	plays, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(plays) != 2 {
		t.Fatalf("got %d plays, want 2", len(plays))
	}
	if plays[0].TrackName != "Third" || plays[1].TrackName != "Second" {
		t.Errorf("order = %s, %s; want Third, Second", plays[0].TrackName, plays[1].TrackName)
	}
	if plays[0].Duration != 3*time.Minute {
		t.Errorf("Duration = %v, want 3m", plays[0].Duration)
	}
	if !plays[0].PlayedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("PlayedAt = %v", plays[0].PlayedAt)
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0) error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(0) returned %d plays, want 3", len(all))
	}
}

func TestCleanup(t *testing.T) {
	store := createTestStore(t)
	ctx := context.Background()

	old := Play{SessionID: "s", TrackName: "Old", Artist: "A", PlayedAt: time.Now().Add(-30 * 24 * time.Hour)}
	fresh := Play{SessionID: "s", TrackName: "Fresh", Artist: "A", PlayedAt: time.Now()}
	for _, p := range []Play{old, fresh} {
		if _, err := store.Record(ctx, p); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	deleted, err := store.Cleanup(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Cleanup() error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	plays, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(plays) != 1 || plays[0].TrackName != "Fresh" {
		t.Errorf("remaining = %+v", plays)
	}
}

func TestRecorder_RecordsDistinctSongs(t *testing.T) {
	store := createTestStore(t)
	rec := NewRecorder(store, zerolog.Nop())

	a := player.Song{Name: "A", Artist: "X", TotalSeconds: 65}
	b := player.Song{Name: "B", Artist: "X", TotalSeconds: 200}

	// a repeated refresh of the same song is recorded once
	for _, s := range []player.Song{a, a, b, b, a} {
		rec.SetSong(s)
	}

	plays, err := store.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent() error: %v", err)
	}
	if len(plays) != 3 {
		t.Fatalf("got %d plays, want 3", len(plays))
	}
	for _, p := range plays {
		if p.SessionID != rec.SessionID() {
			t.Errorf("SessionID = %q, want %q", p.SessionID, rec.SessionID())
		}
	}
	if plays[len(plays)-1].Duration != 65*time.Second {
		t.Errorf("first play duration = %v, want 1m5s", plays[len(plays)-1].Duration)
	}
}

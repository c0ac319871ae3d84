package history

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first := Run{
		Source:        "lecture.mp4",
		Target:        "lecture-en.mkv",
		AudioCodes:    []string{"en"},
		SubtitleCodes: []string{"en", "ru"},
		Lines:         42,
		Status:        StatusCompleted,
		StartedAt:     started,
		FinishedAt:    started.Add(90 * time.Second),
	}
	if _, err := store.Record(ctx, first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := Run{
		Source:     "talk.mkv",
		Target:     "talk-fr.mkv",
		Status:     StatusFailed,
		Error:      "no audio track",
		StartedAt:  started.Add(time.Hour),
		FinishedAt: started.Add(time.Hour + time.Second),
	}
	if _, err := store.Record(ctx, second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Source != "talk.mkv" {
		t.Fatalf("newest first expected, got %q", runs[0].Source)
	}
	if runs[0].Status != StatusFailed || runs[0].Error != "no audio track" {
		t.Fatalf("failure not preserved: %+v", runs[0])
	}
	if !reflect.DeepEqual(runs[1].SubtitleCodes, []string{"en", "ru"}) {
		t.Fatalf("subtitle codes round trip: %v", runs[1].SubtitleCodes)
	}
	if !runs[1].StartedAt.Equal(started) {
		t.Fatalf("started_at round trip: %v", runs[1].StartedAt)
	}
	if runs[1].Duration() != 90*time.Second {
		t.Fatalf("duration = %v", runs[1].Duration())
	}
}

func TestListLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		run := Run{
			Source:     "v.mp4",
			Target:     "v.mkv",
			Status:     StatusCompleted,
			StartedAt:  time.Now().UTC(),
			FinishedAt: time.Now().UTC(),
		}
		if _, err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	runs, err := store.List(ctx, 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("limit not applied: %d", len(runs))
	}
}

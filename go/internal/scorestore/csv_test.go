package scorestore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/buzzwire/go/internal/models"
)

func newTestCSVStore(t *testing.T) *CSVStore {
	t.Helper()
	return NewCSVStore(filepath.Join(t.TempDir(), "leaderboard.csv"))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestCSVStoreAppendWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	if err := store.Append(ctx, models.RunRecord{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(ctx, models.RunRecord{Player: "Lin", ElapsedSeconds: 42, LivesLeft: 7}); err != nil {
		t.Fatalf("append: %v", err)
	}

	want := "Player,Time,LivesLeft\nAda,60,5\nLin,42,7\n"
	if got := readFile(t, store.Path()); got != want {
		t.Fatalf("file contents = %q, want %q", got, want)
	}
}

func TestCSVStoreListMissingFile(t *testing.T) {
	store := newTestCSVStore(t)

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestCSVStoreListSkipsInvalidRecords(t *testing.T) {
	store := newTestCSVStore(t)
	contents := "Player,Time,LivesLeft\n" +
		"Ada,60,5\n" +
		"short,1\n" +
		"Bo,abc,3\n" +
		"Cy,10,x\n" +
		"Neg,-1,2\n" +
		"\n" +
		"Lin,42,7,extra\n" +
		"Win,30,4\r\n"
	if err := os.WriteFile(store.Path(), []byte(contents), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	want := []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5},
		{Player: "Lin", ElapsedSeconds: 42, LivesLeft: 7},
		{Player: "Win", ElapsedSeconds: 30, LivesLeft: 4},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVStoreListWithoutHeader(t *testing.T) {
	store := newTestCSVStore(t)
	if err := os.WriteFile(store.Path(), []byte("Ada,60,5\n"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].Player != "Ada" {
		t.Fatalf("expected first data line to be kept, got %+v", records)
	}
}

func TestCSVStoreClearThenAppendRestoresHeader(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	if err := store.Append(ctx, models.RunRecord{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := readFile(t, store.Path()); got != "" {
		t.Fatalf("expected empty file after clear, got %q", got)
	}

	if err := store.Append(ctx, models.RunRecord{Player: "Bo", ElapsedSeconds: 30, LivesLeft: 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	want := "Player,Time,LivesLeft\nBo,30,5\n"
	if got := readFile(t, store.Path()); got != want {
		t.Fatalf("file contents = %q, want %q", got, want)
	}
}

func TestCSVStoreClearMissingFile(t *testing.T) {
	store := newTestCSVStore(t)
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear on missing file: %v", err)
	}
}

func TestCSVStoreRejectsInvalidRecords(t *testing.T) {
	store := newTestCSVStore(t)

	tests := []struct {
		name   string
		record models.RunRecord
	}{
		{"empty player", models.RunRecord{Player: "", ElapsedSeconds: 1, LivesLeft: 1}},
		{"untrimmed player", models.RunRecord{Player: " Ada", ElapsedSeconds: 1, LivesLeft: 1}},
		{"comma in player", models.RunRecord{Player: "Ada,Lin", ElapsedSeconds: 1, LivesLeft: 1}},
		{"newline in player", models.RunRecord{Player: "Ada\nLin", ElapsedSeconds: 1, LivesLeft: 1}},
		{"negative time", models.RunRecord{Player: "Ada", ElapsedSeconds: -1, LivesLeft: 1}},
		{"negative lives", models.RunRecord{Player: "Ada", ElapsedSeconds: 1, LivesLeft: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Append(context.Background(), tt.record)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("expected ErrInvalidRecord, got %v", err)
			}
		})
	}
}

func TestCSVStoreAppendUnwritablePath(t *testing.T) {
	store := NewCSVStore(filepath.Join(t.TempDir(), "missing-dir", "leaderboard.csv"))

	err := store.Append(context.Background(), models.RunRecord{Player: "Ada", ElapsedSeconds: 1, LivesLeft: 1})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestCSVStoreConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := newTestCSVStore(t)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Append(ctx, models.RunRecord{Player: "p", ElapsedSeconds: i, LivesLeft: 1}); err != nil {
				t.Errorf("append %d: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	records, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != writers {
		t.Fatalf("expected %d records, got %d", writers, len(records))
	}
}

package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/buzzwire/go/internal/models"
)

func TestRankOrdersByLivesThenTime(t *testing.T) {
	records := []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5},
		{Player: "Lin", ElapsedSeconds: 60, LivesLeft: 7},
		{Player: "Bo", ElapsedSeconds: 30, LivesLeft: 5},
	}

	got := Rank(records)
	want := []models.LeaderboardEntry{
		{Rank: 1, Player: "Lin", ElapsedSeconds: 60, TimeFormatted: "1:00", LivesLeft: 7, Score: 6940},
		{Rank: 2, Player: "Bo", ElapsedSeconds: 30, TimeFormatted: "0:30", LivesLeft: 5, Score: 4970},
		{Rank: 3, Player: "Ada", ElapsedSeconds: 60, TimeFormatted: "1:00", LivesLeft: 5, Score: 4940},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Rank() mismatch (-want +got):\n%s", diff)
	}
}

func TestRankIgnoresScoreForOrdering(t *testing.T) {
	// 2 lives at 2500s scores -500, 1 life at 1s scores 999; lives still win.
	records := []models.RunRecord{
		{Player: "Quick", ElapsedSeconds: 1, LivesLeft: 1},
		{Player: "Slow", ElapsedSeconds: 2500, LivesLeft: 2},
	}

	got := Rank(records)
	if got[0].Player != "Slow" {
		t.Fatalf("expected Slow first, got %s", got[0].Player)
	}
	if got[0].Score >= got[1].Score {
		t.Fatalf("expected leader to have the lower score, got %d vs %d", got[0].Score, got[1].Score)
	}
}

func TestRankIsStable(t *testing.T) {
	records := []models.RunRecord{
		{Player: "first", ElapsedSeconds: 42, LivesLeft: 3},
		{Player: "other", ElapsedSeconds: 10, LivesLeft: 9},
		{Player: "second", ElapsedSeconds: 42, LivesLeft: 3},
		{Player: "third", ElapsedSeconds: 42, LivesLeft: 3},
	}

	got := Rank(records)
	var names []string
	for _, e := range got {
		names = append(names, e.Player)
	}
	want := []string{"other", "first", "second", "third"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("stable order mismatch (-want +got):\n%s", diff)
	}
	for i, e := range got {
		if e.Rank != i+1 {
			t.Fatalf("entry %d: expected rank %d, got %d", i, i+1, e.Rank)
		}
	}
}

func TestRankDoesNotMutateInput(t *testing.T) {
	records := []models.RunRecord{
		{Player: "b", ElapsedSeconds: 5, LivesLeft: 1},
		{Player: "a", ElapsedSeconds: 5, LivesLeft: 2},
	}
	before := append([]models.RunRecord(nil), records...)

	Rank(records)

	if diff := cmp.Diff(before, records); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil); len(got) != 0 {
		t.Fatalf("expected no entries, got %d", len(got))
	}
}

func TestCompareTotalOrder(t *testing.T) {
	var records []models.RunRecord
	for lives := 0; lives <= 3; lives++ {
		for elapsed := 0; elapsed <= 3; elapsed++ {
			records = append(records, models.RunRecord{ElapsedSeconds: elapsed, LivesLeft: lives})
		}
	}

	for _, a := range records {
		for _, b := range records {
			dominates := a.LivesLeft > b.LivesLeft ||
				(a.LivesLeft == b.LivesLeft && a.ElapsedSeconds < b.ElapsedSeconds)
			if got := Compare(a, b) < 0; got != dominates {
				t.Fatalf("Compare(%+v, %+v) < 0 = %v, want %v", a, b, got, dominates)
			}
			if Compare(a, b) != -Compare(b, a) {
				t.Fatalf("Compare not antisymmetric for %+v, %+v", a, b)
			}
		}
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{60, "1:00"},
		{179, "2:59"},
		{3600, "60:00"},
		{-4, "0:00"},
	}

	for _, tt := range tests {
		if got := FormatElapsed(tt.seconds); got != tt.want {
			t.Errorf("FormatElapsed(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

type stubLister struct {
	records []models.RunRecord
	err     error
}

func (s stubLister) List(context.Context) ([]models.RunRecord, error) {
	return s.records, s.err
}

func TestBoardLoad(t *testing.T) {
	board := NewBoard(stubLister{records: []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 90, LivesLeft: 2},
		{Player: "Lin", ElapsedSeconds: 45, LivesLeft: 2},
	}})

	entries, err := board.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 || entries[0].Player != "Lin" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestBoardLoadError(t *testing.T) {
	boom := errors.New("disk on fire")
	board := NewBoard(stubLister{err: boom})

	if _, err := board.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestPositionOf(t *testing.T) {
	records := []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5},
		{Player: "Lin", ElapsedSeconds: 60, LivesLeft: 7},
		{Player: "Bo", ElapsedSeconds: 60, LivesLeft: 5},
	}
	entries := Rank(records)

	if got := PositionOf(entries, records[2]); got != 3 {
		t.Fatalf("PositionOf(Bo) = %d, want 3", got)
	}
	if got := PositionOf(entries, records[1]); got != 1 {
		t.Fatalf("PositionOf(Lin) = %d, want 1", got)
	}
	if got := PositionOf(nil, records[0]); got != 1 {
		t.Fatalf("PositionOf on empty board = %d, want 1", got)
	}
}

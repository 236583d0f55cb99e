package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/mcdev12/buzzwire/go/internal/models"
)

func writeCSV(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scores.csv")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestLoadRunsSkipsInvalidLines(t *testing.T) {
	path := writeCSV(t, "Player,Time,LivesLeft\n"+
		"Ada,60,5\n"+
		"broken line\n"+
		"Lin,-1,7\n"+
		"Bo,30,5\n")

	got, err := loadRuns(context.Background(), path)
	if err != nil {
		t.Fatalf("loadRuns: %v", err)
	}
	want := []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5},
		{Player: "Bo", ElapsedSeconds: 30, LivesLeft: 5},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadRunsMissingFile(t *testing.T) {
	_, err := loadRuns(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("error = %v, want not-exist", err)
	}
}

func TestRunRowsMatchColumns(t *testing.T) {
	records := []models.RunRecord{
		{Player: "Ada", ElapsedSeconds: 60, LivesLeft: 5},
		{Player: "Lin", ElapsedSeconds: 42, LivesLeft: 0},
	}

	src := runRows(records)
	var got [][]any
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			t.Fatalf("Values: %v", err)
		}
		if len(values) != len(runColumns) {
			t.Fatalf("row has %d values for %d columns", len(values), len(runColumns))
		}
		got = append(got, values)
	}
	if err := src.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	want := [][]any{
		{"Ada", int32(60), int32(5)},
		{"Lin", int32(42), int32(0)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
}

// Package leaderboard turns stored runs into a ranked, scored leaderboard.
package leaderboard

import (
	"fmt"
	"slices"

	"github.com/mcdev12/buzzwire/go/internal/models"
)

// livesWeight is the number of score points one remaining life is worth.
const livesWeight = 1000

// Rank orders records by lives left (more is better) and then by elapsed time
// (less is better). Records with equal keys keep their input order. The input
// slice is not modified.
func Rank(records []models.RunRecord) []models.LeaderboardEntry {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, Compare)

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, r := range sorted {
		entries[i] = models.LeaderboardEntry{
			Rank:           i + 1,
			Player:         r.Player,
			ElapsedSeconds: r.ElapsedSeconds,
			TimeFormatted:  FormatElapsed(r.ElapsedSeconds),
			LivesLeft:      r.LivesLeft,
			Score:          Score(r),
		}
	}
	return entries
}

// Compare reports whether a ranks before (-1), after (1) or level with (0) b.
func Compare(a, b models.RunRecord) int {
	if a.LivesLeft != b.LivesLeft {
		if a.LivesLeft > b.LivesLeft {
			return -1
		}
		return 1
	}
	switch {
	case a.ElapsedSeconds < b.ElapsedSeconds:
		return -1
	case a.ElapsedSeconds > b.ElapsedSeconds:
		return 1
	}
	return 0
}

// Score is display data only. Never sort by it: at extreme times it can
// disagree with Compare.
func Score(r models.RunRecord) int {
	return r.LivesLeft*livesWeight - r.ElapsedSeconds
}

// FormatElapsed renders whole seconds as m:ss.
func FormatElapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// PositionOf returns the rank held by a record that was appended last to the
// store entries were loaded from. Among equal keys the newest ranks last.
func PositionOf(entries []models.LeaderboardEntry, r models.RunRecord) int {
	pos := 0
	for _, e := range entries {
		other := models.RunRecord{Player: e.Player, ElapsedSeconds: e.ElapsedSeconds, LivesLeft: e.LivesLeft}
		if Compare(other, r) <= 0 {
			pos++
		}
	}
	return max(pos, 1)
}

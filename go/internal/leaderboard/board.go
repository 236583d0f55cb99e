package leaderboard

import (
	"context"
	"fmt"

	"github.com/mcdev12/buzzwire/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RecordLister defines what the board needs from a score store
type RecordLister interface {
	List(ctx context.Context) ([]models.RunRecord, error)
}

// Board loads stored runs and ranks them
type Board struct {
	store RecordLister
}

// NewBoard creates a new Board over the given store
func NewBoard(store RecordLister) *Board {
	return &Board{store: store}
}

// Load reads every stored run and returns the ranked leaderboard.
func (b *Board) Load(ctx context.Context) ([]models.LeaderboardEntry, error) {
	records, err := b.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := Rank(records)
	log.Debug().Int("entries", len(entries)).Msg("leaderboard loaded")
	return entries, nil
}

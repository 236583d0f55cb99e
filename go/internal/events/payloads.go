package events

import "time"

// RunStartedPayload is the payload for a run.started event
type RunStartedPayload struct {
	RunID         string    `json:"run_id"`
	StartingLives int       `json:"starting_lives"`
	Trigger       string    `json:"trigger"`
	StartedAt     time.Time `json:"started_at"`
}

// RunOverPayload is the payload for a run.over event
type RunOverPayload struct {
	RunID          string    `json:"run_id"`
	Outcome        string    `json:"outcome"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	LivesLeft      int       `json:"lives_left"`
	EndedAt        time.Time `json:"ended_at"`
}

// RunRecordedPayload is the payload for a run.recorded event
type RunRecordedPayload struct {
	RunID          string `json:"run_id"`
	Player         string `json:"player"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	LivesLeft      int    `json:"lives_left"`
	Score          int    `json:"score"`
	Rank           int    `json:"rank"`
}

// RunDiscardedPayload is the payload for a run.discarded event
type RunDiscardedPayload struct {
	RunID        string `json:"run_id"`
	Reason       string `json:"reason"`
	CancelPolicy string `json:"cancel_policy,omitempty"`
}

// LeaderboardClearedPayload is the payload for a leaderboard.cleared event
type LeaderboardClearedPayload struct {
	ClearedAt time.Time `json:"cleared_at"`
}

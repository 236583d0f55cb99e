package models

// RunOutcome describes how a run reached its terminal state.
type RunOutcome string

const (
	RunOutcomeFinished   RunOutcome = "FINISHED"
	RunOutcomeOutOfLives RunOutcome = "OUT_OF_LIVES"
	RunOutcomeTimeout    RunOutcome = "TIMEOUT"
)

// RunRecord is one completed, named run as persisted in the score store.
type RunRecord struct {
	Player         string `json:"player"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	LivesLeft      int    `json:"lives_left"`
}

// LeaderboardEntry is a ranked, display-ready view of a RunRecord.
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	Player         string `json:"player"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	TimeFormatted  string `json:"time"`
	LivesLeft      int    `json:"lives_left"`
	Score          int    `json:"score"`
}

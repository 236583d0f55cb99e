package api

import "github.com/mcdev12/buzzwire/go/internal/session"

const SessionServiceName = "buzzwire.session.v1.SessionService"

// Procedure paths
const (
	StartProcedure            = "/" + SessionServiceName + "/Start"
	StopClockProcedure        = "/" + SessionServiceName + "/StopClock"
	ResumeClockProcedure      = "/" + SessionServiceName + "/ResumeClock"
	FinishProcedure           = "/" + SessionServiceName + "/Finish"
	SubmitNameProcedure       = "/" + SessionServiceName + "/SubmitName"
	CancelNamingProcedure     = "/" + SessionServiceName + "/CancelNaming"
	ClearLeaderboardProcedure = "/" + SessionServiceName + "/ClearLeaderboard"
	GetStateProcedure         = "/" + SessionServiceName + "/GetState"
)

// Empty is the request of every intent that takes no arguments
type Empty struct{}

type SubmitNameRequest struct {
	Name string `json:"name"`
}

// StateResponse carries the snapshot taken right after the intent was applied
type StateResponse struct {
	Snapshot *session.Snapshot `json:"snapshot"`
}

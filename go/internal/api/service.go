// Package api exposes the session intents as a connect RPC service with a
// JSON wire format.
package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

// SessionController defines what the service needs from the session machine
type SessionController interface {
	Start(ctx context.Context) error
	StopClock(ctx context.Context) error
	ResumeClock(ctx context.Context) error
	Finish(ctx context.Context) error
	SubmitName(ctx context.Context, name string) error
	CancelNaming(ctx context.Context) error
	ClearLeaderboard(ctx context.Context) error
	Snapshot() *session.Snapshot
}

var _ SessionController = (*session.Machine)(nil)

// Service implements the SessionService RPCs
type Service struct {
	controller SessionController
}

func NewService(controller SessionController) *Service {
	return &Service{controller: controller}
}

func (s *Service) Start(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.Start(ctx))
}

func (s *Service) StopClock(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.StopClock(ctx))
}

func (s *Service) ResumeClock(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.ResumeClock(ctx))
}

func (s *Service) Finish(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.Finish(ctx))
}

func (s *Service) SubmitName(ctx context.Context, req *connect.Request[SubmitNameRequest]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.SubmitName(ctx, req.Msg.Name))
}

func (s *Service) CancelNaming(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.CancelNaming(ctx))
}

func (s *Service) ClearLeaderboard(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(s.controller.ClearLeaderboard(ctx))
}

func (s *Service) GetState(_ context.Context, _ *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.apply(nil)
}

func (s *Service) apply(err error) (*connect.Response[StateResponse], error) {
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&StateResponse{Snapshot: s.controller.Snapshot()}), nil
}

// NewSessionServiceHandler builds the HTTP handler for the service. The
// returned path is the prefix to mount it under.
func NewSessionServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(StartProcedure, connect.NewUnaryHandler(StartProcedure, svc.Start, opts...))
	mux.Handle(StopClockProcedure, connect.NewUnaryHandler(StopClockProcedure, svc.StopClock, opts...))
	mux.Handle(ResumeClockProcedure, connect.NewUnaryHandler(ResumeClockProcedure, svc.ResumeClock, opts...))
	mux.Handle(FinishProcedure, connect.NewUnaryHandler(FinishProcedure, svc.Finish, opts...))
	mux.Handle(SubmitNameProcedure, connect.NewUnaryHandler(SubmitNameProcedure, svc.SubmitName, opts...))
	mux.Handle(CancelNamingProcedure, connect.NewUnaryHandler(CancelNamingProcedure, svc.CancelNaming, opts...))
	mux.Handle(ClearLeaderboardProcedure, connect.NewUnaryHandler(ClearLeaderboardProcedure, svc.ClearLeaderboard, opts...))
	mux.Handle(GetStateProcedure, connect.NewUnaryHandler(GetStateProcedure, svc.GetState, opts...))
	return "/" + SessionServiceName + "/", mux
}

package api

import (
	"context"
	"strings"

	"connectrpc.com/connect"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

// Client calls the SessionService
type Client struct {
	start            *connect.Client[Empty, StateResponse]
	stopClock        *connect.Client[Empty, StateResponse]
	resumeClock      *connect.Client[Empty, StateResponse]
	finish           *connect.Client[Empty, StateResponse]
	submitName       *connect.Client[SubmitNameRequest, StateResponse]
	cancelNaming     *connect.Client[Empty, StateResponse]
	clearLeaderboard *connect.Client[Empty, StateResponse]
	getState         *connect.Client[Empty, StateResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		start:            connect.NewClient[Empty, StateResponse](httpClient, baseURL+StartProcedure, opts...),
		stopClock:        connect.NewClient[Empty, StateResponse](httpClient, baseURL+StopClockProcedure, opts...),
		resumeClock:      connect.NewClient[Empty, StateResponse](httpClient, baseURL+ResumeClockProcedure, opts...),
		finish:           connect.NewClient[Empty, StateResponse](httpClient, baseURL+FinishProcedure, opts...),
		submitName:       connect.NewClient[SubmitNameRequest, StateResponse](httpClient, baseURL+SubmitNameProcedure, opts...),
		cancelNaming:     connect.NewClient[Empty, StateResponse](httpClient, baseURL+CancelNamingProcedure, opts...),
		clearLeaderboard: connect.NewClient[Empty, StateResponse](httpClient, baseURL+ClearLeaderboardProcedure, opts...),
		getState:         connect.NewClient[Empty, StateResponse](httpClient, baseURL+GetStateProcedure, opts...),
	}
}

func (c *Client) Start(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.start, &Empty{})
}

func (c *Client) StopClock(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.stopClock, &Empty{})
}

func (c *Client) ResumeClock(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.resumeClock, &Empty{})
}

func (c *Client) Finish(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.finish, &Empty{})
}

func (c *Client) SubmitName(ctx context.Context, name string) (*session.Snapshot, error) {
	return call(ctx, c.submitName, &SubmitNameRequest{Name: name})
}

func (c *Client) CancelNaming(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.cancelNaming, &Empty{})
}

func (c *Client) ClearLeaderboard(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.clearLeaderboard, &Empty{})
}

func (c *Client) GetState(ctx context.Context) (*session.Snapshot, error) {
	return call(ctx, c.getState, &Empty{})
}

func call[Req any](ctx context.Context, client *connect.Client[Req, StateResponse], msg *Req) (*session.Snapshot, error) {
	resp, err := client.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return resp.Msg.Snapshot, nil
}

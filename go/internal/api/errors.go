package api

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/mcdev12/buzzwire/go/internal/scorestore"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

// toConnectError maps domain errors onto RPC codes
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	code := connect.CodeInternal
	switch {
	case errors.Is(err, session.ErrInvalidName):
		code = connect.CodeInvalidArgument
	case errors.Is(err, session.ErrNoPendingRun), errors.Is(err, session.ErrNotRunning):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, scorestore.ErrPersistence), errors.Is(err, session.ErrMachineStopped):
		code = connect.CodeUnavailable
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}

package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitbill/internal/apperr"
	"github.com/mmynk/splitbill/internal/metrics"
	"github.com/mmynk/splitbill/internal/middleware"
	"github.com/mmynk/splitbill/internal/models"
)

// ErrorFieldHeader names the request field a validation error refers to.
const ErrorFieldHeader = "X-Error-Field"

var errNoCaller = errors.New("request has no authenticated caller")

func callerFrom(ctx context.Context) (models.Caller, error) {
	caller, ok := middleware.CallerFrom(ctx)
	if !ok {
		return models.Caller{}, connect.NewError(connect.CodeUnauthenticated, errNoCaller)
	}
	return caller, nil
}

// toConnectError maps a core error onto a Connect code. Invariant violations
// are logged and counted here so that every entry point reports them once.
func toConnectError(err error, m *metrics.Metrics) error {
	if err == nil {
		return nil
	}

	var (
		connectErr    *connect.Error
		validationErr *apperr.ValidationError
		invariantErr  *apperr.InvariantViolation
	)
	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.As(err, &validationErr):
		ce := connect.NewError(connect.CodeInvalidArgument, err)
		if validationErr.Field != "" {
			ce.Meta().Set(ErrorFieldHeader, validationErr.Field)
		}
		return ce
	case apperr.IsNotFound(err):
		return connect.NewError(connect.CodeNotFound, err)
	case apperr.IsPermission(err):
		return connect.NewError(connect.CodePermissionDenied, err)
	case apperr.IsBusy(err):
		return connect.NewError(connect.CodeUnavailable, err)
	case errors.As(err, &invariantErr):
		slog.Error("Invariant violated", "check", invariantErr.Check, "detail", invariantErr.Detail)
		m.InvariantViolated(invariantErr.Check)
		return connect.NewError(connect.CodeInternal, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		slog.Error("Unexpected error", "error", err)
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}

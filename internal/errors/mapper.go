// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Domain is reported in ErrorInfo details.
const Domain = "oniki.net"

// Map converts domain/repo/infra errors into gRPC status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var code codes.Code
	msg := err.Error()

	switch {
	case errors.Is(err, ErrInvalidInput):
		code = codes.InvalidArgument
	case errors.Is(err, ErrDuplicateMatch):
		code = codes.AlreadyExists
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, ErrAlreadyResolved), errors.Is(err, ErrInvalidStateTransition):
		code = codes.FailedPrecondition
	case isNotFound(err):
		code = codes.NotFound
	case errors.Is(err, ErrUnauthenticated):
		code = codes.Unauthenticated
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")
	default:
		// fallback → bubble up error message for debugging
		return status.Error(codes.Internal, msg)
	}

	st := status.New(code, msg)
	if withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{
		Reason: Reason(err),
		Domain: Domain,
	}); derr == nil {
		st = withInfo
	}
	return st.Err()
}

// ReasonFromStatus extracts the ErrorInfo reason attached by Map, if any.
func ReasonFromStatus(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

// HTTPStatus picks the HTTP status code for err.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicateMatch),
		errors.Is(err, ErrAlreadyResolved),
		errors.Is(err, ErrInvalidStateTransition):
		return http.StatusConflict
	case errors.Is(err, ErrNotParticipant), errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case isNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

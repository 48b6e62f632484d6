package errors

import (
	stderrors "errors"
	"fmt"
)

// Domain errors shared by the scorer, the lifecycle and the transports.
// Wrap them with fmt.Errorf("...: %w", Err...) and test with errors.Is.
var (
	ErrInvalidInput           = stderrors.New("invalid input")
	ErrDuplicateMatch         = stderrors.New("match already exists for this pair and event")
	ErrNotParticipant         = stderrors.New("responder is not a participant of this match")
	ErrAlreadyResolved        = stderrors.New("match already resolved")
	ErrInvalidStateTransition = stderrors.New("invalid match state transition")
	ErrNotFound               = stderrors.New("not found")
	ErrForbidden              = stderrors.New("forbidden")
	ErrUnauthenticated        = stderrors.New("unauthenticated")
)

// reason codes exposed to clients in error details / bodies
const (
	ReasonInvalidInput           = "INVALID_INPUT"
	ReasonDuplicateMatch         = "DUPLICATE_MATCH"
	ReasonNotParticipant         = "NOT_PARTICIPANT"
	ReasonAlreadyResolved        = "ALREADY_RESOLVED"
	ReasonInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ReasonNotFound               = "NOT_FOUND"
	ReasonForbidden              = "FORBIDDEN"
	ReasonUnauthenticated        = "UNAUTHENTICATED"
	ReasonInternal               = "INTERNAL"
)

// Reason returns the client-facing reason code for err.
func Reason(err error) string {
	switch {
	case stderrors.Is(err, ErrInvalidInput):
		return ReasonInvalidInput
	case stderrors.Is(err, ErrDuplicateMatch):
		return ReasonDuplicateMatch
	case stderrors.Is(err, ErrNotParticipant):
		return ReasonNotParticipant
	case stderrors.Is(err, ErrAlreadyResolved):
		return ReasonAlreadyResolved
	case stderrors.Is(err, ErrInvalidStateTransition):
		return ReasonInvalidStateTransition
	case isNotFound(err):
		return ReasonNotFound
	case stderrors.Is(err, ErrForbidden):
		return ReasonForbidden
	case stderrors.Is(err, ErrUnauthenticated):
		return ReasonUnauthenticated
	default:
		return ReasonInternal
	}
}

// InvalidInputf formats a message wrapping ErrInvalidInput.
func InvalidInputf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvalidInput)...)
}

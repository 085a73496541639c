package talent

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies engine failures
type Kind string

const (
	KindNotFound        Kind = "NOT_FOUND"
	KindInvalidState    Kind = "INVALID_STATE"
	KindExpired         Kind = "EXPIRED"
	KindAlreadyActioned Kind = "ALREADY_ACTIONED"
	KindForbidden       Kind = "FORBIDDEN"
	KindInternal        Kind = "INTERNAL"
)

// Reason codes returned to callers so they can render an actionable message
const (
	ReasonJobNotFound        = "job_not_found"
	ReasonCandidateNotFound  = "candidate_not_found"
	ReasonInvitationNotFound = "not_found"
	ReasonJobInactive        = "job_inactive"
	ReasonCandidateIsAdmin   = "candidate_is_admin"
	ReasonApplicationExists  = "application_exists"
	ReasonInvitationExists   = "invitation_exists"
	ReasonAlreadyActioned    = "already_actioned"
	ReasonExpired            = "expired"
	ReasonInvalidRange       = "invalid_range"
	ReasonInvalidStatus      = "invalid_status"
	ReasonInvalidInteraction = "invalid_interaction"
	ReasonNotInvitee         = "not_invitee"
	ReasonInternal           = "internal"
)

// Error is the engine's error type
type Error struct {
	Kind    Kind
	Reason  string
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StackTrace returns the stack captured when the error was created.
func (e *Error) StackTrace() []byte {
	return e.Stack
}

func newError(kind Kind, reason, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}
	return &Error{Kind: kind, Reason: reason, Message: message, Err: err, Stack: stack}
}

func notFound(reason, message string) *Error {
	return newError(KindNotFound, reason, message, nil)
}

func invalidState(reason, message string) *Error {
	return newError(KindInvalidState, reason, message, nil)
}

func internal(message string, err error) *Error {
	return newError(KindInternal, ReasonInternal, message, err)
}

// KindOf returns the kind of an engine error, or KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ReasonOf returns the reason code of an engine error, or "" for anything else.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// Package apperr defines the errors returned across the service boundary.
//
// Every failure carries an internal Cause and an external Kind. The Kind is
// always derived from the Cause through Collapse, so distinct causes such as
// an expired token and a consumed one reach callers as the same Kind.
package apperr

import (
	"errors"
	"net/http"

	"fitlog/fitness-api/internal/store"
)

type Kind int

const (
	KindInternal Kind = iota
	KindUnauthorized
	KindNotFound
	KindExternalVerificationFailed
	// KindStoreIO marks timeouts and connectivity failures. Retrying is up to the caller.
	KindStoreIO
	KindBadRequest
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindExternalVerificationFailed:
		return "external_verification_failed"
	case KindStoreIO:
		return "store_io"
	case KindBadRequest:
		return "bad_request"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code for k
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindExternalVerificationFailed:
		return http.StatusUnprocessableEntity
	case KindStoreIO:
		return http.StatusServiceUnavailable
	case KindBadRequest:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Cause int

const (
	CauseUnknown Cause = iota

	// login
	CauseBadCredentials
	CauseUnverified

	// token verification
	CauseInvalidToken
	CauseTokenNotFound
	CauseOwnerNotFound
	CauseVerificationFailed

	CauseRefreshTokenNotFound
	CauseEmailNotFound
	CauseUserNotFound
	CauseWorkoutNotFound

	CauseProviderRejected
	CauseProviderUnavailable
	CauseStoreUnavailable

	CauseEmailTaken
	CauseWorkoutNameTaken
	CauseAlreadyVerified
	CauseInvalidInput
)

var collapse = map[Cause]Kind{
	CauseBadCredentials:       KindUnauthorized,
	CauseUnverified:           KindUnauthorized,
	CauseInvalidToken:         KindUnauthorized,
	CauseTokenNotFound:        KindUnauthorized,
	CauseOwnerNotFound:        KindUnauthorized,
	CauseVerificationFailed:   KindUnauthorized,
	CauseRefreshTokenNotFound: KindNotFound,
	CauseEmailNotFound:        KindNotFound,
	CauseUserNotFound:         KindNotFound,
	CauseWorkoutNotFound:      KindNotFound,
	CauseProviderRejected:     KindExternalVerificationFailed,
	CauseProviderUnavailable:  KindStoreIO,
	CauseStoreUnavailable:     KindStoreIO,
	CauseEmailTaken:           KindConflict,
	CauseWorkoutNameTaken:     KindBadRequest,
	CauseAlreadyVerified:      KindBadRequest,
	CauseInvalidInput:         KindBadRequest,
}

// Collapse maps an internal cause to the kind reported to callers.
// Unlisted causes are internal errors.
func Collapse(c Cause) Kind {
	if k, ok := collapse[c]; ok {
		return k
	}
	return KindInternal
}

type Error struct {
	Kind  Kind
	Cause Cause
	// Message is safe to show to clients
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ", " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(c Cause, msg string) *Error {
	return &Error{Kind: Collapse(c), Cause: c, Message: msg}
}

func Wrap(c Cause, msg string, err error) *Error {
	return &Error{Kind: Collapse(c), Cause: c, Message: msg, Err: err}
}

// Store reports a failed store call as a retryable I/O error
func Store(err error) *Error {
	return Wrap(CauseStoreUnavailable, "Service temporarily unavailable, please try again", err)
}

// FromStore converts an error returned by a store. A missing record becomes
// notFound, I/O failures stay retryable and anything else is internal.
func FromStore(err error, notFound Cause, msg string) *Error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return Wrap(notFound, msg, err)
	case errors.Is(err, store.ErrIO):
		return Store(err)
	default:
		return Internal(err)
	}
}

// Internal wraps an unexpected failure
func Internal(err error) *Error {
	return Wrap(CauseUnknown, "Internal server error", err)
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

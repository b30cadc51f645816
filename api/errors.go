package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package
	KindUnknown Kind = iota
	// KindUnauthorized means no valid session (401, or an expired token)
	KindUnauthorized
	// KindForbidden means the session lacks permission (403)
	KindForbidden
	// KindNotFound means the resource does not exist (404)
	KindNotFound
	// KindConflict means the write collides with existing state (409)
	KindConflict
	// KindInvalid means the request was rejected as malformed (400, 422) or
	// failed validation before it was sent
	KindInvalid
	// KindServer covers 5xx, unexpected statuses and undecodable bodies
	KindServer
	// KindTransport means the request never got a response
	KindTransport
)

// String returns the lower-case name used in CLI messages
func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindInvalid:
		return "invalid request"
	case KindServer:
		return "server error"
	case KindTransport:
		return "transport error"
	default:
		return "unknown error"
	}
}

// Sentinel errors, one per Kind. Match with errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid request")
	ErrServer       = errors.New("server error")
	ErrTransport    = errors.New("transport error")
)

var sentinels = map[Kind]error{
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindNotFound:     ErrNotFound,
	KindConflict:     ErrConflict,
	KindInvalid:      ErrInvalid,
	KindServer:       ErrServer,
	KindTransport:    ErrTransport,
}

// APIError is returned by every Client method that fails.
type APIError struct {
	Kind       Kind
	StatusCode int // 0 when no response was received
	Method     string
	Path       string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	head := e.Kind.String()
	if e.StatusCode > 0 {
		head = fmt.Sprintf("%s (status %d)", e.Kind, e.StatusCode)
	}
	if e.Method != "" {
		head = e.Method + " " + e.Path + ": " + head
	}
	if msg == "" {
		return head
	}
	return head + ": " + msg
}

// Unwrap returns the underlying cause, if any
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNotFound) and friends match on Kind
func (e *APIError) Is(target error) bool {
	sentinel, ok := sentinels[e.Kind]
	return ok && sentinel == target
}

// IsUnauthorized checks if the error indicates a missing or expired session
func (e *APIError) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.Kind == KindNotFound
}

// KindOf extracts the Kind of err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// kindForStatus maps a non-success HTTP status to a Kind.
func kindForStatus(code int) Kind {
	switch code {
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalid
	default:
		return KindServer
	}
}

func invalidf(format string, args ...any) error {
	return &APIError{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

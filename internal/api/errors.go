package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call
type Kind int

const (
	// KindTransport: the backend could not be reached. This is the fatal
	// class; everything else is an answer from the server.
	KindTransport Kind = iota + 1
	// KindUnauthorized: 401. The token has already been purged and the
	// app sent to the login route by the time the caller sees this.
	KindUnauthorized
	// KindRejected: any other 4xx, a validation or business rejection
	KindRejected
	// KindServer: 5xx
	KindServer
	// KindDecode: a 2xx whose body could not be decoded
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is returned by every Client call that does not succeed
type Error struct {
	Op      string // e.g. "tasks.update"
	Kind    Kind
	Status  int    // HTTP status, 0 for transport failures
	Message string // backend detail, if any
	Err     error  // underlying cause for transport and decode failures
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s (%d)", e.Op, e.Message, e.Status)
	case e.Status != 0:
		return fmt.Sprintf("%s: %s", e.Op, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status >= 500:
		return KindServer
	default:
		return KindRejected
	}
}

// KindOf returns the kind of an *Error anywhere in err's chain, or 0
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StatusOf returns the HTTP status of an *Error in err's chain, or 0
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}

func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }
func IsRejected(err error) bool     { return KindOf(err) == KindRejected }
func IsNotFound(err error) bool     { return StatusOf(err) == http.StatusNotFound }

// IsFatal reports a failure to reach the backend at all
func IsFatal(err error) bool { return KindOf(err) == KindTransport }

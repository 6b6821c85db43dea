package client

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed API call.
type ErrorKind int

const (
	// KindConnectivity means the server could not be reached or answered
	// with something that is not the API.
	KindConnectivity ErrorKind = iota
	// KindConflict means a uniqueness rule rejected the write.
	KindConflict
	// KindValidation means the server rejected the payload or query.
	KindValidation
	// KindServer means the server reached its store and failed, or any
	// other non-2xx answer.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindConnectivity:
		return "connectivity"
	case KindConflict:
		return "conflict"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the failure half of a Result. Message is safe to show a user.
type Error struct {
	Kind      ErrorKind
	Status    int
	Message   string
	Fields    map[string]string
	RequestID string
	cause     error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s error (%d %s): %s", e.Kind, e.Status, http.StatusText(e.Status), e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Result is what every API call returns: a value when Err is nil.
type Result[T any] struct {
	Value T
	Err   *Error
}

// OK reports whether the call succeeded.
func (r Result[T]) OK() bool { return r.Err == nil }

// Unpack converts the result into Go's usual (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}

func success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func failure[T any](err *Error) Result[T] {
	return Result[T]{Err: err}
}

package request

import (
	"errors"
	"fmt"
)

// Kind classifies why a call did not produce data.
type Kind int

const (
	// KindTransport covers network errors, timeouts, exhausted retries and non-2xx statuses.
	KindTransport Kind = iota + 1
	// KindCanceled covers caller cancellation and aborts issued from BeforeRequest.
	KindCanceled
	// KindBusiness means the classifier rejected an otherwise successful response.
	KindBusiness
	// KindDecode means the body was not an envelope or its data did not fit the target type.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindCanceled:
		return "canceled"
	case KindBusiness:
		return "business"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Sentinels matched by errors.Is against an *Error of the corresponding kind.
var (
	ErrTransport = errors.New("request: transport failure")
	ErrCanceled  = errors.New("request: canceled")
	ErrBusiness  = errors.New("request: business failure")
	ErrDecode    = errors.New("request: decode failure")
)

// Error is the single error type placed in Result.Err.
type Error struct {
	Kind       Kind
	RequestID  string
	StatusCode int
	Err        error
}

func newError(kind Kind, requestID string, status int, err error) *Error {
	return &Error{Kind: kind, RequestID: requestID, StatusCode: status, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("[%s] %s request failed", e.RequestID, e.Kind)
	if e.StatusCode > 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is(err, ErrCanceled) and friends match by kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrTransport:
		return e.Kind == KindTransport
	case ErrCanceled:
		return e.Kind == KindCanceled
	case ErrBusiness:
		return e.Kind == KindBusiness
	case ErrDecode:
		return e.Kind == KindDecode
	}
	return false
}

// KindOf returns the Kind carried by err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var reqErr *Error
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return 0
}

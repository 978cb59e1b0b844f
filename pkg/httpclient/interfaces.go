package httpclient

import (
	"context"
	"net/http"
	"net/url"
)

// HeaderRequestID carries the per-request correlation identifier.
const HeaderRequestID = "X-Request-Id"

// Request describes a single outgoing call. URL may be relative to the client's base URL.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   any
}

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
	// Attempts reports how many times the request was sent, retries included.
	Attempts() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Do(ctx context.Context, req *Request) (Response, error)
}

// Logger defines the logging surface the transport relies on.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

// Package request wraps an HTTP transport with per-call request ids, a
// registry of cancelable in-flight calls, business-success classification and
// a flat result value that carries data, error and raw response together.
package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samvad-hq/flat-request/pkg/httpclient"
)

// Config is what a caller supplies for one call. URL may be relative to the transport base URL.
type Config struct {
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   any
}

// Request is the prepared outgoing call handed to BeforeRequest.
type Request struct {
	ID     string
	Method string
	URL    string
	Header http.Header
	Query  url.Values
	Body   any
}

// Result is the flat outcome of a call. Exactly one of Data and Err is set,
// except under KeepData where a rejected response still carries Data.
// Response is set whenever the server answered.
type Result[T any] struct {
	Data     *T
	Err      error
	Response *Response
}

// OK reports whether the call produced data without error.
func (r Result[T]) OK() bool { return r.Err == nil && r.Data != nil }

// Client is a request wrapper around a single transport.
type Client struct {
	transport httpclient.Client
	hooks     Hooks
	policy    BusinessFailurePolicy
	newID     func() string
	log       Logger
	pending   *registry
}

// New builds a Client on a resty transport configured by topts.
func New(topts httpclient.Options, opts ...Option) *Client {
	return NewWithTransport(httpclient.NewRetryingRestyClient(topts), opts...)
}

// NewWithTransport builds a Client on an existing transport.
func NewWithTransport(transport httpclient.Client, opts ...Option) *Client {
	if transport == nil {
		transport = httpclient.NewRestyClient(0)
	}
	c := &Client{
		transport: transport,
		hooks:     defaultHooks(),
		policy:    KeepData,
		newID:     newRequestID,
		log:       noopLogger{},
		pending:   newRegistry(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Cancel aborts the in-flight call registered under id. Unknown ids are ignored.
func (c *Client) Cancel(id string) bool {
	ok := c.pending.cancel(id)
	if ok {
		c.log.InfoObj("request cancelled", "request_id", id)
	}
	return ok
}

// CancelAll aborts every in-flight call and returns how many were signalled.
func (c *Client) CancelAll() int {
	n := c.pending.cancelAll()
	if n > 0 {
		c.log.InfoObj("requests cancelled", "cancelled_count", n)
	}
	return n
}

// Pending lists the ids of calls currently in flight.
func (c *Client) Pending() []string { return c.pending.ids() }

// Execute sends one call and returns its flat result. Data holds the raw
// envelope data field. Execute never returns transport errors out of band.
func (c *Client) Execute(ctx context.Context, cfg Config) Result[json.RawMessage] {
	if ctx == nil {
		ctx = context.Background()
	}

	callCtx, cancel := context.WithCancelCause(ctx)
	id := c.register(cancel)
	defer func() {
		c.pending.remove(id)
		cancel(nil)
	}()

	req := &Request{
		ID:     id,
		Method: strings.ToUpper(strings.TrimSpace(cfg.Method)),
		URL:    cfg.URL,
		Header: cfg.Header.Clone(),
		Query:  cloneValues(cfg.Query),
		Body:   cfg.Body,
	}
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set(httpclient.HeaderRequestID, id)

	if err := c.hooks.BeforeRequest(callCtx, req); err != nil {
		return c.fail(req, nil, newError(KindCanceled, id, 0, fmt.Errorf("before request: %w", err)))
	}
	if callCtx.Err() != nil {
		return c.fail(req, nil, c.contextError(callCtx, id, nil, callCtx.Err()))
	}

	start := time.Now()
	resp, err := c.transport.Do(callCtx, &httpclient.Request{
		Method: req.Method,
		URL:    req.URL,
		Header: req.Header,
		Query:  req.Query,
		Body:   req.Body,
	})
	raw := newResponse(id, resp, time.Since(start))
	if err != nil {
		if callCtx.Err() != nil {
			return c.fail(req, raw, c.contextError(callCtx, id, raw, err))
		}
		return c.fail(req, raw, newError(KindTransport, id, statusOf(raw), err))
	}
	if raw == nil {
		return c.fail(req, nil, newError(KindTransport, id, 0, errors.New("transport returned no response")))
	}
	if raw.StatusCode < http.StatusOK || raw.StatusCode >= http.StatusMultipleChoices {
		return c.fail(req, raw, newError(KindTransport, id, raw.StatusCode,
			fmt.Errorf("unexpected status %d body: %s", raw.StatusCode, bodySnippet(raw.Body))))
	}

	raw.BusinessSuccess = c.hooks.IsSuccess(raw)
	if raw.BusinessSuccess {
		c.hooks.OnSuccess(callCtx, raw)
	} else {
		c.hooks.OnFailure(callCtx, raw)
	}
	if out := c.hooks.OnResponse(callCtx, raw); out != nil {
		raw = out
	}

	if !raw.BusinessSuccess && c.policy == FailureAsError {
		return c.fail(req, raw, newError(KindBusiness, id, raw.StatusCode, errors.New("response rejected by classifier")))
	}

	env, err := raw.Envelope()
	if err != nil {
		return c.fail(req, raw, newError(KindDecode, id, raw.StatusCode, err))
	}

	c.log.DebugObj("request completed", "request_meta", map[string]any{
		"request_id":       id,
		"method":           req.Method,
		"url":              req.URL,
		"status":           raw.StatusCode,
		"attempts":         raw.Attempts,
		"elapsed_ms":       raw.Elapsed.Milliseconds(),
		"business_success": raw.BusinessSuccess,
	})

	data := env.Data
	if data == nil {
		data = json.RawMessage("null")
	}
	return Result[json.RawMessage]{Data: &data, Response: raw}
}

// Execute sends one call through c and decodes the envelope data into T.
func Execute[T any](ctx context.Context, c *Client, cfg Config) Result[T] {
	raw := c.Execute(ctx, cfg)
	out := Result[T]{Err: raw.Err, Response: raw.Response}
	if raw.Err != nil || raw.Data == nil {
		return out
	}

	var v T
	if err := json.Unmarshal(*raw.Data, &v); err != nil {
		id := ""
		status := 0
		if raw.Response != nil {
			id = raw.Response.RequestID
			status = raw.Response.StatusCode
		}
		out.Err = newError(KindDecode, id, status, fmt.Errorf("decode data: %w", err))
		return out
	}
	out.Data = &v
	return out
}

// register mints an id that is not already in flight and records cancel under it.
func (c *Client) register(cancel context.CancelCauseFunc) string {
	for range 3 {
		id := c.newID()
		if id != "" && c.pending.addIfAbsent(id, cancel) {
			return id
		}
	}
	id := newRequestID()
	c.pending.add(id, cancel)
	return id
}

// contextError maps a finished call context to a cancellation or timeout error.
func (c *Client) contextError(ctx context.Context, id string, raw *Response, err error) *Error {
	cause := context.Cause(ctx)
	if errors.Is(cause, context.DeadlineExceeded) {
		return newError(KindTransport, id, statusOf(raw), fmt.Errorf("timeout: %w", err))
	}
	if cause == nil {
		cause = err
	}
	return newError(KindCanceled, id, statusOf(raw), cause)
}

func (c *Client) fail(req *Request, raw *Response, err *Error) Result[json.RawMessage] {
	meta := map[string]any{
		"request_id": err.RequestID,
		"method":     req.Method,
		"url":        req.URL,
		"kind":       err.Kind.String(),
		"error":      err.Error(),
	}
	if raw != nil {
		meta["status"] = raw.StatusCode
		meta["attempts"] = raw.Attempts
	}
	if err.Kind == KindCanceled {
		c.log.InfoObj("request aborted", "request_error", meta)
	} else {
		c.log.WarnObj("request failed", "request_error", meta)
	}
	return Result[json.RawMessage]{Err: err, Response: raw}
}

func statusOf(raw *Response) int {
	if raw == nil {
		return 0
	}
	return raw.StatusCode
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

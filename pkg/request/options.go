package request

import (
	"context"

	"github.com/google/uuid"
)

// BusinessFailurePolicy decides what a call returns when the classifier rejects a response.
type BusinessFailurePolicy int

const (
	// KeepData runs OnFailure but still returns the decoded data with a nil error.
	KeepData BusinessFailurePolicy = iota
	// FailureAsError returns a KindBusiness error and no data.
	FailureAsError
)

// Hooks are the extension points of a Client. Nil fields fall back to the defaults below.
type Hooks struct {
	// BeforeRequest may mutate the outgoing request. Returning an error, or
	// cancelling req.ID through the client, aborts the call.
	BeforeRequest func(ctx context.Context, req *Request) error
	// IsSuccess classifies business-level success of a 2xx response.
	IsSuccess func(resp *Response) bool
	OnSuccess func(ctx context.Context, resp *Response)
	OnFailure func(ctx context.Context, resp *Response)
	// OnResponse runs last and may replace the response; a nil return keeps the original.
	OnResponse func(ctx context.Context, resp *Response) *Response
}

func defaultBeforeRequest(context.Context, *Request) error { return nil }
func noopOnSuccess(context.Context, *Response)             {}
func noopOnFailure(context.Context, *Response)             {}

func passThroughResponse(_ context.Context, resp *Response) *Response { return resp }

func defaultHooks() Hooks {
	return Hooks{
		BeforeRequest: defaultBeforeRequest,
		IsSuccess:     AlwaysSuccess,
		OnSuccess:     noopOnSuccess,
		OnFailure:     noopOnFailure,
		OnResponse:    passThroughResponse,
	}
}

// merge overlays the non-nil hooks of o onto h.
func (h Hooks) merge(o Hooks) Hooks {
	if o.BeforeRequest != nil {
		h.BeforeRequest = o.BeforeRequest
	}
	if o.IsSuccess != nil {
		h.IsSuccess = o.IsSuccess
	}
	if o.OnSuccess != nil {
		h.OnSuccess = o.OnSuccess
	}
	if o.OnFailure != nil {
		h.OnFailure = o.OnFailure
	}
	if o.OnResponse != nil {
		h.OnResponse = o.OnResponse
	}
	return h
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithHooks overlays every non-nil hook in h.
func WithHooks(h Hooks) Option {
	return func(c *Client) {
		c.hooks = c.hooks.merge(h)
	}
}

// WithBeforeRequest sets the pre-send hook.
func WithBeforeRequest(fn func(ctx context.Context, req *Request) error) Option {
	return WithHooks(Hooks{BeforeRequest: fn})
}

// WithIsSuccess sets the business-success classifier.
func WithIsSuccess(fn func(resp *Response) bool) Option {
	return WithHooks(Hooks{IsSuccess: fn})
}

// WithOnSuccess sets the hook run after a positive classification.
func WithOnSuccess(fn func(ctx context.Context, resp *Response)) Option {
	return WithHooks(Hooks{OnSuccess: fn})
}

// WithOnFailure sets the hook run after a negative classification.
func WithOnFailure(fn func(ctx context.Context, resp *Response)) Option {
	return WithHooks(Hooks{OnFailure: fn})
}

// WithOnResponse sets the final transform hook.
func WithOnResponse(fn func(ctx context.Context, resp *Response) *Response) Option {
	return WithHooks(Hooks{OnResponse: fn})
}

// WithBusinessFailurePolicy picks how classifier rejections surface in the result.
func WithBusinessFailurePolicy(p BusinessFailurePolicy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

// WithIDGenerator replaces the request id source.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithLogger sets the logger used for call lifecycle events.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

func newRequestID() string { return uuid.NewString() }

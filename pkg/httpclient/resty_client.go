package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures the resty-backed transport.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// RetryCount is the number of extra attempts after the first one.
	RetryCount int
	// RetryDelay is the fixed pause between attempts.
	RetryDelay time.Duration
	Logger     Logger
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
	log    Logger
}

// NewRestyClient creates a new RestyClient with the specified timeout and no retries.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return NewRetryingRestyClient(Options{Timeout: timeout})
}

// NewRetryingRestyClient creates a RestyClient that retries transient failures
// opts.RetryCount times, waiting opts.RetryDelay between attempts.
func NewRetryingRestyClient(opts Options) *RestyClient {
	log := opts.Logger
	if log == nil {
		log = noopLogger{}
	}
	rc := &RestyClient{client: newRestyBaseClient(opts.Timeout), log: log}
	rc.client.SetLogger(restyLogger{log: log})

	if base := strings.TrimSpace(opts.BaseURL); base != "" {
		rc.client.SetBaseURL(base)
	}
	if opts.RetryCount > 0 {
		delay := opts.RetryDelay
		if delay < 0 {
			delay = 0
		}
		// equal wait bounds pin resty's jittered backoff to a fixed delay
		rc.client.
			SetRetryCount(opts.RetryCount).
			SetRetryWaitTime(delay).
			SetRetryMaxWaitTime(delay).
			AddRetryCondition(IsTransient).
			AddRetryHook(rc.logRetry)
	}
	return rc
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

// Do sends req and returns the response of the final attempt.
// A response is returned alongside the error whenever the server answered.
func (r *RestyClient) Do(ctx context.Context, in *Request) (Response, error) {
	if in == nil {
		return nil, errors.New("httpclient: nil request")
	}
	method := strings.ToUpper(strings.TrimSpace(in.Method))
	if method == "" {
		method = http.MethodGet
	}

	req := r.client.R().SetContext(ctx)
	for key, values := range in.Header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if len(in.Query) > 0 {
		req.SetQueryParamsFromValues(in.Query)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(method, in.URL)
	status := 0
	if resp != nil {
		status = resp.StatusCode()
	}
	r.log.DebugObj("http request finished", "http_meta", map[string]any{
		"method":   method,
		"url":      in.URL,
		"status":   status,
		"attempts": req.Attempt,
		"failed":   err != nil,
	})
	if err != nil {
		if resp != nil && resp.RawResponse != nil {
			return &restyResponseAdapter{resp: resp}, err
		}
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

func (r *RestyClient) logRetry(resp *resty.Response, err error) {
	meta := map[string]any{}
	if resp != nil && resp.Request != nil {
		meta["url"] = resp.Request.URL
		meta["method"] = resp.Request.Method
		meta["attempt"] = resp.Request.Attempt
		meta["request_id"] = resp.Request.Header.Get(HeaderRequestID)
		meta["status"] = resp.StatusCode()
	}
	if err != nil {
		meta["error"] = err.Error()
	}
	r.log.WarnObj("retrying transient request failure", "retry_meta", meta)
}

// IsTransient reports whether an attempt should be retried: network errors and
// 429/5xx responses on idempotent methods. Cancellation is never retried.
func IsTransient(resp *resty.Response, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if resp != nil && resp.Request != nil {
		if ctx := resp.Request.Context(); ctx != nil && ctx.Err() != nil {
			return false
		}
		if !isIdempotent(resp.Request.Method) {
			return false
		}
	}
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func isIdempotent(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete, http.MethodTrace:
		return true
	default:
		return false
	}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }

func (r *restyResponseAdapter) Attempts() int {
	if r.resp.Request == nil || r.resp.Request.Attempt < 1 {
		return 1
	}
	return r.resp.Request.Attempt
}

// restyLogger routes resty's internal messages into the structured logger.
type restyLogger struct {
	log Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.WarnObj("resty error", "detail", fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.WarnObj("resty warning", "detail", fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.DebugObj("resty debug", "detail", fmt.Sprintf(format, v...))
}

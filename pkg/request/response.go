package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/flat-request/pkg/httpclient"
)

// Envelope is the body shape every endpoint answers with.
type Envelope struct {
	Code    int             `json:"code"`
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Response is the raw outcome of the final transport attempt.
type Response struct {
	RequestID  string
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
	Elapsed    time.Duration
	// BusinessSuccess holds the classifier verdict; false until classification ran.
	BusinessSuccess bool
}

func newResponse(id string, resp httpclient.Response, elapsed time.Duration) *Response {
	if resp == nil {
		return nil
	}
	return &Response{
		RequestID:  id,
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
		Attempts:   resp.Attempts(),
		Elapsed:    elapsed,
	}
}

// Envelope decodes the body into the common envelope.
func (r *Response) Envelope() (Envelope, error) {
	if r == nil {
		return Envelope{}, errors.New("nil response")
	}
	if len(strings.TrimSpace(string(r.Body))) == 0 {
		return Envelope{}, errors.New("empty response body")
	}
	var env Envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// AlwaysSuccess is the default classifier.
func AlwaysSuccess(*Response) bool { return true }

// CodeEquals classifies a response as successful when the envelope code equals code.
func CodeEquals(code int) func(*Response) bool {
	return func(r *Response) bool {
		env, err := r.Envelope()
		return err == nil && env.Code == code
	}
}

func bodySnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

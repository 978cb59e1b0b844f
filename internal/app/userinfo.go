package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/flat-request/internal/config"
	"github.com/samvad-hq/flat-request/internal/logger"
	"github.com/samvad-hq/flat-request/pkg/endpoints"
	"github.com/samvad-hq/flat-request/pkg/httpclient"
	"github.com/samvad-hq/flat-request/pkg/request"
)

// ErrNoToken is returned by BeforeRequest when no auth token is configured.
var ErrNoToken = errors.New("auth token is not configured")

// UserInfo is the payload of the /user endpoint.
type UserInfo struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// UserService calls the demo backend through the request wrapper.
type UserService struct {
	client *request.Client
	token  string
	log    logger.Logger
}

// NewUserService wires a request client for the configured deploy mode.
func NewUserService(cfg *config.Config, log logger.Logger) (*UserService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	baseURL, timeout, err := resolveEndpoint(cfg)
	if err != nil {
		return nil, err
	}
	log.InfoObj("upstream resolved", "upstream", map[string]any{
		"mode":        cfg.Env,
		"base_url":    baseURL,
		"timeout_ms":  timeout.Milliseconds(),
		"retry_count": cfg.RetryCount,
	})

	svc := &UserService{token: cfg.AuthToken, log: log}
	svc.client = request.New(httpclient.Options{
		BaseURL:    baseURL,
		Timeout:    timeout,
		RetryCount: cfg.RetryCount,
		RetryDelay: cfg.RetryDelay,
		Logger:     log,
	},
		request.WithLogger(log),
		request.WithBeforeRequest(svc.beforeRequest),
		request.WithIsSuccess(svc.isSuccess(cfg.SuccessCode)),
		request.WithOnFailure(svc.onFailure),
	)
	return svc, nil
}

// GetUserInfo fetches the current user.
func (s *UserService) GetUserInfo(ctx context.Context) request.Result[UserInfo] {
	res := request.Execute[UserInfo](ctx, s.client, request.Config{URL: "/user"})
	s.log.InfoObj("user info response", "user_result", map[string]any{
		"data":  res.Data,
		"error": errString(res.Err),
	})
	return res
}

// CancelAll aborts every in-flight call of the service.
func (s *UserService) CancelAll() int { return s.client.CancelAll() }

func (s *UserService) beforeRequest(_ context.Context, req *request.Request) error {
	if s.token == "" {
		s.client.Cancel(req.ID)
		return ErrNoToken
	}
	req.Header.Set("Authorization", s.token)
	return nil
}

func (s *UserService) isSuccess(code int) func(*request.Response) bool {
	matches := request.CodeEquals(code)
	return func(resp *request.Response) bool {
		s.log.DebugObj("classifying response", "response_body", string(resp.Body))
		return matches(resp)
	}
}

func (s *UserService) onFailure(_ context.Context, resp *request.Response) {
	env, err := resp.Envelope()
	meta := map[string]any{"request_id": resp.RequestID, "status": resp.StatusCode}
	if err == nil {
		meta["code"] = env.Code
		meta["message"] = env.Message
	}
	s.log.WarnObj("business failure", "business_meta", meta)
}

// resolveEndpoint prefers the endpoints file entry for the mode and falls back to the env URLs.
func resolveEndpoint(cfg *config.Config) (string, time.Duration, error) {
	if cfg.EndpointsFile != "" {
		reg, err := endpoints.LoadRegistry(cfg.EndpointsFile)
		if err != nil {
			return "", 0, fmt.Errorf("load endpoints registry: %w", err)
		}
		if ep, ok := reg.ByMode(cfg.Env); ok {
			return ep.BaseURL, ep.Timeout(cfg.RequestTimeout), nil
		}
	}
	if base := cfg.BaseURL(); base != "" {
		return base, cfg.RequestTimeout, nil
	}
	return "", 0, fmt.Errorf("no base url configured for mode %q", cfg.Env)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

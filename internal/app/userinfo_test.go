package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samvad-hq/flat-request/internal/config"
	"github.com/samvad-hq/flat-request/pkg/request"
)

func backend(t *testing.T, code int, gotAuth *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotAuth != nil {
			*gotAuth = r.Header.Get("Authorization")
		}
		w.Header().Set("Content-Type", "application/json")
		if code == 20000 {
			_, _ = w.Write([]byte(`{"code":20000,"status":20,"message":"success","data":{"name":"X","age":22}}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":40100,"status":41,"message":"denied","data":{"name":"X","age":22}}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func baseConfig(url string) *config.Config {
	return &config.Config{
		Env:            config.ModeDev,
		DevURL:         url,
		AuthToken:      "ceshi",
		SuccessCode:    20000,
		RequestTimeout: time.Second,
	}
}

func TestGetUserInfoAttachesToken(t *testing.T) {
	var auth string
	srv := backend(t, 20000, &auth)

	svc, err := NewUserService(baseConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	res := svc.GetUserInfo(context.Background())
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Data == nil || *res.Data != (UserInfo{Name: "X", Age: 22}) {
		t.Fatalf("unexpected data %+v", res.Data)
	}
	if auth != "ceshi" {
		t.Fatalf("expected Authorization header, got %q", auth)
	}
	if !res.Response.BusinessSuccess {
		t.Fatalf("expected business success for code 20000")
	}
}

func TestGetUserInfoWithoutTokenIsCancelled(t *testing.T) {
	var auth string
	srv := backend(t, 20000, &auth)
	cfg := baseConfig(srv.URL)
	cfg.AuthToken = ""

	svc, err := NewUserService(cfg, nil)
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	res := svc.GetUserInfo(context.Background())
	if !errors.Is(res.Err, request.ErrCanceled) || !errors.Is(res.Err, ErrNoToken) {
		t.Fatalf("expected no-token cancellation, got %v", res.Err)
	}
	if res.Response != nil {
		t.Fatalf("request must not reach the backend")
	}
}

func TestGetUserInfoBusinessFailureKeepsData(t *testing.T) {
	srv := backend(t, 40100, nil)

	svc, err := NewUserService(baseConfig(srv.URL), nil)
	if err != nil {
		t.Fatalf("NewUserService: %v", err)
	}
	res := svc.GetUserInfo(context.Background())
	if res.Err != nil || res.Data == nil {
		t.Fatalf("expected data despite business failure, got %+v", res)
	}
	if res.Response.BusinessSuccess {
		t.Fatalf("expected business failure for code 40100")
	}
}

func TestResolveEndpointPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	content := "endpoints:\n  - mode: dev\n    base_url: http://file.test\n    timeout_ms: 1500\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := baseConfig("http://env.test")
	cfg.EndpointsFile = path

	base, timeout, err := resolveEndpoint(cfg)
	if err != nil {
		t.Fatalf("resolveEndpoint: %v", err)
	}
	if base != "http://file.test" || timeout != 1500*time.Millisecond {
		t.Fatalf("unexpected endpoint %s %s", base, timeout)
	}

	cfg.Env = config.ModeProd
	cfg.ProdURL = "http://prod-env.test"
	base, _, err = resolveEndpoint(cfg)
	if err != nil || base != "http://prod-env.test" {
		t.Fatalf("expected env fallback for undeclared mode, got %q err=%v", base, err)
	}
}

func TestResolveEndpointRequiresURL(t *testing.T) {
	cfg := baseConfig("")
	cfg.Env = config.ModeProd
	if _, err := NewUserService(cfg, nil); err == nil {
		t.Fatalf("expected error without prod url")
	}
}

package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Package endpoints maps deploy modes to upstream base URLs declared in a YAML/JSON file.

// Endpoint is one deploy-mode entry.
type Endpoint struct {
	Mode      string `json:"mode" yaml:"mode"`
	BaseURL   string `json:"base_url" yaml:"base_url"`
	TimeoutMs int    `json:"timeout_ms" yaml:"timeout_ms"`
}

type fileFormat struct {
	Endpoints []Endpoint `json:"endpoints" yaml:"endpoints"`
}

// Registry holds the endpoints loaded from file.
type Registry struct {
	mu        sync.RWMutex
	endpoints []Endpoint
	idx       map[string]Endpoint
}

// LoadRegistry loads the endpoint registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("endpoints file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open endpoints file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read endpoints file: %w", err)
	}
	return Parse(raw, filepath.Ext(path))
}

// Parse decodes registry content; ext selects the decoder and may be empty to try all.
func Parse(data []byte, ext string) (*Registry, error) {
	parsed, err := parseFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(parsed.Endpoints) == 0 {
		return nil, errors.New("endpoints file contains no endpoints entries")
	}

	reg := &Registry{
		endpoints: make([]Endpoint, len(parsed.Endpoints)),
		idx:       make(map[string]Endpoint, len(parsed.Endpoints)),
	}
	for i := range parsed.Endpoints {
		ep := sanitizeEndpoint(parsed.Endpoints[i])
		if err := validateEndpoint(ep); err != nil {
			return nil, fmt.Errorf("endpoints[%d]: %w", i, err)
		}
		if _, exists := reg.idx[ep.Mode]; exists {
			return nil, fmt.Errorf("duplicate endpoint mode %q", ep.Mode)
		}
		reg.endpoints[i] = ep
		reg.idx[ep.Mode] = ep
	}
	return reg, nil
}

func parseFile(data []byte, ext string) (fileFormat, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var out fileFormat
		if err := d.fn(data, &out); err == nil {
			return out, nil
		}
	}
	return fileFormat{}, errors.New("endpoints file format not recognized (expected YAML or JSON)")
}

func sanitizeEndpoint(ep Endpoint) Endpoint {
	ep.Mode = strings.ToLower(strings.TrimSpace(ep.Mode))
	ep.BaseURL = strings.TrimRight(strings.TrimSpace(ep.BaseURL), "/")
	if ep.TimeoutMs < 0 {
		ep.TimeoutMs = 0
	}
	return ep
}

func validateEndpoint(ep Endpoint) error {
	if ep.Mode == "" {
		return errors.New("mode is required")
	}
	if ep.BaseURL == "" {
		return fmt.Errorf("base_url is required for mode %q", ep.Mode)
	}
	u, err := url.Parse(ep.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url %q is not an absolute URL for mode %q", ep.BaseURL, ep.Mode)
	}
	return nil
}

// ByMode returns the endpoint declared for mode.
func (r *Registry) ByMode(mode string) (Endpoint, bool) {
	if r == nil {
		return Endpoint{}, false
	}
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return Endpoint{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	ep, ok := r.idx[mode]
	return ep, ok
}

// All returns every declared endpoint in file order.
func (r *Registry) All() []Endpoint {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Endpoint, len(r.endpoints))
	copy(out, r.endpoints)
	return out
}

// Timeout returns the per-endpoint timeout or fallback when unset.
func (ep Endpoint) Timeout(fallback time.Duration) time.Duration {
	if ep.TimeoutMs <= 0 {
		return fallback
	}
	return time.Duration(ep.TimeoutMs) * time.Millisecond
}

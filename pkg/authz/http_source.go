package authz

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/tidwall/gjson"
)

// HTTPSourceConfig holds the endpoints the HTTPSource consumes.
type HTTPSourceConfig struct {
	// ConfigURL serves the format configuration snapshot.
	ConfigURL string `env:"PERMKIT_CONFIG_URL,required"`

	// HierarchyURL serves the parent->children permission mapping. Leave
	// empty when no hierarchy is configured.
	HierarchyURL string `env:"PERMKIT_HIERARCHY_URL"`

	// Timeout bounds each request.
	Timeout time.Duration `env:"PERMKIT_HTTP_TIMEOUT" envDefault:"10s"`
}

var envLoaded sync.Once

// LoadHTTPSourceConfig loads HTTPSourceConfig from the environment,
// reading a .env file first if one exists.
func LoadHTTPSourceConfig() (HTTPSourceConfig, error) {
	envLoaded.Do(func() {
		// The .env file is optional.
		_ = godotenv.Load()
	})

	var cfg HTTPSourceConfig
	if err := env.Parse(&cfg); err != nil {
		return HTTPSourceConfig{}, errors.Join(ErrConfigFetch, err)
	}
	return cfg, nil
}

// HTTPSource fetches the format configuration and hierarchy mapping from
// remote endpoints.
//
// Transport failures are returned as errors so the evaluator can fail
// closed. A response whose schema does not match is not an error: the
// source falls back to DefaultFormatConfig and logs, because a config
// rollout must never lock every principal out.
type HTTPSource struct {
	cfg    HTTPSourceConfig
	client *http.Client
	logger *slog.Logger
}

// HTTPSourceOption configures an HTTPSource.
type HTTPSourceOption func(*HTTPSource)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPSourceOption {
	return func(s *HTTPSource) {
		if client != nil {
			s.client = client
		}
	}
}

// WithHTTPLogger sets a custom logger for the source.
func WithHTTPLogger(logger *slog.Logger) HTTPSourceOption {
	return func(s *HTTPSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHTTPSource creates an HTTPSource for the given endpoints.
func NewHTTPSource(cfg HTTPSourceConfig, opts ...HTTPSourceOption) *HTTPSource {
	s := &HTTPSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FormatConfig fetches and decodes the configuration snapshot.
//
// Expected shape:
//
//	{
//	  "primary_format": "dotted",
//	  "compatibility": true,
//	  "legacy_formats": ["underscore", "colon"],
//	  "hierarchy_enabled": true,
//	  "version": "2024-11-02",
//	  "migration_status": "dual_write"
//	}
//
// Fields are extracted tolerantly; an unusable payload degrades to
// DefaultFormatConfig.
func (s *HTTPSource) FormatConfig(ctx context.Context) (FormatConfig, error) {
	body, err := s.get(ctx, s.cfg.ConfigURL)
	if err != nil {
		return FormatConfig{}, errors.Join(ErrConfigFetch, err)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() || !root.Get("primary_format").Exists() {
		s.logger.Warn("format config schema mismatch, using compatibility fallback",
			slog.String("url", s.cfg.ConfigURL))
		return DefaultFormatConfig(), nil
	}

	cfg := FormatConfig{
		PrimaryFormat:   root.Get("primary_format").String(),
		Version:         root.Get("version").String(),
		MigrationStatus: root.Get("migration_status").String(),
	}

	// Absent toggles keep the safe defaults: compatibility on, hierarchy off.
	cfg.CompatibilityEnabled = true
	if v := root.Get("compatibility"); v.Exists() {
		cfg.CompatibilityEnabled = v.Bool()
	}
	if v := root.Get("hierarchy_enabled"); v.Exists() {
		cfg.HierarchyEnabled = v.Bool()
	}
	for _, f := range root.Get("legacy_formats").Array() {
		cfg.LegacyFormats = append(cfg.LegacyFormats, f.String())
	}

	return cfg, nil
}

// Hierarchy fetches the parent->children mapping. With no HierarchyURL
// configured it returns an empty mapping.
func (s *HTTPSource) Hierarchy(ctx context.Context) (map[string][]string, error) {
	if s.cfg.HierarchyURL == "" {
		return map[string][]string{}, nil
	}

	body, err := s.get(ctx, s.cfg.HierarchyURL)
	if err != nil {
		return nil, errors.Join(ErrHierarchyFetch, err)
	}

	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, errors.Join(ErrHierarchyFetch,
			fmt.Errorf("hierarchy payload is not an object"))
	}

	edges := make(map[string][]string)
	root.ForEach(func(parent, children gjson.Result) bool {
		list := make([]string, 0, len(children.Array()))
		for _, child := range children.Array() {
			list = append(list, child.String())
		}
		edges[parent.String()] = list
		return true
	})
	return edges, nil
}

func (s *HTTPSource) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

var _ Source = (*HTTPSource)(nil)

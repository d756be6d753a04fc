package authz

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSourceConfig holds cache settings for RedisSource.
type RedisSourceConfig struct {
	// KeyPrefix namespaces the cache keys.
	KeyPrefix string `env:"PERMKIT_REDIS_PREFIX" envDefault:"permkit"`

	// TTL bounds how stale a cached config or hierarchy may get. The
	// evaluator still sees version bumps within the TTL window on the
	// next cache expiry.
	TTL time.Duration `env:"PERMKIT_REDIS_TTL" envDefault:"5m"`
}

// DefaultRedisSourceConfig returns the default cache settings.
func DefaultRedisSourceConfig() RedisSourceConfig {
	return RedisSourceConfig{
		KeyPrefix: "permkit",
		TTL:       5 * time.Minute,
	}
}

// RedisSource is a read-through cache over another Source. Configuration
// and hierarchy payloads are cached in Redis with a TTL so a fleet of
// processes does not hammer the config endpoints on every login.
//
// Cache failures are never fatal: a read error falls through to the inner
// source, a write error is logged and dropped.
type RedisSource struct {
	inner  Source
	client redis.UniversalClient
	cfg    RedisSourceConfig
	logger *slog.Logger
}

// RedisSourceOption configures a RedisSource.
type RedisSourceOption func(*RedisSource)

// WithRedisLogger sets a custom logger for the source.
func WithRedisLogger(logger *slog.Logger) RedisSourceOption {
	return func(s *RedisSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRedisSource wraps inner with a Redis read-through cache.
func NewRedisSource(client redis.UniversalClient, inner Source, cfg RedisSourceConfig, opts ...RedisSourceOption) *RedisSource {
	s := &RedisSource{
		inner:  inner,
		client: client,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FormatConfig returns the cached configuration snapshot, fetching from
// the inner source on a miss.
func (s *RedisSource) FormatConfig(ctx context.Context) (FormatConfig, error) {
	key := s.cfg.KeyPrefix + ":format_config"

	var cached FormatConfig
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	cfg, err := s.inner.FormatConfig(ctx)
	if err != nil {
		return FormatConfig{}, err
	}
	s.writeCache(ctx, key, cfg)
	return cfg, nil
}

// Hierarchy returns the cached mapping, fetching from the inner source on
// a miss.
func (s *RedisSource) Hierarchy(ctx context.Context) (map[string][]string, error) {
	key := s.cfg.KeyPrefix + ":hierarchy"

	var cached map[string][]string
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	edges, err := s.inner.Hierarchy(ctx)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, key, edges)
	return edges, nil
}

// Invalidate drops the cached payloads, forcing the next read through to
// the inner source. Call it when a config version bump is announced.
func (s *RedisSource) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx,
		s.cfg.KeyPrefix+":format_config",
		s.cfg.KeyPrefix+":hierarchy",
	).Err()
}

func (s *RedisSource) readCache(ctx context.Context, key string, out any) bool {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed, falling through",
				slog.String("key", key),
				slog.Any("error", err))
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		s.logger.Warn("cache payload corrupt, falling through",
			slog.String("key", key),
			slog.Any("error", err))
		return false
	}
	return true
}

func (s *RedisSource) writeCache(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache encode failed",
			slog.String("key", key),
			slog.Any("error", err))
		return
	}
	if err := s.client.Set(ctx, key, raw, s.cfg.TTL).Err(); err != nil {
		s.logger.Warn("cache write failed",
			slog.String("key", key),
			slog.Any("error", err))
	}
}

var _ Source = (*RedisSource)(nil)

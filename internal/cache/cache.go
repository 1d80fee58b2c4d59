package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pbaille/portfolio/internal/catalog"
)

// DefaultTTL bounds how stale a cached catalog can get
const DefaultTTL = 5 * time.Minute

// DefaultKey is the redis key holding the catalog snapshot
const DefaultKey = "portfolio:catalog"

// Source is a read-through redis cache in front of another catalog source.
// Redis trouble never fails a load: it is logged and the wrapped source is
// used directly.
type Source struct {
	next   catalog.Source
	rdb    *redis.Client
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps next with a cache stored at key for ttl
func New(next catalog.Source, rdb *redis.Client, key string, ttl time.Duration, logger *zap.Logger) *Source {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{next: next, rdb: rdb, key: key, ttl: ttl, logger: logger}
}

// Connect parses a redis URL and returns a client
func Connect(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Load returns the cached catalog, or loads and caches it on a miss
func (s *Source) Load(ctx context.Context) (*catalog.Catalog, error) {
	if cat, ok := s.get(ctx); ok {
		return cat, nil
	}

	cat, err := s.next.Load(ctx)
	if err != nil {
		return nil, err
	}

	s.set(ctx, cat)
	return cat, nil
}

// Invalidate drops the cached catalog
func (s *Source) Invalidate(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate catalog cache: %w", err)
	}
	return nil
}

func (s *Source) get(ctx context.Context) (*catalog.Catalog, bool) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("Catalog cache miss", zap.String("key", s.key))
		return nil, false
	}
	if err != nil {
		s.logger.Warn("Catalog cache read failed", zap.String("key", s.key), zap.Error(err))
		return nil, false
	}

	var snap catalog.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("Discarding undecodable cached catalog", zap.String("key", s.key), zap.Error(err))
		return nil, false
	}
	cat, err := catalog.FromSnapshot(snap)
	if err != nil {
		s.logger.Warn("Discarding invalid cached catalog", zap.String("key", s.key), zap.Error(err))
		return nil, false
	}

	s.logger.Debug("Catalog cache hit", zap.String("key", s.key), zap.Int("projects", cat.Len()))
	return cat, true
}

func (s *Source) set(ctx context.Context, cat *catalog.Catalog) {
	data, err := json.Marshal(cat.Snapshot())
	if err != nil {
		s.logger.Warn("Failed to encode catalog for cache", zap.Error(err))
		return
	}
	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("Catalog cache write failed", zap.String("key", s.key), zap.Error(err))
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/pbaille/portfolio/internal/cache"
	"github.com/pbaille/portfolio/internal/catalog"
	"github.com/pbaille/portfolio/internal/config"
	"github.com/pbaille/portfolio/internal/fetcher"
	"github.com/pbaille/portfolio/internal/store"
)

// catalogSource is the configured catalog source plus whatever it holds open
type catalogSource struct {
	catalog.Source
	cache   *cache.Source
	closers []func() error
}

// Close releases the database and redis connections
func (s *catalogSource) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// openSource builds the catalog source described by cfg, wrapped in the
// redis cache when one is configured
func openSource(cfg *config.Config, logger *zap.Logger) (*catalogSource, error) {
	out := &catalogSource{}

	switch cfg.Catalog.Source {
	case config.SourceStatic:
		out.Source = catalog.StaticSource{}
	case config.SourceFile:
		out.Source = catalog.FileSource{Path: cfg.Catalog.Path}
	case config.SourceSQLite:
		s, err := openStore(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		out.Source = s
		out.closers = append(out.closers, s.Close)
	case config.SourceRemote:
		f, err := fetcher.New(cfg.Catalog.URL, cfg.Catalog.Timeout)
		if err != nil {
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
		out.Source = f
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}

	logger.Debug("Catalog source configured",
		zap.String("source", cfg.Catalog.Source),
		zap.String("path", cfg.Catalog.Path),
		zap.String("url", cfg.Catalog.URL),
	)

	if cfg.Cache.RedisURL != "" {
		rdb, err := cache.Connect(cfg.Cache.RedisURL)
		if err != nil {
			out.Close()
			return nil, err
		}
		out.cache = cache.New(out.Source, rdb, cfg.Cache.Key, cfg.Cache.TTL, logger)
		out.Source = out.cache
		out.closers = append(out.closers, rdb.Close)
	}

	return out, nil
}

// openStore opens the sqlite catalog, creating its directory if needed
func openStore(dbPath string) (*store.Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	return store.New(dbPath)
}

// defaultDBPath is where import writes when no sqlite path is configured
func defaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".portfolio", "portfolio.db")
}

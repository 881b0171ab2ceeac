// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Config selects and configures a cache backend.
type Config struct {
	Backend         string // memory | redis | badger | none
	CleanupInterval time.Duration
	Redis           RedisConfig
	BadgerDir       string
}

// HealthChecker is implemented by backends that depend on an external resource.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// New builds the configured backend. The returned io.Closer releases the
// backend's resources and is never nil.
func New(cfg Config, logger zerolog.Logger) (Cache, io.Closer, error) {
	switch cfg.Backend {
	case "", "memory":
		c := NewMemoryCache(cfg.CleanupInterval)
		return c, c, nil
	case "redis":
		c, err := NewRedisCache(cfg.Redis, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case "badger":
		c, err := OpenBadgerCache(cfg.BadgerDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil
	case "none":
		return NewNoOpCache(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend: %s (supported: memory, redis, badger, none)", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

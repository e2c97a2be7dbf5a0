package cache

import (
	"context"
	"time"
)

// NoopCache never stores anything. Used when Redis is not configured.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (NoopCache) Get(_ context.Context, _ string) ([]byte, bool, error)             { return nil, false, nil }
func (NoopCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (NoopCache) Close() error                                                      { return nil }

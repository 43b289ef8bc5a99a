package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheMiss = errors.New("cache: key not found")

// Service defines the cache operations used across the application.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Exists(ctx context.Context, keys ...string) (bool, error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats describes current cache usage for the health endpoint.
type Stats struct {
	Backend string `json:"backend"`
	Entries int64  `json:"entries"`
	MaxSize int    `json:"max_size,omitempty"`
}

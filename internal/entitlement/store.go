// Package entitlement records which identities have paid for premium access.
package entitlement

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyIdentity = errors.New("empty identity")

// Store is the paid-user set. Implementations are safe for concurrent use.
type Store interface {
	Grant(ctx context.Context, identity string) error
	HasAccess(ctx context.Context, identity string) (bool, error)
	Close() error
}

// Backend names accepted by New.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	RedisURL    string
	RedisKey    string
	PostgresDSN string
	Migrate     bool
}

// New builds the store named by opts.Backend.
func New(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		return NewRedisStore(opts.RedisURL, opts.RedisKey)
	case BackendPostgres:
		if opts.Migrate {
			if err := Migrate(opts.PostgresDSN); err != nil {
				return nil, err
			}
		}
		return NewPostgresStore(ctx, opts.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown entitlement backend %q", opts.Backend)
	}
}

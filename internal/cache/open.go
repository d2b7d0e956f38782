package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by Open.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	SQLitePath string
	RedisAddr  string
}

// Open builds the configured cache. A Redis backend is pinged before use.
func Open(ctx context.Context, opts Options) (Cache, error) {
	switch opts.Backend {
	case BackendNone:
		return NewNoop(), nil
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(opts.SQLitePath)
	case BackendRedis:
		r := NewRedis(opts.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := r.Ping(pingCtx); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Backend)
	}
}

package store

import (
	"context"
	"fmt"

	"billing/internal/db"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	RedisPrefix = "billing:"
)

// Open connects the store selected by driver. The returned close func
// releases its connections and is never nil.
func Open(ctx context.Context, driver, databaseURL, redisURL string) (Store, func(), error) {
	switch driver {
	case "", DriverMemory:
		return NewMemory(), func() {}, nil
	case DriverPostgres:
		pool, err := db.NewPool(ctx, databaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		return NewPostgres(pool), pool.Close, nil
	case DriverRedis:
		r, err := OpenRedis(ctx, redisURL, RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

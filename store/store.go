// Package store persists documents, signature fields and stamps behind a
// small key/value interface with memory, filesystem, Redis and SQL
// backends.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.New("store: key not found")

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("store: unknown driver")

// Store is a byte-oriented key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options selects and configures a backend.
type Options struct {
	Driver string

	// Dir is the root directory of the file backend.
	Dir string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// KeyPrefix namespaces every Redis key.
	KeyPrefix string

	// DSN is the SQL data source name. For sqlite, ":memory:" and file
	// paths are both accepted.
	DSN string

	// TTL expires Redis entries. Zero keeps them forever.
	TTL time.Duration
}

// DefaultOptions returns options for the in-memory backend.
func DefaultOptions() *Options {
	return &Options{
		Driver:    DriverMemory,
		Dir:       "./data",
		RedisAddr: "localhost:6379",
		KeyPrefix: "docstacker",
	}
}

// Open builds the backend named by opts.Driver.
func Open(ctx context.Context, opts *Options) (Store, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	switch strings.ToLower(opts.Driver) {
	case "", DriverMemory:
		return NewMemory(), nil
	case DriverFile:
		return NewFile(opts.Dir)
	case DriverRedis:
		return NewRedis(ctx, &RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.KeyPrefix,
			TTL:      opts.TTL,
		})
	case DriverSQLite, DriverPostgres:
		return OpenSQL(strings.ToLower(opts.Driver), opts.DSN)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}

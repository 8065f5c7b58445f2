package persistence

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

// Options selects and configures a Store.
type Options struct {
	Backend       string
	Path          string
	Key           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open builds the Store described by opts. Callers release it with Close.
func Open(ctx context.Context, opts Options, log *logger.Logger) (Store, error) {
	log = orNop(log)
	key := opts.Key
	if key == "" {
		key = DefaultKey
	}

	switch opts.Backend {
	case "", BackendFile:
		if opts.Path == "" {
			return nil, chamerrors.NewValidationError("storage.path", "file backend requires a path", nil)
		}
		return NewFileStore(opts.Path, log), nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendNone:
		return Disabled(), nil
	case BackendSQLite:
		if opts.Path == "" {
			return nil, chamerrors.NewValidationError("storage.path", "sqlite backend requires a path", nil)
		}
		return OpenSQLite(ctx, opts.Path, key, log)
	case BackendRedis:
		if opts.RedisAddr == "" {
			return nil, chamerrors.NewValidationError("storage.redis_addr", "redis backend requires an address", nil)
		}
		return DialRedis(ctx, RedisOptions{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Key:      key,
		}, log)
	default:
		return nil, chamerrors.NewValidationError("storage.backend", fmt.Sprintf("unknown storage backend %q", opts.Backend), nil)
	}
}

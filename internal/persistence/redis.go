package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/alexisbeaulieu97/chameleon/internal/logger"
	"github.com/alexisbeaulieu97/chameleon/internal/vibe"
	chamerrors "github.com/alexisbeaulieu97/chameleon/pkg/errors"
)

// RedisOptions configures a Redis-backed store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// RedisStore keeps the vibe under one Redis key, which lets several
// processes share the same theme.
type RedisStore struct {
	client *redis.Client
	key    string
	log    *logger.Logger
}

// DialRedis connects to Redis and verifies the connection.
func DialRedis(ctx context.Context, opts RedisOptions, log *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, chamerrors.NewStorageError("redis", "connect", fmt.Errorf("ping %s: %w", opts.Addr, err))
	}
	return NewRedisStore(client, opts.Key, log), nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client, key string, log *logger.Logger) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key, log: orNop(log)}
}

// Save sets the key without expiry.
func (s *RedisStore) Save(ctx context.Context, v vibe.Vibe) error {
	data, err := json.Marshal(v)
	if err != nil {
		return chamerrors.NewStorageError("redis", "save", fmt.Errorf("marshal vibe: %w", err))
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return chamerrors.NewStorageError("redis", "save", err)
	}
	return nil
}

// Load gets the key.
func (s *RedisStore) Load(ctx context.Context) (vibe.Vibe, bool) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.WarnErr(err, "cannot read persisted vibe from redis")
		}
		return vibe.Vibe{}, false
	}
	return decodeRecord(s.log, "redis", data)
}

// Clear deletes the key.
func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return chamerrors.NewStorageError("redis", "clear", err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

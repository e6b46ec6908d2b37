package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 3 * time.Second

var _ sessions.Storage = (*RedisStore)(nil)

// RedisStore persists entries as plain Redis strings under a key prefix,
// for deployments where several client processes share one session.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	timeout time.Duration
}

type Option func(*RedisStore)

func WithPrefix(prefix string) Option {
	return func(r *RedisStore) {
		r.prefix = prefix
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(r *RedisStore) {
		r.timeout = timeout
	}
}

func New(client redis.UniversalClient, options ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}
	r := &RedisStore{
		client:  client,
		prefix:  "notes:",
		timeout: defaultTimeout,
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// Dial connects to addr and pings it before returning.
func Dial(ctx context.Context, addr string, options ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[redisstore.Dial] %s: %w", addr, err)
	}
	return New(client, options...)
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) Get(key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisStore) Set(key, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Remove(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis remove %s: %w", key, err)
	}
	return nil
}

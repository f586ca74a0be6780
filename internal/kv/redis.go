package kv

import (
	"context"
	"errors"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

// Redis is a Store backed by a Redis instance, used when the app is
// configured with REDIS_URL so device data survives restarts.
type Redis struct {
	Client *redis.Client
	Prefix string
}

// NewRedis wraps a Redis client as a Store. Keys are namespaced with prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{Client: client, Prefix: prefix}
}

func (r *Redis) key(key string) string {
	prefix := strings.TrimSpace(r.Prefix)
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// Get returns the value stored under key, if any.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if r == nil || r.Client == nil {
		return nil, false, errors.New("kv: redis client not configured")
	}
	value, err := r.Client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value under key with no expiry.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	if r == nil || r.Client == nil {
		return errors.New("kv: redis client not configured")
	}
	return r.Client.Set(ctx, r.key(key), value, 0).Err()
}

// Delete removes the value stored under key.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if r == nil || r.Client == nil {
		return errors.New("kv: redis client not configured")
	}
	return r.Client.Del(ctx, r.key(key)).Err()
}

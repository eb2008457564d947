package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	redisDialTimeout  = 5 * time.Second
	redisOpTimeout    = 3 * time.Second
	redisKeyNamespace = "cpsim:durable:"
)

// Redis backs the durable namespace with a redis hash-less flat keyspace,
// prefixed so several simulators can share one instance.
type Redis struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedis connects to addr and validates the connection with PING.
func NewRedis(addr, password, cpID string, logger *zap.Logger) (*Redis, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("store: redis addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  redisDialTimeout,
		ReadTimeout:  redisOpTimeout,
		WriteTimeout: redisOpTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Redis{
		client: client,
		prefix: redisKeyNamespace + cpID + ":",
		logger: logger,
	}, nil
}

// Get returns value or fallback. Lookup failures fall back silently apart
// from a log line; the simulator keeps running on defaults.
func (r *Redis) Get(key, fallback string) string {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) && r.logger != nil {
			r.logger.Warn("durable store read failed", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	return v
}

// Put stores value without expiry.
func (r *Redis) Put(key, value string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil && r.logger != nil {
		r.logger.Warn("durable store write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Package redis implementa cache.Client sobre go-redis.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/cache"
	goredis "github.com/redis/go-redis/v9"
)

// Config configura la conexión a Redis.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo para todas las keys
}

type rds struct {
	c      *goredis.Client
	prefix string
}

// New crea un cache sobre Redis y verifica la conexión.
func New(ctx context.Context, cfg Config) (cache.Client, error) {
	c := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return &rds{c: c, prefix: cfg.Prefix}, nil
}

func (r *rds) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", cache.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (r *rds) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, r.prefix+key, value, ttl).Err()
}

func (r *rds) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.prefix+key).Err()
}

func (r *rds) Close() error { return r.c.Close() }

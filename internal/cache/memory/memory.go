// Package memory implementa cache.Client in-process sobre go-cache.
package memory

import (
	"context"
	"time"

	"github.com/dropDatabas3/fieldtask/internal/cache"
	gocache "github.com/patrickmn/go-cache"
)

type mem struct{ c *gocache.Cache }

// New crea un cache en memoria con TTL por defecto.
func New(defaultTTL time.Duration) cache.Client {
	return &mem{c: gocache.New(defaultTTL, time.Minute)}
}

func (m *mem) Get(_ context.Context, key string) (string, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", cache.ErrNotFound
	}
	s, _ := v.(string)
	return s, nil
}

func (m *mem) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	m.c.Set(key, value, ttl)
	return nil
}

func (m *mem) Delete(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *mem) Close() error { return nil }

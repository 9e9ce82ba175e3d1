// Package cache provee una abstracción de caching con soporte multi-backend.
//
// Soporta:
//   - Memory (in-process, default)
//   - Redis (para despliegues del dashboard con múltiples instancias)
//
// Hoy el único consumidor es el cache de atributos de perfil del idp client.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indica que la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, no expira.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete elimina una key. No es error si no existe.
	Delete(ctx context.Context, key string) error

	// Close cierra la conexión.
	Close() error
}

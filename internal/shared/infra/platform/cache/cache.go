package cache

import (
	"context"
)

// Cache es una caché clave-valor. Los adaptadores serializan a JSON.
type Cache interface {
	// Get rellena dest (un puntero) y devuelve true si hay hit.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set guarda val durante ttlSecs segundos; <= 0 usa el TTL por defecto
	// del adaptador.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}

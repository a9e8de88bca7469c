package cache

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// asyncTimeout acota cada escritura en background.
const asyncTimeout = 200 * time.Millisecond

// AsyncCacheSet guarda en background sin bloquear al llamador. Usa un
// contexto propio: la petición original puede haber terminado ya.
func AsyncCacheSet(ctx context.Context, cache Cache, key string, value interface{}, ttl int, log *zap.Logger) {
	if cache == nil {
		return
	}

	go func() {
		cacheCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), asyncTimeout)
		defer cancel()

		if err := cache.Set(cacheCtx, key, value, ttl); err != nil {
			log.Warn("Cache update failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}

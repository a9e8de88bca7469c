package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/application"
	"github.com/davicafu/hexaquery/internal/repository/domain"
	sharedCache "github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/hexaquery/internal/shared/infra/utils"
	sharedEvents "github.com/davicafu/hexaquery/shared/events"
)

const handleTimeout = 500 * time.Millisecond

// ChangeConsumer invalida la caché de un recurso cuando llega un cambio
// suyo. Sirve para que varias instancias compartan la misma caché aunque la
// escritura se haya hecho en otra.
type ChangeConsumer struct {
	cache sharedCache.Cache
	log   *zap.Logger
}

func NewChangeConsumer(cache sharedCache.Cache, logger *zap.Logger) *ChangeConsumer {
	return &ChangeConsumer{cache: cache, log: logger}
}

func (c *ChangeConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case domain.RecordsCreated, domain.RecordsUpdated, domain.RecordsDestroyed:
		if evt, ok := sharedUtils.DecodeEvent[domain.ChangeEvent](c.log, base); ok {
			c.invalidate(ctx, evt)
		}
	default:
		c.log.Warn("Unknown event type", zap.String("type", base.Type))
	}
}

func (c *ChangeConsumer) invalidate(ctx context.Context, evt domain.ChangeEvent) {
	ctxInv, cancel := context.WithTimeout(ctx, handleTimeout)
	defer cancel()

	if err := application.InvalidateResource(ctxInv, c.cache, evt.Resource); err != nil {
		c.log.Warn("Failed to invalidate cache",
			zap.String("resource", evt.Resource),
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}
	c.log.Debug("Cache invalidated via event",
		zap.String("resource", evt.Resource),
		zap.String("action", evt.Action),
	)
}

// BackgroundConsumerChan procesa en una goroutine los mensajes del bus en
// memoria hasta que ctx termine o el canal se cierre.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, handler MessageHandler, log *zap.Logger) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info("In-memory consumer stopped")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if payload, ok := msg.([]byte); ok {
					handler.HandleMessage(ctx, "", payload)
				}
			}
		}
	}()
}

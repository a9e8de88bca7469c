package relayer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	sharedEvents "github.com/davicafu/hexaquery/shared/events"
	sharedBus "github.com/davicafu/hexaquery/shared/platform/bus"
)

// Worker vacía el outbox: publica los eventos pendientes y los marca como
// procesados. Un evento que no se publica se reintenta en el siguiente ciclo.
type Worker struct {
	repo      domain.OutboxRepository
	publisher sharedBus.EventPublisher
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewOutboxWorker(
	repo domain.OutboxRepository,
	publisher sharedBus.EventPublisher,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Start bloquea haciendo polling hasta que ctx termine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Outbox worker started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote y devuelve cuántos eventos quedaron marcados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("Failed to fetch pending outbox events", zap.Error(err))
		return 0
	}
	if len(events) > 0 {
		w.log.Debug("Outbox events found", zap.Int("count", len(events)))
	}

	published := 0
	for _, evt := range events {
		if w.publishAndMark(ctx, evt) {
			published++
		}
	}
	return published
}

func (w *Worker) publishAndMark(ctx context.Context, evt domain.OutboxEvent) bool {
	integration := sharedEvents.IntegrationEvent{
		Type:      evt.EventType,
		Key:       evt.Resource,
		Timestamp: evt.CreatedAt,
		Data:      evt.Payload,
	}

	if err := w.publisher.Publish(ctx, integration); err != nil {
		w.log.Warn("Failed to publish outbox event",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("Failed to mark outbox event as processed",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}
	w.log.Debug("Outbox event published", zap.String("event_id", evt.ID.String()))
	return true
}

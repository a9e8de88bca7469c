package application

import (
	"context"

	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	sharedEvents "github.com/davicafu/hexaquery/shared/events"
	sharedBus "github.com/davicafu/hexaquery/shared/platform/bus"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// ChangeFeedRepository publica un domain.ChangeEvent tras cada escritura con
// éxito. Un fallo al publicar se registra y no invalida la escritura.
// Dentro de InTransaction el evento sale tras el commit y se descarta si la
// transacción se revierte.
type ChangeFeedRepository[C any] struct {
	raw       domain.Repository[C]
	publisher sharedBus.EventPublisher
	resource  string
	log       *zap.Logger
}

var _ domain.Repository[any] = (*ChangeFeedRepository[any])(nil)

func WithChangeFeed[C any](raw domain.Repository[C], publisher sharedBus.EventPublisher, resource string, log *zap.Logger) *ChangeFeedRepository[C] {
	return &ChangeFeedRepository[C]{raw: raw, publisher: publisher, resource: resource, log: log}
}

func (r *ChangeFeedRepository[C]) Where(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	return r.raw.Where(ctx, conn, q)
}

func (r *ChangeFeedRepository[C]) Count(ctx context.Context, conn C, q query.Query) (int, error) {
	return r.raw.Count(ctx, conn, q)
}

func (r *ChangeFeedRepository[C]) Create(ctx context.Context, conn C, record query.Record) (query.Record, error) {
	created, err := r.raw.Create(ctx, conn, record)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, domain.RecordsCreated, []query.Record{created})
	return created, nil
}

func (r *ChangeFeedRepository[C]) Update(ctx context.Context, conn C, q query.Query, values query.Record) ([]query.Record, error) {
	records, err := r.raw.Update(ctx, conn, q, values)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, domain.RecordsUpdated, records)
	return records, nil
}

func (r *ChangeFeedRepository[C]) Destroy(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	records, err := r.raw.Destroy(ctx, conn, q)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, domain.RecordsDestroyed, records)
	return records, nil
}

func (r *ChangeFeedRepository[C]) publish(ctx context.Context, action string, records []query.Record) {
	if len(records) == 0 {
		return
	}
	change := domain.NewChangeEvent(r.resource, action, records)
	evt, err := sharedEvents.NewIntegrationEvent(action, r.resource, change)
	if err != nil {
		r.log.Error("Failed to encode change event", zap.String("resource", r.resource), zap.Error(err))
		return
	}
	AfterCommit(ctx, func(ctx context.Context) {
		if err := r.publisher.Publish(ctx, evt); err != nil {
			r.log.Error("Failed to publish change event",
				zap.String("resource", r.resource),
				zap.String("action", action),
				zap.Error(err))
		}
	})
}

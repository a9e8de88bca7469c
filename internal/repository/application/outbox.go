package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// ---------------- Escritura en el outbox ----------------

// OutboxedRepository guarda un evento en el outbox por cada escritura, con
// la misma conexión. Dentro de una transacción el evento se confirma o se
// revierte junto con los datos; un fallo al guardarlo falla la escritura.
type OutboxedRepository[C any] struct {
	raw      domain.Repository[C]
	outbox   domain.Repository[C]
	resource string
}

var _ domain.Repository[any] = (*OutboxedRepository[any])(nil)

func WithOutbox[C any](raw, outbox domain.Repository[C], resource string) *OutboxedRepository[C] {
	return &OutboxedRepository[C]{raw: raw, outbox: outbox, resource: resource}
}

func (r *OutboxedRepository[C]) Where(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	return r.raw.Where(ctx, conn, q)
}

func (r *OutboxedRepository[C]) Count(ctx context.Context, conn C, q query.Query) (int, error) {
	return r.raw.Count(ctx, conn, q)
}

func (r *OutboxedRepository[C]) Create(ctx context.Context, conn C, record query.Record) (query.Record, error) {
	created, err := r.raw.Create(ctx, conn, record)
	if err != nil {
		return nil, err
	}
	if err := r.record(ctx, conn, domain.RecordsCreated, []query.Record{created}); err != nil {
		return nil, err
	}
	return created, nil
}

func (r *OutboxedRepository[C]) Update(ctx context.Context, conn C, q query.Query, values query.Record) ([]query.Record, error) {
	records, err := r.raw.Update(ctx, conn, q, values)
	if err != nil {
		return nil, err
	}
	if err := r.record(ctx, conn, domain.RecordsUpdated, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *OutboxedRepository[C]) Destroy(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	records, err := r.raw.Destroy(ctx, conn, q)
	if err != nil {
		return nil, err
	}
	if err := r.record(ctx, conn, domain.RecordsDestroyed, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *OutboxedRepository[C]) record(ctx context.Context, conn C, action string, records []query.Record) error {
	if len(records) == 0 {
		return nil
	}
	evt, err := domain.NewOutboxEvent(domain.NewChangeEvent(r.resource, action, records))
	if err != nil {
		return err
	}
	if _, err := r.outbox.Create(ctx, conn, evt.ToRecord()); err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ---------------- Lectura del outbox ----------------

// OutboxStore implementa domain.OutboxRepository sobre cualquier backend,
// con consultas del propio modelo. Cada llamada usa su propia conexión.
type OutboxStore[C any] struct {
	backend domain.Backend[C]
	repo    domain.Repository[C]
}

var _ domain.OutboxRepository = (*OutboxStore[any])(nil)

func NewOutboxStore[C any](backend domain.Backend[C], repo domain.Repository[C]) *OutboxStore[C] {
	return &OutboxStore[C]{backend: backend, repo: repo}
}

// FetchPendingOutbox devuelve los eventos sin procesar, los más antiguos primero.
func (s *OutboxStore[C]) FetchPendingOutbox(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	pending := query.New(
		query.Where(map[string]query.Predicate{"processed": query.Eq(false)}),
		query.Order(query.Asc("created_at")),
		query.Limit(limit),
	)

	var events []domain.OutboxEvent
	err := WithinConnection(ctx, s.backend, func(ctx context.Context, conn C) error {
		records, err := s.repo.Where(ctx, conn, pending)
		if err != nil {
			return err
		}
		events = make([]domain.OutboxEvent, 0, len(records))
		for _, r := range records {
			evt, err := domain.OutboxEventFromRecord(r)
			if err != nil {
				return err
			}
			events = append(events, evt)
		}
		return nil
	})
	return events, err
}

func (s *OutboxStore[C]) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	return WithinConnection(ctx, s.backend, func(ctx context.Context, conn C) error {
		byID := query.New(query.Where(map[string]query.Predicate{"id": query.Eq(id.String())}))
		updated, err := s.repo.Update(ctx, conn, byID, query.Record{"processed": true})
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if len(updated) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrOutboxEventNotFound, id)
		}
		return nil
	})
}

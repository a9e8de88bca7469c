package memory

import (
	"context"
	"slices"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
	"github.com/davicafu/hexaquery/shared/platform/selector"
)

// Repository ejecuta las consultas con el selector sobre una colección.
// Los registros se copian al entrar y al salir para no compartir mapas con
// el llamador.
type Repository struct {
	resource string
}

var _ domain.Repository[*Connection] = (*Repository)(nil)

func NewRepository(resource string) (*Repository, error) {
	if resource == "" {
		return nil, domain.ErrResourceRequired
	}
	return &Repository{resource: resource}, nil
}

func (r *Repository) Where(ctx context.Context, conn *Connection, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	return query.CloneAll(selector.Select(q, conn.records(r.resource))), nil
}

// Count respeta la paginación de q, igual que Where.
func (r *Repository) Count(ctx context.Context, conn *Connection, q query.Query) (int, error) {
	if err := conn.check(); err != nil {
		return 0, err
	}
	return len(selector.Indices(q, conn.records(r.resource))), nil
}

func (r *Repository) Create(ctx context.Context, conn *Connection, record query.Record) (query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	stored := record.Clone()
	if stored == nil {
		stored = query.Record{}
	}
	current := conn.records(r.resource)
	next := make([]query.Record, len(current), len(current)+1)
	copy(next, current)
	conn.persist(r.resource, append(next, stored))
	return stored.Clone(), nil
}

// Update aplica values sobre los registros que casan con el where.
func (r *Repository) Update(ctx context.Context, conn *Connection, q query.Query, values query.Record) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	current := conn.records(r.resource)
	idx := selector.Indices(q.WhereOnly(), current)
	if len(idx) == 0 {
		return []query.Record{}, nil
	}

	next := slices.Clone(current)
	updated := make([]query.Record, 0, len(idx))
	for _, i := range idx {
		next[i] = current[i].Merge(values)
		updated = append(updated, next[i].Clone())
	}
	conn.persist(r.resource, next)
	return updated, nil
}

// Destroy elimina los registros que casan con el where y los devuelve.
func (r *Repository) Destroy(ctx context.Context, conn *Connection, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	current := conn.records(r.resource)
	idx := selector.Indices(q.WhereOnly(), current)
	if len(idx) == 0 {
		return []query.Record{}, nil
	}

	removed := make(map[int]struct{}, len(idx))
	destroyed := make([]query.Record, 0, len(idx))
	for _, i := range idx {
		removed[i] = struct{}{}
		destroyed = append(destroyed, current[i].Clone())
	}

	next := make([]query.Record, 0, len(current)-len(idx))
	for i, rec := range current {
		if _, ok := removed[i]; !ok {
			next = append(next, rec)
		}
	}
	conn.persist(r.resource, next)
	return destroyed, nil
}

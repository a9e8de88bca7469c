package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

const (
	preferCount          = "count=exact"
	preferRepresentation = "return=representation"
)

// Repository traduce las operaciones sobre un recurso a peticiones HTTP.
type Repository struct {
	client   *Client
	resource string
}

var _ domain.Repository[*Conn] = (*Repository)(nil)

func NewRepository(client *Client, resource string) (*Repository, error) {
	if resource == "" {
		return nil, domain.ErrResourceRequired
	}
	return &Repository{client: client, resource: resource}, nil
}

func (r *Repository) Where(ctx context.Context, conn *Conn, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if _, ok := q.Limit(); !ok && r.client.pageSize > 0 {
		q = query.New(q, query.Limit(r.client.pageSize))
	}
	resp, err := r.client.do(ctx, request{
		method:   http.MethodGet,
		resource: r.resource,
		query:    q,
		prefer:   preferCount,
		token:    conn.bearer(),
	})
	if err != nil {
		return nil, err
	}
	return r.client.records(resp.body)
}

// Count usa HEAD y lee el Content-Range. Respeta la paginación de q igual que
// los demás backends.
func (r *Repository) Count(ctx context.Context, conn *Conn, q query.Query) (int, error) {
	if err := conn.check(); err != nil {
		return 0, err
	}
	resp, err := r.client.do(ctx, request{
		method:   http.MethodHead,
		resource: r.resource,
		query:    q,
		prefer:   preferCount,
		token:    conn.bearer(),
	})
	if err != nil {
		return 0, err
	}
	cr, err := ParseContentRange(resp.header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", r.resource, err)
	}
	return cr.Count(q), nil
}

func (r *Repository) Create(ctx context.Context, conn *Conn, record query.Record) (query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if record == nil {
		record = query.Record{}
	}
	records, err := r.write(ctx, conn, http.MethodPost, query.Query{}, record)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("create %s: empty response", r.resource)
	}
	return records[0], nil
}

func (r *Repository) Update(ctx context.Context, conn *Conn, q query.Query, values query.Record) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	if values == nil {
		values = query.Record{}
	}
	return r.write(ctx, conn, http.MethodPatch, q.WhereOnly(), values)
}

func (r *Repository) Destroy(ctx context.Context, conn *Conn, q query.Query) ([]query.Record, error) {
	if err := conn.check(); err != nil {
		return nil, err
	}
	return r.write(ctx, conn, http.MethodDelete, q.WhereOnly(), nil)
}

func (r *Repository) write(ctx context.Context, conn *Conn, method string, q query.Query, body query.Record) ([]query.Record, error) {
	resp, err := r.client.do(ctx, request{
		method:   method,
		resource: r.resource,
		query:    q,
		body:     body,
		prefer:   preferRepresentation,
		token:    conn.bearer(),
	})
	if err != nil {
		return nil, err
	}
	return r.client.records(resp.body)
}

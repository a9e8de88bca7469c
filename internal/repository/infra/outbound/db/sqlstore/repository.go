package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Repository ejecuta sobre una tabla las sentencias que genera el Compiler.
// El esquema debe existir: el repositorio no crea ni migra tablas.
type Repository struct {
	resource string
	compiler Compiler
}

var _ domain.Repository[Conn] = (*Repository)(nil)

func NewRepository(resource string, d Dialect) (*Repository, error) {
	if resource == "" {
		return nil, domain.ErrResourceRequired
	}
	return &Repository{resource: resource, compiler: NewCompiler(d)}, nil
}

func (r *Repository) Where(ctx context.Context, conn Conn, q query.Query) ([]query.Record, error) {
	return r.records(ctx, conn, r.compiler.Select(r.resource, q))
}

func (r *Repository) Count(ctx context.Context, conn Conn, q query.Query) (int, error) {
	stmt := r.compiler.Count(r.resource, q)
	rows, err := conn.QueryContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return 0, translate(err)
	}
	defer rows.Close()

	var total int
	if rows.Next() {
		if err := rows.Scan(&total); err != nil {
			return 0, translate(err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, translate(err)
	}
	return total, nil
}

func (r *Repository) Create(ctx context.Context, conn Conn, record query.Record) (query.Record, error) {
	created, err := r.records(ctx, conn, r.compiler.Insert(r.resource, record))
	if err != nil {
		return nil, err
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("insert into %s returned no rows", r.resource)
	}
	return created[0], nil
}

func (r *Repository) Update(ctx context.Context, conn Conn, q query.Query, values query.Record) ([]query.Record, error) {
	return r.records(ctx, conn, r.compiler.Update(r.resource, q, values))
}

func (r *Repository) Destroy(ctx context.Context, conn Conn, q query.Query) ([]query.Record, error) {
	return r.records(ctx, conn, r.compiler.Delete(r.resource, q))
}

// ---------------- Lectura de filas ----------------

func (r *Repository) records(ctx context.Context, conn Conn, stmt Statement) ([]query.Record, error) {
	rows, err := conn.QueryContext(ctx, stmt.Text, stmt.Args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// scanRecords lee cada fila como Record. Los []byte se devuelven como
// string: los drivers entregan así el texto.
func scanRecords(rows *sql.Rows) ([]query.Record, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, translate(err)
	}

	out := []query.Record{}
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, translate(err)
		}

		rec := make(query.Record, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return out, nil
}

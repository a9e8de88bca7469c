package domain

import (
	"context"
	"errors"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// ---------------- Errores de dominio ----------------

var (
	ErrResourceRequired   = errors.New("resource is required")
	ErrUnknownResource    = errors.New("unknown resource")
	ErrConnectionReleased = errors.New("connection already released")
	ErrNestedTransaction  = errors.New("nested transactions are not supported")
)

// ---------------- Repositorio ----------------

// Repository es el conjunto de capacidades que ofrece cada backend sobre un
// recurso. C es el tipo de conexión del backend.
// Update y Destroy afectan a los registros que casan con el where; el orden
// y la paginación de la consulta no se aplican a escrituras.
type Repository[C any] interface {
	Where(ctx context.Context, conn C, q query.Query) ([]query.Record, error)
	Count(ctx context.Context, conn C, q query.Query) (int, error)
	Create(ctx context.Context, conn C, record query.Record) (query.Record, error)
	Update(ctx context.Context, conn C, q query.Query, values query.Record) ([]query.Record, error)
	Destroy(ctx context.Context, conn C, q query.Query) ([]query.Record, error)
}

// PaginatedRepository es un Repository cuyas operaciones multi-registro
// devuelven metadatos de paginación.
type PaginatedRepository[C any] interface {
	Where(ctx context.Context, conn C, q query.Query) (RecordList, error)
	Count(ctx context.Context, conn C, q query.Query) (int, error)
	Create(ctx context.Context, conn C, record query.Record) (query.Record, error)
	Update(ctx context.Context, conn C, q query.Query, values query.Record) (RecordList, error)
	Destroy(ctx context.Context, conn C, q query.Query) (RecordList, error)
}

// ---------------- Conexiones ----------------

// Backend adquiere, libera y abre transacciones sobre conexiones.
type Backend[C any] interface {
	Acquire(ctx context.Context) (C, error)
	Release(conn C) error
	Begin(ctx context.Context, conn C) (Transaction[C], error)
}

// Transaction es una transacción abierta sobre una conexión.
// Commit y Rollback son idempotentes: la primera llamada decide.
type Transaction[C any] interface {
	Conn() C
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Authenticator lo implementan los backends que necesitan credenciales.
type Authenticator[C any] interface {
	SetAuthentication(conn C, token string)
	UnsetAuthentication(conn C)
}

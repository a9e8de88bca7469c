package application

import (
	"context"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/shared/platform/query"
)

// RecordListRepository decora un repositorio crudo para que where, update y
// destroy devuelvan domain.RecordList. No filtra ni ordena por su cuenta.
type RecordListRepository[C any] struct {
	raw domain.Repository[C]
}

var _ domain.PaginatedRepository[any] = (*RecordListRepository[any])(nil)

func Decorate[C any](raw domain.Repository[C]) *RecordListRepository[C] {
	return &RecordListRepository[C]{raw: raw}
}

// Raw devuelve el repositorio decorado.
func (r *RecordListRepository[C]) Raw() domain.Repository[C] { return r.raw }

// Where ejecuta la consulta y después cuenta sin paginación para obtener el
// total. Ambas llamadas usan la misma conexión, de forma secuencial.
func (r *RecordListRepository[C]) Where(ctx context.Context, conn C, q query.Query) (domain.RecordList, error) {
	records, err := r.raw.Where(ctx, conn, q)
	if err != nil {
		return domain.RecordList{}, err
	}
	total, err := r.raw.Count(ctx, conn, q.WithoutPagination())
	if err != nil {
		return domain.RecordList{}, err
	}
	return domain.NewRecordList(records, total, q), nil
}

func (r *RecordListRepository[C]) Count(ctx context.Context, conn C, q query.Query) (int, error) {
	return r.raw.Count(ctx, conn, q)
}

func (r *RecordListRepository[C]) Create(ctx context.Context, conn C, record query.Record) (query.Record, error) {
	return r.raw.Create(ctx, conn, record)
}

// Update devuelve los registros afectados; el total es el número de afectados.
func (r *RecordListRepository[C]) Update(ctx context.Context, conn C, q query.Query, values query.Record) (domain.RecordList, error) {
	records, err := r.raw.Update(ctx, conn, q, values)
	if err != nil {
		return domain.RecordList{}, err
	}
	return domain.NewRecordList(records, len(records), q), nil
}

// Destroy devuelve los registros eliminados; el total es el número de eliminados.
func (r *RecordListRepository[C]) Destroy(ctx context.Context, conn C, q query.Query) (domain.RecordList, error) {
	records, err := r.raw.Destroy(ctx, conn, q)
	if err != nil {
		return domain.RecordList{}, err
	}
	return domain.NewRecordList(records, len(records), q), nil
}

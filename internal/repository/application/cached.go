package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/davicafu/hexaquery/internal/repository/domain"
	"github.com/davicafu/hexaquery/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexaquery/shared/platform/query"
	"github.com/davicafu/hexaquery/shared/platform/querystring"
)

const cachePrefix = "hexaquery:"

// CachedRepository memoriza where y count por recurso. Cada escritura cambia
// la generación del recurso, de modo que las entradas anteriores dejan de
// alcanzarse sin borrarlas una a una.
// Los valores pasan por JSON y se leen con query.UnmarshalRecords, así que un
// acierto devuelve los mismos tipos numéricos que el backend (int64/float64).
// Las escrituras rotan la generación tras el commit (AfterCommit). Las
// lecturas dentro de una transacción no deben pasar por aquí: cachearían
// datos sin confirmar.
type CachedRepository[C any] struct {
	raw      domain.Repository[C]
	cache    cache.Cache
	resource string
	ttlSecs  int
	log      *zap.Logger
}

var _ domain.Repository[any] = (*CachedRepository[any])(nil)

func Cached[C any](raw domain.Repository[C], c cache.Cache, resource string, ttl time.Duration, log *zap.Logger) *CachedRepository[C] {
	return &CachedRepository[C]{
		raw:      raw,
		cache:    c,
		resource: resource,
		ttlSecs:  int(ttl.Seconds()),
		log:      log,
	}
}

// ---------------- Lecturas ----------------

func (r *CachedRepository[C]) Where(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	key, ok := r.key(ctx, "where", q)
	if ok {
		var data json.RawMessage
		if hit, err := r.cache.Get(ctx, key, &data); err != nil {
			r.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			records, err := decodeRecords(data)
			if err == nil {
				return records, nil
			}
			r.log.Warn("Cache entry corrupted", zap.String("key", key), zap.Error(err))
		}
	}

	records, err := r.raw.Where(ctx, conn, q)
	if err != nil {
		return nil, err
	}
	if ok {
		cache.AsyncCacheSet(ctx, r.cache, key, records, r.ttlSecs, r.log)
	}
	return records, nil
}

func (r *CachedRepository[C]) Count(ctx context.Context, conn C, q query.Query) (int, error) {
	key, ok := r.key(ctx, "count", q)
	if ok {
		var total int
		if hit, err := r.cache.Get(ctx, key, &total); err != nil {
			r.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return total, nil
		}
	}

	total, err := r.raw.Count(ctx, conn, q)
	if err != nil {
		return 0, err
	}
	if ok {
		cache.AsyncCacheSet(ctx, r.cache, key, total, r.ttlSecs, r.log)
	}
	return total, nil
}

// ---------------- Escrituras ----------------

func (r *CachedRepository[C]) Create(ctx context.Context, conn C, record query.Record) (query.Record, error) {
	created, err := r.raw.Create(ctx, conn, record)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return created, nil
}

func (r *CachedRepository[C]) Update(ctx context.Context, conn C, q query.Query, values query.Record) ([]query.Record, error) {
	records, err := r.raw.Update(ctx, conn, q, values)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return records, nil
}

func (r *CachedRepository[C]) Destroy(ctx context.Context, conn C, q query.Query) ([]query.Record, error) {
	records, err := r.raw.Destroy(ctx, conn, q)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return records, nil
}

// ---------------- Generaciones ----------------

// invalidate rota la generación cuando la escritura ya es visible. Rotarla
// antes del commit dejaría que una lectura concurrente guardase datos viejos
// bajo la generación nueva.
func (r *CachedRepository[C]) invalidate(ctx context.Context) {
	AfterCommit(ctx, func(ctx context.Context) {
		if err := InvalidateResource(ctx, r.cache, r.resource); err != nil {
			r.log.Warn("Cache invalidation failed", zap.String("resource", r.resource), zap.Error(err))
		}
	})
}

// key devuelve la clave de la consulta bajo la generación vigente; ok es
// false si la caché no responde y hay que ir directo al backend.
func (r *CachedRepository[C]) key(ctx context.Context, op string, q query.Query) (string, bool) {
	var gen string
	hit, err := r.cache.Get(ctx, generationKey(r.resource), &gen)
	if err != nil {
		r.log.Warn("Cache generation read failed", zap.String("resource", r.resource), zap.Error(err))
		return "", false
	}
	if !hit {
		gen = uuid.NewString()
		if err := r.cache.Set(ctx, generationKey(r.resource), gen, 0); err != nil {
			r.log.Warn("Cache generation write failed", zap.String("resource", r.resource), zap.Error(err))
			return "", false
		}
	}
	return cachePrefix + r.resource + ":" + gen + ":" + op + "?" +
		querystring.Encode(q, querystring.WithNames(querystring.IdentityNames)) +
		"#" + operandTypes(q), true
}

// operandTypes firma el tipo Go de cada operando. Encode escribe igual
// Gt(true) y Gt("true"), o un time.Time y su texto RFC3339, y el selector
// no los compara igual.
func operandTypes(q query.Query) string {
	where := q.Where()
	fields := make([]string, 0, len(where))
	for field := range where {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ":" + query.Visit[string](where[field], typeSigner{})
	}
	return strings.Join(parts, ",")
}

type typeSigner struct{}

func (typeSigner) VisitEq(op query.EqOp) string   { return fmt.Sprintf("%T", op.Value) }
func (typeSigner) VisitGt(op query.GtOp) string   { return fmt.Sprintf("%T", op.Value) }
func (typeSigner) VisitGte(op query.GteOp) string { return fmt.Sprintf("%T", op.Value) }
func (typeSigner) VisitLt(op query.LtOp) string   { return fmt.Sprintf("%T", op.Value) }
func (typeSigner) VisitLte(op query.LteOp) string { return fmt.Sprintf("%T", op.Value) }
func (typeSigner) VisitLike(query.LikeOp) string  { return "like" }

func (typeSigner) VisitOneOf(op query.OneOfOp) string {
	types := make([]string, len(op.Values))
	for i, v := range op.Values {
		types[i] = fmt.Sprintf("%T", v)
	}
	return "(" + strings.Join(types, ";") + ")"
}

func (s typeSigner) VisitNot(op query.NotOp) string {
	return "not." + query.Visit[string](op.Inner, s)
}

// InvalidateResource rota la generación de un recurso.
func InvalidateResource(ctx context.Context, c cache.Cache, resource string) error {
	return c.Set(ctx, generationKey(resource), uuid.NewString(), 0)
}

func generationKey(resource string) string {
	return cachePrefix + resource + ":gen"
}

// decodeRecords conserva el nil de una lista vacía cacheada como null.
func decodeRecords(data json.RawMessage) ([]query.Record, error) {
	if string(data) == "null" {
		return nil, nil
	}
	return query.UnmarshalRecords(data)
}

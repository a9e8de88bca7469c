// Package querystring traduce un query.Query a parámetros de URL al estilo
// PostgREST y viceversa. Encode y Decode son inversos: Decode(Encode(q))
// selecciona los mismos registros que q.
//
// Limitaciones conocidas: los booleanos solo se representan en eq (is.true,
// is.false); un '*' literal dentro de un patrón like se lee como comodín;
// los campos llamados order, limit, offset o select chocan con los
// parámetros reservados.
package querystring

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

const (
	paramOrder  = "order"
	paramLimit  = "limit"
	paramOffset = "offset"
	paramSelect = "select"
)

func reserved(param string) bool {
	switch param {
	case paramOrder, paramLimit, paramOffset, paramSelect:
		return true
	}
	return false
}

// ---------------- Opciones ----------------

type options struct {
	names NameMapper
}

// Option configura Encode/Decode.
type Option func(*options)

// WithNames fija la conversión de nombres de campo (por defecto SnakeNames).
func WithNames(n NameMapper) Option {
	return func(o *options) {
		if n != nil {
			o.names = n
		}
	}
}

func newOptions(opts []Option) options {
	o := options{names: SnakeNames}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ---------------- Encode ----------------

// Encode serializa q. La salida es determinista (parámetros ordenados) y sirve
// como clave canónica de la consulta.
func Encode(q query.Query, opts ...Option) string {
	return EncodeValues(q, opts...).Encode()
}

// EncodeValues es Encode sin el paso final a texto.
func EncodeValues(q query.Query, opts ...Option) url.Values {
	o := newOptions(opts)
	values := url.Values{}

	for field, p := range q.Where() {
		values.Set(o.names.ToWire(field), EncodePredicate(p))
	}

	if order := q.Order(); len(order) > 0 {
		parts := make([]string, len(order))
		for i, ord := range order {
			parts[i] = encodeOrdering(ord, o.names)
		}
		values.Set(paramOrder, strings.Join(parts, ","))
	}

	if limit, ok := q.Limit(); ok {
		values.Set(paramLimit, strconv.Itoa(limit))
	}
	if offset, ok := q.Offset(); ok {
		values.Set(paramOffset, strconv.Itoa(offset))
	}
	return values
}

// EncodePredicate devuelve el valor de un parámetro de filtro, p.ej. "gt.5".
func EncodePredicate(p query.Predicate) string {
	return query.Visit[string](p, encoder{})
}

type encoder struct{}

var _ query.PredicateVisitor[string] = encoder{}

func (encoder) VisitEq(op query.EqOp) string {
	switch v := op.Value.(type) {
	case nil:
		return "is.null"
	case bool:
		return "is." + strconv.FormatBool(v)
	}
	return "eq." + formatScalar(op.Value)
}

func (encoder) VisitGt(op query.GtOp) string   { return "gt." + formatScalar(op.Value) }
func (encoder) VisitGte(op query.GteOp) string { return "gte." + formatScalar(op.Value) }
func (encoder) VisitLt(op query.LtOp) string   { return "lt." + formatScalar(op.Value) }
func (encoder) VisitLte(op query.LteOp) string { return "lte." + formatScalar(op.Value) }

func (encoder) VisitOneOf(op query.OneOfOp) string {
	items := make([]string, len(op.Values))
	for i, v := range op.Values {
		items[i] = formatListItem(v)
	}
	return "in.(" + strings.Join(items, ",") + ")"
}

func (encoder) VisitLike(op query.LikeOp) string {
	name := "like"
	if !op.CaseSensitive {
		name = "ilike"
	}
	return name + "." + strings.ReplaceAll(op.Pattern, "%", "*")
}

func (e encoder) VisitNot(op query.NotOp) string {
	return "not." + query.Visit[string](op.Inner, e)
}

func encodeOrdering(o query.Ordering, names NameMapper) string {
	s := names.ToWire(o.Field) + "." + string(o.Direction)
	switch o.Nulls {
	case query.NullsFirst:
		s += ".nullsfirst"
	case query.NullsLast:
		s += ".nullslast"
	}
	return s
}

// ---------------- Decode ----------------

// Decode interpreta una query string (con o sin '?' inicial). Es permisiva:
// parámetros ausentes quedan sin fijar y los operadores, direcciones o
// números que no reconoce se ignoran.
func Decode(raw string, opts ...Option) query.Query {
	// ParseQuery devuelve lo que pudo leer junto al primer error.
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return DecodeValues(values, opts...)
}

// DecodeValues es Decode sobre parámetros ya separados.
func DecodeValues(values url.Values, opts ...Option) query.Query {
	o := newOptions(opts)
	where := make(map[string]query.Predicate)
	fragments := make([]query.Fragment, 0, 4)

	for param, list := range values {
		if reserved(param) || len(list) == 0 {
			continue
		}
		if p, ok := DecodePredicate(list[len(list)-1]); ok {
			where[o.names.FromWire(param)] = p
		}
	}
	fragments = append(fragments, query.Where(where))

	for _, raw := range values[paramOrder] {
		fragments = append(fragments, query.Order(decodeOrder(raw, o.names)...))
	}
	if n, ok := decodeCount(values.Get(paramLimit)); ok {
		fragments = append(fragments, query.Limit(n))
	}
	if n, ok := decodeCount(values.Get(paramOffset)); ok {
		fragments = append(fragments, query.Offset(n))
	}
	return query.New(fragments...)
}

// DecodePredicate interpreta "op.valor". ok es false si el operador no se reconoce.
func DecodePredicate(raw string) (query.Predicate, bool) {
	op, rest, found := strings.Cut(raw, ".")
	if !found {
		return nil, false
	}

	switch op {
	case "not":
		inner, ok := DecodePredicate(rest)
		if !ok {
			return nil, false
		}
		return query.Not(inner), true
	case "eq":
		return query.Eq(ParseValue(rest)), true
	case "gt":
		return query.Gt(ParseValue(rest)), true
	case "gte":
		return query.Gte(ParseValue(rest)), true
	case "lt":
		return query.Lt(ParseValue(rest)), true
	case "lte":
		return query.Lte(ParseValue(rest)), true
	case "is":
		switch rest {
		case "null":
			return query.Eq(nil), true
		case "true":
			return query.Eq(true), true
		case "false":
			return query.Eq(false), true
		}
		return nil, false
	case "in":
		if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
			return nil, false
		}
		items := splitList(rest[1 : len(rest)-1])
		list := make([]any, len(items))
		for i, item := range items {
			list[i] = ParseValue(item)
		}
		return query.OneOf(list...), true
	case "like":
		return query.Like(strings.ReplaceAll(rest, "*", "%")), true
	case "ilike":
		return query.ILike(strings.ReplaceAll(rest, "*", "%")), true
	}
	return nil, false
}

// decodeOrder lee "campo.dir[.nullsfirst|.nullslast]" separados por comas.
// Sin dirección se asume asc; una dirección o modificador desconocido
// descarta la entrada.
func decodeOrder(raw string, names NameMapper) []query.Ordering {
	var out []query.Ordering
	for _, entry := range strings.Split(raw, ",") {
		if entry == "" {
			continue
		}
		if ord, ok := decodeOrdering(entry, names); ok {
			out = append(out, ord)
		}
	}
	return out
}

func decodeOrdering(entry string, names NameMapper) (query.Ordering, bool) {
	parts := strings.Split(entry, ".")
	if len(parts) == 1 {
		return query.Asc(names.FromWire(parts[0])), true
	}

	var opts []query.OrderingOption
	switch parts[len(parts)-1] {
	case "nullsfirst":
		opts = append(opts, query.WithNulls(query.NullsFirst))
		parts = parts[:len(parts)-1]
	case "nullslast":
		opts = append(opts, query.WithNulls(query.NullsLast))
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 1 {
		return query.Asc(names.FromWire(parts[0]), opts...), true
	}

	field := names.FromWire(strings.Join(parts[:len(parts)-1], "."))
	switch parts[len(parts)-1] {
	case string(query.TagAsc):
		return query.Asc(field, opts...), true
	case string(query.TagDesc):
		return query.Desc(field, opts...), true
	}
	return query.Ordering{}, false
}

func decodeCount(raw string) (int, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

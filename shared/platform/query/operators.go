package query

// ---------------- Tags ----------------

// Tag identifica la variante de un descriptor de operador.
type Tag string

const (
	TagEq    Tag = "eq"
	TagGt    Tag = "gt"
	TagGte   Tag = "gte"
	TagLt    Tag = "lt"
	TagLte   Tag = "lte"
	TagOneOf Tag = "oneOf"
	TagLike  Tag = "like"
	TagNot   Tag = "not"

	TagAsc  Tag = "asc"
	TagDesc Tag = "desc"
)

// ---------------- Predicados ----------------

// Predicate es un descriptor de filtrado aplicado al valor de un campo.
// El conjunto de variantes es cerrado: solo los tipos de este paquete lo implementan.
type Predicate interface {
	Tag() Tag
	isPredicate()
}

type EqOp struct{ Value any }
type GtOp struct{ Value any }
type GteOp struct{ Value any }
type LtOp struct{ Value any }
type LteOp struct{ Value any }

// OneOfOp casa si el valor es igual a alguno de Values. Una lista vacía no casa nada.
type OneOfOp struct{ Values []any }

// LikeOp casa cadenas contra un patrón donde '%' equivale a cero o más caracteres.
type LikeOp struct {
	Pattern       string
	CaseSensitive bool
}

// NotOp niega el predicado interno. No se simplifica la doble negación.
type NotOp struct{ Inner Predicate }

func (EqOp) Tag() Tag    { return TagEq }
func (GtOp) Tag() Tag    { return TagGt }
func (GteOp) Tag() Tag   { return TagGte }
func (LtOp) Tag() Tag    { return TagLt }
func (LteOp) Tag() Tag   { return TagLte }
func (OneOfOp) Tag() Tag { return TagOneOf }
func (LikeOp) Tag() Tag  { return TagLike }
func (NotOp) Tag() Tag   { return TagNot }

func (EqOp) isPredicate()    {}
func (GtOp) isPredicate()    {}
func (GteOp) isPredicate()   {}
func (LtOp) isPredicate()    {}
func (LteOp) isPredicate()   {}
func (OneOfOp) isPredicate() {}
func (LikeOp) isPredicate()  {}
func (NotOp) isPredicate()   {}

// ---------------- Constructores ----------------

func Eq(v any) Predicate  { return EqOp{Value: v} }
func Gt(v any) Predicate  { return GtOp{Value: v} }
func Gte(v any) Predicate { return GteOp{Value: v} }
func Lt(v any) Predicate  { return LtOp{Value: v} }
func Lte(v any) Predicate { return LteOp{Value: v} }

// OneOf copia los valores para que el descriptor no comparta el slice del llamador.
func OneOf(values ...any) Predicate {
	return OneOfOp{Values: append([]any(nil), values...)}
}

// LikeOption modifica las opciones de Like.
type LikeOption func(*LikeOp)

// WithCaseSensitive fija la sensibilidad a mayúsculas (por defecto true).
func WithCaseSensitive(sensitive bool) LikeOption {
	return func(l *LikeOp) { l.CaseSensitive = sensitive }
}

func Like(pattern string, opts ...LikeOption) Predicate {
	l := LikeOp{Pattern: pattern, CaseSensitive: true}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// ILike es un atajo de Like sin distinguir mayúsculas.
func ILike(pattern string) Predicate {
	return Like(pattern, WithCaseSensitive(false))
}

func Not(p Predicate) Predicate { return NotOp{Inner: p} }

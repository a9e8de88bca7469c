package query

// Nulls indica dónde se colocan los valores nulos o ausentes al ordenar.
type Nulls int

const (
	NullsUnset Nulls = iota
	NullsFirst
	NullsLast
)

func (n Nulls) String() string {
	switch n {
	case NullsFirst:
		return "first"
	case NullsLast:
		return "last"
	default:
		return "unset"
	}
}

// Ordering es un descriptor de ordenación sobre un campo.
type Ordering struct {
	Field     string
	Direction Tag // TagAsc o TagDesc
	Nulls     Nulls
}

// OrderingOption modifica las opciones de Asc/Desc.
type OrderingOption func(*Ordering)

// WithNulls fija la política de nulos; NullsUnset recupera el comportamiento por defecto.
func WithNulls(n Nulls) OrderingOption {
	return func(o *Ordering) { o.Nulls = n }
}

func Asc(field string, opts ...OrderingOption) Ordering {
	return newOrdering(field, TagAsc, opts)
}

func Desc(field string, opts ...OrderingOption) Ordering {
	return newOrdering(field, TagDesc, opts)
}

func newOrdering(field string, dir Tag, opts []OrderingOption) Ordering {
	o := Ordering{Field: field, Direction: dir}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o Ordering) Tag() Tag { return o.Direction }

// Descending indica si la dirección es descendente.
func (o Ordering) Descending() bool { return o.Direction == TagDesc }

// NullsFirst resuelve la política efectiva: sin opción explícita,
// asc coloca los nulos al final y desc al principio.
func (o Ordering) NullsFirst() bool {
	switch o.Nulls {
	case NullsFirst:
		return true
	case NullsLast:
		return false
	default:
		return o.Descending()
	}
}

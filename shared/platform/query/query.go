package query

// ---------- Descriptor de consulta: filtrado / ordenamiento / paginación ----------

// Query es un descriptor inmutable. El valor cero es la consulta vacía:
// sin filtros, sin orden y sin paginación.
type Query struct {
	where  map[string]Predicate
	order  []Ordering
	limit  *int
	offset *int
}

// Fragment es cualquier pieza que New sabe combinar: Where, Order, Limit,
// Offset o una Query completa.
type Fragment interface {
	applyTo(q *Query)
}

// New combina los fragmentos de izquierda a derecha partiendo de la consulta vacía.
//   - Where mezcla superficialmente; la última escritura por campo gana.
//   - Order elimina las entradas previas sobre los mismos campos y añade las
//     nuevas tras las supervivientes.
//   - Limit/Offset sobrescriben solo cuando traen valor.
//   - Una Query anidada se aplana reaplicando sus cláusulas.
func New(fragments ...Fragment) Query {
	var q Query
	for _, f := range fragments {
		if f == nil {
			continue
		}
		f.applyTo(&q)
	}
	return q
}

// ---------------- Fragmentos ----------------

type whereFragment map[string]Predicate

type orderFragment []Ordering

type limitFragment int

type offsetFragment int

// Where filtra por campo. Los predicados nil se ignoran.
func Where(predicates map[string]Predicate) Fragment {
	return whereFragment(predicates)
}

// Order añade descriptores de ordenación.
func Order(orderings ...Ordering) Fragment {
	return orderFragment(orderings)
}

// Limit fija el tamaño de página. Un valor negativo equivale a no fijarlo.
func Limit(n int) Fragment { return limitFragment(n) }

// Offset fija el desplazamiento. Un valor negativo equivale a no fijarlo.
func Offset(n int) Fragment { return offsetFragment(n) }

func (w whereFragment) applyTo(q *Query) {
	for field, p := range w {
		if p == nil {
			continue
		}
		if q.where == nil {
			q.where = make(map[string]Predicate, len(w))
		}
		q.where[field] = p
	}
}

func (o orderFragment) applyTo(q *Query) {
	if len(o) == 0 {
		return
	}
	replaced := make(map[string]struct{}, len(o))
	for _, ord := range o {
		replaced[ord.Field] = struct{}{}
	}

	next := make([]Ordering, 0, len(q.order)+len(o))
	for _, ord := range q.order {
		if _, ok := replaced[ord.Field]; !ok {
			next = append(next, ord)
		}
	}
	q.order = append(next, o...)
}

func (l limitFragment) applyTo(q *Query) {
	if l < 0 {
		return
	}
	n := int(l)
	q.limit = &n
}

func (o offsetFragment) applyTo(q *Query) {
	if o < 0 {
		return
	}
	n := int(o)
	q.offset = &n
}

func (src Query) applyTo(q *Query) {
	whereFragment(src.where).applyTo(q)
	orderFragment(src.order).applyTo(q)
	if src.limit != nil {
		limitFragment(*src.limit).applyTo(q)
	}
	if src.offset != nil {
		offsetFragment(*src.offset).applyTo(q)
	}
}

// ---------------- Accesores ----------------

// Where devuelve una copia del mapa de filtros.
func (q Query) Where() map[string]Predicate {
	out := make(map[string]Predicate, len(q.where))
	for k, v := range q.where {
		out[k] = v
	}
	return out
}

// Predicate devuelve el filtro de un campo.
func (q Query) Predicate(field string) (Predicate, bool) {
	p, ok := q.where[field]
	return p, ok
}

// Fields devuelve los campos filtrados, sin orden garantizado.
func (q Query) Fields() []string {
	out := make([]string, 0, len(q.where))
	for k := range q.where {
		out = append(out, k)
	}
	return out
}

// Order devuelve una copia de los descriptores de ordenación.
func (q Query) Order() []Ordering {
	return append([]Ordering(nil), q.order...)
}

func (q Query) Limit() (int, bool) {
	if q.limit == nil {
		return 0, false
	}
	return *q.limit, true
}

func (q Query) Offset() (int, bool) {
	if q.offset == nil {
		return 0, false
	}
	return *q.offset, true
}

// Paginated indica si hay limit u offset fijados.
func (q Query) Paginated() bool {
	return q.limit != nil || q.offset != nil
}

// IsEmpty indica si la consulta no restringe nada.
func (q Query) IsEmpty() bool {
	return len(q.where) == 0 && len(q.order) == 0 && !q.Paginated()
}

// WithoutPagination devuelve la misma consulta sin limit ni offset.
func (q Query) WithoutPagination() Query {
	return New(Where(q.where), Order(q.order...))
}

// WhereOnly conserva solo los filtros. Es el objetivo de update/destroy.
func (q Query) WhereOnly() Query {
	return New(Where(q.where))
}

// Package selector ejecuta un query.Query sobre registros en memoria.
// Es la referencia semántica que replican el compilador SQL y el códec REST.
package selector

import (
	"slices"
	"sort"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Select aplica filtro → orden → paginación. No modifica records; los
// registros devueltos son los mismos valores de entrada, sin copiar.
func Select(q query.Query, records []query.Record) []query.Record {
	idx := Indices(q, records)
	out := make([]query.Record, len(idx))
	for i, n := range idx {
		out[i] = records[n]
	}
	return out
}

// First devuelve el primer registro seleccionado.
func First(q query.Query, records []query.Record) (query.Record, bool) {
	selected := Select(q, records)
	if len(selected) == 0 {
		return nil, false
	}
	return selected[0], true
}

// Indices devuelve las posiciones en records de los registros seleccionados,
// en el orden resultante.
func Indices(q query.Query, records []query.Record) []int {
	idx := filterIndices(q, records)
	sortIndices(q.Order(), records, idx)
	return paginate(q, idx)
}

// Filter conserva los registros que cumplen todos los filtros.
func Filter(q query.Query, records []query.Record) []query.Record {
	return Select(q.WhereOnly(), records)
}

// Count cuenta los registros que cumplen los filtros, ignorando paginación.
func Count(q query.Query, records []query.Record) int {
	return len(filterIndices(q, records))
}

// ---------------- Filtro ----------------

type fieldMatcher struct {
	field string
	match matcher
}

func filterIndices(q query.Query, records []query.Record) []int {
	where := q.Where()
	matchers := make([]fieldMatcher, 0, len(where))
	for field, p := range where {
		matchers = append(matchers, fieldMatcher{field: field, match: compile(p)})
	}

	idx := make([]int, 0, len(records))
	for i, r := range records {
		if matchesAll(matchers, r) {
			idx = append(idx, i)
		}
	}
	return idx
}

func matchesAll(matchers []fieldMatcher, r query.Record) bool {
	for _, m := range matchers {
		if !m.match(r.Get(m.field)) {
			return false
		}
	}
	return true
}

// ---------------- Orden ----------------

func sortIndices(order []query.Ordering, records []query.Record, idx []int) {
	if len(order) == 0 {
		return
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return compareRecords(order, records[idx[i]], records[idx[j]]) < 0
	})
}

// compareRecords aplica cada ordenación de izquierda a derecha como desempate.
func compareRecords(order []query.Ordering, a, b query.Record) int {
	for _, o := range order {
		if c := compareField(o, a.Get(o.Field), b.Get(o.Field)); c != 0 {
			return c
		}
	}
	return 0
}

// compareField coloca los nulos según la política resuelta, con independencia
// de la dirección; el resto se invierte en desc.
func compareField(o query.Ordering, a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if o.NullsFirst() {
			return -1
		}
		return 1
	case b == nil:
		if o.NullsFirst() {
			return 1
		}
		return -1
	}

	c, ok := Compare(a, b)
	if !ok {
		return 0
	}
	if o.Descending() {
		return -c
	}
	return c
}

// Sort ordena una copia de records.
func Sort(order []query.Ordering, records []query.Record) []query.Record {
	out := slices.Clone(records)
	sort.SliceStable(out, func(i, j int) bool {
		return compareRecords(order, out[i], out[j]) < 0
	})
	return out
}

// ---------------- Paginación ----------------

func paginate(q query.Query, idx []int) []int {
	offset, _ := q.Offset()
	if offset >= len(idx) {
		return []int{}
	}
	end := len(idx)
	// offset < len(idx): la resta no desborda, la suma offset+limit sí podría.
	if limit, ok := q.Limit(); ok && limit < end-offset {
		end = offset + limit
	}
	return idx[offset:end]
}

// Paginate recorta records a [offset, offset+limit).
func Paginate(q query.Query, records []query.Record) []query.Record {
	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	page := paginate(q, idx)
	out := make([]query.Record, len(page))
	for i, n := range page {
		out[i] = records[n]
	}
	return out
}

package sqlstore

import (
	"sort"
	"strings"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Statement es una sentencia SQL con sus argumentos posicionales.
type Statement struct {
	Text string
	Args []any
}

// Compiler traduce descriptores de consulta a SQL parametrizado. Los valores
// nunca se interpolan en el texto: siempre van como argumentos.
type Compiler struct {
	Dialect Dialect
}

func NewCompiler(d Dialect) Compiler {
	return Compiler{Dialect: d}
}

// builder acumula texto y argumentos; la numeración de parámetros es
// global a toda la sentencia.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	return b.d.Placeholder(len(b.args))
}

func (b *builder) statement() Statement {
	return Statement{Text: b.sb.String(), Args: b.args}
}

func (c Compiler) newBuilder() *builder {
	return &builder{d: c.Dialect}
}

// ---------------- Sentencias ----------------

// Select: SELECT * FROM r [WHERE ..] [ORDER BY ..] [LIMIT .. OFFSET ..];
func (c Compiler) Select(resource string, q query.Query) Statement {
	b := c.newBuilder()
	b.write("SELECT * FROM ", c.Dialect.QuoteIdent(resource))
	c.writeSelectTail(b, q)
	b.write(";")
	return b.statement()
}

// Count cuenta las filas que devolvería Select con la misma consulta,
// paginación incluida.
func (c Compiler) Count(resource string, q query.Query) Statement {
	b := c.newBuilder()
	table := c.Dialect.QuoteIdent(resource)
	if !q.Paginated() {
		b.write("SELECT COUNT(*) FROM ", table)
		c.writeWhere(b, q)
		b.write(";")
		return b.statement()
	}
	b.write("SELECT COUNT(*) FROM (SELECT * FROM ", table)
	c.writeSelectTail(b, q)
	b.write(") AS counted;")
	return b.statement()
}

// Insert inserta un registro y devuelve la fila almacenada.
func (c Compiler) Insert(resource string, record query.Record) Statement {
	b := c.newBuilder()
	b.write("INSERT INTO ", c.Dialect.QuoteIdent(resource))
	if len(record) == 0 {
		b.write(" DEFAULT VALUES RETURNING *;")
		return b.statement()
	}

	fields := sortedKeys(record)
	columns := make([]string, len(fields))
	values := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = c.Dialect.QuoteIdent(f)
		values[i] = b.bind(record[f])
	}
	b.write(" (", strings.Join(columns, ", "), ") VALUES (", strings.Join(values, ", "), ") RETURNING *;")
	return b.statement()
}

// Update aplica values a las filas que casan con el where. Sin valores que
// asignar se degrada a un Select de esas mismas filas.
func (c Compiler) Update(resource string, q query.Query, values query.Record) Statement {
	if len(values) == 0 {
		return c.Select(resource, q.WhereOnly())
	}
	b := c.newBuilder()
	b.write("UPDATE ", c.Dialect.QuoteIdent(resource), " SET ")
	for i, f := range sortedKeys(values) {
		if i > 0 {
			b.write(", ")
		}
		b.write(c.Dialect.QuoteIdent(f), " = ", b.bind(values[f]))
	}
	c.writeWhere(b, q)
	b.write(" RETURNING *;")
	return b.statement()
}

// Delete borra las filas que casan con el where y las devuelve.
func (c Compiler) Delete(resource string, q query.Query) Statement {
	b := c.newBuilder()
	b.write("DELETE FROM ", c.Dialect.QuoteIdent(resource))
	c.writeWhere(b, q)
	b.write(" RETURNING *;")
	return b.statement()
}

// ---------------- Cláusulas ----------------

func (c Compiler) writeSelectTail(b *builder, q query.Query) {
	c.writeWhere(b, q)
	c.writeOrder(b, q.Order())
	c.writePagination(b, q)
}

// writeWhere une los filtros con AND; los campos se recorren ordenados para
// que el texto sea estable.
func (c Compiler) writeWhere(b *builder, q query.Query) {
	fields := q.Fields()
	if len(fields) == 0 {
		return
	}
	sort.Strings(fields)
	conds := make([]string, 0, len(fields))
	for _, f := range fields {
		p, _ := q.Predicate(f)
		conds = append(conds, c.condition(b, f, p))
	}
	b.write(" WHERE ", strings.Join(conds, " AND "))
}

func (c Compiler) writeOrder(b *builder, order []query.Ordering) {
	if len(order) == 0 {
		return
	}
	terms := make([]string, len(order))
	for i, o := range order {
		dir, nulls := "ASC", "NULLS LAST"
		if o.Descending() {
			dir = "DESC"
		}
		if o.NullsFirst() {
			nulls = "NULLS FIRST"
		}
		terms[i] = c.Dialect.QuoteIdent(o.Field) + " " + dir + " " + nulls
	}
	b.write(" ORDER BY ", strings.Join(terms, ", "))
}

func (c Compiler) writePagination(b *builder, q query.Query) {
	var limit, offset string
	if n, ok := q.Limit(); ok {
		limit = b.bind(n)
	}
	if n, ok := q.Offset(); ok {
		offset = b.bind(n)
	}
	if clause := c.Dialect.Pagination(limit, offset); clause != "" {
		b.write(" ", clause)
	}
}

// condition compila el predicado de un campo.
func (c Compiler) condition(b *builder, field string, p query.Predicate) string {
	return query.Visit[string](p, conditionCompiler{c: c, b: b, column: c.Dialect.QuoteIdent(field)})
}

// ---------------- Predicados ----------------

type conditionCompiler struct {
	c      Compiler
	b      *builder
	column string
}

func (v conditionCompiler) binary(op string, value any) string {
	return v.column + " " + op + " " + v.b.bind(value)
}

func (v conditionCompiler) VisitEq(op query.EqOp) string {
	if op.Value == nil {
		return v.column + " IS NULL"
	}
	return v.binary("=", op.Value)
}

func (v conditionCompiler) VisitGt(op query.GtOp) string   { return v.binary(">", op.Value) }
func (v conditionCompiler) VisitGte(op query.GteOp) string { return v.binary(">=", op.Value) }
func (v conditionCompiler) VisitLt(op query.LtOp) string   { return v.binary("<", op.Value) }
func (v conditionCompiler) VisitLte(op query.LteOp) string { return v.binary("<=", op.Value) }

// VisitOneOf: IN no casa NULL, así que un nil en la lista se añade aparte.
func (v conditionCompiler) VisitOneOf(op query.OneOfOp) string {
	var placeholders []string
	withNull := false
	for _, value := range op.Values {
		if value == nil {
			withNull = true
			continue
		}
		placeholders = append(placeholders, v.b.bind(value))
	}
	switch {
	case len(placeholders) == 0 && withNull:
		return v.column + " IS NULL"
	case len(placeholders) == 0:
		return "FALSE"
	case withNull:
		return "(" + v.column + " IN (" + strings.Join(placeholders, ", ") + ") OR " + v.column + " IS NULL)"
	}
	return v.column + " IN (" + strings.Join(placeholders, ", ") + ")"
}

func (v conditionCompiler) VisitLike(op query.LikeOp) string {
	pattern := v.c.Dialect.LikePattern(op.Pattern, op.CaseSensitive)
	return v.c.Dialect.LikeCondition(v.column, v.b.bind(pattern), op.CaseSensitive)
}

// VisitNot trata el NULL de SQL como falso antes de negar, de modo que
// not.eq.1 incluye las filas con el campo a NULL, igual que en memoria.
func (v conditionCompiler) VisitNot(op query.NotOp) string {
	return "NOT COALESCE((" + query.Visit[string](op.Inner, v) + "), FALSE)"
}

func sortedKeys(r query.Record) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package sqlstore

import (
	"strconv"
	"strings"
)

// Dialect encapsula lo que cambia entre motores SQL.
type Dialect interface {
	Name() string
	// Placeholder devuelve el marcador del parámetro n (base 1).
	Placeholder(n int) string
	// QuoteIdent entrecomilla un nombre de tabla o columna.
	QuoteIdent(name string) string
	// LikePattern traduce un patrón con '%' a la sintaxis del motor,
	// escapando el resto de comodines.
	LikePattern(pattern string, caseSensitive bool) string
	// LikeCondition compara column con el patrón ya enlazado en placeholder.
	LikeCondition(column, placeholder string, caseSensitive bool) string
	// Pagination devuelve la cláusula final; limit/offset vacíos si no se fijan.
	Pagination(limit, offset string) string
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func dollarPlaceholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// likeEscaper escapa '\' y '_' para LIKE con ESCAPE '\'; '%' se conserva
// como comodín.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `_`, `\_`)

// ---------------- PostgreSQL ----------------

type postgresDialect struct{}

// Postgres usa LIKE/ILIKE con '\' como carácter de escape por defecto.
var Postgres Dialect = postgresDialect{}

func (postgresDialect) Name() string                  { return "postgres" }
func (postgresDialect) Placeholder(n int) string      { return dollarPlaceholder(n) }
func (postgresDialect) QuoteIdent(name string) string { return quoteIdent(name) }

func (postgresDialect) LikePattern(pattern string, _ bool) string {
	return likeEscaper.Replace(pattern)
}

func (postgresDialect) LikeCondition(column, placeholder string, caseSensitive bool) string {
	if caseSensitive {
		return column + " LIKE " + placeholder
	}
	return column + " ILIKE " + placeholder
}

func (postgresDialect) Pagination(limit, offset string) string {
	var parts []string
	if limit != "" {
		parts = append(parts, "LIMIT "+limit)
	}
	if offset != "" {
		parts = append(parts, "OFFSET "+offset)
	}
	return strings.Join(parts, " ")
}

// ---------------- SQLite ----------------

type sqliteDialect struct{}

// SQLite usa GLOB para patrones sensibles a mayúsculas (LIKE no lo es) y
// solo casa valores de tipo texto, igual que el selector en memoria.
var SQLite Dialect = sqliteDialect{}

// globEscaper encierra en clases los metacaracteres de GLOB.
var globEscaper = strings.NewReplacer(`*`, `[*]`, `?`, `[?]`, `[`, `[[]`)

func (sqliteDialect) Name() string                  { return "sqlite" }
func (sqliteDialect) Placeholder(n int) string      { return dollarPlaceholder(n) }
func (sqliteDialect) QuoteIdent(name string) string { return quoteIdent(name) }

func (sqliteDialect) LikePattern(pattern string, caseSensitive bool) string {
	if !caseSensitive {
		return likeEscaper.Replace(pattern)
	}
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = globEscaper.Replace(part)
	}
	return strings.Join(parts, "*")
}

func (sqliteDialect) LikeCondition(column, placeholder string, caseSensitive bool) string {
	if caseSensitive {
		return "(typeof(" + column + ") = 'text' AND " + column + " GLOB " + placeholder + ")"
	}
	return "(typeof(" + column + ") = 'text' AND " + column + " LIKE " + placeholder + ` ESCAPE '\')`
}

// Pagination: SQLite no admite OFFSET sin LIMIT; -1 equivale a sin límite.
func (sqliteDialect) Pagination(limit, offset string) string {
	switch {
	case limit != "" && offset != "":
		return "LIMIT " + limit + " OFFSET " + offset
	case limit != "":
		return "LIMIT " + limit
	case offset != "":
		return "LIMIT -1 OFFSET " + offset
	}
	return ""
}

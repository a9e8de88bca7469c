package sqlstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	q "github.com/davicafu/hexaquery/shared/platform/query"
)

func where(field string, p q.Predicate) q.Query {
	return q.New(q.Where(map[string]q.Predicate{field: p}))
}

func TestCompiler_Select(t *testing.T) {
	c := NewCompiler(Postgres)

	stmt := c.Select("users", q.New(
		q.Where(map[string]q.Predicate{"name": q.Eq("a"), "age": q.Gt(3)}),
		q.Order(q.Desc("age")),
		q.Limit(10),
		q.Offset(5),
	))

	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > $1 AND "name" = $2 ORDER BY "age" DESC NULLS FIRST LIMIT $3 OFFSET $4;`, stmt.Text)
	assert.Equal(t, []any{3, "a", 10, 5}, stmt.Args)
}

func TestCompiler_SelectWithoutClauses(t *testing.T) {
	stmt := NewCompiler(Postgres).Select("users", q.Query{})

	assert.Equal(t, `SELECT * FROM "users";`, stmt.Text)
	assert.Empty(t, stmt.Args)
}

func TestCompiler_OrderNulls(t *testing.T) {
	stmt := NewCompiler(Postgres).Select("t", q.New(q.Order(
		q.Asc("a"),
		q.Asc("b", q.WithNulls(q.NullsFirst)),
		q.Desc("c", q.WithNulls(q.NullsLast)),
	)))

	assert.Equal(t, `SELECT * FROM "t" ORDER BY "a" ASC NULLS LAST, "b" ASC NULLS FIRST, "c" DESC NULLS LAST;`, stmt.Text)
}

func TestCompiler_Pagination(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		query   q.Query
		want    string
	}{
		{"postgres offset only", Postgres, q.New(q.Offset(5)), `SELECT * FROM "t" OFFSET $1;`},
		{"sqlite offset only", SQLite, q.New(q.Offset(5)), `SELECT * FROM "t" LIMIT -1 OFFSET $1;`},
		{"sqlite limit only", SQLite, q.New(q.Limit(2)), `SELECT * FROM "t" LIMIT $1;`},
		{"sqlite both", SQLite, q.New(q.Limit(2), q.Offset(5)), `SELECT * FROM "t" LIMIT $1 OFFSET $2;`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewCompiler(tc.dialect).Select("t", tc.query).Text)
		})
	}
}

func TestCompiler_Predicates(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		pred     q.Predicate
		wantCond string
		wantArgs []any
	}{
		{"eq", Postgres, q.Eq(1), `"f" = $1`, []any{1}},
		{"eq null", Postgres, q.Eq(nil), `"f" IS NULL`, nil},
		{"gte", Postgres, q.Gte(2.5), `"f" >= $1`, []any{2.5}},
		{"lte", Postgres, q.Lte("m"), `"f" <= $1`, []any{"m"}},
		{"one of", Postgres, q.OneOf(1, 2), `"f" IN ($1, $2)`, []any{1, 2}},
		{"one of with null", Postgres, q.OneOf(1, nil), `("f" IN ($1) OR "f" IS NULL)`, []any{1}},
		{"one of only null", Postgres, q.OneOf(nil), `"f" IS NULL`, nil},
		{"one of empty", Postgres, q.OneOf(), `FALSE`, nil},
		{"like postgres", Postgres, q.Like("a_b%"), `"f" LIKE $1`, []any{`a\_b%`}},
		{"ilike postgres", Postgres, q.ILike("%x%"), `"f" ILIKE $1`, []any{"%x%"}},
		{"like sqlite", SQLite, q.Like("a*b%"), `(typeof("f") = 'text' AND "f" GLOB $1)`, []any{"a[*]b*"}},
		{"ilike sqlite", SQLite, q.ILike("a_%"), `(typeof("f") = 'text' AND "f" LIKE $1 ESCAPE '\')`, []any{`a\_%`}},
		{"not", Postgres, q.Not(q.Eq(1)), `NOT COALESCE(("f" = $1), FALSE)`, []any{1}},
		{"double not", Postgres, q.Not(q.Not(q.Lt(2))), `NOT COALESCE((NOT COALESCE(("f" < $1), FALSE)), FALSE)`, []any{2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stmt := NewCompiler(tc.dialect).Select("t", where("f", tc.pred))

			assert.Equal(t, `SELECT * FROM "t" WHERE `+tc.wantCond+`;`, stmt.Text)
			assert.Equal(t, tc.wantArgs, stmt.Args)
		})
	}
}

func TestCompiler_Count(t *testing.T) {
	c := NewCompiler(Postgres)

	plain := c.Count("users", q.New(q.Where(map[string]q.Predicate{"age": q.Gt(3)}), q.Order(q.Asc("age"))))
	assert.Equal(t, `SELECT COUNT(*) FROM "users" WHERE "age" > $1;`, plain.Text)
	assert.Equal(t, []any{3}, plain.Args)

	paged := c.Count("users", q.New(q.Where(map[string]q.Predicate{"age": q.Gt(3)}), q.Limit(2)))
	assert.Equal(t, `SELECT COUNT(*) FROM (SELECT * FROM "users" WHERE "age" > $1 LIMIT $2) AS counted;`, paged.Text)
	assert.Equal(t, []any{3, 2}, paged.Args)
}

func TestCompiler_Insert(t *testing.T) {
	c := NewCompiler(Postgres)

	stmt := c.Insert("users", q.Record{"name": "a", "age": 3})
	assert.Equal(t, `INSERT INTO "users" ("age", "name") VALUES ($1, $2) RETURNING *;`, stmt.Text)
	assert.Equal(t, []any{3, "a"}, stmt.Args)

	empty := c.Insert("users", q.Record{})
	assert.Equal(t, `INSERT INTO "users" DEFAULT VALUES RETURNING *;`, empty.Text)
	assert.Empty(t, empty.Args)
}

func TestCompiler_UpdateIgnoresOrderAndPagination(t *testing.T) {
	c := NewCompiler(Postgres)
	sel := q.New(q.Where(map[string]q.Predicate{"age": q.Gt(3)}), q.Order(q.Asc("age")), q.Limit(1))

	stmt := c.Update("users", sel, q.Record{"name": "b"})
	assert.Equal(t, `UPDATE "users" SET "name" = $1 WHERE "age" > $2 RETURNING *;`, stmt.Text)
	assert.Equal(t, []any{"b", 3}, stmt.Args)

	noop := c.Update("users", sel, q.Record{})
	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > $1;`, noop.Text)
}

func TestCompiler_Delete(t *testing.T) {
	stmt := NewCompiler(Postgres).Delete("users", where("id", q.OneOf(1, 2)))

	assert.Equal(t, `DELETE FROM "users" WHERE "id" IN ($1, $2) RETURNING *;`, stmt.Text)
	assert.Equal(t, []any{1, 2}, stmt.Args)

	all := NewCompiler(Postgres).Delete("users", q.Query{})
	assert.Equal(t, `DELETE FROM "users" RETURNING *;`, all.Text)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"we""ird"`, Postgres.QuoteIdent(`we"ird`))
}

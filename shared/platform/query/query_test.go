package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_EmptyQuery(t *testing.T) {
	q := New()

	assert.True(t, q.IsEmpty())
	assert.Empty(t, q.Where())
	assert.Empty(t, q.Order())
	_, hasLimit := q.Limit()
	_, hasOffset := q.Offset()
	assert.False(t, hasLimit)
	assert.False(t, hasOffset)
	assert.Equal(t, Query{}, q)
}

func TestNew_WhereLastWriteWins(t *testing.T) {
	q := New(
		Where(map[string]Predicate{"a": Eq(1), "b": Gt(3)}),
		Where(map[string]Predicate{"a": Eq(2)}),
	)

	assert.Equal(t, map[string]Predicate{"a": Eq(2), "b": Gt(3)}, q.Where())
}

func TestNew_OrderReplacesSameField(t *testing.T) {
	q := New(Order(Asc("x")), Order(Desc("x")))

	assert.Equal(t, []Ordering{Desc("x")}, q.Order())
}

func TestNew_OrderAppendsAfterSurvivors(t *testing.T) {
	q := New(
		Order(Asc("a"), Asc("b"), Asc("c")),
		Order(Desc("b"), Asc("d")),
	)

	assert.Equal(t, []Ordering{Asc("a"), Asc("c"), Desc("b"), Asc("d")}, q.Order())
}

func TestNew_LimitOffsetOverwrite(t *testing.T) {
	q := New(Limit(10), Offset(5), Limit(2), Offset(-1))

	limit, ok := q.Limit()
	assert.True(t, ok)
	assert.Equal(t, 2, limit)

	offset, ok := q.Offset()
	assert.True(t, ok)
	assert.Equal(t, 5, offset)
}

func TestNew_NegativeLimitIsUnset(t *testing.T) {
	q := New(Limit(-1))

	_, ok := q.Limit()
	assert.False(t, ok)
}

func TestNew_NestedQueryIsFlattened(t *testing.T) {
	inner := New(Where(map[string]Predicate{"a": Eq(1)}), Order(Asc("a")), Limit(3))
	q := New(
		Where(map[string]Predicate{"b": Eq(2)}),
		inner,
		Offset(1),
	)

	expected := New(
		Where(map[string]Predicate{"a": Eq(1), "b": Eq(2)}),
		Order(Asc("a")),
		Limit(3),
		Offset(1),
	)
	assert.Equal(t, expected, q)
}

func TestNew_DoesNotMutateFragments(t *testing.T) {
	base := New(Where(map[string]Predicate{"a": Eq(1)}), Order(Asc("a")))
	_ = New(base, Where(map[string]Predicate{"a": Eq(9)}), Order(Desc("a")))

	assert.Equal(t, Eq(1), base.Where()["a"])
	assert.Equal(t, []Ordering{Asc("a")}, base.Order())
}

func TestNew_IgnoresNilPredicates(t *testing.T) {
	q := New(Where(map[string]Predicate{"a": nil}))

	assert.True(t, q.IsEmpty())
}

func TestQuery_WithoutPagination(t *testing.T) {
	q := New(Where(map[string]Predicate{"a": Eq(1)}), Order(Asc("a")), Limit(1), Offset(2))

	stripped := q.WithoutPagination()
	assert.False(t, stripped.Paginated())
	assert.Equal(t, q.Where(), stripped.Where())
	assert.Equal(t, q.Order(), stripped.Order())
	assert.True(t, q.Paginated())

	assert.Equal(t, New(Where(map[string]Predicate{"a": Eq(1)})), q.WhereOnly())
}

func TestOperators_Defaults(t *testing.T) {
	assert.Equal(t, LikeOp{Pattern: "a%", CaseSensitive: true}, Like("a%"))
	assert.Equal(t, LikeOp{Pattern: "a%", CaseSensitive: false}, ILike("a%"))
	assert.Equal(t, NotOp{Inner: NotOp{Inner: Eq(1)}}, Not(Not(Eq(1))))
	assert.Equal(t, TagNot, Not(Eq(1)).Tag())
	assert.Equal(t, TagOneOf, OneOf(1, 2).Tag())
}

func TestOperators_OneOfCopiesValues(t *testing.T) {
	values := []any{1, 2}
	p := OneOf(values...).(OneOfOp)
	values[0] = 99

	assert.Equal(t, []any{1, 2}, p.Values)
}

func TestOrdering_NullsResolution(t *testing.T) {
	cases := []struct {
		name      string
		ordering  Ordering
		nullFirst bool
	}{
		{"asc default", Asc("x"), false},
		{"desc default", Desc("x"), true},
		{"asc nulls first", Asc("x", WithNulls(NullsFirst)), true},
		{"desc nulls last", Desc("x", WithNulls(NullsLast)), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.nullFirst, tc.ordering.NullsFirst())
		})
	}
}

type tagVisitor struct{}

func (tagVisitor) VisitEq(EqOp) string       { return "eq" }
func (tagVisitor) VisitGt(GtOp) string       { return "gt" }
func (tagVisitor) VisitGte(GteOp) string     { return "gte" }
func (tagVisitor) VisitLt(LtOp) string       { return "lt" }
func (tagVisitor) VisitLte(LteOp) string     { return "lte" }
func (tagVisitor) VisitOneOf(OneOfOp) string { return "oneOf" }
func (tagVisitor) VisitLike(LikeOp) string   { return "like" }
func (v tagVisitor) VisitNot(n NotOp) string { return "not(" + Visit[string](n.Inner, v) + ")" }

func TestVisit_Dispatch(t *testing.T) {
	assert.Equal(t, "not(not(like))", Visit[string](Not(Not(Like("a"))), tagVisitor{}))
	assert.Equal(t, "lte", Visit[string](Lte(1), tagVisitor{}))
	assert.Panics(t, func() { Visit[string](nil, tagVisitor{}) })
}

func TestRecord_MergeDoesNotAlias(t *testing.T) {
	r := Record{"a": 1}
	merged := r.Merge(Record{"b": 2})

	assert.Equal(t, Record{"a": 1, "b": 2}, merged)
	assert.Equal(t, Record{"a": 1}, r)
	assert.Nil(t, r.Get("missing"))
}

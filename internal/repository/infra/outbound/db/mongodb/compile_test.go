package mongodb

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	q "github.com/davicafu/hexaquery/shared/platform/query"
)

func op(field, operator string, value any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: operator, Value: value}}}}
}

func TestClause(t *testing.T) {
	tests := []struct {
		name string
		pred q.Predicate
		want bson.D
	}{
		{"eq", q.Eq(1), op("f", "$eq", 1)},
		{"eq null", q.Eq(nil), op("f", "$eq", nil)},
		{"gt", q.Gt(1), op("f", "$gt", 1)},
		{"gte", q.Gte(1), op("f", "$gte", 1)},
		{"lt", q.Lt(1), op("f", "$lt", 1)},
		{"lte", q.Lte(1), op("f", "$lte", 1)},
		{"one of", q.OneOf("a", "b"), op("f", "$in", bson.A{"a", "b"})},
		{"one of empty", q.OneOf(), op("f", "$in", bson.A{})},
		{"like", q.Like("a.b%"), bson.D{{Key: "f", Value: bson.D{
			{Key: "$regex", Value: `^a\.b.*$`},
			{Key: "$options", Value: "s"},
		}}}},
		{"ilike", q.ILike("%x"), bson.D{{Key: "f", Value: bson.D{
			{Key: "$regex", Value: `^.*x$`},
			{Key: "$options", Value: "is"},
		}}}},
		{"not", q.Not(q.Eq(1)), bson.D{{Key: "$nor", Value: bson.A{op("f", "$eq", 1)}}}},
		{"double not", q.Not(q.Not(q.Eq(1))), bson.D{{Key: "$nor", Value: bson.A{
			bson.D{{Key: "$nor", Value: bson.A{op("f", "$eq", 1)}}},
		}}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Clause("f", tc.pred))
		})
	}
}

func TestFilter(t *testing.T) {
	assert.Equal(t, bson.D{}, Filter(q.Query{}))

	single := q.New(q.Where(map[string]q.Predicate{"a": q.Eq(1)}))
	assert.Equal(t, op("a", "$eq", 1), Filter(single))

	multi := q.New(q.Where(map[string]q.Predicate{"b": q.Gt(2), "a": q.Eq(1)}))
	assert.Equal(t, bson.D{{Key: "$and", Value: bson.A{op("a", "$eq", 1), op("b", "$gt", 2)}}}, Filter(multi))
}

func TestLikeRegex_IsAnchoredAndEscaped(t *testing.T) {
	re := regexp.MustCompile(LikeRegex("(a)%[b]"))

	assert.True(t, re.MatchString("(a)xyz[b]"))
	assert.False(t, re.MatchString("x(a)[b]"))
	assert.False(t, re.MatchString("ab"))
}

func TestPipeline(t *testing.T) {
	plain := Pipeline(q.New(q.Where(map[string]q.Predicate{"a": q.Eq(1)})))
	assert.Equal(t, mongo.Pipeline{{{Key: "$match", Value: op("a", "$eq", 1)}}}, plain)

	paged := Pipeline(q.New(q.Limit(2), q.Offset(4)))
	assert.Equal(t, mongo.Pipeline{
		{{Key: "$match", Value: bson.D{}}},
		{{Key: "$skip", Value: int64(4)}},
		{{Key: "$limit", Value: int64(2)}},
	}, paged)
}

func TestPipeline_OrderRanksNulls(t *testing.T) {
	p := Pipeline(q.New(q.Order(q.Asc("a"), q.Desc("b"))))

	isNull := func(field string) bson.D {
		return bson.D{{Key: "$eq", Value: bson.A{
			bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, nil}}},
			nil,
		}}}
	}

	want := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{}}},
		{{Key: "$addFields", Value: bson.D{
			{Key: "__nulls0", Value: bson.D{{Key: "$cond", Value: bson.A{isNull("a"), 1, 0}}}},
			{Key: "__nulls1", Value: bson.D{{Key: "$cond", Value: bson.A{isNull("b"), 0, 1}}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "__nulls0", Value: 1},
			{Key: "a", Value: 1},
			{Key: "__nulls1", Value: 1},
			{Key: "b", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$unset", Value: bson.A{"__nulls0", "__nulls1"}}},
	}
	assert.Equal(t, want, p)
}

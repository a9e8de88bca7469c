package mongodb

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// Filter traduce el where a un filtro de MongoDB. Varios campos se combinan
// con $and, en orden alfabético para que el documento sea estable.
func Filter(q query.Query) bson.D {
	fields := q.Fields()
	if len(fields) == 0 {
		return bson.D{}
	}
	sort.Strings(fields)

	clauses := make(bson.A, 0, len(fields))
	for _, f := range fields {
		p, _ := q.Predicate(f)
		clauses = append(clauses, Clause(f, p))
	}
	if len(clauses) == 1 {
		return clauses[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

// Clause compila el predicado de un campo.
func Clause(field string, p query.Predicate) bson.D {
	return query.Visit[bson.D](p, clauseCompiler{field: field})
}

type clauseCompiler struct {
	field string
}

func (c clauseCompiler) op(operator string, value any) bson.D {
	return bson.D{{Key: c.field, Value: bson.D{{Key: operator, Value: value}}}}
}

// VisitEq: {$eq: null} casa también los documentos sin el campo, que se
// leen como nil.
func (c clauseCompiler) VisitEq(op query.EqOp) bson.D   { return c.op("$eq", op.Value) }
func (c clauseCompiler) VisitGt(op query.GtOp) bson.D   { return c.op("$gt", op.Value) }
func (c clauseCompiler) VisitGte(op query.GteOp) bson.D { return c.op("$gte", op.Value) }
func (c clauseCompiler) VisitLt(op query.LtOp) bson.D   { return c.op("$lt", op.Value) }
func (c clauseCompiler) VisitLte(op query.LteOp) bson.D { return c.op("$lte", op.Value) }

func (c clauseCompiler) VisitOneOf(op query.OneOfOp) bson.D {
	values := make(bson.A, len(op.Values))
	copy(values, op.Values)
	return c.op("$in", values)
}

// VisitLike usa una expresión anclada; $regex solo casa cadenas.
func (c clauseCompiler) VisitLike(op query.LikeOp) bson.D {
	options := "s"
	if !op.CaseSensitive {
		options = "is"
	}
	return bson.D{{Key: c.field, Value: bson.D{
		{Key: "$regex", Value: LikeRegex(op.Pattern)},
		{Key: "$options", Value: options},
	}}}
}

// VisitNot usa $nor, que admite cualquier cláusula y se puede anidar.
func (c clauseCompiler) VisitNot(op query.NotOp) bson.D {
	return bson.D{{Key: "$nor", Value: bson.A{query.Visit[bson.D](op.Inner, c)}}}
}

// LikeRegex convierte un patrón con '%' en una expresión anclada.
func LikeRegex(pattern string) string {
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return "^" + strings.Join(parts, ".*") + "$"
}

// ---------------- Pipeline ----------------

// Pipeline construye la agregación de una consulta. MongoDB ordena los nulos
// antes que cualquier valor, así que cada orden añade un campo auxiliar con
// el rango del nulo para respetar NullsFirst/NullsLast. _id desempata.
func Pipeline(q query.Query) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: Filter(q)}}}

	order := q.Order()
	if len(order) > 0 {
		ranks := bson.D{}
		sortSpec := bson.D{}
		helpers := bson.A{}
		sortsByID := false
		for i, o := range order {
			name := fmt.Sprintf("__nulls%d", i)
			nullRank, valueRank := 1, 0
			if o.NullsFirst() {
				nullRank, valueRank = 0, 1
			}
			isNull := bson.D{{Key: "$eq", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$" + o.Field, nil}}},
				nil,
			}}}
			ranks = append(ranks, bson.E{Key: name, Value: bson.D{{Key: "$cond", Value: bson.A{isNull, nullRank, valueRank}}}})

			dir := 1
			if o.Descending() {
				dir = -1
			}
			sortSpec = append(sortSpec, bson.E{Key: name, Value: 1}, bson.E{Key: o.Field, Value: dir})
			helpers = append(helpers, name)
			sortsByID = sortsByID || o.Field == "_id"
		}
		if !sortsByID {
			sortSpec = append(sortSpec, bson.E{Key: "_id", Value: 1})
		}
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: ranks}},
			bson.D{{Key: "$sort", Value: sortSpec}},
			bson.D{{Key: "$unset", Value: helpers}},
		)
	}

	if n, ok := q.Offset(); ok && n > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(n)}})
	}
	if n, ok := q.Limit(); ok {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(n)}})
	}
	return pipeline
}

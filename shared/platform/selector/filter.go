package selector

import (
	"regexp"
	"strings"

	"github.com/davicafu/hexaquery/shared/platform/query"
)

// matcher evalúa un predicado contra el valor de un campo.
type matcher func(value any) bool

// compiler traduce cada predicado a un matcher una sola vez por consulta.
type compiler struct{}

var _ query.PredicateVisitor[matcher] = compiler{}

func compile(p query.Predicate) matcher {
	return query.Visit[matcher](p, compiler{})
}

func (compiler) VisitEq(op query.EqOp) matcher {
	return func(v any) bool { return Equal(v, op.Value) }
}

func (compiler) VisitGt(op query.GtOp) matcher {
	return ordinal(op.Value, func(c int) bool { return c > 0 })
}

func (compiler) VisitGte(op query.GteOp) matcher {
	return ordinal(op.Value, func(c int) bool { return c >= 0 })
}

func (compiler) VisitLt(op query.LtOp) matcher {
	return ordinal(op.Value, func(c int) bool { return c < 0 })
}

func (compiler) VisitLte(op query.LteOp) matcher {
	return ordinal(op.Value, func(c int) bool { return c <= 0 })
}

func (compiler) VisitOneOf(op query.OneOfOp) matcher {
	return func(v any) bool {
		for _, candidate := range op.Values {
			if Equal(v, candidate) {
				return true
			}
		}
		return false
	}
}

func (compiler) VisitLike(op query.LikeOp) matcher {
	re := LikePattern(op.Pattern, op.CaseSensitive)
	return func(v any) bool {
		s, ok := v.(string)
		return ok && re.MatchString(s)
	}
}

func (compiler) VisitNot(op query.NotOp) matcher {
	inner := compile(op.Inner)
	return func(v any) bool { return !inner(v) }
}

// ordinal compara el valor del registro con el operando; valores no
// comparables (nil o tipos mezclados) nunca casan.
func ordinal(operand any, accept func(int) bool) matcher {
	return func(v any) bool {
		c, ok := Compare(v, operand)
		return ok && accept(c)
	}
}

// LikePattern compila un patrón like a una expresión anclada: '%' equivale a
// cero o más caracteres y el resto se toma literal.
func LikePattern(pattern string, caseSensitive bool) *regexp.Regexp {
	parts := strings.Split(pattern, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	flags := "(?s)"
	if !caseSensitive {
		flags = "(?is)"
	}
	return regexp.MustCompile(flags + "^" + strings.Join(parts, ".*") + "$")
}

// Matches indica si value satisface el predicado.
func Matches(p query.Predicate, value any) bool {
	return compile(p)(value)
}

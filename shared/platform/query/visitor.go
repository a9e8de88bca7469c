package query

import "fmt"

// PredicateVisitor debe implementarse por cada motor que interprete predicados.
// Añadir un operador añade un método aquí, de modo que todos los motores
// dejan de compilar hasta que lo manejan.
type PredicateVisitor[T any] interface {
	VisitEq(EqOp) T
	VisitGt(GtOp) T
	VisitGte(GteOp) T
	VisitLt(LtOp) T
	VisitLte(LteOp) T
	VisitOneOf(OneOfOp) T
	VisitLike(LikeOp) T
	VisitNot(NotOp) T
}

// Visit despacha p al método correspondiente de v.
func Visit[T any](p Predicate, v PredicateVisitor[T]) T {
	switch op := p.(type) {
	case EqOp:
		return v.VisitEq(op)
	case GtOp:
		return v.VisitGt(op)
	case GteOp:
		return v.VisitGte(op)
	case LtOp:
		return v.VisitLt(op)
	case LteOp:
		return v.VisitLte(op)
	case OneOfOp:
		return v.VisitOneOf(op)
	case LikeOp:
		return v.VisitLike(op)
	case NotOp:
		return v.VisitNot(op)
	default:
		// Solo alcanzable con un predicado nil: la interfaz está sellada.
		panic(fmt.Sprintf("query: unsupported predicate %T", p))
	}
}

package report

import "context"

// Predicate is a parameterized SQL fragment composed by the condition
// compiler and filter builder. An empty SQL means "no restriction".
type Predicate struct {
	SQL  string
	Args []interface{}
}

// IsZero reports whether the predicate places no restriction.
func (p Predicate) IsZero() bool {
	return p.SQL == ""
}

// And combines two predicates with AND. Either side may be empty.
func (p Predicate) And(other Predicate) Predicate {
	return combine(p, other, "AND")
}

// Or combines two predicates with OR. Either side may be empty.
func (p Predicate) Or(other Predicate) Predicate {
	return combine(p, other, "OR")
}

func combine(a, b Predicate, op string) Predicate {
	if a.IsZero() {
		return b
	}
	if b.IsZero() {
		return a
	}
	args := make([]interface{}, 0, len(a.Args)+len(b.Args))
	args = append(args, a.Args...)
	args = append(args, b.Args...)
	return Predicate{
		SQL:  "(" + a.SQL + " " + op + " " + b.SQL + ")",
		Args: args,
	}
}

// CountQuery counts distinct values of a group expression under a filter.
type CountQuery struct {
	Table string
	Expr  string
	Joins []string
	Where Predicate
}

// GroupQuery is one grouped aggregation round trip.
type GroupQuery struct {
	Table   string
	Selects []string
	Joins   []string
	Where   Predicate
	GroupBy []string
	Order   string
	Limit   int
	Offset  int
}

// Store is the storage capability the engine consumes. The engine never
// issues raw queries itself beyond composing these two calls; the concrete
// implementation lives in the repository layer on top of GORM.
type Store interface {
	// Dialect identifies the SQL dialect ("postgres", "sqlite") so the
	// dimension resolver and aggregation planner can emit matching
	// expressions.
	Dialect() string
	CountDistinct(ctx context.Context, q CountQuery) (int64, error)
	FindGrouped(ctx context.Context, q GroupQuery) ([]GroupRow, error)
}

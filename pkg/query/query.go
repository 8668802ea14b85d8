package query

// Operator identifies a predicate comparison kind.
type Operator string

const (
	OpEq          Operator = "eq"
	OpNeq         Operator = "neq"
	OpGt          Operator = "gt"
	OpGte         Operator = "gte"
	OpLt          Operator = "lt"
	OpLte         Operator = "lte"
	OpContains    Operator = "contains"
	OpContainsAny Operator = "contains-any"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not-in"
)

// Direction defines the ordering direction of a sort clause.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// DefaultPageSize is applied when a paged query does not specify a size.
const DefaultPageSize = 50

// Predicate is a single field comparison condition. Immutable once constructed;
// validation happens in the translator.
type Predicate struct {
	Field string
	Op    Operator
	Value any
}

// Order is a single ordering clause.
type Order struct {
	Field     string
	Direction Direction
}

// Conditional groups predicates into an OR group and an AND group. The two
// groups are combined with AND; an empty group applies no constraint.
type Conditional struct {
	Or  []Predicate
	And []Predicate
}

// Query is a flat filter: predicates applied in sequence, implicitly ANDed,
// with optional ordering and pagination.
type Query struct {
	Where []Predicate
	Order []Order
	Size  int
	Page  int
}

// ConditionalQuery is a composite filter with optional ordering and pagination.
type ConditionalQuery struct {
	Where Conditional
	Order []Order
	Size  int
	Page  int
}

// SizeOrDefault returns the page size, falling back to DefaultPageSize.
func (q Query) SizeOrDefault() int {
	if q.Size > 0 {
		return q.Size
	}
	return DefaultPageSize
}

// PageOrDefault returns the 1-indexed page number, falling back to 1.
func (q Query) PageOrDefault() int {
	if q.Page > 0 {
		return q.Page
	}
	return 1
}

// SizeOrDefault returns the page size, falling back to DefaultPageSize.
func (q ConditionalQuery) SizeOrDefault() int {
	if q.Size > 0 {
		return q.Size
	}
	return DefaultPageSize
}

// PageOrDefault returns the 1-indexed page number, falling back to 1.
func (q ConditionalQuery) PageOrDefault() int {
	if q.Page > 0 {
		return q.Page
	}
	return 1
}

// Eq is a construction helper for the most common predicate.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// Where is a construction helper for an arbitrary predicate.
func Where(field string, op Operator, value any) Predicate {
	return Predicate{Field: field, Op: op, Value: value}
}

// OrderBy is a construction helper for an ordering clause.
func OrderBy(field string, dir Direction) Order {
	return Order{Field: field, Direction: dir}
}

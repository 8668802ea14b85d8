package query

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrUnknownOperator indicates a predicate with an operator outside the
	// supported set. Reported by the translator, never silently ignored.
	ErrUnknownOperator = errors.New("unknown filter operator")

	// ErrValueKind indicates a predicate value whose kind does not fit its
	// operator (e.g. a list operator with a scalar value).
	ErrValueKind = errors.New("filter value kind does not match operator")
)

// Filter is a compiled store-level filter document.
type Filter = map[string]any

// translateFunc compiles one predicate into a store filter clause.
type translateFunc func(p Predicate) (Filter, error)

// operatorTable maps each operator to its translation. Adding an operator is
// a one-place change.
var operatorTable = map[Operator]translateFunc{
	OpEq:          comparison("$eq"),
	OpNeq:         comparison("$ne"),
	OpGt:          comparison("$gt"),
	OpGte:         comparison("$gte"),
	OpLt:          comparison("$lt"),
	OpLte:         comparison("$lte"),
	OpContains:    translateContains,
	OpContainsAny: membership("$in"),
	OpIn:          membership("$in"),
	OpNotIn:       membership("$nin"),
}

// Translate compiles a single predicate into a store filter clause.
func Translate(p Predicate) (Filter, error) {
	fn, ok := operatorTable[p.Op]
	if !ok {
		return nil, fmt.Errorf("%w: %q on field %q", ErrUnknownOperator, p.Op, p.Field)
	}
	return fn(p)
}

// CompileFlat compiles a flat predicate sequence: predicates are applied in
// declaration order and implicitly ANDed. An empty sequence compiles to a
// filter with no constraint.
func CompileFlat(preds []Predicate) (Filter, error) {
	clauses, err := compileAll(preds)
	if err != nil {
		return nil, err
	}
	return andClauses(clauses), nil
}

// CompileConditional compiles a composite filter: an OR group built from the
// Or predicates and an AND group built from the And predicates, the two
// combined with AND. An empty group is an identity, so a fully empty
// conditional compiles to a filter with no constraint rather than matching
// nothing.
func CompileConditional(c Conditional) (Filter, error) {
	groups := make([]Filter, 0, 2)

	if len(c.Or) > 0 {
		orClauses, err := compileAll(c.Or)
		if err != nil {
			return nil, err
		}
		groups = append(groups, Filter{"$or": orClauses})
	}
	if len(c.And) > 0 {
		andGroup, err := compileAll(c.And)
		if err != nil {
			return nil, err
		}
		groups = append(groups, andClauses(andGroup))
	}

	return andClauses(groups), nil
}

func compileAll(preds []Predicate) ([]Filter, error) {
	clauses := make([]Filter, 0, len(preds))
	for _, p := range preds {
		clause, err := Translate(p)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
}

func andClauses(clauses []Filter) Filter {
	switch len(clauses) {
	case 0:
		return Filter{}
	case 1:
		return clauses[0]
	default:
		members := make([]any, len(clauses))
		for i, c := range clauses {
			members[i] = c
		}
		return Filter{"$and": members}
	}
}

// comparison builds a total-order translation. The value must be a scalar;
// comparing against lists, maps, or structs is a comparison-kind mismatch and
// fails deterministically instead of silently matching nothing.
func comparison(storeOp string) translateFunc {
	return func(p Predicate) (Filter, error) {
		if !isScalar(p.Value) {
			return nil, fmt.Errorf("%w: operator %q on field %q requires a scalar value, got %T",
				ErrValueKind, p.Op, p.Field, p.Value)
		}
		return Filter{p.Field: Filter{storeOp: p.Value}}, nil
	}
}

// membership builds a set-membership translation. The value must be a list.
func membership(storeOp string) translateFunc {
	return func(p Predicate) (Filter, error) {
		if !isList(p.Value) {
			return nil, fmt.Errorf("%w: operator %q on field %q requires a list value, got %T",
				ErrValueKind, p.Op, p.Field, p.Value)
		}
		return Filter{p.Field: Filter{storeOp: p.Value}}, nil
	}
}

// translateContains matches array-valued fields containing the given element.
func translateContains(p Predicate) (Filter, error) {
	if !isScalar(p.Value) {
		return nil, fmt.Errorf("%w: operator %q on field %q requires a scalar element, got %T",
			ErrValueKind, p.Op, p.Field, p.Value)
	}
	return Filter{p.Field: Filter{"$all": []any{p.Value}}}, nil
}

func isScalar(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(time.Time); ok {
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	default:
		return false
	}
}

// Package filter models content-API filter expressions as a tree of typed nodes.
//
// A filter is built from Cond leaves combined with And, Or and Not. Trees serialize to and
// from the nested map form clients send ({"title": {"$contains": "x"}}) and compile to
// parameterised PostgreSQL for the entity repository.
package filter

import "strings"

// Operator names the comparison performed by a Cond.
type Operator string

const (
	OpEq         Operator = "$eq"
	OpNe         Operator = "$ne"
	OpLt         Operator = "$lt"
	OpLte        Operator = "$lte"
	OpGt         Operator = "$gt"
	OpGte        Operator = "$gte"
	OpIn         Operator = "$in"
	OpNotIn      Operator = "$notIn"
	OpNull       Operator = "$null"
	OpNotNull    Operator = "$notNull"
	OpContains   Operator = "$contains"
	OpContainsi  Operator = "$containsi"
	OpStartsWith Operator = "$startsWith"
)

const (
	keyAnd = "$and"
	keyOr  = "$or"
	keyNot = "$not"
)

// Valid reports whether op is a supported leaf operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn, OpNull, OpNotNull,
		OpContains, OpContainsi, OpStartsWith:
		return true
	}
	return false
}

// Expr is a node of a filter expression.
type Expr interface {
	node()
}

// Cond compares the attribute at Path with Value.
type Cond struct {
	Path  []string
	Op    Operator
	Value interface{}
}

// And holds when every child holds.
type And []Expr

// Or holds when any child holds.
type Or []Expr

// Not negates its child.
type Not struct {
	Expr Expr
}

func (Cond) node() {}
func (And) node()  {}
func (Or) node()   {}
func (Not) node()  {}

// Field returns the dotted path of the condition.
func (c Cond) Field() string {
	return strings.Join(c.Path, ".")
}

// IsEmpty reports whether e filters nothing.
func IsEmpty(e Expr) bool {
	switch v := e.(type) {
	case nil:
		return true
	case And:
		return len(v) == 0
	case Or:
		return len(v) == 0
	}
	return false
}

func path(field string) []string {
	return strings.Split(field, ".")
}

func Eq(field string, value interface{}) Cond {
	return Cond{Path: path(field), Op: OpEq, Value: value}
}

func Ne(field string, value interface{}) Cond {
	return Cond{Path: path(field), Op: OpNe, Value: value}
}

func Contains(field, value string) Cond {
	return Cond{Path: path(field), Op: OpContains, Value: value}
}

func StartsWith(field, prefix string) Cond {
	return Cond{Path: path(field), Op: OpStartsWith, Value: prefix}
}

// In matches when the attribute equals one of values.
func In(field string, values []string) Cond {
	return Cond{Path: path(field), Op: OpIn, Value: stringsToList(values)}
}

// NotIn matches when the attribute equals none of values.
func NotIn(field string, values []string) Cond {
	return Cond{Path: path(field), Op: OpNotIn, Value: stringsToList(values)}
}

// IsNull matches an absent attribute or relation.
func IsNull(field string) Cond {
	return Cond{Path: path(field), Op: OpNull, Value: true}
}

func NotNull(field string) Cond {
	return Cond{Path: path(field), Op: OpNotNull, Value: true}
}

func stringsToList(values []string) []interface{} {
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = v
	}
	return list
}

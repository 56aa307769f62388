package filter

import (
	"fmt"
	"strings"
)

// Column is the SQL target of a filter path.
type Column struct {
	// Expr is the quoted column reference, e.g. "category_ko"."name".
	Expr string
	// Join names the relation that must be joined for Expr to resolve; empty for own columns.
	Join string
	// Text marks textual columns; pattern operators cast other columns to text.
	Text bool
}

// Resolver maps attribute paths to columns and rejects unknown or private attributes.
type Resolver interface {
	ResolveColumn(path []string) (Column, error)
}

// SQL is a compiled WHERE fragment with positional arguments.
type SQL struct {
	Where string
	Args  []interface{}
	// Joins lists the relations referenced by Where in first-use order.
	Joins []string
}

// Compile renders e as a PostgreSQL boolean expression. Placeholders start at $offset+1.
// An empty expression compiles to an empty Where.
func Compile(e Expr, r Resolver, offset int) (SQL, error) {
	if IsEmpty(e) {
		return SQL{}, nil
	}
	c := &compiler{resolver: r, offset: offset, seen: map[string]bool{}}
	where, err := c.expr(e)
	if err != nil {
		return SQL{}, err
	}
	return SQL{Where: where, Args: c.args, Joins: c.joins}, nil
}

type compiler struct {
	resolver Resolver
	offset   int
	args     []interface{}
	joins    []string
	seen     map[string]bool
}

func (c *compiler) bind(v interface{}) string {
	c.args = append(c.args, v)
	return fmt.Sprintf("$%d", c.offset+len(c.args))
}

func (c *compiler) expr(e Expr) (string, error) {
	switch v := e.(type) {
	case Cond:
		return c.cond(v)
	case And:
		return c.group(v, " AND ", "TRUE")
	case Or:
		return c.group(v, " OR ", "FALSE")
	case Not:
		if v.Expr == nil {
			return "", fmt.Errorf("empty negation")
		}
		inner, err := c.expr(v.Expr)
		if err != nil {
			return "", err
		}
		return "NOT (" + inner + ")", nil
	case nil:
		return "TRUE", nil
	}
	return "", fmt.Errorf("unsupported filter node %T", e)
}

func (c *compiler) group(children []Expr, sep, empty string) (string, error) {
	if len(children) == 0 {
		return empty, nil
	}
	parts := make([]string, 0, len(children))
	for _, child := range children {
		part, err := c.expr(child)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

var comparisons = map[Operator]string{
	OpEq:  "=",
	OpNe:  "<>",
	OpLt:  "<",
	OpLte: "<=",
	OpGt:  ">",
	OpGte: ">=",
}

func (c *compiler) cond(cond Cond) (string, error) {
	if len(cond.Path) == 0 {
		return "", fmt.Errorf("condition without attribute")
	}
	if !cond.Op.Valid() {
		return "", fmt.Errorf("unknown filter operator %q", cond.Op)
	}
	col, err := c.resolver.ResolveColumn(cond.Path)
	if err != nil {
		return "", err
	}
	if col.Join != "" && !c.seen[col.Join] {
		c.seen[col.Join] = true
		c.joins = append(c.joins, col.Join)
	}

	switch cond.Op {
	case OpEq, OpNe, OpLt, OpLte, OpGt, OpGte:
		if cond.Value == nil {
			if cond.Op == OpEq {
				return col.Expr + " IS NULL", nil
			}
			if cond.Op == OpNe {
				return col.Expr + " IS NOT NULL", nil
			}
			return "", fmt.Errorf("%s on %s requires a value", cond.Op, cond.Field())
		}
		if !scalar(cond.Value) {
			return "", fmt.Errorf("%s on %s requires a scalar value", cond.Op, cond.Field())
		}
		return col.Expr + " " + comparisons[cond.Op] + " " + c.bind(cond.Value), nil

	case OpIn, OpNotIn:
		list, ok := cond.Value.([]interface{})
		if !ok {
			return "", fmt.Errorf("%s on %s requires a list", cond.Op, cond.Field())
		}
		if len(list) == 0 {
			if cond.Op == OpIn {
				return "FALSE", nil
			}
			return "TRUE", nil
		}
		placeholders := make([]string, len(list))
		for i, item := range list {
			if !scalar(item) {
				return "", fmt.Errorf("%s on %s requires scalar items", cond.Op, cond.Field())
			}
			placeholders[i] = c.bind(item)
		}
		keyword := " IN ("
		if cond.Op == OpNotIn {
			keyword = " NOT IN ("
		}
		return col.Expr + keyword + strings.Join(placeholders, ", ") + ")", nil

	case OpNull, OpNotNull:
		isNull, _ := cond.Value.(bool)
		if cond.Op == OpNotNull {
			isNull = !isNull
		}
		if isNull {
			return col.Expr + " IS NULL", nil
		}
		return col.Expr + " IS NOT NULL", nil

	case OpContains, OpContainsi, OpStartsWith:
		s, ok := cond.Value.(string)
		if !ok {
			return "", fmt.Errorf("%s on %s requires a string", cond.Op, cond.Field())
		}
		target := col.Expr
		if !col.Text {
			target = "CAST(" + col.Expr + " AS TEXT)"
		}
		pattern := "%" + escapeLike(s) + "%"
		if cond.Op == OpStartsWith {
			pattern = escapeLike(s) + "%"
		}
		like := " LIKE "
		if cond.Op == OpContainsi {
			like = " ILIKE "
		}
		return target + like + c.bind(pattern), nil
	}
	return "", fmt.Errorf("unsupported filter operator %q", cond.Op)
}

func scalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64, uint, uint32, uint64:
		return true
	}
	return false
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

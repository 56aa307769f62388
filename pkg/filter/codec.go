package filter

import (
	"fmt"
	"sort"
	"strings"
)

const maxDepth = 12

// ToMap renders e in the nested map form accepted by FromMap. A nil expression renders as
// an empty map.
func ToMap(e Expr) map[string]interface{} {
	switch v := e.(type) {
	case nil:
		return map[string]interface{}{}
	case Cond:
		var out interface{} = map[string]interface{}{string(v.Op): v.Value}
		for i := len(v.Path) - 1; i >= 0; i-- {
			out = map[string]interface{}{v.Path[i]: out}
		}
		return out.(map[string]interface{})
	case And:
		return map[string]interface{}{keyAnd: mapList(v)}
	case Or:
		return map[string]interface{}{keyOr: mapList(v)}
	case Not:
		return map[string]interface{}{keyNot: ToMap(v.Expr)}
	}
	return map[string]interface{}{}
}

func mapList(children []Expr) []interface{} {
	list := make([]interface{}, len(children))
	for i, child := range children {
		list[i] = ToMap(child)
	}
	return list
}

// FromMap parses the nested map form into an expression tree. Keys are visited in sorted
// order and an object with several keys becomes an And of its parts. An empty map yields nil.
func FromMap(m map[string]interface{}) (Expr, error) {
	return parseObject(m, nil, 0)
}

func parseObject(m map[string]interface{}, prefix []string, depth int) (Expr, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("filter nested too deeply")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make(And, 0, len(keys))
	for _, key := range keys {
		part, err := parseEntry(key, m[key], prefix, depth)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	switch len(parts) {
	case 0:
		return nil, nil
	case 1:
		return parts[0], nil
	}
	return parts, nil
}

func parseEntry(key string, value interface{}, prefix []string, depth int) (Expr, error) {
	switch key {
	case keyAnd, keyOr:
		children, err := parseList(key, value, prefix, depth)
		if err != nil {
			return nil, err
		}
		if key == keyAnd {
			return And(children), nil
		}
		return Or(children), nil
	case keyNot:
		obj, ok := value.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s expects an object", keyNot)
		}
		inner, err := parseObject(obj, prefix, depth+1)
		if err != nil {
			return nil, err
		}
		if inner == nil {
			return nil, fmt.Errorf("%s expects a non-empty object", keyNot)
		}
		return Not{Expr: inner}, nil
	}

	if strings.HasPrefix(key, "$") {
		op := Operator(key)
		if !op.Valid() {
			return nil, fmt.Errorf("unknown filter operator %q", key)
		}
		if len(prefix) == 0 {
			return nil, fmt.Errorf("operator %q must follow an attribute", key)
		}
		normalized, err := normalizeValue(op, value)
		if err != nil {
			return nil, err
		}
		return Cond{Path: copyPath(prefix), Op: op, Value: normalized}, nil
	}

	if key == "" {
		return nil, fmt.Errorf("empty attribute name")
	}
	field := append(copyPath(prefix), key)
	switch v := value.(type) {
	case map[string]interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("attribute %q has an empty condition", strings.Join(field, "."))
		}
		return parseObject(v, field, depth+1)
	case nil:
		return Cond{Path: field, Op: OpNull, Value: true}, nil
	case []interface{}:
		return Cond{Path: field, Op: OpIn, Value: v}, nil
	default:
		return Cond{Path: field, Op: OpEq, Value: v}, nil
	}
}

func parseList(key string, value interface{}, prefix []string, depth int) ([]Expr, error) {
	var items []interface{}
	switch v := value.(type) {
	case []interface{}:
		items = v
	case []map[string]interface{}:
		for _, item := range v {
			items = append(items, item)
		}
	default:
		return nil, fmt.Errorf("%s expects a list", key)
	}

	children := make([]Expr, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%s expects a list of objects", key)
		}
		child, err := parseObject(obj, prefix, depth+1)
		if err != nil {
			return nil, err
		}
		if child != nil {
			children = append(children, child)
		}
	}
	return children, nil
}

func normalizeValue(op Operator, value interface{}) (interface{}, error) {
	switch op {
	case OpIn, OpNotIn:
		switch v := value.(type) {
		case []interface{}:
			return v, nil
		case []string:
			return stringsToList(v), nil
		case nil:
			return []interface{}{}, nil
		default:
			return []interface{}{v}, nil
		}
	case OpNull, OpNotNull:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			switch strings.ToLower(v) {
			case "true", "1", "":
				return true, nil
			case "false", "0":
				return false, nil
			}
		}
		return nil, fmt.Errorf("%s expects a boolean", op)
	case OpContains, OpContainsi, OpStartsWith:
		if _, ok := value.(string); !ok {
			return fmt.Sprint(value), nil
		}
	}
	return value, nil
}

func copyPath(p []string) []string {
	out := make([]string, len(p))
	copy(out, p)
	return out
}

package filter

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const maxListIndex = 100

// Nested decodes the bracketed keys under root (root[a][b][0]=v) into nested maps and lists.
// Objects whose keys are all integers become lists ordered by index, an empty trailing
// bracket (root[a][]=v) appends, and repeated keys collect into a list. It returns nil when
// no key uses root.
func Nested(values url.Values, root string) (map[string]interface{}, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasPrefix(k, root+"[") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	tree := map[string]interface{}{}
	for _, key := range keys {
		segs, err := splitKey(key[len(root):])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		if err := insert(tree, segs, values[key]); err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
	}

	out, err := listify(tree)
	if err != nil {
		return nil, err
	}
	m, ok := out.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an object", root)
	}
	return m, nil
}

// FromQuery decodes filters[...] parameters into an expression tree.
func FromQuery(values url.Values) (Expr, error) {
	tree, err := Nested(values, "filters")
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, nil
	}
	return FromMap(tree)
}

func splitKey(rest string) ([]string, error) {
	var segs []string
	for rest != "" {
		if rest[0] != '[' {
			return nil, fmt.Errorf("malformed key")
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated bracket")
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}
	if len(segs) > maxDepth {
		return nil, fmt.Errorf("key nested too deeply")
	}
	for i, seg := range segs {
		if seg == "" && i != len(segs)-1 {
			return nil, fmt.Errorf("empty bracket must be last")
		}
	}
	return segs, nil
}

func insert(tree map[string]interface{}, segs []string, vals []string) error {
	appendMode := segs[len(segs)-1] == ""
	if appendMode {
		segs = segs[:len(segs)-1]
	}
	if len(segs) == 0 {
		return fmt.Errorf("missing attribute")
	}

	var leaf interface{}
	if appendMode || len(vals) > 1 {
		leaf = stringsToList(vals)
	} else {
		leaf = vals[0]
	}

	cur := tree
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg]
		if !ok {
			m := map[string]interface{}{}
			cur[seg] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("conflicting value for %q", seg)
		}
		cur = m
	}

	last := segs[len(segs)-1]
	existing, ok := cur[last]
	if !ok {
		cur[last] = leaf
		return nil
	}
	list, isList := existing.([]interface{})
	add, addList := leaf.([]interface{})
	if !isList || !addList {
		return fmt.Errorf("conflicting value for %q", last)
	}
	cur[last] = append(list, add...)
	return nil
}

func listify(node interface{}) (interface{}, error) {
	m, ok := node.(map[string]interface{})
	if !ok {
		return node, nil
	}
	for k, v := range m {
		converted, err := listify(v)
		if err != nil {
			return nil, err
		}
		m[k] = converted
	}
	if len(m) == 0 {
		return m, nil
	}

	type item struct {
		index int
		value interface{}
	}
	items := make([]item, 0, len(m))
	for k, v := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return m, nil
		}
		if i > maxListIndex {
			return nil, fmt.Errorf("list index %d exceeds %d", i, maxListIndex)
		}
		items = append(items, item{index: i, value: v})
	}
	sort.Slice(items, func(a, b int) bool { return items[a].index < items[b].index })

	list := make([]interface{}, len(items))
	for i, it := range items {
		list[i] = it.value
	}
	return list, nil
}

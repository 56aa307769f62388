package filter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, e Expr) string {
	t.Helper()
	raw, err := json.Marshal(ToMap(e))
	require.NoError(t, err)
	return string(raw)
}

func TestToMapGeneralFeed(t *testing.T) {
	e := Or{IsNull("category_ko"), NotIn("category_ko.name", []string{"Jobs"})}

	assert.JSONEq(t,
		`{"$or":[{"category_ko":{"$null":true}},{"category_ko":{"name":{"$notIn":["Jobs"]}}}]}`,
		render(t, e))
}

func TestToMapRecruitFeed(t *testing.T) {
	assert.JSONEq(t, `{"category_ko":{"name":{"$in":["Jobs"]}}}`,
		render(t, In("category_ko.name", []string{"Jobs"})))
}

func TestToMapComposed(t *testing.T) {
	e := Compose(Contains("title", "notice"), Or{IsNull("category_ko"), NotIn("category_ko.name", []string{"Jobs"})})

	assert.JSONEq(t,
		`{"$and":[{"title":{"$contains":"notice"}},{"$or":[{"category_ko":{"$null":true}},{"category_ko":{"name":{"$notIn":["Jobs"]}}}]}]}`,
		render(t, e))
}

func TestToMapNil(t *testing.T) {
	assert.Equal(t, "{}", render(t, nil))
}

func TestFromMapRoundTrip(t *testing.T) {
	original := And{
		Contains("title", "notice"),
		Or{IsNull("category_ko"), NotIn("category_ko.name", []string{"Jobs", "Interns"})},
		Not{Expr: Eq("views", float64(0))},
	}

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(render(t, original)), &decoded))

	parsed, err := FromMap(decoded)
	require.NoError(t, err)
	assert.Equal(t, render(t, original), render(t, parsed))
}

func TestFromMapMultipleKeysSortedIntoAnd(t *testing.T) {
	parsed, err := FromMap(map[string]interface{}{
		"views": map[string]interface{}{"$gt": "10"},
		"title": map[string]interface{}{"$startsWith": "A", "$containsi": "b"},
	})
	require.NoError(t, err)

	assert.Equal(t, And{
		And{
			Cond{Path: []string{"title"}, Op: OpStartsWith, Value: "A"},
			Cond{Path: []string{"title"}, Op: OpContainsi, Value: "b"},
		},
		Cond{Path: []string{"views"}, Op: OpGt, Value: "10"},
	}, parsed)
}

func TestFromMapImplicitEquality(t *testing.T) {
	parsed, err := FromMap(map[string]interface{}{"title": "hello"})
	require.NoError(t, err)
	assert.Equal(t, Eq("title", "hello"), parsed)
}

func TestFromMapNormalizesOperands(t *testing.T) {
	parsed, err := FromMap(map[string]interface{}{
		"category_ko": map[string]interface{}{"$null": "true"},
	})
	require.NoError(t, err)
	assert.Equal(t, IsNull("category_ko"), parsed)

	parsed, err = FromMap(map[string]interface{}{
		"category_ko": map[string]interface{}{"name": map[string]interface{}{"$in": "Jobs"}},
	})
	require.NoError(t, err)
	assert.Equal(t, In("category_ko.name", []string{"Jobs"}), parsed)
}

func TestFromMapEmpty(t *testing.T) {
	parsed, err := FromMap(map[string]interface{}{})
	require.NoError(t, err)
	assert.Nil(t, parsed)
}

func TestFromMapRejectsBadInput(t *testing.T) {
	cases := map[string]map[string]interface{}{
		"unknown operator":   {"title": map[string]interface{}{"$regex": ".*"}},
		"root operator":      {"$eq": "x"},
		"or not a list":      {"$or": map[string]interface{}{"title": "x"}},
		"null not a boolean": {"title": map[string]interface{}{"$null": "maybe"}},
		"empty condition":    {"title": map[string]interface{}{}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromMap(input)
			assert.Error(t, err)
		})
	}
}

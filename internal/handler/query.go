package handler

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/cmc-renewal/cms-api/internal/models"
	appErrors "github.com/cmc-renewal/cms-api/pkg/errors"
	"github.com/cmc-renewal/cms-api/pkg/filter"
)

var indexedKey = regexp.MustCompile(`^\[(\d*)\]$`)

// sanitizeQuery parses the content API query string. Attribute names are checked against the
// schema by the repository; this only rejects malformed parameters.
func sanitizeQuery(c *gin.Context) (models.EntityQuery, error) {
	values := c.Request.URL.Query()
	var q models.EntityQuery

	where, err := filter.FromQuery(values)
	if err != nil {
		return q, invalidQueryParam("filters", err)
	}
	q.Filters = where

	for _, raw := range listParam(values, "sort") {
		field, dir, _ := strings.Cut(raw, ":")
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
			q.Sort = append(q.Sort, models.SortField{Field: field})
		case "desc":
			q.Sort = append(q.Sort, models.SortField{Field: field, Desc: true})
		default:
			return q, appErrors.Clone(appErrors.ErrValidation, "Invalid sort direction "+dir)
		}
	}

	q.Fields = listParam(values, "fields")
	q.Populate = populateParam(values)

	if q.Page, err = intParam(values, "pagination[page]"); err != nil {
		return q, err
	}
	if q.PageSize, err = intParam(values, "pagination[pageSize]"); err != nil {
		return q, err
	}
	if !q.OffsetInRange() {
		return q, appErrors.Clone(appErrors.ErrValidation, "Invalid pagination[page]")
	}

	q.Status = values.Get("status")
	return q, nil
}

// listParam collects root=a,b and root[n]=a in index order.
func listParam(values url.Values, root string) []string {
	var out []string
	for _, v := range values[root] {
		out = append(out, splitList(v)...)
	}

	type indexed struct {
		idx   int
		value string
	}
	var items []indexed
	for key, vs := range values {
		if !strings.HasPrefix(key, root+"[") {
			continue
		}
		m := indexedKey.FindStringSubmatch(key[len(root):])
		if m == nil {
			continue
		}
		idx := len(items)
		if m[1] != "" {
			idx, _ = strconv.Atoi(m[1])
		}
		for _, v := range vs {
			items = append(items, indexed{idx: idx, value: strings.TrimSpace(v)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].idx < items[j].idx })
	for _, it := range items {
		if it.value != "" {
			out = append(out, it.value)
		}
	}
	return out
}

// populateParam accepts populate=*, populate=a,b, populate[0]=a and populate[a][...]=...
func populateParam(values url.Values) []string {
	var named []string
	for key := range values {
		if !strings.HasPrefix(key, "populate[") || indexedKey.MatchString(key[len("populate"):]) {
			continue
		}
		name, _, ok := strings.Cut(key[len("populate["):], "]")
		if ok && name != "" {
			named = append(named, name)
		}
	}
	sort.Strings(named)
	return lo.Uniq(append(listParam(values, "populate"), named...))
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intParam(values url.Values, key string) (int, error) {
	raw := values.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "Invalid "+key)
	}
	return n, nil
}

func invalidQueryParam(param string, err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid "+param+": "+err.Error())
}

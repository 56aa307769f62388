package models

import (
	"math"

	"github.com/cmc-renewal/cms-api/pkg/filter"
)

// Entity is a content record keyed by attribute name.
type Entity map[string]interface{}

// ID returns the numeric id of the record, or 0.
func (e Entity) ID() int64 {
	switch v := e["id"].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

// String returns the attribute as a string, or "".
func (e Entity) String(name string) string {
	s, _ := e[name].(string)
	return s
}

// Publication states accepted by the content API.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// Pagination limits.
const (
	DefaultPageSize = 25
	MaxPageSize     = 100
	// MaxOffset bounds the row offset a page may start at.
	MaxOffset = math.MaxInt32
)

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, pageSize, total int) Pagination {
	pageCount := 0
	if pageSize > 0 {
		pageCount = (total + pageSize - 1) / pageSize
	}
	return Pagination{Page: page, PageSize: pageSize, PageCount: pageCount, Total: total}
}

// SortField orders results by one attribute.
type SortField struct {
	Field string
	Desc  bool
}

// EntityQuery is a sanitized content query.
type EntityQuery struct {
	Filters  filter.Expr
	Fields   []string
	Sort     []SortField
	Populate []string
	Page     int
	PageSize int
	// Status is published (default) or draft; ignored for types without draft and publish.
	Status string
}

// Normalize applies the default page, page size and status. Pages past MaxOffset are clamped.
func (q EntityQuery) Normalize() EntityQuery {
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if !q.OffsetInRange() {
		q.Page = MaxOffset/q.PageSize + 1
	}
	if q.Status == "" {
		q.Status = StatusPublished
	}
	return q
}

// OffsetInRange reports whether the requested page starts at or below MaxOffset.
func (q EntityQuery) OffsetInRange() bool {
	size := q.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return q.Page < 1 || q.Page-1 <= MaxOffset/size
}

// Offset returns the row offset of the requested page.
func (q EntityQuery) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Package pagination parses list query parameters and builds the metadata
// returned alongside every paginated list.
package pagination

import (
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps Skip far below the int64 range for any page size.
	MaxPage         = 1_000_000
)

// Params is a parsed list request.
type Params struct {
	Page     int
	PageSize int
	Search   string
}

// Meta describes where a page sits in the full result set.
type Meta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// Page is the response envelope for list endpoints.
type Page[T any] struct {
	Data       []T  `json:"data"`
	Pagination Meta `json:"pagination"`
}

// Parse reads page, pageSize (or per_page / limit) and search from the query string.
func Parse(r *http.Request) Params {
	q := r.URL.Query()
	return New(
		atoiDefault(q.Get("page"), DefaultPage),
		atoiDefault(firstNonEmpty(q.Get("pageSize"), q.Get("per_page"), q.Get("limit")), DefaultPageSize),
		q.Get("search"),
	)
}

// New normalizes raw values into Params.
func New(page, pageSize int, search string) Params {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Params{Page: page, PageSize: pageSize, Search: strings.TrimSpace(search)}
}

// Skip is the number of records before this page.
func (p Params) Skip() int64 { return int64(p.Page-1) * int64(p.PageSize) }

// Limit is the maximum number of records on this page.
func (p Params) Limit() int64 { return int64(p.PageSize) }

// BuildMeta computes pagination metadata for total matching records.
func BuildMeta(total int64, p Params) Meta {
	totalPages := 0
	if total > 0 && p.PageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	return Meta{
		Page:       p.Page,
		PageSize:   p.PageSize,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    p.Page > 1,
		HasNext:    p.Page < totalPages,
	}
}

// NewPage wraps items with their metadata. A nil slice is returned as empty.
func NewPage[T any](items []T, total int64, p Params) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Pagination: BuildMeta(total, p)}
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

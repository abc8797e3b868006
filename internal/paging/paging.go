// Package paging implements the keyword filter and page slicing shared by the
// user and role listings.
package paging

import "strings"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Query selects one page of a listing. Page is 1-based.
type Query struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Keyword  string `json:"keyword,omitempty"`
}

// Limits bounds the page size a caller may request.
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Page is one slice of an ordered listing plus the size of the full match set.
type Page[T any] struct {
	List     []T `json:"list"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{DefaultPageSize: DefaultPageSize, MaxPageSize: MaxPageSize}
}

// Normalize clamps q into l. A page below 1 becomes 1, a non-positive page
// size becomes the default and an oversized one is capped.
func (q Query) Normalize(l Limits) Query {
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = DefaultPageSize
	}
	if l.MaxPageSize < l.DefaultPageSize {
		l.MaxPageSize = l.DefaultPageSize
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = l.DefaultPageSize
	}
	if q.PageSize > l.MaxPageSize {
		q.PageSize = l.MaxPageSize
	}
	q.Keyword = strings.TrimSpace(q.Keyword)
	return q
}

// Match reports whether keyword is a case-insensitive substring of any field.
// An empty keyword matches everything.
func Match(keyword string, fields ...string) bool {
	if keyword == "" {
		return true
	}
	needle := strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// Slice cuts the requested page out of items, which must already be filtered
// and ordered. Pages past the end yield an empty, non-nil list.
func Slice[T any](items []T, q Query) Page[T] {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}

	out := Page[T]{
		List:     []T{},
		Total:    len(items),
		Page:     q.Page,
		PageSize: q.PageSize,
	}

	if q.Page-1 > len(items)/q.PageSize {
		return out
	}
	start := (q.Page - 1) * q.PageSize
	if start >= len(items) {
		return out
	}
	end := start + q.PageSize
	if end > len(items) {
		end = len(items)
	}

	out.List = append(out.List, items[start:end]...)
	return out
}

// Package pagination turns lenient page/limit/sort query parameters into
// bounded, deterministically ordered pages.
package pagination

import (
	"math"
	"strings"

	"vidhub/internal/httpx"
)

const (
	DefaultCommentLimit = 3
	DefaultVideoLimit   = 10
	MaxLimit            = 100

	// maxPage keeps (Page-1)*Limit inside int for any Limit <= MaxLimit.
	maxPage = math.MaxInt / MaxLimit
)

type Params struct {
	Page  int
	Limit int
	Desc  bool
}

// ParseParams never fails: page < 1 becomes 1, a missing or non-numeric
// limit becomes def, limit is capped at MaxLimit, and any sortOrder other
// than "asc" sorts descending. Out-of-range numbers are clamped, never wrapped.
func ParseParams(page, limit, sortOrder string, def int) Params {
	p := Params{Page: httpx.ParseInt(page, 1), Limit: httpx.ParseInt(limit, def), Desc: !strings.EqualFold(sortOrder, "asc")}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > maxPage {
		p.Page = maxPage
	}
	if p.Limit < 1 {
		p.Limit = def
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Params) Offset() int { return (p.Page - 1) * p.Limit }

// Direction renders the SQL sort keyword.
func (p Params) Direction() string {
	if p.Desc {
		return "DESC"
	}
	return "ASC"
}

// OrderBy sorts by column and breaks ties on tiebreak in the same direction,
// so concatenated pages never repeat or skip rows with equal sort keys.
func (p Params) OrderBy(column, tiebreak string) string {
	dir := p.Direction()
	return " ORDER BY " + column + " " + dir + ", " + tiebreak + " " + dir
}

// TotalPages is ceil(total/limit), and 0 for an empty collection.
func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

type Page[T any] struct {
	Items       []T   `json:"items"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalCount  int64 `json:"totalCount"`
}

func NewPage[T any](items []T, p Params, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, CurrentPage: p.Page, TotalPages: TotalPages(total, p.Limit), TotalCount: total}
}

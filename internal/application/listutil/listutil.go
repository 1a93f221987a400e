package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page; 0 means everything on one page
}

// FilterParams carries search and filter parameters for ledger listings.
type FilterParams struct {
	Search string // case-insensitive substring of player name or description
	Kind   string // one of Kinds, or empty for every kind
	Unpaid bool   // only attendance rows not yet paid
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage)
}

// ListParams combines all list view parameters.
type ListParams struct {
	PageParams
	FilterParams
}

// DefaultPerPage is used when per_page is present but not an allowed value.
const DefaultPerPage = 20

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 20, 50, 100, 200}

// Record kinds accepted by the kind filter.
const (
	KindAttendance = "attendance"
	KindCourt      = "court"
	KindExpense    = "expense"
	KindCollection = "collection"
)

// Kinds lists every accepted kind filter value.
var Kinds = []string{KindAttendance, KindCourt, KindExpense, KindCollection}

// ParsePageParams extracts page and per_page from URL query values.
// Without per_page the listing is unpaged so row handles stay visible together.
// PRE: none
// POST: returns PageParams with Page >= 1 and PerPage 0 or an allowed option
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	raw := q.Get("per_page")
	if raw == "" {
		return PageParams{Page: page}
	}
	perPage, _ := strconv.Atoi(raw)
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseFilterParams extracts q, kind and unpaid from URL query values.
// PRE: none
// POST: Kind is empty or one of Kinds
func ParseFilterParams(q url.Values) FilterParams {
	kind := strings.ToLower(strings.TrimSpace(q.Get("kind")))
	if !isAllowed(kind, Kinds) {
		kind = ""
	}
	unpaid, _ := strconv.ParseBool(q.Get("unpaid"))
	return FilterParams{
		Search: strings.TrimSpace(q.Get("q")),
		Kind:   kind,
		Unpaid: unpaid,
	}
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values) ListParams {
	return ListParams{
		PageParams:   ParsePageParams(q),
		FilterParams: ParseFilterParams(q),
	}
}

// Matches reports whether the search term occurs in any of fields, ignoring case.
// An empty search matches everything.
func (f FilterParams) Matches(fields ...string) bool {
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range;
// perPage 0 yields a single page holding every row
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = total
		if perPage < 1 {
			perPage = 1
		}
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the index of the first row on the current page.
// PRE: PageInfo is valid
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// PRE: PageInfo is valid
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// PRE: PageInfo is valid
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// PageNumbers returns the page numbers to display in pagination controls.
// Shows at most 5 pages centered around the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := p.Page - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination returns true if pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.TotalPages > 1
}

// Slice returns the items on the page described by info.
// PRE: len(items) == info.Total
// POST: Returns items[StartRow-1:EndRow], or nil when empty
func Slice[T any](items []T, info PageInfo) []T {
	if info.Total == 0 {
		return nil
	}
	return items[info.Offset():info.EndRow()]
}

func isValidPerPage(n int) bool {
	return isAllowedInt(n, PerPageOptions)
}

func isAllowedInt(n int, allowed []int) bool {
	for _, a := range allowed {
		if n == a {
			return true
		}
	}
	return false
}

func isAllowed(s string, allowed []string) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}

package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// PerPage is the fixed number of rows per page on every list view.
const PerPage = 10

// SearchKey is the query-string key carrying the free-text search term.
const SearchKey = "search"

// ListParams carries the page and search term parsed from a request.
type ListParams struct {
	Page   int    // 1-indexed page number
	Search string // trimmed free-text search term
}

// ParseListParams extracts page and search from URL query values.
// PRE: none
// POST: Page >= 1; Search has surrounding whitespace removed
func ParseListParams(q url.Values) ListParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	return ListParams{Page: page, Search: strings.TrimSpace(q.Get(SearchKey))}
}

// Search is a case-insensitive substring match over a fixed set of columns.
type Search struct {
	Term    string
	Columns []string // trusted SQL expressions, never user input
}

// likeEscaper escapes LIKE metacharacters so user input matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes the LIKE wildcards in term.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Predicate renders the search as "(LOWER(c1) LIKE ? ESCAPE '\' OR ...)".
// PRE: Columns are trusted SQL expressions
// POST: Returns "" and nil args when the term is blank or there are no columns
func (s Search) Predicate() (string, []any) {
	term := strings.TrimSpace(s.Term)
	if term == "" || len(s.Columns) == 0 {
		return "", nil
	}
	pattern := "%" + EscapeLike(strings.ToLower(term)) + "%"
	parts := make([]string, len(s.Columns))
	args := make([]any, len(s.Columns))
	for i, c := range s.Columns {
		parts[i] = "LOWER(" + c + `) LIKE ? ESCAPE '\'`
		args[i] = pattern
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// Query renders the count and page statements of one list view from a single
// predicate, so the total and the rows shown always agree.
type Query struct {
	From       string   // FROM clause body, e.g. "registration r JOIN user u ON u.id = r.user_id"
	Conditions []string // fixed conditions ANDed with the search
	Args       []any    // args for Conditions, in order
	Search     Search
	OrderBy    string // trusted ORDER BY expression
}

// where builds the shared WHERE clause and its args.
func (q Query) where() (string, []any) {
	conds := append([]string(nil), q.Conditions...)
	args := append([]any(nil), q.Args...)
	if pred, predArgs := q.Search.Predicate(); pred != "" {
		conds = append(conds, pred)
		args = append(args, predArgs...)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Count renders the COUNT(*) statement.
// POST: Uses the same WHERE clause as Page
func (q Query) Count() (string, []any) {
	where, args := q.where()
	return "SELECT COUNT(*) FROM " + q.From + where, args
}

// Page renders the row statement for one page.
// PRE: columns is a trusted select list
// POST: Rows are limited to p.PerPage starting at p.Offset()
func (q Query) Page(columns string, p PageInfo) (string, []any) {
	if p.PerPage < 1 {
		p = NewPageInfo(p.Page, 0)
	}
	where, args := q.where()
	stmt := "SELECT " + columns + " FROM " + q.From + where
	if q.OrderBy != "" {
		stmt += " ORDER BY " + q.OrderBy
	}
	stmt += " LIMIT ? OFFSET ?"
	return stmt, append(args, p.PerPage, p.Offset())
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage), at least 1
}

// NewPageInfo computes pagination metadata for a fixed page size.
// PRE: total >= 0
// POST: TotalPages >= 1; Page clamped to [1, TotalPages]
func NewPageInfo(page, total int) PageInfo {
	return newPageInfo(page, PerPage, total)
}

func newPageInfo(page, perPage, total int) PageInfo {
	if total < 0 {
		total = 0
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

// Offset returns the SQL OFFSET for the current page.
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first row number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// POST: Returns min(Offset+PerPage, Total)
func (p PageInfo) EndRow() int {
	end := p.Offset() + p.PerPage
	if end > p.Total {
		end = p.Total
	}
	return end
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

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
	return p.Total > p.PerPage
}

// PageURL renders the query string for page n, preserving the search term.
func (p PageInfo) PageURL(n int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(n))
	if search != "" {
		q.Set(SearchKey, search)
	}
	return "?" + q.Encode()
}

package dashboard

import (
	"nairobify-be/models"
)

// DefaultPageSize is the dashboard table size.
const DefaultPageSize = 10

// Page is one slice of a filtered view.
type Page struct {
	Items     []models.Issue `json:"items"`
	Page      int            `json:"page"`
	PageCount int            `json:"pageCount"`
	PageSize  int            `json:"pageSize"`
	Total     int            `json:"total"`
}

// Paginate returns page number page of filtered. There is always at least one
// page and page is clamped into [1, PageCount].
func Paginate(filtered []models.Issue, pageSize, page int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	pageCount := max(1, (len(filtered)+pageSize-1)/pageSize)
	page = min(max(page, 1), pageCount)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(filtered))
	items := filtered[start:end:end]
	if items == nil {
		items = []models.Issue{}
	}

	return Page{
		Items:     items,
		Page:      page,
		PageCount: pageCount,
		PageSize:  pageSize,
		Total:     len(filtered),
	}
}

func (p Page) HasNext() bool { return p.Page < p.PageCount }
func (p Page) HasPrev() bool { return p.Page > 1 }

// Next is the page after p, or p itself on the last page.
func (p Page) Next() int {
	if p.HasNext() {
		return p.Page + 1
	}
	return p.Page
}

// Prev is the page before p, or p itself on the first page.
func (p Page) Prev() int {
	if p.HasPrev() {
		return p.Page - 1
	}
	return p.Page
}

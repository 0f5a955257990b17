// Package dashboard derives the operator views from an issue snapshot:
// filtered lists, metrics and pages. Every function is pure and recomputes
// from scratch.
package dashboard

import (
	"strings"

	"golang.org/x/text/cases"

	"nairobify-be/models"
)

// Criteria selects the visible issues. Empty Ward or Category behave like
// models.AllFilter.
type Criteria struct {
	Ward       string `form:"ward" json:"ward"`
	Category   string `form:"category" json:"category"`
	SearchText string `form:"search" json:"search"`
}

func (c Criteria) allWards() bool      { return c.Ward == "" || c.Ward == models.AllFilter }
func (c Criteria) allCategories() bool { return c.Category == "" || c.Category == models.AllFilter }

// Filter keeps the issues matching every predicate of c, in input order.
func Filter(issues []models.Issue, c Criteria) []models.Issue {
	if c.allWards() && c.allCategories() && c.SearchText == "" {
		return issues
	}

	fold := cases.Fold()
	needle := fold.String(c.SearchText)

	filtered := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		if !c.allWards() && issue.Ward != c.Ward {
			continue
		}
		if !c.allCategories() && issue.Category != c.Category {
			continue
		}
		if needle != "" &&
			!strings.Contains(fold.String(issue.Ward), needle) &&
			!strings.Contains(fold.String(issue.Description), needle) {
			continue
		}
		filtered = append(filtered, issue)
	}
	return filtered
}

package dashboard

import (
	"nairobify-be/models"
)

// View is everything the dashboard renders for one set of criteria.
type View struct {
	Criteria Criteria `json:"criteria"`
	Metrics  Metrics  `json:"metrics"`
	Page     Page     `json:"page"`
	Version  uint64   `json:"version"`
}

// Build filters snapshot once and derives the metrics and the requested page
// from the same filtered view.
func Build(snapshot []models.Issue, c Criteria, pageSize, page int) View {
	filtered := Filter(snapshot, c)
	return View{
		Criteria: c,
		Metrics:  Aggregate(filtered),
		Page:     Paginate(filtered, pageSize, page),
	}
}

package dashboard

import (
	"time"

	"nairobify-be/models"
)

// Bucket is one bar of a histogram.
type Bucket struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Histogram keeps a fixed key order so chart axes stay stable.
type Histogram []Bucket

// Count returns the count for key, 0 when the key is not in the histogram.
func (h Histogram) Count(key string) int {
	for _, b := range h {
		if b.Key == key {
			return b.Count
		}
	}
	return 0
}

func (h Histogram) Sum() int {
	total := 0
	for _, b := range h {
		total += b.Count
	}
	return total
}

// Metrics summarises a filtered view.
type Metrics struct {
	Total            int       `json:"total"`
	Pending          int       `json:"pending"`
	Resolved         int       `json:"resolved"`
	AvgResponseHours float64   `json:"avgResponseHours"`
	ByWard           Histogram `json:"byWard"`
	ByCategory       Histogram `json:"byCategory"`
	ByStatus         Histogram `json:"byStatus"`
}

// Aggregate computes Metrics over filtered. Wards and categories outside the
// enumerations count towards Total but appear in no histogram bar.
func Aggregate(filtered []models.Issue) Metrics {
	wardCounts := make(map[string]int, len(models.Wards))
	categoryCounts := make(map[string]int, len(models.Categories))
	statusCounts := make(map[models.IssueStatus]int, len(models.Statuses))

	m := Metrics{Total: len(filtered)}
	var responseHours float64

	for _, issue := range filtered {
		wardCounts[issue.Ward]++
		categoryCounts[issue.Category]++
		statusCounts[issue.Status]++

		switch {
		case issue.Status == models.Resolved:
			m.Resolved++
			responseHours += float64(epochSeconds(issue.UpdatedAt)-epochSeconds(issue.CreatedAt)) / 3600
		case issue.Status.Pending():
			m.Pending++
		}
	}

	m.AvgResponseHours = responseHours / float64(max(1, m.Resolved))

	m.ByWard = make(Histogram, 0, len(models.Wards))
	for _, ward := range models.Wards {
		m.ByWard = append(m.ByWard, Bucket{Key: ward, Count: wardCounts[ward]})
	}

	m.ByCategory = make(Histogram, 0, len(models.Categories))
	for _, c := range models.Categories {
		m.ByCategory = append(m.ByCategory, Bucket{Key: c.Label, Count: categoryCounts[c.ID]})
	}

	m.ByStatus = make(Histogram, 0, len(models.Statuses))
	for _, s := range models.Statuses {
		m.ByStatus = append(m.ByStatus, Bucket{Key: s.Label, Count: statusCounts[s.ID]})
	}
	return m
}

// A missing timestamp counts as second 0 of the epoch.
func epochSeconds(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

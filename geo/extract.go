// Package geo turns free-text issue locations into map coordinates.
package geo

import (
	"regexp"
	"sort"
	"strconv"

	"nairobify-be/models"
)

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CityCentroid is used whenever a location carries no coordinate pair.
var CityCentroid = Coordinates{Lat: -1.286389, Lng: 36.817223}

var coordPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?),\s*(-?\d+(?:\.\d+)?)`)

// ExtractCoordinates returns the first "lat,lng" pair found in locationText,
// or CityCentroid. Values are not range checked.
func ExtractCoordinates(locationText string) Coordinates {
	c, _ := extract(locationText)
	return c
}

func extract(locationText string) (Coordinates, bool) {
	if locationText == "" {
		return CityCentroid, false
	}
	m := coordPattern.FindStringSubmatch(locationText)
	if m == nil {
		return CityCentroid, false
	}
	// The pattern only admits decimal literals; a range error still yields ±Inf,
	// which is passed through like any other out-of-range value.
	lat, _ := strconv.ParseFloat(m[1], 64)
	lng, _ := strconv.ParseFloat(m[2], 64)
	return Coordinates{Lat: lat, Lng: lng}, true
}

// Marker is an issue positioned on the map.
type Marker struct {
	ID          string             `json:"id"`
	Category    string             `json:"category"`
	Label       string             `json:"label"`
	Description string             `json:"description"`
	Ward        string             `json:"ward"`
	Status      models.IssueStatus `json:"status"`
	Position    Coordinates        `json:"position"`
	Fallback    bool               `json:"fallback"`
}

// DefaultMarkerLimit matches the home page map preview.
const DefaultMarkerLimit = 10

// Markers places the most recent issues on the map. The input is not modified.
func Markers(issues []models.Issue, limit int) []Marker {
	if limit <= 0 {
		limit = DefaultMarkerLimit
	}

	latest := make([]models.Issue, len(issues))
	copy(latest, issues)
	sort.SliceStable(latest, func(i, j int) bool {
		return unixSeconds(latest[i]) > unixSeconds(latest[j])
	})
	if len(latest) > limit {
		latest = latest[:limit]
	}

	markers := make([]Marker, 0, len(latest))
	for _, issue := range latest {
		pos, found := extract(issue.Location())
		markers = append(markers, Marker{
			ID:          issue.ID,
			Category:    issue.Category,
			Label:       models.CategoryLabel(issue.Category),
			Description: issue.Description,
			Ward:        issue.Ward,
			Status:      issue.Status,
			Position:    pos,
			Fallback:    !found,
		})
	}
	return markers
}

func unixSeconds(issue models.Issue) int64 {
	if issue.CreatedAt.IsZero() {
		return 0
	}
	return issue.CreatedAt.Unix()
}

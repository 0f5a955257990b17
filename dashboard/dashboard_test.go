package dashboard

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nairobify-be/models"
)

var base = time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC)

func issue(id, ward, category string, status models.IssueStatus) models.Issue {
	return models.Issue{
		ID:          id,
		Ward:        ward,
		Category:    category,
		Description: "report " + id,
		Status:      status,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

// randomSnapshot draws wards and categories from the enumerations.
func randomSnapshot(r *rand.Rand, n int) []models.Issue {
	statuses := []models.IssueStatus{models.Reported, models.InProgress, models.Resolved}
	issues := make([]models.Issue, 0, n)
	for i := 0; i < n; i++ {
		created := base.Add(time.Duration(r.Intn(1000)) * time.Hour)
		issues = append(issues, models.Issue{
			ID:          fmt.Sprintf("issue-%d", i),
			Ward:        models.Wards[r.Intn(len(models.Wards))],
			Category:    models.Categories[r.Intn(len(models.Categories))].ID,
			Description: []string{"Pothole near school", "burst PIPE", "no lights", "garbage heap"}[r.Intn(4)],
			Status:      statuses[r.Intn(len(statuses))],
			CreatedAt:   created,
			UpdatedAt:   created.Add(time.Duration(r.Intn(72)) * time.Hour),
		})
	}
	return issues
}

func randomCriteria(r *rand.Rand) Criteria {
	c := Criteria{Ward: models.AllFilter, Category: models.AllFilter}
	if r.Intn(2) == 0 {
		c.Ward = models.Wards[r.Intn(len(models.Wards))]
	}
	if r.Intn(2) == 0 {
		c.Category = models.Categories[r.Intn(len(models.Categories))].ID
	}
	c.SearchText = []string{"", "pipe", "POTHOLE", "kar", "zzz"}[r.Intn(5)]
	return c
}

func TestFilter(t *testing.T) {
	issues := []models.Issue{
		issue("1", "Karen", "roads", models.Reported),
		issue("2", "Kilimani", "water", models.Resolved),
		issue("3", "Karen", "water", models.InProgress),
	}
	issues[1].Description = "Burst pipe along Argwings Kodhek"

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"empty criteria", Criteria{}, []string{"1", "2", "3"}},
		{"all sentinels", Criteria{Ward: "all", Category: "all"}, []string{"1", "2", "3"}},
		{"ward", Criteria{Ward: "Karen"}, []string{"1", "3"}},
		{"ward is case sensitive", Criteria{Ward: "karen"}, []string{}},
		{"category", Criteria{Category: "water"}, []string{"2", "3"}},
		{"ward and category", Criteria{Ward: "Karen", Category: "water"}, []string{"3"}},
		{"search description", Criteria{SearchText: "BURST"}, []string{"2"}},
		{"search ward", Criteria{SearchText: "kile"}, []string{}},
		{"search ward substring", Criteria{SearchText: "limani"}, []string{"2"}},
		{"search combined with ward", Criteria{Ward: "Karen", SearchText: "pipe"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Filter(issues, tt.c)
			ids := make([]string, 0, len(got))
			for _, i := range got {
				ids = append(ids, i.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilter_EmptyCriteriaReturnsInput(t *testing.T) {
	issues := []models.Issue{issue("1", "Karen", "roads", models.Reported)}
	got := Filter(issues, Criteria{Ward: "all", Category: "all"})
	assert.Equal(t, issues, got)
}

func TestFilter_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		snapshot := randomSnapshot(r, r.Intn(60))
		c := randomCriteria(r)
		once := Filter(snapshot, c)
		assert.Equal(t, once, Filter(once, c), "criteria %+v", c)
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	snapshot := randomSnapshot(r, 80)
	position := map[string]int{}
	for i, is := range snapshot {
		position[is.ID] = i
	}

	filtered := Filter(snapshot, Criteria{SearchText: "pipe"})
	for i := 1; i < len(filtered); i++ {
		assert.Less(t, position[filtered[i-1].ID], position[filtered[i].ID])
	}
}

func TestAggregate_Counts(t *testing.T) {
	issues := []models.Issue{
		issue("1", "Karen", "roads", models.Reported),
		issue("2", "Karen", "water", models.InProgress),
		issue("3", "Kilimani", "roads", models.Resolved),
		issue("4", "Kilimani", "noise", models.Resolved),
	}
	issues[2].UpdatedAt = base.Add(4 * time.Hour)
	issues[3].UpdatedAt = base.Add(8 * time.Hour)

	m := Aggregate(issues)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Pending)
	assert.Equal(t, 2, m.Resolved)
	assert.InDelta(t, 6.0, m.AvgResponseHours, 1e-9)

	assert.Len(t, m.ByWard, len(models.Wards))
	assert.Equal(t, 2, m.ByWard.Count("Karen"))
	assert.Equal(t, 2, m.ByWard.Count("Kilimani"))
	assert.Equal(t, 0, m.ByWard.Count("Kasarani"))
	assert.Equal(t, models.Wards[0], m.ByWard[0].Key, "wards keep enumeration order")

	assert.Len(t, m.ByCategory, len(models.Categories))
	assert.Equal(t, 2, m.ByCategory.Count("Potholes / Damaged Roads"))
	assert.Equal(t, 1, m.ByCategory.Count("Noise Pollution"))
	assert.Equal(t, 0, m.ByCategory.Count("roads"), "categories are keyed by label")

	assert.Equal(t, 1, m.ByStatus.Count("Reported"))
	assert.Equal(t, 1, m.ByStatus.Count("In Progress"))
	assert.Equal(t, 2, m.ByStatus.Count("Resolved"))
}

func TestAggregate_ZeroResolvedAverageIsZero(t *testing.T) {
	m := Aggregate(nil)
	assert.Equal(t, 0, m.Total)
	assert.Equal(t, 0.0, m.AvgResponseHours)
	assert.Len(t, m.ByWard, len(models.Wards))
	assert.Equal(t, 0, m.ByWard.Sum())

	m = Aggregate([]models.Issue{issue("1", "Karen", "roads", models.Reported)})
	assert.Equal(t, 0.0, m.AvgResponseHours)
}

func TestAggregate_MissingTimestampsCountAsEpoch(t *testing.T) {
	is := issue("1", "Karen", "roads", models.Resolved)
	is.CreatedAt = time.Time{}
	is.UpdatedAt = time.Unix(7200, 0)

	m := Aggregate([]models.Issue{is})
	assert.InDelta(t, 2.0, m.AvgResponseHours, 1e-9)
}

func TestAggregate_UnknownWardStillCountsInTotal(t *testing.T) {
	m := Aggregate([]models.Issue{issue("1", "", "", models.Reported)})
	assert.Equal(t, 1, m.Total)
	assert.Equal(t, 0, m.ByWard.Sum())
	assert.Equal(t, 0, m.ByCategory.Sum())
}

func TestAggregate_CompletenessAndNonNegativeAverage(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		filtered := Filter(randomSnapshot(r, r.Intn(80)), randomCriteria(r))
		m := Aggregate(filtered)

		assert.Equal(t, m.Total, m.ByWard.Sum())
		assert.Equal(t, m.Total, m.ByCategory.Sum())
		assert.Equal(t, m.Total, m.ByStatus.Sum())
		assert.Equal(t, m.Total, m.Pending+m.Resolved)
		assert.GreaterOrEqual(t, m.AvgResponseHours, 0.0)
	}
}

func TestPaginate_Clamp(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	filtered := randomSnapshot(r, 23)

	tests := []struct {
		name      string
		page      int
		wantPage  int
		wantItems int
	}{
		{"first", 1, 1, 10},
		{"last partial", 3, 3, 3},
		{"beyond end", 5, 3, 3},
		{"zero", 0, 1, 10},
		{"negative", -4, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(filtered, 10, tt.page)
			assert.Equal(t, 3, p.PageCount)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Len(t, p.Items, tt.wantItems)
			assert.Equal(t, 23, p.Total)
		})
	}
}

func TestPaginate_EmptyHasOnePage(t *testing.T) {
	p := Paginate(nil, 10, 3)
	assert.Equal(t, 1, p.PageCount)
	assert.Equal(t, 1, p.Page)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
	assert.False(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestPaginate_InvalidPageSizeUsesDefault(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	p := Paginate(randomSnapshot(r, 15), 0, 1)
	assert.Equal(t, DefaultPageSize, p.PageSize)
	assert.Equal(t, 2, p.PageCount)
}

func TestPaginate_Navigation(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	filtered := randomSnapshot(r, 25)

	p := Paginate(filtered, 10, 1)
	assert.Equal(t, 1, p.Prev(), "prev on first page is a no-op")
	assert.Equal(t, 2, p.Next())

	p = Paginate(filtered, 10, p.Next())
	p = Paginate(filtered, 10, p.Next())
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 3, p.Next(), "next on last page is a no-op")
	assert.Equal(t, 2, p.Prev())
}

func TestPaginate_Coverage(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		filtered := randomSnapshot(r, r.Intn(70))
		size := 1 + r.Intn(15)

		first := Paginate(filtered, size, 1)
		var all []models.Issue
		for page := 1; page <= first.PageCount; page++ {
			all = append(all, Paginate(filtered, size, page).Items...)
		}
		if len(filtered) == 0 {
			assert.Empty(t, all)
			continue
		}
		assert.Equal(t, filtered, all, "size %d", size)
	}
}

func TestBuild_AggregatesAfterFilter(t *testing.T) {
	wards := []string{"Karen", "Kilimani", "Kasarani"}
	var snapshot []models.Issue
	for i := 0; i < 12; i++ {
		snapshot = append(snapshot, issue(fmt.Sprintf("%d", i), wards[i%3], "roads", models.Reported))
	}

	view := Build(snapshot, Criteria{Ward: "Karen", Category: "all"}, 10, 1)

	assert.Equal(t, 4, view.Metrics.Total)
	assert.Equal(t, 4, view.Metrics.ByWard.Count("Karen"))
	assert.Equal(t, 0, view.Metrics.ByWard.Count("Kilimani"))
	assert.Equal(t, 0, view.Metrics.ByWard.Count("Kasarani"))
	require.Len(t, view.Page.Items, 4)
	for _, is := range view.Page.Items {
		assert.Equal(t, "Karen", is.Ward)
	}

	unfiltered := Aggregate(snapshot)
	assert.Equal(t, 4, unfiltered.ByWard.Count("Kilimani"), "the same wards are non-zero before filtering")
}

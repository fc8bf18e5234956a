package upwork

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

func record(id string) *domain.JobRecord {
	return &domain.JobRecord{
		JobID:        domain.Some(id),
		URL:          domain.Some("https://www.upwork.com/jobs/~" + id),
		Title:        domain.Some("Job " + id),
		CategoryName: domain.Some("Chatbots"),
		Type:         domain.Some("Hourly"),
	}
}

func TestConsolidateDropsIncompleteRecords(t *testing.T) {
	withNull := record("2")
	withNull.Title = domain.None[string]()

	withEmptyReviews := record("3")
	withEmptyReviews.Reviews[2] = domain.EmptyReviewSlot()

	rows := Consolidate([]*domain.JobRecord{record("1"), withNull, withEmptyReviews, record("4"), nil}, 10)

	require.Len(t, rows, 2)
	assert.Equal(t, "1", rows[0].ID())
	assert.Equal(t, "4", rows[1].ID())
}

func TestConsolidateTruncatesToLimit(t *testing.T) {
	var recs []*domain.JobRecord
	for _, id := range []string{"a", "b", "c", "d"} {
		recs = append(recs, record(id))
	}
	rows := Consolidate(recs, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, "c", rows[2].ID())

	assert.Empty(t, Consolidate(recs, 0))
}

func TestConsolidateRenamesColumns(t *testing.T) {
	rec := record("1")
	rec.Category = domain.Some("AI Chatbot Development")
	rec.Reviews[0].FreelancerName = domain.Some("Jane D.")
	rec.TotalReviewsCount = domain.Some(1)

	rows := Consolidate([]*domain.JobRecord{rec}, 1)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, domain.Row{
		"ID":                  "1",
		"URL":                 "https://www.upwork.com/jobs/~1",
		"Title":               "Job 1",
		"Category":            "AI Chatbot Development",
		"Type":                "Hourly",
		"Review 1 Freelancer": "Jane D.",
		"Total Reviews":       1,
	}, row)
	assert.NotContains(t, row, "Connects")
}

func TestConsolidateKeepsCategoryNameWhenCategoryMissing(t *testing.T) {
	rows := Consolidate([]*domain.JobRecord{record("1")}, 1)
	require.Len(t, rows, 1)
	assert.Equal(t, "Chatbots", rows[0]["Category"])
}

func TestPresentationName(t *testing.T) {
	tests := map[string]string{
		"job_id":                          "ID",
		"fixed_budget_amount":             "Budget",
		"clientActivity_totalHired":       "Hired",
		"client_review_2_freelancer_name": "Review 2 Freelancer",
		"client_review_3_project_title":   "Review 3 Project",
		"category_urlSlug":                "category_urlSlug",
		"client_review_1_mood":            "client_review_1_mood",
	}
	for in, want := range tests {
		assert.Equal(t, want, PresentationName(in), in)
	}
}

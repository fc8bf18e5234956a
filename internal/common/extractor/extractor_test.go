package extractor

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/cleaner"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func value[T any](t *testing.T, o domain.Opt[T]) T {
	t.Helper()
	v, ok := o.Get()
	require.True(t, ok, "expected a present value, state is %s", o.State())
	return v
}

func TestEngineExtractHourlyJob(t *testing.T) {
	engine := NewJobEngine(arbor.NewLogger())
	rec, err := engine.Extract(fixture(t, "job_hourly.html"), "021234abcd", "https://www.upwork.com/jobs/~021234abcd", true)
	require.NoError(t, err)

	assert.Equal(t, "021234abcd", value(t, rec.JobID))
	assert.Equal(t, "https://www.upwork.com/jobs/~021234abcd", value(t, rec.URL))
	assert.Equal(t, "Build a chatbot", value(t, rec.Title))
	assert.Equal(t, "We need a chatbot for support.\nThanks", value(t, rec.Description))
	assert.Equal(t, TypeHourly, value(t, rec.Type))
	assert.Equal(t, "INTERMEDIATE", value(t, rec.Level))
	assert.Equal(t, 2, value(t, rec.ContractorTier))
	assert.Equal(t, 15.0, value(t, rec.HourlyMin))
	assert.Equal(t, 35.0, value(t, rec.HourlyMax))
	assert.Equal(t, 0.0, value(t, rec.FixedBudgetAmount))
	assert.Equal(t, []string{"Python", "Chatbot", "OpenAI API"}, value(t, rec.Skills))
	assert.Equal(t, 12, value(t, rec.Applicants))
	assert.Equal(t, 2, value(t, rec.ClientActivityTotalHired))
	assert.Equal(t, 16, value(t, rec.ConnectsRequired))
	assert.Equal(t, int64(-14400000), value(t, rec.BuyerLocationOffsetFromUTCMillis))
	assert.Equal(t, "AI Apps & Integration", value(t, rec.CategoryName))
	assert.Equal(t, "AI Chatbot Development", value(t, rec.Category))
	assert.True(t, value(t, rec.PaymentVerified))
	assert.True(t, value(t, rec.PhoneVerified))

	assert.Equal(t, "United States", value(t, rec.ClientCountry))
	assert.Equal(t, "New York", value(t, rec.BuyerLocationCity))
	assert.Equal(t, "10:15 AM", value(t, rec.BuyerLocationLocalTime))
	assert.Equal(t, 14, value(t, rec.BuyerJobsPostedCount))
	assert.Equal(t, 2, value(t, rec.BuyerJobsOpenCount))
	assert.Equal(t, 12500.0, value(t, rec.ClientTotalSpent))
	assert.Equal(t, 9, value(t, rec.ClientHires))
	assert.Equal(t, 3, value(t, rec.BuyerStatsActiveAssignmentsCount))
	assert.Equal(t, 22.4, value(t, rec.BuyerAvgHourlyJobsRateAmount))
	assert.Equal(t, 1204, value(t, rec.BuyerStatsHoursCount))
	assert.Equal(t, "Tech & IT", value(t, rec.ClientIndustry))
	assert.Equal(t, "4.9", value(t, rec.ClientRating))

	assert.Equal(t, 3, value(t, rec.TotalReviewsCount))
	assert.Equal(t, "Landing page redesign", value(t, rec.Reviews[1].ProjectTitle))
	assert.Equal(t, "Fixed-price", value(t, rec.Reviews[1].ProjectType))
	assert.Equal(t, "$1,500.00", value(t, rec.Reviews[1].Budget))
	assert.Equal(t, 4, value(t, rec.Reviews[1].Stars))

	assert.Empty(t, rec.NullColumns())
	assert.True(t, domain.Complete(rec))
}

func TestEngineExtractUnauthenticatedSkipsConnects(t *testing.T) {
	engine := NewJobEngine(arbor.NewLogger())
	rec, err := engine.Extract(fixture(t, "job_hourly.html"), "021234abcd", "https://www.upwork.com/jobs/~021234abcd", false)
	require.NoError(t, err)
	assert.Equal(t, domain.Absent, rec.ConnectsRequired.State())
	assert.True(t, domain.Complete(rec))
}

func TestEngineExtractFixedJob(t *testing.T) {
	engine := NewJobEngine(arbor.NewLogger())
	rec, err := engine.Extract(fixture(t, "job_fixed.html"), "", "https://www.upwork.com/jobs/~0abc", false)
	require.NoError(t, err)

	assert.Equal(t, "0", value(t, rec.JobID))
	assert.Equal(t, TypeFixed, value(t, rec.Type))
	assert.Equal(t, "ENTRY_LEVEL", value(t, rec.Level))
	assert.Equal(t, 500.0, value(t, rec.FixedBudgetAmount))
	assert.Equal(t, 0.0, value(t, rec.HourlyMin))
	assert.Equal(t, 0.0, value(t, rec.HourlyMax))
	assert.False(t, value(t, rec.PaymentVerified))
	assert.True(t, value(t, rec.Premium))
	assert.Equal(t, domain.Absent, rec.Category.State())

	// no client history on the page
	assert.Equal(t, 0, value(t, rec.TotalReviewsCount))
	assert.Equal(t, domain.Null, rec.Reviews[0].ProjectTitle.State())
	assert.False(t, domain.Complete(rec))
}

func TestEngineExtractMissingState(t *testing.T) {
	engine := NewJobEngine(arbor.NewLogger())

	tests := []struct {
		name string
		html string
	}{
		{"no script", "<html><body><div class='job-details-content'><h4>Title</h4></div></body></html>"},
		{"script throws", "<html><body><script>window.__NUXT__=(function(){throw new Error('boom')}());</script></body></html>"},
		{"not an object", "<html><body><script>window.__NUXT__=42;</script></body></html>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine.Extract(tt.html, "1", "https://www.upwork.com/jobs/~1", false)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, ErrExtractionMiss)
		})
	}
}

func TestStructuredStrategyDeadline(t *testing.T) {
	s := NewStructuredStrategy(cleaner.New(), arbor.NewLogger())
	s.deadline = 50 * time.Millisecond

	page := NewPage("<script>window.__NUXT__=(function(){while(true){}}());</script>", "1", "u", false)
	start := time.Now()
	_, err := s.Extract(page)
	assert.ErrorIs(t, err, ErrExtractionMiss)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestStructuredStrategyNullValues(t *testing.T) {
	s := NewStructuredStrategy(cleaner.New(), arbor.NewLogger())
	html := `<script>window.__NUXT__={state:{jobDetails:{job:{type:7,contractorTier:9,clientActivity:null,engagementDuration:{}}}}};</script>`

	rec, err := s.Extract(NewPage(html, "1", "u", true))
	require.NoError(t, err)

	assert.Equal(t, domain.Null, rec.Title.State())
	assert.Equal(t, domain.Null, rec.Description.State())
	assert.Equal(t, domain.Null, rec.Type.State())
	assert.Equal(t, "9", value(t, rec.Level))
	assert.Equal(t, domain.Null, rec.Duration.State())
	assert.Equal(t, domain.Null, rec.Applicants.State())
	assert.Equal(t, domain.Absent, rec.LastBuyerActivity.State())
	assert.Equal(t, domain.Absent, rec.Skills.State())
	assert.Equal(t, domain.Absent, rec.ConnectsRequired.State())
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$12.5K total spent", 12500, true},
		{"$1,234 total spent", 1234, true},
		{"$2M+", 2000000, true},
		{"$22.40 /hr avg", 22.4, true},
		{"no money", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseMoney(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.InDelta(t, tt.want, got, 0.0001, tt.in)
	}
}

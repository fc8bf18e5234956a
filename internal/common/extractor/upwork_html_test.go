package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

func TestSubmatchIntThousands(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"14 jobs posted", 14, true},
		{"1,234 jobs posted", 1234, true},
		{"12,345,678 jobs posted", 12345678, true},
		{"no jobs posted", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			n, ok := submatchInt(jobsPostedPattern, tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestParseClientFeaturesLargeCounts(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<ul>
		<li data-qa="client-job-posting-stats"><strong>1,234 jobs posted</strong><div>80% hire rate, 1,002 open jobs</div></li>
		<li><strong data-qa="client-spend">$2M total spent</strong><div data-qa="client-hires">3,456 hires, 1,200 active</div></li>
	</ul>`))
	require.NoError(t, err)

	rec := &domain.JobRecord{}
	parseClientFeatures(rec, doc.Find("ul"))

	assert.Equal(t, domain.Some(1234), rec.BuyerJobsPostedCount)
	assert.Equal(t, domain.Some(1002), rec.BuyerJobsOpenCount)
	assert.Equal(t, domain.Some(3456), rec.ClientHires)
	assert.Equal(t, domain.Some(1200), rec.BuyerStatsActiveAssignmentsCount)
}

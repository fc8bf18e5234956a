package extractor

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

var (
	historyHeader     = regexp.MustCompile(`(?i)client's recent history`)
	ratingPattern     = regexp.MustCompile(`(\d+\.\d+)`)
	freelancerPattern = regexp.MustCompile(`To freelancer:\s*([^.]+)`)
	dateRangePattern  = regexp.MustCompile(`([A-Za-z]{3}\s+\d{4}\s*-\s*[A-Za-z]{3}\s+\d{4})`)
	dollarPattern     = regexp.MustCompile(`\$([0-9,]+\.?\d*)`)
	hourlyPattern     = regexp.MustCompile(`(\d+)\s*hrs?\s*@\s*\$([0-9.]+)/hr`)
	greenStyle        = regexp.MustCompile(`(?i)color.*green`)

	reviewWords = []string{"good", "great", "excellent", "professional", "work", "project", "deliver", "recommend", "amazing", "understand"}

	containerSelectors = []string{
		`section[data-test="ClientHistory"]`,
		"div.client-history",
		"div.reviews-section",
		`section[data-test="Reviews"]`,
		"div.client-reviews",
	}
	itemSelectors = []string{
		"div.review-item",
		"li.review-item",
		"div.client-review",
		"div.project-item",
	}
)

// ReviewStrategy fills the client review slots from the client's work history.
type ReviewStrategy struct{}

func NewReviewStrategy() *ReviewStrategy { return &ReviewStrategy{} }

func (s *ReviewStrategy) Name() string { return "reviews" }

type review struct {
	title      string
	rating     float64
	hasRating  bool
	stars      int
	hasStars   bool
	text       string
	freelancer string
	dateRange  string
	kind       string
	budget     string
}

func (s *ReviewStrategy) Extract(p *Page) (*domain.JobRecord, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}

	var found []review
	for _, container := range reviewContainers(doc) {
		for _, item := range reviewItems(container) {
			if len(found) == domain.MaxReviewSlots {
				break
			}
			if r, ok := parseReview(item); ok {
				found = append(found, r)
			}
		}
	}

	rec := &domain.JobRecord{TotalReviewsCount: domain.Some(len(found))}
	for i := range rec.Reviews {
		if i < len(found) {
			rec.Reviews[i] = found[i].slot()
		} else {
			rec.Reviews[i] = domain.EmptyReviewSlot()
		}
	}
	return rec, nil
}

func ownText(sel *goquery.Selection) string {
	var b strings.Builder
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return b.String()
}

// reviewContainers returns the first group of candidate history sections found.
// A "Client's recent history" heading stands for its parent element.
func reviewContainers(doc *goquery.Document) []*goquery.Selection {
	var headers []*goquery.Selection
	seen := map[interface{}]bool{}
	doc.Find("body *").Each(func(_ int, sel *goquery.Selection) {
		if !historyHeader.MatchString(ownText(sel)) {
			return
		}
		parent := sel.Parent()
		if parent.Length() == 0 || seen[parent.Get(0)] {
			return
		}
		seen[parent.Get(0)] = true
		headers = append(headers, parent)
	})
	if len(headers) > 0 {
		return headers
	}

	for _, selector := range containerSelectors {
		if found := doc.Find(selector); found.Length() > 0 {
			return splitSelection(found)
		}
	}
	return nil
}

func splitSelection(sel *goquery.Selection) []*goquery.Selection {
	out := make([]*goquery.Selection, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out
}

// reviewItems applies the item heuristics in order and keeps the first that matches.
func reviewItems(container *goquery.Selection) []*goquery.Selection {
	for _, selector := range itemSelectors {
		if found := container.Find(selector); found.Length() > 0 {
			return splitSelection(found)
		}
	}

	var parents []*goquery.Selection
	seen := map[interface{}]bool{}
	container.Find("a.link").Each(func(_ int, a *goquery.Selection) {
		parent := a.Parent()
		if parent.Length() == 0 || seen[parent.Get(0)] {
			return
		}
		seen[parent.Get(0)] = true
		parents = append(parents, parent)
	})
	if len(parents) > 0 {
		return parents
	}

	var starred []*goquery.Selection
	container.Find("div").Each(func(_ int, div *goquery.Selection) {
		hasStarSpan := div.Find("span").FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.TrimSpace(s.Text()) == "★"
		}).Length() > 0
		if hasStarSpan || div.Find("span.star").Length() > 0 || strings.Count(div.Text(), "★") >= 3 {
			starred = append(starred, div)
		}
	})
	return starred
}

func parseReview(item *goquery.Selection) (review, bool) {
	var r review
	raw := item.Text()

	title := item.Find("a.link").First()
	for _, tag := range []string{"h4", "h3", "h5", "strong"} {
		if title.Length() > 0 {
			break
		}
		title = item.Find(tag).First()
	}
	if title.Length() == 0 {
		title = item.Find("div[style]").FilterFunction(func(_ int, s *goquery.Selection) bool {
			style, _ := s.Attr("style")
			return greenStyle.MatchString(style)
		}).First()
	}
	if title.Length() > 0 {
		r.title = text(title)
	}

	if m := ratingPattern.FindStringSubmatch(raw); m != nil {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			r.rating, r.hasRating = f, true
			r.stars, r.hasStars = int(math.Round(f)), true
		}
	}
	stars := strings.Count(raw, "★")
	if stars == 0 {
		stars = strings.Count(raw, "⭐")
	}
	if stars > 0 {
		r.stars, r.hasStars = stars, true
	}

	item.Find("p, div, span").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		t := text(el)
		if len(t) > 20 && mentionsWork(t) {
			r.text = t
			return false
		}
		return true
	})

	if m := freelancerPattern.FindStringSubmatch(raw); m != nil {
		r.freelancer = strings.TrimSpace(m[1])
	}
	if m := dateRangePattern.FindStringSubmatch(raw); m != nil {
		r.dateRange = m[1]
	}

	switch {
	case strings.Contains(raw, "Fixed-price"):
		r.kind = "Fixed-price"
		r.budget = dollarPattern.FindString(raw)
	case strings.Contains(raw, "hrs @") || strings.Contains(raw, "/hr"):
		r.kind = "Hourly"
		if m := hourlyPattern.FindStringSubmatch(raw); m != nil {
			r.budget = fmt.Sprintf("%s hrs @ $%s/hr", m[1], m[2])
		} else {
			r.budget = dollarPattern.FindString(raw)
		}
	}

	return r, r.title != "" || (r.hasRating && r.rating != 0) || r.text != ""
}

func mentionsWork(s string) bool {
	lower := strings.ToLower(s)
	for _, w := range reviewWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func optText(s string) domain.Opt[string] {
	if s == "" {
		return domain.None[string]()
	}
	return domain.Some(s)
}

func (r review) slot() domain.ReviewSlot {
	slot := domain.EmptyReviewSlot()
	slot.ProjectTitle = optText(r.title)
	slot.Text = optText(r.text)
	slot.FreelancerName = optText(r.freelancer)
	slot.DateRange = optText(r.dateRange)
	slot.ProjectType = optText(r.kind)
	slot.Budget = optText(r.budget)
	if r.hasRating {
		slot.Rating = domain.Some(r.rating)
	}
	if r.hasStars {
		slot.Stars = domain.Some(r.stars)
	}
	return slot
}

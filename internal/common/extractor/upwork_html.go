package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/cleaner"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

var (
	jobsPostedPattern = regexp.MustCompile(`(\d[\d,]*)\s+jobs posted`)
	openJobsPattern   = regexp.MustCompile(`(\d[\d,]*)\s+open jobs?`)
	hiresPattern      = regexp.MustCompile(`(\d[\d,]*)\s+hires`)
	activePattern     = regexp.MustCompile(`(\d[\d,]*)\s+active`)
	invitesPattern    = regexp.MustCompile(`Invites sent:\s*(\d+)`)
	unansweredPattern = regexp.MustCompile(`Unanswered invites:\s*(\d+)`)
	connectsPattern   = regexp.MustCompile(`Required Connects to submit a proposal:\s*(\d+)`)
)

const clientSectionSelector = `div[data-test="about-client-container"], div[data-test="AboutClientUser"], div[data-test="AboutClientVisitor"]`

// HTMLStrategy reads attributes from the rendered job page markup.
type HTMLStrategy struct {
	cleaner *cleaner.Cleaner
}

func NewHTMLStrategy(c *cleaner.Cleaner) *HTMLStrategy {
	return &HTMLStrategy{cleaner: c}
}

func (s *HTMLStrategy) Name() string { return "html" }

func (s *HTMLStrategy) Extract(p *Page) (*domain.JobRecord, error) {
	doc, err := p.Document()
	if err != nil {
		return nil, err
	}
	rec := &domain.JobRecord{}

	if title := text(doc.Find("title").First()); strings.Contains(title, " - ") {
		parts := strings.Split(title, " - ")
		rec.Category = domain.Some(strings.TrimSpace(parts[len(parts)-1]))
	}
	rec.PhoneVerified = domain.Some(phoneVerified(doc))

	details := doc.Find("div.job-details-content").First()
	if details.Length() == 0 {
		return rec, nil
	}

	parseClientFeatures(rec, doc.Find("ul.features").First())
	if client := details.Find(clientSectionSelector).First(); client.Length() > 0 {
		parseClientFeatures(rec, client.Find("ul.features").First())
		if rating := text(client.Find("div.air3-rating-value-text").First()); rating != "" {
			rec.ClientRating = domain.Some(rating)
		}
		if reviews := text(client.Find("span.nowrap.mt-1").First()); reviews != "" {
			rec.ClientReviews = domain.Some(reviews)
		}
	}

	if h := text(details.Find("h4").First()); h != "" {
		rec.Title = domain.Some(h)
	}
	if desc := details.Find(`div[data-test="Description"] p`).First(); desc.Length() > 0 {
		if inner, err := desc.Html(); err == nil {
			rec.Description = domain.Some(s.cleaner.Text(inner))
		}
	}

	parseJobFeatures(rec, details.Find("ul.features").First())

	var skills []string
	details.Find("div.air3-line-clamp").Each(func(_ int, sel *goquery.Selection) {
		if skill := text(sel); skill != "" {
			skills = append(skills, skill)
		}
	})
	if len(skills) > 0 {
		rec.Skills = domain.Some(skills)
	}

	parseClientActivity(rec, details)

	if v, ok := labelledValue(details, "Invites sent:", invitesPattern); ok {
		rec.ClientActivityInvitationsSent = v
	}
	if v, ok := labelledValue(details, "Unanswered invites:", unansweredPattern); ok {
		rec.ClientActivityUnansweredInvites = v
	}

	if p.Authenticated {
		connects := text(details.Find(`div[data-test="ConnectsDesktop"]`).First())
		if m := connectsPattern.FindStringSubmatch(connects); m != nil {
			n, _ := strconv.Atoi(m[1])
			rec.ConnectsRequired = domain.Some(n)
		}
	}

	rec.PaymentVerified = domain.Some(strings.Contains(details.Text(), "Payment method verified"))
	return rec, nil
}

// text returns the selection's text with whitespace collapsed.
func text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func phoneVerified(doc *goquery.Document) bool {
	found := false
	doc.Find("div.d-flex").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if sel.Find("div.payment-verified").Length() > 0 &&
			strings.Contains(text(sel.Find("strong").First()), "Phone number verified") {
			found = true
			return false
		}
		return true
	})
	return found
}

func submatchInt(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	return n, err == nil
}

// parseClientFeatures reads the client summary list (location, posting stats, spend, rate, company).
func parseClientFeatures(rec *domain.JobRecord, ul *goquery.Selection) {
	ul.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
		qa, _ := li.Attr("data-qa")
		switch {
		case qa == "client-location":
			if strong := li.Find("strong").First(); strong.Length() > 0 {
				rec.ClientCountry = domain.Some(text(strong))
			}
			spans := li.Find("div").First().Find("span.nowrap")
			if spans.Length() > 0 {
				rec.BuyerLocationCity = domain.Some(text(spans.Eq(0)))
			}
			if spans.Length() > 1 {
				rec.BuyerLocationLocalTime = domain.Some(text(spans.Eq(1)))
			}

		case qa == "client-job-posting-stats":
			if n, ok := submatchInt(jobsPostedPattern, li.Find("strong").First().Text()); ok {
				rec.BuyerJobsPostedCount = domain.Some(n)
			}
			if n, ok := submatchInt(openJobsPattern, li.Find("div").First().Text()); ok {
				rec.BuyerJobsOpenCount = domain.Some(n)
			}

		case li.Find(`strong[data-qa="client-spend"]`).Length() > 0:
			if f, ok := parseMoney(li.Find(`strong[data-qa="client-spend"]`).First().Text()); ok {
				rec.ClientTotalSpent = domain.Some(f)
			}
			hires := li.Find(`div[data-qa="client-hires"]`).First().Text()
			if n, ok := submatchInt(hiresPattern, hires); ok {
				rec.ClientHires = domain.Some(n)
				rec.ClientActivityTotalHired = domain.Some(n)
			}
			if n, ok := submatchInt(activePattern, hires); ok {
				rec.BuyerStatsActiveAssignmentsCount = domain.Some(n)
			}

		case li.Find(`strong[data-qa="client-hourly-rate"]`).Length() > 0:
			if f, ok := parseMoney(li.Find(`strong[data-qa="client-hourly-rate"]`).First().Text()); ok {
				rec.BuyerAvgHourlyJobsRateAmount = domain.Some(f)
			}
			if n, ok := parseFirstInt(li.Find(`div[data-qa="client-hours"]`).First().Text()); ok {
				rec.BuyerStatsHoursCount = domain.Some(n)
			}

		case qa == "client-company-profile":
			if industry := li.Find(`strong[data-qa="client-company-profile-industry"]`).First(); industry.Length() > 0 {
				rec.ClientIndustry = domain.Some(text(industry))
			}
			if size := li.Find(`div[data-qa="client-company-profile-size"]`).First(); size.Length() > 0 {
				rec.ClientCompanySize = domain.Some(text(size))
			}
		}
	})
}

// parseJobFeatures reads budget, type, duration and level from the job feature list.
func parseJobFeatures(rec *domain.JobRecord, ul *goquery.Selection) {
	var amounts []float64
	ul.Find("li").Each(func(_ int, li *goquery.Selection) {
		strong := li.Find("strong").First()
		label := text(li.Find("div.description").First())

		switch {
		case label == TypeFixed:
			rec.Type = domain.Some(TypeFixed)
			if f, ok := parseMoney(li.Find(`div[data-test="BudgetAmount"] strong`).First().Text()); ok {
				rec.FixedBudgetAmount = domain.Some(f)
			}
		case label == TypeHourly:
			rec.Type = domain.Some(TypeHourly)
		case strings.Contains(label, "Duration") && strong.Length() > 0:
			rec.Duration = domain.Some(text(strong))
		case strings.Contains(label, "Experience Level") && strong.Length() > 0:
			rec.Level = domain.Some(levelFromText(text(strong)))
		}

		if v := text(strong); strings.HasPrefix(v, "$") {
			if f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(v, "$"), ",", ""), 64); err == nil {
				amounts = append(amounts, f)
			}
		}
	})

	switch {
	case len(amounts) >= 2:
		rec.HourlyMin = domain.Some(amounts[0])
		rec.HourlyMax = domain.Some(amounts[1])
	case len(amounts) == 1:
		rec.HourlyMin = domain.Some(amounts[0])
	}
}

func levelFromText(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "entry"):
		return "ENTRY_LEVEL"
	case strings.Contains(lower, "intermediate"):
		return "INTERMEDIATE"
	case strings.Contains(lower, "expert"):
		return "EXPERT"
	}
	return s
}

func parseClientActivity(rec *domain.JobRecord, details *goquery.Selection) {
	details.Find(`section[data-test="ClientActivity"] li.ca-item`).Each(func(_ int, li *goquery.Selection) {
		title := text(li.Find("span.title").First())
		value := text(li.Find("div.value").First())
		n, err := strconv.Atoi(value)
		if title == "" || err != nil {
			return
		}
		switch {
		case strings.HasPrefix(title, "Hires") && rec.ClientActivityTotalHired.State() == domain.Absent:
			rec.ClientActivityTotalHired = domain.Some(n)
		case strings.HasPrefix(title, "Interviewing"):
			rec.ClientActivityTotalInvitedToInterview = domain.Some(n)
		}
	})
}

// labelledValue finds the first list item mentioning label and reads its count.
func labelledValue(details *goquery.Selection, label string, re *regexp.Regexp) (domain.Opt[int], bool) {
	var out domain.Opt[int]
	found := false
	details.Find("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if !strings.Contains(li.Text(), label) {
			return true
		}
		found = true
		if v := li.Find("div.value").First(); v.Length() > 0 {
			if n, err := strconv.Atoi(text(v)); err == nil {
				out = domain.Some(n)
			} else {
				out = domain.None[int]()
			}
			return false
		}
		if n, ok := submatchInt(re, text(li)); ok {
			out = domain.Some(n)
		} else {
			found = false
		}
		return false
	})
	return out, found
}

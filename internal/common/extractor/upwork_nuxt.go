package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/ternarybob/arbor"
	"github.com/titanous/json5"

	"github.com/Pascal-automation/uwpork-scrapping/internal/common/cleaner"
	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

const (
	nuxtPrefix = "window.__NUXT__="

	TypeHourly = "Hourly"
	TypeFixed  = "Fixed-price"
)

var nuxtScript = regexp.MustCompile(`<script>window\.__NUXT__=([\s\S]*?)</script>`)

var tierLevels = map[int64]string{
	1: "ENTRY_LEVEL",
	2: "INTERMEDIATE",
	3: "EXPERT",
}

// StructuredStrategy reads the application state the site embeds in every job page.
type StructuredStrategy struct {
	cleaner  *cleaner.Cleaner
	deadline time.Duration
	logger   arbor.ILogger
}

func NewStructuredStrategy(c *cleaner.Cleaner, logger arbor.ILogger) *StructuredStrategy {
	return &StructuredStrategy{cleaner: c, deadline: 5 * time.Second, logger: logger}
}

func (s *StructuredStrategy) Name() string { return "structured" }

func (s *StructuredStrategy) Extract(p *Page) (*domain.JobRecord, error) {
	payload, ok := findNuxtPayload(p)
	if !ok {
		return nil, ErrExtractionMiss
	}
	state, err := evalNuxt(payload, s.deadline)
	if err != nil {
		s.logger.Debug().Str("job_id", p.JobID).Err(err).Msg("Could not evaluate embedded state")
		return nil, fmt.Errorf("%w: %v", ErrExtractionMiss, err)
	}

	rec := &domain.JobRecord{}
	details, ok := state.path("state", "jobDetails")
	if !ok {
		return rec, nil
	}
	job, ok := details.child("job")
	if !ok {
		return rec, nil
	}
	buyer, _ := details.child("buyer")

	s.fillJob(rec, job)
	fillSkills(rec, details)
	fillBuyer(rec, buyer)

	if p.Authenticated {
		if connects, ok := details.child("connects"); ok && len(connects) > 0 {
			rec.ConnectsRequired = optInt(connects.lookup("requiredConnects"))
		}
	}
	return rec, nil
}

func (s *StructuredStrategy) fillJob(rec *domain.JobRecord, job node) {
	rec.Title = orNull(optString(job.lookup("title")))
	rec.Description = orNull(optString(job.lookup("description")))
	if d, ok := rec.Description.Get(); ok {
		rec.Description = domain.Some(s.cleaner.Text(d))
	}

	if group, ok := job.child("categoryGroup"); ok {
		rec.CategoryGroupName = optString(group.lookup("name"))
		rec.CategoryGroupURLSlug = optString(group.lookup("urlSlug"))
	}
	if cat, ok := job.child("category"); ok {
		rec.CategoryName = optString(cat.lookup("name"))
		rec.CategoryURLSlug = optString(cat.lookup("urlSlug"))
	}
	rec.Questions = optAny(job.lookup("questions"))
	rec.Qualifications = optAny(job.lookup("qualifications"))

	if budget, ok := job.child("budget"); ok {
		rec.FixedBudgetAmount = optFloat(budget.lookup("amount"))
		rec.Currency = optString(budget.lookup("currencyCode"))
	}
	if _, ok := job.lookup("extendedBudgetInfo"); ok {
		ext, _ := job.child("extendedBudgetInfo")
		rec.HourlyMin = orNull(optFloat(ext.lookup("hourlyBudgetMin")))
		rec.HourlyMax = orNull(optFloat(ext.lookup("hourlyBudgetMax")))
	}
	if _, ok := job.lookup("engagementDuration"); ok {
		dur, _ := job.child("engagementDuration")
		rec.Duration = orNull(optString(dur.lookup("label")))
	}

	if tier, ok := job.lookup("contractorTier"); ok {
		rec.ContractorTier = optInt(tier, true)
		if n, isNum := toInt(tier); isNum && tierLevels[n] != "" {
			rec.Level = domain.Some(tierLevels[n])
		} else {
			rec.Level = optString(tier, true)
		}
	}
	if t, ok := job.lookup("type"); ok {
		switch n, _ := toInt(t); {
		case t != nil && n == 2:
			rec.Type = domain.Some(TypeHourly)
		case t != nil && n == 1:
			rec.Type = domain.Some(TypeFixed)
		default:
			rec.Type = domain.None[string]()
		}
	}

	if _, ok := job.lookup("clientActivity"); ok {
		ca, _ := job.child("clientActivity")
		rec.ClientActivityTotalHired = orNull(optInt(ca.lookup("totalHired")))
		rec.ClientActivityTotalInvitedToInterview = orNull(optInt(ca.lookup("totalInvitedToInterview")))
		rec.Applicants = orNull(optInt(ca.lookup("totalApplicants")))
		rec.ClientActivityInvitationsSent = orNull(optInt(ca.lookup("invitationsSent")))
		rec.ClientActivityUnansweredInvites = orNull(optInt(ca.lookup("unansweredInvites")))
		rec.LastBuyerActivity = optString(ca.lookup("lastBuyerActivity"))
	}

	rec.IsContractToHire = optBool(job.lookup("isContractToHire"))
	rec.NumberOfPositionsToHire = optInt(job.lookup("numberOfPositionsToHire"))
	rec.Premium = optBool(job.lookup("isPremium"))
	rec.TSCreate = optString(job.lookup("createdOn"))
	rec.TSPublish = optString(job.lookup("publishTime"))
}

// orNull turns an attribute read from a present parent object into Null when the key is missing.
func orNull[T any](o domain.Opt[T]) domain.Opt[T] {
	if o.State() == domain.Absent {
		return domain.None[T]()
	}
	return o
}

func fillSkills(rec *domain.JobRecord, details node) {
	sands, ok := details.child("sands")
	if !ok {
		return
	}
	var skills []string
	for _, g := range sands.list("ontologySkills") {
		group, ok := asNode(g)
		if !ok {
			continue
		}
		for _, c := range group.list("children") {
			if child, ok := asNode(c); ok {
				if name, ok := child["name"].(string); ok {
					skills = append(skills, name)
				}
			}
		}
	}
	for _, a := range sands.list("additionalSkills") {
		if skill, ok := asNode(a); ok {
			if name, ok := skill["name"].(string); ok {
				skills = append(skills, name)
			}
		}
	}
	if len(skills) > 0 {
		rec.Skills = domain.Some(skills)
	}
}

func fillBuyer(rec *domain.JobRecord, buyer node) {
	if buyer == nil {
		return
	}
	rec.PaymentVerified = optBool(buyer.lookup("isPaymentMethodVerified"))
	rec.EnterpriseJob = optBool(buyer.lookup("isEnterprise"))
	if company, ok := buyer.child("company"); ok {
		rec.BuyerCompanyContractDate = optString(company.lookup("contractDate"))
	}
	if loc, ok := buyer.child("location"); ok {
		rec.BuyerLocationCountryTimezone = optString(loc.lookup("countryTimezone"))
		rec.BuyerLocationOffsetFromUTCMillis = optInt64(loc.lookup("offsetFromUtcMillis"))
	}
	if stats, ok := buyer.child("stats"); ok {
		rec.BuyerStatsTotalJobsWithHires = optInt(stats.lookup("totalJobsWithHires"))
	}
}

// findNuxtPayload returns the expression assigned to window.__NUXT__.
func findNuxtPayload(p *Page) (string, bool) {
	var payload string
	if doc, err := p.Document(); err == nil {
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			text := strings.TrimSpace(sel.Text())
			if strings.HasPrefix(text, nuxtPrefix) {
				payload = strings.TrimPrefix(text, nuxtPrefix)
				return false
			}
			return true
		})
	}
	if payload == "" {
		if m := nuxtScript.FindStringSubmatch(p.HTML); m != nil {
			payload = m[1]
		}
	}
	payload = strings.TrimRight(strings.TrimSpace(payload), ";")
	payload = strings.TrimSpace(payload)
	return payload, payload != ""
}

// evalNuxt turns the payload into a plain object. Object literals are decoded
// directly; anything else (usually an IIFE) is run in a sandboxed VM.
func evalNuxt(payload string, deadline time.Duration) (node, error) {
	if strings.HasPrefix(payload, "{") {
		var m map[string]any
		if err := json5.Unmarshal([]byte(payload), &m); err == nil {
			return node(m), nil
		}
	}

	vm := goja.New()
	timer := time.AfterFunc(deadline, func() {
		vm.Interrupt("evaluation deadline exceeded")
	})
	defer timer.Stop()

	if _, err := vm.RunString("var nuxt = " + payload); err != nil {
		return nil, fmt.Errorf("evaluate state: %w", err)
	}
	exported := vm.Get("nuxt").Export()
	state, ok := asNode(exported)
	if !ok {
		return nil, fmt.Errorf("state is %T, not an object", exported)
	}
	return state, nil
}

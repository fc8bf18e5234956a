package upwork

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// DefaultSearchURL is the job search endpoint queries are built against.
const DefaultSearchURL = "https://www.upwork.com/nx/search/jobs/"

var pageSizes = []int{10, 20, 50}

var amountRanges = map[string]string{
	"1": "0-99",
	"2": "100-499",
	"3": "500-999",
	"4": "1000-4999",
	"5": "5000-",
}

var workloads = map[string]string{
	"part_time": "as_needed",
	"full_time": "full_time",
}

var sortOrders = map[string]string{
	"relevance":           "relevance+desc",
	"newest":              "recency",
	"client_total_charge": "client_total_charge+desc",
	"client_rating":       "client_rating+desc",
}

// filterOrder is the order filter keys appear in after q.
var filterOrder = []string{
	"amount", "client_hires", "hourly_rate", "payment_verified", "per_page",
	"sort", "t", "contract_to_hire", "contractor_tier", "duration_v3",
	"nbs", "previous_clients", "proposals", "workload", "category2_uid", "subcategory2_uid",
}

// AdvancedWords are the advanced search fields; any of them replaces q.
type AdvancedWords struct {
	All         string
	Any         string
	None        string
	ExactPhrase string
	Title       string
}

func (w AdvancedWords) query() string {
	var parts []string
	if w.All != "" {
		parts = append(parts, w.All)
	}
	if f := strings.Fields(w.Any); len(f) > 0 {
		parts = append(parts, "("+strings.Join(f, " OR ")+")")
	}
	if f := strings.Fields(w.None); len(f) > 0 {
		for i := range f {
			f[i] = "-" + f[i]
		}
		parts = append(parts, strings.Join(f, " "))
	}
	if w.ExactPhrase != "" {
		parts = append(parts, `"`+w.ExactPhrase+`"`)
	}
	if f := strings.Fields(w.Title); len(f) > 0 {
		for i := range f {
			f[i] = "title:" + f[i]
		}
		parts = append(parts, strings.Join(f, " "))
	}
	return strings.Join(parts, " ")
}

// NormalizedQuery is a search filter translated into site query parameters.
type NormalizedQuery struct {
	Params   map[string]string
	PageSize int
	Words    AdvancedWords
}

// SearchTarget pairs a display query with the URL that lists its results.
type SearchTarget struct {
	Query string
	URL   string
}

// PageSizeFor returns the smallest allowed page size that holds limit results.
func PageSizeFor(limit int) int {
	for _, s := range pageSizes {
		if s >= limit {
			return s
		}
	}
	return pageSizes[len(pageSizes)-1]
}

// Normalize maps a search filter onto site parameters. The returned limit
// includes buffer so that records dropped later still leave enough results.
func Normalize(filter domain.SearchFilter, authenticated bool, buffer int, logger arbor.ILogger) (NormalizedQuery, int) {
	limit := filter.EffectiveLimit() + buffer
	pageSize := PageSizeFor(limit)
	p := map[string]string{"per_page": strconv.Itoa(pageSize)}

	var amounts []string
	for _, c := range filter.FixedPriceCategories {
		if r, ok := amountRanges[c]; ok {
			amounts = append(amounts, r)
		}
	}
	if filter.FixedMin != nil && filter.FixedMax != nil && *filter.FixedMin != 0 && *filter.FixedMax != 0 {
		amounts = append(amounts, strconv.Itoa(*filter.FixedMin)+"-"+strconv.Itoa(*filter.FixedMax))
	}
	setJoined(p, "amount", amounts)

	if filter.HiresMin != nil || filter.HiresMax != nil {
		lo, hi := 0, math.MaxInt
		if filter.HiresMin != nil {
			lo = *filter.HiresMin
		}
		if filter.HiresMax != nil {
			hi = *filter.HiresMax
		}
		var hires []string
		if lo <= 9 && hi >= 1 {
			hires = append(hires, "1-9")
		}
		if hi >= 10 {
			hires = append(hires, "10-")
		}
		setJoined(p, "client_hires", hires)
	}

	setJoined(p, "contractor_tier", filter.ExpertiseLevels)
	setJoined(p, "duration_v3", filter.ProjectDuration)

	switch {
	case filter.HourlyMin != nil && filter.HourlyMax != nil:
		p["hourly_rate"] = strconv.Itoa(*filter.HourlyMin) + "-" + strconv.Itoa(*filter.HourlyMax)
	case filter.HourlyMin != nil:
		p["hourly_rate"] = strconv.Itoa(*filter.HourlyMin) + "-"
	case filter.HourlyMax != nil:
		p["hourly_rate"] = "0-" + strconv.Itoa(*filter.HourlyMax)
	}

	var types []string
	if filter.Hourly {
		types = append(types, "0")
	}
	if filter.Fixed {
		types = append(types, "1")
	}
	setJoined(p, "t", types)

	var loads []string
	for _, w := range filter.Workload {
		if v, ok := workloads[w]; ok {
			loads = append(loads, v)
		}
	}
	setJoined(p, "workload", loads)

	order := filter.Sort
	if order == "" {
		order = "relevance"
	}
	if v, ok := sortOrders[order]; ok {
		p["sort"] = v
	} else {
		p["sort"] = order
	}

	var q []string
	if filter.Query != "" {
		q = append(q, filter.Query)
	}
	if words := strings.Fields(filter.SearchAny); len(words) > 0 {
		q = append(q, "("+strings.Join(words, " OR ")+")")
	}
	if len(q) > 0 {
		p["q"] = strings.Join(q, " AND ")
	}

	if filter.ContractToHire != nil {
		p["contract_to_hire"] = strconv.FormatBool(*filter.ContractToHire)
	}
	if filter.PreviousClients != nil {
		p["previous_clients"] = strconv.FormatBool(*filter.PreviousClients)
	}

	if authenticated {
		setJoined(p, "proposals", filter.ProposalNum)
		if filter.PaymentVerified {
			p["payment_verified"] = "1"
		}
	}

	var mains, subs []string
	for _, name := range filter.Category {
		id, sub, ok := resolveCategory(strings.ToLower(name))
		switch {
		case !ok:
			logger.Warn().Str("category", name).Msg("Category not found in any category map, skipping")
		case sub:
			subs = append(subs, id)
		default:
			mains = append(mains, id)
		}
	}
	setJoined(p, "category2_uid", mains)
	setJoined(p, "subcategory2_uid", subs)

	for k, v := range filter.Extra {
		if _, ok := p[k]; !ok {
			p[k] = v
		}
	}

	return NormalizedQuery{
		Params:   p,
		PageSize: pageSize,
		Words: AdvancedWords{
			All:         filter.AllWords,
			Any:         filter.AnyWords,
			None:        filter.NoneWords,
			ExactPhrase: filter.ExactPhrase,
			Title:       filter.TitleSearch,
		},
	}, limit
}

func setJoined(p map[string]string, key string, values []string) {
	if len(values) > 0 {
		p[key] = strings.Join(values, ",")
	}
}

// BuildSearchURL renders q against base. A query carrying nothing but q
// yields the minimal form base?q=...
func BuildSearchURL(base string, q NormalizedQuery) string {
	if base == "" {
		base = DefaultSearchURL
	}
	text := q.Words.query()
	if text == "" {
		text = q.Params["q"]
	}

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("?q=")
	b.WriteString(url.QueryEscape(text))

	seen := map[string]bool{"q": true}
	for _, k := range filterOrder {
		if v, ok := q.Params[k]; ok {
			writeParam(&b, k, v)
		}
		seen[k] = true
	}

	var rest []string
	for k := range q.Params {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		writeParam(&b, k, q.Params[k])
	}
	return b.String()
}

func writeParam(b *strings.Builder, key, value string) {
	b.WriteByte('&')
	b.WriteString(url.QueryEscape(key))
	b.WriteByte('=')
	b.WriteString(url.QueryEscape(value))
}

// PageURL returns the URL of the given 1-based results page.
func PageURL(searchURL string, page int) string {
	if page <= 1 {
		return searchURL
	}
	sep := "?"
	if strings.Contains(searchURL, "?") {
		sep = "&"
	}
	return searchURL + sep + "page=" + strconv.Itoa(page)
}

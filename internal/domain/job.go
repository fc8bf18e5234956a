package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

const (
	MinLimit     = 1
	MaxLimit     = 200
	DefaultLimit = 5
)

var (
	ErrPartialCredentials = errors.New("username and password must be provided together")
	ErrLimitOutOfRange    = fmt.Errorf("limit must be between %d and %d", MinLimit, MaxLimit)
)

// Input is the request handed to the crawler by its callers.
type Input struct {
	Credentials Credentials  `json:"credentials"`
	Search      SearchFilter `json:"search"`
	General     General      `json:"general"`
}

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Provided reports whether both username and password are set.
func (c Credentials) Provided() bool {
	return c.Username != "" && c.Password != ""
}

// Partial reports whether exactly one of username and password is set.
func (c Credentials) Partial() bool {
	return (c.Username == "") != (c.Password == "")
}

type General struct {
	SaveCSV *bool `json:"save_csv,omitempty"`
}

// ShouldSaveCSV defaults to true.
func (g General) ShouldSaveCSV() bool {
	return g.SaveCSV == nil || *g.SaveCSV
}

// SearchFilter holds the user-supplied search criteria.
type SearchFilter struct {
	Query     string   `json:"query,omitempty"`
	SearchAny string   `json:"search_any,omitempty"`
	Category  []string `json:"category,omitempty"`
	Limit     int      `json:"limit,omitempty"`
	Sort      string   `json:"sort,omitempty"`

	HourlyMin *int `json:"hourly_min,omitempty"`
	HourlyMax *int `json:"hourly_max,omitempty"`
	HiresMin  *int `json:"hires_min,omitempty"`
	HiresMax  *int `json:"hires_max,omitempty"`

	PaymentVerified bool `json:"payment_verified,omitempty"`
	Hourly          bool `json:"hourly,omitempty"`
	Fixed           bool `json:"fixed,omitempty"`

	FixedPriceCategories []string `json:"fixed_price_catagory_num,omitempty"`
	FixedMin             *int     `json:"fixed_min,omitempty"`
	FixedMax             *int     `json:"fixed_max,omitempty"`
	ExpertiseLevels      []string `json:"expertise_level_number,omitempty"`
	ProjectDuration      []string `json:"projectDuration,omitempty"`
	Workload             []string `json:"workload,omitempty"`
	ContractToHire       *bool    `json:"contract_to_hire,omitempty"`
	PreviousClients      *bool    `json:"previous_clients,omitempty"`
	ProposalNum          []string `json:"proposal_num,omitempty"`

	AllWords    string `json:"all_words,omitempty"`
	AnyWords    string `json:"any_words,omitempty"`
	NoneWords   string `json:"none_words,omitempty"`
	ExactPhrase string `json:"exact_phrase,omitempty"`
	TitleSearch string `json:"title_search,omitempty"`

	// Extra carries keys not recognized above; they pass through to the search URL.
	Extra map[string]string `json:"-"`
}

var knownSearchKeys = map[string]bool{
	"query": true, "search_any": true, "category": true, "limit": true, "sort": true,
	"hourly_min": true, "hourly_max": true, "hires_min": true, "hires_max": true,
	"payment_verified": true, "hourly": true, "fixed": true,
	"fixed_price_catagory_num": true, "fixed_min": true, "fixed_max": true,
	"expertise_level_number": true, "projectDuration": true, "workload": true,
	"contract_to_hire": true, "previous_clients": true, "proposal_num": true,
	"all_words": true, "any_words": true, "none_words": true, "exact_phrase": true, "title_search": true,
}

func (f *SearchFilter) UnmarshalJSON(data []byte) error {
	type plain SearchFilter
	var p plain
	aux := struct {
		*plain
		Limit json.RawMessage `json:"limit,omitempty"`
	}{plain: &p}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	limit, err := parseLimit(aux.Limit)
	if err != nil {
		return err
	}
	p.Limit = limit
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		if knownSearchKeys[k] {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]string)
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			s = strings.Trim(string(bytes.TrimSpace(v)), `"`)
		}
		p.Extra[k] = s
	}
	*f = SearchFilter(p)
	return nil
}

// parseLimit accepts a number or a numeric string.
func parseLimit(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid limit %s", raw)
	}
	return int(f), nil
}

// EffectiveLimit returns the requested limit, or the default when unset.
func (f SearchFilter) EffectiveLimit() int {
	if f.Limit == 0 {
		return DefaultLimit
	}
	return f.Limit
}

// Validate enforces the caller contract: both-or-neither credentials and a limit in range.
func (in Input) Validate() error {
	if in.Credentials.Partial() {
		return ErrPartialCredentials
	}
	if l := in.Search.EffectiveLimit(); l < MinLimit || l > MaxLimit {
		return fmt.Errorf("%w: got %d", ErrLimitOutOfRange, l)
	}
	return nil
}

// ParseInput decodes a JSON or JSON5 input document.
func ParseInput(data []byte) (Input, error) {
	var generic any
	if err := json5.Unmarshal(data, &generic); err != nil {
		return Input{}, fmt.Errorf("parse input: %w", err)
	}
	normalized, err := json.Marshal(generic)
	if err != nil {
		return Input{}, fmt.Errorf("normalize input: %w", err)
	}
	var in Input
	if err := json.Unmarshal(normalized, &in); err != nil {
		return Input{}, fmt.Errorf("decode input: %w", err)
	}
	return in, nil
}

// JobListing is one job found on a search results page.
type JobListing struct {
	JobID string `json:"job_id"`
	URL   string `json:"url"`
}

// Row is a consolidated record keyed by presentation names.
type Row map[string]any

// ID returns the job id of the row, if any.
func (r Row) ID() string {
	if v, ok := r["ID"].(string); ok {
		return v
	}
	return ""
}

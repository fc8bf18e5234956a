package domain

import (
	"fmt"
	"reflect"
)

// MaxReviewSlots is the number of client review slots flattened into a record.
const MaxReviewSlots = 3

// JobRecord holds the attributes extracted for one job.
// Column names follow the `col` tags; their order decides which column wins
// when two internal names share a presentation name.
type JobRecord struct {
	JobID Opt[string] `col:"job_id"`
	URL   Opt[string] `col:"url"`

	// Embedded application state
	CategoryGroupName                     Opt[string]   `col:"categoryGroup_name"`
	LastBuyerActivity                     Opt[string]   `col:"lastBuyerActivity"`
	Questions                             Opt[any]      `col:"questions"`
	Qualifications                        Opt[any]      `col:"qualifications"`
	Title                                 Opt[string]   `col:"title"`
	Description                           Opt[string]   `col:"description"`
	FixedBudgetAmount                     Opt[float64]  `col:"fixed_budget_amount"`
	HourlyMin                             Opt[float64]  `col:"hourly_min"`
	HourlyMax                             Opt[float64]  `col:"hourly_max"`
	Duration                              Opt[string]   `col:"duration"`
	Level                                 Opt[string]   `col:"level"`
	Type                                  Opt[string]   `col:"type"`
	Skills                                Opt[[]string] `col:"skills"`
	ClientActivityTotalHired              Opt[int]      `col:"clientActivity_totalHired"`
	ClientActivityTotalInvitedToInterview Opt[int]      `col:"clientActivity_totalInvitedToInterview"`
	Applicants                            Opt[int]      `col:"applicants"`
	ClientActivityInvitationsSent         Opt[int]      `col:"clientActivity_invitationsSent"`
	ClientActivityUnansweredInvites       Opt[int]      `col:"clientActivity_unansweredInvites"`
	ConnectsRequired                      Opt[int]      `col:"connects_required"`
	PaymentVerified                       Opt[bool]     `col:"payment_verified"`
	BuyerCompanyContractDate              Opt[string]   `col:"buyer_company_contractDate"`
	BuyerLocationCountryTimezone          Opt[string]   `col:"buyer_location_countryTimezone"`
	BuyerLocationOffsetFromUTCMillis      Opt[int64]    `col:"buyer_location_offsetFromUtcMillis"`
	BuyerStatsTotalJobsWithHires          Opt[int]      `col:"buyer_stats_totalJobsWithHires"`
	CategoryName                          Opt[string]   `col:"category_name"`
	CategoryURLSlug                       Opt[string]   `col:"category_urlSlug"`
	CategoryGroupURLSlug                  Opt[string]   `col:"categoryGroup_urlSlug"`
	ContractorTier                        Opt[int]      `col:"contractorTier"`
	Currency                              Opt[string]   `col:"currency"`
	EnterpriseJob                         Opt[bool]     `col:"enterpriseJob"`
	IsContractToHire                      Opt[bool]     `col:"isContractToHire"`
	NumberOfPositionsToHire               Opt[int]      `col:"numberOfPositionsToHire"`
	Premium                               Opt[bool]     `col:"premium"`
	TSCreate                              Opt[string]   `col:"ts_create"`
	TSPublish                             Opt[string]   `col:"ts_publish"`

	// Page markup
	Category                         Opt[string]  `col:"category"`
	PhoneVerified                    Opt[bool]    `col:"phone_verified"`
	ClientCountry                    Opt[string]  `col:"client_country"`
	BuyerLocationCity                Opt[string]  `col:"buyer_location_city"`
	BuyerLocationLocalTime           Opt[string]  `col:"buyer_location_localTime"`
	BuyerJobsPostedCount             Opt[int]     `col:"buyer_jobs_postedCount"`
	BuyerJobsOpenCount               Opt[int]     `col:"buyer_jobs_openCount"`
	ClientTotalSpent                 Opt[float64] `col:"client_total_spent"`
	ClientHires                      Opt[int]     `col:"client_hires"`
	BuyerStatsActiveAssignmentsCount Opt[int]     `col:"buyer_stats_activeAssignmentsCount"`
	BuyerAvgHourlyJobsRateAmount     Opt[float64] `col:"buyer_avgHourlyJobsRate_amount"`
	BuyerStatsHoursCount             Opt[int]     `col:"buyer_stats_hoursCount"`
	ClientIndustry                   Opt[string]  `col:"client_industry"`
	ClientCompanySize                Opt[string]  `col:"client_company_size"`
	ClientRating                     Opt[string]  `col:"client_rating"`
	ClientReviews                    Opt[string]  `col:"client_reviews"`

	TotalReviewsCount Opt[int]                   `col:"total_reviews_count"`
	Reviews           [MaxReviewSlots]ReviewSlot `col:"client_review_%d_"`
}

// ReviewSlot is one client review from the job page's client history.
type ReviewSlot struct {
	ProjectTitle   Opt[string]  `col:"project_title"`
	Rating         Opt[float64] `col:"rating"`
	Stars          Opt[int]     `col:"stars"`
	Text           Opt[string]  `col:"text"`
	FreelancerName Opt[string]  `col:"freelancer_name"`
	DateRange      Opt[string]  `col:"date_range"`
	ProjectType    Opt[string]  `col:"project_type"`
	Budget         Opt[string]  `col:"budget"`
}

// EmptyReviewSlot returns a slot whose fields are all null.
func EmptyReviewSlot() ReviewSlot {
	return ReviewSlot{
		ProjectTitle:   None[string](),
		Rating:         None[float64](),
		Stars:          None[int](),
		Text:           None[string](),
		FreelancerName: None[string](),
		DateRange:      None[string](),
		ProjectType:    None[string](),
		Budget:         None[string](),
	}
}

// Column is one flattened record attribute.
type Column struct {
	Name  string
	State OptState
	Value any
}

// Columns flattens the record in declaration order.
func (r *JobRecord) Columns() []Column {
	var cols []Column
	walkColumns(reflect.ValueOf(r).Elem(), "", func(name string, v reflect.Value) {
		o := v.Interface().(optional)
		cols = append(cols, Column{Name: name, State: o.State(), Value: o.Interface()})
	})
	return cols
}

// NullColumns lists the names of the attributes that were produced without a value.
func (r *JobRecord) NullColumns() []string {
	var names []string
	for _, c := range r.Columns() {
		if c.State == Null {
			names = append(names, c.Name)
		}
	}
	return names
}

// Complete reports whether no attribute of r is null.
func Complete(r *JobRecord) bool {
	if r == nil {
		return false
	}
	for _, c := range r.Columns() {
		if c.State == Null {
			return false
		}
	}
	return true
}

// Merge copies into dst every attribute that dst is missing and src carries.
// A present value in dst is never replaced.
func Merge(dst, src *JobRecord) {
	if dst == nil || src == nil {
		return
	}
	mergeValue(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
}

func mergeValue(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag := t.Field(i).Tag.Get("col"); tag == "" || tag == "-" {
			continue
		}
		df, sf := dst.Field(i), src.Field(i)
		if df.Kind() == reflect.Array {
			for j := 0; j < df.Len(); j++ {
				mergeValue(df.Index(j), sf.Index(j))
			}
			continue
		}
		d := df.Interface().(optional).State()
		s := sf.Interface().(optional).State()
		switch {
		case s == Absent, d == Present:
		case s == Present, d == Absent:
			df.Set(sf)
		}
	}
}

func walkColumns(v reflect.Value, prefix string, fn func(name string, v reflect.Value)) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("col")
		if tag == "" || tag == "-" {
			continue
		}
		f := v.Field(i)
		if f.Kind() == reflect.Array {
			for j := 0; j < f.Len(); j++ {
				walkColumns(f.Index(j), prefix+fmt.Sprintf(tag, j+1), fn)
			}
			continue
		}
		fn(prefix+tag, f)
	}
}

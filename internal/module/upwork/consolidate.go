package upwork

import (
	"regexp"

	"github.com/Pascal-automation/uwpork-scrapping/internal/domain"
)

// presentationNames maps record columns to output column names.
var presentationNames = map[string]string{
	"job_id":                                 "ID",
	"title":                                  "Title",
	"description":                            "Description",
	"url":                                    "URL",
	"type":                                   "Type",
	"duration":                               "Duration",
	"level":                                  "Level",
	"currency":                               "Currency",
	"fixed_budget_amount":                    "Budget",
	"hourly_min":                             "Min Rate",
	"hourly_max":                             "Max Rate",
	"category":                               "Category",
	"category_name":                          "Category",
	"categoryGroup_name":                     "Main Category",
	"skills":                                 "Skills",
	"qualifications":                         "Requirements",
	"questions":                              "Questions",
	"client_country":                         "Country",
	"client_company_size":                    "Company Size",
	"client_industry":                        "Industry",
	"client_total_spent":                     "Total Spent",
	"client_hires":                           "Total Hires",
	"client_rating":                          "Rating",
	"client_reviews":                         "Reviews",
	"buyer_location_city":                    "City",
	"buyer_location_localTime":               "Local Time",
	"buyer_location_countryTimezone":         "Timezone",
	"buyer_jobs_postedCount":                 "Jobs Posted",
	"buyer_jobs_openCount":                   "Open Jobs",
	"buyer_avgHourlyJobsRate_amount":         "Avg Rate",
	"buyer_stats_hoursCount":                 "Total Hours",
	"buyer_stats_totalJobsWithHires":         "Jobs with Hires",
	"buyer_stats_activeAssignmentsCount":     "Active Jobs",
	"applicants":                             "Applicants",
	"clientActivity_totalHired":              "Hired",
	"clientActivity_totalInvitedToInterview": "Interviewed",
	"clientActivity_invitationsSent":         "Invites Sent",
	"clientActivity_unansweredInvites":       "Unanswered",
	"connects_required":                      "Connects",
	"payment_verified":                       "Payment Verified",
	"phone_verified":                         "Phone Verified",
	"enterpriseJob":                          "Enterprise",
	"isContractToHire":                       "Contract to Hire",
	"premium":                                "Premium",
	"ts_create":                              "Created",
	"ts_publish":                             "Published",
	"lastBuyerActivity":                      "Last Activity",
	"buyer_company_contractDate":             "Member Since",
	"numberOfPositionsToHire":                "Positions",
	"contractorTier":                         "Tier",
	"buyer_location_offsetFromUtcMillis":     "UTC Offset",
	"total_reviews_count":                    "Total Reviews",
}

var reviewColumn = regexp.MustCompile(`^client_review_(\d+)_(.+)$`)

var reviewFieldNames = map[string]string{
	"project_title":   "Project",
	"rating":          "Rating",
	"stars":           "Stars",
	"text":            "Text",
	"freelancer_name": "Freelancer",
	"date_range":      "Date Range",
	"project_type":    "Type",
	"budget":          "Budget",
}

// PresentationName returns the output name of a record column.
// Unknown columns keep their name.
func PresentationName(column string) string {
	if name, ok := presentationNames[column]; ok {
		return name
	}
	if m := reviewColumn.FindStringSubmatch(column); m != nil {
		if field, ok := reviewFieldNames[m[2]]; ok {
			return "Review " + m[1] + " " + field
		}
	}
	return column
}

// Consolidate keeps complete records only, truncates them to limit and
// renames their columns. Columns no strategy produced are left out.
func Consolidate(records []*domain.JobRecord, limit int) []domain.Row {
	rows := make([]domain.Row, 0, min(len(records), max(limit, 0)))
	for _, rec := range records {
		if len(rows) >= limit {
			break
		}
		if !domain.Complete(rec) {
			continue
		}
		row := make(domain.Row)
		for _, c := range rec.Columns() {
			if c.State != domain.Present {
				continue
			}
			row[PresentationName(c.Name)] = c.Value
		}
		rows = append(rows, row)
	}
	return rows
}

// internal/models/query_types.go
package models

import "fmt"

// Category is the subject area a question is about.
type Category string

const (
	CategoryRegistration Category = "registration"
	CategorySales        Category = "sales"
	CategoryChallan      Category = "challan"
	CategoryFine         Category = "fine"
	CategoryAccident     Category = "accident"
	CategoryLicense      Category = "license"
)

// Action is what the caller wants to know about the category.
type Action string

const (
	ActionCount  Action = "count"
	ActionTotal  Action = "total"
	ActionTop    Action = "top"
	ActionLookup Action = "lookup"
)

// Intent is the classified question. Recognized is false when no rule matched,
// in which case Category and Action are empty.
type Intent struct {
	Recognized bool     `json:"recognized"`
	Category   Category `json:"category,omitempty"`
	Action     Action   `json:"action,omitempty"`
}

// QueryType identifies the template family used for an intent.
func (i Intent) QueryType() string {
	return fmt.Sprintf("%s/%s", i.Category, i.Action)
}

// IsCount reports whether the intent renders as a pluralized count.
func (i Intent) IsCount() bool {
	switch i.Category {
	case CategoryRegistration, CategorySales, CategoryAccident, CategoryLicense:
		return i.Action == ActionCount
	}
	return false
}

// Period is a relative time window named in the question.
type Period string

const (
	PeriodCurrentMonth Period = "current_month"
	PeriodCurrentYear  Period = "current_year"
	PeriodLastMonth    Period = "last_month"
	PeriodLastYear     Period = "last_year"
)

// Filters are the structured constraints found in the question text.
// Zero values mean "not present". Month is only meaningful together with Year.
type Filters struct {
	State       string `json:"state,omitempty"`
	District    string `json:"district,omitempty"`
	VehicleType string `json:"vehicleType,omitempty"`
	Violation   string `json:"violation,omitempty"`
	Month       int    `json:"month,omitempty"`
	Year        int    `json:"year,omitempty"`
	Period      Period `json:"period,omitempty"`
}

// HasMonthAndYear reports whether a month predicate may be applied.
func (f Filters) HasMonthAndYear() bool {
	return f.Month >= 1 && f.Month <= 12 && f.Year != 0
}

// AccessScope is the effective geographic narrowing applied to a query.
type AccessScope struct {
	Allowed   bool   `json:"allowed"`
	State     string `json:"state,omitempty"`
	District  string `json:"district,omitempty"`
	RTOOffice string `json:"rtoOffice,omitempty"`
}

// QueryPlan is a parameterized query ready for the executor.
// Params are ordered to match the $1..$N placeholders in Template.
type QueryPlan struct {
	Allowed  bool          `json:"allowed"`
	Template string        `json:"template,omitempty"`
	Params   []interface{} `json:"params,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// Row is a single result row keyed by column name.
type Row map[string]interface{}

// StatusHint tells the transport which status to report.
type StatusHint string

const (
	StatusOK          StatusHint = "ok"
	StatusBadRequest  StatusHint = "badRequest"
	StatusForbidden   StatusHint = "forbidden"
	StatusServerError StatusHint = "serverError"
)

// internal/chatbot/render/renderer.go
package render

import (
	"errors"
	"fmt"
	"strings"

	"vahan-chatbot/internal/chatbot/filters"
	"vahan-chatbot/internal/models"
)

var ErrFormatFailed = errors.New("RESPONSE_FORMAT_FAILED")

const (
	MsgNoData          = "No data found for your query. Please try different parameters."
	MsgFormatFailed    = "Error formatting response. Please try again."
	MsgUnknownType     = "Unable to format response for this query type."
	MsgFineUnavailable = "⚠️ Fine information not available for this violation and state."
)

// countPhrase is how a count intent opens its answer.
type countPhrase struct {
	icon        string
	noun        string
	verb        string
	vehicleType bool
}

var countPhrases = map[models.Category]countPhrase{
	models.CategoryRegistration: {icon: "📊", noun: "vehicle", verb: "registered", vehicleType: true},
	models.CategorySales:        {icon: "💰", noun: "vehicle", verb: "sold", vehicleType: true},
	models.CategoryAccident:     {icon: "🚨", noun: "accident", verb: "recorded"},
	models.CategoryLicense:      {icon: "📋", noun: "driving license", verb: "issued"},
}

var rankMarkers = []string{"🥇", "🥈", "🥉"}

const otherRankMarker = "📍"

// Render turns result rows into the reply text. On failure it returns
// MsgFormatFailed together with an error wrapping ErrFormatFailed.
func Render(intent models.Intent, f models.Filters, rows []models.Row) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = MsgFormatFailed
			err = fmt.Errorf("%w: %v", ErrFormatFailed, r)
		}
	}()

	if len(rows) == 0 {
		if intent.Category == models.CategoryFine && intent.Action == models.ActionLookup {
			return MsgFineUnavailable, nil
		}
		return MsgNoData, nil
	}

	switch {
	case intent.IsCount():
		text, err = renderCount(countPhrases[intent.Category], f, rows[0])
	case intent.Category == models.CategoryChallan && intent.Action == models.ActionTop:
		text, err = renderTopOffices(rows)
	case intent.Category == models.CategoryChallan && intent.Action == models.ActionTotal:
		text, err = renderChallanTotal(f, rows[0])
	case intent.Category == models.CategoryFine && intent.Action == models.ActionLookup:
		text, err = renderFine(f, rows[0])
	default:
		return MsgUnknownType, nil
	}

	if err != nil {
		return MsgFormatFailed, fmt.Errorf("%w: %s: %v", ErrFormatFailed, intent.QueryType(), err)
	}
	return text, nil
}

func renderCount(phrase countPhrase, f models.Filters, row models.Row) (string, error) {
	count, err := toInt(row["count"])
	if err != nil {
		return "", err
	}

	unit := phrase.noun
	if phrase.vehicleType && f.VehicleType != "" {
		unit = capitalize(f.VehicleType)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Total %s %s%s %s", phrase.icon, grouped(count), unit, plural(count), phrase.verb)

	if f.State != "" {
		sb.WriteString(" in " + titleCase(f.State))
	}
	if f.District != "" {
		sb.WriteString(" (" + titleCase(f.District) + " district)")
	}
	if q := timeQualifier(f); q != "" {
		sb.WriteString(" " + q)
	}
	sb.WriteString(".")
	return sb.String(), nil
}

// timeQualifier follows the same precedence as the query: month and year, then
// year, then a relative period.
func timeQualifier(f models.Filters) string {
	switch {
	case f.HasMonthAndYear():
		return fmt.Sprintf("in %s %d", filters.MonthName(f.Month), f.Year)
	case f.Year != 0:
		return fmt.Sprintf("in %d", f.Year)
	}
	return periodPhrase(f.Period)
}

func periodPhrase(p models.Period) string {
	switch p {
	case models.PeriodCurrentMonth:
		return "this month"
	case models.PeriodCurrentYear:
		return "this year"
	case models.PeriodLastMonth:
		return "last month"
	case models.PeriodLastYear:
		return "last year"
	}
	return ""
}

func renderTopOffices(rows []models.Row) (string, error) {
	var sb strings.Builder
	sb.WriteString("🏆 Top RTOs by Challan Collection:\n\n")

	for i, row := range rows {
		amount, err := toAmount(row["total"])
		if err != nil {
			return "", err
		}
		marker := otherRankMarker
		if i < len(rankMarkers) {
			marker = rankMarkers[i]
		}
		fmt.Fprintf(&sb, "%s %v: ₹%s\n", marker, normalize(row["rto_name"]), lakh(amount))
	}
	return strings.TrimSpace(sb.String()), nil
}

func renderChallanTotal(f models.Filters, row models.Row) (string, error) {
	total, err := toAmount(row["total"])
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("🚔 Total challan collection: ₹" + lakh(total))
	if f.State != "" {
		sb.WriteString(" in " + titleCase(f.State))
	}

	switch {
	case f.HasMonthAndYear():
		fmt.Fprintf(&sb, " (%s %d)", filters.MonthName(f.Month), f.Year)
	case f.Year != 0:
		fmt.Fprintf(&sb, " (%d)", f.Year)
	case f.Period != "":
		sb.WriteString(" (" + capitalize(periodPhrase(f.Period)) + ")")
	}
	sb.WriteString(".")
	return sb.String(), nil
}

func renderFine(f models.Filters, row models.Row) (string, error) {
	amount, err := toAmount(row["fine_amount"])
	if err != nil {
		return "", err
	}
	if amount == 0 {
		return MsgFineUnavailable, nil
	}

	var sb strings.Builder
	sb.WriteString("⚖️ Fine for " + f.Violation)
	if f.State != "" {
		sb.WriteString(" in " + titleCase(f.State))
	}
	sb.WriteString(" is ₹" + groupedAmount(amount) + ".")

	if desc := strings.TrimSpace(fmt.Sprint(normalize(row["description"]))); row["description"] != nil && desc != "" {
		sb.WriteString("\n\n📝 " + desc)
	}
	return sb.String(), nil
}

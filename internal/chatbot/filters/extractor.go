// internal/chatbot/filters/extractor.go
package filters

import (
	"regexp"
	"strconv"
	"strings"

	"vahan-chatbot/internal/models"
)

var yearPattern = regexp.MustCompile(`20(2[0-5])`)

// Extract scans question text for structured filters. It runs regardless of the
// classified intent and never fails; an empty Filters is a valid result.
//
// Categorical fields take the first matching candidate in table order. Month is
// the exception: every month name present is assigned in calendar order, so the
// later month overwrites the earlier one.
func Extract(text string) models.Filters {
	msg := strings.ToLower(text)
	var f models.Filters

	f.State = firstMatch(msg, stateCandidates)

	for _, d := range districts {
		if strings.Contains(msg, d) {
			f.District = d
			break
		}
	}

	for i, m := range monthNames {
		if strings.Contains(msg, m) {
			f.Month = i + 1
		}
	}

	if y := yearPattern.FindString(msg); y != "" {
		f.Year, _ = strconv.Atoi(y)
	}

	switch {
	case strings.Contains(msg, "this month"):
		f.Period = models.PeriodCurrentMonth
	case strings.Contains(msg, "this year"):
		f.Period = models.PeriodCurrentYear
	case strings.Contains(msg, "last month"):
		f.Period = models.PeriodLastMonth
	case strings.Contains(msg, "last year"):
		f.Period = models.PeriodLastYear
	}

	f.VehicleType = firstMatch(msg, vehicleTypeCandidates)
	f.Violation = firstMatch(msg, violationCandidates)

	return f
}

func firstMatch(msg string, candidates []candidate) string {
	for _, c := range candidates {
		for _, p := range c.patterns {
			if strings.Contains(msg, p) {
				return c.name
			}
		}
	}
	return ""
}

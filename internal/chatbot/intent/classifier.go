// internal/chatbot/intent/classifier.go
package intent

import (
	"regexp"
	"strings"

	"vahan-chatbot/internal/models"
)

// rule matches when any of its patterns matches, and all of its required patterns match.
type rule struct {
	any      []*regexp.Regexp
	all      []*regexp.Regexp
	category models.Category
	action   models.Action
}

func (r rule) matches(text string) bool {
	for _, re := range r.all {
		if !re.MatchString(text) {
			return false
		}
	}
	for _, re := range r.any {
		if re.MatchString(text) {
			return true
		}
	}
	return len(r.any) == 0
}

func patterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// rules is evaluated top to bottom and the first match wins. Order matters:
// "highest challan" must hit challan/top before the broader challan/total rule.
var rules = []rule{
	{
		any:      patterns(`how many.*register`, `total.*registration`, `total.*registered`, `registered.*vehicle`),
		category: models.CategoryRegistration,
		action:   models.ActionCount,
	},
	{
		any:      patterns(`how many.*sold`, `how many.*sales`, `total.*sales`, `total.*sold`, `vehicle.*sale`, `sold.*vehicle`),
		category: models.CategorySales,
		action:   models.ActionCount,
	},
	{
		all:      patterns(`challan`),
		any:      patterns(`highest|top|most|maximum`),
		category: models.CategoryChallan,
		action:   models.ActionTop,
	},
	{
		any:      patterns(`challan|collected|fine.*collect`),
		category: models.CategoryChallan,
		action:   models.ActionTotal,
	},
	{
		any:      patterns(`fine.*for|what.*fine|penalty.*for|challan.*for`),
		category: models.CategoryFine,
		action:   models.ActionLookup,
	},
	{
		any:      patterns(`accident`),
		category: models.CategoryAccident,
		action:   models.ActionCount,
	},
	{
		any:      patterns(`license|licence|dl issued`),
		category: models.CategoryLicense,
		action:   models.ActionCount,
	},
}

// Classify maps question text to an intent. It never fails: text that no rule
// matches yields an unrecognized intent.
func Classify(text string) models.Intent {
	msg := strings.ToLower(text)
	for _, r := range rules {
		if r.matches(msg) {
			return models.Intent{
				Recognized: true,
				Category:   r.category,
				Action:     r.action,
			}
		}
	}
	return models.Intent{Recognized: false}
}

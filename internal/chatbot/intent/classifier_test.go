package intent

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"vahan-chatbot/internal/models"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestClassify_Rules(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		category models.Category
		action   models.Action
	}{
		{"how many registered", "How many cars registered in UP in March 2023?", models.CategoryRegistration, models.ActionCount},
		{"total registrations", "total registrations in pune", models.CategoryRegistration, models.ActionCount},
		{"total vehicles registered", "total vehicles registered in Lucknow this month", models.CategoryRegistration, models.ActionCount},
		{"registered vehicles", "registered vehicles in delhi", models.CategoryRegistration, models.ActionCount},
		{"how many sold", "How many vehicles sold in Maharashtra this year?", models.CategorySales, models.ActionCount},
		{"total cars sold", "Total cars sold in Mumbai in 2024", models.CategorySales, models.ActionCount},
		{"total sales", "total sales of bikes", models.CategorySales, models.ActionCount},
		{"highest challans", "Which RTO collected highest challans?", models.CategoryChallan, models.ActionTop},
		{"top challan", "top challan offices in gujarat", models.CategoryChallan, models.ActionTop},
		{"challan collection", "Total challan collection in Delhi this month", models.CategoryChallan, models.ActionTotal},
		{"collected", "how much was collected in karnataka", models.CategoryChallan, models.ActionTotal},
		{"fine for", "What is the fine for not wearing helmet in Delhi?", models.CategoryFine, models.ActionLookup},
		{"penalty for", "penalty for drunk driving", models.CategoryFine, models.ActionLookup},
		{"accidents", "Total accidents in Tamil Nadu in 2024", models.CategoryAccident, models.ActionCount},
		{"licenses", "How many licenses issued in Karnataka in 2023?", models.CategoryLicense, models.ActionCount},
		{"dl issued", "dl issued in haryana", models.CategoryLicense, models.ActionCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			assert.True(t, got.Recognized)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.action, got.Action)
		})
	}
}

func TestClassify_Unrecognized(t *testing.T) {
	for _, text := range []string{"xyz random text", "", "hello there", "what is the weather"} {
		got := Classify(text)
		assert.False(t, got.Recognized, text)
		assert.Empty(t, got.Category)
		assert.Empty(t, got.Action)
	}
}

// ==========================
// Precedence Tests
// ==========================

func TestClassify_ChallanTopBeforeTotal(t *testing.T) {
	for _, text := range []string{
		"challan highest",
		"which office has the maximum challan amount",
		"most challans collected",
	} {
		got := Classify(text)
		assert.Equal(t, models.CategoryChallan, got.Category, text)
		assert.Equal(t, models.ActionTop, got.Action, text)
	}
}

func TestClassify_RegistrationBeforeSales(t *testing.T) {
	got := Classify("how many vehicles registered and sold")
	assert.Equal(t, models.CategoryRegistration, got.Category)
}

func TestClassify_ChallanForIsTotal(t *testing.T) {
	// the challan/total rule sits above fine/lookup, so "challan for" never reaches it
	got := Classify("challan for overspeeding")
	assert.Equal(t, models.CategoryChallan, got.Category)
	assert.Equal(t, models.ActionTotal, got.Action)
}

func TestClassify_SubstringFalsePositive(t *testing.T) {
	// pattern matching is not word-bounded
	got := Classify("tell me about the accidental deletion")
	assert.Equal(t, models.CategoryAccident, got.Category)
}

func TestClassify_CaseInsensitive(t *testing.T) {
	assert.Equal(t, Classify("ACCIDENTS IN UP"), Classify("accidents in up"))
}

// ==========================
// Property Tests
// ==========================

func TestClassify_Deterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	words := gen.OneConstOf("how many", "registered", "challan", "highest", "fine for", "accident",
		"license", "sold", "total", "in", "delhi", "2023", "xyz")

	properties.Property("identical input yields identical intent", prop.ForAll(
		func(parts []string) bool {
			text := ""
			for _, p := range parts {
				text += p + " "
			}
			return Classify(text) == Classify(text)
		},
		gen.SliceOf(words),
	))

	properties.Property("challan with highest is never challan/total", prop.ForAll(
		func(prefix, suffix string) bool {
			got := Classify(prefix + " challan " + suffix + " highest")
			if got.Category == models.CategoryChallan {
				return got.Action == models.ActionTop
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

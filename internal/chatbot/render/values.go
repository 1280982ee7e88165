package render

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// lib/pq hands NUMERIC columns back as []byte.
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func toInt(v interface{}) (int64, error) {
	n, err := cast.ToInt64E(normalize(v))
	if err != nil {
		return 0, fmt.Errorf("count value %v: %w", v, err)
	}
	return n, nil
}

func toAmount(v interface{}) (float64, error) {
	if v == nil {
		return 0, nil
	}
	f, err := cast.ToFloat64E(normalize(v))
	if err != nil {
		return 0, fmt.Errorf("amount value %v: %w", v, err)
	}
	return f, nil
}

// grouped formats n with thousands separators.
func grouped(n int64) string {
	return printer.Sprintf("%d", n)
}

func groupedAmount(f float64) string {
	if f == float64(int64(f)) {
		return grouped(int64(f))
	}
	return printer.Sprintf("%.2f", f)
}

func lakh(amount float64) string {
	return fmt.Sprintf("%.2f Lakh", amount/100000)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// titleCase upper-cases the first letter of every space separated word and
// leaves the rest untouched.
func titleCase(s string) string {
	words := strings.Split(s, " ")
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func plural(n int64) string {
	if n == 1 {
		return ""
	}
	return "s"
}

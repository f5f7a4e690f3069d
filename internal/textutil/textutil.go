// Package textutil provides the small text helpers shared by the aggregator,
// the scoring engine and the trend calculator.
package textutil

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// noiseTokens are identifier values produced by spreadsheet exports for empty cells.
var noiseTokens = map[string]bool{
	"nan":    true,
	"none":   true,
	"null":   true,
	"<na>":   true,
	"<nan>":  true,
	"<none>": true,
	"<null>": true,
}

// Normalize trims and lower-cases text for comparison.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// IsNoise reports whether an identifier is empty or a spreadsheet noise token.
func IsNoise(text string) bool {
	norm := Normalize(text)
	return norm == "" || noiseTokens[norm]
}

// IncludesAny reports whether text contains any keyword, case-insensitively.
func IncludesAny(text string, keywords ...string) bool {
	norm := Normalize(text)
	for _, kw := range keywords {
		if strings.Contains(norm, Normalize(kw)) {
			return true
		}
	}
	return false
}

// FormatNumber renders a threshold the way it is written in cut-off tables:
// 10 rather than 10.0, 2.5 as 2.5.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Humanize turns a snake_case key into space separated words.
func Humanize(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// Title upper-cases the first letter of every word and lower-cases the rest.
// Runs of whitespace collapse to one space.
func Title(text string) string {
	return cases.Title(language.Und).String(strings.Join(strings.Fields(text), " "))
}

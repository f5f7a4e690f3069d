// Package coerce converts loosely typed input values (as produced by JSON,
// YAML or spreadsheet exports) into the scalar types the pipeline works with.
// Every function degrades to a zero value instead of failing.
package coerce

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// spreadsheetEpoch is day zero of the legacy spreadsheet serial date system.
// Using Dec 30 rather than Dec 31 absorbs the phantom 1900-02-29.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// minSerial is the smallest serial read as a date (1954-10-03). Smaller
// numbers such as a bare year are not dates.
const minSerial = 20000

// isoLayouts are tried in order when parsing date strings.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Number converts v to a float64. Missing, non-numeric and non-finite values yield 0.
func Number(v any) float64 {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round converts v to the nearest integer, rounding halves to even.
func Round(v any) int {
	return int(math.RoundToEven(Number(v)))
}

// String converts v to trimmed text. Nil and NaN values yield "".
func String(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		if math.IsNaN(s) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(s)) {
			return ""
		}
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// ParseDate parses an ISO-8601 date or date-time string, tolerating a trailing Z.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ISODate converts v to a YYYY-MM-DD string. Accepted inputs are ISO-8601
// strings, time.Time values and spreadsheet serial day counts of at least
// minSerial (numbers or numeric strings). Anything else yields "" rather
// than today's date.
func ISODate(v any) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		if d.IsZero() {
			return ""
		}
		return d.Format("2006-01-02")
	case string:
		if t, ok := ParseDate(d); ok {
			return t.Format("2006-01-02")
		}
		if serial, err := strconv.ParseFloat(strings.TrimSpace(d), 64); err == nil {
			return fromSerial(serial)
		}
		return ""
	case bool:
		return ""
	default:
		return fromSerial(Number(d))
	}
}

// fromSerial converts a spreadsheet serial day count. Fractions (time of day) are dropped.
func fromSerial(serial float64) string {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < minSerial {
		return ""
	}
	days := int(serial)
	return spreadsheetEpoch.AddDate(0, 0, days).Format("2006-01-02")
}

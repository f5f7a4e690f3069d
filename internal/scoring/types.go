package scoring

import (
	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/types"
)

// Input is everything a scorer sees about one questionnaire administration.
type Input struct {
	Record types.AggregatedRecord
	Name   string           // trimmed, lower-cased questionnaire name
	Total  float64          // untruncated sum of answers
	Rule   rules.CutoffRule // matched cut-off entry, or the unknown placeholder
}

// Raw returns the truncated raw total.
func (in Input) Raw() int {
	return int(in.Total)
}

// Result is a scorer's contribution to the scored record.
type Result struct {
	Severity string
	Flags    []string
	Derived  types.Derived
}

// Scorer classifies administrations of one questionnaire family.
// Implementations must not fail on empty or malformed records.
type Scorer interface {
	Name() string
	Score(in Input) Result
}

// setSeverity records the severity on both the result and its derived block.
func (r *Result) setSeverity(severity string) {
	r.Severity = severity
	r.Derived.SeverityLevel = severity
}

func (r *Result) flag(text string) {
	r.Flags = append(r.Flags, text)
}

package scoring

import (
	"math"

	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

// SeverityBand is an inclusive upper bound and its label.
type SeverityBand struct {
	Max   int
	Label string
}

// ClassifyBands returns the label of the first band whose Max is >= score,
// or above when score exceeds every band.
func ClassifyBands(score int, bands []SeverityBand, above string) string {
	for _, b := range bands {
		if score <= b.Max {
			return b.Label
		}
	}
	return above
}

// LadderStep is one rung of a cut-off ladder. The threshold comes from the
// named cut-off of the matched rule, falling back to Default.
type LadderStep struct {
	Cutoff  string
	Default float64
	Label   string
}

// ladderFlag returns a flag for the first step the value crosses. Steps are
// checked in order, so only the most severe crossing is reported. atLeast
// selects >= (higher worse) over <= (lower worse).
func ladderFlag(prefix string, value float64, rule rules.CutoffRule, steps []LadderStep, atLeast bool) (string, bool) {
	op := "≤"
	if atLeast {
		op = "≥"
	}
	for _, s := range steps {
		threshold := rule.ValueOr(s.Cutoff, s.Default)
		crossed := value <= threshold
		if atLeast {
			crossed = value >= threshold
		}
		if crossed {
			return prefix + " " + op + textutil.FormatNumber(threshold) + " " + s.Label, true
		}
	}
	return "", false
}

// SubscaleSpec assigns responses to a subscale by dimension-tag keywords.
type SubscaleSpec struct {
	Name     string
	Keywords []string
}

// ScoreSubscales sums the answers of each subscale. A response may count
// toward several subscales when its dimension matches more than one.
// Totals are truncated.
func ScoreSubscales(responses []types.Response, specs []SubscaleSpec) map[string]types.SubscaleScore {
	out := make(map[string]types.SubscaleScore, len(specs))
	for _, spec := range specs {
		var total float64
		var count int
		for _, r := range responses {
			if textutil.IncludesAny(r.Dimension, spec.Keywords...) {
				total += r.Answer
				count++
			}
		}
		out[spec.Name] = types.SubscaleScore{Total: int(total), Count: count}
	}
	return out
}

// SubscaleFlag fires when a subscale total reaches Threshold.
type SubscaleFlag struct {
	Subscale  string
	Threshold int
	Text      string
}

func subscaleFlags(subscales map[string]types.SubscaleScore, specs []SubscaleFlag) []string {
	var flags []string
	for _, s := range specs {
		if subscales[s.Subscale].Total >= s.Threshold {
			flags = append(flags, s.Text)
		}
	}
	return flags
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

package scoring

import (
	"fmt"
	"strings"

	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

// promisScorer converts PROMIS pediatric and parent-proxy raw totals to
// T-scores through the fixed conversion tables.
type promisScorer struct{}

func (promisScorer) Name() string { return "promis" }

// PROMISMeasure detects the measure from a normalized questionnaire name,
// returning "" when it cannot be determined.
func PROMISMeasure(name string) string {
	switch {
	case strings.Contains(name, "depression"):
		return rules.MeasureDepression
	case strings.Contains(name, "anxiety"):
		return rules.MeasureAnxiety
	case strings.Contains(name, "life"), strings.Contains(name, "satisfaction"):
		return rules.MeasureLifeSatisfaction
	default:
		return ""
	}
}

var promisScales = map[string]struct{ title, direction, note string }{
	rules.MeasureDepression:       {"Depression", "higher worse", "Higher T-scores indicate more depression symptoms"},
	rules.MeasureAnxiety:          {"Anxiety", "higher worse", "Higher T-scores indicate more anxiety symptoms"},
	rules.MeasureLifeSatisfaction: {"Life Satisfaction", "higher better", "Higher T-scores indicate better life satisfaction"},
}

func (promisScorer) Score(in Input) Result {
	raw := in.Raw()
	parent := strings.Contains(in.Name, "parent")
	measure := PROMISMeasure(in.Name)

	var r Result
	r.Derived.RawScore = types.Int(raw)
	r.Derived.TotalScore = types.Float(float64(raw))

	scale, known := promisScales[measure]
	if !known {
		r.Derived.Scale = "PROMIS Pediatric T-score (mean 50, SD 10)"
		r.Derived.Note = "Unknown PROMIS measure - cannot convert to T-score"
		r.setSeverity("unknown PROMIS measure")
		r.flag(fmt.Sprintf("PROMIS raw total: %d. Unable to convert - unknown measure type.", raw))
		return r
	}

	version := "Pediatric"
	if parent {
		version = "Parent Proxy"
	}
	r.Derived.Scale = fmt.Sprintf("PROMIS %s %s T-score (mean 50, SD 10, %s)", scale.title, version, scale.direction)
	r.Derived.Note = scale.note

	table, ok := rules.PROMISTable(measure, parent)
	if !ok {
		r.setSeverity("unknown PROMIS measure")
		r.flag(fmt.Sprintf("PROMIS raw total: %d. Unable to convert - unknown measure type.", raw))
		return r
	}

	t, ok := table.TScore(raw)
	if !ok {
		lo, hi := table.Range()
		r.setSeverity("raw score outside conversion range")
		r.flag(fmt.Sprintf("PROMIS raw total %d outside conversion table range (%d-%d)", raw, lo, hi))
		return r
	}

	t = round(t, 1)
	severity := interpretTScore(t, measure)
	r.Derived.TScore = types.Float(t)
	r.setSeverity(severity)
	r.Derived.Interpretation = textutil.Title(severity)

	if measure == rules.MeasureLifeSatisfaction {
		switch {
		case t < 30:
			r.flag(fmt.Sprintf("PROMIS Life Satisfaction T-score %.1f (Very Low - significant concern)", t))
		case t < 40:
			r.flag(fmt.Sprintf("PROMIS Life Satisfaction T-score %.1f (Low - below average)", t))
		}
	} else {
		switch {
		case t > 65:
			r.flag(fmt.Sprintf("PROMIS %s T-score %.1f (Severe - significant clinical concern)", scale.title, t))
		case t > 55:
			r.flag(fmt.Sprintf("PROMIS %s T-score %.1f (Moderate - clinical attention warranted)", scale.title, t))
		case t > 50:
			r.flag(fmt.Sprintf("PROMIS %s T-score %.1f (Mild - monitor)", scale.title, t))
		}
	}
	r.flag(fmt.Sprintf("PROMIS %s: Raw=%d, T-score=%.1f (%s)", scale.title, raw, t, r.Derived.Interpretation))
	return r
}

// interpretTScore bands a T-score. Depression and anxiety are higher-worse;
// life satisfaction is higher-better.
func interpretTScore(t float64, measure string) string {
	if measure == rules.MeasureLifeSatisfaction {
		switch {
		case t >= 70:
			return "very high"
		case t >= 60:
			return "high"
		case t >= 40:
			return "average"
		case t >= 30:
			return "low"
		default:
			return "very low"
		}
	}
	switch {
	case t <= 50:
		return "within normal limits"
	case t <= 55:
		return "mild"
	case t <= 65:
		return "moderate"
	default:
		return "severe"
	}
}

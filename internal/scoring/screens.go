package scoring

import (
	"fmt"
	"strings"

	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

var (
	phqBands = []SeverityBand{
		{4, "minimal"},
		{9, "mild"},
		{14, "moderate"},
		{19, "moderately severe"},
	}
	phqLadder = []LadderStep{
		{"severe", 20, "(severe depression)"},
		{"moderately_severe", 15, "(moderately severe)"},
		{"moderate", 10, "(moderate depression)"},
		{"mild", 5, "(mild depression)"},
	}

	gad7Bands = []SeverityBand{
		{4, "minimal"},
		{9, "mild"},
		{14, "moderate"},
	}
	gad7Ladder = []LadderStep{
		{"severe", 15, "(severe anxiety)"},
		{"moderate", 10, "(moderate anxiety)"},
		{"mild", 5, "(mild anxiety)"},
	}

	who5Ladder = []LadderStep{
		{"depression_risk", 28, "indicates depression risk"},
		{"poor_wellbeing", 50, "suggests poor well-being"},
	}
)

// phqScorer scores the 9-item depression screen (raw 0-27).
type phqScorer struct{}

func (phqScorer) Name() string { return "phq-9" }

func (phqScorer) Score(in Input) Result {
	raw := in.Raw()
	var r Result
	r.setSeverity(ClassifyBands(raw, phqBands, "severe"))
	r.Derived.Scale = "PHQ-9 (0-27, higher worse)"
	r.Derived.TotalScore = types.Float(float64(raw))

	if f, ok := ladderFlag("PHQ-9", in.Total, in.Rule, phqLadder, true); ok {
		r.flag(f)
	}

	threshold, meaning := 10.0, "clinical attention"
	if cf := in.Rule.ClinicalFlag; cf != nil {
		threshold, meaning = cf.Threshold, cf.Meaning
	}
	if in.Total >= threshold {
		r.flag(fmt.Sprintf("PHQ-9 ≥%s suggests %s", textutil.FormatNumber(threshold), meaning))
	}
	return r
}

// who5Scorer scores the wellbeing index: raw 0-25 projected onto 0-100.
type who5Scorer struct{}

func (who5Scorer) Name() string { return "who-5" }

// WHO5Index converts a raw WHO-5 total to the 0-100 index.
func WHO5Index(raw int) int {
	return min(100, max(0, raw*4))
}

func (who5Scorer) Score(in Input) Result {
	raw := in.Raw()
	index := WHO5Index(raw)

	var r Result
	r.Derived.Scale = "WHO-5 (0-100 index, lower worse)"
	r.Derived.RawScore = types.Int(raw)
	r.Derived.TotalScore = types.Float(float64(raw))
	r.Derived.IndexScore = types.Int(index)

	if float64(index) <= in.Rule.ValueOr("poor_wellbeing", 50) {
		r.setSeverity("reduced well-being")
	} else {
		r.setSeverity("adequate well-being")
	}

	if f, ok := ladderFlag("WHO-5", float64(index), in.Rule, who5Ladder, false); ok {
		r.flag(f)
	}
	return r
}

// gad7Scorer scores the 7-item anxiety screen (raw 0-21).
type gad7Scorer struct{}

func (gad7Scorer) Name() string { return "gad-7" }

func (gad7Scorer) Score(in Input) Result {
	raw := in.Raw()
	var r Result
	r.setSeverity(ClassifyBands(raw, gad7Bands, "severe"))
	r.Derived.Scale = "GAD-7 (0-21, higher worse)"
	r.Derived.TotalScore = types.Float(float64(raw))

	if f, ok := ladderFlag("GAD-7", in.Total, in.Rule, gad7Ladder, true); ok {
		r.flag(f)
	}
	return r
}

// cesdcScorer scores the 20-item child depression scale.
type cesdcScorer struct{}

func (cesdcScorer) Name() string { return "ces-dc" }

func (cesdcScorer) Score(in Input) Result {
	var r Result
	r.Derived.Scale = "CES-DC (≥15 suggests risk for depression)"
	r.Derived.TotalScore = types.Float(float64(in.Raw()))
	if in.Total >= 15 {
		r.setSeverity("depression risk (≥15)")
		r.flag("CES-DC positive screen (≥15)")
	} else {
		r.setSeverity("below risk threshold")
	}
	return r
}

// rsesScorer scores the Rosenberg self-esteem scale.
type rsesScorer struct{}

func (rsesScorer) Name() string { return "rses" }

func (rsesScorer) Score(in Input) Result {
	raw := in.Raw()
	var r Result
	r.Derived.Scale = "RSES (0-30; <15 low, 15-25 normal, >25 high)"
	r.Derived.Note = "Contains reverse-scored items; verify scoring before interpretation"
	r.Derived.TotalScore = types.Float(float64(raw))
	switch {
	case raw < 15:
		r.setSeverity("low")
	case raw > 25:
		r.setSeverity("high")
	default:
		r.setSeverity("normal")
	}
	return r
}

// genericScorer applies whatever cut-offs the matched rule carries.
type genericScorer struct{}

func (genericScorer) Name() string { return "generic" }

func (genericScorer) Score(in Input) Result {
	var r Result
	r.Severity = "see cut-offs for interpretation"
	r.Derived.Scale = fmt.Sprintf("%s (%s)", in.Record.Questionnaire, in.Rule.ScaleRange)
	r.Derived.TotalScore = types.Float(float64(in.Raw()))
	r.Derived.Direction = in.Rule.Direction
	r.Derived.SubscaleCutoffs = in.Rule.SubscaleMap()

	direction := in.Rule.Direction
	if direction == "" {
		direction = types.DirectionHigherWorse
	}
	for _, c := range in.Rule.Cutoffs {
		label := textutil.Humanize(c.Name)
		switch {
		case strings.Contains(direction, "higher") && in.Total >= c.Value:
			r.flag(fmt.Sprintf("%s ≥%s (%s)", in.Record.Questionnaire, textutil.FormatNumber(c.Value), label))
		case strings.Contains(direction, "lower") && in.Total <= c.Value:
			r.flag(fmt.Sprintf("%s ≤%s (%s)", in.Record.Questionnaire, textutil.FormatNumber(c.Value), label))
		}
	}
	return r
}

package scoring

import (
	"fmt"

	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

var (
	scaredSubscales = []SubscaleSpec{
		{"Panic", []string{"panic"}},
		{"Generalized Anxiety (GAD)", []string{"gad", "generalized"}},
		{"Separation", []string{"separation"}},
		{"Social", []string{"social"}},
		{"School Phobia", []string{"school"}},
	}
	scaredFlags = []SubscaleFlag{
		{"Panic", 7, "SCARED Panic ≥7"},
		{"Social", 8, "SCARED Social ≥8"},
		{"School Phobia", 3, "SCARED School ≥3"},
		{"Separation", 5, "SCARED Separation ≥5"},
		{"Generalized Anxiety (GAD)", 9, "SCARED GAD ≥9"},
	}

	psc17Subscales = []SubscaleSpec{
		{"Internalizing", []string{"internalizing"}},
		{"Attention", []string{"attention"}},
		{"Externalizing", []string{"externalizing"}},
	}
	psc17Flags = []SubscaleFlag{
		{"Internalizing", 5, "PSC-17 Internalizing ≥5"},
		{"Attention", 7, "PSC-17 Attention ≥7"},
		{"Externalizing", 7, "PSC-17 Externalizing ≥7"},
	}

	sdqSubscales = []SubscaleSpec{
		{"Emotional", []string{"emotional"}},
		{"Conduct", []string{"conduct"}},
		{"Hyperactivity/Inattention", []string{"hyperactivity", "inattention"}},
		{"Peer Problems", []string{"peer"}},
		{"Prosocial", []string{"prosocial"}},
	}
)

// sdqScales maps band-table keys to subscale names, in reporting order.
// total_difficulties has no subscale of its own.
var sdqScales = []struct{ key, subscale string }{
	{"total_difficulties", ""},
	{"emotional", "Emotional"},
	{"conduct", "Conduct"},
	{"hyperactivity", "Hyperactivity/Inattention"},
	{"peer_problems", "Peer Problems"},
	{"prosocial", "Prosocial"},
}

// scaredScorer scores the 41-item child anxiety screen with five subscales.
type scaredScorer struct{}

func (scaredScorer) Name() string { return "scared" }

func (scaredScorer) Score(in Input) Result {
	var r Result
	r.Derived.Scale = "SCARED (total ≥25 possible anxiety disorder; subscale cut-offs apply)"
	r.Derived.TotalScore = types.Float(float64(in.Raw()))
	if in.Total >= 25 {
		r.setSeverity("possible anxiety disorder (≥25)")
	} else {
		r.setSeverity("below screening threshold")
	}

	subscales := ScoreSubscales(in.Record.Responses, scaredSubscales)
	r.Derived.Subscales = subscales
	r.Flags = append(r.Flags, subscaleFlags(subscales, scaredFlags)...)
	return r
}

// psc17Scorer scores the 17-item pediatric symptom checklist.
type psc17Scorer struct{}

func (psc17Scorer) Name() string { return "psc-17" }

func (psc17Scorer) Score(in Input) Result {
	var r Result
	r.Derived.Scale = "PSC-17 (total ≥15 positive; subscales Internalizing ≥5, Attention ≥7, Externalizing ≥7)"
	r.Derived.TotalScore = types.Float(float64(in.Raw()))
	if in.Total >= 15 {
		r.setSeverity("positive screen (≥15)")
	} else {
		r.setSeverity("below threshold")
	}

	subscales := ScoreSubscales(in.Record.Responses, psc17Subscales)
	r.Derived.Subscales = subscales
	r.Flags = append(r.Flags, subscaleFlags(subscales, psc17Flags)...)
	return r
}

// sdqScorer scores the strengths and difficulties questionnaire with
// version-specific band tables.
type sdqScorer struct{}

func (sdqScorer) Name() string { return "sdq" }

// DetectSDQVersion picks the self-completed or parent band table from the
// questionnaire name. Self-report keywords win over parent/teacher ones.
func DetectSDQVersion(name string) string {
	switch {
	case textutil.IncludesAny(name, "youth", "self", "adolescent"):
		return rules.SDQSelfCompleted
	case textutil.IncludesAny(name, "parent", "teacher"):
		return rules.SDQParent
	default:
		return rules.SDQSelfCompleted
	}
}

func sdqInterpretation(subscale, band string) string {
	switch band {
	case rules.BandNormal:
		return "close to average - clinically significant problems in this area are unlikely"
	case rules.BandBorderline:
		if subscale == "prosocial" {
			return "slightly low, which may reflect clinically significant problems"
		}
		return "slightly raised, which may reflect clinically significant problems"
	default:
		if subscale == "prosocial" {
			return "low - there is a substantial risk of clinically significant problems in this area"
		}
		return "high - there is a substantial risk of clinically significant problems in this area"
	}
}

func (sdqScorer) Score(in Input) Result {
	version := DetectSDQVersion(in.Record.Questionnaire)
	bands := rules.SDQBands(version)
	subscales := ScoreSubscales(in.Record.Responses, sdqSubscales)

	raw := make(map[string]int, len(sdqScales))
	for _, s := range sdqScales {
		if s.subscale != "" {
			raw[s.key] = subscales[s.subscale].Total
		}
	}
	raw["total_difficulties"] = raw["emotional"] + raw["conduct"] + raw["hyperactivity"] + raw["peer_problems"]

	var r Result
	r.Derived.RawScores = raw
	r.Derived.Subscales = subscales
	r.Derived.SDQVersion = version
	r.Derived.TotalScore = types.Float(float64(raw["total_difficulties"]))
	r.Derived.Interpretations = make(map[string]types.BandInterpretation, len(sdqScales))

	for _, s := range sdqScales {
		score := raw[s.key]
		band := bands[s.key].Classify(score)
		interp := types.BandInterpretation{
			Score:          score,
			Band:           band,
			Interpretation: sdqInterpretation(s.key, band),
		}
		r.Derived.Interpretations[s.key] = interp
		if band == rules.BandAbnormal {
			r.flag(fmt.Sprintf("SDQ %s: %d - %s", textutil.Title(textutil.Humanize(s.key)), score, interp.Interpretation))
		}
	}

	r.setSeverity(r.Derived.Interpretations["total_difficulties"].Band)
	if version == rules.SDQSelfCompleted {
		r.Derived.Scale = "SDQ Total Difficulties - Self-Completed (0-15 normal, 16-19 borderline, 20-40 abnormal)"
	} else {
		r.Derived.Scale = "SDQ Total Difficulties - Parent/Teacher (0-13 normal, 14-16 borderline, 17-40 abnormal)"
	}
	return r
}

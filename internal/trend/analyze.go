// Package trend compares scored questionnaire records across administrations.
//
// Records are grouped per questionnaire, ordered by date (or timepoint when
// dates are missing) and summarized as a two-point delta between the first
// and last administration. Groups that cannot be trended are excluded with a
// reason; Analyze never fails.
package trend

import (
	"fmt"
	"math"
	"strings"

	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/scoring"
	"github.com/dotcommander/qtrend/internal/types"
)

// Score basis values.
const (
	BasisRawTotal   = "raw_total"
	BasisTotalScore = "total_score"
	BasisTScore     = "t_score"
	BasisIndexScore = "index_score"
	BasisMixed      = "mixed"
)

var staticNotes = []string{
	"Trend directions consider questionnaire-specific improvement patterns (higher/lower scores)",
	"Score changes reported as raw values and percentages for transparent interpretation",
	"Severity level changes indicate crossing clinical cut-off thresholds",
	"Clinical significance interpretation left to reviewers based on context and expertise",
	"Timeline estimates used when dates missing (based on typical 4-6 week intervals)",
}

// guidelineKeys maps scorer families to their trend guideline entry.
var guidelineKeys = map[string]string{
	"phq-9":  "phq",
	"who-5":  "who-5",
	"gad-7":  "gad",
	"promis": "promis",
	"pedsql": "pedsql",
	"ces-dc": "ces-dc",
	"scared": "scared",
	"rses":   "rses",
	"sdq":    "sdq",
	"psc-17": "psc-17",
}

type group struct {
	name    string
	family  string
	records []types.ScoredRecord
}

// Analyze builds the trend report for one subject's scored records.
func Analyze(records []types.ScoredRecord) *Report {
	groups := groupRecords(records)

	report := &Report{
		ProfileSummary: ProfileSummary{
			TotalQuestionnaires: len(groups),
			TotalAssessments:    len(records),
		},
		DataQuality: DataQuality{
			OverallWarnings: []string{},
			Exclusions:      []Exclusion{},
		},
		DetailedTrends: []Summary{},
	}

	if len(records) < 2 {
		report.DataQuality.OverallWarnings = append(report.DataQuality.OverallWarnings,
			fmt.Sprintf("Only %d scored record(s) received - need at least 2 for trend analysis", len(records)))
	}

	exclude := func(name, reason string) {
		report.DataQuality.OverallWarnings = append(report.DataQuality.OverallWarnings, name+": "+reason)
		report.DataQuality.Exclusions = append(report.DataQuality.Exclusions, Exclusion{Questionnaire: name, Reason: reason})
	}

	var estimated, partialDates, mixed []string
	for _, g := range groups {
		if len(g.records) < 2 {
			exclude(g.name, fmt.Sprintf("Only %d assessment(s) - need at least 2 for trends", len(g.records)))
			continue
		}

		v := validate(g.records)
		if !v.canAnalyze() {
			exclude(g.name, strings.Join(v.warnings, "; "))
			continue
		}

		sorted := order(g.records, v.sortMethod)
		if len(sorted) < 2 {
			exclude(g.name, "Insufficient valid data after filtering")
			continue
		}

		s := summarize(g, sorted, v)
		report.DetailedTrends = append(report.DetailedTrends, s)

		switch s.ScoreAnalysis.TrendDirection {
		case types.TrendImprovement:
			report.TrendOverview.Improving++
		case types.TrendWorsening:
			report.TrendOverview.Worsening++
		default:
			report.TrendOverview.Stable++
		}

		if s.Timeline.TimelineMethod == TimelineEstimated {
			estimated = append(estimated, s.Questionnaire)
		}
		if v.sortMethod == SortDatePrimary && v.withDates < len(g.records) {
			partialDates = append(partialDates, s.Questionnaire)
		}
		if s.ScoreAnalysis.ScoreBasis == BasisMixed {
			mixed = append(mixed, s.Questionnaire)
		}
	}

	report.ProfileSummary.QuestionnairesWithTrends = len(report.DetailedTrends)
	report.DataQuality.QuestionnairesExcluded = len(groups) - len(report.DetailedTrends)
	report.ClinicalNotes = clinicalNotes(report, estimated, partialDates, mixed)
	return report
}

// groupRecords groups by questionnaire type in first-seen order, using the
// same name matching as the scoring engine. The first spelling seen names
// the group.
func groupRecords(records []types.ScoredRecord) []*group {
	var groups []*group
	index := make(map[string]*group)
	for _, r := range records {
		key := scoring.GroupKey(r.Questionnaire)
		g, ok := index[key]
		if !ok {
			g = &group{
				name:   strings.TrimSpace(r.Questionnaire),
				family: scoring.Family(r.Questionnaire),
			}
			index[key] = g
			groups = append(groups, g)
		}
		g.records = append(g.records, r)
	}
	return groups
}

// guidelineFor returns the guideline key and entry for a scorer family.
func guidelineFor(family, name string) (string, rules.TrendGuideline) {
	if key, ok := guidelineKeys[family]; ok {
		if g, ok := rules.Guideline(key); ok {
			return key, g
		}
	}
	g := rules.UnknownGuideline(name)
	return g.Key, g
}

func summarize(g *group, sorted []types.ScoredRecord, v validation) Summary {
	name := g.name
	key, guideline := guidelineFor(g.family, name)
	initial, latest := sorted[0], sorted[len(sorted)-1]

	basis, mixedAt := scoreBasis(g.family, sorted)
	history := make([]HistoryEntry, len(sorted))
	for i, r := range sorted {
		score, _ := comparableScore(g.family, r)
		flags := r.ClinicalFlags
		if flags == nil {
			flags = []string{}
		}
		history[i] = HistoryEntry{
			Date:          r.Date,
			Timepoint:     r.Timepoint,
			Score:         score,
			Severity:      r.Severity,
			ClinicalFlags: flags,
		}
	}

	warnings := append([]string{}, v.warnings...)
	if len(mixedAt) > 0 {
		warnings = append(warnings, fmt.Sprintf(
			"mixed_scale: raw_total used where %s was missing at timepoint(s) %s", basisFor(g.family), joinInts(mixedAt)))
	}

	days, method := span(initial, latest)
	initialScore := history[0].Score
	latestScore := history[len(history)-1].Score

	return Summary{
		Questionnaire:       guideline.Name,
		QuestionnaireKey:    key,
		SourceQuestionnaire: name,
		AdministrationInfo: AdministrationInfo{
			RecommendedFrequency: guideline.Frequency,
			Sensitivity:          guideline.Sensitivity,
		},
		Timeline: Timeline{
			Period:              periodBound(initial) + " to " + periodBound(latest),
			DaysSpan:            days,
			TimelineMethod:      method,
			NumberOfAssessments: len(sorted),
		},
		DataQuality: TrendQuality{
			SortMethod: v.sortMethod,
			Warnings:   warnings,
		},
		ScoreAnalysis: ScoreAnalysis{
			ScoreBasis:           basis,
			InitialScore:         initialScore,
			LatestScore:          latestScore,
			Change:               round(latestScore-initialScore, 2),
			ChangePercentage:     changePercentage(initialScore, latestScore),
			TrendDirection:       direction(latestScore-initialScore, guideline.ImprovementDirection),
			SeverityLevelChanged: initial.Severity != latest.Severity,
		},
		SeverityAnalysis: SeverityAnalysis{
			InitialSeverity: initial.Severity,
			LatestSeverity:  latest.Severity,
			SeverityChange:  severityChange(initial.Severity, latest.Severity),
		},
		History: history,
	}
}

// basisFor names the derived score a scorer family trends on.
func basisFor(family string) string {
	switch family {
	case "pedsql":
		return BasisTotalScore
	case "promis":
		return BasisTScore
	case "who-5":
		return BasisIndexScore
	default:
		return BasisRawTotal
	}
}

// comparableScore returns the score trended for r and whether it came from
// the family's own basis. PedsQL and PROMIS fall back to raw_total; WHO-5
// falls back to raw_total x 4, which is still on the index scale.
func comparableScore(family string, r types.ScoredRecord) (float64, bool) {
	raw := float64(r.RawTotal)
	switch family {
	case "pedsql":
		if r.Derived.TotalScore != nil {
			return *r.Derived.TotalScore, true
		}
		return raw, false
	case "promis":
		if r.Derived.TScore != nil {
			return *r.Derived.TScore, true
		}
		return raw, false
	case "who-5":
		if r.Derived.IndexScore != nil {
			return float64(*r.Derived.IndexScore), true
		}
		return raw * 4, true
	default:
		return raw, true
	}
}

// scoreBasis reports the basis used across records and the timepoints whose
// score had to fall back to raw_total.
func scoreBasis(family string, records []types.ScoredRecord) (string, []int) {
	var missing []int
	for _, r := range records {
		if _, ok := comparableScore(family, r); !ok {
			missing = append(missing, r.Timepoint)
		}
	}
	switch {
	case len(missing) == 0:
		return basisFor(family), nil
	case len(missing) == len(records):
		return BasisRawTotal, missing
	default:
		return BasisMixed, missing
	}
}

func direction(change float64, improvement string) string {
	if change == 0 {
		return types.TrendStable
	}
	better := change < 0
	if improvement == types.ImproveIncrease {
		better = change > 0
	}
	if better {
		return types.TrendImprovement
	}
	return types.TrendWorsening
}

func changePercentage(initial, latest float64) float64 {
	if initial <= 0 {
		return 0
	}
	return round(math.Abs(latest-initial)/initial*100, 1)
}

func severityChange(initial, latest string) string {
	if initial == latest {
		return "remained " + initial
	}
	return fmt.Sprintf("from %s to %s", initial, latest)
}

func clinicalNotes(r *Report, estimated, partialDates, mixed []string) []string {
	notes := []string{fmt.Sprintf("Analysis based on %d questionnaires with multiple time points", len(r.DetailedTrends))}
	notes = append(notes, staticNotes...)

	if len(estimated) > 0 {
		notes = append(notes, "Estimated timelines (no dates) used for: "+strings.Join(estimated, ", "))
	}
	if n := r.DataQuality.QuestionnairesExcluded; n > 0 {
		names := make([]string, len(r.DataQuality.Exclusions))
		for i, e := range r.DataQuality.Exclusions {
			names[i] = e.Questionnaire
		}
		notes = append(notes, fmt.Sprintf("%d questionnaire(s) excluded from trend analysis: %s", n, strings.Join(names, ", ")))
	}
	if len(partialDates) > 0 {
		notes = append(notes, "Partial date coverage for: "+strings.Join(partialDates, ", "))
	}
	if len(mixed) > 0 {
		notes = append(notes, "Raw totals substituted for missing derived scores in: "+strings.Join(mixed, ", ")+
			" - these scores are not on a common scale")
	}
	return notes
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, ", ")
}

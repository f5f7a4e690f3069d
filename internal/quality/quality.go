// Package quality implements the data-quality checkpoint run on scored
// records before trend analysis. It is a checklist: each check adds
// metrics, and errors or warnings that decide the PASS/WARNING/FAIL status.
package quality

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dotcommander/qtrend/internal/coerce"
	"github.com/dotcommander/qtrend/internal/cue"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

const (
	maxMissingDetails  = 5
	maxCriticalDetails = 10
)

// CriticalKeywords mark a clinical flag for review.
var CriticalKeywords = []string{"severe", "abnormal", "high risk", "clinical attention"}

var requiredFields = []string{"questionnaire", "timepoint", "raw_total", "severity"}

// Validate runs every check over records. v supplies the required-field
// schema; a nil or unloaded validator falls back to checking the fields in Go.
func Validate(records []types.ScoredRecord, v *cue.Validator) *Report {
	r := &Report{
		Status:          StatusPass,
		TotalItems:      len(records),
		Warnings:        []string{},
		Errors:          []string{},
		Recommendations: []string{},
	}

	if len(records) == 0 {
		r.addError("", "No data received - empty input")
		r.finalize()
		return r
	}

	r.checkRequiredFields(records, v)
	dates, timepoints := r.checkDateTimepoint(records)
	r.checkDistribution(records)
	r.checkDerived(records)
	r.checkScores(records)
	r.checkTrendReadiness(dates, timepoints)
	r.checkClinicalFlags(records)

	r.Summary = Summary{
		TotalItems:                 len(records),
		ItemsWithAllRequiredFields: r.Checks.RequiredFields.ItemsWithAllRequired,
		QuestionnairesAnalyzed:     r.Metrics.Distribution.TotalQuestionnaires,
		ReadyForTrendAnalysis:      r.Metrics.TrendReadiness.Ready,
	}
	r.finalize()
	return r
}

// Suppress drops the warnings known reports as accepted and recomputes the
// status. Errors are never suppressed. It returns the number dropped.
func (r *Report) Suppress(known func(types.ValidationError) bool) int {
	kept := r.Issues[:0]
	dropped := 0
	for _, issue := range r.Issues {
		if issue.Severity == types.SeverityWarning && known(issue) {
			dropped++
			continue
		}
		kept = append(kept, issue)
	}
	r.Issues = kept
	r.Suppressed += dropped
	r.finalize()
	return dropped
}

// Merge adds issues found outside the checklist, such as schema violations
// in decoded input, and recomputes the status.
func (r *Report) Merge(issues []types.ValidationError) {
	if len(issues) == 0 {
		return
	}
	r.Issues = append(r.Issues, issues...)
	r.finalize()
}

// IssuesOf returns the issues of one severity.
func (r *Report) IssuesOf(severity string) []types.ValidationError {
	var out []types.ValidationError
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}
	return out
}

func (r *Report) addError(check, msg string) {
	r.Issues = append(r.Issues, types.ValidationError{Message: msg, Severity: types.SeverityError, Check: check})
}

func (r *Report) addWarning(check, msg string) {
	r.Issues = append(r.Issues, types.ValidationError{Message: msg, Severity: types.SeverityWarning, Check: check})
}

func (r *Report) recommend(msg string) {
	r.checkRecommendations = append(r.checkRecommendations, msg)
}

// finalize renders issues into the message lists and decides the status.
func (r *Report) finalize() {
	r.Errors = []string{}
	r.Warnings = []string{}
	for _, issue := range r.Issues {
		if issue.Severity == types.SeverityError {
			r.Errors = append(r.Errors, issue.Message)
		} else {
			r.Warnings = append(r.Warnings, issue.Message)
		}
	}

	r.Recommendations = slices.Clone(r.checkRecommendations)
	if r.Recommendations == nil {
		r.Recommendations = []string{}
	}
	switch {
	case len(r.Errors) > 0:
		r.Status = StatusFail
		r.Recommendations = append(r.Recommendations, "Fix errors before proceeding to trend analysis or LLM processing")
	case len(r.Warnings) > 0:
		r.Status = StatusWarning
		r.Recommendations = append(r.Recommendations, "Review warnings - data may still be usable but quality could be improved")
	default:
		r.Status = StatusPass
	}

	r.Summary.CriticalIssues = len(r.Errors)
	r.Summary.Warnings = len(r.Warnings)
	r.Summary.Status = r.Status
}

func (r *Report) checkRequiredFields(records []types.ScoredRecord, v *cue.Validator) {
	c := &r.Checks.RequiredFields
	c.Details = []MissingFields{}
	schema := v != nil && v.HasSchema(cue.SchemaScoredRecord)

	var missingCount int
	for i, rec := range records {
		var missing []string
		if schema {
			missing = v.MissingFields(recordData(rec))
		} else {
			missing = missingInGo(rec)
		}
		if len(missing) == 0 {
			c.ItemsWithAllRequired++
			continue
		}
		missingCount++
		if len(c.Details) < maxMissingDetails {
			c.Details = append(c.Details, MissingFields{ItemIndex: i, Questionnaire: orUnknown(rec.Questionnaire), MissingFields: missing})
		}
	}

	c.ItemsMissingFields = missingCount
	c.Pass = missingCount == 0
	if missingCount > 0 {
		r.addError(CheckRequiredFields, fmt.Sprintf("%d items missing required fields: [%s]",
			missingCount, strings.Join(requiredFields, ", ")))
	}
}

// recordData is the decoded shape of a record as the schema sees it.
func recordData(rec types.ScoredRecord) map[string]any {
	flags := rec.ClinicalFlags
	if flags == nil {
		flags = []string{}
	}
	return map[string]any{
		"questionnaire":  rec.Questionnaire,
		"timepoint":      rec.Timepoint,
		"raw_total":      rec.RawTotal,
		"severity":       rec.Severity,
		"date":           rec.Date,
		"free_text":      rec.FreeText,
		"clinical_flags": flags,
	}
}

func missingInGo(rec types.ScoredRecord) []string {
	var missing []string
	if strings.TrimSpace(rec.Questionnaire) == "" {
		missing = append(missing, "questionnaire")
	}
	if rec.Timepoint < 0 {
		missing = append(missing, "timepoint")
	}
	if strings.TrimSpace(rec.Severity) == "" {
		missing = append(missing, "severity")
	}
	return missing
}

func (r *Report) checkDateTimepoint(records []types.ScoredRecord) (dates []time.Time, timepoints []int) {
	c := &r.Checks.DateTimepoint
	for _, rec := range records {
		if d, ok := coerce.ParseDate(rec.Date); ok {
			dates = append(dates, d)
		} else if strings.TrimSpace(rec.Date) != "" {
			c.InvalidDates++
		}
		if rec.Timepoint > 0 {
			timepoints = append(timepoints, rec.Timepoint)
		}
	}
	c.ItemsWithDates = len(dates)
	c.ItemsWithValidTimepoints = len(timepoints)

	if len(dates) > 0 {
		sorted := slices.SortedFunc(slices.Values(dates), time.Time.Compare)
		first, last := sorted[0], sorted[len(sorted)-1]
		c.DateRange = &DateRange{
			Earliest:       first.Format(time.DateOnly),
			Latest:         last.Format(time.DateOnly),
			SpanDays:       int(last.Sub(first).Hours() / 24),
			TotalWithDates: len(dates),
		}
	}
	if len(timepoints) > 0 {
		sorted := slices.Sorted(slices.Values(timepoints))
		c.TimepointRange = &TimepointRange{
			Earliest:            sorted[0],
			Latest:              sorted[len(sorted)-1],
			UniqueTimepoints:    len(slices.Compact(sorted)),
			TotalWithTimepoints: len(timepoints),
		}
	}

	if n := len(records); len(dates) < n {
		pct := float64(len(dates)) / float64(n) * 100
		r.addWarning(CheckDateTimepoint, fmt.Sprintf("Only %d/%d (%.1f%%) items have valid dates", len(dates), n, pct))
		if pct < 50 {
			r.recommend("Consider adding dates to more items for better trend analysis")
		}
	}
	if c.InvalidDates > 0 {
		r.addWarning(CheckDateTimepoint, fmt.Sprintf("%d items have invalid date formats", c.InvalidDates))
	}
	return dates, timepoints
}

func (r *Report) checkDistribution(records []types.ScoredRecord) {
	type group struct {
		stats      QuestionnaireStats
		timepoints map[int]bool
	}
	var groups []*group
	index := make(map[string]*group)

	for _, rec := range records {
		name := orUnknown(strings.TrimSpace(rec.Questionnaire))
		g, ok := index[name]
		if !ok {
			g = &group{
				stats:      QuestionnaireStats{Questionnaire: name, ScoreRange: ScoreRange{Min: rec.RawTotal, Max: rec.RawTotal}},
				timepoints: make(map[int]bool),
			}
			index[name] = g
			groups = append(groups, g)
		}
		g.stats.TotalAssessments++
		g.timepoints[rec.Timepoint] = true
		if rec.Date != "" {
			g.stats.AssessmentsWithDates++
		}
		if !rec.Derived.IsEmpty() {
			g.stats.AssessmentsWithDerived++
		}
		g.stats.ScoreRange.Min = min(g.stats.ScoreRange.Min, rec.RawTotal)
		g.stats.ScoreRange.Max = max(g.stats.ScoreRange.Max, rec.RawTotal)
	}

	d := &r.Metrics.Distribution
	d.TotalQuestionnaires = len(groups)
	d.Summary = make([]QuestionnaireStats, 0, len(groups))
	var insufficient []string
	for _, g := range groups {
		g.stats.UniqueTimepoints = len(g.timepoints)
		d.Summary = append(d.Summary, g.stats)
		if g.stats.UniqueTimepoints >= 2 {
			d.QuestionnairesReadyForTrends++
		} else {
			insufficient = append(insufficient, g.stats.Questionnaire)
		}
	}
	d.QuestionnairesInsufficient = len(insufficient)

	if len(insufficient) > 0 {
		r.addWarning(CheckDistribution, fmt.Sprintf("%d questionnaire(s) have only 1 timepoint - cannot analyze trends: %s",
			len(insufficient), strings.Join(insufficient, ", ")))
		r.recommend("Collect data at multiple timepoints to enable trend analysis")
	}
}

func (r *Report) checkDerived(records []types.ScoredRecord) {
	c := &r.Checks.Derived
	for _, rec := range records {
		d := rec.Derived
		if d.IsEmpty() {
			c.ItemsWithEmptyDerived++
			continue
		}
		if d.Scale != "" {
			c.ItemsWithScaleInfo++
		}
		if len(d.Interpretations) > 0 || d.Interpretation != "" {
			c.ItemsWithInterpretations++
		}
	}
	c.ItemsWithDerived = len(records) - c.ItemsWithEmptyDerived

	switch {
	case c.ItemsWithEmptyDerived == 0:
	case c.ItemsWithEmptyDerived == len(records):
		r.addError(CheckDerived, "All items have empty 'derived' dictionary - preprocessor may not be working correctly")
	default:
		r.addWarning(CheckDerived, fmt.Sprintf("%d items have empty 'derived' data", c.ItemsWithEmptyDerived))
	}
}

func (r *Report) checkScores(records []types.ScoredRecord) {
	c := &r.Checks.ScoreValidity
	for _, rec := range records {
		switch {
		case rec.RawTotal == 0:
			c.ItemsWithZeroScores++
		case rec.RawTotal < 0:
			c.ItemsWithNegativeScores++
		}
	}

	if c.ItemsWithNegativeScores > 0 {
		r.addError(CheckScores, fmt.Sprintf("%d items have negative scores (invalid)", c.ItemsWithNegativeScores))
	}
	if float64(c.ItemsWithZeroScores) > float64(len(records))*0.5 {
		r.addWarning(CheckScores, fmt.Sprintf("%d items have zero scores - verify this is expected", c.ItemsWithZeroScores))
	}
}

func (r *Report) checkTrendReadiness(dates []time.Time, timepoints []int) {
	t := &r.Metrics.TrendReadiness
	t.Issues = []string{}
	switch {
	case len(dates) >= 2:
		t.Ready = true
		t.RecommendedSortMethod = "date_primary"
	case len(timepoints) >= 2:
		t.Ready = true
		t.RecommendedSortMethod = "timepoint_only"
		t.Issues = append(t.Issues, "No dates available - will use timepoint ordering only")
	default:
		t.Issues = append(t.Issues, "Need at least 2 items with dates or timepoints for trend analysis")
		r.addWarning(CheckTrendReadiness, "Insufficient data for trend analysis - need at least 2 timepoints with dates or timepoint markers")
	}
	t.QuestionnairesWithTrends = r.Metrics.Distribution.QuestionnairesReadyForTrends
	t.TotalQuestionnaires = r.Metrics.Distribution.TotalQuestionnaires
}

func (r *Report) checkClinicalFlags(records []types.ScoredRecord) {
	f := &r.Metrics.ClinicalFlags
	f.CriticalDetails = []CriticalFlag{}
	for _, rec := range records {
		if len(rec.ClinicalFlags) == 0 {
			continue
		}
		f.ItemsWithFlags++
		f.TotalFlags += len(rec.ClinicalFlags)
		for _, flag := range rec.ClinicalFlags {
			if !textutil.IncludesAny(flag, CriticalKeywords...) {
				continue
			}
			f.CriticalFlags++
			if len(f.CriticalDetails) < maxCriticalDetails {
				f.CriticalDetails = append(f.CriticalDetails, CriticalFlag{
					Questionnaire: orUnknown(rec.Questionnaire),
					Timepoint:     rec.Timepoint,
					Flag:          flag,
				})
			}
		}
	}

	if f.CriticalFlags > 0 {
		r.recommend(fmt.Sprintf("%d critical clinical flags detected - review before LLM processing", f.CriticalFlags))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	w       io.Writer
	verbose bool
}

// NewMarkdownFormatter creates a new MarkdownFormatter
func NewMarkdownFormatter(w io.Writer, verbose bool) *MarkdownFormatter {
	return &MarkdownFormatter{w: w, verbose: verbose}
}

// FormatRun writes a complete run report.
func (f *MarkdownFormatter) FormatRun(res *pipeline.Result) error {
	var b strings.Builder

	b.WriteString("# Questionnaire Trend Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", res.GeneratedAt)
	fmt.Fprintf(&b, "**Run:** `%s`\n\n", res.RunID)
	if len(res.Sources) > 0 {
		fmt.Fprintf(&b, "**Sources:** %s\n\n", strings.Join(res.Sources, ", "))
	}
	b.WriteString(strings.Repeat("-", 50) + "\n\n")

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Count |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Rows Read | %d |\n", res.RowsRead)
	fmt.Fprintf(&b, "| Metadata Rows Skipped | %d |\n", res.RowsSkipped)
	fmt.Fprintf(&b, "| Scored Records | %d |\n", len(res.Records))
	if res.Quality != nil {
		fmt.Fprintf(&b, "| Quality Status | %s |\n", res.Quality.Status)
	}
	if res.Trends != nil {
		o := res.Trends.TrendOverview
		fmt.Fprintf(&b, "| Trends | %d |\n", len(res.Trends.DetailedTrends))
		fmt.Fprintf(&b, "| Improving | %d |\n", o.Improving)
		fmt.Fprintf(&b, "| Worsening | %d |\n", o.Worsening)
		fmt.Fprintf(&b, "| Stable | %d |\n", o.Stable)
	}
	b.WriteString("\n")

	if res.Quality != nil {
		f.writeIssues(&b, "## Data Quality", res.Quality)
	}
	if res.Trends != nil {
		f.writeTrends(&b, res.Trends)
	}

	b.WriteString("## Conclusion\n\n")
	if res.Quality != nil && res.Quality.Status == quality.StatusFail {
		fmt.Fprintf(&b, "%s Data quality check failed with %d %s\n",
			getStatusEmoji(false), len(res.Quality.Errors), pluralizeCount("error", len(res.Quality.Errors)))
	} else {
		fmt.Fprintf(&b, "%s %d %s analyzed\n",
			getStatusEmoji(true), len(res.Records), pluralizeCount("record", len(res.Records)))
	}
	return f.write(b.String())
}

// FormatScored writes one section per scored record.
func (f *MarkdownFormatter) FormatScored(records []types.ScoredRecord) error {
	var b strings.Builder

	b.WriteString("# Scored Questionnaires\n\n")
	if len(records) == 0 {
		b.WriteString("*No records scored.*\n")
		return f.write(b.String())
	}

	b.WriteString("| Questionnaire | Timepoint | Date | Raw Total | Severity | Flags |\n")
	b.WriteString("|---------------|-----------|------|-----------|----------|-------|\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "| %s | %d | %s | %d | %s | %d |\n",
			cell(rec.Questionnaire), rec.Timepoint, cell(rec.Date), rec.RawTotal, cell(rec.Severity), len(rec.ClinicalFlags))
	}
	b.WriteString("\n")

	for _, rec := range records {
		if len(rec.ClinicalFlags) == 0 && !f.verbose {
			continue
		}
		fmt.Fprintf(&b, "### %s, %s\n\n", rec.Questionnaire, when(rec.Timepoint, rec.Date))
		if rec.Derived.Scale != "" {
			fmt.Fprintf(&b, "Scale: `%s`\n\n", rec.Derived.Scale)
		}
		for _, flag := range rec.ClinicalFlags {
			fmt.Fprintf(&b, "- %s\n", flag)
		}
		b.WriteString("\n")
	}
	return f.write(b.String())
}

// FormatTrends writes the trend report.
func (f *MarkdownFormatter) FormatTrends(r *trend.Report) error {
	var b strings.Builder
	b.WriteString("# Questionnaire Trends\n\n")
	f.writeTrends(&b, r)
	return f.write(b.String())
}

// FormatQuality writes the checkpoint report.
func (f *MarkdownFormatter) FormatQuality(r *quality.Report) error {
	var b strings.Builder

	b.WriteString("# Data Quality Validation Report\n\n")
	fmt.Fprintf(&b, "**Status:** %s %s\n\n", getStatusEmoji(r.Status != quality.StatusFail), r.Status)

	s := r.Summary
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(&b, "| Total Items | %d |\n", s.TotalItems)
	fmt.Fprintf(&b, "| Items With All Required Fields | %d |\n", s.ItemsWithAllRequiredFields)
	fmt.Fprintf(&b, "| Questionnaires Analyzed | %d |\n", s.QuestionnairesAnalyzed)
	fmt.Fprintf(&b, "| Ready For Trend Analysis | %t |\n", s.ReadyForTrendAnalysis)
	fmt.Fprintf(&b, "| Critical Issues | %d |\n", s.CriticalIssues)
	fmt.Fprintf(&b, "| Warnings | %d |\n", s.Warnings)
	if r.Suppressed > 0 {
		fmt.Fprintf(&b, "| Suppressed By Baseline | %d |\n", r.Suppressed)
	}
	b.WriteString("\n")

	f.writeIssues(&b, "## Findings", r)

	if len(r.Recommendations) > 0 {
		b.WriteString("## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "- %s\n", rec)
		}
		b.WriteString("\n")
	}

	if dist := r.Metrics.Distribution.Summary; len(dist) > 0 {
		b.WriteString("## Questionnaire Distribution\n\n")
		b.WriteString("| Questionnaire | Assessments | Timepoints | Score Range |\n")
		b.WriteString("|---------------|-------------|------------|-------------|\n")
		for _, q := range dist {
			fmt.Fprintf(&b, "| %s | %d | %d | %d-%d |\n",
				cell(q.Questionnaire), q.TotalAssessments, q.UniqueTimepoints, q.ScoreRange.Min, q.ScoreRange.Max)
		}
		b.WriteString("\n")
	}
	return f.write(b.String())
}

// FormatSummary writes the digest.
func (f *MarkdownFormatter) FormatSummary(d *Digest) error {
	var b strings.Builder

	b.WriteString("# Questionnaire Summary\n\n")
	fmt.Fprintf(&b, "**Records:** %d\n\n", d.TotalRecords)

	b.WriteString("## Severity Distribution\n\n")
	for _, q := range d.Questionnaires {
		fmt.Fprintf(&b, "### %s\n\n", q.Questionnaire)
		b.WriteString("| Severity | Count |\n")
		b.WriteString("|----------|-------|\n")
		for _, sev := range sortedKeys(q.Severity) {
			fmt.Fprintf(&b, "| %s | %d |\n", cell(sev), q.Severity[sev])
		}
		b.WriteString("\n")
	}

	if len(d.TopFlags) > 0 {
		b.WriteString("## Top Clinical Flags\n\n")
		for _, fc := range d.TopFlags {
			fmt.Fprintf(&b, "- %s (%d)\n", fc.Flag, fc.Count)
		}
		b.WriteString("\n")
	}

	if len(d.MostFlagged) > 0 {
		b.WriteString("## Most Flagged Records\n\n")
		for _, rec := range d.MostFlagged {
			fmt.Fprintf(&b, "- **%s** %s: %d %s\n", rec.Questionnaire, when(rec.Timepoint, rec.Date),
				len(rec.Flags), pluralizeCount("flag", len(rec.Flags)))
		}
		b.WriteString("\n")
	}
	return f.write(b.String())
}

func (f *MarkdownFormatter) writeIssues(b *strings.Builder, title string, r *quality.Report) {
	if len(r.Errors) == 0 && len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n\n", title)
	if len(r.Errors) > 0 {
		b.WriteString("### Errors\n\n")
		for _, e := range r.Errors {
			fmt.Fprintf(b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("### Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
}

func (f *MarkdownFormatter) writeTrends(b *strings.Builder, r *trend.Report) {
	b.WriteString("## Trends\n\n")
	if len(r.DetailedTrends) == 0 {
		b.WriteString("*No questionnaire has enough assessments for trend analysis.*\n\n")
	}

	if len(r.DetailedTrends) > 1 {
		for _, s := range r.DetailedTrends {
			fmt.Fprintf(b, "- [%s](#%s)\n", s.Questionnaire, createAnchor(s.Questionnaire))
		}
		b.WriteString("\n")
	}

	for _, s := range r.DetailedTrends {
		sa := s.ScoreAnalysis
		fmt.Fprintf(b, "### %s\n\n", s.Questionnaire)
		fmt.Fprintf(b, "Direction: **%s** (%s → %s, %s, %s%%)\n\n", sa.TrendDirection,
			textutil.FormatNumber(sa.InitialScore), textutil.FormatNumber(sa.LatestScore),
			signed(sa.Change), textutil.FormatNumber(sa.ChangePercentage))
		fmt.Fprintf(b, "Severity: %s\n\n", s.SeverityAnalysis.SeverityChange)
		fmt.Fprintf(b, "Period: %s (%s)\n\n", s.Timeline.Period, spanText(s.Timeline))
		fmt.Fprintf(b, "Score basis: `%s`\n\n", sa.ScoreBasis)

		b.WriteString("| Timepoint | Date | Score | Severity | Flags |\n")
		b.WriteString("|-----------|------|-------|----------|-------|\n")
		for _, h := range s.History {
			fmt.Fprintf(b, "| %d | %s | %s | %s | %d |\n",
				h.Timepoint, cell(h.Date), textutil.FormatNumber(h.Score), cell(h.Severity), len(h.ClinicalFlags))
		}
		b.WriteString("\n")

		if f.verbose || len(s.DataQuality.Warnings) > 0 {
			for _, w := range s.DataQuality.Warnings {
				fmt.Fprintf(b, "> %s\n", w)
			}
			b.WriteString("\n")
		}
	}

	if len(r.DataQuality.Exclusions) > 0 {
		b.WriteString("## Excluded\n\n")
		for _, ex := range r.DataQuality.Exclusions {
			fmt.Fprintf(b, "- **%s** - %s\n", ex.Questionnaire, ex.Reason)
		}
		b.WriteString("\n")
	}

	if len(r.ClinicalNotes) > 0 {
		b.WriteString("## Clinical Notes\n\n")
		for _, n := range r.ClinicalNotes {
			fmt.Fprintf(b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
}

func (f *MarkdownFormatter) write(content string) error {
	if _, err := io.WriteString(f.w, content); err != nil {
		return fmt.Errorf("error writing markdown: %w", err)
	}
	return nil
}

// getStatusEmoji returns an emoji for the status
func getStatusEmoji(success bool) string {
	if success {
		return "✅"
	}
	return "❌"
}

// createAnchor creates a markdown-safe anchor
func createAnchor(text string) string {
	anchor := strings.ToLower(text)
	anchor = strings.ReplaceAll(anchor, " ", "-")
	anchor = strings.ReplaceAll(anchor, ".", "")
	anchor = strings.ReplaceAll(anchor, "/", "-")
	return anchor
}

// cell escapes pipes and marks empty table cells.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

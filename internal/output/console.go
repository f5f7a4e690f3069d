package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

const ruleWidth = 70

// ConsoleFormatter formats output for console display
type ConsoleFormatter struct {
	w        io.Writer
	quiet    bool
	verbose  bool
	colorize bool
	style    palette
}

// NewConsoleFormatter creates a new ConsoleFormatter
func NewConsoleFormatter(w io.Writer, quiet, verbose, colorize bool) *ConsoleFormatter {
	return &ConsoleFormatter{
		w:        w,
		quiet:    quiet,
		verbose:  verbose,
		colorize: colorize,
		style:    newPalette(colorize),
	}
}

// FormatRun prints the checkpoint outcome, the trend table and a closing line.
func (f *ConsoleFormatter) FormatRun(res *pipeline.Result) error {
	if f.quiet {
		return nil
	}

	f.printf("%s\n", f.style.dim.Render(fmt.Sprintf("run %s  %d records from %d rows",
		res.RunID, len(res.Records), res.RowsRead)))
	if res.RowsSkipped > 0 {
		f.printf("%s\n", f.style.dim.Render(fmt.Sprintf("%d metadata rows skipped", res.RowsSkipped)))
	}

	f.printIssues(res.Quality)
	if res.BaselineIgnored > 0 {
		f.printf("%s\n", f.style.dim.Render(fmt.Sprintf("%d known warnings ignored (baseline)", res.BaselineIgnored)))
	}

	newTrendTable(f.w, f.style).print(res.Trends)
	f.printExclusions(res.Trends)
	if f.verbose {
		f.printNotes(res.Trends)
	}

	f.printConclusion(res)
	return nil
}

// FormatScored prints one line per scored record and its clinical flags.
func (f *ConsoleFormatter) FormatScored(records []types.ScoredRecord) error {
	if f.quiet {
		return nil
	}

	for _, rec := range records {
		icon, style := "✓", f.style.ok
		if len(rec.ClinicalFlags) > 0 {
			icon, style = "⚠", f.style.warn
		}
		f.printf("%s %s %s  raw %d  %s\n",
			style.Render(icon), rec.Questionnaire, f.style.dim.Render(when(rec.Timepoint, rec.Date)),
			rec.RawTotal, rec.Severity)
		if f.verbose && rec.Derived.Scale != "" {
			f.printf("    %s\n", f.style.dim.Render(rec.Derived.Scale))
		}
		for _, flag := range rec.ClinicalFlags {
			f.printf("    %s %s\n", f.style.warn.Render("⚠"), flag)
		}
	}
	f.printf("\n%d %s scored\n", len(records), pluralizeCount("record", len(records)))
	return nil
}

// FormatTrends prints the trend table, exclusions and notes.
func (f *ConsoleFormatter) FormatTrends(r *trend.Report) error {
	if f.quiet {
		return nil
	}

	newTrendTable(f.w, f.style).print(r)
	f.printExclusions(r)
	for _, w := range r.DataQuality.OverallWarnings {
		f.printf("%s %s\n", f.style.warn.Render("⚠"), w)
	}
	f.printNotes(r)

	o := r.TrendOverview
	f.printf("\n%d improving, %d worsening, %d stable\n", o.Improving, o.Worsening, o.Stable)
	return nil
}

// FormatQuality prints the checkpoint as a sectioned text report.
func (f *ConsoleFormatter) FormatQuality(r *quality.Report) error {
	if f.quiet {
		return nil
	}

	rule := strings.Repeat("=", ruleWidth)
	f.printf("%s\n%s\n%s\n", rule, f.style.bold.Render("DATA QUALITY VALIDATION REPORT"), rule)
	f.printf("Status: %s\n", f.statusStyle(r.Status).Render(r.Status))
	f.printf("Total Items: %d\n\n", r.TotalItems)

	s := r.Summary
	f.printf("SUMMARY:\n")
	f.printf("  total items: %d\n", s.TotalItems)
	f.printf("  items with all required fields: %d\n", s.ItemsWithAllRequiredFields)
	f.printf("  questionnaires analyzed: %d\n", s.QuestionnairesAnalyzed)
	f.printf("  ready for trend analysis: %t\n", s.ReadyForTrendAnalysis)
	f.printf("  critical issues: %d\n", s.CriticalIssues)
	f.printf("  warnings: %d\n", s.Warnings)
	if r.Suppressed > 0 {
		f.printf("  suppressed by baseline: %d\n", r.Suppressed)
	}
	f.printf("\n")

	f.section("ERRORS:", "✘", f.style.err, r.Errors)
	f.section("WARNINGS:", "⚠", f.style.warn, r.Warnings)
	f.section("RECOMMENDATIONS:", "💡", f.style.dim, r.Recommendations)

	if dist := r.Metrics.Distribution.Summary; len(dist) > 0 {
		f.printf("QUESTIONNAIRE DISTRIBUTION:\n")
		for _, q := range dist {
			f.printf("  %s:\n", q.Questionnaire)
			f.printf("    Assessments: %d\n", q.TotalAssessments)
			f.printf("    Timepoints: %d\n", q.UniqueTimepoints)
			f.printf("    Score Range: %d-%d\n", q.ScoreRange.Min, q.ScoreRange.Max)
		}
		f.printf("\n")
	}

	if f.verbose {
		for _, c := range r.Metrics.ClinicalFlags.CriticalDetails {
			f.printf("  %s %s (timepoint %d): %s\n", f.style.err.Render("!"), c.Questionnaire, c.Timepoint, c.Flag)
		}
	}
	f.printf("%s\n", rule)
	return nil
}

// FormatSummary prints the severity distribution and flag digest.
func (f *ConsoleFormatter) FormatSummary(d *Digest) error {
	if f.quiet {
		return nil
	}

	f.printf("%s\n", f.style.bold.Render("Severity distribution"))
	for _, q := range d.Questionnaires {
		f.printf("  %s %s\n", q.Questionnaire, f.style.dim.Render(fmt.Sprintf("(%d %s)",
			q.Assessments, pluralizeCount("assessment", q.Assessments))))
		for _, sev := range sortedKeys(q.Severity) {
			f.printf("    %-28s %d\n", sev, q.Severity[sev])
		}
	}

	if len(d.TopFlags) > 0 {
		f.printf("\n%s\n", f.style.bold.Render("Top clinical flags"))
		for _, fc := range d.TopFlags {
			f.printf("  %3d  %s\n", fc.Count, fc.Flag)
		}
	}

	if len(d.MostFlagged) > 0 {
		f.printf("\n%s\n", f.style.bold.Render("Most flagged records"))
		for _, rec := range d.MostFlagged {
			f.printf("  %s %s  %s\n", rec.Questionnaire, f.style.dim.Render(when(rec.Timepoint, rec.Date)),
				f.style.warn.Render(fmt.Sprintf("%d %s", len(rec.Flags), pluralizeCount("flag", len(rec.Flags)))))
			if f.verbose {
				for _, flag := range rec.Flags {
					f.printf("    - %s\n", flag)
				}
			}
		}
	}

	f.printf("\n%d %s\n", d.TotalRecords, pluralizeCount("record", d.TotalRecords))
	return nil
}

func (f *ConsoleFormatter) printIssues(r *quality.Report) {
	if r == nil {
		return
	}
	if len(r.Errors) > 0 {
		f.printf("\n%s\n", f.style.bold.Render("Errors:"))
		for _, e := range r.Errors {
			f.printf("    ✘ %s\n", f.style.err.Render(e))
		}
	}
	if len(r.Warnings) > 0 && (f.verbose || len(r.Errors) == 0) {
		f.printf("\n%s\n", f.style.bold.Render("Warnings:"))
		for _, w := range r.Warnings {
			f.printf("    ⚠ %s\n", f.style.warn.Render(w))
		}
	}
}

func (f *ConsoleFormatter) printExclusions(r *trend.Report) {
	if r == nil || len(r.DataQuality.Exclusions) == 0 {
		return
	}
	f.printf("\n%s\n", f.style.bold.Render("Excluded:"))
	for _, ex := range r.DataQuality.Exclusions {
		f.printf("  %s %s: %s\n", f.style.err.Render("✗"), ex.Questionnaire, f.style.dim.Render(ex.Reason))
	}
}

func (f *ConsoleFormatter) printNotes(r *trend.Report) {
	if r == nil || len(r.ClinicalNotes) == 0 {
		return
	}
	f.printf("\n%s\n", f.style.bold.Render("Notes:"))
	for _, n := range r.ClinicalNotes {
		f.printf("  - %s\n", f.style.dim.Render(n))
	}
}

// printConclusion prints the closing status line, celebrating a clean run on a terminal.
func (f *ConsoleFormatter) printConclusion(res *pipeline.Result) {
	status := quality.StatusPass
	if res.Quality != nil {
		status = res.Quality.Status
	}
	trends := 0
	if res.Trends != nil {
		trends = len(res.Trends.DetailedTrends)
	}
	msg := fmt.Sprintf("%s  %d %s, %d %s", status,
		len(res.Records), pluralizeCount("record", len(res.Records)),
		trends, pluralizeCount("trend", trends))

	f.printf("\n")
	switch {
	case f.colorize && status == quality.StatusPass && isTTY(f.w):
		printCelebration(f.w, msg)
	default:
		f.printf("%s\n", f.statusStyle(status).Render(msg))
	}
}

func (f *ConsoleFormatter) section(title, icon string, style lipgloss.Style, lines []string) {
	if len(lines) == 0 {
		return
	}
	f.printf("%s\n", title)
	for _, l := range lines {
		f.printf("  %s %s\n", style.Render(icon), l)
	}
	f.printf("\n")
}

func (f *ConsoleFormatter) statusStyle(status string) lipgloss.Style {
	switch status {
	case quality.StatusFail:
		return f.style.err
	case quality.StatusWarning:
		return f.style.warn
	default:
		return f.style.ok
	}
}

func (f *ConsoleFormatter) printf(format string, args ...any) {
	fmt.Fprintf(f.w, format, args...)
}

// when renders a record position as "timepoint 2 (2024-01-15)".
func when(timepoint int, date string) string {
	s := fmt.Sprintf("timepoint %d", timepoint)
	if date != "" {
		s += " (" + date + ")"
	}
	return s
}

// signed renders a change with an explicit sign.
func signed(v float64) string {
	s := textutil.FormatNumber(v)
	if v > 0 {
		s = "+" + s
	}
	return s
}

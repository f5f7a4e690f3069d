package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// trendTable prints one aligned status line per analyzed questionnaire.
type trendTable struct {
	w     io.Writer
	style palette
}

func newTrendTable(w io.Writer, style palette) *trendTable {
	return &trendTable{w: w, style: style}
}

// statusInfo groups the status icon and style for a trend direction.
type statusInfo struct {
	icon  string
	style lipgloss.Style
}

func (t *trendTable) statusInfo(direction string) statusInfo {
	switch direction {
	case types.TrendImprovement:
		return statusInfo{icon: "↗", style: t.style.ok}
	case types.TrendWorsening:
		return statusInfo{icon: "↘", style: t.style.err}
	default:
		return statusInfo{icon: "→", style: t.style.dim}
	}
}

func (t *trendTable) print(r *trend.Report) {
	if r == nil || len(r.DetailedTrends) == 0 {
		return
	}

	maxNameLen := t.calculateColumnWidth(r.DetailedTrends)

	fmt.Fprintln(t.w)
	for _, s := range r.DetailedTrends {
		info := t.statusInfo(s.ScoreAnalysis.TrendDirection)
		padding := strings.Repeat(" ", maxNameLen-len(s.Questionnaire))
		sa := s.ScoreAnalysis

		text := fmt.Sprintf("%s %s → %s (%s)", sa.TrendDirection,
			textutil.FormatNumber(sa.InitialScore), textutil.FormatNumber(sa.LatestScore), signed(sa.Change))
		fmt.Fprintf(t.w, "  %s %s%s  %s  %s\n",
			info.style.Render(info.icon),
			s.Questionnaire,
			padding,
			info.style.Render(text),
			t.style.dim.Render(spanText(s.Timeline)))

		if s.SeverityAnalysis.SeverityChange != "" {
			fmt.Fprintf(t.w, "    %s%s\n", strings.Repeat(" ", maxNameLen), t.style.dim.Render(s.SeverityAnalysis.SeverityChange))
		}
		for _, w := range s.DataQuality.Warnings {
			if strings.HasPrefix(w, "mixed_scale") {
				fmt.Fprintf(t.w, "    %s%s %s\n", strings.Repeat(" ", maxNameLen), t.style.warn.Render("⚠"), w)
			}
		}
	}
}

// calculateColumnWidth computes the name column width.
func (t *trendTable) calculateColumnWidth(trends []trend.Summary) int {
	maxNameLen := 0
	for _, s := range trends {
		maxNameLen = max(maxNameLen, len(s.Questionnaire))
	}
	return maxNameLen
}

// spanText describes the elapsed time, marking estimates with "~".
func spanText(tl trend.Timeline) string {
	switch tl.TimelineMethod {
	case trend.TimelineActualDates:
		return fmt.Sprintf("%d days, %d assessments", tl.DaysSpan, tl.NumberOfAssessments)
	case trend.TimelineEstimated:
		return fmt.Sprintf("~%d days (estimated), %d assessments", tl.DaysSpan, tl.NumberOfAssessments)
	default:
		return fmt.Sprintf("%d assessments", tl.NumberOfAssessments)
	}
}

// pluralizeCount returns singular or plural form based on count.
func pluralizeCount(s string, count int) string {
	if count == 1 {
		return s
	}
	return s + "s"
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}

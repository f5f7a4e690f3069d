package trend

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dotcommander/qtrend/internal/coerce"
	"github.com/dotcommander/qtrend/internal/types"
)

// weeksPerTimepoint is the assumed gap between consecutive timepoints when
// no dates are available (middle of the usual 4-6 week cadence).
const weeksPerTimepoint = 5

// missingDate orders undated records first under date_primary sorting.
var missingDate = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// validation decides whether and how a group can be ordered.
type validation struct {
	withDates      int
	withTimepoints int
	sortMethod     string
	warnings       []string
}

func (v validation) canAnalyze() bool {
	return v.sortMethod != ""
}

func validate(records []types.ScoredRecord) validation {
	var v validation
	for _, r := range records {
		if _, ok := coerce.ParseDate(r.Date); ok {
			v.withDates++
		}
		if r.Timepoint > 0 {
			v.withTimepoints++
		}
	}

	total := len(records)
	switch {
	case v.withDates >= 2:
		v.sortMethod = SortDatePrimary
		if v.withDates < total {
			v.warnings = append(v.warnings, fmt.Sprintf("Using dates for %d/%d items", v.withDates, total))
		}
	case v.withTimepoints >= 2:
		v.sortMethod = SortTimepointOnly
		v.warnings = append(v.warnings, "No dates available - using timepoint ordering only")
		if v.withTimepoints < total {
			v.warnings = append(v.warnings, fmt.Sprintf("Using timepoints for %d/%d items", v.withTimepoints, total))
		}
	default:
		v.warnings = append(v.warnings, "Insufficient data: need at least 2 items with dates or timepoints")
	}
	return v
}

// order drops records the sort method cannot place and sorts the rest
// ascending. date_primary orders by (date, timepoint) with undated records
// first; timepoint_only orders by timepoint.
func order(records []types.ScoredRecord, method string) []types.ScoredRecord {
	type keyed struct {
		rec  types.ScoredRecord
		date time.Time
	}

	var kept []keyed
	for _, r := range records {
		d, ok := coerce.ParseDate(r.Date)
		switch method {
		case SortDatePrimary:
			if !ok && r.Timepoint <= 0 {
				continue
			}
			if !ok {
				d = missingDate
			}
		case SortTimepointOnly:
			if r.Timepoint <= 0 {
				continue
			}
		}
		kept = append(kept, keyed{r, d})
	}

	slices.SortStableFunc(kept, func(a, b keyed) int {
		if method == SortDatePrimary {
			if c := a.date.Compare(b.date); c != 0 {
				return c
			}
		}
		return a.rec.Timepoint - b.rec.Timepoint
	})

	out := make([]types.ScoredRecord, len(kept))
	for i, k := range kept {
		out[i] = k.rec
	}
	return out
}

// span returns the elapsed days between two records and how it was obtained.
// Dates win; otherwise timepoint steps are converted at a fixed cadence.
func span(initial, latest types.ScoredRecord) (int, string) {
	d1, ok1 := coerce.ParseDate(initial.Date)
	d2, ok2 := coerce.ParseDate(latest.Date)
	if ok1 && ok2 {
		days := int(math.Floor(d2.Sub(d1).Hours() / 24))
		return abs(days), TimelineActualDates
	}
	if initial.Timepoint != 0 && latest.Timepoint != 0 {
		return abs(latest.Timepoint-initial.Timepoint) * weeksPerTimepoint * 7, TimelineEstimated
	}
	return 0, TimelineUnknown
}

func periodBound(r types.ScoredRecord) string {
	if r.Date != "" {
		return r.Date
	}
	return fmt.Sprintf("timepoint %d", r.Timepoint)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

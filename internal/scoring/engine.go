// Package scoring turns aggregated questionnaire administrations into scored
// records: raw totals, transformed scores, severity bands and clinical flags.
package scoring

import (
	"github.com/dotcommander/qtrend/internal/rules"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

// Score scores one aggregated record. It never fails: malformed or empty
// records produce a best-effort result with placeholder severity text.
func Score(rec types.AggregatedRecord) types.ScoredRecord {
	var total float64
	for _, r := range rec.Responses {
		total += r.Answer
	}

	rule, _ := rules.LookupCutoff(rec.Questionnaire)
	in := Input{
		Record: rec,
		Name:   textutil.Normalize(rec.Questionnaire),
		Total:  total,
		Rule:   rule,
	}

	scorer, _ := Lookup(in.Name)
	res := scorer.Score(in)

	responses := rec.Responses
	if responses == nil {
		responses = []types.Response{}
	}
	flags := res.Flags
	if flags == nil {
		flags = []string{}
	}

	return types.ScoredRecord{
		Questionnaire: rec.Questionnaire,
		Timepoint:     rec.Timepoint,
		Date:          rec.Date,
		RawTotal:      int(total),
		ScaleInfo:     rule.ScaleInfo(),
		Severity:      res.Severity,
		ClinicalFlags: flags,
		Derived:       res.Derived,
		Responses:     responses,
		FreeText:      rec.FreeText,
	}
}

// ScoreAll scores records in order.
func ScoreAll(records []types.AggregatedRecord) []types.ScoredRecord {
	out := make([]types.ScoredRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, Score(rec))
	}
	return out
}

// Package aggregate groups item-level response rows into one record per
// questionnaire administration.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/dotcommander/qtrend/internal/coerce"
	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

// freeTextSeparator joins distinct free-text annotations of one administration.
const freeTextSeparator = " | "

// Aggregation is an insertion-ordered mapping from composite key to record.
type Aggregation struct {
	keys    []string
	records map[string]*types.AggregatedRecord
	skipped int
}

// New returns an empty aggregation.
func New() *Aggregation {
	return &Aggregation{records: make(map[string]*types.AggregatedRecord)}
}

// Key builds the composite grouping key for a questionnaire administration.
func Key(questionnaire string, timepoint int) string {
	return fmt.Sprintf("%s::%d", questionnaire, timepoint)
}

// NormalizeRow coerces a loosely typed input row. It reports false for
// metadata rows whose questionnaire identifier is empty or a noise token.
func NormalizeRow(fields map[string]any) (types.RawResponseRow, bool) {
	questionnaire := coerce.String(fields["questionnaire"])
	if textutil.IsNoise(questionnaire) {
		return types.RawResponseRow{}, false
	}

	tp, ok := fields["timepoint"]
	if !ok {
		tp = fields["timepoints"]
	}

	return types.RawResponseRow{
		Questionnaire:   questionnaire,
		Timepoint:       max(0, coerce.Round(tp)),
		Date:            coerce.ISODate(fields["date"]),
		Question:        coerce.String(fields["question"]),
		Answer:          coerce.Number(fields["answer"]),
		Dimension:       coerce.String(fields["dimension"]),
		FreeText:        coerce.String(fields["free_text"]),
		ResponseOptions: coerce.String(fields["response_options"]),
	}, true
}

// FromMaps normalizes and aggregates loosely typed rows.
func FromMaps(rows []map[string]any) *Aggregation {
	agg := New()
	for _, fields := range rows {
		row, ok := NormalizeRow(fields)
		if !ok {
			agg.skipped++
			continue
		}
		agg.Add(row)
	}
	return agg
}

// Rows aggregates already typed rows, in order.
func Rows(rows []types.RawResponseRow) *Aggregation {
	agg := New()
	for _, row := range rows {
		agg.Add(row)
	}
	return agg
}

// Add appends one row to the record for its (questionnaire, timepoint) key,
// creating the record on first sight. The first row of a key fixes its date.
// Negative timepoints are treated as unset.
func (a *Aggregation) Add(row types.RawResponseRow) {
	row.Questionnaire = strings.TrimSpace(row.Questionnaire)
	row.Timepoint = max(0, row.Timepoint)
	if textutil.IsNoise(row.Questionnaire) {
		a.skipped++
		return
	}

	key := Key(row.Questionnaire, row.Timepoint)
	rec, ok := a.records[key]
	if !ok {
		rec = &types.AggregatedRecord{
			Questionnaire: row.Questionnaire,
			Timepoint:     row.Timepoint,
			Date:          row.Date,
			Responses:     []types.Response{},
		}
		a.records[key] = rec
		a.keys = append(a.keys, key)
	}

	if text := strings.TrimSpace(row.FreeText); text != "" && !strings.Contains(rec.FreeText, text) {
		if rec.FreeText == "" {
			rec.FreeText = text
		} else {
			rec.FreeText += freeTextSeparator + text
		}
	}

	rec.Responses = append(rec.Responses, types.Response{
		Question:        row.Question,
		Answer:          row.Answer,
		Dimension:       row.Dimension,
		ResponseOptions: row.ResponseOptions,
	})
}

// Keys returns the composite keys in first-seen order.
func (a *Aggregation) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

// Get returns a copy of the record stored under key.
func (a *Aggregation) Get(key string) (types.AggregatedRecord, bool) {
	rec, ok := a.records[key]
	if !ok {
		return types.AggregatedRecord{}, false
	}
	return cloneRecord(rec), true
}

// Records returns copies of all records in first-seen key order.
func (a *Aggregation) Records() []types.AggregatedRecord {
	out := make([]types.AggregatedRecord, 0, len(a.keys))
	for _, key := range a.keys {
		out = append(out, cloneRecord(a.records[key]))
	}
	return out
}

// Len returns the number of distinct administrations.
func (a *Aggregation) Len() int {
	return len(a.keys)
}

// Skipped returns how many rows were discarded as metadata noise.
func (a *Aggregation) Skipped() int {
	return a.skipped
}

func cloneRecord(rec *types.AggregatedRecord) types.AggregatedRecord {
	out := *rec
	out.Responses = append([]types.Response(nil), rec.Responses...)
	if out.Responses == nil {
		out.Responses = []types.Response{}
	}
	return out
}

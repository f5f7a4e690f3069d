package output

import (
	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

func record(q string, tp int, date string, raw int, severity string, flags ...string) types.ScoredRecord {
	if flags == nil {
		flags = []string{}
	}
	return types.ScoredRecord{
		Questionnaire: q,
		Timepoint:     tp,
		Date:          date,
		RawTotal:      raw,
		Severity:      severity,
		ClinicalFlags: flags,
		Derived:       types.Derived{Scale: q + " scale", SeverityLevel: severity},
	}
}

func sampleRecords() []types.ScoredRecord {
	return []types.ScoredRecord{
		record("PHQ-9", 1, "2024-01-01", 12, "moderate", "PHQ-9 moderate (≥10)"),
		record("PHQ-9", 2, "2024-01-15", 6, "mild"),
		record("GAD-7", 1, "2024-01-01", 16, "severe", "GAD-7 severe anxiety (≥15)", "PHQ-9 moderate (≥10)"),
	}
}

func sampleResult() *pipeline.Result {
	records := sampleRecords()
	trends := trend.Analyze(records)
	trends.RunID = "run-1"
	trends.GeneratedAt = "2024-03-01T12:00:00Z"
	return &pipeline.Result{
		RunID:       "run-1",
		GeneratedAt: "2024-03-01T12:00:00Z",
		Sources:     []string{"rows.json"},
		RowsRead:    30,
		RowsSkipped: 2,
		Records:     records,
		Quality:     quality.Validate(records, nil),
		Trends:      trends,
	}
}

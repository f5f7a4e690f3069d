package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/ingest"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Format:    "console",
		FailOn:    "fail",
		LogLevel:  "warn",
		LogFormat: "console",
		Baseline:  config.BaselineConfig{Path: filepath.Join(t.TempDir(), ".qtrendbaseline.json")},
		Schemas:   config.SchemaConfig{Enabled: true},
	}
}

func newTestOrchestrator(t *testing.T, cfg *config.Config, opts Options) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(cfg, opts, zerolog.Nop())
	o.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	o.newID = func() string { return "run-1" }
	return o
}

func phqRows(timepoint int, date string, answers ...int) []map[string]any {
	rows := make([]map[string]any, 0, len(answers))
	for i, a := range answers {
		row := map[string]any{
			"questionnaire": "PHQ-9",
			"timepoint":     timepoint,
			"question":      "q" + string(rune('1'+i)),
			"answer":        a,
		}
		if date != "" {
			row["date"] = date
		}
		rows = append(rows, row)
	}
	return rows
}

func TestProcess(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	rows := phqRows(1, "2024-01-01", 2, 2, 2, 2, 1, 1, 1, 1, 0)
	rows = append(rows, map[string]any{"questionnaire": "questionnaire", "answer": "answer"})

	records, err := o.Process(rows)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "PHQ-9", records[0].Questionnaire)
	assert.Equal(t, 12, records[0].RawTotal)
	assert.Equal(t, "moderate", records[0].Severity)
}

func TestProcessNoData(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	_, err := o.Process(nil)
	assert.ErrorIs(t, err, ErrNoData)

	_, err = o.Process([]map[string]any{{"questionnaire": ""}, {"questionnaire": "nan"}})
	assert.ErrorIs(t, err, ErrNoData)
}

func TestRun(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	rows := append(
		phqRows(1, "2024-01-01", 2, 2, 2, 2, 1, 1, 1, 1, 0),
		phqRows(2, "2024-01-15", 1, 1, 1, 1, 1, 1, 0, 0, 0)...,
	)
	res, err := o.Run(rows)
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, "2024-03-01T12:00:00Z", res.GeneratedAt)
	assert.Equal(t, 18, res.RowsRead)
	assert.Zero(t, res.RowsSkipped)
	require.Len(t, res.Records, 2)

	require.NotNil(t, res.Quality)
	assert.Equal(t, quality.StatusPass, res.Quality.Status)
	assert.Empty(t, res.Quality.Errors)

	require.NotNil(t, res.Trends)
	assert.Equal(t, "run-1", res.Trends.RunID)
	require.Len(t, res.Trends.DetailedTrends, 1)
	sa := res.Trends.DetailedTrends[0].ScoreAnalysis
	assert.Equal(t, types.TrendImprovement, sa.TrendDirection)
	assert.Equal(t, -6.0, sa.Change)
	assert.Equal(t, trend.TimelineActualDates, res.Trends.DetailedTrends[0].Timeline.TimelineMethod)
}

func TestAnalyzeScoredEmpty(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	res, err := o.AnalyzeScored(nil)
	require.NoError(t, err)
	assert.Equal(t, quality.StatusFail, res.Quality.Status)
	assert.Contains(t, res.Quality.Errors, "No data received - empty input")
	assert.Empty(t, res.Trends.DetailedTrends)
}

func TestBaselineRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	rows := append(
		phqRows(1, "", 2, 2, 2, 2, 1, 1, 1, 1, 0),
		phqRows(2, "", 1, 1, 1, 1, 1, 1, 0, 0, 0)...,
	)

	plain, err := newTestOrchestrator(t, cfg, Options{}).Run(rows)
	require.NoError(t, err)
	require.NotEmpty(t, plain.Quality.Warnings, "undated rows should raise a date coverage warning")

	created, err := newTestOrchestrator(t, cfg, Options{CreateBaseline: true}).Run(rows)
	require.NoError(t, err)
	assert.True(t, created.BaselineCreated)
	assert.FileExists(t, cfg.Baseline.Path)

	filtered, err := newTestOrchestrator(t, cfg, Options{UseBaseline: true}).Run(rows)
	require.NoError(t, err)
	assert.Empty(t, filtered.Quality.Warnings)
	assert.Equal(t, len(plain.Quality.Warnings), filtered.BaselineIgnored)
	assert.Equal(t, quality.StatusPass, filtered.Quality.Status)
}

func TestBaselineMissingFile(t *testing.T) {
	cfg := testConfig(t)
	o := newTestOrchestrator(t, cfg, Options{UseBaseline: true, BaselinePath: filepath.Join(t.TempDir(), "none.json")})

	res, err := o.Run(phqRows(1, "2024-01-01", 1, 1, 1, 1, 1, 1, 1, 1, 1))
	require.NoError(t, err)
	assert.Zero(t, res.BaselineIgnored)
}

func TestRunPaths(t *testing.T) {
	dir := t.TempDir()
	raw := `[
  {"questionnaire": "GAD-7", "timepoint": 1, "date": "2024-01-01", "question": "a", "answer": 3},
  {"questionnaire": "GAD-7", "timepoint": 1, "date": "2024-01-01", "question": "b", "answer": 3}
]`
	scored := `{"questionnaire": "GAD-7", "timepoint": 2, "date": "2024-02-01", "raw_total": 2, "severity": "minimal",
  "derived": {"severity_level": "minimal"}, "clinical_flags": []}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.json"), []byte(raw), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scored.ndjson"), []byte(scored), 0o600))

	o := newTestOrchestrator(t, testConfig(t), Options{})
	res, err := o.RunPaths([]string{dir})
	require.NoError(t, err)

	assert.Len(t, res.Sources, 2)
	assert.Equal(t, 2, res.RowsRead)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 6, res.Records[0].RawTotal)
	assert.Equal(t, 2, res.Records[1].RawTotal)

	require.Len(t, res.Trends.DetailedTrends, 1)
	assert.Equal(t, types.TrendImprovement, res.Trends.DetailedTrends[0].ScoreAnalysis.TrendDirection)
}

func TestRunBatchSchemaIssues(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})
	require.NotNil(t, o.validator)

	issues := o.checkScored([]map[string]any{
		{"questionnaire": "PHQ-9", "timepoint": 1, "raw_total": 4, "severity": "minimal"},
		{"questionnaire": "PHQ-9", "timepoint": 2, "severity": "minimal"},
	})
	require.NotEmpty(t, issues)
	assert.Equal(t, types.SeverityError, issues[0].Severity)
}

func TestSchemasDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schemas.Enabled = false
	o := newTestOrchestrator(t, cfg, Options{})
	assert.Nil(t, o.validator)
	assert.Nil(t, o.checkScored([]map[string]any{{"questionnaire": "x"}}))
}

func TestLoadNoInputs(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})
	_, err := o.Load([]string{t.TempDir()})
	assert.Error(t, err)
}

func TestScoreBatch(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	_, err := o.ScoreBatch(&ingest.Batch{})
	assert.ErrorIs(t, err, ErrNoData)

	records, err := o.ScoreBatch(&ingest.Batch{
		Rows: []map[string]any{{"questionnaire": "nan"}},
		Scored: []map[string]any{
			{"questionnaire": "WHO-5", "timepoint": 1, "raw_total": 15, "severity": "moderate wellbeing"},
		},
	})
	require.NoError(t, err, "noise-only rows are tolerated when scored records are present")
	require.Len(t, records, 1)
	assert.Equal(t, "WHO-5", records[0].Questionnaire)
	assert.NotNil(t, records[0].ClinicalFlags)
}

func TestRunBatchToleratesMalformedScoredRecord(t *testing.T) {
	o := newTestOrchestrator(t, testConfig(t), Options{})

	res, err := o.RunBatch(&ingest.Batch{
		Scored: []map[string]any{
			{
				"questionnaire": "SDQ Parent", "timepoint": 1, "date": "2024-01-01", "raw_total": 18, "severity": "abnormal",
				"derived": map[string]any{"interpretations": map[string]any{"version": "parent"}},
			},
			{"questionnaire": "SDQ Parent", "timepoint": 2, "date": "2024-03-01", "raw_total": 12, "severity": "normal"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	var decodeIssues []types.ValidationError
	for _, issue := range res.Quality.Issues {
		if issue.Check == ingest.CheckScoredInput {
			decodeIssues = append(decodeIssues, issue)
		}
	}
	require.Len(t, decodeIssues, 1)
	assert.Equal(t, types.SeverityWarning, decodeIssues[0].Severity)

	require.Len(t, res.Trends.DetailedTrends, 1)
	assert.Equal(t, types.TrendImprovement, res.Trends.DetailedTrends[0].ScoreAnalysis.TrendDirection)
}

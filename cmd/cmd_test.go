package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

const phqRows = `[
  {"questionnaire": "PHQ-9", "timepoint": 1, "date": "2024-01-01", "question": "1", "answer": 3},
  {"questionnaire": "PHQ-9", "timepoint": 1, "date": "2024-01-01", "question": "2", "answer": 3},
  {"questionnaire": "PHQ-9", "timepoint": 1, "date": "2024-01-01", "question": "3", "answer": 3},
  {"questionnaire": "PHQ-9", "timepoint": 1, "date": "2024-01-01", "question": "4", "answer": 3},
  {"questionnaire": "PHQ-9", "timepoint": 2, "date": "2024-02-01", "question": "1", "answer": 1},
  {"questionnaire": "PHQ-9", "timepoint": 2, "date": "2024-02-01", "question": "2", "answer": 1},
  {"questionnaire": "nan"}
]`

// runCLI executes the root command with args and captures the exit code.
func runCLI(t *testing.T, args ...string) int {
	t.Helper()

	code := 0
	originalExitFunc := exitFunc
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = originalExitFunc }()

	originalLog := logOutput
	logOutput = &bytes.Buffer{}
	defer func() { logOutput = originalLog }()

	// Flag values persist between executions, so every run starts from the
	// defaults and the caller's flags come last to override them.
	full := []string{args[0],
		"--config-dir", t.TempDir(),
		"--format", "console", "--output", "",
		"--quiet=false", "--verbose=false", "--no-schemas=false", "--fail-on", "fail",
		"--log-level", "warn", "--log-format", "console",
	}
	rootCmd.SetArgs(append(full, args[1:]...))
	Execute()
	return code
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rows.json"), []byte(content), 0o600))
	return dir
}

func TestScoreCommand(t *testing.T) {
	in := writeInput(t, phqRows)
	out := filepath.Join(t.TempDir(), "scored.json")

	code := runCLI(t, "score", in, "--format", "json", "--output", out)
	require.Zero(t, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var records []types.ScoredRecord
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, 12, records[0].RawTotal)
	assert.Equal(t, "moderate", records[0].Severity)
	assert.Equal(t, 2, records[1].RawTotal)
}

func TestTrendCommand(t *testing.T) {
	in := writeInput(t, phqRows)
	out := filepath.Join(t.TempDir(), "trends.json")

	code := runCLI(t, "trend", in, "--format", "json", "--output", out)
	require.Zero(t, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var report trend.Report
	require.NoError(t, json.Unmarshal(data, &report))
	require.Len(t, report.DetailedTrends, 1)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, types.TrendImprovement, report.DetailedTrends[0].ScoreAnalysis.TrendDirection)
	assert.Equal(t, 31, report.DetailedTrends[0].Timeline.DaysSpan)
}

const undatedRows = `[
  {"questionnaire": "GAD-7", "timepoint": 1, "question": "a", "answer": 2},
  {"questionnaire": "GAD-7", "timepoint": 2, "question": "a", "answer": 1}
]`

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		args       []string
		wantStatus string
		wantCode   int
	}{
		{"pass exits zero", phqRows, nil, quality.StatusPass, 0},
		{"warning passes by default", undatedRows, nil, quality.StatusWarning, 0},
		{"warning fails with fail-on warning", undatedRows, []string{"--fail-on", "warning"}, quality.StatusWarning, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "quality.json")
			args := []string{"validate", writeInput(t, tt.input), "--format", "json", "--output", out,
				"--baseline=false", "--create-baseline=false", "--baseline-path", filepath.Join(t.TempDir(), "b.json")}
			code := runCLI(t, append(args, tt.args...)...)

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			var report quality.Report
			require.NoError(t, json.Unmarshal(data, &report))
			assert.Equal(t, tt.wantStatus, report.Status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

func TestValidateCommandBaseline(t *testing.T) {
	in := writeInput(t, undatedRows)
	out := filepath.Join(t.TempDir(), "quality.json")
	baselineFile := filepath.Join(t.TempDir(), "baseline.json")
	common := []string{"validate", in, "--format", "json", "--output", out, "--baseline-path", baselineFile}

	runCLI(t, append(common, "--create-baseline=true", "--baseline=false")...)
	require.FileExists(t, baselineFile)

	code := runCLI(t, append(common, "--create-baseline=false", "--baseline=true", "--fail-on", "warning")...)
	assert.Zero(t, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var report quality.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, quality.StatusPass, report.Status)
	assert.Positive(t, report.Suppressed)
}

func TestSummaryCommand(t *testing.T) {
	in := writeInput(t, phqRows)
	out := filepath.Join(t.TempDir(), "summary.md")

	code := runCLI(t, "summary", in, "--format", "markdown", "--output", out)
	require.Zero(t, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Questionnaire Summary")
	assert.Contains(t, string(data), "### PHQ-9")
}

func TestRootCommand(t *testing.T) {
	in := writeInput(t, phqRows)
	out := filepath.Join(t.TempDir(), "report.json")

	code := runCLI(t, in, "--format", "json", "--output", out)
	require.Zero(t, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var report struct {
		Header struct {
			Tool string `json:"tool"`
		} `json:"header"`
		RowsRead    int `json:"rows_read"`
		RowsSkipped int `json:"rows_skipped"`
	}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, "qtrend", report.Header.Tool)
	assert.Equal(t, 7, report.RowsRead)
	assert.Equal(t, 1, report.RowsSkipped)
}

func TestCommandErrors(t *testing.T) {
	assert.Equal(t, 1, runCLI(t, "score", t.TempDir(), "--format", "json", "--output", ""), "empty directory")
	assert.Equal(t, 1, runCLI(t, "score", writeInput(t, phqRows), "--format", "html"), "invalid format")
	assert.Equal(t, 1, runCLI(t, "trend", filepath.Join(t.TempDir(), "missing.json"), "--format", "json", "--output", ""))
}

func TestExecuteHelp(t *testing.T) {
	assert.Zero(t, runCLI(t, "--help"))
}

func TestShouldFail(t *testing.T) {
	tests := []struct {
		status string
		failOn string
		want   bool
	}{
		{quality.StatusPass, "fail", false},
		{quality.StatusPass, "warning", false},
		{quality.StatusWarning, "fail", false},
		{quality.StatusWarning, "warning", true},
		{quality.StatusFail, "fail", true},
		{quality.StatusFail, "warning", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shouldFail(tt.status, tt.failOn), "%s/%s", tt.status, tt.failOn)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := newLogger(&config.Config{LogLevel: "info", LogFormat: "json"}, &buf)
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Int("records", 3).Msg("scored")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"records":3`)
	assert.Contains(t, out, `"message":"scored"`)

	buf.Reset()
	log, err = newLogger(&config.Config{LogLevel: "error", LogFormat: "json", Verbose: true}, &buf)
	require.NoError(t, err)
	log.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	_, err = newLogger(&config.Config{LogLevel: "loud"}, &buf)
	assert.Error(t, err)
}

func TestResolveConfigDir(t *testing.T) {
	dir, err := resolveConfigDir("/etc/qtrend")
	require.NoError(t, err)
	assert.Equal(t, "/etc/qtrend", dir)

	dir, err = resolveConfigDir("")
	require.NoError(t, err)
	assert.NotEqual(t, "/etc/qtrend", dir)
}

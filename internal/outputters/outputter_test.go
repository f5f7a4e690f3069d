package outputters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/output"
	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// =============================================================================
// Mock Formatter for testing
// =============================================================================

type mockFormatter struct {
	called      string
	formatError error
}

func (m *mockFormatter) FormatRun(*pipeline.Result) error {
	m.called = "run"
	return m.formatError
}

func (m *mockFormatter) FormatScored([]types.ScoredRecord) error {
	m.called = "scored"
	return m.formatError
}

func (m *mockFormatter) FormatTrends(*trend.Report) error {
	m.called = "trends"
	return m.formatError
}

func (m *mockFormatter) FormatQuality(*quality.Report) error {
	m.called = "quality"
	return m.formatError
}

func (m *mockFormatter) FormatSummary(*output.Digest) error {
	m.called = "summary"
	return m.formatError
}

// =============================================================================
// Mock FormatterFactory for testing
// =============================================================================

type mockFormatterFactory struct {
	createCalled    bool
	requestedFormat string
	formatter       output.Formatter
	createError     error
}

func (m *mockFormatterFactory) CreateFormatter(format string, _ io.Writer) (output.Formatter, error) {
	m.createCalled = true
	m.requestedFormat = format
	if m.createError != nil {
		return nil, m.createError
	}
	return m.formatter, nil
}

func TestNewOutputter(t *testing.T) {
	cfg := &config.Config{Format: "console"}

	outputter := NewOutputter(cfg)

	if outputter.config != cfg {
		t.Errorf("NewOutputter() config = %v, want %v", outputter.config, cfg)
	}
	if _, ok := outputter.factory.(*DefaultFormatterFactory); !ok {
		t.Errorf("NewOutputter() factory type = %T, want *DefaultFormatterFactory", outputter.factory)
	}
}

func TestDefaultFormatterFactory(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"console", "*output.ConsoleFormatter", false},
		{"", "*output.ConsoleFormatter", false},
		{"json", "*output.JSONFormatter", false},
		{"markdown", "*output.MarkdownFormatter", false},
		{"html", "", true},
	}

	factory := &DefaultFormatterFactory{config: &config.Config{}}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			f, err := factory.CreateFormatter(tt.format, io.Discard)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateFormatter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if tt.wantErr {
				if !strings.Contains(err.Error(), "unsupported format: html") {
					t.Errorf("error = %v", err)
				}
				return
			}
			if got := fmt.Sprintf("%T", f); got != tt.want {
				t.Errorf("CreateFormatter(%q) = %s, want %s", tt.format, got, tt.want)
			}
		})
	}
}

func TestOutputterDispatch(t *testing.T) {
	tests := []struct {
		name string
		call func(o *Outputter) error
		want string
	}{
		{"run", func(o *Outputter) error { return o.Run(&pipeline.Result{}) }, "run"},
		{"scored", func(o *Outputter) error { return o.Scored(nil) }, "scored"},
		{"trends", func(o *Outputter) error { return o.Trends(&trend.Report{}) }, "trends"},
		{"quality", func(o *Outputter) error { return o.Quality(&quality.Report{}) }, "quality"},
		{"summary", func(o *Outputter) error { return o.Summary(&output.Digest{}) }, "summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockFormatter{}
			factory := &mockFormatterFactory{formatter: mock}
			o := NewOutputterWithFactory(&config.Config{Format: "json"}, factory)

			if err := tt.call(o); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !factory.createCalled || factory.requestedFormat != "json" {
				t.Errorf("factory called = %v with %q", factory.createCalled, factory.requestedFormat)
			}
			if mock.called != tt.want {
				t.Errorf("formatter method = %q, want %q", mock.called, tt.want)
			}
		})
	}
}

func TestOutputterErrors(t *testing.T) {
	o := NewOutputterWithFactory(&config.Config{}, &mockFormatterFactory{createError: errors.New("boom")})
	if err := o.Run(&pipeline.Result{}); err == nil || err.Error() != "boom" {
		t.Errorf("factory error = %v, want boom", err)
	}

	o = NewOutputterWithFactory(&config.Config{}, &mockFormatterFactory{
		formatter: &mockFormatter{formatError: errors.New("write failed")},
	})
	err := o.Quality(&quality.Report{})
	if err == nil || !strings.Contains(err.Error(), "error formatting output: write failed") {
		t.Errorf("format error = %v", err)
	}
}

func TestOutputterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	o := NewOutputter(&config.Config{Format: "json", Output: path})
	var stdout bytes.Buffer
	o.stdout = &stdout

	if err := o.Scored([]types.ScoredRecord{{Questionnaire: "PHQ-9", ClinicalFlags: []string{}}}); err != nil {
		t.Fatalf("Scored() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout should be empty when writing to a file, got %q", stdout.String())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), `"questionnaire": "PHQ-9"`) {
		t.Errorf("file content = %s", data)
	}
}

func TestOutputterStdout(t *testing.T) {
	o := NewOutputter(&config.Config{Format: "markdown"})
	var stdout bytes.Buffer
	o.stdout = &stdout

	if err := o.Summary(output.Summarize(nil)); err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !strings.Contains(stdout.String(), "# Questionnaire Summary") {
		t.Errorf("stdout = %q", stdout.String())
	}

	bad := NewOutputter(&config.Config{Format: "json", Output: filepath.Join(t.TempDir(), "missing", "x.json")})
	if err := bad.Run(&pipeline.Result{}); err == nil {
		t.Error("expected error creating output in a missing directory")
	}
}

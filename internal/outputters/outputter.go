// Package outputters picks the formatter and destination for a command's output.
package outputters

import (
	"fmt"
	"io"
	"os"

	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/output"
	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// FormatterFactory creates formatters writing to w.
type FormatterFactory interface {
	CreateFormatter(format string, w io.Writer) (output.Formatter, error)
}

// DefaultFormatterFactory builds the console, JSON and markdown formatters.
type DefaultFormatterFactory struct {
	config *config.Config
}

// CreateFormatter returns the formatter for format.
func (f *DefaultFormatterFactory) CreateFormatter(format string, w io.Writer) (output.Formatter, error) {
	switch format {
	case "console", "":
		colorize := f.config.Output == ""
		return output.NewConsoleFormatter(w, f.config.Quiet, f.config.Verbose, colorize), nil
	case "json":
		return output.NewJSONFormatter(w, true), nil
	case "markdown":
		return output.NewMarkdownFormatter(w, f.config.Verbose), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// Outputter handles output formatting
type Outputter struct {
	config  *config.Config
	factory FormatterFactory
	stdout  io.Writer
}

// NewOutputter creates a new Outputter
func NewOutputter(cfg *config.Config) *Outputter {
	return NewOutputterWithFactory(cfg, &DefaultFormatterFactory{config: cfg})
}

// NewOutputterWithFactory creates an Outputter with a custom formatter factory.
func NewOutputterWithFactory(cfg *config.Config, factory FormatterFactory) *Outputter {
	return &Outputter{config: cfg, factory: factory, stdout: os.Stdout}
}

// Run renders a full pipeline result.
func (o *Outputter) Run(res *pipeline.Result) error {
	return o.emit(func(f output.Formatter) error { return f.FormatRun(res) })
}

// Scored renders scored records.
func (o *Outputter) Scored(records []types.ScoredRecord) error {
	return o.emit(func(f output.Formatter) error { return f.FormatScored(records) })
}

// Trends renders a trend report.
func (o *Outputter) Trends(r *trend.Report) error {
	return o.emit(func(f output.Formatter) error { return f.FormatTrends(r) })
}

// Quality renders a checkpoint report.
func (o *Outputter) Quality(r *quality.Report) error {
	return o.emit(func(f output.Formatter) error { return f.FormatQuality(r) })
}

// Summary renders a digest.
func (o *Outputter) Summary(d *output.Digest) error {
	return o.emit(func(f output.Formatter) error { return f.FormatSummary(d) })
}

// emit writes to the configured output file, or stdout when none is set.
func (o *Outputter) emit(render func(output.Formatter) error) error {
	w := o.stdout
	if o.config.Output != "" {
		file, err := os.Create(o.config.Output)
		if err != nil {
			return fmt.Errorf("error creating output file %s: %w", o.config.Output, err)
		}
		defer file.Close()
		w = file
	}

	formatter, err := o.factory.CreateFormatter(o.config.Format, w)
	if err != nil {
		return err
	}
	if err := render(formatter); err != nil {
		return fmt.Errorf("error formatting output: %w", err)
	}
	return nil
}

package output

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// Tool metadata written into JSON run reports.
const (
	ToolName    = "qtrend"
	ToolVersion = "1.0.0"
)

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	w      io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSONFormatter
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{w: w, indent: indent}
}

// JSONReport is the envelope of a full run.
type JSONReport struct {
	Header JSONHeader `json:"header"`
	*pipeline.Result
}

// JSONHeader contains report metadata
type JSONHeader struct {
	Tool    string `json:"tool"`
	Version string `json:"version"`
}

// FormatRun writes the whole result under a tool header.
func (f *JSONFormatter) FormatRun(res *pipeline.Result) error {
	return f.write(JSONReport{
		Header: JSONHeader{Tool: ToolName, Version: ToolVersion},
		Result: res,
	})
}

// FormatScored writes the scored records as a JSON array.
func (f *JSONFormatter) FormatScored(records []types.ScoredRecord) error {
	if records == nil {
		records = []types.ScoredRecord{}
	}
	return f.write(records)
}

// FormatTrends writes the trend report.
func (f *JSONFormatter) FormatTrends(r *trend.Report) error {
	return f.write(r)
}

// FormatQuality writes the checkpoint report.
func (f *JSONFormatter) FormatQuality(r *quality.Report) error {
	return f.write(r)
}

// FormatSummary writes the digest.
func (f *JSONFormatter) FormatSummary(d *Digest) error {
	return f.write(d)
}

func (f *JSONFormatter) write(v any) error {
	var (
		data []byte
		err  error
	)
	if f.indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}

	data = append(data, '\n')
	if _, err := f.w.Write(data); err != nil {
		return fmt.Errorf("error writing JSON: %w", err)
	}
	return nil
}

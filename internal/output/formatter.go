// Package output renders pipeline results for people and for machines.
package output

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"

	"github.com/dotcommander/qtrend/internal/pipeline"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// Formatter renders each kind of result a command can produce.
type Formatter interface {
	FormatRun(res *pipeline.Result) error
	FormatScored(records []types.ScoredRecord) error
	FormatTrends(r *trend.Report) error
	FormatQuality(r *quality.Report) error
	FormatSummary(d *Digest) error
}

var (
	_ Formatter = (*ConsoleFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
	_ Formatter = (*MarkdownFormatter)(nil)
)

// palette holds the console styles. Every style is empty when color is off.
type palette struct {
	ok   lipgloss.Style
	err  lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
	bold lipgloss.Style
}

func newPalette(colorize bool) palette {
	if !colorize {
		plain := lipgloss.NewStyle()
		return palette{ok: plain, err: plain, warn: plain, dim: plain, bold: plain}
	}
	return palette{
		ok:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		err:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		warn: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dim:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		bold: lipgloss.NewStyle().Bold(true),
	}
}

// isTTY reports whether w is a terminal.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

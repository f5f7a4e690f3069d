package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/qtrend/internal/pipeline"
)

var trendCmd = &cobra.Command{
	Use:   "trend [paths...]",
	Short: "Analyze score trends across timepoints",
	Long: `Builds the longitudinal trend report. Input may be scored records or raw
response rows; rows are scored first.

Each questionnaire with at least two orderable assessments gets a trend:
initial and latest score, change, direction relative to the questionnaire's
improvement direction, severity transition and elapsed time. Questionnaires
that cannot be trended are listed with the reason.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runTrend(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(trendCmd)
}

func runTrend(paths []string) error {
	rc, err := newRunContext(pipeline.Options{})
	if err != nil {
		return err
	}

	res, err := rc.orchestrator.RunPaths(paths)
	if err != nil {
		return err
	}
	return rc.out.Trends(res.Trends)
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/qtrend/internal/pipeline"
)

var scoreCmd = &cobra.Command{
	Use:   "score [paths...]",
	Short: "Score questionnaire response rows",
	Long: `Groups item response rows into assessments (one per questionnaire and
timepoint) and scores each one: raw total, severity band, clinical flags and
questionnaire-specific derived values such as T-scores or subscales.

Records that are already scored are passed through unchanged.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runScore(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(paths []string) error {
	rc, err := newRunContext(pipeline.Options{})
	if err != nil {
		return err
	}

	batch, err := rc.orchestrator.Load(paths)
	if err != nil {
		return err
	}
	records, err := rc.orchestrator.ScoreBatch(batch)
	if err != nil {
		return err
	}
	return rc.out.Scored(records)
}

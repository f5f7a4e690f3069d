package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/qtrend/internal/output"
	"github.com/dotcommander/qtrend/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [paths...]",
	Short: "Show severity distribution and clinical flag digest",
	Long: `Scores the input and shows, per questionnaire type, how many assessments
fell into each severity band, the most frequent clinical flags and the records
carrying the most flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runSummary(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(paths []string) error {
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

	digest := output.Summarize(records)
	rc.log.Debug().
		Int("questionnaires", len(digest.Questionnaires)).
		Int("flags", len(digest.TopFlags)).
		Msg("summary built")
	return rc.out.Summary(digest)
}

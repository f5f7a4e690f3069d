package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/qtrend/internal/pipeline"
)

var (
	useBaseline    bool
	createBaseline bool
	baselinePath   string
)

var validateCmd = &cobra.Command{
	Use:   "validate [paths...]",
	Short: "Run the data-quality checkpoint",
	Long: `Checks scored records before trend analysis: required fields, date and
timepoint coverage, questionnaire distribution, derived data, score validity,
trend readiness and critical clinical flags.

The status is PASS, WARNING or FAIL. The command exits 1 on FAIL, and on
WARNING when failOn is "warning".

Baseline:
  --create-baseline  record the current warnings as accepted
  --baseline         hide warnings recorded in the baseline
Errors are never hidden by a baseline.`,
	Run: func(cmd *cobra.Command, args []string) {
		failed, err := runValidate(args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
			return
		}
		if failed {
			exitFunc(1)
		}
	},
}

func init() {
	validateCmd.Flags().BoolVar(&useBaseline, "baseline", false, "Suppress warnings recorded in the baseline")
	validateCmd.Flags().BoolVar(&createBaseline, "create-baseline", false, "Write the current warnings to the baseline")
	validateCmd.Flags().StringVar(&baselinePath, "baseline-path", "", "Baseline file (default: baseline.path from config)")
	rootCmd.AddCommand(validateCmd)
}

// runValidate reports whether the checkpoint status fails the run.
func runValidate(paths []string) (bool, error) {
	rc, err := newRunContext(pipeline.Options{
		UseBaseline:    useBaseline,
		CreateBaseline: createBaseline,
		BaselinePath:   baselinePath,
	})
	if err != nil {
		return false, err
	}

	res, err := rc.orchestrator.RunPaths(paths)
	if err != nil {
		return false, err
	}
	if err := rc.out.Quality(res.Quality); err != nil {
		return false, err
	}

	if res.BaselineCreated && !rc.cfg.Quiet {
		fmt.Fprintf(os.Stderr, "Baseline written with %d accepted warnings\n", len(res.Quality.Warnings))
	}
	return shouldFail(res.Quality.Status, rc.cfg.FailOn), nil
}

// Package cmd holds the qtrend command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dotcommander/qtrend/internal/pipeline"
)

// Version is set at build time.
var Version = "dev"

// exitFunc terminates the process; tests replace it.
var exitFunc = os.Exit

var (
	configDir      string
	quiet          bool
	verbose        bool
	outputFormat   string
	outputFile     string
	failOn         string
	logLevel       string
	logFormat      string
	excludes       []string
	followSymlinks bool
	noSchemas      bool
)

var rootCmd = &cobra.Command{
	Use:   "qtrend [paths...]",
	Short: "Score questionnaires and analyze their trends over time",
	Long: `qtrend turns questionnaire item responses into scored assessments and
longitudinal trend reports.

Given JSON, NDJSON or YAML files (or directories holding them), qtrend groups
item rows into assessments, scores each one against its questionnaire's
clinical cut-offs, runs a data-quality checkpoint and reports how every
questionnaire moved between its first and latest administration.

Use the subcommands to run a single stage.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runAll(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitFunc(1)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		exitFunc(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configDir, "config-dir", "", "Directory holding .qtrendrc and .env (default: working directory)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logging")
	flags.StringVarP(&outputFormat, "format", "f", "console", "Output format (console|json|markdown)")
	flags.StringVarP(&outputFile, "output", "o", "", "Write the report to a file instead of stdout")
	flags.StringVar(&failOn, "fail-on", "fail", "Exit non-zero on checkpoint status (fail|warning)")
	flags.StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	flags.StringVar(&logFormat, "log-format", "console", "Log format (console|json)")
	flags.StringSliceVar(&excludes, "exclude", nil, "Glob patterns of input files to skip")
	flags.BoolVar(&followSymlinks, "follow-symlinks", false, "Follow symlinked input files")
	flags.BoolVar(&noSchemas, "no-schemas", false, "Check required fields in Go instead of with CUE schemas")

	bindFlag("quiet", "quiet")
	bindFlag("verbose", "verbose")
	bindFlag("format", "format")
	bindFlag("output", "output")
	bindFlag("failOn", "fail-on")
	bindFlag("logLevel", "log-level")
	bindFlag("logFormat", "log-format")
	bindFlag("exclude", "exclude")
	bindFlag("followSymlinks", "follow-symlinks")
}

func bindFlag(key, name string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(name)); err != nil {
		panic(err)
	}
}

// runAll runs every stage and prints the combined report.
func runAll(paths []string) error {
	rc, err := newRunContext(pipeline.Options{})
	if err != nil {
		return err
	}

	res, err := rc.orchestrator.RunPaths(paths)
	if err != nil {
		return err
	}
	return rc.out.Run(res)
}

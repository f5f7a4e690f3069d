// Package pipeline runs the processing stages in order: raw rows are
// aggregated and scored, scored records pass the quality checkpoint, and the
// trend report is built from them.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dotcommander/qtrend/internal/aggregate"
	"github.com/dotcommander/qtrend/internal/baseline"
	"github.com/dotcommander/qtrend/internal/config"
	"github.com/dotcommander/qtrend/internal/cue"
	"github.com/dotcommander/qtrend/internal/discovery"
	"github.com/dotcommander/qtrend/internal/ingest"
	"github.com/dotcommander/qtrend/internal/quality"
	"github.com/dotcommander/qtrend/internal/scoring"
	"github.com/dotcommander/qtrend/internal/trend"
	"github.com/dotcommander/qtrend/internal/types"
)

// ErrNoData is returned when there is nothing to process: no input items, or
// only metadata noise rows.
var ErrNoData = errors.New("no questionnaire data")

// Options holds per-run settings that do not live in the config file.
type Options struct {
	UseBaseline    bool
	CreateBaseline bool
	BaselinePath   string
}

// Orchestrator coordinates the pipeline stages.
type Orchestrator struct {
	cfg       *config.Config
	opts      Options
	log       zerolog.Logger
	validator *cue.Validator
	now       func() time.Time
	newID     func() string
}

// NewOrchestrator creates a new orchestrator. CUE schemas are loaded when
// enabled in cfg; a load failure falls back to Go field checks.
func NewOrchestrator(cfg *config.Config, opts Options, log zerolog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		opts:  opts,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
	if cfg.Schemas.Enabled {
		v := cue.NewValidator()
		if err := v.LoadSchemas(); err != nil {
			log.Warn().Err(err).Msg("CUE schemas not loaded, using Go validation")
		} else {
			o.validator = v
		}
	}
	return o
}

// Result holds the outcome of a run.
type Result struct {
	RunID           string               `json:"run_id"`
	GeneratedAt     string               `json:"generated_at"`
	Sources         []string             `json:"sources,omitempty"`
	RowsRead        int                  `json:"rows_read"`
	RowsSkipped     int                  `json:"rows_skipped"`
	Records         []types.ScoredRecord `json:"scored_records"`
	Quality         *quality.Report      `json:"quality"`
	Trends          *trend.Report        `json:"trends"`
	BaselineIgnored int                  `json:"baseline_ignored,omitempty"`
	BaselineCreated bool                 `json:"baseline_created,omitempty"`
}

// Load resolves paths to input files and decodes them.
func (o *Orchestrator) Load(paths []string) (*ingest.Batch, error) {
	files, err := discovery.Resolve(paths, o.cfg.FollowSymlinks, o.cfg.Exclude...)
	if err != nil {
		return nil, err
	}
	o.log.Debug().Int("files", len(files)).Msg("input files resolved")

	batch, err := ingest.ReadAll(files)
	if err != nil {
		return nil, err
	}
	if batch.Len() == 0 {
		return nil, fmt.Errorf("%w: input files hold no records", ErrNoData)
	}
	o.log.Info().
		Int("rows", len(batch.Rows)).
		Int("scored", len(batch.Scored)).
		Strs("sources", batch.Sources).
		Msg("input decoded")
	return batch, nil
}

// Process aggregates raw rows and scores every aggregated record.
func (o *Orchestrator) Process(rows []map[string]any) ([]types.ScoredRecord, error) {
	records, _, err := o.process(rows)
	return records, err
}

func (o *Orchestrator) process(rows []map[string]any) ([]types.ScoredRecord, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input", ErrNoData)
	}

	agg := aggregate.FromMaps(rows)
	if agg.Skipped() > 0 {
		o.log.Debug().Int("skipped", agg.Skipped()).Msg("metadata rows skipped")
	}
	if agg.Len() == 0 {
		return nil, agg.Skipped(), fmt.Errorf("%w: all %d rows were metadata noise", ErrNoData, len(rows))
	}

	records := scoring.ScoreAll(agg.Records())
	o.log.Info().Int("rows", len(rows)).Int("records", len(records)).Msg("rows aggregated and scored")
	return records, agg.Skipped(), nil
}

// Run executes every stage on raw rows.
func (o *Orchestrator) Run(rows []map[string]any) (*Result, error) {
	records, skipped, err := o.process(rows)
	if err != nil {
		return nil, err
	}
	res, err := o.analyze(records, nil)
	if err != nil {
		return nil, err
	}
	res.RowsRead = len(rows)
	res.RowsSkipped = skipped
	return res, nil
}

// AnalyzeScored runs the quality checkpoint and trend analysis on records
// that were scored earlier.
func (o *Orchestrator) AnalyzeScored(records []types.ScoredRecord) (*Result, error) {
	return o.analyze(records, nil)
}

// ScoreBatch scores the raw rows of a decoded batch and converts its
// already scored records, returning both in that order.
// Scored items that cannot be decoded are logged and skipped.
func (o *Orchestrator) ScoreBatch(b *ingest.Batch) ([]types.ScoredRecord, error) {
	records, _, issues, err := o.scoreBatch(b)
	for _, issue := range issues {
		o.log.Warn().Str("questionnaire", issue.Questionnaire).Int("timepoint", issue.Timepoint).Msg(issue.Message)
	}
	return records, err
}

func (o *Orchestrator) scoreBatch(b *ingest.Batch) ([]types.ScoredRecord, int, []types.ValidationError, error) {
	if b == nil || b.Len() == 0 {
		return nil, 0, nil, fmt.Errorf("%w: empty input", ErrNoData)
	}

	var (
		records []types.ScoredRecord
		skipped int
	)
	if len(b.Rows) > 0 {
		scored, n, err := o.process(b.Rows)
		if err != nil && len(b.Scored) == 0 {
			return nil, n, nil, err
		}
		records, skipped = scored, n
	}

	decoded, issues := ingest.ScoredRecords(b.Scored)
	if len(b.Scored) > 0 {
		o.log.Debug().Int("records", len(decoded)).Int("issues", len(issues)).Msg("pre-scored records decoded")
	}
	records = append(records, decoded...)
	if len(records) == 0 {
		return nil, skipped, issues, fmt.Errorf("%w: no record could be scored or decoded", ErrNoData)
	}
	return records, skipped, issues, nil
}

// RunBatch processes a decoded batch. Raw rows are scored, decoded scored
// records are schema-checked and converted, and both are analyzed together.
func (o *Orchestrator) RunBatch(b *ingest.Batch) (*Result, error) {
	records, skipped, issues, err := o.scoreBatch(b)
	if err != nil {
		return nil, err
	}

	res, err := o.analyze(records, append(issues, o.checkScored(b.Scored)...))
	if err != nil {
		return nil, err
	}
	res.Sources = b.Sources
	res.RowsRead = len(b.Rows)
	res.RowsSkipped = skipped
	return res, nil
}

// RunPaths loads the inputs under paths and processes them.
func (o *Orchestrator) RunPaths(paths []string) (*Result, error) {
	b, err := o.Load(paths)
	if err != nil {
		return nil, err
	}
	return o.RunBatch(b)
}

// checkScored validates decoded scored items against the record schema.
func (o *Orchestrator) checkScored(items []map[string]any) []types.ValidationError {
	if o.validator == nil {
		return nil
	}
	var issues []types.ValidationError
	for i, item := range items {
		errs, err := o.validator.ValidateRecord(item)
		if err != nil {
			o.log.Warn().Err(err).Int("item", i).Msg("schema check skipped")
			continue
		}
		for _, e := range errs {
			o.log.Warn().Int("item", i).Str("questionnaire", e.Questionnaire).Msg(e.Message)
		}
		issues = append(issues, errs...)
	}
	return issues
}

func (o *Orchestrator) analyze(records []types.ScoredRecord, schemaIssues []types.ValidationError) (*Result, error) {
	res := &Result{
		RunID:       o.newID(),
		GeneratedAt: o.now().UTC().Format(time.RFC3339),
		Records:     records,
	}

	res.Quality = quality.Validate(records, o.validator)
	res.Quality.Merge(schemaIssues)
	o.log.Info().
		Str("status", res.Quality.Status).
		Int("errors", len(res.Quality.Errors)).
		Int("warnings", len(res.Quality.Warnings)).
		Msg("quality checkpoint")

	if err := o.applyBaseline(res); err != nil {
		return nil, err
	}

	res.Trends = trend.Analyze(records)
	res.Trends.RunID = res.RunID
	res.Trends.GeneratedAt = res.GeneratedAt
	for _, ex := range res.Trends.DataQuality.Exclusions {
		o.log.Info().Str("questionnaire", ex.Questionnaire).Str("reason", ex.Reason).Msg("excluded from trends")
	}
	o.log.Info().
		Int("trends", len(res.Trends.DetailedTrends)).
		Int("excluded", res.Trends.DataQuality.QuestionnairesExcluded).
		Msg("trend analysis")
	return res, nil
}

func (o *Orchestrator) applyBaseline(res *Result) error {
	path := o.baselinePath()

	if o.opts.CreateBaseline {
		b := baseline.CreateBaseline(res.Quality.IssuesOf(types.SeverityWarning))
		b.CreatedAt = res.GeneratedAt
		if err := b.SaveBaseline(path); err != nil {
			return err
		}
		res.BaselineCreated = true
		o.log.Info().Str("path", path).Int("fingerprints", b.Len()).Msg("baseline created")
		return nil
	}

	if !o.opts.UseBaseline {
		return nil
	}
	b, err := baseline.LoadBaseline(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			o.log.Warn().Str("path", path).Msg("baseline not found, reporting every warning")
			return nil
		}
		return err
	}
	res.BaselineIgnored = res.Quality.Suppress(b.IsKnown)
	o.log.Debug().Int("ignored", res.BaselineIgnored).Msg("baseline applied")
	return nil
}

func (o *Orchestrator) baselinePath() string {
	path := o.opts.BaselinePath
	if path == "" {
		path = o.cfg.Baseline.Path
	}
	if path == "" {
		path = baseline.DefaultPath
	}
	return filepath.Clean(path)
}

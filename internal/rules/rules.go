// Package rules holds the static clinical reference tables: questionnaire
// cut-offs, trend guidelines, PROMIS T-score conversions and SDQ score bands.
//
// The tables are embedded YAML, decoded and validated once at package
// initialization. Accessors return copies so callers can never mutate the
// process-wide tables.
package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/qtrend/internal/types"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Threshold is one named numeric cut-off.
type Threshold struct {
	Name  string  `yaml:"name" validate:"required"`
	Value float64 `yaml:"value"`
}

// ClinicalFlag is a single threshold with a textual meaning.
type ClinicalFlag struct {
	Threshold float64 `yaml:"threshold" validate:"gt=0"`
	Meaning   string  `yaml:"meaning" validate:"required"`
}

// CutoffRule is one entry of the cut-off rule table.
type CutoffRule struct {
	Key            string        `yaml:"key" validate:"required"`
	ScaleRange     string        `yaml:"scale_range" validate:"required"`
	Direction      string        `yaml:"direction" validate:"required,oneof='higher worse' 'lower worse' varies unknown"`
	Cutoffs        []Threshold   `yaml:"cutoffs" validate:"dive"`
	Subscales      []Threshold   `yaml:"subscales" validate:"dive"`
	ClinicalFlag   *ClinicalFlag `yaml:"clinical_flag"`
	Transformation string        `yaml:"transformation"`
}

// TrendGuideline describes how a questionnaire family is expected to move over time.
type TrendGuideline struct {
	Key                  string      `yaml:"key" validate:"required"`
	Name                 string      `yaml:"name" validate:"required"`
	Frequency            string      `yaml:"frequency" validate:"required"`
	Sensitivity          string      `yaml:"sensitivity" validate:"required"`
	ImprovementDirection string      `yaml:"improvement_direction" validate:"required,oneof=increase decrease"`
	Cutoffs              []Threshold `yaml:"cutoffs" validate:"dive"`
}

// Tables is the full set of reference data.
type Tables struct {
	Cutoffs    []CutoffRule                        `validate:"required,min=1,dive"`
	Guidelines []TrendGuideline                    `validate:"required,min=1,dive"`
	PROMIS     []ConversionTable                   `validate:"required,min=1,dive"`
	SDQ        map[string]map[string]SubscaleBands `validate:"required,len=2,dive,required,dive"`
}

var defaultTables = mustLoad(dataFS)

// Load decodes and validates the reference tables found under data/ in fsys.
func Load(fsys fs.FS) (*Tables, error) {
	t := &Tables{}
	files := []struct {
		name string
		dst  any
	}{
		{"data/cutoffs.yaml", &t.Cutoffs},
		{"data/guidelines.yaml", &t.Guidelines},
		{"data/promis.yaml", &t.PROMIS},
		{"data/sdq.yaml", &t.SDQ},
	}

	for _, f := range files {
		raw, err := fs.ReadFile(fsys, f.name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.name, err)
		}
		if err := yaml.Unmarshal(raw, f.dst); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", f.name, err)
		}
	}

	if err := validator.New().Struct(t); err != nil {
		return nil, fmt.Errorf("invalid reference tables: %w", err)
	}
	for _, table := range t.PROMIS {
		if len(table.Scores) == 0 {
			return nil, fmt.Errorf("PROMIS %s/%s table is empty", table.Measure, table.Version)
		}
	}
	return t, nil
}

func mustLoad(fsys fs.FS) *Tables {
	t, err := Load(fsys)
	if err != nil {
		panic(err)
	}
	return t
}

// LookupCutoff returns the first cut-off rule whose key occurs in the
// questionnaire name. On a miss it returns the "unknown" rule and false.
func LookupCutoff(questionnaire string) (CutoffRule, bool) {
	name := strings.ToLower(strings.TrimSpace(questionnaire))
	if name != "" {
		for _, rule := range defaultTables.Cutoffs {
			if strings.Contains(name, rule.Key) {
				return rule.clone(), true
			}
		}
	}
	return UnknownCutoff(), false
}

// UnknownCutoff is the placeholder rule for unrecognized questionnaires.
func UnknownCutoff() CutoffRule {
	return CutoffRule{
		ScaleRange: "unknown",
		Direction:  types.DirectionUnknown,
	}
}

// Cutoffs returns every cut-off rule in match order.
func Cutoffs() []CutoffRule {
	out := make([]CutoffRule, len(defaultTables.Cutoffs))
	for i, rule := range defaultTables.Cutoffs {
		out[i] = rule.clone()
	}
	return out
}

// Guideline returns the trend guideline with the given key.
func Guideline(key string) (TrendGuideline, bool) {
	for _, g := range defaultTables.Guidelines {
		if g.Key == key {
			g.Cutoffs = slices.Clone(g.Cutoffs)
			return g, true
		}
	}
	return TrendGuideline{}, false
}

// UnknownGuideline is the placeholder for questionnaires without a guideline:
// named after the questionnaire, with decrease-is-better direction.
func UnknownGuideline(questionnaire string) TrendGuideline {
	return TrendGuideline{
		Key:                  "unknown",
		Name:                 questionnaire,
		Frequency:            "unknown",
		Sensitivity:          "unknown",
		ImprovementDirection: types.ImproveDecrease,
	}
}

// Value returns the named cut-off.
func (r CutoffRule) Value(name string) (float64, bool) {
	for _, c := range r.Cutoffs {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// ValueOr returns the named cut-off, or def when the rule does not define it.
func (r CutoffRule) ValueOr(name string, def float64) float64 {
	if v, ok := r.Value(name); ok {
		return v
	}
	return def
}

// ScaleInfo renders the rule as the scale description attached to scored records.
func (r CutoffRule) ScaleInfo() types.ScaleInfo {
	return types.ScaleInfo{
		Range:     r.ScaleRange,
		Direction: r.Direction,
		Cutoffs:   thresholdMap(r.Cutoffs),
	}
}

// SubscaleMap returns the subscale thresholds keyed by name, or nil when there are none.
func (r CutoffRule) SubscaleMap() map[string]float64 {
	if len(r.Subscales) == 0 {
		return nil
	}
	return thresholdMap(r.Subscales)
}

func (r CutoffRule) clone() CutoffRule {
	r.Cutoffs = slices.Clone(r.Cutoffs)
	r.Subscales = slices.Clone(r.Subscales)
	if r.ClinicalFlag != nil {
		cf := *r.ClinicalFlag
		r.ClinicalFlag = &cf
	}
	return r
}

func thresholdMap(ts []Threshold) map[string]float64 {
	m := make(map[string]float64, len(ts))
	for _, t := range ts {
		m[t.Name] = t.Value
	}
	return m
}

// cloneBands copies one SDQ version table.
func cloneBands(src map[string]SubscaleBands) map[string]SubscaleBands {
	return maps.Clone(src)
}

package rules

import (
	"maps"
	"slices"
)

// PROMIS measure names.
const (
	MeasureDepression       = "depression"
	MeasureAnxiety          = "anxiety"
	MeasureLifeSatisfaction = "life_satisfaction"
)

// SDQ versions.
const (
	SDQSelfCompleted = "self_completed"
	SDQParent        = "parent"
)

// SDQ band names.
const (
	BandNormal     = "normal"
	BandBorderline = "borderline"
	BandAbnormal   = "abnormal"
)

// ConversionTable maps exact integer raw totals to T-scores.
type ConversionTable struct {
	Measure string          `yaml:"measure" validate:"required,oneof=depression anxiety life_satisfaction"`
	Version string          `yaml:"version" validate:"required,oneof=pediatric parent"`
	Scores  map[int]float64 `yaml:"scores" validate:"required"`
}

// TScore returns the T-score for raw, or false when raw is outside the table.
func (c ConversionTable) TScore(raw int) (float64, bool) {
	v, ok := c.Scores[raw]
	return v, ok
}

// Range returns the smallest and largest raw totals the table covers.
func (c ConversionTable) Range() (lo, hi int) {
	keys := slices.Sorted(maps.Keys(c.Scores))
	if len(keys) == 0 {
		return 0, 0
	}
	return keys[0], keys[len(keys)-1]
}

// PROMISTable returns the conversion table for a measure, selecting the
// parent-proxy table when parent is true.
func PROMISTable(measure string, parent bool) (ConversionTable, bool) {
	version := "pediatric"
	if parent {
		version = "parent"
	}
	for _, t := range defaultTables.PROMIS {
		if t.Measure == measure && t.Version == version {
			t.Scores = maps.Clone(t.Scores)
			return t, true
		}
	}
	return ConversionTable{}, false
}

// Band is an inclusive score range.
type Band struct {
	Min int `yaml:"min"`
	Max int `yaml:"max" validate:"gtefield=Min"`
}

// Contains reports whether score lies inside the band.
func (b Band) Contains(score int) bool {
	return score >= b.Min && score <= b.Max
}

// SubscaleBands are the three SDQ bands of one subscale.
type SubscaleBands struct {
	Normal     Band `yaml:"normal"`
	Borderline Band `yaml:"borderline"`
	Abnormal   Band `yaml:"abnormal"`
}

// Classify places score in a band. Scores outside the normal and borderline
// ranges are abnormal.
func (s SubscaleBands) Classify(score int) string {
	switch {
	case s.Normal.Contains(score):
		return BandNormal
	case s.Borderline.Contains(score):
		return BandBorderline
	default:
		return BandAbnormal
	}
}

// SDQBands returns the band table for an SDQ version keyed by subscale
// (total_difficulties, emotional, conduct, hyperactivity, peer_problems,
// prosocial). Unknown versions fall back to the self-completed table.
func SDQBands(version string) map[string]SubscaleBands {
	if bands, ok := defaultTables.SDQ[version]; ok {
		return cloneBands(bands)
	}
	return cloneBands(defaultTables.SDQ[SDQSelfCompleted])
}

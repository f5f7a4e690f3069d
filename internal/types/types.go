// Package types provides shared record types used across the qtrend codebase.
// This package is at the bottom of the dependency graph and should not import
// any other internal packages to avoid circular dependencies.
package types

// RawResponseRow is one answered questionnaire item after lenient coercion.
type RawResponseRow struct {
	Questionnaire   string
	Timepoint       int
	Date            string // YYYY-MM-DD or empty
	Question        string
	Answer          float64
	Dimension       string
	FreeText        string
	ResponseOptions string
}

// Response is a single item response inside an aggregated record.
type Response struct {
	Question        string  `json:"question"`
	Answer          float64 `json:"answer"`
	Dimension       string  `json:"dimension"`
	ResponseOptions string  `json:"response_options,omitempty"`
}

// AggregatedRecord is one questionnaire administered at one timepoint.
type AggregatedRecord struct {
	Questionnaire string     `json:"questionnaire"`
	Timepoint     int        `json:"timepoint"`
	Date          string     `json:"date"`
	Responses     []Response `json:"responses"`
	FreeText      string     `json:"free_text"`
}

// ScaleInfo is the scale description copied from the cut-off rule table.
type ScaleInfo struct {
	Range     string             `json:"range"`
	Direction string             `json:"direction"`
	Cutoffs   map[string]float64 `json:"cutoffs"`
}

// ScoredRecord is the scoring output for one AggregatedRecord.
// RawTotal is always the truncated sum of raw answers, even when
// Derived.TotalScore holds a transformed value.
type ScoredRecord struct {
	Questionnaire string     `json:"questionnaire"`
	Timepoint     int        `json:"timepoint"`
	Date          string     `json:"date"`
	RawTotal      int        `json:"raw_total"`
	ScaleInfo     ScaleInfo  `json:"scale_info"`
	Severity      string     `json:"severity"`
	ClinicalFlags []string   `json:"clinical_flags"`
	Derived       Derived    `json:"derived"`
	Responses     []Response `json:"responses"`
	FreeText      string     `json:"free_text"`
}

// Derived holds questionnaire-type-specific computed values. Only the fields
// relevant to the scored questionnaire type are populated.
type Derived struct {
	Scale         string   `json:"scale,omitempty"`
	SeverityLevel string   `json:"severity_level,omitempty"`
	TotalScore    *float64 `json:"total_score,omitempty"`
	Note          string   `json:"note,omitempty"`

	// WHO-5 and PROMIS
	RawScore   *int     `json:"raw_score,omitempty"`
	IndexScore *int     `json:"index_score,omitempty"`
	TScore     *float64 `json:"t_score,omitempty"`

	Interpretation     string `json:"interpretation,omitempty"`
	MentalHealthStatus string `json:"mental_health_status,omitempty"`

	// PedsQL
	DimensionScores        map[string]DimensionScore `json:"dimension_scores,omitempty"`
	PsychosocialScore      *float64                  `json:"psychosocial_score,omitempty"`
	PsychosocialTotalRatio *float64                  `json:"psychosocial_total_ratio,omitempty"`
	RawTotal               *int                      `json:"raw_total,omitempty"`

	// SCARED, SDQ, PSC-17
	Subscales       map[string]SubscaleScore      `json:"subscales,omitempty"`
	RawScores       map[string]int                `json:"raw_scores,omitempty"`
	SDQVersion      string                        `json:"sdq_version,omitempty"`
	Interpretations map[string]BandInterpretation `json:"interpretations,omitempty"`

	// Generic fallback
	Direction       string             `json:"direction,omitempty"`
	SubscaleCutoffs map[string]float64 `json:"subscale_cutoffs,omitempty"`
}

// IsEmpty reports whether no derived value was computed.
func (d Derived) IsEmpty() bool {
	return d.Scale == "" && d.SeverityLevel == "" && d.TotalScore == nil &&
		d.TScore == nil && d.IndexScore == nil && len(d.DimensionScores) == 0 &&
		len(d.Subscales) == 0 && len(d.Interpretations) == 0
}

// DimensionScore is one PedsQL dimension. Score is nil when fewer than half
// of the expected items were answered.
type DimensionScore struct {
	Score          *float64 `json:"score"`
	ItemsAnswered  int      `json:"items_answered"`
	ItemsExpected  int      `json:"items_expected"`
	CompletionRate float64  `json:"completion_rate"`
	Reason         string   `json:"reason,omitempty"`
}

// SubscaleScore is the sum of answers whose dimension tag matched a subscale.
type SubscaleScore struct {
	Total int `json:"total"`
	Count int `json:"count"`
}

// BandInterpretation is one SDQ subscale placed into its normal/borderline/abnormal band.
type BandInterpretation struct {
	Score          int    `json:"score"`
	Band           string `json:"band"`
	Interpretation string `json:"interpretation"`
}

// ValidationError represents a data-quality error or warning.
type ValidationError struct {
	Questionnaire string
	Timepoint     int
	Message       string
	Severity      string // error, warning, info
	Check         string // required_fields, date_timepoint_quality, ...
}

// Severity level constants for data-quality issues.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Scale direction constants.
const (
	DirectionHigherWorse = "higher worse"
	DirectionLowerWorse  = "lower worse"
	DirectionVaries      = "varies"
	DirectionUnknown     = "unknown"
)

// Improvement direction constants used by the trend guidelines.
const (
	ImproveIncrease = "increase"
	ImproveDecrease = "decrease"
)

// Trend direction constants.
const (
	TrendImprovement = "improvement"
	TrendWorsening   = "worsening"
	TrendStable      = "stable"
)

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

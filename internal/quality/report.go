package quality

import "github.com/dotcommander/qtrend/internal/types"

// Checkpoint status values.
const (
	StatusPass    = "PASS"
	StatusWarning = "WARNING"
	StatusFail    = "FAIL"
)

// Check names attached to every issue.
const (
	CheckRequiredFields = "required_fields"
	CheckDateTimepoint  = "date_timepoint_quality"
	CheckDistribution   = "questionnaire_distribution"
	CheckDerived        = "derived_data_quality"
	CheckScores         = "score_validity"
	CheckTrendReadiness = "trend_analysis_readiness"
	CheckClinicalFlags  = "clinical_flags_summary"
)

// Report is the result of the data-quality checkpoint.
type Report struct {
	Status          string   `json:"status"`
	TotalItems      int      `json:"total_items"`
	Checks          Checks   `json:"validation_checks"`
	Metrics         Metrics  `json:"data_quality_metrics"`
	Warnings        []string `json:"warnings"`
	Errors          []string `json:"errors"`
	Recommendations []string `json:"recommendations"`
	Suppressed      int      `json:"suppressed,omitempty"`
	Summary         Summary  `json:"summary"`

	// Issues carries every error and warning with its check name.
	Issues []types.ValidationError `json:"-"`

	checkRecommendations []string
}

// Checks are the pass/fail style checks.
type Checks struct {
	RequiredFields RequiredFieldsCheck `json:"required_fields"`
	DateTimepoint  DateTimepointCheck  `json:"date_timepoint_quality"`
	Derived        DerivedCheck        `json:"derived_data_quality"`
	ScoreValidity  ScoreValidityCheck  `json:"score_validity"`
}

// RequiredFieldsCheck counts records missing schema-required fields.
type RequiredFieldsCheck struct {
	Pass                 bool            `json:"pass"`
	ItemsWithAllRequired int             `json:"items_with_all_required"`
	ItemsMissingFields   int             `json:"items_missing_fields"`
	Details              []MissingFields `json:"details"`
}

// MissingFields names the required fields one record lacks.
type MissingFields struct {
	ItemIndex     int      `json:"item_index"`
	Questionnaire string   `json:"questionnaire"`
	MissingFields []string `json:"missing_fields"`
}

// DateTimepointCheck summarizes date and timepoint coverage.
type DateTimepointCheck struct {
	ItemsWithDates           int             `json:"items_with_dates"`
	ItemsWithValidTimepoints int             `json:"items_with_valid_timepoints"`
	InvalidDates             int             `json:"invalid_dates"`
	DateRange                *DateRange      `json:"date_range"`
	TimepointRange           *TimepointRange `json:"timepoint_range"`
}

// DateRange spans the parseable dates.
type DateRange struct {
	Earliest       string `json:"earliest"`
	Latest         string `json:"latest"`
	SpanDays       int    `json:"span_days"`
	TotalWithDates int    `json:"total_with_dates"`
}

// TimepointRange spans the positive timepoints.
type TimepointRange struct {
	Earliest            int `json:"earliest"`
	Latest              int `json:"latest"`
	UniqueTimepoints    int `json:"unique_timepoints"`
	TotalWithTimepoints int `json:"total_with_timepoints"`
}

// DerivedCheck counts records whose derived block is empty.
type DerivedCheck struct {
	ItemsWithDerived         int `json:"items_with_derived"`
	ItemsWithEmptyDerived    int `json:"items_with_empty_derived"`
	ItemsWithScaleInfo       int `json:"items_with_scale_info"`
	ItemsWithInterpretations int `json:"items_with_interpretations"`
}

// ScoreValidityCheck counts zero and negative raw totals.
type ScoreValidityCheck struct {
	ItemsWithZeroScores     int `json:"items_with_zero_scores"`
	ItemsWithNegativeScores int `json:"items_with_negative_scores"`
}

// Metrics are descriptive measures of the batch.
type Metrics struct {
	Distribution   Distribution   `json:"questionnaire_distribution"`
	TrendReadiness TrendReadiness `json:"trend_analysis_readiness"`
	ClinicalFlags  FlagSummary    `json:"clinical_flags_summary"`
}

// Distribution groups records by questionnaire.
type Distribution struct {
	TotalQuestionnaires          int                  `json:"total_questionnaires"`
	QuestionnairesReadyForTrends int                  `json:"questionnaires_ready_for_trends"`
	QuestionnairesInsufficient   int                  `json:"questionnaires_insufficient_data"`
	Summary                      []QuestionnaireStats `json:"summary"`
}

// QuestionnaireStats describes one questionnaire's records.
type QuestionnaireStats struct {
	Questionnaire          string     `json:"questionnaire"`
	TotalAssessments       int        `json:"total_assessments"`
	UniqueTimepoints       int        `json:"unique_timepoints"`
	AssessmentsWithDates   int        `json:"assessments_with_dates"`
	AssessmentsWithDerived int        `json:"assessments_with_derived"`
	ScoreRange             ScoreRange `json:"score_range"`
}

// ScoreRange is the min and max raw total.
type ScoreRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// TrendReadiness reports whether the batch as a whole can be trended.
type TrendReadiness struct {
	Ready                    bool     `json:"ready_for_trend_analysis"`
	RecommendedSortMethod    string   `json:"recommended_sort_method,omitempty"`
	Issues                   []string `json:"issues"`
	QuestionnairesWithTrends int      `json:"questionnaires_with_trends"`
	TotalQuestionnaires      int      `json:"total_questionnaires"`
}

// FlagSummary counts clinical flags and lists the critical ones.
type FlagSummary struct {
	ItemsWithFlags  int            `json:"items_with_flags"`
	TotalFlags      int            `json:"total_flags"`
	CriticalFlags   int            `json:"critical_flags"`
	CriticalDetails []CriticalFlag `json:"critical_flags_details"`
}

// CriticalFlag is a flag containing a critical keyword.
type CriticalFlag struct {
	Questionnaire string `json:"questionnaire"`
	Timepoint     int    `json:"timepoint"`
	Flag          string `json:"flag"`
}

// Summary is the one-glance result block.
type Summary struct {
	TotalItems                 int    `json:"total_items"`
	ItemsWithAllRequiredFields int    `json:"items_with_all_required_fields"`
	QuestionnairesAnalyzed     int    `json:"questionnaires_analyzed"`
	ReadyForTrendAnalysis      bool   `json:"ready_for_trend_analysis"`
	CriticalIssues             int    `json:"critical_issues"`
	Warnings                   int    `json:"warnings"`
	Status                     string `json:"status"`
}

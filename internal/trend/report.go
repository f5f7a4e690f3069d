package trend

// Report is the longitudinal analysis of one subject's scored records.
type Report struct {
	RunID          string         `json:"run_id,omitempty"`
	GeneratedAt    string         `json:"generated_at,omitempty"`
	ProfileSummary ProfileSummary `json:"profile_summary"`
	TrendOverview  Overview       `json:"trend_overview"`
	DataQuality    DataQuality    `json:"data_quality"`
	DetailedTrends []Summary      `json:"detailed_trends"`
	ClinicalNotes  []string       `json:"clinical_notes"`
}

// ProfileSummary counts what was analyzed.
type ProfileSummary struct {
	TotalQuestionnaires      int `json:"total_questionnaires"`
	TotalAssessments         int `json:"total_assessments"`
	QuestionnairesWithTrends int `json:"questionnaires_with_trends"`
}

// Overview counts trends by direction.
type Overview struct {
	Improving int `json:"improving"`
	Worsening int `json:"worsening"`
	Stable    int `json:"stable"`
}

// DataQuality lists report-level warnings and the excluded questionnaires.
type DataQuality struct {
	OverallWarnings        []string    `json:"overall_warnings"`
	QuestionnairesExcluded int         `json:"questionnaires_excluded"`
	Exclusions             []Exclusion `json:"exclusions"`
}

// Exclusion names a questionnaire that could not be trended and why.
type Exclusion struct {
	Questionnaire string `json:"questionnaire"`
	Reason        string `json:"reason"`
}

// Summary is one questionnaire's trend.
type Summary struct {
	Questionnaire       string             `json:"questionnaire"`
	QuestionnaireKey    string             `json:"questionnaire_key"`
	SourceQuestionnaire string             `json:"source_questionnaire"`
	AdministrationInfo  AdministrationInfo `json:"administration_info"`
	Timeline            Timeline           `json:"timeline"`
	DataQuality         TrendQuality       `json:"data_quality"`
	ScoreAnalysis       ScoreAnalysis      `json:"score_analysis"`
	SeverityAnalysis    SeverityAnalysis   `json:"severity_analysis"`
	History             []HistoryEntry     `json:"history"`
}

// AdministrationInfo is the recommended cadence from the trend guideline table.
type AdministrationInfo struct {
	RecommendedFrequency string `json:"recommended_frequency"`
	Sensitivity          string `json:"sensitivity"`
}

// Timeline method values.
const (
	TimelineActualDates = "actual_dates"
	TimelineEstimated   = "estimated_from_timepoints"
	TimelineUnknown     = "unknown"
)

// Timeline describes the elapsed span between the trend endpoints.
// DaysSpan is an estimate whenever TimelineMethod is estimated_from_timepoints.
type Timeline struct {
	Period              string `json:"period"`
	DaysSpan            int    `json:"days_span"`
	TimelineMethod      string `json:"timeline_method"`
	NumberOfAssessments int    `json:"number_of_assessments"`
}

// Sort method values.
const (
	SortDatePrimary   = "date_primary"
	SortTimepointOnly = "timepoint_only"
)

// TrendQuality records how a group was ordered and anything suspicious about it.
type TrendQuality struct {
	SortMethod string   `json:"sort_method"`
	Warnings   []string `json:"warnings"`
}

// ScoreAnalysis compares the first and last comparable scores.
type ScoreAnalysis struct {
	ScoreBasis           string  `json:"score_basis"`
	InitialScore         float64 `json:"initial_score"`
	LatestScore          float64 `json:"latest_score"`
	Change               float64 `json:"change"`
	ChangePercentage     float64 `json:"change_percentage"`
	TrendDirection       string  `json:"trend_direction"`
	SeverityLevelChanged bool    `json:"severity_level_changed"`
}

// SeverityAnalysis describes the severity transition by string comparison.
type SeverityAnalysis struct {
	InitialSeverity string `json:"initial_severity"`
	LatestSeverity  string `json:"latest_severity"`
	SeverityChange  string `json:"severity_change"`
}

// HistoryEntry is one administration in chronological order.
type HistoryEntry struct {
	Date          string   `json:"date"`
	Timepoint     int      `json:"timepoint"`
	Score         float64  `json:"score"`
	Severity      string   `json:"severity"`
	ClinicalFlags []string `json:"clinical_flags"`
}

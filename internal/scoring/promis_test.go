package scoring

import (
	"reflect"
	"testing"

	"github.com/dotcommander/qtrend/internal/rules"
)

func TestPROMISMeasure(t *testing.T) {
	tests := map[string]string{
		"promis depression":               rules.MeasureDepression,
		"promis anxiety parent":           rules.MeasureAnxiety,
		"promis life satisfaction":        rules.MeasureLifeSatisfaction,
		"promis global satisfaction":      rules.MeasureLifeSatisfaction,
		"promis fatigue":                  "",
		"promis depression anxiety combo": rules.MeasureDepression,
	}
	for name, want := range tests {
		if got := PROMISMeasure(name); got != want {
			t.Errorf("PROMISMeasure(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestScorePROMIS(t *testing.T) {
	tests := []struct {
		name          string
		questionnaire string
		answers       []float64
		wantSeverity  string
		wantT         float64
		wantInterp    string
		wantFlags     []string
		wantScale     string
	}{
		{
			name:          "pediatric depression severe",
			questionnaire: "PROMIS Depression",
			answers:       repeat(7, 4),
			wantSeverity:  "severe",
			wantT:         66.5,
			wantInterp:    "Severe",
			wantFlags: []string{
				"PROMIS Depression T-score 66.5 (Severe - significant clinical concern)",
				"PROMIS Depression: Raw=28, T-score=66.5 (Severe)",
			},
			wantScale: "PROMIS Depression Pediatric T-score (mean 50, SD 10, higher worse)",
		},
		{
			name:          "pediatric depression within normal limits",
			questionnaire: "PROMIS Depression",
			answers:       repeat(10, 1),
			wantSeverity:  "within normal limits",
			wantT:         49.3,
			wantInterp:    "Within Normal Limits",
			wantFlags:     []string{"PROMIS Depression: Raw=10, T-score=49.3 (Within Normal Limits)"},
			wantScale:     "PROMIS Depression Pediatric T-score (mean 50, SD 10, higher worse)",
		},
		{
			name:          "parent anxiety moderate",
			questionnaire: "PROMIS Anxiety Parent Proxy",
			answers:       repeat(10, 2),
			wantSeverity:  "moderate",
			wantT:         60.4,
			wantInterp:    "Moderate",
			wantFlags: []string{
				"PROMIS Anxiety T-score 60.4 (Moderate - clinical attention warranted)",
				"PROMIS Anxiety: Raw=20, T-score=60.4 (Moderate)",
			},
			wantScale: "PROMIS Anxiety Parent Proxy T-score (mean 50, SD 10, higher worse)",
		},
		{
			name:          "pediatric anxiety mild",
			questionnaire: "PROMIS Anxiety",
			answers:       repeat(12, 1),
			wantSeverity:  "mild",
			wantT:         51.0,
			wantInterp:    "Mild",
			wantFlags: []string{
				"PROMIS Anxiety T-score 51.0 (Mild - monitor)",
				"PROMIS Anxiety: Raw=12, T-score=51.0 (Mild)",
			},
			wantScale: "PROMIS Anxiety Pediatric T-score (mean 50, SD 10, higher worse)",
		},
		{
			name:          "life satisfaction very low",
			questionnaire: "PROMIS Life Satisfaction",
			answers:       repeat(12, 1),
			wantSeverity:  "very low",
			wantT:         27.9,
			wantInterp:    "Very Low",
			wantFlags: []string{
				"PROMIS Life Satisfaction T-score 27.9 (Very Low - significant concern)",
				"PROMIS Life Satisfaction: Raw=12, T-score=27.9 (Very Low)",
			},
			wantScale: "PROMIS Life Satisfaction Pediatric T-score (mean 50, SD 10, higher better)",
		},
		{
			name:          "life satisfaction average",
			questionnaire: "PROMIS Life Satisfaction",
			answers:       repeat(13, 2),
			wantSeverity:  "average",
			wantT:         40.0,
			wantInterp:    "Average",
			wantFlags:     []string{"PROMIS Life Satisfaction: Raw=26, T-score=40.0 (Average)"},
			wantScale:     "PROMIS Life Satisfaction Pediatric T-score (mean 50, SD 10, higher better)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(record(tt.questionnaire, tt.answers...))
			if got.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got.Severity, tt.wantSeverity)
			}
			if got.Derived.TScore == nil || *got.Derived.TScore != tt.wantT {
				t.Errorf("TScore = %v, want %v", got.Derived.TScore, tt.wantT)
			}
			if got.Derived.Interpretation != tt.wantInterp {
				t.Errorf("Interpretation = %q, want %q", got.Derived.Interpretation, tt.wantInterp)
			}
			if !reflect.DeepEqual(got.ClinicalFlags, tt.wantFlags) {
				t.Errorf("ClinicalFlags = %q, want %q", got.ClinicalFlags, tt.wantFlags)
			}
			if got.Derived.Scale != tt.wantScale {
				t.Errorf("Scale = %q, want %q", got.Derived.Scale, tt.wantScale)
			}
			if got.Derived.RawScore == nil || *got.Derived.RawScore != got.RawTotal {
				t.Errorf("RawScore = %v, want %d", got.Derived.RawScore, got.RawTotal)
			}
		})
	}
}

func TestScorePROMISLookupMiss(t *testing.T) {
	tests := []struct {
		questionnaire string
		answers       []float64
		wantFlag      string
	}{
		{"PROMIS Depression Parent", repeat(7, 5), "PROMIS raw total 35 outside conversion table range (6-30)"},
		{"PROMIS Depression", repeat(7, 1), "PROMIS raw total 7 outside conversion table range (8-40)"},
		{"PROMIS Anxiety", repeat(41, 1), "PROMIS raw total 41 outside conversion table range (8-40)"},
	}

	for _, tt := range tests {
		got := Score(record(tt.questionnaire, tt.answers...))
		if got.Severity != "raw score outside conversion range" {
			t.Errorf("%s: Severity = %q", tt.questionnaire, got.Severity)
		}
		if got.Derived.TScore != nil {
			t.Errorf("%s: TScore should be absent, got %v", tt.questionnaire, *got.Derived.TScore)
		}
		if !reflect.DeepEqual(got.ClinicalFlags, []string{tt.wantFlag}) {
			t.Errorf("%s: ClinicalFlags = %q, want %q", tt.questionnaire, got.ClinicalFlags, tt.wantFlag)
		}
	}
}

func TestScorePROMISUnknownMeasure(t *testing.T) {
	got := Score(record("PROMIS Fatigue", repeat(10, 1)...))

	if got.Severity != "unknown PROMIS measure" {
		t.Errorf("Severity = %q", got.Severity)
	}
	want := []string{"PROMIS raw total: 10. Unable to convert - unknown measure type."}
	if !reflect.DeepEqual(got.ClinicalFlags, want) {
		t.Errorf("ClinicalFlags = %q, want %q", got.ClinicalFlags, want)
	}
	if got.Derived.Scale != "PROMIS Pediatric T-score (mean 50, SD 10)" {
		t.Errorf("Scale = %q", got.Derived.Scale)
	}
}

package types

import (
	"reflect"
	"testing"

	"github.com/goccy/go-json"
)

func TestScoredRecordRoundTrip(t *testing.T) {
	rec := ScoredRecord{
		Questionnaire: "PedsQL",
		Timepoint:     2,
		Date:          "2024-02-01",
		RawTotal:      41,
		ScaleInfo: ScaleInfo{
			Range:     "0-100 transformed",
			Direction: DirectionLowerWorse,
			Cutoffs:   map[string]float64{"impaired_hrqol": 70},
		},
		Severity:      "mild impairment",
		ClinicalFlags: []string{"PedsQL emotional dimension below 50"},
		Derived: Derived{
			Scale:      "PedsQL 4.0 (0-100, higher better)",
			TotalScore: Float(72.5),
			DimensionScores: map[string]DimensionScore{
				"emotional": {Score: Float(45), ItemsAnswered: 5, ItemsExpected: 5, CompletionRate: 1},
				"school":    {ItemsAnswered: 1, ItemsExpected: 5, CompletionRate: 0.2, Reason: "insufficient items"},
			},
			PsychosocialScore: Float(61.7),
			RawTotal:          Int(41),
		},
		Responses: []Response{{Question: "1. Walking", Answer: 1, Dimension: "physical"}},
		FreeText:  "felt better this month",
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	var got ScoredRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(rec, got) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, rec)
	}
}

func TestDerivedIsEmpty(t *testing.T) {
	tests := []struct {
		name string
		d    Derived
		want bool
	}{
		{"zero", Derived{}, true},
		{"note only", Derived{Note: "n/a"}, true},
		{"scale", Derived{Scale: "x"}, false},
		{"t-score", Derived{TScore: Float(50)}, false},
		{"subscales", Derived{Subscales: map[string]SubscaleScore{"panic": {Total: 3, Count: 2}}}, false},
	}
	for _, tt := range tests {
		if got := tt.d.IsEmpty(); got != tt.want {
			t.Errorf("%s: IsEmpty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDerivedOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(Derived{Scale: "GAD-7", TotalScore: Float(0)})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if got, want := string(data), `{"scale":"GAD-7","total_score":0}`; got != want {
		t.Errorf("Marshal() = %s, want %s", got, want)
	}
}

package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/qtrend/internal/discovery"
	"github.com/dotcommander/qtrend/internal/types"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		ft        discovery.FileType
		wantLen   int
		wantFirst string
	}{
		{"json array", `[{"questionnaire":"PHQ-9","answer":2},{"questionnaire":"PHQ-9","answer":1}]`, discovery.FileTypeJSON, 2, "PHQ-9"},
		{"json wrapped items", `[{"json":{"questionnaire":"GAD-7"}}]`, discovery.FileTypeJSON, 1, "GAD-7"},
		{"json collection key", `{"rows":[{"questionnaire":"WHO-5"}]}`, discovery.FileTypeJSON, 1, "WHO-5"},
		{"json single object", `{"questionnaire":"RSES","answer":3}`, discovery.FileTypeJSON, 1, "RSES"},
		{"json null", `null`, discovery.FileTypeJSON, 0, ""},
		{"ndjson", "{\"questionnaire\":\"SDQ\"}\n\n{\"questionnaire\":\"SDQ\"}\n", discovery.FileTypeNDJSON, 2, "SDQ"},
		{"yaml list", "- questionnaire: PSC-17\n  answer: 2\n", discovery.FileTypeYAML, 1, "PSC-17"},
		{"yaml records key", "records:\n  - questionnaire: SCARED\n    raw_total: 14\n", discovery.FileTypeYAML, 1, "SCARED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := Decode([]byte(tt.data), tt.ft)
			require.NoError(t, err)
			assert.Len(t, items, tt.wantLen)
			if tt.wantLen > 0 {
				assert.Equal(t, tt.wantFirst, items[0]["questionnaire"])
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`[1, 2]`), discovery.FileTypeJSON)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode([]byte(`"just text"`), discovery.FileTypeJSON)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode([]byte(`[]`), discovery.FileTypeUnknown)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = Decode([]byte(`{"a":`), discovery.FileTypeJSON)
	assert.Error(t, err)

	_, err = Decode([]byte("{}\nnot json\n"), discovery.FileTypeNDJSON)
	assert.ErrorContains(t, err, "line 2")
}

func TestReadAllSplitsKinds(t *testing.T) {
	dir := t.TempDir()
	rows := filepath.Join(dir, "rows.json")
	scored := filepath.Join(dir, "scored.yaml")
	require.NoError(t, os.WriteFile(rows, []byte(`[{"questionnaire":"PHQ-9","timepoint":1,"answer":2}]`), 0644))
	require.NoError(t, os.WriteFile(scored, []byte("- questionnaire: PHQ-9\n  timepoint: 2\n  raw_total: 6\n  severity: mild\n"), 0644))

	batch, err := ReadAll([]discovery.File{
		{Path: rows, RelPath: "rows.json", Type: discovery.FileTypeJSON},
		{Path: scored, RelPath: "scored.yaml", Type: discovery.FileTypeYAML},
	})
	require.NoError(t, err)
	assert.Len(t, batch.Rows, 1)
	assert.Len(t, batch.Scored, 1)
	assert.Equal(t, 2, batch.Len())
	assert.Equal(t, []string{"rows.json", "scored.yaml"}, batch.Sources)

	_, err = ReadAll([]discovery.File{{Path: filepath.Join(dir, "gone.json"), RelPath: "gone.json", Type: discovery.FileTypeJSON}})
	assert.ErrorContains(t, err, "reading gone.json")
}

func TestScoredRecords(t *testing.T) {
	items, err := Decode([]byte(`[
		{"questionnaire":" PHQ-9 ","timepoint":"2","date":"2024-01-15","raw_total":12.0,"severity":"moderate",
		 "clinical_flags":["PHQ-9 ≥10 (moderate depression)"],"derived":{"scale":"PHQ-9 (0-27, higher worse)","total_score":12}},
		{"questionnaire":"WHO-5","timepoint":1,"date":45292,"raw_total":15,"severity":"moderate wellbeing",
		 "derived":{"index_score":60,"raw_score":15}}
	]`), discovery.FileTypeJSON)
	require.NoError(t, err)
	require.True(t, IsScored(items[0]))

	recs, issues := ScoredRecords(items)
	assert.Empty(t, issues)
	require.Len(t, recs, 2)

	assert.Equal(t, "PHQ-9", recs[0].Questionnaire)
	assert.Equal(t, 2, recs[0].Timepoint)
	assert.Equal(t, 12, recs[0].RawTotal)
	assert.Equal(t, "2024-01-15", recs[0].Date)
	assert.Equal(t, "PHQ-9 (0-27, higher worse)", recs[0].Derived.Scale)
	require.NotNil(t, recs[0].Derived.TotalScore)
	assert.Equal(t, 12.0, *recs[0].Derived.TotalScore)

	assert.Equal(t, "2024-01-01", recs[1].Date, "numeric dates are spreadsheet serials")
	require.NotNil(t, recs[1].Derived.IndexScore)
	assert.Equal(t, 60, *recs[1].Derived.IndexScore)
	assert.NotNil(t, recs[1].ClinicalFlags)

	assert.Equal(t, "2", items[0]["timepoint"], "input maps are not mutated")
}

func TestScoredRecordsDropsMalformedDerived(t *testing.T) {
	items, err := Decode([]byte(`[
		{"questionnaire":"SDQ Parent","timepoint":1,"date":"2024-01-01","raw_total":18,"severity":"abnormal",
		 "clinical_flags":["SDQ Total Difficulties: 18 - high"],
		 "derived":{"scale":"SDQ","interpretations":{"version":"parent",
		   "total_difficulties":{"score":18,"band":"abnormal","interpretation":"high"}}}},
		{"questionnaire":"SDQ Parent","timepoint":2,"date":"2024-03-01","raw_total":12,"severity":"normal"}
	]`), discovery.FileTypeJSON)
	require.NoError(t, err)

	recs, issues := ScoredRecords(items)
	require.Len(t, recs, 2, "one malformed field does not abort the batch")
	assert.Equal(t, 18, recs[0].RawTotal)
	assert.Equal(t, "abnormal", recs[0].Severity)
	assert.Equal(t, []string{"SDQ Total Difficulties: 18 - high"}, recs[0].ClinicalFlags)
	assert.True(t, recs[0].Derived.IsEmpty())

	require.Len(t, issues, 1)
	assert.Equal(t, types.SeverityWarning, issues[0].Severity)
	assert.Equal(t, CheckScoredInput, issues[0].Check)
	assert.Equal(t, "SDQ Parent", issues[0].Questionnaire)
	assert.Equal(t, 1, issues[0].Timepoint)
	assert.Equal(t, "Scored record 0: malformed derived ignored", issues[0].Message)

	_, ok := items[0]["derived"]
	assert.True(t, ok, "input maps are not mutated")
}

func TestIsScored(t *testing.T) {
	assert.True(t, IsScored(map[string]any{"raw_total": 0}))
	assert.False(t, IsScored(map[string]any{"answer": 3}))
}

package output

import (
	"cmp"
	"slices"

	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

const (
	digestTopFlags   = 10
	digestTopRecords = 5
)

// Digest is a one-screen overview of a batch of scored records.
type Digest struct {
	TotalRecords   int                  `json:"total_records"`
	Questionnaires []QuestionnaireCount `json:"questionnaires"`
	TopFlags       []FlagCount          `json:"top_flags"`
	MostFlagged    []FlaggedRecord      `json:"most_flagged"`
}

// QuestionnaireCount is the severity distribution of one questionnaire type.
type QuestionnaireCount struct {
	Questionnaire string         `json:"questionnaire"`
	Assessments   int            `json:"assessments"`
	Severity      map[string]int `json:"severity"`
}

// FlagCount is how often one clinical flag was raised.
type FlagCount struct {
	Flag  string `json:"flag"`
	Count int    `json:"count"`
}

// FlaggedRecord is a record with its flag count.
type FlaggedRecord struct {
	Questionnaire string   `json:"questionnaire"`
	Timepoint     int      `json:"timepoint"`
	Date          string   `json:"date,omitempty"`
	Severity      string   `json:"severity"`
	Flags         []string `json:"flags"`
}

// Summarize builds the digest. Questionnaires keep first-seen order; flags
// and records are ranked by count with ties broken by first appearance.
func Summarize(records []types.ScoredRecord) *Digest {
	d := &Digest{TotalRecords: len(records)}

	byName := map[string]int{}
	flagIndex := map[string]int{}
	for _, rec := range records {
		name := textutil.Normalize(rec.Questionnaire)
		i, ok := byName[name]
		if !ok {
			i = len(d.Questionnaires)
			byName[name] = i
			d.Questionnaires = append(d.Questionnaires, QuestionnaireCount{
				Questionnaire: rec.Questionnaire,
				Severity:      map[string]int{},
			})
		}
		d.Questionnaires[i].Assessments++
		d.Questionnaires[i].Severity[orUnknown(rec.Severity)]++

		for _, flag := range rec.ClinicalFlags {
			j, ok := flagIndex[flag]
			if !ok {
				j = len(d.TopFlags)
				flagIndex[flag] = j
				d.TopFlags = append(d.TopFlags, FlagCount{Flag: flag})
			}
			d.TopFlags[j].Count++
		}

		if len(rec.ClinicalFlags) > 0 {
			d.MostFlagged = append(d.MostFlagged, FlaggedRecord{
				Questionnaire: rec.Questionnaire,
				Timepoint:     rec.Timepoint,
				Date:          rec.Date,
				Severity:      rec.Severity,
				Flags:         slices.Clone(rec.ClinicalFlags),
			})
		}
	}

	slices.SortStableFunc(d.TopFlags, func(a, b FlagCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if len(d.TopFlags) > digestTopFlags {
		d.TopFlags = d.TopFlags[:digestTopFlags]
	}

	slices.SortStableFunc(d.MostFlagged, func(a, b FlaggedRecord) int {
		return cmp.Compare(len(b.Flags), len(a.Flags))
	})
	if len(d.MostFlagged) > digestTopRecords {
		d.MostFlagged = d.MostFlagged[:digestTopRecords]
	}
	return d
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

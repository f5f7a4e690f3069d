package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dotcommander/qtrend/internal/textutil"
	"github.com/dotcommander/qtrend/internal/types"
)

// pedsqlScorer scores the pediatric quality-of-life inventory. Items are
// reverse-transformed to 0-100 and severity follows the psychosocial/total ratio.
type pedsqlScorer struct{}

func (pedsqlScorer) Name() string { return "pedsql" }

type pedsqlDimension struct {
	name         string
	first, last  int // question number range
	expected     int
	keyword      string
	psychosocial bool
}

var pedsqlDimensions = []pedsqlDimension{
	{"Physical", 1, 8, 8, "physical", false},
	{"Emotional", 9, 13, 5, "emotional", true},
	{"Social", 14, 18, 5, "social", true},
	{"School", 19, 23, 5, "school", true},
}

var pedsqlTransform = map[int]float64{0: 100, 1: 75, 2: 50, 3: 25, 4: 0}

var leadingNumber = regexp.MustCompile(`^(\d+)`)

// pedsqlMinCompletion is the answered share a dimension needs to be scored.
const pedsqlMinCompletion = 0.5

type pedsqlBand struct {
	min          float64
	severity     string
	mentalHealth string
	flagTemplate string
}

var pedsqlBands = []pedsqlBand{
	{80, "typical range", "Normal wellbeing", ""},
	{70, "slightly below norms", "Mild emotional or adjustment difficulties",
		"PedsQL Psychosocial/Total Score %.1f (70-79: slightly below norms - mild emotional/adjustment difficulties)"},
	{60, "noticeably below average", "Possible clinical concern — monitor or screen further",
		"PedsQL Psychosocial/Total Score %.1f (60-69: noticeably below average - possible clinical concern)"},
	{0, "significantly impaired", "Likely emotional/mental-health problems",
		"PedsQL Psychosocial/Total Score %.1f < 60 (significantly impaired - likely emotional/mental-health problems)"},
}

func classifyPedsQL(ratio float64) pedsqlBand {
	for _, b := range pedsqlBands[:len(pedsqlBands)-1] {
		if ratio >= b.min {
			return b
		}
	}
	return pedsqlBands[len(pedsqlBands)-1]
}

// pedsqlDimensionOf assigns a response to a dimension index by its leading
// question number, falling back to the dimension tag when the question is
// unnumbered. It returns -1 when neither places the response.
func pedsqlDimensionOf(r types.Response) int {
	if m := leadingNumber.FindStringSubmatch(strings.TrimSpace(r.Question)); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return -1
		}
		for i, d := range pedsqlDimensions {
			if n >= d.first && n <= d.last {
				return i
			}
		}
		return -1
	}
	for i, d := range pedsqlDimensions {
		if textutil.IncludesAny(r.Dimension, d.keyword) {
			return i
		}
	}
	return -1
}

func (pedsqlScorer) Score(in Input) Result {
	var r Result
	r.Derived.Scale = "PedsQL Psychosocial/Total Score (0-100, higher better)"
	r.Derived.Note = "Scores reverse-transformed: 0→100, 1→75, 2→50, 3→25, 4→0. Interpretation based on Psychosocial/Total Score ratio"
	r.Derived.RawTotal = types.Int(in.Raw())

	items := make([][]float64, len(pedsqlDimensions))
	for _, resp := range in.Record.Responses {
		score, ok := pedsqlTransform[int(resp.Answer)]
		if !ok {
			continue
		}
		if i := pedsqlDimensionOf(resp); i >= 0 {
			items[i] = append(items[i], score)
		}
	}

	dims := make(map[string]types.DimensionScore, len(pedsqlDimensions))
	var all, psychosocial []float64
	var insufficient []string
	for i, d := range pedsqlDimensions {
		answered := len(items[i])
		ds := types.DimensionScore{
			ItemsAnswered:  answered,
			ItemsExpected:  d.expected,
			CompletionRate: round(float64(answered)/float64(d.expected)*100, 1),
		}
		if answered > 0 && float64(answered) >= float64(d.expected)*pedsqlMinCompletion {
			ds.Score = types.Float(round(mean(items[i]), 2))
			all = append(all, items[i]...)
			if d.psychosocial {
				psychosocial = append(psychosocial, items[i]...)
			}
		} else {
			ds.Reason = "Insufficient data (>50% missing)"
			insufficient = append(insufficient,
				fmt.Sprintf("PedsQL %s: Insufficient data (%.1f%% complete, need ≥50%%)", d.name, ds.CompletionRate))
		}
		dims[d.name] = ds
	}
	r.Derived.DimensionScores = dims

	if len(all) == 0 || len(psychosocial) == 0 {
		r.setSeverity("insufficient valid responses")
		r.flag("PedsQL: No valid responses in 0-4 range for transformation")
		r.Flags = append(r.Flags, insufficient...)
		return r
	}

	total := mean(all)
	psych := mean(psychosocial)
	var ratio float64
	if total > 0 {
		ratio = psych / total * 100
	}
	r.Derived.TotalScore = types.Float(round(total, 2))
	r.Derived.PsychosocialScore = types.Float(round(psych, 2))
	r.Derived.PsychosocialTotalRatio = types.Float(round(ratio, 2))

	band := classifyPedsQL(ratio)
	r.setSeverity(band.severity)
	r.Derived.Interpretation = strings.ToUpper(band.severity[:1]) + band.severity[1:]
	r.Derived.MentalHealthStatus = band.mentalHealth

	if band.flagTemplate != "" {
		r.flag(fmt.Sprintf(band.flagTemplate, ratio))
	}
	r.flag(fmt.Sprintf("PedsQL Total Score: %.1f, Psychosocial Score: %.1f, Ratio: %.1f%%", total, psych, ratio))
	r.Flags = append(r.Flags, insufficient...)
	return r
}

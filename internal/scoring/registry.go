package scoring

import (
	"strings"

	"github.com/dotcommander/qtrend/internal/textutil"
)

// entry pairs the name tags that select a scorer with the scorer itself.
type entry struct {
	tags   []string
	scorer Scorer
}

// registry is evaluated in order and the first entry with a tag contained
// in the questionnaire name wins. The bare "phq" tag makes every PHQ variant
// (including PHQ-A and PHQ-2) score as PHQ-9.
var registry = []entry{
	{[]string{"phq-9", "phq9", "phq"}, phqScorer{}},
	{[]string{"who-5", "who5", "who 5"}, who5Scorer{}},
	{[]string{"gad-7", "gad7", "gad 7"}, gad7Scorer{}},
	{[]string{"promis"}, promisScorer{}},
	{[]string{"pedsql"}, pedsqlScorer{}},
	{[]string{"ces-dc", "cesdc", "ces dc"}, cesdcScorer{}},
	{[]string{"scared"}, scaredScorer{}},
	{[]string{"rosenberg", "rses"}, rsesScorer{}},
	{[]string{"sdq"}, sdqScorer{}},
	{[]string{"psc-17", "psc17", "psc 17", "pediatric symptom checklist – 17 (psc-17)", "psc"}, psc17Scorer{}},
}

// Lookup selects the scorer for a questionnaire name and returns the tag
// that matched. Unrecognized names get the generic scorer and an empty tag.
func Lookup(name string) (Scorer, string) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, e := range registry {
		for _, tag := range e.tags {
			if strings.Contains(name, tag) {
				return e.scorer, tag
			}
		}
	}
	return genericScorer{}, ""
}

// Family returns the name of the scorer a questionnaire name resolves to,
// "generic" when no tag matches.
func Family(name string) string {
	scorer, _ := Lookup(name)
	return scorer.Name()
}

// GroupKey identifies administrations whose scores can be compared over
// time. Records of one family share a key, except that PROMIS splits by
// measure and respondent and SDQ by version. Unrecognized questionnaires
// group by normalized name.
func GroupKey(name string) string {
	norm := textutil.Normalize(name)
	switch family := Family(norm); family {
	case "promis":
		version := "pediatric"
		if strings.Contains(norm, "parent") {
			version = "parent"
		}
		return family + "/" + PROMISMeasure(norm) + "/" + version
	case "sdq":
		return family + "/" + DetectSDQVersion(norm)
	case "generic":
		return family + "/" + norm
	default:
		return family
	}
}

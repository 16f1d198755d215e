package structuring

import (
	"regexp"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

type keyword struct {
	term    string
	pattern *regexp.Regexp
	weight  int
}

func kw(term string, weight int, pattern string) keyword {
	return keyword{term: term, pattern: regexp.MustCompile(`(?i)` + pattern), weight: weight}
}

// vocabularies are evaluated in models.Categories order. Overview is the
// fallback; its terms only contribute to the reported score.
var vocabularies = map[models.Category][]keyword{
	models.CategoryInstruction: {
		kw("learning objective", 2, `\blearning objectives?\b`),
		kw("teaching point", 2, `\bteaching points?\b`),
		kw("debrief", 2, `\bdebrief`),
		kw("educational", 2, `\beducational\b`),
		kw("discussion question", 2, `\bdiscussion questions?\b`),
		kw("key takeaway", 2, `\bkey takeaways?\b`),
		kw("reflection", 1, `\breflect(?:ion|ive)?\b`),
		kw("learner", 1, `\blearners?\b`),
		kw("student", 1, `\bstudents?\b`),
		kw("competency", 1, `\bcompetenc(?:y|ies|e)\b`),
		// Also matches clinical "initial assessment" paragraphs, which then
		// land in instruction because it is checked first.
		kw("assessment", 1, `\bassessments?\b`),
	},
	models.CategoryCarePlan: {
		kw("intervention", 2, `\binterventions?\b`),
		kw("nursing action", 2, `\bnursing actions?\b`),
		kw("care plan", 2, `\b(?:care plan|plan of care)\b`),
		kw("handoff", 2, `\b(?:hand-?off|sbar)\b`),
		kw("expected action", 2, `\bexpected actions?\b`),
		kw("administer", 1, `\badminister`),
		kw("treatment", 1, `\btreatments?\b`),
		kw("management", 1, `\bmanagement\b`),
		kw("escalate", 1, `\bescalat`),
		kw("monitor", 1, `\bmonitor`),
		kw("documentation", 1, `\bdocument(?:ation|ed)?\b`),
		kw("progression", 1, `\bprogression\b`),
		kw("follow-up", 1, `\bfollow[- ]up\b`),
	},
	models.CategoryBackground: {
		kw("past medical history", 2, `\bpast medical history\b`),
		kw("social history", 2, `\bsocial history\b`),
		kw("family history", 2, `\bfamily history\b`),
		kw("chief complaint", 2, `\b(?:chief|presenting) complaint\b`),
		kw("history", 1, `\bhistory\b`),
		kw("medication", 1, `\bmedications?\b`),
		kw("allergy", 1, `\ballerg`),
		kw("lives with", 1, `\blives (?:with|alone)\b`),
		kw("occupation", 1, `\boccupation\b`),
		kw("smoking", 1, `\bsmok`),
		kw("alcohol", 1, `\balcohol\b`),
		kw("year-old", 1, `\byear[- ]old\b`),
	},
	models.CategoryFindings: {
		kw("vital sign", 2, `\bvital signs?\b`),
		kw("heart rate", 2, `\bheart rate\b`),
		kw("blood pressure", 2, `\bblood pressure\b`),
		kw("respiratory rate", 2, `\brespiratory rate\b`),
		kw("oxygen saturation", 2, `\b(?:oxygen saturation|spo2)\b`),
		kw("laboratory", 2, `\b(?:laboratory|lab results?)\b`),
		kw("physical exam", 2, `\bphysical exam`),
		kw("temperature", 1, `\btemperature\b`),
		kw("auscultation", 1, `\bauscultat`),
		kw("finding", 1, `\bfindings?\b`),
		kw("bpm", 1, `\bbpm\b`),
		kw("mmhg", 1, `\bmmhg\b`),
		kw("glucose", 1, `\bglucose\b`),
	},
	models.CategoryOverview: {
		kw("scenario", 1, `\bscenario\b`),
		kw("overview", 1, `\boverview\b`),
		kw("summary", 1, `\bsummary\b`),
		kw("setting", 1, `\bsetting\b`),
	},
}

// Classification explains which bucket a fragment landed in and why
type Classification struct {
	Category models.Category `json:"category"`
	Score    int             `json:"score"`
	Matched  []string        `json:"matched"`
}

// Classify maps free text to one of the five buckets. The first category in
// priority order with any matching term wins; unmatched text is overview.
func Classify(text string) models.Category {
	return ClassifyDetailed(text).Category
}

// ClassifyDetailed is Classify plus the score and matched terms of the winner
func ClassifyDetailed(text string) Classification {
	for _, category := range models.Categories {
		score, matched := scoreCategory(category, text)
		if score > 0 || category == models.CategoryOverview {
			if matched == nil {
				matched = []string{}
			}
			return Classification{Category: category, Score: score, Matched: matched}
		}
	}
	// unreachable: overview always returns above
	return Classification{Category: models.CategoryOverview, Matched: []string{}}
}

func scoreCategory(category models.Category, text string) (int, []string) {
	score := 0
	var matched []string
	for _, k := range vocabularies[category] {
		if k.pattern.MatchString(text) {
			score += k.weight
			matched = append(matched, k.term)
		}
	}
	return score, matched
}

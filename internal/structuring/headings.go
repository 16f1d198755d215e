package structuring

import (
	"regexp"
	"strings"
)

type sectionLabel string

const (
	labelNone          sectionLabel = ""
	labelSummary       sectionLabel = "summary"
	labelObjectives    sectionLabel = "objectives"
	labelSubject       sectionLabel = "subject-information"
	labelFindings      sectionLabel = "initial-findings"
	labelProgression   sectionLabel = "progression"
	labelDocumentation sectionLabel = "documentation"
	labelEducation     sectionLabel = "educational-notes"
	labelDebrief       sectionLabel = "debrief"
)

type labelAliases struct {
	label   sectionLabel
	aliases []string
}

// headingLabels is ordered; the order breaks ties between equally long aliases
var headingLabels = []labelAliases{
	{labelSummary, []string{"scenario overview", "case summary", "scenario summary", "overview", "summary"}},
	{labelObjectives, []string{"learning objectives", "objectives", "learning goals", "goals"}},
	{labelSubject, []string{"patient information", "patient background", "patient history", "patient profile", "patient overview", "subject information", "background"}},
	{labelFindings, []string{"initial presentation", "initial assessment", "initial findings", "presenting findings", "vital signs", "physical exam", "laboratory", "lab results", "assessment findings"}},
	{labelProgression, []string{"scenario progression", "progression", "expected interventions", "interventions", "management", "treatment plan", "expected actions"}},
	{labelDocumentation, []string{"documentation", "charting", "nursing notes"}},
	{labelEducation, []string{"educational notes", "teaching points", "key learning points", "educational content", "education"}},
	{labelDebrief, []string{"debriefing questions", "debriefing", "debrief", "reflection questions"}},
}

// SectionLabels lists the headings the router files into typed fields, in order
func SectionLabels() []string {
	out := make([]string, len(headingLabels))
	for i, l := range headingLabels {
		out[i] = string(l.label)
	}
	return out
}

// SectionHeadings returns the preferred heading text for each label, in the
// same order as SectionLabels. Every heading routes back to its own label.
func SectionHeadings() []string {
	out := make([]string, len(headingLabels))
	for i, l := range headingLabels {
		words := strings.Fields(l.aliases[0])
		for j, w := range words {
			words[j] = strings.ToUpper(w[:1]) + w[1:]
		}
		out[i] = strings.Join(words, " ")
	}
	return out
}

type compiledAlias struct {
	label   sectionLabel
	length  int
	pattern *regexp.Regexp
}

var compiledAliases = compileAliases()

func compileAliases() []compiledAlias {
	var out []compiledAlias
	for _, l := range headingLabels {
		for _, alias := range l.aliases {
			out = append(out, compiledAlias{
				label:   l.label,
				length:  len(alias),
				pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(alias)),
			})
		}
	}
	return out
}

// matchLabel picks the label with the longest alias found in the heading
// text, so "Patient Overview" is subject information rather than summary
func matchLabel(text string) (sectionLabel, bool) {
	text = strings.TrimSpace(text)
	best := labelNone
	bestLen := 0
	for _, a := range compiledAliases {
		if a.length > bestLen && a.pattern.MatchString(text) {
			best = a.label
			bestLen = a.length
		}
	}
	return best, best != labelNone
}

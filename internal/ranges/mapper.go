// Package ranges maps questionnaire answers to case parameters and derives
// the vital sign ranges a scenario should target.
package ranges

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

type group int

const (
	groupClinical group = iota
	groupDemographics
	groupComplexity
	groupEducational
)

var groupPatterns = []struct {
	group   group
	pattern *regexp.Regexp
}{
	{groupDemographics, regexp.MustCompile(`(?i)\b(?:age|ages|aged|gender|sex|demographic\w*|population)\b`)},
	{groupClinical, regexp.MustCompile(`(?i)\b(?:setting|environment|unit|specialty|specialties|condition\w*|diagnos\w*|comorbid\w*|history)\b`)},
	{groupComplexity, regexp.MustCompile(`(?i)\b(?:severity|acuity|complexity|complication\w*|stability)\b`)},
	{groupEducational, regexp.MustCompile(`(?i)\b(?:learner\w*|level|objective\w*|focus|skill\w*|competenc\w*|education\w*|debrief\w*)\b`)},
}

var (
	ageFieldRe       = regexp.MustCompile(`(?i)\bage`)
	genderFieldRe    = regexp.MustCompile(`(?i)gender|\bsex\b`)
	settingFieldRe   = regexp.MustCompile(`(?i)setting|environment|\bunit\b`)
	specialtyFieldRe = regexp.MustCompile(`(?i)specialt`)
	comorbidFieldRe  = regexp.MustCompile(`(?i)comorbid|history|coexisting|additional|other condition`)
	conditionFieldRe = regexp.MustCompile(`(?i)condition|diagnos`)
	severityFieldRe  = regexp.MustCompile(`(?i)severity|acuity|stability`)
	complicationRe   = regexp.MustCompile(`(?i)complication`)
	learnerFieldRe   = regexp.MustCompile(`(?i)learner|level`)
	focusFieldRe     = regexp.MustCompile(`(?i)focus|skill|competenc`)
	debriefFieldRe   = regexp.MustCompile(`(?i)debrief`)
	objectiveFieldRe = regexp.MustCompile(`(?i)objective`)
)

// MapSelections turns questionnaire answers into CaseParameters. Questions are
// routed by their text, answers resolve to option labels, and unanswered
// questions are skipped. Explicit objectives come first.
func MapSelections(questions []models.Question, selections models.ParameterSelection, objectives []string) models.CaseParameters {
	params := models.CaseParameters{
		Demographics:    models.Demographics{Extra: map[string]string{}},
		ClinicalContext: models.ClinicalContext{Comorbidities: []string{}, Extra: map[string]string{}},
		Complexity:      models.PresentationComplexity{Complications: []string{}, Extra: map[string]string{}},
		Educational:     models.EducationalElements{FocusAreas: []string{}, Extra: map[string]string{}},
		Objectives:      cleanList(objectives),
	}

	for _, q := range questions {
		labels := answerLabels(q, selections[q.ID])
		if len(labels) == 0 {
			continue
		}
		assign(&params, q, labels)
	}

	params.VitalRanges = DeriveRanges(
		params.Demographics.AgeGroup,
		params.Complexity.Severity,
		append([]string{params.ClinicalContext.PrimaryCondition}, params.ClinicalContext.Comorbidities...),
	)
	params.Resources, params.DocumentationTypes = ProfileFor(params.ClinicalContext.Setting)
	return params
}

func routeQuestion(text string) group {
	for _, p := range groupPatterns {
		if p.pattern.MatchString(text) {
			return p.group
		}
	}
	return groupClinical
}

func assign(params *models.CaseParameters, q models.Question, labels []string) {
	joined := strings.Join(labels, ", ")
	text := q.Text

	switch routeQuestion(text) {
	case groupDemographics:
		d := &params.Demographics
		switch {
		case ageFieldRe.MatchString(text):
			d.AgeGroup = joined
		case genderFieldRe.MatchString(text):
			d.Gender = joined
		default:
			d.Extra[q.ID] = joined
		}
	case groupComplexity:
		c := &params.Complexity
		switch {
		case severityFieldRe.MatchString(text):
			c.Severity = joined
		case complicationRe.MatchString(text):
			c.Complications = append(c.Complications, labels...)
		default:
			c.Extra[q.ID] = joined
		}
	case groupEducational:
		e := &params.Educational
		switch {
		case objectiveFieldRe.MatchString(text):
			params.Objectives = append(params.Objectives, labels...)
		case debriefFieldRe.MatchString(text):
			e.DebriefStyle = joined
		case focusFieldRe.MatchString(text):
			e.FocusAreas = append(e.FocusAreas, labels...)
		case learnerFieldRe.MatchString(text):
			e.LearnerLevel = joined
		default:
			e.Extra[q.ID] = joined
		}
	default:
		c := &params.ClinicalContext
		switch {
		case settingFieldRe.MatchString(text):
			c.Setting = joined
		case specialtyFieldRe.MatchString(text):
			c.Specialty = joined
		case comorbidFieldRe.MatchString(text):
			c.Comorbidities = append(c.Comorbidities, labels...)
		case conditionFieldRe.MatchString(text):
			c.PrimaryCondition = joined
		default:
			c.Extra[q.ID] = joined
		}
	}
}

// answerLabels resolves selected option ids to their labels. Ids without a
// matching option are kept verbatim.
func answerLabels(q models.Question, selected []string) []string {
	var labels []string
	for _, id := range selected {
		label := strings.TrimSpace(id)
		for _, opt := range q.Options {
			if opt.ID == id {
				label = strings.TrimSpace(opt.Label)
				break
			}
		}
		if label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}

func cleanList(items []string) []string {
	out := []string{}
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

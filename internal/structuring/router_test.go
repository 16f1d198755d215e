package structuring

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

const copdScenario = `# Acute COPD Exacerbation

## Scenario Overview
A 72-year-old woman presents to the emergency department with worsening shortness of breath.

## Learning Objectives
- Recognize signs of respiratory distress
- Prioritize oxygen therapy

## Patient Information
Name: Margaret Chen
Age: 72
Sex: Female
Medications:
- Tiotropium 18 mcg inhaled daily
Allergies: Penicillin (hives)

## Initial Presentation
Vital Signs:
- Heart Rate: 112 bpm
- Blood Pressure: 148/90 mmHg
- SpO2: 86% on room air

Laboratory Results:
- Glucose: 110 mg/dL [Reference: 70-99 mg/dL]

## Scenario Progression
1. Apply oxygen via nasal cannula
2. Administer nebulized bronchodilator

## Nursing Documentation
- Document respiratory assessment every 15 minutes

## Educational Notes
COPD patients may retain CO2 with high-flow oxygen.

## Debriefing Questions
1. What findings indicated respiratory distress?
2. How did you titrate oxygen?

## Family Communication
The patient's daughter is on her way and asks for updates.
`

func TestRouteKnownSections(t *testing.T) {
	doc := Route(copdScenario, "")

	assert.Equal(t, "Acute COPD Exacerbation", doc.Title)
	assert.Equal(t, copdScenario, doc.RawText)
	assert.Equal(t, "A 72-year-old woman presents to the emergency department with worsening shortness of breath.", doc.Summary)
	assert.Equal(t, doc.Summary, doc.Overview.Summary)
	assert.Equal(t, []string{"Recognize signs of respiratory distress", "Prioritize oxygen therapy"}, doc.Overview.Objectives)

	subject := doc.Background.Subject
	assert.Equal(t, models.PassLabeled, subject.ExtractionPass)
	assert.Equal(t, "Margaret Chen", subject.Name)
	assert.Equal(t, []models.Medication{{Name: "Tiotropium", Dosage: "18 mcg inhaled daily"}}, subject.Medications)
	assert.Equal(t, []models.Allergy{{Allergen: "Penicillin", Reaction: "hives"}}, subject.Allergies)

	require.Len(t, doc.Findings.VitalSigns, 3)
	assert.Equal(t, "Heart Rate", doc.Findings.VitalSigns[0].Name)
	require.Len(t, doc.Findings.LabResults, 1)
	assert.True(t, doc.Findings.LabResults[0].IsAbnormal)
	assert.Empty(t, doc.Findings.Sections)

	require.Len(t, doc.CarePlan.Progression, 1)
	assert.Equal(t, models.KindOrderedSteps, doc.CarePlan.Progression[0].Kind)
	assert.Len(t, doc.CarePlan.Progression[0].Items, 2)
	require.Len(t, doc.CarePlan.Documentation, 1)
	assert.Equal(t, models.KindBulletList, doc.CarePlan.Documentation[0].Kind)

	require.Len(t, doc.Instruction.EducationalNotes, 1)
	assert.Equal(t, []string{
		"What findings indicated respiratory distress?",
		"How did you titrate oxygen?",
	}, doc.Instruction.DebriefQuestions)

	require.Len(t, doc.Overview.Sections, 1)
	assert.Equal(t, "Family Communication", doc.Overview.Sections[0].Title)
}

func TestRouteTitleArgumentWins(t *testing.T) {
	doc := Route(copdScenario, "Custom Title")
	assert.Equal(t, "Custom Title", doc.Title)
}

func TestRouteIsIdempotent(t *testing.T) {
	assert.Equal(t, Route(copdScenario, ""), Route(copdScenario, ""))
}

func TestRouteMergesRepeatedLabels(t *testing.T) {
	text := `PATIENT INFORMATION
Name: Ana Silva
Age: 34
Sex: Female

LAB RESULTS
Glucose: 180 mg/dL [70-99]

VITAL SIGNS
HR 96

LABORATORY
Glucose: 95 mg/dL [70-99]
Sodium: 140 mmol/L [135-145]`

	doc := Route(text, "")

	assert.Equal(t, "Ana Silva", doc.Background.Subject.Name)
	require.Len(t, doc.Findings.LabResults, 2)
	assert.Equal(t, "180", doc.Findings.LabResults[0].Value)
	assert.Equal(t, "Sodium", doc.Findings.LabResults[1].Name)
	require.Len(t, doc.Findings.VitalSigns, 1)
}

func TestRouteUnstructuredText(t *testing.T) {
	text := "The patient was found on the floor by a neighbor.\n\nHeart rate 130 bpm and blood pressure 80/50 mmHg on arrival."

	doc := Route(text, "")

	assert.Equal(t, "The patient was found on the floor by a neighbor.", doc.Title)
	assert.Len(t, doc.Findings.Sections, 1)
	assert.Len(t, doc.Overview.Sections, 1)
	assert.Empty(t, doc.Findings.VitalSigns)
	assert.NotNil(t, doc.Findings.VitalSigns)
}

func TestRouteEmptyInput(t *testing.T) {
	doc := Route("", "")

	assert.Equal(t, "", doc.Title)
	assert.Equal(t, "", doc.Summary)
	assert.NotNil(t, doc.Overview.Sections)
	assert.NotNil(t, doc.Instruction.DebriefQuestions)
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "Title Some bold text", Summarize("# Title\n\nSome **bold** text"))

	long := strings.Repeat("word ", 300)
	got := Summarize(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), summaryLength+3)
}

func TestMatchLabel(t *testing.T) {
	tests := []struct {
		heading string
		want    sectionLabel
	}{
		{"Scenario Overview", labelSummary},
		{"Patient Overview", labelSubject},
		{"Learning Objectives", labelObjectives},
		{"Initial Assessment", labelFindings},
		{"Physical Examination", labelFindings},
		{"Expected Nursing Interventions", labelProgression},
		{"Nursing Documentation", labelDocumentation},
		{"Key Learning Points", labelEducation},
		{"Debriefing Questions", labelDebrief},
		{"Family Communication", labelNone},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			got, _ := matchLabel(tt.heading)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSectionHeadingsRouteToTheirLabels(t *testing.T) {
	headings := SectionHeadings()
	labels := SectionLabels()
	require.Len(t, headings, len(labels))

	assert.Equal(t, "Scenario Overview", headings[0])
	for i, h := range headings {
		got, ok := matchLabel(h)
		assert.True(t, ok, h)
		assert.Equal(t, labels[i], string(got), h)
	}
}

func TestFallbackDocument(t *testing.T) {
	params := models.CaseParameters{
		Demographics:    models.Demographics{AgeGroup: "Elderly (71+)", Gender: "Female"},
		ClinicalContext: models.ClinicalContext{Setting: "Emergency Department", Comorbidities: []string{"COPD"}},
		VitalRanges: models.ClinicalRangeSet{
			HeartRate:        models.VitalSignRange{Min: 85, Max: 135},
			RespiratoryRate:  models.VitalSignRange{Min: 24, Max: 34},
			SystolicBP:       models.VitalSignRange{Min: 125, Max: 145},
			DiastolicBP:      models.VitalSignRange{Min: 70, Max: 90},
			Temperature:      models.VitalSignRange{Min: 36.0, Max: 37.0},
			OxygenSaturation: models.VitalSignRange{Min: 82, Max: 88},
			Consciousness:    "Responds to voice, confused",
		},
		DocumentationTypes: []string{"Triage note"},
		Objectives:         []string{"Recognize hypoxemia"},
	}

	doc := FallbackDocument("", params)

	assert.Equal(t, "Simulation Scenario", doc.Title)
	assert.Equal(t, []string{"Recognize hypoxemia"}, doc.Overview.Objectives)
	assert.Equal(t, "Female", doc.Background.Subject.Sex)
	require.Len(t, doc.Findings.VitalSigns, 6)
	assert.Equal(t, "85", doc.Findings.VitalSigns[4].Value)
	assert.True(t, doc.Findings.VitalSigns[4].IsAbnormal)
	assert.Len(t, doc.CarePlan.Documentation, 1)
	assert.Len(t, doc.Instruction.DebriefQuestions, 3)
	assert.NotEmpty(t, doc.RawText)
}

func allSections(doc models.StructuredDocument) []models.DynamicSection {
	var out []models.DynamicSection
	for _, group := range [][]models.DynamicSection{
		doc.Overview.Sections,
		doc.Background.Sections,
		doc.Findings.Sections,
		doc.CarePlan.Progression,
		doc.CarePlan.Documentation,
		doc.CarePlan.Sections,
		doc.Instruction.EducationalNotes,
		doc.Instruction.Sections,
	} {
		out = append(out, group...)
	}
	return out
}

func sectionTitles(doc models.StructuredDocument) []string {
	var titles []string
	for _, s := range allSections(doc) {
		titles = append(titles, s.Title)
	}
	return titles
}

func TestRouteKeepsHeadingWithoutBody(t *testing.T) {
	text := strings.Replace(copdScenario, "## Family Communication", "## Pharmacology Focus\n\n## Family Communication", 1)

	doc := Route(text, "")

	assert.Contains(t, sectionTitles(doc), "Pharmacology Focus")
	assert.Contains(t, sectionTitles(doc), "Family Communication")
	for _, s := range allSections(doc) {
		if s.Title == "Pharmacology Focus" {
			assert.Equal(t, models.KindText, s.Kind)
			assert.Empty(t, s.Text)
		}
	}
}

func TestRouteDoesNotRepeatTitleHeading(t *testing.T) {
	doc := Route("ACUTE ASTHMA\nSCENARIO OVERVIEW\nA child arrives wheezing after soccer practice.", "")

	assert.Equal(t, "ACUTE ASTHMA", doc.Title)
	assert.NotContains(t, sectionTitles(doc), "ACUTE ASTHMA")
}

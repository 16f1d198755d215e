package structuring

import (
	"fmt"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

const fallbackTitle = "Simulation Scenario"

// FallbackDocument synthesizes a minimal but complete scenario from the case
// parameters for use when generation is unavailable. Vital signs sit at the
// midpoint of each target range.
func FallbackDocument(title string, params models.CaseParameters) models.StructuredDocument {
	if strings.TrimSpace(title) == "" {
		title = fallbackTitle
	}
	return Route(renderFallback(title, params), title)
}

func renderFallback(title string, p models.CaseParameters) string {
	var b strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&b, format+"\n", args...)
	}

	condition := firstNonEmpty(p.ClinicalContext.PrimaryCondition, strings.Join(p.ClinicalContext.Comorbidities, ", "), "an acute change in condition")
	setting := firstNonEmpty(p.ClinicalContext.Setting, "a general inpatient unit")

	line("# %s", title)
	line("")
	line("## Scenario Overview")
	line("A %s patient in %s presenting with %s. This scenario was generated offline from the selected case parameters.",
		strings.ToLower(firstNonEmpty(p.Demographics.AgeGroup, "adult")), setting, condition)
	line("")

	line("## Learning Objectives")
	objectives := p.Objectives
	if len(objectives) == 0 {
		objectives = []string{
			"Perform a focused assessment and recognize abnormal findings",
			"Prioritize and implement appropriate interventions",
			"Communicate changes using a structured handoff",
		}
	}
	for _, o := range objectives {
		line("- %s", o)
	}
	line("")

	line("## Patient Information")
	line("Age: %s", firstNonEmpty(p.Demographics.AgeGroup, "Adult"))
	if p.Demographics.Gender != "" {
		line("Sex: %s", p.Demographics.Gender)
	}
	line("Chief Complaint: %s", condition)
	if len(p.ClinicalContext.Comorbidities) > 0 {
		line("Past Medical History: %s", strings.Join(p.ClinicalContext.Comorbidities, ", "))
	}
	line("")

	r := p.VitalRanges
	line("## Initial Presentation")
	line("Heart Rate: %.0f bpm", midpoint(r.HeartRate))
	line("Blood Pressure: %.0f/%.0f mmHg", midpoint(r.SystolicBP), midpoint(r.DiastolicBP))
	line("Respiratory Rate: %.0f breaths/min", midpoint(r.RespiratoryRate))
	line("Temperature: %.1f °C", midpoint(r.Temperature))
	line("SpO2: %.0f%%", midpoint(r.OxygenSaturation))
	if r.Consciousness != "" {
		line("Level of Consciousness: %s", r.Consciousness)
	}
	line("")

	line("## Scenario Progression")
	line("1. Learner completes a primary survey and obtains a full set of vital signs")
	line("2. Learner identifies the deviations from baseline and escalates care")
	line("3. Learner implements and evaluates initial interventions")
	line("")

	if len(p.DocumentationTypes) > 0 {
		line("## Documentation")
		for _, d := range p.DocumentationTypes {
			line("- %s", d)
		}
		line("")
	}

	line("## Debriefing Questions")
	line("1. Which findings concerned you most, and why?")
	line("2. How did you prioritize your interventions?")
	line("3. What would you do differently next time?")

	return b.String()
}

func midpoint(r models.VitalSignRange) float64 {
	return (r.Min + r.Max) / 2
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

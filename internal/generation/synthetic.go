package generation

import "strings"

const (
	SyntheticProvider = "test"
	SyntheticModel    = "synthetic"
)

const syntheticScenario = `# Synthetic Simulation Scenario

## Scenario Overview
A 68-year-old man presents to the emergency department with two days of increasing shortness of breath and a productive cough.

## Learning Objectives
- Recognize early signs of respiratory deterioration
- Apply oxygen therapy safely
- Communicate findings using SBAR

## Patient Information
Name: Thomas Reed
Age: 68
Sex: Male
Chief Complaint: Shortness of breath
Past Medical History: COPD, hypertension
Medications:
- Tiotropium 18 mcg inhaled daily
- Lisinopril 10 mg daily
Allergies: Penicillin (rash)

## Initial Presentation
Vital Signs:
- Heart Rate: 108 bpm
- Blood Pressure: 152/88 mmHg
- Respiratory Rate: 26 breaths/min
- Temperature: 37.9 C
- SpO2: 88% on room air

Laboratory Results:
- WBC: 13.1 x10^9/L [4.0-11.0]
- Glucose: 110 mg/dL [Reference: 70-99 mg/dL]

## Scenario Progression
1. Apply oxygen via nasal cannula titrated to SpO2 88-92%
2. Administer nebulized bronchodilator as ordered
3. Reassess respiratory status after 15 minutes

## Nursing Documentation
- Respiratory assessment
- Medication administration record

## Educational Notes
Patients with COPD may retain carbon dioxide when given high-flow oxygen.

## Debriefing Questions
1. Which findings suggested respiratory deterioration?
2. How did you decide on the oxygen delivery device?
`

// SyntheticText returns the fixed test-mode scenario. A non-empty title
// replaces the scenario heading.
func SyntheticText(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return syntheticScenario
	}
	return strings.Replace(syntheticScenario, "# Synthetic Simulation Scenario", "# "+title, 1)
}

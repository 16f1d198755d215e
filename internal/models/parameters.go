package models

// Question is one questionnaire item shown to the case author
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Category string   `json:"category,omitempty"` // informational only, routing uses Text
	Options  []Option `json:"options"`
}

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ParameterSelection maps question id to the chosen option ids
type ParameterSelection map[string][]string

// VitalSignRange is an inclusive numeric target range
type VitalSignRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ClinicalRangeSet is derived from demographics, severity and comorbidities
type ClinicalRangeSet struct {
	HeartRate        VitalSignRange `json:"heart_rate"`
	RespiratoryRate  VitalSignRange `json:"respiratory_rate"`
	SystolicBP       VitalSignRange `json:"systolic_bp"`
	DiastolicBP      VitalSignRange `json:"diastolic_bp"`
	Temperature      VitalSignRange `json:"temperature"`
	OxygenSaturation VitalSignRange `json:"oxygen_saturation"`
	Consciousness    string         `json:"consciousness"`
}

type Demographics struct {
	AgeGroup string            `json:"age_group,omitempty"`
	Gender   string            `json:"gender,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

type ClinicalContext struct {
	Setting          string            `json:"setting,omitempty"`
	Specialty        string            `json:"specialty,omitempty"`
	PrimaryCondition string            `json:"primary_condition,omitempty"`
	Comorbidities    []string          `json:"comorbidities"`
	Extra            map[string]string `json:"extra,omitempty"`
}

type PresentationComplexity struct {
	Severity      string            `json:"severity,omitempty"`
	Complications []string          `json:"complications"`
	Extra         map[string]string `json:"extra,omitempty"`
}

type EducationalElements struct {
	LearnerLevel string            `json:"learner_level,omitempty"`
	FocusAreas   []string          `json:"focus_areas"`
	DebriefStyle string            `json:"debrief_style,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// CaseParameters is the mapper's output and the prompt builder's input
type CaseParameters struct {
	Demographics       Demographics           `json:"demographics"`
	ClinicalContext    ClinicalContext        `json:"clinical_context"`
	Complexity         PresentationComplexity `json:"presentation_complexity"`
	Educational        EducationalElements    `json:"educational_elements"`
	VitalRanges        ClinicalRangeSet       `json:"vital_ranges"`
	Resources          []string               `json:"resources"`
	DocumentationTypes []string               `json:"documentation_types"`
	Objectives         []string               `json:"objectives"`
}

package ranges

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

func question(id, text string, options ...string) models.Question {
	q := models.Question{ID: id, Text: text}
	for i := 0; i+1 < len(options); i += 2 {
		q.Options = append(q.Options, models.Option{ID: options[i], Label: options[i+1]})
	}
	return q
}

func TestMapSelections(t *testing.T) {
	questions := []models.Question{
		question("q1", "What age group is the patient?", "elderly", "Elderly (71+)", "young", "Young Adult (18-35)"),
		question("q2", "Patient gender", "f", "Female", "m", "Male"),
		question("q3", "Clinical setting", "ed", "Emergency Department"),
		question("q4", "Primary condition", "copd", "COPD Exacerbation"),
		question("q5", "Comorbidities", "htn", "Hypertension", "dm", "Diabetes"),
		question("q6", "Severity of presentation", "severe", "Severe"),
		question("q7", "Learner level", "senior", "Senior nursing students"),
		question("q8", "Which skills should be emphasized?", "airway", "Airway management"),
		question("q9", "Preferred debrief format", "plus-delta", "Plus/Delta"),
		question("q10", "Favorite color of the room?", "blue", "Blue"),
		question("q11", "Any complications?", "none", "None"),
		question("q12", "Learning objectives", "o1", "Titrate oxygen safely"),
	}
	selections := models.ParameterSelection{
		"q1":      {"elderly"},
		"q2":      {"f"},
		"q3":      {"ed"},
		"q4":      {"copd"},
		"q5":      {"htn", "dm"},
		"q6":      {"severe"},
		"q7":      {"senior"},
		"q8":      {"airway", "Suctioning"},
		"q9":      {"plus-delta"},
		"q10":     {"blue"},
		"q12":     {"o1"},
		"unknown": {"ignored"},
	}

	params := MapSelections(questions, selections, []string{" Recognize hypoxemia ", ""})

	assert.Equal(t, "Elderly (71+)", params.Demographics.AgeGroup)
	assert.Equal(t, "Female", params.Demographics.Gender)
	assert.Equal(t, "Emergency Department", params.ClinicalContext.Setting)
	assert.Equal(t, "COPD Exacerbation", params.ClinicalContext.PrimaryCondition)
	assert.Equal(t, []string{"Hypertension", "Diabetes"}, params.ClinicalContext.Comorbidities)
	assert.Equal(t, map[string]string{"q10": "Blue"}, params.ClinicalContext.Extra)
	assert.Equal(t, "Severe", params.Complexity.Severity)
	assert.Empty(t, params.Complexity.Complications)
	assert.NotNil(t, params.Complexity.Complications)
	assert.Equal(t, "Senior nursing students", params.Educational.LearnerLevel)
	assert.Equal(t, []string{"Airway management", "Suctioning"}, params.Educational.FocusAreas)
	assert.Equal(t, "Plus/Delta", params.Educational.DebriefStyle)
	assert.Equal(t, []string{"Recognize hypoxemia", "Titrate oxygen safely"}, params.Objectives)

	vr := params.VitalRanges
	assert.Equal(t, models.VitalSignRange{Min: 85, Max: 135}, vr.HeartRate)
	assert.Equal(t, models.VitalSignRange{Min: 24, Max: 34}, vr.RespiratoryRate)
	assert.Equal(t, models.VitalSignRange{Min: 140, Max: 170}, vr.SystolicBP)
	assert.Equal(t, models.VitalSignRange{Min: 75, Max: 100}, vr.DiastolicBP)
	assert.Equal(t, models.VitalSignRange{Min: 82, Max: 88}, vr.OxygenSaturation)
	assert.Equal(t, "Responds to voice, confused", vr.Consciousness)

	assert.Contains(t, params.DocumentationTypes, "Triage note")
	assert.Contains(t, params.Resources, "Cardiac monitor")
}

func TestMapSelectionsEmpty(t *testing.T) {
	params := MapSelections(nil, nil, nil)

	assert.Equal(t, Baseline(BandMiddleAged), params.VitalRanges)
	assert.NotNil(t, params.Objectives)
	assert.NotNil(t, params.ClinicalContext.Comorbidities)
	assert.NotNil(t, params.Educational.FocusAreas)
	assert.Equal(t, defaultProfile.documentation, params.DocumentationTypes)
}

func TestMapSelectionsKeepsUnknownOptionIDs(t *testing.T) {
	questions := []models.Question{question("q1", "Primary diagnosis")}
	params := MapSelections(questions, models.ParameterSelection{"q1": {"Pneumonia"}}, nil)

	assert.Equal(t, "Pneumonia", params.ClinicalContext.PrimaryCondition)
	assert.InDelta(t, 37.9, params.VitalRanges.Temperature.Min, 0.001)
	assert.InDelta(t, 39.2, params.VitalRanges.Temperature.Max, 0.001)
}

func TestRouteQuestion(t *testing.T) {
	tests := []struct {
		text string
		want group
	}{
		{"What is the patient's age?", groupDemographics},
		{"Target population", groupDemographics},
		{"Care environment", groupClinical},
		{"Relevant medical history", groupClinical},
		{"Level of acuity", groupComplexity},
		{"Scenario complexity", groupComplexity},
		{"Learner experience", groupEducational},
		{"Debriefing approach", groupEducational},
		{"Time of day", groupClinical},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, routeQuestion(tt.text))
		})
	}
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		label string
		want  AgeBand
	}{
		{"Pediatric (0-17)", BandPediatric},
		{"Adolescent", BandPediatric},
		{"Young Adult (18-35)", BandYoungAdult},
		{"Middle-aged (36-64)", BandMiddleAged},
		{"Elderly (71+)", BandElderly},
		{"Older adult", BandElderly},
		{"65-70", BandElderly},
		{"25 years", BandYoungAdult},
		{"10", BandPediatric},
		{"Adult", BandMiddleAged},
		{"", BandMiddleAged},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, BandFor(tt.label))
		})
	}
}

func TestSeverityFor(t *testing.T) {
	assert.Equal(t, SeverityCritical, SeverityFor("Critical / life-threatening"))
	assert.Equal(t, SeverityCritical, SeverityFor("Unstable"))
	assert.Equal(t, SeveritySevere, SeverityFor("Severe"))
	assert.Equal(t, SeverityModerate, SeverityFor("Moderate"))
	assert.Equal(t, SeverityMild, SeverityFor("Stable"))
	assert.Equal(t, SeverityNone, SeverityFor("unspecified"))
}

func TestDeriveRangesElderlySevereCOPD(t *testing.T) {
	set := DeriveRanges("Elderly (71+)", "Severe", []string{"COPD"})

	baseline := Baseline(BandElderly)
	assert.Less(t, set.OxygenSaturation.Max, baseline.OxygenSaturation.Max)
	assert.GreaterOrEqual(t, set.OxygenSaturation.Min, float64(saturationFloor))
}

func TestDeriveRangesAppliesEachComorbidityOnce(t *testing.T) {
	set := DeriveRanges("", "", []string{"Hypertension", "HTN"})
	assert.Equal(t, models.VitalSignRange{Min: 130, Max: 160}, set.SystolicBP)

	set = DeriveRanges("", "", []string{"Heart failure", "Sepsis"})
	assert.Equal(t, models.VitalSignRange{Min: 80, Max: 125}, set.HeartRate)
}

func TestDeriveRangesInvariants(t *testing.T) {
	ages := []string{"Pediatric", "Young adult", "Middle-aged", "Elderly"}
	severities := []string{"", "Mild", "Moderate", "Severe", "Critical"}
	conditions := [][]string{nil, {"COPD"}, {"COPD", "Heart failure", "Sepsis", "Hypertension"}}

	for _, age := range ages {
		for _, severity := range severities {
			for _, cond := range conditions {
				set := DeriveRanges(age, severity, cond)
				for name, v := range map[string]models.VitalSignRange{
					"hr": set.HeartRate, "rr": set.RespiratoryRate, "sbp": set.SystolicBP,
					"dbp": set.DiastolicBP, "temp": set.Temperature, "spo2": set.OxygenSaturation,
				} {
					assert.LessOrEqual(t, v.Min, v.Max, "%s %s %v %s", age, severity, cond, name)
				}
				assert.GreaterOrEqual(t, set.OxygenSaturation.Min, float64(saturationFloor))
				assert.LessOrEqual(t, set.OxygenSaturation.Max, float64(saturationCeiling))
				assert.NotEmpty(t, set.Consciousness)
			}
		}
	}
}

func TestClampBounds(t *testing.T) {
	got := clamp(models.VitalSignRange{Min: 60, Max: 104}, saturationFloor, saturationCeiling)
	assert.Equal(t, models.VitalSignRange{Min: 70, Max: 100}, got)
}

func TestProfileFor(t *testing.T) {
	tests := []struct {
		setting string
		want    string
	}{
		{"Medical ICU", "icu"},
		{"Emergency Department", "emergency"},
		{"Pediatric Unit", "pediatric"},
		{"Medical-Surgical Floor", "medical_surgical"},
		{"Outpatient Clinic", "outpatient"},
		{"Home Health", "home_health"},
		{"Somewhere else", "general"},
	}

	profiles := map[string]settingProfile{defaultProfile.name: defaultProfile}
	for _, p := range settingProfiles {
		profiles[p.name] = p
	}

	for _, tt := range tests {
		t.Run(tt.setting, func(t *testing.T) {
			resources, docs := ProfileFor(tt.setting)
			require.Contains(t, profiles, tt.want)
			assert.Equal(t, profiles[tt.want].resources, resources)
			assert.Equal(t, profiles[tt.want].documentation, docs)
		})
	}
}

func TestProfileForReturnsCopies(t *testing.T) {
	resources, _ := ProfileFor("ICU")
	resources[0] = "changed"

	again, _ := ProfileFor("ICU")
	assert.NotEqual(t, "changed", again[0])
}

package structuring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
)

func TestIsLikelyAbnormal(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Tachycardic and diaphoretic", true},
		{"Elevated troponin", true},
		{"Crackles in both bases", true},
		{"Lungs clear bilaterally", false},
		{"Within normal limits", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLikelyAbnormal(tt.text))
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.Category
	}{
		{"empty text is overview", "", models.CategoryOverview},
		{"instruction vocabulary", "Learning objectives for the student", models.CategoryInstruction},
		{"care plan vocabulary", "Administer oxygen and monitor closely", models.CategoryCarePlan},
		{"background vocabulary", "Past medical history includes hypertension", models.CategoryBackground},
		{"findings vocabulary", "Heart rate 120 bpm, blood pressure 90/60 mmHg", models.CategoryFindings},
		{"no vocabulary", "The scenario takes place in a rural clinic", models.CategoryOverview},
		// instruction is checked first, so clinical assessment text lands there
		{"assessment wins by priority", "Initial assessment reveals heart rate 130", models.CategoryInstruction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []string{"", " ", "???", "1234", "ñandú", "\n\n\t", "HR 88 debrief plan", "lorem ipsum dolor"}
	for _, in := range inputs {
		got := Classify(in)
		assert.Contains(t, models.Categories, got, "input %q", in)
	}
}

func TestClassifyDetailed(t *testing.T) {
	got := ClassifyDetailed("Debrief with the learners after the simulation")
	assert.Equal(t, models.CategoryInstruction, got.Category)
	assert.Equal(t, 3, got.Score)
	assert.ElementsMatch(t, []string{"debrief", "learner"}, got.Matched)

	overview := ClassifyDetailed("Nothing to see here")
	assert.Equal(t, models.CategoryOverview, overview.Category)
	assert.Equal(t, 0, overview.Score)
	assert.NotNil(t, overview.Matched)
}

package prompt

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/internal/models"
	"github.com/Conceptual-Machines/simcase-api/internal/structuring"
)

const defaultCaseTitle = "Simulation Scenario"

// Builder builds prompts for scenario generation
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{loader: NewPromptLoader()}
}

// BuildSystemPrompt combines the author instructions with the output format.
// The headings are the ones the document router recognizes.
func (b *Builder) BuildSystemPrompt() (string, error) {
	system, err := b.loader.GetSystemPrompt()
	if err != nil {
		return "", fmt.Errorf("failed to load system prompt: %w", err)
	}
	format, err := b.loader.GetOutputFormatInstructions(structuring.SectionHeadings())
	if err != nil {
		return "", fmt.Errorf("failed to load output format: %w", err)
	}
	return system + "\n\n" + format, nil
}

// BuildCasePrompt renders the case parameters as the user prompt
func (b *Builder) BuildCasePrompt(title string, p models.CaseParameters) string {
	if strings.TrimSpace(title) == "" {
		title = defaultCaseTitle
	}

	var sb strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}
	field := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			line("- %s: %s", label, value)
		}
	}
	list := func(label string, values []string) {
		if len(values) > 0 {
			line("- %s: %s", label, strings.Join(values, ", "))
		}
	}

	line("Write a simulation scenario titled %q.", title)
	line("")

	line("PATIENT:")
	field("Age group", p.Demographics.AgeGroup)
	field("Gender", p.Demographics.Gender)
	writeExtra(line, p.Demographics.Extra)
	line("")

	line("CLINICAL CONTEXT:")
	field("Setting", p.ClinicalContext.Setting)
	field("Specialty", p.ClinicalContext.Specialty)
	field("Primary condition", p.ClinicalContext.PrimaryCondition)
	list("Comorbidities", p.ClinicalContext.Comorbidities)
	field("Severity", p.Complexity.Severity)
	list("Complications", p.Complexity.Complications)
	writeExtra(line, p.ClinicalContext.Extra)
	writeExtra(line, p.Complexity.Extra)
	line("")

	r := p.VitalRanges
	line("TARGET VITAL SIGN RANGES (initial presentation must fall inside these):")
	line("- Heart Rate: %s bpm", formatRange(r.HeartRate, 0))
	line("- Blood Pressure: %s/%s mmHg", formatRange(r.SystolicBP, 0), formatRange(r.DiastolicBP, 0))
	line("- Respiratory Rate: %s breaths/min", formatRange(r.RespiratoryRate, 0))
	line("- Temperature: %s °C", formatRange(r.Temperature, 1))
	line("- SpO2: %s%%", formatRange(r.OxygenSaturation, 0))
	field("Level of consciousness", r.Consciousness)
	line("")

	if len(p.Resources) > 0 || len(p.DocumentationTypes) > 0 {
		line("ENVIRONMENT:")
		list("Available resources", p.Resources)
		list("Documentation to include", p.DocumentationTypes)
		line("")
	}

	line("EDUCATION:")
	field("Learner level", p.Educational.LearnerLevel)
	list("Focus areas", p.Educational.FocusAreas)
	field("Debrief style", p.Educational.DebriefStyle)
	writeExtra(line, p.Educational.Extra)
	if len(p.Objectives) > 0 {
		line("Learning objectives:")
		for _, o := range p.Objectives {
			line("- %s", o)
		}
	}

	return strings.TrimSpace(sb.String())
}

func writeExtra(line func(string, ...interface{}), extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line("- %s: %s", k, extra[k])
	}
}

func formatRange(r models.VitalSignRange, precision int) string {
	return strconv.FormatFloat(r.Min, 'f', precision, 64) + "-" + strconv.FormatFloat(r.Max, 'f', precision, 64)
}

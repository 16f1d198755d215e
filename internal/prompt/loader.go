package prompt

import (
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/simcase-api/pkg/embedded"
)

const headingsPlaceholder = "{{HEADINGS}}"

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the scenario author system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetOutputFormatInstructions loads output format instructions with the
// section headings filled in as a numbered list
func (l *Loader) GetOutputFormatInstructions(headings []string) (string, error) {
	var b strings.Builder
	for i, h := range headings {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(strconv.Itoa(i+1) + ". " + h)
	}
	raw := strings.TrimSpace(string(embedded.OutputFormatTxt))
	return strings.Replace(raw, headingsPlaceholder, b.String(), 1), nil
}

package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetSystemPrompt()

	if err != nil {
		t.Fatalf("GetSystemPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetSystemPrompt() returned empty string")
	}

	if !strings.Contains(content, "clinical simulation scenario author") {
		t.Error("GetSystemPrompt() does not contain expected content")
	}

	if strings.HasPrefix(content, "\n") || strings.HasSuffix(content, "\n") {
		t.Error("GetSystemPrompt() is not trimmed")
	}
}

func TestGetOutputFormatInstructions(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetOutputFormatInstructions([]string{"Scenario Overview", "Debriefing Questions"})

	if err != nil {
		t.Fatalf("GetOutputFormatInstructions() returned error: %v", err)
	}

	if !strings.Contains(content, "OUTPUT FORMAT") {
		t.Error("GetOutputFormatInstructions() does not contain expected content")
	}

	if !strings.Contains(content, "1. Scenario Overview\n2. Debriefing Questions") {
		t.Errorf("GetOutputFormatInstructions() did not number the headings:\n%s", content)
	}

	if strings.Contains(content, headingsPlaceholder) {
		t.Error("GetOutputFormatInstructions() left the placeholder in place")
	}
}

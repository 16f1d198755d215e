package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiProvider_Name(t *testing.T) {
	provider := &GeminiProvider{client: nil}
	assert.Equal(t, "gemini", provider.Name())
}

func TestBuildGeminiConfig(t *testing.T) {
	config := buildGeminiConfig(&GenerationRequest{
		SystemPrompt:    "system",
		Temperature:     0.5,
		MaxOutputTokens: 2048,
	})

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "system", config.SystemInstruction.Parts[0].Text)
	require.NotNil(t, config.Temperature)
	assert.InDelta(t, 0.5, *config.Temperature, 0.0001)
	assert.Equal(t, int32(2048), config.MaxOutputTokens)

	empty := buildGeminiConfig(&GenerationRequest{})
	assert.Nil(t, empty.SystemInstruction)
	assert.Nil(t, empty.Temperature)
}

func TestBuildGeminiContents(t *testing.T) {
	contents := buildGeminiContents(&GenerationRequest{Prompt: "write a scenario"})

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "write a scenario", contents[0].Parts[0].Text)
}

func TestExtractGeminiText(t *testing.T) {
	tests := []struct {
		name   string
		result *genai.GenerateContentResponse
		want   string
	}{
		{name: "nil result", result: nil, want: ""},
		{name: "no candidates", result: &genai.GenerateContentResponse{}, want: ""},
		{
			name: "nil content",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{}},
			},
			want: "",
		},
		{
			name: "joins parts",
			result: &genai.GenerateContentResponse{
				Candidates: []*genai.Candidate{{
					Content: &genai.Content{Parts: []*genai.Part{{Text: "## Scenario "}, {Text: "Overview"}}},
				}},
			},
			want: "## Scenario Overview",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractGeminiText(tt.result))
		})
	}
}

func TestWrapGeminiError(t *testing.T) {
	err := wrapGeminiError(genai.APIError{Code: 503, Message: "model overloaded"})

	code, ok := StatusCode(err)
	assert.True(t, ok)
	assert.Equal(t, 503, code)

	plain := wrapGeminiError(errors.New("tls handshake timeout"))
	_, ok = StatusCode(plain)
	assert.False(t, ok)
}

func TestNewGeminiProvider(t *testing.T) {
	provider, err := NewGeminiProvider(context.Background(), "test-key", "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Equal(t, "gemini", provider.Name())
	assert.Equal(t, "gemini-2.5-flash", provider.model)
}

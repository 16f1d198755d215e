package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conceptual-Machines/simcase-api/internal/generation"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "REDIS_ADDR", "OPENAI_API_KEY", "GEMINI_API_KEY", "SENTRY_DSN", "LANGFUSE_ENABLED"} {
		t.Setenv(key, "")
	}
	t.Setenv("ENVIRONMENT", "test")
}

func TestStructureFromStdin(t *testing.T) {
	out, err := run(t, generation.SyntheticText("Chest Pain"), "structure", "--title", "Chest Pain")
	require.NoError(t, err)

	var got struct {
		Document map[string]interface{} `json:"document"`
		Digest   string                 `json:"digest"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Chest Pain", got.Document["title"])
	assert.Len(t, got.Digest, 64)
}

func TestStructureFromFileMatchesStdin(t *testing.T) {
	text := generation.SyntheticText("Asthma")
	path := filepath.Join(t.TempDir(), "case.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	fromFile, err := run(t, "", "structure", path)
	require.NoError(t, err)
	fromStdin, err := run(t, text, "structure")
	require.NoError(t, err)

	assert.JSONEq(t, fromStdin, fromFile)
}

func TestStructureMissingFile(t *testing.T) {
	_, err := run(t, "", "structure", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"args", "", []string{"classify", "Administer", "oxygen", "and", "monitor", "closely"}, "care_plan"},
		{"stdin", "Past medical history includes hypertension", []string{"classify"}, "background"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, tt.stdin, tt.args...)
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &got))
			assert.Equal(t, tt.want, got["category"])
		})
	}
}

func TestRanges(t *testing.T) {
	input := `{
		"questions": [{"id": "age", "text": "Patient age group", "options": [{"id": "kid", "label": "Pediatric (0-17)"}]}],
		"selections": {"age": ["kid"]}
	}`
	out, err := run(t, input, "ranges")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "vital_ranges")
}

func TestRangesRejectsInvalidJSON(t *testing.T) {
	_, err := run(t, "{not json", "ranges")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON input")
}

func TestCaseInTestMode(t *testing.T) {
	isolateEnv(t)

	out, err := run(t, `{"title": "Sepsis", "objectives": ["Recognise sepsis early"]}`, "case", "--test-mode", "--title", "Septic Shock")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, generation.SyntheticProvider, got["provider"])
	assert.Equal(t, false, got["degraded"])
	assert.Equal(t, "Septic Shock", got["document"].(map[string]interface{})["title"])
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "", "migrate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePromptsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPromptsSections(t *testing.T) {
	path := writePromptsFile(t, `
lecture-notes:
  instruction: Convert my handwritten notes to clean markdown.
  topic: linear algebra
receipts:
  instruction: Transcribe every line item.
`)

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)

	notes, err := prompts.Section("lecture-notes")
	require.NoError(t, err)
	assert.Equal(t, "linear algebra", notes.Topic)
	assert.Contains(t, notes.Prompt(), "For context, the topic is: linear algebra.")
	assert.Contains(t, notes.Prompt(), "Convert my handwritten notes")

	receipts, err := prompts.Section("receipts")
	require.NoError(t, err)
	assert.Equal(t, "Transcribe every line item.", receipts.Prompt())
}

func TestLoadPromptsUnknownSection(t *testing.T) {
	path := writePromptsFile(t, `
a:
  instruction: one
b:
  instruction: two
`)

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)

	_, err = prompts.Section("c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"c" not found`)
	assert.Contains(t, err.Error(), "[a b]")
}

func TestLoadPromptsMissingInstruction(t *testing.T) {
	path := writePromptsFile(t, `
empty:
  topic: something
`)

	prompts, err := LoadPrompts(path)
	require.NoError(t, err)

	_, err = prompts.Section("empty")
	assert.ErrorContains(t, err, "no instruction")
}

func TestLoadPromptsMissingFile(t *testing.T) {
	_, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadPromptsBadYAML(t *testing.T) {
	path := writePromptsFile(t, "::: not yaml :::")
	_, err := LoadPrompts(path)
	assert.Error(t, err)
}

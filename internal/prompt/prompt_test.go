package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromptWithoutTopic(t *testing.T) {
	p := ImageToTextPrompt{Instruction: "Transcribe the page."}
	assert.Equal(t, "Transcribe the page.", p.Prompt())
}

func TestPromptWithTopic(t *testing.T) {
	p := ImageToTextPrompt{
		Instruction: "Transcribe the page.",
		Topic:       "anatomy and physiology",
	}
	assert.Equal(t,
		"For context, the topic is: anatomy and physiology.\n\nTranscribe the page.",
		p.Prompt())
}

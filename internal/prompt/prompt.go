// Package prompt defines the prompt contract shared by all reading backends.
package prompt

import "fmt"

// Promptable provides the instruction text sent to an image-to-text model.
type Promptable interface {
	Prompt() string
}

// ImageToTextPrompt composes a conversion instruction with optional topic
// context. The topic, when present, is prepended so the model knows the
// domain of the handwriting before the instruction itself.
type ImageToTextPrompt struct {
	Instruction string `yaml:"instruction" json:"instruction"`
	Topic       string `yaml:"topic,omitempty" json:"topic,omitempty"`
}

func (p ImageToTextPrompt) Prompt() string {
	if p.Topic == "" {
		return p.Instruction
	}
	return fmt.Sprintf("For context, the topic is: %s.\n\n%s", p.Topic, p.Instruction)
}

package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/papyrusai/papyrus/internal/prompt"
)

// PromptsFile maps a section name to the prompt used for a conversion run.
// The file is plain YAML:
//
//	lecture-notes:
//	  instruction: Convert my handwritten notes to clean markdown.
//	  topic: linear algebra
type PromptsFile map[string]prompt.ImageToTextPrompt

// LoadPrompts reads and parses a YAML prompts file.
func LoadPrompts(path string) (PromptsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts file %q: %w", path, err)
	}

	var prompts PromptsFile
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("parse prompts file %q: %w", path, err)
	}
	return prompts, nil
}

// Section returns the named prompt, with an error that lists the available
// sections when the name is unknown.
func (f PromptsFile) Section(name string) (prompt.ImageToTextPrompt, error) {
	p, ok := f[name]
	if !ok {
		names := make([]string, 0, len(f))
		for n := range f {
			names = append(names, n)
		}
		sort.Strings(names)
		return prompt.ImageToTextPrompt{}, fmt.Errorf("prompt section %q not found, available: %v", name, names)
	}
	if p.Instruction == "" {
		return prompt.ImageToTextPrompt{}, fmt.Errorf("prompt section %q has no instruction", name)
	}
	return p, nil
}

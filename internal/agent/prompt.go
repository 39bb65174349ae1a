package agent

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
)

//go:embed prompt.md
var defaultPrompt string

// LoadSystemPrompt reads the prompt at path, or the built-in one when path is
// empty. The base id is appended so the model can fill baseId arguments.
func LoadSystemPrompt(path, baseID string) (string, error) {
	prompt := defaultPrompt

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read system prompt: %w", err)
		}
		prompt = string(data)
	}

	prompt = strings.TrimSpace(prompt)
	if baseID != "" {
		prompt += "\n\nBase ID: " + baseID
	}

	return prompt, nil
}

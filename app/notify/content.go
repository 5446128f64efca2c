package notify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadContent reads reminder text from a YAML file. Missing fields keep
// their defaults; an empty path returns DefaultContent.
func LoadContent(path string) (Content, error) {
	content := DefaultContent
	if path == "" {
		return content, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("failed to read file: %w", err)
	}

	var raw struct {
		Title *string `yaml:"title"`
		Body  *string `yaml:"body"`
		Sound *bool   `yaml:"sound"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Content{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if raw.Title != nil {
		content.Title = *raw.Title
	}
	if raw.Body != nil {
		content.Body = *raw.Body
	}
	if raw.Sound != nil {
		content.Sound = *raw.Sound
	}

	if content.Title == "" && content.Body == "" {
		return Content{}, fmt.Errorf("reminder title and body cannot both be empty")
	}

	return content, nil
}

package promptstore

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const yamlLogPrefix = "promptstore:yaml"

// promptsFile is the on-disk YAML layout.
type promptsFile struct {
	Prompts []Prompt `yaml:"prompts"`
}

// YAMLStore serves prompts from a YAML file read once at construction. The
// store is immutable afterwards; edits require a restart.
type YAMLStore struct {
	static *StaticStore
}

// LoadYAMLStore reads and validates the prompts file.
func LoadYAMLStore(path string) (*YAMLStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to read %s: %w", yamlLogPrefix, path, err)
	}

	var file promptsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s - failed to parse %s: %w", yamlLogPrefix, path, err)
	}

	seen := make(map[string]bool, len(file.Prompts))
	for _, p := range file.Prompts {
		if p.ID == "" {
			return nil, fmt.Errorf("%s - prompt without id in %s", yamlLogPrefix, path)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%s - duplicate prompt id %q in %s", yamlLogPrefix, p.ID, path)
		}
		seen[p.ID] = true
	}

	return &YAMLStore{static: NewStaticStore(file.Prompts)}, nil
}

// ListPrompts returns all prompts in file order.
func (s *YAMLStore) ListPrompts(ctx context.Context) ([]Prompt, error) {
	return s.static.ListPrompts(ctx)
}

// GetPrompt returns the prompt with the given id.
func (s *YAMLStore) GetPrompt(ctx context.Context, id string) (*Prompt, error) {
	return s.static.GetPrompt(ctx, id)
}

// Package promptstore provides the prompt-template collaborator: a YAML file
// store for single-node deployments and a Postgres store for centrally
// managed prompts, behind one interface.
package promptstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a prompt id is absent from the store.
var ErrNotFound = errors.New("prompt not found")

// Prompt is a stored prompt descriptor.
type Prompt struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Template    string `json:"template" yaml:"template"`
}

// Store is the prompt-template collaborator interface.
type Store interface {
	ListPrompts(ctx context.Context) ([]Prompt, error)
	GetPrompt(ctx context.Context, id string) (*Prompt, error)
}

// StaticStore is an in-memory Store for tests and embedded defaults.
type StaticStore struct {
	prompts []Prompt
	byID    map[string]Prompt
}

// NewStaticStore creates a StaticStore over the given prompts.
func NewStaticStore(prompts []Prompt) *StaticStore {
	byID := make(map[string]Prompt, len(prompts))
	for _, p := range prompts {
		byID[p.ID] = p
	}
	return &StaticStore{prompts: prompts, byID: byID}
}

// ListPrompts returns all prompts in insertion order.
func (s *StaticStore) ListPrompts(_ context.Context) ([]Prompt, error) {
	out := make([]Prompt, len(s.prompts))
	copy(out, s.prompts)
	return out, nil
}

// GetPrompt returns the prompt with the given id.
func (s *StaticStore) GetPrompt(_ context.Context, id string) (*Prompt, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

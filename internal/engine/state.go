package engine

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// resumeState is written next to the part files so an interrupted download
// can pick up where it stopped.
type resumeState struct {
	URL    string  `yaml:"url"`
	Size   int64   `yaml:"size"`
	Range  bool    `yaml:"range"`
	Chunks []int64 `yaml:"chunks"`
}

func (s *resumeState) matches(other *resumeState) bool {
	return s.URL == other.URL && s.Size == other.Size && s.Range == other.Range && slices.Equal(s.Chunks, other.Chunks)
}

// loadState returns nil, nil when there is no state file.
func loadState(path string) (*resumeState, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading resume state: %w", err)
	}
	var state resumeState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("error parsing resume state: %w", err)
	}
	return &state, nil
}

func saveState(path string, state *resumeState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

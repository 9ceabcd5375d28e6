package backlog

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// ImportDocument is the root of a parsed stories file. It is parsed once
// and read-only afterwards. Unknown JSON fields are ignored, not rejected.
type ImportDocument struct {
	Epics []EpicSpec `json:"epics"`
}

// EpicSpec describes one epic to import together with its child stories.
type EpicSpec struct {
	Summary     string      `json:"summary"`
	Description string      `json:"description"`
	Stories     []StorySpec `json:"stories"`
}

// StorySpec describes one story. A story belongs to exactly one epic.
type StorySpec struct {
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// LoadDocument reads and parses a stories JSON file.
func LoadDocument(fs afero.Fs, path string) (*ImportDocument, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading stories file: %w", err)
	}
	var doc ImportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing stories file %s: %w", path, err)
	}
	return &doc, nil
}

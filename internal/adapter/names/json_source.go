package names

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSONSource reads the medicine name catalog from a flat JSON file of the
// form {"names": [...], "total_count": n}.
type JSONSource struct {
	path string
}

func NewJSONSource(path string) *JSONSource {
	return &JSONSource{path: path}
}

type catalogFile struct {
	Names      []string `json:"names"`
	TotalCount int      `json:"total_count"`
}

// Load reads and parses the catalog file.
func (s *JSONSource) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read name catalog %s: %w", s.path, err)
	}

	var catalog catalogFile
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse name catalog %s: %w", s.path, err)
	}

	return catalog.Names, nil
}

package referenceframe

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// ErrNoTreeInformation is used when a tree file is empty.
var ErrNoTreeInformation = errors.New("no tree information")

// TreeConfigJSON represents all supported fields in a segment tree JSON file.
type TreeConfigJSON struct {
	Name     string          `json:"name"`
	Segments []SegmentConfig `json:"segments"`
}

// UnmarshalTreeJSON parses JSON data into a Tree. treeName overrides the name from the JSON unless empty.
func UnmarshalTreeJSON(jsonData []byte, treeName string) (*Tree, error) {
	if len(jsonData) == 0 {
		return nil, ErrNoTreeInformation
	}
	cfg := &TreeConfigJSON{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	if treeName == "" {
		treeName = cfg.Name
	}
	return NewTree(treeName, cfg.Segments)
}

// ParseTreeJSONFile will read a given file and then parse the contained JSON data.
func ParseTreeJSONFile(filename, treeName string) (*Tree, error) {
	//nolint:gosec
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalTreeJSON(jsonData, treeName)
}

package reaction

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Decode reads a JSON array of reactions and validates each one.
func Decode(r io.Reader) ([]*Reaction, error) {
	var rxns []*Reaction
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rxns); err != nil {
		return nil, fmt.Errorf("failed to parse reactions JSON: %w", err)
	}
	seen := make(map[string]bool, len(rxns))
	for i, rxn := range rxns {
		if rxn.Name == "" {
			return nil, fmt.Errorf("%w: reaction %d has no name", ErrInvalidStep, i)
		}
		if seen[rxn.Name] {
			return nil, fmt.Errorf("%w: duplicate reaction name %q", ErrInvalidStep, rxn.Name)
		}
		seen[rxn.Name] = true
		if err := rxn.Validate(); err != nil {
			return nil, err
		}
	}
	return rxns, nil
}

// Load reads reactions from a JSON file.
func Load(path string) ([]*Reaction, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open reactions file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

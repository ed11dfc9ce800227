package reserved

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/nameward/pkg/types"
)

// seedFile is the YAML layout of a reserved-word seed file:
//
//	entries:
//	  - word: uniswap
//	    kind: exact
//	    tier: high
//	    category: brand
type seedFile struct {
	Entries []types.ReservedWord `yaml:"entries"`
}

// ParseFile decodes reserved entries from YAML.
func ParseFile(data []byte) ([]types.ReservedWord, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing reserved file: %w", err)
	}
	for i := range f.Entries {
		f.Entries[i].Word = types.Normalize(f.Entries[i].Word)
		if f.Entries[i].Kind == "" {
			f.Entries[i].Kind = types.MatchExact
		}
	}
	return f.Entries, nil
}

// LoadFile reads path and inserts its entries into r. A missing file is not
// an error. Entries already present are skipped so that reloading a seed
// file is idempotent.
func (r *Registry) LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading reserved file: %w", err)
	}
	entries, err := ParseFile(data)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, e := range entries {
		if err := r.put(e); err != nil {
			if errors.Is(err, types.ErrReservedDuplicate) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

// WriteFile writes every entry of r to path as YAML.
func (r *Registry) WriteFile(path string) error {
	data, err := yaml.Marshal(seedFile{Entries: r.All()})
	if err != nil {
		return fmt.Errorf("encoding reserved file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

package script

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DirSource discovers scripts by scanning a single directory,
// non-recursively, for files named <digits>_<name>.sql.
type DirSource struct {
	Dir string
}

// Catalog scans the directory and returns descriptors sorted ascending by
// version. Entries that don't match the naming convention are skipped.
func (s DirSource) Catalog() ([]Descriptor, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts directory %q: %w", s.Dir, err)
	}

	var catalog []Descriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, ok := ParseFilename(entry.Name())
		if !ok {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		catalog = append(catalog, Descriptor{
			Version: version,
			Name:    name,
			Path:    path,
			load:    loadFile(path),
		})
	}

	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].Version < catalog[j].Version
	})
	return catalog, nil
}

func loadFile(path string) func() (*Body, error) {
	return func() (*Body, error) {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read script %q: %w", path, err)
		}
		return bodyFromSections(path, ParseSQLSections(string(src))), nil
	}
}

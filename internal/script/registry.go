package script

import "sort"

// Registered is one in-process script: a version, a name, and its body.
// Used when scripts are compiled into the binary instead of read from disk,
// and for exercising the runner in tests.
type Registered struct {
	Version int64
	Name    string
	Body    *Body
}

// ListSource serves a pre-built ordered list of registered scripts.
type ListSource struct {
	scripts []Registered
}

// NewListSource returns a source over the given scripts.
func NewListSource(scripts ...Registered) *ListSource {
	return &ListSource{scripts: scripts}
}

// Add registers another script.
func (s *ListSource) Add(version int64, name string, body *Body) {
	s.scripts = append(s.scripts, Registered{Version: version, Name: name, Body: body})
}

// Catalog returns descriptors sorted ascending by version.
func (s *ListSource) Catalog() ([]Descriptor, error) {
	catalog := make([]Descriptor, 0, len(s.scripts))
	for _, reg := range s.scripts {
		body := reg.Body
		catalog = append(catalog, Descriptor{
			Version: reg.Version,
			Name:    reg.Name,
			load: func() (*Body, error) {
				return body, nil
			},
		})
	}

	sort.Slice(catalog, func(i, j int) bool {
		return catalog[i].Version < catalog[j].Version
	})
	return catalog, nil
}

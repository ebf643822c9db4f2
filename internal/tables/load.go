package tables

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Default returns the embedded default table set. It panics on failure
// because a broken embedded document is a build defect, not a runtime
// condition.
func Default() *Set {
	s, err := Parse(defaultsYAML)
	if err != nil {
		panic(err)
	}
	return s
}

// LoadFile reads and validates a table set from a YAML document. An empty
// path returns the embedded defaults. Failure here is fatal to callers: no
// assessments can run without a valid table set.
func LoadFile(path string) (*Set, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tables: read %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "tables: load %s", path)
	}
	return s, nil
}

// Parse decodes, normalizes, and validates a table document.
func Parse(data []byte) (*Set, error) {
	var s Set
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrap(err, "tables: unmarshal")
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

package plan

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/samdwyer/cavern/data"
)

// EmbeddedFile is the plan file shipped with the binary.
const EmbeddedFile = "plans.yaml"

type document struct {
	Plans []Plan `yaml:"plans"`
}

// Parse decodes and validates a plan document. name is only used in errors.
func Parse(content []byte, name string) ([]Plan, error) {
	var doc document
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML from %s: %w", name, err)
	}
	if len(doc.Plans) == 0 {
		return nil, fmt.Errorf("no plans in %s", name)
	}

	seen := make(map[string]bool, len(doc.Plans))
	for i := range doc.Plans {
		p := &doc.Plans[i]
		if p.Kind == "" {
			p.Kind = KindStamps
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%s: %w: duplicate id %q", name, ErrInvalidPlan, p.ID)
		}
		seen[p.ID] = true
	}
	return doc.Plans, nil
}

// Load reads the embedded plan file.
func Load() (*Registry, error) {
	content, err := data.FS().ReadFile(EmbeddedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded file %s: %w", EmbeddedFile, err)
	}
	plans, err := Parse(content, EmbeddedFile)
	if err != nil {
		return nil, err
	}
	return NewRegistry(plans), nil
}

// MustLoad reads the embedded plan file, panicking on error.
func MustLoad() *Registry {
	r, err := Load()
	if err != nil {
		panic(err)
	}
	return r
}

// LoadFile reads a plan file from disk.
func LoadFile(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("plan file %s: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	plans, err := Parse(content, path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(plans), nil
}

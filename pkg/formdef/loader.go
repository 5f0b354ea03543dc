package formdef

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a form definition from a YAML file.
func Load(path string) (*FormDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read form definition: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates a form definition from YAML bytes.
func Parse(data []byte) (*FormDefinition, error) {
	var def FormDefinition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse form definition: %w", err)
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &def, nil
}

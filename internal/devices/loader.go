package devices

import (
	"fmt"
	"os"

	"github.com/KevinKickass/OpenStompCore/internal/types"
	"gopkg.in/yaml.v3"
)

// SetupLoader reads and validates setup files.
type SetupLoader struct {
	validator *Validator
}

func NewSetupLoader() (*SetupLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &SetupLoader{validator: validator}, nil
}

// Load reads a YAML setup file.
func (l *SetupLoader) Load(path string) (*types.Setup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read setup: %w", err)
	}

	return l.Parse(data)
}

// Parse decodes and validates a YAML setup document.
func (l *SetupLoader) Parse(data []byte) (*types.Setup, error) {
	var setup types.Setup
	if err := yaml.Unmarshal(data, &setup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal setup: %w", err)
	}

	if err := l.validator.ValidateSetup(&setup); err != nil {
		return nil, err
	}

	return &setup, nil
}

// Package config loads razorgen project settings from YAML or TOML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Validator defines an interface that configuration types can implement
// to provide custom validation logic
type Validator interface {
	Validate() error
}

// LoadYAML loads any YAML configuration into the provided target struct.
// The target must be a pointer to the struct you want to unmarshal into.
// Fields absent from the file keep the values target already holds.
// If the target implements the Validator interface, validation will be called.
func LoadYAML[T any](path string, target *T) error {
	data, err := readConfigFile(path)
	if err != nil {
		return err
	}
	return LoadYAMLFromString(string(data), target)
}

// LoadYAMLFromString loads YAML configuration from a string instead of a file.
func LoadYAMLFromString[T any](yamlContent string, target *T) error {
	if err := yaml.Unmarshal([]byte(yamlContent), target); err != nil {
		return fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return validate(target)
}

// LoadTOML is the TOML counterpart of LoadYAML.
func LoadTOML[T any](path string, target *T) error {
	data, err := readConfigFile(path)
	if err != nil {
		return err
	}
	return LoadTOMLFromString(string(data), target)
}

func LoadTOMLFromString[T any](tomlContent string, target *T) error {
	md, err := toml.Decode(tomlContent, target)
	if err != nil {
		return fmt.Errorf("failed to parse TOML configuration: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown TOML configuration keys: %v", undecoded)
	}
	return validate(target)
}

// LoadFile picks the decoder from the file extension: .yaml, .yml or .toml.
func LoadFile[T any](path string, target *T) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path, target)
	case ".toml":
		return LoadTOML(path, target)
	default:
		return fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
}

func readConfigFile(path string) ([]byte, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %q: %w", path, err)
	}

	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file does not exist: %s", absPath)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", absPath, err)
	}
	return data, nil
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProfile reads a YAML verification profile. Fields missing from the
// file keep their default values.
func LoadProfile(filePath string) (Verification, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to open profile: %w", err)
	}
	defer file.Close()

	return LoadProfileFromReader(file)
}

// LoadProfileFromReader parses a profile from an io.Reader.
func LoadProfileFromReader(r io.Reader) (Verification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Verification{}, fmt.Errorf("failed to read profile: %w", err)
	}

	v := DefaultVerification()
	if err := yaml.Unmarshal(data, &v); err != nil {
		return Verification{}, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := v.Validate(); err != nil {
		return Verification{}, err
	}
	return v, nil
}

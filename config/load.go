package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load overlays the YAML file at path onto Default. An empty path yields
// the defaults unchanged.
func Load(path string) (Economy, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read economy file: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML bytes on top of Default and validates the result.
func Parse(raw []byte) (Economy, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("economy.yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("economy.yaml: %w", err)
	}
	return cfg, nil
}

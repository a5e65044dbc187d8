// Package config - Loads the global option layer from a YAML or JSONC file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-imageopt/options"
)

// Format is a configuration file syntax.
type Format string

const (
	YAML Format = "yaml"
	JSON Format = "json"
)

// FormatOf picks the syntax from a file extension. Unknown extensions read
// as YAML, which also accepts plain JSON.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return JSON
	default:
		return YAML
	}
}

// Load reads and validates the global configuration file.
func Load(path string) (options.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	layer, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layer, nil
}

// Parse decodes a global layer and validates it. An empty document is an
// empty layer.
func Parse(data []byte, format Format) (options.Layer, error) {
	layer := options.Layer{}

	switch format {
	case JSON:
		stripped := jsonc.ToJSON(data)
		if len(strings.TrimSpace(string(stripped))) > 0 {
			if err := json.Unmarshal(stripped, &layer); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	default:
		if err := yaml.Unmarshal(data, &layer); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if layer == nil {
		layer = options.Layer{}
	}
	if err := options.Validate(options.GlobalLayer, layer); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return layer, nil
}

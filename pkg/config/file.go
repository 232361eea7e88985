package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	burntsushi "github.com/BurntSushi/toml"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format of a config file on disk
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath guesses the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported config format %q (use .yml, .yaml or .toml)", filepath.Ext(path))
	}
}

// Marshal renders cfg as a config file
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return buf.Bytes(), nil
	case FormatTOML:
		data, err := toml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal TOML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// Strict lists keys in the config file at path that altsync does not know.
// Viper ignores such keys, so a typo would otherwise go unnoticed.
func Strict(path string) ([]string, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err := dec.Decode(&cfg)
		if err == nil || errors.Is(err, io.EOF) {
			return nil, nil
		}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return typeErr.Errors, nil
		}
		return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	default:
		md, err := burntsushi.Decode(string(data), &cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
		}
		var unknown []string
		for _, key := range md.Undecoded() {
			unknown = append(unknown, fmt.Sprintf("unknown key %q", key.String()))
		}
		return unknown, nil
	}
}

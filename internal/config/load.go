package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// Format is a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
	FormatJSON
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// FormatOf picks the format from the file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Load reads the file at path, overlays it on Defaults and validates the
// result.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, format, path)
}

// Parse decodes data, overlays it on Defaults and validates the result.
// source names the input in errors.
func Parse(data []byte, format Format, source string) (*Config, error) {
	c := Defaults()
	if err := c.Merge(data, format, source); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Merge decodes data and overlays the keys it sets onto c. Keys absent
// from data keep their current values. On error c is unchanged.
func (c *Config) Merge(data []byte, format Format, source string) error {
	doc, err := decode(data, format, source)
	if err != nil {
		return err
	}
	next := c.Clone()
	if err := next.apply(doc); err != nil {
		return &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	*c = *next
	return nil
}

func decode(data []byte, format Format, source string) (map[string]any, error) {
	switch format {
	case FormatTOML:
		return decodeTOML(data, source)
	case FormatYAML:
		return decodeYAML(data, source)
	case FormatJSON:
		return decodeJSON(data, source)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
}

func decodeTOML(data []byte, source string) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		pe := &ParseError{Path: source, Message: err.Error(), Err: err}
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		return nil, pe
	}
	return doc, nil
}

func decodeYAML(data []byte, source string) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: source, Message: err.Error(), Err: err}
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func decodeJSON(data []byte, source string) (map[string]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: source, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, &ParseError{Path: source, Message: "top level is not an object", Err: ErrTypeMismatch}
	}
	doc, _ := root.Value().(map[string]any)
	return doc, nil
}

package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"
)

// Encode renders c in the given format. Every setting is written,
// including those still at their defaults.
func (c *Config) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatTOML:
		return toml.Marshal(c.toMap())
	case FormatYAML:
		return yaml.Marshal(c.toMap())
	case FormatJSON:
		return c.encodeJSON()
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
}

func (c *Config) encodeJSON() ([]byte, error) {
	doc := []byte("{}")
	var err error
	for _, s := range settings {
		if doc, err = sjson.SetBytes(doc, s.key, s.get(c)); err != nil {
			return nil, fmt.Errorf("config: encode %s: %w", s.key, err)
		}
	}
	for _, name := range slices.Sorted(maps.Keys(c.Palette)) {
		path := paletteKey + "." + strings.ReplaceAll(name, ".", `\.`)
		if doc, err = sjson.SetBytes(doc, path, c.Palette[name]); err != nil {
			return nil, fmt.Errorf("config: encode palette %s: %w", name, err)
		}
	}
	return pretty.Pretty(doc), nil
}

// Save writes c to path in the format its extension selects. The file is
// replaced atomically.
func (c *Config) Save(path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := c.Encode(format)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*")
	if err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("config: save: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("config: save: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strings"
	"time"
)

// setting binds a dotted key to a Config field.
type setting struct {
	key string
	get func(c *Config) any
	set func(c *Config, v any) error
}

var settings = []setting{
	{"editor.tab_width",
		func(c *Config) any { return int64(c.Editor.TabWidth) },
		intSetter(func(c *Config, n int64) { c.Editor.TabWidth = int(n) })},
	{"editor.max_line_length",
		func(c *Config) any { return c.Editor.MaxLineLength },
		intSetter(func(c *Config, n int64) { c.Editor.MaxLineLength = n })},
	{"generator.tick",
		func(c *Config) any { return c.Generator.Tick.String() },
		durationSetter(func(c *Config, d time.Duration) { c.Generator.Tick = d })},
	{"generator.cutover",
		func(c *Config) any { return c.Generator.Cutover },
		intSetter(func(c *Config, n int64) { c.Generator.Cutover = n })},
	{"history.undo_limit",
		func(c *Config) any { return int64(c.History.UndoLimit) },
		intSetter(func(c *Config, n int64) { c.History.UndoLimit = int(n) })},
	{"history.merge_window",
		func(c *Config) any { return c.History.MergeWindow.String() },
		durationSetter(func(c *Config, d time.Duration) { c.History.MergeWindow = d })},
	{"buffer.chunk_size",
		func(c *Config) any { return int64(c.Buffer.ChunkSize) },
		intSetter(func(c *Config, n int64) { c.Buffer.ChunkSize = int(n) })},
	{"buffer.encoding",
		func(c *Config) any { return c.Buffer.Encoding },
		stringSetter(func(c *Config, s string) { c.Buffer.Encoding = s })},
	{"buffer.normalize",
		func(c *Config) any { return c.Buffer.Normalize },
		boolSetter(func(c *Config, b bool) { c.Buffer.Normalize = b })},
	{"pagecache.enabled",
		func(c *Config) any { return c.PageCache.Enabled },
		boolSetter(func(c *Config, b bool) { c.PageCache.Enabled = b })},
	{"pagecache.block_size",
		func(c *Config) any { return int64(c.PageCache.BlockSize) },
		intSetter(func(c *Config, n int64) { c.PageCache.BlockSize = int(n) })},
	{"pagecache.dir",
		func(c *Config) any { return c.PageCache.Dir },
		stringSetter(func(c *Config, s string) { c.PageCache.Dir = s })},
	{"syntax.language",
		func(c *Config) any { return c.Syntax.Language },
		stringSetter(func(c *Config, s string) { c.Syntax.Language = s })},
	{"syntax.theme",
		func(c *Config) any { return c.Syntax.Theme },
		stringSetter(func(c *Config, s string) { c.Syntax.Theme = s })},
	{"syntax.folding",
		func(c *Config) any { return c.Syntax.Folding },
		stringSetter(func(c *Config, s string) { c.Syntax.Folding = s })},
	{"syntax.watchdogs",
		func(c *Config) any { return c.Syntax.Watchdogs },
		stringSetter(func(c *Config, s string) { c.Syntax.Watchdogs = s })},
	{"log.level",
		func(c *Config) any { return c.Log.Level },
		stringSetter(func(c *Config, s string) { c.Log.Level = s })},
}

const paletteKey = "palette"

func lookupSetting(key string) (setting, bool) {
	for _, s := range settings {
		if s.key == key {
			return s, true
		}
	}
	return setting{}, false
}

// Keys returns the dotted keys of all scalar settings.
func Keys() []string {
	out := make([]string, len(settings))
	for i, s := range settings {
		out[i] = s.key
	}
	return out
}

// Get returns the value of the setting at key, formatted as it is
// written to a file. Palette entries are addressed as "palette.<name>".
func (c *Config) Get(key string) (any, error) {
	if name, ok := strings.CutPrefix(key, paletteKey+"."); ok {
		v, found := c.Palette[name]
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
		return v, nil
	}
	s, ok := lookupSetting(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return s.get(c), nil
}

// Set assigns a value to the setting at key. Numbers may be any Go
// integer or integral float, and durations a string such as "250ms" or a
// number of milliseconds.
func (c *Config) Set(key string, v any) error {
	if name, ok := strings.CutPrefix(key, paletteKey+"."); ok {
		s, isString := v.(string)
		if !isString {
			return fmt.Errorf("%w: %s wants a string, got %T", ErrTypeMismatch, key, v)
		}
		if c.Palette == nil {
			c.Palette = make(map[string]string)
		}
		c.Palette[name] = s
		return nil
	}
	s, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err := s.set(c, v); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// apply overlays a decoded document of nested sections onto c.
func (c *Config) apply(doc map[string]any) error {
	for _, section := range slices.Sorted(maps.Keys(doc)) {
		values, ok := doc[section].(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a table", ErrTypeMismatch, section)
		}
		for _, name := range slices.Sorted(maps.Keys(values)) {
			if err := c.Set(section+"."+name, values[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

// toMap returns c as nested sections, the shape every writer encodes.
func (c *Config) toMap() map[string]any {
	out := make(map[string]any)
	for _, s := range settings {
		section, name, _ := strings.Cut(s.key, ".")
		values, ok := out[section].(map[string]any)
		if !ok {
			values = make(map[string]any)
			out[section] = values
		}
		values[name] = s.get(c)
	}
	if len(c.Palette) > 0 {
		palette := make(map[string]any, len(c.Palette))
		for k, v := range c.Palette {
			palette[k] = v
		}
		out[paletteKey] = palette
	}
	return out
}

// Diff returns the keys whose values differ between c and other.
func (c *Config) Diff(other *Config) []string {
	var out []string
	for _, s := range settings {
		if s.get(c) != s.get(other) {
			out = append(out, s.key)
		}
	}
	names := make(map[string]struct{})
	for k := range c.Palette {
		names[k] = struct{}{}
	}
	for k := range other.Palette {
		names[k] = struct{}{}
	}
	for _, k := range slices.Sorted(maps.Keys(names)) {
		a, inA := c.Palette[k]
		b, inB := other.Palette[k]
		if a != b || inA != inB {
			out = append(out, paletteKey+"."+k)
		}
	}
	return out
}

func intSetter(assign func(*Config, int64)) func(*Config, any) error {
	return func(c *Config, v any) error {
		n, err := asInt(v)
		if err != nil {
			return err
		}
		assign(c, n)
		return nil
	}
}

func durationSetter(assign func(*Config, time.Duration)) func(*Config, any) error {
	return func(c *Config, v any) error {
		if s, ok := v.(string); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
			}
			assign(c, d)
			return nil
		}
		n, err := asInt(v)
		if err != nil {
			return err
		}
		assign(c, time.Duration(n)*time.Millisecond)
		return nil
	}
}

func stringSetter(assign func(*Config, string)) func(*Config, any) error {
	return func(c *Config, v any) error {
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: want string, got %T", ErrTypeMismatch, v)
		}
		assign(c, s)
		return nil
	}
}

func boolSetter(assign func(*Config, bool)) func(*Config, any) error {
	return func(c *Config, v any) error {
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: want bool, got %T", ErrTypeMismatch, v)
		}
		assign(c, b)
		return nil
	}
}

// asInt accepts the integer shapes produced by the TOML, YAML and JSON
// decoders.
func asInt(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows int64", ErrTypeMismatch, n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.Abs(n) > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrTypeMismatch, n)
		}
		return int64(n), nil
	}
	return 0, fmt.Errorf("%w: want integer, got %T", ErrTypeMismatch, v)
}

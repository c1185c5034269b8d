package config

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"strings"
	"time"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/marker"
)

// Default values.
const (
	DefaultTabWidth         = 4
	DefaultMaxLineLength    = 1000
	DefaultGeneratorTick    = 100 * time.Millisecond
	DefaultGeneratorCutover = 1 << 20
	DefaultUndoLimit        = 1000
	DefaultMergeWindow      = time.Second
	DefaultChunkSize        = 64 * 1024
	DefaultBlockSize        = 4096
	DefaultLogLevel         = "info"
	DefaultFolding          = "brace"
)

// Config holds every tunable of a document and the tools built on it.
// The zero value is not useful; start from Defaults.
type Config struct {
	Editor    EditorConfig
	Generator GeneratorConfig
	History   HistoryConfig
	Buffer    BufferConfig
	PageCache PageCacheConfig
	Syntax    SyntaxConfig
	Log       LogConfig

	// Palette maps a marker category name ("selection", "highlight", "ime",
	// "url", "find") to a marker description such as "underline #3366ff"
	// or "mark yellow bold".
	Palette map[string]string
}

// EditorConfig holds layout settings.
type EditorConfig struct {
	// TabWidth is the number of columns a tab advances to.
	TabWidth int
	// MaxLineLength caps the piece of a line handed to one layout.
	MaxLineLength int64
}

// GeneratorConfig holds the debounce settings of the folding and syntax
// generators.
type GeneratorConfig struct {
	// Tick is the minimum interval between unforced runs.
	Tick time.Duration
	// Cutover is the document length, in characters, above which only
	// forced runs happen.
	Cutover int64
}

// HistoryConfig holds undo settings.
type HistoryConfig struct {
	UndoLimit int
	// MergeWindow is the longest pause between two edits merged into one
	// undo step. Negative disables merging.
	MergeWindow time.Duration
}

// BufferConfig holds load and save settings.
type BufferConfig struct {
	// ChunkSize is the number of bytes read or written per step.
	ChunkSize int
	// Encoding names the input encoding. Empty means UTF-8.
	Encoding string
	// Normalize applies NFC normalization on load.
	Normalize bool
}

// PageCacheConfig holds line metadata paging settings.
type PageCacheConfig struct {
	// Enabled turns paging on.
	Enabled bool
	// BlockSize is the number of line records per block.
	BlockSize int
	// Dir is where blocks are written. Empty keeps them in memory.
	Dir string
}

// SyntaxConfig holds highlighting and folding settings.
type SyntaxConfig struct {
	// Language selects the highlighter. Empty disables highlighting.
	Language string
	// Theme names the highlight theme.
	Theme string
	// Folding names the folding strategy: "brace", "indent" or "none".
	Folding string
	// Watchdogs is an optional Lua script declaring marker watchdogs.
	Watchdogs string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Defaults returns the baseline configuration.
func Defaults() *Config {
	return &Config{
		Editor: EditorConfig{
			TabWidth:      DefaultTabWidth,
			MaxLineLength: DefaultMaxLineLength,
		},
		Generator: GeneratorConfig{
			Tick:    DefaultGeneratorTick,
			Cutover: DefaultGeneratorCutover,
		},
		History: HistoryConfig{
			UndoLimit:   DefaultUndoLimit,
			MergeWindow: DefaultMergeWindow,
		},
		Buffer: BufferConfig{
			ChunkSize: DefaultChunkSize,
		},
		PageCache: PageCacheConfig{
			BlockSize: DefaultBlockSize,
		},
		Syntax: SyntaxConfig{
			Folding: DefaultFolding,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		Palette: map[string]string{
			"selection": "normal #264f78",
			"find":      "mark #613214",
			"url":       "underline #3794ff",
		},
	}
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Palette = maps.Clone(c.Palette)
	return &out
}

// Validate reports every out-of-range or unknown value, joined.
func (c *Config) Validate() error {
	var errs []error
	bad := func(path string, value any, msg string) {
		errs = append(errs, &ValidationError{Path: path, Value: value, Message: msg})
	}

	if c.Editor.TabWidth < 1 || c.Editor.TabWidth > 32 {
		bad("editor.tab_width", c.Editor.TabWidth, "must be between 1 and 32")
	}
	if c.Editor.MaxLineLength < 1 || c.Editor.MaxLineLength > math.MaxInt32 {
		bad("editor.max_line_length", c.Editor.MaxLineLength, "must be between 1 and 2147483647")
	}
	if c.Generator.Tick < 0 {
		bad("generator.tick", c.Generator.Tick, "must not be negative")
	}
	if c.Generator.Cutover < 0 {
		bad("generator.cutover", c.Generator.Cutover, "must not be negative")
	}
	if c.History.UndoLimit < 1 {
		bad("history.undo_limit", c.History.UndoLimit, "must be positive")
	}
	if c.Buffer.ChunkSize < 1 {
		bad("buffer.chunk_size", c.Buffer.ChunkSize, "must be positive")
	}
	if _, err := buffer.LookupEncoding(c.Buffer.Encoding); err != nil {
		bad("buffer.encoding", c.Buffer.Encoding, "unknown encoding")
	}
	if c.PageCache.BlockSize < 1 {
		bad("pagecache.block_size", c.PageCache.BlockSize, "must be positive")
	}
	switch strings.ToLower(c.Syntax.Folding) {
	case "", "none", "brace", "indent":
	default:
		bad("syntax.folding", c.Syntax.Folding, "must be brace, indent or none")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		bad("log.level", c.Log.Level, "must be debug, info, warn or error")
	}
	for name, desc := range c.Palette {
		if _, ok := categories[name]; !ok {
			bad("palette."+name, desc, "unknown marker category")
			continue
		}
		if _, err := ParseMarker(desc); err != nil {
			bad("palette."+name, desc, err.Error())
		}
	}
	return errors.Join(errs...)
}

var categories = map[string]marker.ID{
	"selection": marker.Selection,
	"highlight": marker.Highlight,
	"ime":       marker.IME,
	"url":       marker.URL,
	"find":      marker.Find,
}

// Markers resolves the palette into markers by category. Invalid entries
// are skipped; Validate reports them.
func (c *Config) Markers() map[marker.ID]marker.Marker {
	out := make(map[marker.ID]marker.Marker, len(c.Palette))
	for name, desc := range c.Palette {
		id, ok := categories[name]
		if !ok {
			continue
		}
		m, err := ParseMarker(desc)
		if err != nil {
			continue
		}
		out[id] = m
	}
	return out
}

// ParseMarker parses a space-separated marker description made of an
// optional kind, an optional "bold" and a color, in any order.
func ParseMarker(desc string) (marker.Marker, error) {
	var m marker.Marker
	var haveColor bool
	for _, word := range strings.Fields(desc) {
		if strings.EqualFold(word, "bold") {
			m.Bold = true
			continue
		}
		if k, err := marker.ParseKind(word); err == nil {
			m.Kind = k
			continue
		}
		color, err := marker.ParseColor(word)
		if err != nil {
			return marker.Marker{}, err
		}
		m.Color = color
		haveColor = true
	}
	if !haveColor {
		return marker.Marker{}, fmt.Errorf("%w: no color in %q", marker.ErrUnknownColor, desc)
	}
	return m, nil
}

package config

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/folding"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/engine/pagecache"
	"github.com/dshills/textcore/internal/logging"
	"github.com/dshills/textcore/internal/script"
)

// Logger returns a logger writing to out at the configured level.
func (c *Config) Logger(out io.Writer) *logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	if out != nil {
		cfg.Output = out
	}
	return logging.New(cfg)
}

// Theme returns the configured highlight theme.
func (c *Config) Theme() (*highlight.Theme, error) {
	return highlight.ThemeByName(c.Syntax.Theme)
}

// Session holds what a configuration resolves to: the input encoding,
// the watchdog rules and the page store shared by the documents it opens.
type Session struct {
	cfg       *Config
	logger    *logging.Logger
	watchdogs []marker.Watchdog
	store     pagecache.Store
}

// Open resolves c for creating documents. It checks the encoding, folding
// strategy and language, runs the watchdog script and opens the page
// store. The caller must Close the session once its documents are
// discarded.
func (c *Config) Open(ctx context.Context, logger *logging.Logger) (*Session, error) {
	if _, err := buffer.LookupEncoding(c.Buffer.Encoding); err != nil {
		return nil, err
	}
	if _, err := folding.ByName(c.Syntax.Folding, c.Editor.TabWidth); err != nil {
		return nil, err
	}
	if c.Syntax.Language != "" {
		if _, err := highlight.Lookup(highlight.DefaultRegistry(), c.Syntax.Language); err != nil {
			return nil, err
		}
	}
	watchdogs, err := c.watchdogs(ctx)
	if err != nil {
		return nil, err
	}

	s := &Session{cfg: c.Clone(), logger: logger, watchdogs: watchdogs}
	if c.PageCache.Enabled {
		if c.PageCache.Dir != "" {
			if s.store, err = pagecache.NewDiskStore(c.PageCache.Dir); err != nil {
				return nil, err
			}
		} else {
			s.store = pagecache.NewMemoryStore()
		}
	}
	return s, nil
}

// Options returns the options for one new document. Each call builds its
// own folding strategy and highlighter, so documents may be created from
// several goroutines.
func (s *Session) Options() []engine.Option {
	c := s.cfg
	// Both lookups succeeded in Open.
	enc, _ := buffer.LookupEncoding(c.Buffer.Encoding)
	strategy, _ := folding.ByName(c.Syntax.Folding, c.Editor.TabWidth)

	opts := []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithTabWidth(c.Editor.TabWidth),
		engine.WithUndoLimit(c.History.UndoLimit),
		engine.WithMergeWindow(c.History.MergeWindow),
		engine.WithSubRangeLength(c.Editor.MaxLineLength),
		engine.WithDebounce(c.Generator.Tick, c.Generator.Cutover),
		engine.WithBufferOptions(
			buffer.WithChunkSize(c.Buffer.ChunkSize),
			buffer.WithEncoding(enc),
			buffer.WithNormalization(c.Buffer.Normalize),
		),
		engine.WithFoldingStrategy(strategy),
		engine.WithWatchdogs(s.watchdogs...),
	}
	if c.Syntax.Language != "" {
		if h, err := highlight.Lookup(highlight.DefaultRegistry(), c.Syntax.Language); err == nil {
			opts = append(opts, engine.WithHighlighter(h))
		}
	}
	if s.store != nil {
		opts = append(opts, engine.WithPageStore(s.store, c.PageCache.BlockSize))
	}
	return opts
}

// Close releases the page store, if any.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// watchdogs returns the URL watchdog colored from the palette followed by
// the rules declared in the watchdog script.
func (c *Config) watchdogs(ctx context.Context) ([]marker.Watchdog, error) {
	url := marker.URLWatchdog()
	if m, ok := c.Markers()[marker.URL]; ok {
		url.Marker = m
	}
	out := []marker.Watchdog{url}
	if c.Syntax.Watchdogs == "" {
		return out, nil
	}

	src, err := os.ReadFile(c.Syntax.Watchdogs)
	if err != nil {
		return nil, fmt.Errorf("config: watchdog script: %w", err)
	}
	st := script.NewState()
	defer st.Close()
	rules, err := marker.LoadWatchdogs(ctx, st, string(src))
	if err != nil {
		return nil, err
	}
	return append(out, rules...), nil
}

package engine

import (
	"time"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/folding"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/engine/pagecache"
	"github.com/dshills/textcore/internal/logging"
)

// Default configuration values.
const (
	DefaultTabWidth         = 4
	DefaultGeneratorTick    = 100 * time.Millisecond
	DefaultGeneratorCutover = 1 << 20
)

// settings collects the options of a Document.
type settings struct {
	text        string
	logger      *logging.Logger
	tabWidth    int
	undoLimit   int
	mergeWindow time.Duration
	subRange    int64
	capacity    int64
	factory     lines.LayoutFactory
	store       pagecache.Store
	blockSize   int
	tick        time.Duration
	cutover     int64
	bufferOpts  []buffer.Option
	strategy    folding.Strategy
	highlighter highlight.Highlighter
	watchdogs   []marker.Watchdog
}

func defaultSettings() settings {
	return settings{
		logger:      logging.NullLogger,
		tabWidth:    DefaultTabWidth,
		undoLimit:   history.DefaultLimit,
		mergeWindow: history.DefaultMergeWindow,
		subRange:    lines.DefaultSubRangeLength,
		blockSize:   pagecache.DefaultBlockSize,
		tick:        DefaultGeneratorTick,
		cutover:     DefaultGeneratorCutover,
	}
}

// Option configures a Document during creation.
type Option func(*settings)

// WithText sets the initial content.
func WithText(s string) Option {
	return func(o *settings) {
		o.text = s
	}
}

// WithLogger sets the logger shared by the document's components.
func WithLogger(l *logging.Logger) Option {
	return func(o *settings) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTabWidth sets the tab width used for display columns and
// indentation folding.
func WithTabWidth(width int) Option {
	return func(o *settings) {
		if width > 0 {
			o.tabWidth = width
		}
	}
}

// WithUndoLimit sets the maximum number of undo steps.
func WithUndoLimit(n int) Option {
	return func(o *settings) {
		if n > 0 {
			o.undoLimit = n
		}
	}
}

// WithMergeWindow sets the longest pause between two edits that merge
// into one undo step. A negative window disables merging.
func WithMergeWindow(d time.Duration) Option {
	return func(o *settings) {
		o.mergeWindow = d
	}
}

// WithSubRangeLength sets the longest piece of a line handed to one layout.
func WithSubRangeLength(n int64) Option {
	return func(o *settings) {
		if n > 0 {
			o.subRange = n
		}
	}
}

// WithLineCapacity lowers the longest line the document accepts. Edits
// that would produce a longer line fail with ErrCapacity.
func WithLineCapacity(n int64) Option {
	return func(o *settings) {
		o.capacity = n
	}
}

// WithLayoutFactory sets the collaborator that creates line layouts.
func WithLayoutFactory(f lines.LayoutFactory) Option {
	return func(o *settings) {
		o.factory = f
	}
}

// WithPageStore enables paging of cold line metadata into store, in
// blocks of blockSize records. A non-positive blockSize keeps the default.
func WithPageStore(store pagecache.Store, blockSize int) Option {
	return func(o *settings) {
		o.store = store
		if blockSize > 0 {
			o.blockSize = blockSize
		}
	}
}

// WithDebounce sets the generators' minimum interval between unforced
// runs and the document length above which only forced runs happen.
func WithDebounce(tick time.Duration, cutover int64) Option {
	return func(o *settings) {
		o.tick = tick
		o.cutover = cutover
	}
}

// WithBufferOptions passes options to the character buffer, such as its
// load chunk size or input encoding.
func WithBufferOptions(opts ...buffer.Option) Option {
	return func(o *settings) {
		o.bufferOpts = append(o.bufferOpts, opts...)
	}
}

// WithFoldingStrategy sets the initial folding strategy.
func WithFoldingStrategy(s folding.Strategy) Option {
	return func(o *settings) {
		o.strategy = s
	}
}

// WithHighlighter sets the initial syntax highlighter.
func WithHighlighter(h highlight.Highlighter) Option {
	return func(o *settings) {
		o.highlighter = h
	}
}

// WithWatchdogs registers marker watchdog rules.
func WithWatchdogs(w ...marker.Watchdog) Option {
	return func(o *settings) {
		o.watchdogs = append(o.watchdogs, w...)
	}
}

package highlight

import (
	"slices"
	"time"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/logging"
)

// Generator keeps the syntax tokens of a line index current. It
// re-highlights dirty rows, continuing into following rows while the
// lexer state at the end of a row differs from the one last recorded.
// It implements lines.Generator.
type Generator struct {
	h        Highlighter
	states   []State
	debounce lines.Debouncer
	now      func() time.Time
	logger   *logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithDebounce throttles unforced regeneration.
func WithDebounce(tick time.Duration, cutover int64) Option {
	return func(g *Generator) {
		g.debounce = lines.Debouncer{Tick: tick, Cutover: cutover}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l.WithComponent("highlight")
		}
	}
}

// NewGenerator creates a generator. A nil h produces no tokens.
func NewGenerator(h Highlighter, opts ...Option) *Generator {
	g := &Generator{h: h, now: time.Now, logger: logging.NullLogger}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Highlighter returns the active highlighter.
func (g *Generator) Highlighter() Highlighter {
	return g.h
}

// SetHighlighter replaces the highlighter and marks every row of t for
// re-highlighting.
func (g *Generator) SetHighlighter(t *lines.Table, h Highlighter) {
	g.h = h
	g.Clear(t)
}

// Generate implements lines.Generator.
func (g *Generator) Generate(text lines.Text, t *lines.Table, force bool) (bool, error) {
	if g.h == nil {
		return false, nil
	}
	if !g.debounce.Allow(force, text.Len(), g.now()) {
		return false, nil
	}
	if len(g.states) != t.Count() {
		g.states = slices.Repeat([]State{stateUnknown}, t.Count())
	}

	count := 0
	row := g.firstStale(t, 0)
	for row >= 0 {
		content, err := t.LineContent(row)
		if err != nil {
			return count > 0, err
		}
		prev := StateNormal
		if row > 0 {
			prev = g.states[row-1]
		}
		toks, end := g.h.HighlightLine(content, prev)
		if err := t.SetTokens(row, convert(content, toks)); err != nil {
			return count > 0, err
		}
		count++

		old := g.states[row]
		g.states[row] = end
		if old != end && row+1 < len(g.states) {
			row++
			continue
		}
		row = g.firstStale(t, row+1)
	}
	if count > 0 {
		g.logger.Debug("highlighted %d lines", count)
	}
	return count > 0, nil
}

// firstStale returns the first row at or after from that is dirty or has
// no recorded end state, or -1.
func (g *Generator) firstStale(t *lines.Table, from int) int {
	dirty := t.FirstDirty(from)
	limit := len(g.states)
	if dirty >= 0 {
		limit = dirty
	}
	for row := from; row < limit; row++ {
		if g.states[row] == stateUnknown {
			return row
		}
	}
	return dirty
}

// Update implements lines.Generator. Recorded end states are realigned
// with the table's rows. The rescanned rows are dirty, so their stale
// states only serve to decide whether the row after them must be
// re-highlighted too.
func (g *Generator) Update(t *lines.Table, startIndex, _, _ int64) {
	if g.states == nil {
		return
	}
	at := min(max(t.RowOf(startIndex), 1), len(g.states))
	switch diff := t.Count() - len(g.states); {
	case diff > 0:
		g.states = slices.Insert(g.states, at, slices.Repeat([]State{stateUnknown}, diff)...)
	case diff < 0:
		g.states = slices.Delete(g.states, at, min(at-diff, len(g.states)))
	}
	if len(g.states) != t.Count() {
		g.states = nil
	}
}

// Clear implements lines.Generator.
func (g *Generator) Clear(t *lines.Table) {
	g.states = nil
	g.debounce.Reset()
	for row, rec := range t.Records(0) {
		if len(rec.Tokens) > 0 {
			_ = t.SetTokens(row, nil)
		}
	}
	t.MarkDirty(0, t.Count()-1)
}

// convert maps byte-offset tokens to line-relative character offsets.
func convert(content string, toks []Token) []lines.Token {
	if len(toks) == 0 {
		return nil
	}
	out := make([]lines.Token, 0, len(toks))
	byteOff, charOff := 0, int64(0)
	advance := func(to int) int64 {
		to = min(to, len(content))
		for byteOff < to {
			_, size := utf8.DecodeRuneInString(content[byteOff:])
			byteOff += size
			charOff++
		}
		return charOff
	}
	for _, tok := range toks {
		if tok.Start < byteOff {
			continue
		}
		s := advance(tok.Start)
		e := advance(tok.End)
		if e > s {
			out = append(out, lines.Token{Type: int(tok.Type), Start: s, Length: e - s})
		}
	}
	return out
}

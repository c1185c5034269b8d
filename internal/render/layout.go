package render

import (
	"sync/atomic"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
)

// wordLookback is how far back a wrap looks for a space to break after.
const wordLookback = 20

// Factory creates terminal cell layouts.
type Factory struct {
	theme      *highlight.Theme
	tabWidth   int
	wrapAtWord bool

	live atomic.Int64
}

// NewFactory returns a factory coloring tokens with theme. A nil theme
// uses the default one.
func NewFactory(theme *highlight.Theme, tabWidth int) *Factory {
	if theme == nil {
		theme = highlight.DefaultTheme()
	}
	if tabWidth < 1 {
		tabWidth = 4
	}
	return &Factory{theme: theme, tabWidth: tabWidth, wrapAtWord: true}
}

// SetWrapAtWord chooses between breaking wrapped rows after a space, when
// one is close enough, and breaking exactly at the wrap width.
func (f *Factory) SetWrapAtWord(on bool) {
	f.wrapAtWord = on
}

// Live returns the number of layouts created and not yet disposed.
func (f *Factory) Live() int64 {
	return f.live.Load()
}

// CreateLayout implements lines.LayoutFactory. Token and marker spans are
// relative to the start of text; wrapWidth is in columns, 0 meaning no
// wrapping.
func (f *Factory) CreateLayout(text string, syntax []lines.Token, markers, selections []marker.Span, wrapWidth float64) lines.Layout {
	styles := f.styles(utf8.RuneCountInString(text), syntax, markers, selections)

	l := &Line{factory: f}
	var off int64
	col := 0
	state := -1
	for text != "" {
		var cluster string
		var width int
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		st := styles[off]

		switch {
		case cluster == "\t":
			for range f.tabWidth - col%f.tabWidth {
				l.Cells = append(l.Cells, Cell{Text: " ", Width: 1, Offset: off, Style: st})
				col++
			}
		case width == 0:
			// Control characters take no columns.
		default:
			l.Cells = append(l.Cells, Cell{Text: cluster, Width: width, Offset: off, Style: st})
			for range width - 1 {
				l.Cells = append(l.Cells, continuation(off, st))
			}
			col += width
		}
		off += int64(utf8.RuneCountInString(cluster))
	}

	l.wrap(int(wrapWidth), f.wrapAtWord)
	f.live.Add(1)
	return l
}

// styles returns the style of each character: the theme default, then the
// token style, then markers, then selections.
func (f *Factory) styles(n int, syntax []lines.Token, markers, selections []marker.Span) []tcell.Style {
	out := make([]tcell.Style, n)
	for i := range out {
		out[i] = f.theme.Default
	}
	for _, tok := range syntax {
		st := f.theme.Style(highlight.TokenType(tok.Type))
		fill(out, tok.Start, tok.Length, func(tcell.Style) tcell.Style { return st })
	}
	for _, sp := range markers {
		m := sp.Value
		fill(out, sp.Start, sp.Length, func(st tcell.Style) tcell.Style { return markerStyle(st, m) })
	}
	for _, sp := range selections {
		m := sp.Value
		fill(out, sp.Start, sp.Length, func(st tcell.Style) tcell.Style {
			if m.Color == tcell.ColorDefault {
				return st.Reverse(true)
			}
			return st.Background(m.Color)
		})
	}
	return out
}

func fill(out []tcell.Style, start, length int64, apply func(tcell.Style) tcell.Style) {
	end := min(start+length, int64(len(out)))
	for i := max(start, 0); i < end; i++ {
		out[i] = apply(out[i])
	}
}

// markerStyle draws m over st.
func markerStyle(st tcell.Style, m marker.Marker) tcell.Style {
	switch m.Kind {
	case marker.KindUnderline, marker.KindSquiggle:
		st = st.Underline(true)
		if m.Color != tcell.ColorDefault {
			st = st.Foreground(m.Color)
		}
	case marker.KindStrike:
		st = st.StrikeThrough(true)
	default:
		if m.Color != tcell.ColorDefault {
			st = st.Background(m.Color)
		}
	}
	if m.Bold {
		st = st.Bold(true)
	}
	return st
}

// Line is the layout of one line piece.
type Line struct {
	Cells []Cell

	// Wraps holds the index of the first cell of every row after the
	// first.
	Wraps []int

	columns  int
	factory  *Factory
	disposed bool
}

// wrap splits the cells into rows no wider than width.
func (l *Line) wrap(width int, atWord bool) {
	l.Wraps = l.Wraps[:0]
	rowStart, col := 0, 0
	for i, c := range l.Cells {
		if width > 0 && col > 0 && !c.IsContinuation() && col+c.Width > width {
			at := i
			if atWord {
				at = wordBreak(l.Cells, rowStart, i)
			}
			l.columns = max(l.columns, columns(l.Cells[rowStart:at]))
			l.Wraps = append(l.Wraps, at)
			rowStart = at
			col = columns(l.Cells[at:i])
		}
		col += c.Width
	}
	l.columns = max(l.columns, col)
}

// wordBreak returns the cell after the last space in cells[from:to), or
// to when there is none close enough.
func wordBreak(cells []Cell, from, to int) int {
	for i := to - 1; i > from && i >= to-wordLookback; i-- {
		if cells[i].Text == " " {
			return i + 1
		}
	}
	return to
}

func columns(cells []Cell) int {
	n := 0
	for _, c := range cells {
		n += c.Width
	}
	return n
}

// Width returns the number of columns of the widest row.
func (l *Line) Width() float64 {
	return float64(l.columns)
}

// Height returns the number of rows.
func (l *Line) Height() float64 {
	return float64(len(l.Wraps) + 1)
}

// Dispose releases the layout. Its cells must not be used afterwards.
func (l *Line) Dispose() {
	if l.disposed {
		return
	}
	l.disposed = true
	l.Cells = nil
	l.Wraps = nil
	if l.factory != nil {
		l.factory.live.Add(-1)
	}
}

// Disposed reports whether Dispose has been called.
func (l *Line) Disposed() bool {
	return l.disposed
}

// Rows returns the number of rows; the same as Height.
func (l *Line) Rows() int {
	return len(l.Wraps) + 1
}

// Row returns the cells of row r.
func (l *Line) Row(r int) []Cell {
	if r < 0 || r > len(l.Wraps) {
		return nil
	}
	start, end := 0, len(l.Cells)
	if r > 0 {
		start = l.Wraps[r-1]
	}
	if r < len(l.Wraps) {
		end = l.Wraps[r]
	}
	return l.Cells[start:end]
}

// Column returns the column of the character at offset within its row,
// and that row. An offset past the end maps after the last cell.
func (l *Line) Column(offset int64) (row, col int) {
	for r := range l.Rows() {
		col = 0
		for _, c := range l.Row(r) {
			if c.Offset >= offset {
				return r, col
			}
			col += c.Width
		}
	}
	return l.Rows() - 1, col
}

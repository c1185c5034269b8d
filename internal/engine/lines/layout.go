package lines

import (
	"errors"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/marker"
)

// ErrNoLayoutFactory is returned by Layout when no factory is configured.
var ErrNoLayoutFactory = errors.New("lines: no layout factory")

// Layout is an opaque, rendered line owned by the layout collaborator.
type Layout interface {
	Width() float64
	Height() float64
	Dispose()
}

// LayoutFactory creates layouts. Token and marker spans are relative to
// the start of text.
type LayoutFactory interface {
	CreateLayout(text string, syntax []Token, markers, selections []marker.Span, wrapWidth float64) Layout
}

// LayoutFactoryFunc adapts a function to LayoutFactory.
type LayoutFactoryFunc func(text string, syntax []Token, markers, selections []marker.Span, wrapWidth float64) Layout

// CreateLayout calls f.
func (f LayoutFactoryFunc) CreateLayout(text string, syntax []Token, markers, selections []marker.Span, wrapWidth float64) Layout {
	return f(text, syntax, markers, selections, wrapWidth)
}

func disposeLayouts(e *entry) {
	for _, l := range e.layouts {
		if l != nil {
			l.Dispose()
		}
	}
	e.layouts = nil
}

// Layout returns the layouts of row, one per sub-range, creating them if
// they are not cached.
func (t *Table) Layout(row int) ([]Layout, error) {
	if err := t.checkRow(row); err != nil {
		return nil, err
	}
	if t.factory == nil {
		return nil, ErrNoLayoutFactory
	}
	t.restore(row)
	it := t.lines.At(row)
	if it.Value.layouts != nil {
		return it.Value.layouts, nil
	}

	content, err := t.LineContent(row)
	if err != nil {
		return nil, err
	}
	spans, err := t.SubRanges(row)
	if err != nil {
		return nil, err
	}

	layouts := make([]Layout, 0, len(spans))
	byteOff, charOff := 0, int64(0)
	for _, sp := range spans {
		for charOff < sp.Start {
			_, size := utf8.DecodeRuneInString(content[byteOff:])
			byteOff += size
			charOff++
		}
		from := byteOff
		for charOff < sp.Start+sp.Length {
			_, size := utf8.DecodeRuneInString(content[byteOff:])
			byteOff += size
			charOff++
		}
		abs := it.Start + sp.Start
		layouts = append(layouts, t.factory.CreateLayout(
			content[from:byteOff],
			clipTokens(it.Value.tokens, sp),
			t.clipMarkers(abs, sp.Length, false),
			t.clipMarkers(abs, sp.Length, true),
			t.wrapWidth,
		))
	}
	t.lines.Update(row, func(e *entry) { e.layouts = layouts })
	return layouts, nil
}

func clipTokens(tokens []Token, sp Span) []Token {
	var out []Token
	for _, tok := range tokens {
		s, l := Clip(sp.Start, sp.Length, tok.Start, tok.Length)
		if s < 0 || l == 0 {
			continue
		}
		out = append(out, Token{Type: tok.Type, Start: s, Length: l})
	}
	return out
}

// clipMarkers returns the markers overlapping [start, start+length)
// relative to start: the selection category alone, or every other one.
func (t *Table) clipMarkers(start, length int64, selection bool) []marker.Span {
	if t.markers == nil || length == 0 {
		return nil
	}
	var out []marker.Span
	for _, id := range t.markers.IDs() {
		if (id == marker.Selection) != selection {
			continue
		}
		spans, _ := t.markers.Get(id, start, length)
		for _, sp := range spans {
			s, l := Clip(start, length, sp.Start, sp.Length)
			if s < 0 || l == 0 {
				continue
			}
			sp.Start, sp.Length = s, l
			out = append(out, sp)
		}
	}
	return out
}

// Invalidate disposes the layouts of rows [from, to].
func (t *Table) Invalidate(from, to int) {
	from, to = max(from, 0), min(to, t.lines.Len()-1)
	for row := from; row <= to; row++ {
		t.lines.Update(row, disposeLayouts)
	}
}

// InvalidateRange disposes the layouts of the rows overlapping
// [offset, offset+length].
func (t *Table) InvalidateRange(offset, length int64) {
	t.Invalidate(t.RowOf(offset), t.RowOf(offset+length))
}

// WrapWidth returns the width passed to new layouts.
func (t *Table) WrapWidth() float64 {
	return t.wrapWidth
}

// SetWrapWidth changes the wrap width and disposes every layout.
func (t *Table) SetWrapWidth(w float64) {
	t.wrapWidth = w
	t.Invalidate(0, t.lines.Len()-1)
}

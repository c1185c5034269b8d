package lines

import (
	"fmt"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Point is a row and a character column.
type Point struct {
	Row    int
	Column int64
}

// Span is a line-relative interval.
type Span struct {
	Start  int64
	Length int64
}

// End returns the exclusive end.
func (s Span) End() int64 {
	return s.Start + s.Length
}

// PointFromIndex converts an offset into a point. Offsets past the end
// of the text map into the last line.
func (t *Table) PointFromIndex(offset int64) Point {
	row := t.RowOf(offset)
	return Point{Row: row, Column: offset - t.lines.Head(row)}
}

// IndexFromPoint converts p into an offset. The column is clamped to the
// line, stopping before a terminator's last character.
func (t *Table) IndexFromPoint(p Point) (int64, error) {
	if err := t.checkRow(p.Row); err != nil {
		return 0, err
	}
	it := t.lines.At(p.Row)
	limit := it.Length - min(it.Value.term.Len(), 1)
	return it.Start + min(max(p.Column, 0), limit), nil
}

// Clip converts the absolute interval [start, start+length) into
// coordinates relative to a line at lineStart. A contained interval only
// has its start shifted, an interval crossing the line's bounds is
// truncated, and one outside the line yields (-1, 0). An empty interval
// is kept when its position lies on the line.
func Clip(lineStart, lineLength, start, length int64) (int64, int64) {
	lineEnd := lineStart + lineLength
	if length == 0 {
		if start >= lineStart && (start < lineEnd || (lineLength == 0 && start == lineStart)) {
			return start - lineStart, 0
		}
		return -1, 0
	}
	end := start + length
	if end <= lineStart || start >= lineEnd {
		return -1, 0
	}
	s, e := max(start, lineStart), min(end, lineEnd)
	return s - lineStart, e - s
}

// ClipToLine clips [start, start+length) to row. See Clip.
func (t *Table) ClipToLine(row int, start, length int64) (int64, int64, error) {
	if err := t.checkRow(row); err != nil {
		return -1, 0, err
	}
	if length > MaxLineLength || length < 0 {
		return -1, 0, fmt.Errorf("%w: query length %d", ErrLineTooLong, length)
	}
	it := t.lines.At(row)
	s, l := Clip(it.Start, it.Length, start, length)
	return s, l, nil
}

// SubRanges splits row's content into pieces of at most the configured
// sub-range length without breaking a grapheme cluster. A cluster longer
// than the cap becomes a piece of its own. An empty line has one empty
// piece.
func (t *Table) SubRanges(row int) ([]Span, error) {
	rec, err := t.Record(row)
	if err != nil {
		return nil, err
	}
	n := rec.ContentLength()
	if n <= t.subRange {
		return []Span{{Start: 0, Length: n}}, nil
	}
	content, err := t.LineContent(row)
	if err != nil {
		return nil, err
	}

	var out []Span
	cur := Span{}
	state := -1
	for len(content) > 0 {
		var cluster string
		cluster, content, _, state = uniseg.FirstGraphemeClusterInString(content, state)
		size := int64(utf8.RuneCountInString(cluster))
		if cur.Length > 0 && cur.Length+size > t.subRange {
			out = append(out, cur)
			cur = Span{Start: cur.End()}
		}
		cur.Length += size
	}
	if cur.Length > 0 {
		out = append(out, cur)
	}
	return out, nil
}

// DisplayColumn returns the screen column of p: grapheme clusters count
// by their display width and tabs advance to the next multiple of
// tabWidth.
func (t *Table) DisplayColumn(p Point, tabWidth int) (int, error) {
	content, err := t.LineContent(p.Row)
	if err != nil {
		return 0, err
	}
	if tabWidth <= 0 {
		tabWidth = 1
	}
	col, chars := 0, int64(0)
	state := -1
	for len(content) > 0 && chars < p.Column {
		var cluster string
		var width int
		cluster, content, width, state = uniseg.FirstGraphemeClusterInString(content, state)
		if cluster == "\t" {
			col += tabWidth - col%tabWidth
		} else {
			col += width
		}
		chars += int64(utf8.RuneCountInString(cluster))
	}
	return col, nil
}

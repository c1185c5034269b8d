package render

import "github.com/gdamore/tcell/v2"

// Cell is one terminal column of a laid out line.
type Cell struct {
	// Text is the grapheme cluster drawn in the cell. It is empty for the
	// columns a wide cluster spills into.
	Text string

	// Width is the number of columns Text occupies, 0 for continuations.
	Width int

	// Offset is the character offset of the source character, relative to
	// the start of the laid out text.
	Offset int64

	Style tcell.Style
}

// IsContinuation reports whether c is covered by the wide cell before it.
func (c Cell) IsContinuation() bool {
	return c.Width == 0
}

func continuation(off int64, st tcell.Style) Cell {
	return Cell{Offset: off, Style: st}
}

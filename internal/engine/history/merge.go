package history

import (
	"strings"
	"time"
)

// DefaultMergeWindow is the default longest pause between two merged edits.
const DefaultMergeWindow = time.Second

// Merge combines b, which happened after a, into one command if they form
// a single typing run:
//   - an Insert directly after the end of a previous Insert
//   - a Remove ending where a previous Remove started (backspace)
//   - a Remove at the offset of a previous Remove (forward delete)
//
// Edits further apart than window, or whose text contains a line break,
// are not merged. An empty b merges into a unchanged.
func Merge(a, b Command, window time.Duration) (Command, bool) {
	if b.IsEmpty() {
		return a, true
	}
	switch a := a.(type) {
	case Insert:
		b, ok := b.(Insert)
		if !ok || !within(a.At, b.At, window) || hasBreak(a.Text) || hasBreak(b.Text) {
			return nil, false
		}
		if b.Offset != a.Offset+runeLen(a.Text) {
			return nil, false
		}
		return Insert{Offset: a.Offset, Text: a.Text + b.Text, At: b.At}, true

	case Remove:
		b, ok := b.(Remove)
		if !ok || !within(a.At, b.At, window) || hasBreak(a.Text) || hasBreak(b.Text) {
			return nil, false
		}
		switch {
		case b.Offset+runeLen(b.Text) == a.Offset:
			return Remove{Offset: b.Offset, Text: b.Text + a.Text, At: b.At}, true
		case b.Offset == a.Offset:
			return Remove{Offset: a.Offset, Text: a.Text + b.Text, At: b.At}, true
		}
	}
	return nil, false
}

func within(a, b time.Time, window time.Duration) bool {
	d := b.Sub(a)
	return d >= 0 && d <= window
}

func hasBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

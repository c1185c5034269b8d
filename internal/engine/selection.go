package engine

import (
	"cmp"
	"slices"
)

// Selection is a selected range. Anchor is where the selection started;
// Head is the caret. When Anchor == Head the selection is a bare caret.
type Selection struct {
	Anchor int64
	Head   int64
}

// IsEmpty returns true if the selection has no extent.
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() int64 {
	return min(s.Anchor, s.Head)
}

// End returns the upper bound of the selection.
func (s Selection) End() int64 {
	return max(s.Anchor, s.Head)
}

// Len returns the number of selected characters.
func (s Selection) Len() int64 {
	return s.End() - s.Start()
}

// IsBackward returns true if the head lies before the anchor.
func (s Selection) IsBackward() bool {
	return s.Head < s.Anchor
}

// Contains returns true if offset lies in [Start, End).
func (s Selection) Contains(offset int64) bool {
	return offset >= s.Start() && offset < s.End()
}

// transformOffset moves offset across an edit that replaced removed
// characters at at with inserted characters.
//   - edit entirely before offset: shift by the length change
//   - edit starting at or after offset: unchanged
//   - edit spanning offset: move to the end of the inserted text
func transformOffset(offset, at, removed, inserted int64) int64 {
	switch {
	case at+removed <= offset:
		return offset - removed + inserted
	case at >= offset:
		return offset
	default:
		return at + inserted
	}
}

func (s Selection) transform(at, removed, inserted int64) Selection {
	return Selection{
		Anchor: transformOffset(s.Anchor, at, removed, inserted),
		Head:   transformOffset(s.Head, at, removed, inserted),
	}
}

// normalizeSelections sorts sel by start and merges overlapping or
// touching selections. It returns the index that the selection at
// sel[primary] ended up in.
func normalizeSelections(sel []Selection, primary int) ([]Selection, int) {
	if len(sel) <= 1 {
		return sel, 0
	}
	p := sel[primary]
	slices.SortStableFunc(sel, func(a, b Selection) int {
		return cmp.Compare(a.Start(), b.Start())
	})

	out := sel[:1]
	for _, s := range sel[1:] {
		last := &out[len(out)-1]
		if s.Start() < last.End() || (s.Start() == last.End() && (s.IsEmpty() || last.IsEmpty())) {
			start, end := last.Start(), max(last.End(), s.End())
			if last.IsBackward() {
				*last = Selection{Anchor: end, Head: start}
			} else {
				*last = Selection{Anchor: start, Head: end}
			}
			continue
		}
		out = append(out, s)
	}

	for i, s := range out {
		if s.Start() <= p.Start() && p.End() <= s.End() {
			return out, i
		}
	}
	return out, 0
}

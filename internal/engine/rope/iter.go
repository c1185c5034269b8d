package rope

import "iter"

// Chunks returns an iterator over the rope's chunk strings in order.
func (r Rope) Chunks() iter.Seq[string] {
	return func(yield func(string) bool) {
		if r.root != nil {
			walkChunks(r.root, yield)
		}
	}
}

// ChunksFrom returns an iterator over the text starting at character
// offset from. Each step yields the offset of the piece and the piece.
func (r Rope) ChunksFrom(from int64) iter.Seq2[int64, string] {
	return func(yield func(int64, string) bool) {
		if r.root == nil || from >= r.Len() {
			return
		}
		from = max(from, 0)
		walkFrom(r.root, 0, from, yield)
	}
}

// Runes returns an iterator over the characters starting at offset from,
// yielding each character with its absolute offset.
func (r Rope) Runes(from int64) iter.Seq2[int64, rune] {
	return func(yield func(int64, rune) bool) {
		for off, s := range r.ChunksFrom(from) {
			for _, ch := range s {
				if !yield(off, ch) {
					return
				}
				off++
			}
		}
	}
}

func walkChunks(n *node, yield func(string) bool) bool {
	if n.isLeaf() {
		for _, c := range n.chunks {
			if !yield(c.data) {
				return false
			}
		}
		return true
	}
	for _, child := range n.children {
		if !walkChunks(child, yield) {
			return false
		}
	}
	return true
}

// walkFrom yields the pieces of n at or after from; base is the absolute
// offset of n's first character.
func walkFrom(n *node, base, from int64, yield func(int64, string) bool) bool {
	if n.isLeaf() {
		for _, c := range n.chunks {
			end := base + c.Len()
			if end <= from {
				base = end
				continue
			}
			s := c.data
			start := base
			if from > base {
				s = c.Slice(from-base, c.Len())
				start = from
			}
			if !yield(start, s) {
				return false
			}
			base = end
		}
		return true
	}
	for i, child := range n.children {
		end := base + n.childSummaries[i].Chars
		if end > from {
			if !walkFrom(child, base, from, yield) {
				return false
			}
		}
		base = end
	}
	return true
}

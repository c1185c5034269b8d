package rope

import (
	"strings"
	"unicode/utf8"
)

// Rope is an immutable rope. Operations return new Rope values; the
// original is never modified, which makes a Rope a cheap snapshot.
//
// All offsets are character offsets. Out-of-range offsets are clamped;
// callers that need strict validation do it before reaching the rope.
type Rope struct {
	root *node
}

// New creates an empty rope.
func New() Rope {
	return Rope{root: newLeaf(nil)}
}

// FromString creates a rope from a string.
func FromString(s string) Rope {
	if len(s) == 0 {
		return New()
	}
	return fromChunks(splitIntoChunks(s))
}

func fromChunks(chunks []Chunk) Rope {
	if len(chunks) == 0 {
		return New()
	}
	leaves := make([]*node, 0, len(chunks)/MaxChunksPerLeaf+1)
	for i := 0; i < len(chunks); i += MaxChunksPerLeaf {
		end := min(i+MaxChunksPerLeaf, len(chunks))
		leaf := make([]Chunk, end-i)
		copy(leaf, chunks[i:end])
		leaves = append(leaves, newLeaf(leaf))
	}
	return Rope{root: buildFromNodes(leaves)}
}

// Len returns the number of characters.
func (r Rope) Len() int64 {
	if r.root == nil {
		return 0
	}
	return r.root.length()
}

// Size returns the UTF-8 byte length.
func (r Rope) Size() int64 {
	if r.root == nil {
		return 0
	}
	return r.root.summary.Bytes
}

// IsEmpty returns true if the rope contains no text.
func (r Rope) IsEmpty() bool {
	return r.Len() == 0
}

// Summary returns the aggregated metrics for the whole rope.
func (r Rope) Summary() Summary {
	if r.root == nil {
		return Summary{}
	}
	return r.root.summary
}

// String returns the full text. Use sparingly on large ropes.
func (r Rope) String() string {
	if r.root == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow(int(r.Size()))
	r.root.appendTo(&sb)
	return sb.String()
}

// Slice returns the characters in [start, end).
func (r Rope) Slice(start, end int64) string {
	start = max(start, 0)
	end = min(end, r.Len())
	if r.root == nil || start >= end {
		return ""
	}
	var sb strings.Builder
	r.root.appendRange(&sb, start, end)
	return sb.String()
}

// RuneAt returns the character at offset, or false if offset is out of range.
func (r Rope) RuneAt(offset int64) (rune, bool) {
	if r.root == nil || offset < 0 || offset >= r.Len() {
		return 0, false
	}
	leaf, rel := r.root.leafAt(offset)
	for _, c := range leaf.chunks {
		if rel < c.Len() {
			s := c.Slice(rel, rel+1)
			ch, _ := utf8.DecodeRuneInString(s)
			return ch, true
		}
		rel -= c.Len()
	}
	return 0, false
}

// Insert inserts text at offset.
func (r Rope) Insert(offset int64, text string) Rope {
	if len(text) == 0 {
		return r
	}
	if r.IsEmpty() {
		return FromString(text)
	}
	if offset <= 0 {
		return FromString(text).Concat(r)
	}
	if offset >= r.Len() {
		return r.Concat(FromString(text))
	}
	left, right := r.Split(offset)
	return left.Concat(FromString(text)).Concat(right)
}

// Delete removes the characters in [start, end).
func (r Rope) Delete(start, end int64) Rope {
	start = max(start, 0)
	end = min(end, r.Len())
	if r.root == nil || start >= end {
		return r
	}
	if start == 0 && end == r.Len() {
		return New()
	}
	left, rest := r.Split(start)
	_, right := rest.Split(end - start)
	return left.Concat(right)
}

// Replace replaces the characters in [start, end) with text.
func (r Rope) Replace(start, end int64, text string) Rope {
	return r.Delete(start, end).Insert(start, text)
}

// Split splits the rope at offset into [0, offset) and [offset, Len).
func (r Rope) Split(offset int64) (Rope, Rope) {
	if r.root == nil || offset <= 0 {
		return New(), r
	}
	if offset >= r.Len() {
		return r, New()
	}
	left, right := r.root.split(offset)
	return Rope{root: left}, Rope{root: right}
}

// Concat concatenates two ropes.
func (r Rope) Concat(other Rope) Rope {
	if r.IsEmpty() {
		return other
	}
	if other.IsEmpty() {
		return r
	}
	return Rope{root: concat(r.root, other.root)}
}

// Height returns the height of the tree. Useful for testing balance.
func (r Rope) Height() int {
	if r.root == nil {
		return 0
	}
	return int(r.root.height) + 1
}

// Equals reports whether two ropes hold the same text.
func (r Rope) Equals(other Rope) bool {
	if r.Len() != other.Len() || r.Size() != other.Size() {
		return false
	}
	return r.String() == other.String()
}

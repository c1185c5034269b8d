// Package marker keeps per-category overlays anchored to document text:
// selections, highlights, IME composition ranges, detected URLs and find
// results.
//
// Set keeps the markers of one category disjoint by replacing whatever
// occupied the span; Add allows overlaps. After every document edit the caller
// reports the delta through UpdateMarkers and all categories re-anchor.
package marker

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/textcore/internal/engine/ranges"
)

// ErrInvalidSpan is returned for a marker span with a negative start or a
// non-positive length.
var ErrInvalidSpan = errors.New("marker: invalid span")

// ID identifies a marker category.
type ID int

// Built-in categories. Callers may use any other ID for their own overlays.
const (
	Selection ID = iota
	Highlight
	IME
	URL
	Find
)

// Kind is the decoration a marker asks the renderer for.
type Kind uint8

const (
	KindNormal Kind = iota
	KindUnderline
	KindSquiggle
	KindStrike
	KindMark
)

// Marker is the payload of a marked span.
type Marker struct {
	Kind  Kind
	Color tcell.Color
	Bold  bool
}

// Span is a marker with its position.
type Span = ranges.Item[Marker]

// Collection maps categories to their spans.
type Collection struct {
	sets      map[ID]*ranges.Collection[Marker]
	watchdogs []Watchdog
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{sets: make(map[ID]*ranges.Collection[Marker])}
}

func (c *Collection) set(id ID, create bool) *ranges.Collection[Marker] {
	s, ok := c.sets[id]
	if !ok && create {
		s = ranges.New[Marker]()
		c.sets[id] = s
	}
	return s
}

// IDs returns the categories that currently hold markers, in order.
func (c *Collection) IDs() []ID {
	return slices.Sorted(maps.Keys(c.sets))
}

// Set marks [start, start+length) in category id, first removing every
// marker of that category overlapping the span.
func (c *Collection) Set(id ID, start, length int64, m Marker) error {
	if start < 0 || length <= 0 {
		return fmt.Errorf("%w: start %d length %d", ErrInvalidSpan, start, length)
	}
	s := c.set(id, true)
	removeIndexes(s, s.Intersecting(start, length))
	s.Add(Span{Start: start, Length: length, Value: m})
	return nil
}

// Add inserts a marker without removing overlapping ones.
func (c *Collection) Add(id ID, start, length int64, m Marker) error {
	if start < 0 || length <= 0 {
		return fmt.Errorf("%w: start %d length %d", ErrInvalidSpan, start, length)
	}
	c.set(id, true).Add(Span{Start: start, Length: length, Value: m})
	return nil
}

// Get returns the markers of category id overlapping [offset,
// offset+length). A zero length returns the marker containing offset.
func (c *Collection) Get(id ID, offset, length int64) ([]Span, error) {
	if offset < 0 || length < 0 {
		return nil, fmt.Errorf("%w: offset %d length %d", ErrInvalidSpan, offset, length)
	}
	s := c.set(id, false)
	if s == nil {
		return nil, nil
	}
	idx := s.Intersecting(offset, length)
	out := make([]Span, 0, len(idx))
	for _, i := range idx {
		if sp := s.At(i); sp.Renderable() {
			out = append(out, sp)
		}
	}
	return out, nil
}

// All iterates over every marker of category id.
func (c *Collection) All(id ID) iter.Seq[Span] {
	return func(yield func(Span) bool) {
		s := c.set(id, false)
		if s == nil {
			return
		}
		for _, sp := range s.All() {
			if !yield(sp) {
				return
			}
		}
	}
}

// Count returns the number of markers in category id.
func (c *Collection) Count(id ID) int {
	if s := c.set(id, false); s != nil {
		return s.Len()
	}
	return 0
}

// RemoveRange removes the markers of category id overlapping the span.
func (c *Collection) RemoveRange(id ID, offset, length int64) error {
	if offset < 0 || length < 0 {
		return fmt.Errorf("%w: offset %d length %d", ErrInvalidSpan, offset, length)
	}
	s := c.set(id, false)
	if s == nil {
		return nil
	}
	removeIndexes(s, s.Intersecting(offset, length))
	return nil
}

func removeIndexes(s *ranges.Collection[Marker], idx []int) {
	for _, i := range slices.Backward(idx) {
		_ = s.RemoveAt(i, 1)
	}
}

// RemoveAll removes, in every category, the markers lying entirely
// within [offset, offset+length).
func (c *Collection) RemoveAll(offset, length int64) {
	if length <= 0 {
		return
	}
	end := offset + length
	for _, s := range c.sets {
		idx := s.Intersecting(offset, length)
		for _, i := range slices.Backward(idx) {
			if sp := s.At(i); sp.Start >= offset && sp.End() <= end {
				_ = s.RemoveAt(i, 1)
			}
		}
	}
}

// Clear removes every marker of category id.
func (c *Collection) Clear(id ID) {
	delete(c.sets, id)
}

// ClearAll removes every marker.
func (c *Collection) ClearAll() {
	clear(c.sets)
}

// UpdateMarkers re-anchors every category after removed characters at
// offset were replaced by inserted characters.
//
// Markers starting at or after the end of the removed text shift by the
// length change; this includes markers starting exactly at offset when
// nothing was removed. Markers ending at or before offset stay put. A
// marker that contains offset keeps its start and has its end adjusted.
// A marker that starts inside the removed text is clipped to begin after
// the inserted text, or dropped if it lay entirely inside.
func (c *Collection) UpdateMarkers(offset, inserted, removed int64) {
	for _, s := range c.sets {
		s.Edit(offset, inserted, removed)
	}
}

// Clone returns a deep copy of the markers and watchdog rules.
func (c *Collection) Clone() *Collection {
	out := NewCollection()
	for id, s := range c.sets {
		out.sets[id] = s.Clone()
	}
	out.watchdogs = slices.Clone(c.watchdogs)
	return out
}

package ranges

import (
	"errors"
	"fmt"
	"iter"
	"sort"
)

// ErrIndexOutOfRange is returned when an item index is invalid.
var ErrIndexOutOfRange = errors.New("ranges: index out of range")

// Item is an interval with a payload.
type Item[T any] struct {
	Start  int64
	Length int64
	Value  T
}

// End returns the exclusive end offset.
func (it Item[T]) End() int64 {
	return it.Start + it.Length
}

// Renderable reports whether the item is live. Items with a negative
// start or a non-positive length are tombstones.
func (it Item[T]) Renderable() bool {
	return it.Start >= 0 && it.Length > 0
}

// Collection is an ordered sequence of items sorted by start, with a
// deferred shift. It is not safe for concurrent use.
type Collection[T any] struct {
	items   []Item[T]
	pending pendingShift
	maxLen  int64 // longest length ever stored, reset by Clear
}

// New creates an empty collection.
func New[T any]() *Collection[T] {
	return &Collection[T]{pending: pendingShift{row: -1}}
}

// Len returns the number of items.
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Head returns the true start of item i, whether or not the pending shift
// has been applied to it.
func (c *Collection[T]) Head(i int) int64 {
	return c.items[i].Start + c.pending.offsetFor(i)
}

// At returns item i with its true start.
func (c *Collection[T]) At(i int) Item[T] {
	it := c.items[i]
	it.Start += c.pending.offsetFor(i)
	return it
}

// Set overwrites item i. The item's start is taken as a true offset.
func (c *Collection[T]) Set(i int, it Item[T]) {
	c.maxLen = max(c.maxLen, it.Length)
	it.Start -= c.pending.offsetFor(i)
	c.items[i] = it
}

// Update applies fn to the payload of item i in place.
func (c *Collection[T]) Update(i int, fn func(*T)) {
	fn(&c.items[i].Value)
}

// All iterates over the items in order with their true starts.
func (c *Collection[T]) All() iter.Seq2[int, Item[T]] {
	return func(yield func(int, Item[T]) bool) {
		for i := range c.items {
			if !yield(i, c.At(i)) {
				return
			}
		}
	}
}

// Search returns the smallest index whose true start is >= offset, or
// Len() if there is none.
func (c *Collection[T]) Search(offset int64) int {
	return sort.Search(len(c.items), func(i int) bool {
		return c.Head(i) >= offset
	})
}

// Find returns the index of the last item starting at or before offset,
// or -1 if every item starts after it.
func (c *Collection[T]) Find(offset int64) int {
	return c.Search(offset+1) - 1
}

// Add inserts it keeping the collection sorted by start. Items with equal
// starts keep insertion order. It returns the index of the new item.
func (c *Collection[T]) Add(it Item[T]) int {
	i := c.Search(it.Start + 1)
	c.insertAt(i, []Item[T]{it})
	return i
}

// Insert inserts items at index i. The caller keeps the collection sorted.
func (c *Collection[T]) Insert(i int, items ...Item[T]) error {
	if i < 0 || i > len(c.items) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	c.insertAt(i, items)
	return nil
}

func (c *Collection[T]) insertAt(i int, items []Item[T]) {
	if len(items) == 0 {
		return
	}
	adjust := int64(0)
	if c.pending.active && i > c.pending.row {
		adjust = c.pending.length
	} else if i <= c.pending.row {
		c.pending.row += len(items)
	}
	stored := make([]Item[T], len(items))
	for k, it := range items {
		it.Start -= adjust
		stored[k] = it
		c.maxLen = max(c.maxLen, it.Length)
	}
	c.items = append(c.items[:i], append(stored, c.items[i:]...)...)
}

// RemoveAt removes count items starting at index i.
func (c *Collection[T]) RemoveAt(i, count int) error {
	if i < 0 || count < 0 || i+count > len(c.items) {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrIndexOutOfRange, i, i+count, len(c.items))
	}
	c.removeAt(i, count)
	return nil
}

func (c *Collection[T]) removeAt(i, count int) {
	if count == 0 {
		return
	}
	if i <= c.pending.row {
		c.pending.row -= min(count, c.pending.row-i+1)
	}
	c.items = append(c.items[:i], c.items[i+count:]...)
	if c.pending.row >= len(c.items)-1 {
		c.pending = pendingShift{row: len(c.items) - 1}
	}
}

// ReplaceRange removes removeCount items at index, inserts newItems in
// their place, and shifts every item after the inserted ones by
// deltaLength. The starts of newItems are true offsets.
func (c *Collection[T]) ReplaceRange(index int, newItems []Item[T], removeCount int, deltaLength int64) error {
	if index < 0 || removeCount < 0 || index+removeCount > len(c.items) {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrIndexOutOfRange, index, index+removeCount, len(c.items))
	}
	c.observe(index - 1)
	c.removeAt(index, removeCount)
	c.insertAt(index, newItems)
	c.UpdateStartIndex(deltaLength, index+len(newItems)-1)
	return nil
}

// UpdateStartIndex records that every item after row moved by
// deltaLength. The shift is folded into the pending window and applied
// lazily.
func (c *Collection[T]) UpdateStartIndex(deltaLength int64, row int) {
	row = max(row, -1)
	if row >= len(c.items)-1 {
		c.observe(len(c.items) - 1)
		return
	}
	c.observe(row)
	c.pending.length += deltaLength
	c.pending.active = c.pending.length != 0
}

// CommitChange applies the pending shift to every item.
func (c *Collection[T]) CommitChange() {
	c.commit()
}

// Overlapping returns the indexes [from, to) of the items that overlap the
// half-open interval [offset, offset+length). A zero length selects items
// containing offset. The result is exact for collections whose items do
// not overlap each other.
func (c *Collection[T]) Overlapping(offset, length int64) (from, to int) {
	end := offset + length
	if length == 0 {
		end = offset + 1
	}
	to = c.Search(end)
	from = to
	for from > 0 {
		prev := c.At(from - 1)
		if prev.End() <= offset && !(prev.Length == 0 && prev.Start == offset) {
			break
		}
		from--
	}
	return from, to
}

// Clear removes every item.
func (c *Collection[T]) Clear() {
	c.items = c.items[:0]
	c.pending = pendingShift{row: -1}
	c.maxLen = 0
}

// Clone returns a copy of the collection with the pending shift realized.
func (c *Collection[T]) Clone() *Collection[T] {
	out := &Collection[T]{
		items:   make([]Item[T], len(c.items)),
		pending: pendingShift{row: len(c.items) - 1},
		maxLen:  c.maxLen,
	}
	for i := range c.items {
		out.items[i] = c.At(i)
	}
	return out
}

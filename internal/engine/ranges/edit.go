package ranges

// Intersecting returns, in order, the indexes of the items overlapping
// [offset, offset+length). A zero length selects the items containing
// offset. Unlike Overlapping it is exact when items overlap each other.
func (c *Collection[T]) Intersecting(offset, length int64) []int {
	end := offset + length
	if length == 0 {
		end = offset + 1
	}
	to := c.Search(end)
	var out []int
	for i := c.Search(offset - c.maxLen); i < to; i++ {
		it := c.At(i)
		if it.End() > offset || (it.Length == 0 && it.Start == offset) {
			out = append(out, i)
		}
	}
	return out
}

// Edit re-anchors the items after removed characters at offset were
// replaced by inserted characters.
//
// Items starting at or after the end of the removed text shift by the
// length change; this includes items starting exactly at offset when
// nothing was removed. Items ending at or before offset stay put. An item
// that contains offset keeps its start and has its end adjusted. An item
// that starts inside the removed text is clipped to begin after the
// inserted text, or dropped if it lay entirely inside.
func (c *Collection[T]) Edit(offset, inserted, removed int64) {
	delta := inserted - removed
	k := c.Search(offset + removed)
	j := c.Search(offset - c.maxLen)
	for j < k {
		it := c.At(j)
		switch {
		case it.End() <= offset:
			j++
		case it.Start < offset:
			end := offset
			if it.End() >= offset+removed {
				end = it.End() + delta
			}
			it.Length = end - it.Start
			c.Set(j, it)
			j++
		case it.End() <= offset+removed:
			c.removeAt(j, 1)
			k--
		default:
			end := it.End() + delta
			it.Start = offset + inserted
			it.Length = end - it.Start
			c.Set(j, it)
			j++
		}
	}
	c.UpdateStartIndex(delta, k-1)
}

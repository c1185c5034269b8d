package ranges

// pendingShift is the deferred offset adjustment of a Collection.
//
// When active, every item with index > row is stored length characters
// short of its true start. Items at or before row are stored at their true
// start. The zero value is the NoPending state.
type pendingShift struct {
	active bool
	row    int
	length int64
}

// offsetFor returns what must be added to the stored start of item i.
func (p pendingShift) offsetFor(i int) int64 {
	if p.active && i > p.row {
		return p.length
	}
	return 0
}

// observe moves the boundary to row, realizing the shift on every item the
// boundary passes over. Moving backward un-realizes items (row, p.row];
// moving forward realizes items (p.row, row].
func (c *Collection[T]) observe(row int) {
	p := &c.pending
	if !p.active {
		p.row = row
		return
	}
	switch {
	case row < p.row:
		for i := p.row; i > row; i-- {
			c.items[i].Start -= p.length
		}
	case row > p.row:
		for i := p.row + 1; i <= row; i++ {
			c.items[i].Start += p.length
		}
	}
	p.row = row
	if row >= len(c.items)-1 {
		c.pending = pendingShift{row: row}
	}
}

// commit realizes the whole pending shift.
func (c *Collection[T]) commit() {
	c.observe(len(c.items) - 1)
	c.pending = pendingShift{row: len(c.items) - 1}
}

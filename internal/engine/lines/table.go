package lines

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/engine/pagecache"
	"github.com/dshills/textcore/internal/engine/ranges"
	"github.com/dshills/textcore/internal/logging"
)

var (
	// ErrRowOutOfRange is returned for a row outside [0, Count()).
	ErrRowOutOfRange = errors.New("lines: row out of range")

	// ErrLineTooLong is returned when a line or a line-relative query
	// exceeds MaxLineLength characters.
	ErrLineTooLong = errors.New("lines: line too long")
)

// MaxLineLength is the longest line the table accepts.
const MaxLineLength = math.MaxInt32

// Text is the read access a table needs to the document's characters.
type Text interface {
	Len() int64
	Substring(offset, length int64) (string, error)
	Runes(from int64) iter.Seq2[int64, rune]
}

// Token is a syntax token in line-relative character offsets.
type Token struct {
	Type   int
	Start  int64
	Length int64
}

// FoldState is the folding role of a line.
type FoldState int64

const (
	// FoldNone is a line that neither starts nor lies in a fold.
	FoldNone FoldState = iota
	// FoldExpanded is the first line of an open fold.
	FoldExpanded
	// FoldCollapsed is the first line of a closed fold.
	FoldCollapsed
	// FoldHidden is a line inside a closed fold.
	FoldHidden
)

// Record is a snapshot of one line.
type Record struct {
	Start      int64
	Length     int64
	Terminator Terminator
	Tokens     []Token
	Dirty      bool
	FoldState  FoldState
}

// End returns the offset just past the line's terminator.
func (r Record) End() int64 {
	return r.Start + r.Length
}

// ContentLength returns the length without the terminator.
func (r Record) ContentLength() int64 {
	return r.Length - r.Terminator.Len()
}

type lineItem = ranges.Item[entry]

type entry struct {
	term    Terminator
	tokens  []Token
	dirty   bool
	fold    FoldState
	text    string
	hasText bool
	layouts []Layout
	page    *pagecache.Ref
}

// Change describes how an Update rewrote the table.
type Change struct {
	// FirstRow is the first row of the rescanned window.
	FirstRow int
	// Removed and Inserted count the records replaced in the window.
	Removed  int
	Inserted int
	// Row is the single row whose extent changed, or -1 when the edit
	// touched line structure.
	Row int
}

// Table is the line index of a document. It is not safe for concurrent use.
type Table struct {
	text       Text
	lines      *ranges.Collection[entry]
	lastRow    int
	capacity   int64
	subRange   int64
	wrapWidth  float64
	factory    LayoutFactory
	markers    *marker.Collection
	generators []Generator
	pager      *pagecache.Pager
	logger     *logging.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithMarkers forwards every edit to markers and feeds them to layouts.
func WithMarkers(m *marker.Collection) Option {
	return func(t *Table) {
		t.markers = m
	}
}

// WithLayoutFactory sets the collaborator that creates line layouts.
func WithLayoutFactory(f LayoutFactory) Option {
	return func(t *Table) {
		t.factory = f
	}
}

// WithSubRangeLength sets the longest piece of a line handed to a single
// layout. Longer lines are split.
func WithSubRangeLength(n int64) Option {
	return func(t *Table) {
		if n > 0 {
			t.subRange = n
		}
	}
}

// WithCapacity lowers the longest line the table accepts below
// MaxLineLength.
func WithCapacity(n int64) Option {
	return func(t *Table) {
		if n > 0 && n < MaxLineLength {
			t.capacity = n
		}
	}
}

// WithPager enables eviction of cold line metadata.
func WithPager(p *pagecache.Pager) Option {
	return func(t *Table) {
		t.pager = p
	}
}

// WithLogger sets the table's logger.
func WithLogger(l *logging.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l.WithComponent("lines")
		}
	}
}

// DefaultSubRangeLength is the default sub-range cap for long lines.
const DefaultSubRangeLength = 1000

// New indexes text.
func New(text Text, opts ...Option) *Table {
	t := &Table{
		text:     text,
		lines:    ranges.New[entry](),
		capacity: MaxLineLength,
		subRange: DefaultSubRangeLength,
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.Rebuild()
	return t
}

// Text returns the indexed text.
func (t *Table) Text() Text {
	return t.text
}

// Markers returns the marker collection edits are forwarded to, if any.
func (t *Table) Markers() *marker.Collection {
	return t.markers
}

// Count returns the number of lines. It is never zero.
func (t *Table) Count() int {
	return t.lines.Len()
}

// Rebuild reindexes the whole text, discarding all line metadata.
func (t *Table) Rebuild() {
	for _, it := range t.lines.All() {
		t.discard(&it.Value)
	}
	t.lines.Clear()
	if t.pager != nil {
		t.pager.Reset()
	}

	var items []ranges.Item[entry]
	var pos int64
	sc := scanner{emit: func(s Segment) {
		items = append(items, ranges.Item[entry]{Start: pos, Length: s.Length, Value: entry{term: s.Terminator, dirty: true}})
		pos += s.Length
	}}
	for _, r := range t.text.Runes(0) {
		sc.feed(r)
	}
	sc.finish()
	if len(items) == 0 || items[len(items)-1].Value.term != None {
		items = append(items, ranges.Item[entry]{Start: pos, Value: entry{dirty: true}})
	}
	_ = t.lines.Insert(0, items...)
	t.lastRow = 0

	for _, g := range t.generators {
		g.Clear(t)
	}
	t.logger.Debug("rebuilt %d lines", len(items))
}

func (t *Table) checkRow(row int) error {
	if row < 0 || row >= t.lines.Len() {
		return fmt.Errorf("%w: %d of %d", ErrRowOutOfRange, row, t.lines.Len())
	}
	return nil
}

// Head returns the start offset of row.
func (t *Table) Head(row int) (int64, error) {
	if err := t.checkRow(row); err != nil {
		return 0, err
	}
	return t.lines.Head(row), nil
}

// Record returns a snapshot of row.
func (t *Table) Record(row int) (Record, error) {
	if err := t.checkRow(row); err != nil {
		return Record{}, err
	}
	t.restore(row)
	it := t.lines.At(row)
	return Record{
		Start:      it.Start,
		Length:     it.Length,
		Terminator: it.Value.term,
		Tokens:     it.Value.tokens,
		Dirty:      it.Value.dirty,
		FoldState:  it.Value.fold,
	}, nil
}

// Records iterates over rows [from, Count()).
func (t *Table) Records(from int) iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for row := max(from, 0); row < t.lines.Len(); row++ {
			rec, err := t.Record(row)
			if err != nil || !yield(row, rec) {
				return
			}
		}
	}
}

// RowOf returns the row containing offset. Offsets past the end map to
// the last row.
func (t *Table) RowOf(offset int64) int {
	n := t.lines.Len()
	if r := t.lastRow; r >= 0 && r < n {
		if t.rowContains(r, offset) {
			return r
		}
		if r+1 < n && t.rowContains(r+1, offset) {
			t.lastRow = r + 1
			return r + 1
		}
	}
	r := max(t.lines.Find(offset), 0)
	t.lastRow = r
	return r
}

func (t *Table) rowContains(row int, offset int64) bool {
	if t.lines.Head(row) > offset {
		return false
	}
	return row == t.lines.Len()-1 || offset < t.lines.Head(row+1)
}

// LineText returns row including its terminator.
func (t *Table) LineText(row int) (string, error) {
	if err := t.checkRow(row); err != nil {
		return "", err
	}
	it := t.lines.At(row)
	if it.Value.hasText {
		return it.Value.text, nil
	}
	s, err := t.text.Substring(it.Start, it.Length)
	if err != nil {
		return "", err
	}
	t.lines.Update(row, func(e *entry) {
		e.text, e.hasText = s, true
	})
	return s, nil
}

// LineContent returns row without its terminator.
func (t *Table) LineContent(row int) (string, error) {
	s, err := t.LineText(row)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(s, t.lines.At(row).Value.term.Sequence()), nil
}

// SetTokens stores row's syntax tokens and clears its dirty flag.
func (t *Table) SetTokens(row int, tokens []Token) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.restore(row)
	t.lines.Update(row, func(e *entry) {
		e.tokens = tokens
		e.dirty = false
		disposeLayouts(e)
	})
	return nil
}

// MarkDirty flags rows [from, to] for regeneration.
func (t *Table) MarkDirty(from, to int) {
	from, to = max(from, 0), min(to, t.lines.Len()-1)
	for row := from; row <= to; row++ {
		t.lines.Update(row, func(e *entry) { e.dirty = true })
	}
}

// FirstDirty returns the first dirty row at or after from, or -1.
func (t *Table) FirstDirty(from int) int {
	for row := max(from, 0); row < t.lines.Len(); row++ {
		t.restore(row)
		if t.lines.At(row).Value.dirty {
			return row
		}
	}
	return -1
}

// SetFoldState stores row's fold state.
func (t *Table) SetFoldState(row int, s FoldState) error {
	if err := t.checkRow(row); err != nil {
		return err
	}
	t.restore(row)
	t.lines.Update(row, func(e *entry) {
		if e.fold != s {
			e.fold = s
			disposeLayouts(e)
		}
	})
	return nil
}

// CheckEdit reports ErrLineTooLong if replacing removed characters at
// offset with text would produce a line longer than MaxLineLength.
func (t *Table) CheckEdit(offset, removed int64, text string) error {
	first := t.lines.At(t.RowOf(offset))
	last := t.lines.At(t.RowOf(offset + removed))
	prefix := offset - first.Start
	suffix := max(last.End()-(offset+removed), 0)

	segs := Split(text)
	longest := prefix + suffix
	switch {
	case len(segs) == 0:
	case len(segs) == 1 && segs[0].Terminator == None:
		longest += segs[0].Length
	default:
		longest = prefix + segs[0].Length
		for _, s := range segs[1:] {
			longest = max(longest, s.Length)
		}
		if end := segs[len(segs)-1]; end.Terminator == None {
			longest = max(longest, end.Length+suffix)
		} else {
			longest = max(longest, suffix)
		}
	}
	if longest > t.capacity {
		return fmt.Errorf("%w: %d characters", ErrLineTooLong, longest)
	}
	return nil
}

// Update reindexes the lines touched by d, which must already be applied
// to the text, then forwards d to the generators and the markers.
func (t *Table) Update(d buffer.Delta) (Change, error) {
	if d.IsEmpty() {
		return Change{FirstRow: -1, Row: -1}, nil
	}
	o, rem, ins := d.Offset, d.Removed, d.Inserted
	delta := ins - rem
	n := t.lines.Len()
	docLen := t.text.Len()

	startRow := t.RowOf(o)
	if startRow > 0 && o == t.lines.Head(startRow) && t.lines.At(startRow-1).Value.term == CR {
		// a "\n" arriving after a lone "\r" joins the previous line
		startRow--
	}
	endRow := t.RowOf(o + rem)

	winStart := t.lines.Head(startRow)
	winEnd := t.lines.At(endRow).End() + delta
	for winEnd < docLen && endRow < n-1 {
		if winEnd > winStart {
			done, err := t.terminatedAt(winEnd)
			if err != nil {
				return Change{}, err
			}
			if done {
				break
			}
		}
		endRow++
		winEnd += t.lines.At(endRow).Length
	}
	if winEnd >= docLen {
		endRow, winEnd = n-1, docLen
	}

	text, err := t.text.Substring(winStart, winEnd-winStart)
	if err != nil {
		return Change{}, err
	}
	segs := Split(text)
	if winEnd == docLen && (len(segs) == 0 || segs[len(segs)-1].Terminator != None) {
		segs = append(segs, Segment{})
	}

	old := make([]ranges.Item[entry], endRow-startRow+1)
	for i := range old {
		old[i] = t.lines.At(startRow + i)
	}

	// Lines at either end of the window whose text did not change keep
	// their metadata.
	pre := 0
	for pre < len(old) && pre < len(segs) && old[pre].End() <= o && sameExtent(old[pre], segs[pre]) {
		pre++
	}
	suf := 0
	for suf < len(old)-pre && suf < len(segs)-pre {
		it, s := old[len(old)-1-suf], segs[len(segs)-1-suf]
		if it.Start < o+rem || !sameExtent(it, s) {
			break
		}
		suf++
	}

	var tooLong error
	items := make([]ranges.Item[entry], len(segs))
	pos := winStart
	for i, s := range segs {
		v := entry{term: s.Terminator, dirty: true}
		switch {
		case i < pre:
			v = old[i].Value
		case i >= len(segs)-suf:
			v = old[len(old)-len(segs)+i].Value
		}
		if s.Length > t.capacity && tooLong == nil {
			tooLong = fmt.Errorf("%w: row %d has %d characters", ErrLineTooLong, startRow+i, s.Length)
		}
		items[i] = ranges.Item[entry]{Start: pos, Length: s.Length, Value: v}
		pos += s.Length
	}
	for i := pre; i < len(old)-suf; i++ {
		t.discard(&old[i].Value)
	}
	if err := t.lines.ReplaceRange(startRow, items, len(old), delta); err != nil {
		return Change{}, err
	}

	ch := Change{FirstRow: startRow, Removed: len(old), Inserted: len(segs), Row: -1}
	if len(old)-pre-suf == 1 && len(segs)-pre-suf == 1 {
		ch.Row = startRow + pre
	}
	t.lastRow = startRow
	t.logger.Debug("reindexed rows %d..%d into %d lines", startRow, endRow, len(segs))

	for _, g := range t.generators {
		g.Update(t, o, ins, rem)
	}
	if t.markers != nil {
		t.markers.UpdateMarkers(o, ins, rem)
	}
	return ch, tooLong
}

// terminatedAt reports whether a line break ends just before pos, that
// is, pos cannot be inside a line or between "\r" and "\n".
func (t *Table) terminatedAt(pos int64) (bool, error) {
	s, err := t.text.Substring(pos-1, 2)
	if err != nil {
		return false, err
	}
	r := []rune(s)
	if len(r) < 2 {
		return true, nil
	}
	return r[0] == '\n' || (r[0] == '\r' && r[1] != '\n'), nil
}

func sameExtent(it ranges.Item[entry], s Segment) bool {
	return it.Length == s.Length && it.Value.term == s.Terminator
}

func (t *Table) discard(e *entry) {
	disposeLayouts(e)
	if e.page != nil && t.pager != nil {
		t.pager.Release(*e.page)
	}
	e.page = nil
}

// Clone copies the index for a cloned text. Layouts are not copied and
// paged-out metadata is dropped, leaving those lines dirty.
func (t *Table) Clone(text Text, markers *marker.Collection) *Table {
	c := &Table{
		text:      text,
		lines:     t.lines.Clone(),
		lastRow:   t.lastRow,
		capacity:  t.capacity,
		subRange:  t.subRange,
		wrapWidth: t.wrapWidth,
		factory:   t.factory,
		markers:   markers,
		logger:    t.logger,
	}
	for i := range c.lines.Len() {
		c.lines.Update(i, func(e *entry) {
			e.layouts = nil
			if e.page != nil {
				e.page = nil
				e.tokens = nil
				e.dirty = true
			}
		})
	}
	return c
}

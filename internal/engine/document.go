package engine

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/folding"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/engine/pagecache"
	"github.com/dshills/textcore/internal/logging"
)

// Document is an editable text with its line index, overlays and undo
// history. See the package documentation for the concurrency contract.
type Document struct {
	id   uuid.UUID
	opts settings

	// Core components
	buf     *buffer.Buffer
	table   *lines.Table
	markers *marker.Collection
	history *history.Manager
	folds   *folding.Generator
	syntax  *highlight.Generator
	pager   *pagecache.Pager

	subs   *subscribers
	notify bool
	hooks  []InputHook

	find    *finder
	sel     []Selection
	primary int

	logger *logging.Logger
	now    func() time.Time
}

// New creates a document.
func New(opts ...Option) *Document {
	o := defaultSettings()
	for _, opt := range opts {
		opt(&o)
	}

	d := &Document{
		id:      uuid.New(),
		opts:    o,
		buf:     buffer.FromString(o.text, o.bufferOpts...),
		markers: marker.NewCollection(),
		history: history.NewManager(history.WithLimit(o.undoLimit), history.WithMergeWindow(o.mergeWindow)),
		subs:    &subscribers{},
		notify:  true,
		sel:     []Selection{{}},
		now:     time.Now,
	}
	d.logger = o.logger.WithComponent("engine").WithField("document", d.id.String())
	for _, w := range o.watchdogs {
		d.markers.AddWatchdog(w)
	}
	d.attach(nil)
	d.scan(0, d.buf.Len())
	return d
}

// attach builds the line index and the generators. A non-nil base is the
// table of the document being cloned.
func (d *Document) attach(base *lines.Table) {
	o := d.opts
	if base != nil {
		d.table = base.Clone(d.buf, d.markers)
	} else {
		if o.store != nil {
			d.pager = pagecache.NewPager(o.store, d.id, pagecache.WithBlockSize(o.blockSize), pagecache.WithLogger(o.logger))
		}
		topts := []lines.Option{
			lines.WithMarkers(d.markers),
			lines.WithSubRangeLength(o.subRange),
			lines.WithLogger(o.logger),
		}
		if o.capacity > 0 {
			topts = append(topts, lines.WithCapacity(o.capacity))
		}
		if o.factory != nil {
			topts = append(topts, lines.WithLayoutFactory(o.factory))
		}
		if d.pager != nil {
			topts = append(topts, lines.WithPager(d.pager))
		}
		d.table = lines.New(d.buf, topts...)
	}

	d.folds = folding.NewGenerator(o.strategy, folding.WithDebounce(o.tick, o.cutover), folding.WithLogger(o.logger))
	d.syntax = highlight.NewGenerator(o.highlighter, highlight.WithDebounce(o.tick, o.cutover), highlight.WithLogger(o.logger))
	d.table.Register(d.folds)
	d.table.Register(d.syntax)
}

// ID returns the document's identity. Clones get a new one.
func (d *Document) ID() uuid.UUID {
	return d.id
}

// Len returns the number of characters.
func (d *Document) Len() int64 {
	return d.buf.Len()
}

// Text returns the full content.
func (d *Document) Text() string {
	return d.buf.String()
}

// Substring returns length characters starting at offset.
func (d *Document) Substring(offset, length int64) (string, error) {
	s, err := d.buf.Substring(offset, length)
	return s, classify(err)
}

// Revision returns a counter incremented by every change to the text.
func (d *Document) Revision() uint64 {
	return d.buf.Revision()
}

// Buffer returns the character buffer. Mutating it directly bypasses the
// line index and the undo history.
func (d *Document) Buffer() *buffer.Buffer {
	return d.buf
}

// Table returns the line index, for layout and rendering collaborators.
func (d *Document) Table() *lines.Table {
	return d.table
}

// History returns the undo manager.
func (d *Document) History() *history.Manager {
	return d.history
}

// Folding returns the folding generator.
func (d *Document) Folding() *folding.Generator {
	return d.folds
}

func (d *Document) checkRange(offset, length int64) error {
	if length < 0 {
		return rangeError("negative length %d", length)
	}
	if n := d.buf.Len(); offset < 0 || offset > n || offset+length > n {
		return rangeError("[%d, %d) not in [0, %d]", offset, offset+length, n)
	}
	return nil
}

// ============================================================================
// Editing
// ============================================================================

// Insert inserts text at offset.
func (d *Document) Insert(offset int64, text string) error {
	return d.Replace(offset, 0, text, false)
}

// Remove removes length characters at offset.
func (d *Document) Remove(offset, length int64) error {
	return d.Replace(offset, length, "", false)
}

// Append inserts text at the end of the document.
func (d *Document) Append(text string) error {
	return d.Replace(d.buf.Len(), 0, text, false)
}

// Replace replaces length characters at offset with text and records the
// edit for undo. Markers lying entirely inside the replaced span are
// removed. A user edit also fires the input hooks when notifications are
// enabled. Replacing text with itself does nothing.
func (d *Document) Replace(offset, length int64, text string, isUserEdit bool) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}
	old, err := d.buf.Substring(offset, length)
	if err != nil {
		return classify(err)
	}
	if old == text {
		return nil
	}
	if err := d.commit(offset, length, text); err != nil {
		return err
	}
	d.record(offset, old, text)

	if isUserEdit && d.notify && len(d.hooks) > 0 {
		at := offset + int64(utf8.RuneCountInString(text))
		for _, h := range slices.Clone(d.hooks) {
			h(d, inputSignal(length, text), at)
		}
	}
	return nil
}

func (d *Document) record(offset int64, old, text string) {
	at := d.now()
	switch {
	case old == "":
		d.history.Push(history.Insert{Offset: offset, Text: text, At: at})
	case text == "":
		d.history.Push(history.Remove{Offset: offset, Text: old, At: at})
	default:
		d.history.Push(history.Replace{Offset: offset, Old: old, New: text, At: at})
	}
}

// commit runs the edit pipeline without touching the undo history. A
// replacement of the whole text is reindexed from scratch.
func (d *Document) commit(offset, length int64, text string) error {
	if err := d.checkRange(offset, length); err != nil {
		return err
	}
	if err := d.table.CheckEdit(offset, length, text); err != nil {
		return classify(err)
	}
	if n := d.buf.Len(); offset == 0 && length == n && n > 0 {
		return d.rebuild(text)
	}

	d.markers.RemoveAll(offset, length)
	delta, err := d.buf.Replace(offset, length, text)
	if err != nil {
		return classify(err)
	}
	if delta.IsEmpty() {
		return nil
	}
	ch, err := d.table.Update(delta)
	d.moveSelections(delta)
	if err != nil {
		return classify(err)
	}
	d.scan(offset, delta.Inserted)
	d.publish(Update{
		Type:       UpdateReplace,
		StartIndex: offset,
		Removed:    delta.Removed,
		Inserted:   delta.Inserted,
		Row:        ch.Row,
	})
	return nil
}

func (d *Document) rebuild(text string) error {
	delta, err := d.buf.Replace(0, d.buf.Len(), text)
	if err != nil {
		return classify(err)
	}
	d.markers.ClearAll()
	d.table.Rebuild()
	d.moveSelections(delta)
	d.scan(0, delta.Inserted)
	d.logger.Debug("rebuilt index: %d characters replaced by %d", delta.Removed, delta.Inserted)
	d.publish(Update{Type: UpdateRebuildLayout, Removed: delta.Removed, Inserted: delta.Inserted, Row: -1})
	return nil
}

// replaceText swaps the whole text for after as one undo step holding
// both versions.
func (d *Document) replaceText(before, after, name string) error {
	if before == after {
		return nil
	}
	if err := d.commit(0, int64(utf8.RuneCountInString(before)), after); err != nil {
		return err
	}
	d.history.Push(history.FullReplace{Before: before, After: after, Name: name})
	return nil
}

// Clear removes all text. It is undoable.
func (d *Document) Clear() error {
	before := d.buf.String()
	if before == "" {
		return nil
	}
	d.markers.ClearAll()
	delta := d.buf.Clear()
	d.table.Rebuild()
	d.moveSelections(delta)
	d.history.Push(history.FullReplace{Before: before, Name: "Clear"})
	d.publish(Update{Type: UpdateClear, Removed: delta.Removed, Row: -1})
	return nil
}

// InsertRectangle inserts block[i] at column at.Column of row at.Row+i.
// Short rows are padded with spaces and missing rows are appended. The
// insertion is one undo step. It fails with ErrInvalidOperation while
// notifications are disabled.
func (d *Document) InsertRectangle(at lines.Point, block []string) error {
	if !d.notify {
		return fmt.Errorf("%w: rectangular insert while notifications are disabled", ErrInvalidOperation)
	}
	if at.Row < 0 || at.Column < 0 {
		return rangeError("point %d:%d", at.Row, at.Column)
	}

	d.history.BeginGroup("Insert Rectangle")
	defer d.history.EndGroup()

	eol := d.buf.LineEnding().Sequence()
	for i, s := range block {
		row := at.Row + i
		for row >= d.table.Count() {
			if err := d.Append(eol); err != nil {
				return err
			}
		}
		rec, err := d.table.Record(row)
		if err != nil {
			return classify(err)
		}
		col, pad := at.Column, ""
		if n := rec.ContentLength(); col > n {
			pad = strings.Repeat(" ", int(col-n))
			col = n
		}
		if err := d.Replace(rec.Start+col, 0, pad+s, false); err != nil {
			return err
		}
	}
	return nil
}

// ============================================================================
// Undo/Redo
// ============================================================================

// undoTarget applies history commands through the edit pipeline.
type undoTarget Document

func (t *undoTarget) Apply(offset, removed int64, text string) error {
	return (*Document)(t).commit(offset, removed, text)
}

// Undo reverts the last undo step.
func (d *Document) Undo() error {
	if err := d.history.Undo((*undoTarget)(d)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return nil
}

// Redo reapplies the last undone step.
func (d *Document) Redo() error {
	if err := d.history.Redo((*undoTarget)(d)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}
	return nil
}

// CanUndo reports whether Undo would do anything.
func (d *Document) CanUndo() bool {
	return d.history.CanUndo()
}

// CanRedo reports whether Redo would do anything.
func (d *Document) CanRedo() bool {
	return d.history.CanRedo()
}

// BeginUndoGroup starts collecting edits into one undo step. Groups nest.
func (d *Document) BeginUndoGroup(name string) {
	d.history.BeginGroup(name)
}

// EndUndoGroup closes the group opened by BeginUndoGroup.
func (d *Document) EndUndoGroup() {
	d.history.EndGroup()
}

// ============================================================================
// Markers
// ============================================================================

// SetMarker marks [start, start+length) in category id, replacing the
// markers of that category it overlaps.
func (d *Document) SetMarker(id marker.ID, start, length int64, m marker.Marker) error {
	if err := d.checkRange(start, length); err != nil {
		return err
	}
	if err := d.markers.Set(id, start, length, m); err != nil {
		return classify(err)
	}
	d.table.InvalidateRange(start, length)
	return nil
}

// AddMarker marks [start, start+length) in category id without removing
// overlapping markers.
func (d *Document) AddMarker(id marker.ID, start, length int64, m marker.Marker) error {
	if err := d.checkRange(start, length); err != nil {
		return err
	}
	if err := d.markers.Add(id, start, length, m); err != nil {
		return classify(err)
	}
	d.table.InvalidateRange(start, length)
	return nil
}

// RemoveMarker removes the markers of category id overlapping
// [start, start+length).
func (d *Document) RemoveMarker(id marker.ID, start, length int64) error {
	if err := d.markers.RemoveRange(id, start, length); err != nil {
		return classify(err)
	}
	d.table.InvalidateRange(start, length)
	return nil
}

// Markers returns the markers of category id overlapping
// [offset, offset+length).
func (d *Document) Markers(id marker.ID, offset, length int64) ([]marker.Span, error) {
	s, err := d.markers.Get(id, offset, length)
	return s, classify(err)
}

// AddWatchdog registers w and scans the whole document with it.
func (d *Document) AddWatchdog(w marker.Watchdog) {
	d.markers.AddWatchdog(w)
	d.scan(0, d.buf.Len())
	d.table.Invalidate(0, d.table.Count()-1)
}

// scan re-runs the watchdogs over the lines touched by
// [offset, offset+length].
func (d *Document) scan(offset, length int64) {
	if len(d.markers.Watchdogs()) == 0 {
		return
	}
	first, last := d.table.RowOf(offset), d.table.RowOf(offset+length)
	head, err := d.table.Head(first)
	if err != nil {
		return
	}
	rec, err := d.table.Record(last)
	if err != nil {
		return
	}
	text, err := d.buf.Substring(head, rec.End()-head)
	if err != nil {
		d.logger.Warn("watchdog scan: %v", err)
		return
	}
	d.markers.Scan(text, head)
}

// ============================================================================
// Selections
// ============================================================================

// Select replaces all selections with one from anchor to head.
func (d *Document) Select(anchor, head int64) error {
	if err := d.checkSelection(anchor, head); err != nil {
		return err
	}
	d.setSelections([]Selection{{Anchor: anchor, Head: head}}, 0)
	return nil
}

// AddSelection adds a selection and makes it primary. Overlapping
// selections merge.
func (d *Document) AddSelection(anchor, head int64) error {
	if err := d.checkSelection(anchor, head); err != nil {
		return err
	}
	sel := append(slices.Clone(d.sel), Selection{Anchor: anchor, Head: head})
	d.setSelections(sel, len(sel)-1)
	return nil
}

func (d *Document) checkSelection(anchor, head int64) error {
	n := d.buf.Len()
	if anchor < 0 || anchor > n || head < 0 || head > n {
		return rangeError("selection %d..%d not in [0, %d]", anchor, head, n)
	}
	return nil
}

// Selections returns the selections sorted by start.
func (d *Document) Selections() []Selection {
	return slices.Clone(d.sel)
}

// Primary returns the primary selection.
func (d *Document) Primary() Selection {
	return d.sel[d.primary]
}

// Caret returns the head of the primary selection.
func (d *Document) Caret() int64 {
	return d.sel[d.primary].Head
}

// SelectedText returns the text of the primary selection.
func (d *Document) SelectedText() (string, error) {
	s := d.Primary()
	return d.Substring(s.Start(), s.Len())
}

func (d *Document) setSelections(sel []Selection, primary int) {
	for _, s := range d.sel {
		d.table.InvalidateRange(s.Start(), s.Len())
	}
	d.sel, d.primary = normalizeSelections(sel, primary)

	d.markers.Clear(marker.Selection)
	for _, s := range d.sel {
		if !s.IsEmpty() {
			_ = d.markers.Add(marker.Selection, s.Start(), s.Len(), marker.Marker{})
		}
		d.table.InvalidateRange(s.Start(), s.Len())
	}
}

func (d *Document) moveSelections(delta buffer.Delta) {
	sel := make([]Selection, len(d.sel))
	for i, s := range d.sel {
		sel[i] = s.transform(delta.Offset, delta.Removed, delta.Inserted)
	}
	d.setSelections(sel, d.primary)
}

// ============================================================================
// Navigation
// ============================================================================

// LineCount returns the number of lines. It is never zero.
func (d *Document) LineCount() int {
	return d.table.Count()
}

// LineText returns row including its terminator.
func (d *Document) LineText(row int) (string, error) {
	s, err := d.table.LineText(row)
	return s, classify(err)
}

// LineContent returns row without its terminator.
func (d *Document) LineContent(row int) (string, error) {
	s, err := d.table.LineContent(row)
	return s, classify(err)
}

// PointFromIndex converts an offset into a row and column.
func (d *Document) PointFromIndex(offset int64) (lines.Point, error) {
	if err := d.checkRange(offset, 0); err != nil {
		return lines.Point{}, err
	}
	return d.table.PointFromIndex(offset), nil
}

// IndexFromPoint converts a row and column into an offset. The column is
// clamped to the line.
func (d *Document) IndexFromPoint(p lines.Point) (int64, error) {
	i, err := d.table.IndexFromPoint(p)
	return i, classify(err)
}

// DisplayColumn returns the screen column of offset, expanding tabs and
// counting wide characters twice.
func (d *Document) DisplayColumn(offset int64) (int, error) {
	p, err := d.PointFromIndex(offset)
	if err != nil {
		return 0, err
	}
	c, err := d.table.DisplayColumn(p, d.opts.tabWidth)
	return c, classify(err)
}

// ============================================================================
// Layout and generators
// ============================================================================

// Layout returns the layouts of row, one per sub-range.
func (d *Document) Layout(row int) ([]lines.Layout, error) {
	l, err := d.table.Layout(row)
	return l, classify(err)
}

// SetWrapWidth changes the width passed to new layouts.
func (d *Document) SetWrapWidth(w float64) {
	d.table.SetWrapWidth(w)
	d.publish(Update{Type: UpdateBuildLayout, Row: -1})
}

// SetFoldingStrategy replaces the folding strategy. A nil strategy
// removes every fold on the next Refresh.
func (d *Document) SetFoldingStrategy(s folding.Strategy) {
	d.folds.SetStrategy(s)
}

// SetHighlighter replaces the syntax highlighter and drops all tokens.
func (d *Document) SetHighlighter(h highlight.Highlighter) {
	d.syntax.SetHighlighter(d.table, h)
}

// Highlighter returns the active syntax highlighter, if any.
func (d *Document) Highlighter() highlight.Highlighter {
	return d.syntax.Highlighter()
}

// Refresh runs the folding and syntax generators. Unforced runs are
// throttled. Generator errors are returned unchanged.
func (d *Document) Refresh(force bool) (bool, error) {
	changed, err := d.table.Generate(force)
	if changed {
		d.publish(Update{Type: UpdateBuildLayout, Row: -1})
	}
	return changed, err
}

// Tokens returns the syntax tokens of row.
func (d *Document) Tokens(row int) ([]lines.Token, error) {
	rec, err := d.table.Record(row)
	if err != nil {
		return nil, classify(err)
	}
	return rec.Tokens, nil
}

// Folds returns the current folds in document order.
func (d *Document) Folds() []folding.Fold {
	return slices.Collect(d.folds.All())
}

// Fold collapses the fold starting on row.
func (d *Document) Fold(row int) error {
	return d.foldOp(row, d.folds.Collapse)
}

// Unfold expands the fold starting on row.
func (d *Document) Unfold(row int) error {
	return d.foldOp(row, d.folds.Expand)
}

// ToggleFold flips the fold starting on row.
func (d *Document) ToggleFold(row int) error {
	return d.foldOp(row, d.folds.Toggle)
}

func (d *Document) foldOp(row int, op func(*lines.Table, int) error) error {
	if err := op(d.table, row); err != nil {
		return classify(err)
	}
	d.publish(Update{Type: UpdateBuildLayout, Row: row})
	return nil
}

// EvictMetadata pages out the metadata of every line outside rows
// [keepFrom, keepTo). It does nothing without a page store.
func (d *Document) EvictMetadata(keepFrom, keepTo int) (int, error) {
	return d.table.Evict(keepFrom, keepTo)
}

// ============================================================================
// Events and hooks
// ============================================================================

// Subscribe registers fn for every update.
func (d *Document) Subscribe(fn func(Update)) *Subscription {
	return d.subs.add(fn)
}

// SetNotifications enables or disables updates and input hooks.
func (d *Document) SetNotifications(enabled bool) {
	d.notify = enabled
}

// Notifications reports whether updates are sent.
func (d *Document) Notifications() bool {
	return d.notify
}

func (d *Document) publish(u Update) {
	if d.notify {
		d.subs.publish(u)
	}
}

// ============================================================================
// I/O
// ============================================================================

// Load replaces the content with the text read from r. The undo history,
// markers and selections are reset and the index is rebuilt, also when
// loading stops early; on cancellation the text read so far is kept.
func (d *Document) Load(ctx context.Context, r io.Reader) error {
	delta, err := d.buf.Load(ctx, r)
	d.history.Clear()
	d.markers.ClearAll()
	d.sel, d.primary = []Selection{{}}, 0
	d.table.Rebuild()
	d.scan(0, d.buf.Len())
	d.logger.Debug("loaded %d characters into %d lines", d.buf.Len(), d.table.Count())
	d.publish(Update{Type: UpdateRebuildLayout, Removed: delta.Removed, Inserted: d.buf.Len(), Row: -1})
	if err != nil {
		return fmt.Errorf("engine: load: %w", err)
	}
	return nil
}

// Save writes the content to w and returns the number of characters
// written, which differs from the byte count for non-ASCII text.
func (d *Document) Save(ctx context.Context, w io.Writer) (int64, error) {
	n, err := d.buf.Save(ctx, w)
	if err != nil {
		return n, fmt.Errorf("engine: save: %w", err)
	}
	return n, nil
}

// NewReader returns a streaming reader over the current content.
func (d *Document) NewReader() *buffer.Reader {
	return d.buf.NewReader()
}

// Clone returns an independent copy with a new ID. Text, line metadata,
// markers, selections and the find pattern are copied; the undo history,
// subscribers, input hooks and paged-out metadata are not.
func (d *Document) Clone() *Document {
	c := &Document{
		id:      uuid.New(),
		opts:    d.opts,
		buf:     d.buf.Clone(),
		markers: d.markers.Clone(),
		history: history.NewManager(history.WithLimit(d.opts.undoLimit), history.WithMergeWindow(d.opts.mergeWindow)),
		subs:    &subscribers{},
		notify:  d.notify,
		find:    d.find,
		sel:     slices.Clone(d.sel),
		primary: d.primary,
		now:     d.now,
	}
	c.opts.strategy = d.folds.Strategy()
	c.opts.highlighter = d.syntax.Highlighter()
	c.logger = d.opts.logger.WithComponent("engine").WithField("document", c.id.String())
	c.attach(d.table)
	return c
}

package folding

import (
	"cmp"
	"context"
	"errors"
	"iter"
	"slices"
	"time"

	"github.com/rdleal/intervalst/interval"

	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/ranges"
	"github.com/dshills/textcore/internal/logging"
)

// ErrNoFold is returned when a row does not start a fold.
var ErrNoFold = errors.New("folding: no fold at row")

// Fold is a foldable region in document offsets. It runs from the head
// of its first row to the end of its last row's content.
type Fold struct {
	Start    int64
	Length   int64
	Expanded bool
	// Depth is the number of folds enclosing this one.
	Depth int
}

// End returns the offset just past the fold.
func (f Fold) End() int64 {
	return f.Start + f.Length
}

type info struct {
	expanded bool
	depth    int
}

// Generator keeps the folds of one table up to date. It implements
// lines.Generator.
type Generator struct {
	strategy  Strategy
	folds     *ranges.Collection[info]
	tree      *interval.MultiValueSearchTree[Fold, int64]
	treeStale bool
	debounce  lines.Debouncer
	now       func() time.Time
	logger    *logging.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithDebounce throttles unforced regeneration.
func WithDebounce(tick time.Duration, cutover int64) Option {
	return func(g *Generator) {
		g.debounce = lines.Debouncer{Tick: tick, Cutover: cutover}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l.WithComponent("folding")
		}
	}
}

// NewGenerator creates a generator using s. A nil s behaves like Null.
func NewGenerator(s Strategy, opts ...Option) *Generator {
	if s == nil {
		s = Null{}
	}
	g := &Generator{
		strategy: s,
		folds:    ranges.New[info](),
		now:      time.Now,
		logger:   logging.NullLogger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Strategy returns the active strategy.
func (g *Generator) Strategy() Strategy {
	return g.strategy
}

// SetStrategy replaces the strategy. The next Generate recomputes.
func (g *Generator) SetStrategy(s Strategy) {
	if s == nil {
		s = Null{}
	}
	g.strategy = s
	g.debounce.Reset()
}

type span struct {
	start, end int64
}

// Generate asks the strategy for regions and rebuilds the folds. Folds
// that survive keep their collapsed state. Strategy errors are returned
// unchanged.
func (g *Generator) Generate(text lines.Text, t *lines.Table, force bool) (bool, error) {
	if !g.debounce.Allow(force, text.Len(), g.now()) {
		return false, nil
	}
	regions, err := g.strategy.Regions(context.Background(), t)
	if err != nil {
		return false, err
	}

	collapsed := make(map[int64]bool)
	for _, it := range g.folds.All() {
		if !it.Value.expanded {
			collapsed[it.Start] = true
		}
	}

	spans := make([]span, 0, len(regions))
	for _, r := range regions {
		if r.StartRow < 0 || r.EndRow <= r.StartRow || r.EndRow >= t.Count() {
			continue
		}
		head, _ := t.Head(r.StartRow)
		last, _ := t.Record(r.EndRow)
		end := last.Start + last.ContentLength()
		if end > head {
			spans = append(spans, span{head, end})
		}
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(a.start, b.start); c != 0 {
			return c
		}
		return cmp.Compare(b.end, a.end)
	})
	spans = slices.Compact(spans)

	next := ranges.New[info]()
	var open []int64
	for _, s := range spans {
		for len(open) > 0 && open[len(open)-1] <= s.start {
			open = open[:len(open)-1]
		}
		next.Add(ranges.Item[info]{
			Start:  s.start,
			Length: s.end - s.start,
			Value:  info{expanded: !collapsed[s.start], depth: len(open)},
		})
		open = append(open, s.end)
	}

	changed := !sameFolds(g.folds, next)
	g.folds = next
	g.treeStale = true
	if err := g.apply(t); err != nil {
		return changed, err
	}
	g.logger.Debug("generated %d folds", next.Len())
	return changed, nil
}

func sameFolds(a, b *ranges.Collection[info]) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a.Len() {
		if a.At(i) != b.At(i) {
			return false
		}
	}
	return true
}

// Update re-anchors the folds after an edit.
func (g *Generator) Update(_ *lines.Table, startIndex, insertedLength, removedLength int64) {
	g.folds.Edit(startIndex, insertedLength, removedLength)
	g.treeStale = true
}

// Clear removes every fold and resets the rows' fold state.
func (g *Generator) Clear(t *lines.Table) {
	g.folds.Clear()
	g.treeStale = true
	g.debounce.Reset()
	for row, rec := range t.Records(0) {
		if rec.FoldState != lines.FoldNone {
			_ = t.SetFoldState(row, lines.FoldNone)
		}
	}
}

// apply writes the fold state of every row into t.
func (g *Generator) apply(t *lines.Table) error {
	n := t.Count()
	states := make([]lines.FoldState, n)
	for _, it := range g.folds.All() {
		if it.Length <= 0 {
			continue
		}
		first := t.RowOf(it.Start)
		last := t.RowOf(it.End())
		if states[first] == lines.FoldNone {
			states[first] = lines.FoldExpanded
			if !it.Value.expanded {
				states[first] = lines.FoldCollapsed
			}
		}
		if !it.Value.expanded {
			for row := first + 1; row <= last && row < n; row++ {
				states[row] = lines.FoldHidden
			}
		}
	}
	for row, rec := range t.Records(0) {
		if rec.FoldState != states[row] {
			if err := t.SetFoldState(row, states[row]); err != nil {
				return err
			}
		}
	}
	return nil
}

func toFold(it ranges.Item[info]) Fold {
	return Fold{Start: it.Start, Length: it.Length, Expanded: it.Value.expanded, Depth: it.Value.depth}
}

// Len returns the number of folds.
func (g *Generator) Len() int {
	return g.folds.Len()
}

// All iterates over the folds in start order, outer folds first.
func (g *Generator) All() iter.Seq[Fold] {
	return func(yield func(Fold) bool) {
		for _, it := range g.folds.All() {
			if it.Length > 0 && !yield(toFold(it)) {
				return
			}
		}
	}
}

// At returns the outermost fold starting on row.
func (g *Generator) At(t *lines.Table, row int) (Fold, bool) {
	i := g.indexAt(t, row)
	if i < 0 {
		return Fold{}, false
	}
	return toFold(g.folds.At(i)), true
}

func (g *Generator) indexAt(t *lines.Table, row int) int {
	rec, err := t.Record(row)
	if err != nil {
		return -1
	}
	for i := g.folds.Search(rec.Start); i < g.folds.Len(); i++ {
		it := g.folds.At(i)
		if it.Start >= rec.End() {
			break
		}
		if it.Length > 0 {
			return i
		}
	}
	return -1
}

// Expand opens the fold starting on row.
func (g *Generator) Expand(t *lines.Table, row int) error {
	return g.setExpanded(t, row, func(bool) bool { return true })
}

// Collapse closes the fold starting on row.
func (g *Generator) Collapse(t *lines.Table, row int) error {
	return g.setExpanded(t, row, func(bool) bool { return false })
}

// Toggle flips the fold starting on row.
func (g *Generator) Toggle(t *lines.Table, row int) error {
	return g.setExpanded(t, row, func(e bool) bool { return !e })
}

func (g *Generator) setExpanded(t *lines.Table, row int, fn func(bool) bool) error {
	i := g.indexAt(t, row)
	if i < 0 {
		return ErrNoFold
	}
	g.folds.Update(i, func(v *info) { v.expanded = fn(v.expanded) })
	g.treeStale = true
	return g.apply(t)
}

// ExpandAll opens every fold.
func (g *Generator) ExpandAll(t *lines.Table) error {
	for i := range g.folds.Len() {
		g.folds.Update(i, func(v *info) { v.expanded = true })
	}
	g.treeStale = true
	return g.apply(t)
}

// Enclosing returns the folds containing offset, outermost first.
func (g *Generator) Enclosing(offset int64) []Fold {
	if g.folds.Len() == 0 {
		return nil
	}
	if g.tree == nil || g.treeStale {
		g.rebuildTree()
	}
	found, ok := g.tree.AllIntersections(offset, offset+1)
	if !ok {
		return nil
	}
	out := make([]Fold, 0, len(found))
	for _, f := range found {
		if f.Start <= offset && offset < f.End() {
			out = append(out, f)
		}
	}
	slices.SortFunc(out, func(a, b Fold) int { return a.Depth - b.Depth })
	return out
}

func (g *Generator) rebuildTree() {
	g.tree = interval.NewMultiValueSearchTree[Fold](func(a, b int64) int {
		return cmp.Compare(a, b)
	})
	for _, it := range g.folds.All() {
		if it.Length > 0 {
			g.tree.Insert(it.Start, it.End(), toFold(it))
		}
	}
	g.treeStale = false
}

// Hidden reports whether row lies inside a collapsed fold.
func (g *Generator) Hidden(t *lines.Table, row int) bool {
	rec, err := t.Record(row)
	return err == nil && rec.FoldState == lines.FoldHidden
}

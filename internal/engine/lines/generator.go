package lines

import (
	"slices"
	"time"
)

// Generator derives per-line metadata from the text, such as fold state
// or syntax tokens. Generate recomputes what is stale and reports whether
// anything changed. Update is called after each reindex with the edit
// that caused it. Clear drops everything the generator stored.
type Generator interface {
	Generate(text Text, t *Table, force bool) (bool, error)
	Update(t *Table, startIndex, insertedLength, removedLength int64)
	Clear(t *Table)
}

// Register adds g. Generators run in registration order.
func (t *Table) Register(g Generator) {
	t.generators = append(t.generators, g)
}

// Unregister removes g and clears what it stored.
func (t *Table) Unregister(g Generator) {
	i := slices.Index(t.generators, g)
	if i < 0 {
		return
	}
	t.generators = slices.Delete(t.generators, i, i+1)
	g.Clear(t)
}

// Generators returns the registered generators.
func (t *Table) Generators() []Generator {
	return slices.Clone(t.generators)
}

// Generate runs every generator and reports whether any changed the
// table. The first generator error stops the run.
func (t *Table) Generate(force bool) (bool, error) {
	changed := false
	for _, g := range t.generators {
		ok, err := g.Generate(t.text, t, force)
		if err != nil {
			return changed, err
		}
		changed = changed || ok
	}
	return changed, nil
}

// Debouncer throttles full recomputations. The zero value allows every
// call.
type Debouncer struct {
	// Tick is the minimum interval between unforced runs.
	Tick time.Duration
	// Cutover disables unforced runs for documents longer than this many
	// characters. Zero means no cutover.
	Cutover int64

	last time.Time
}

// Allow reports whether a run may start at now and, if so, records it.
// A forced run is always allowed.
func (d *Debouncer) Allow(force bool, docLen int64, now time.Time) bool {
	if !force {
		if d.Cutover > 0 && docLen > d.Cutover {
			return false
		}
		if !d.last.IsZero() && now.Sub(d.last) < d.Tick {
			return false
		}
	}
	d.last = now
	return true
}

// Reset forgets the last run.
func (d *Debouncer) Reset() {
	d.last = time.Time{}
}

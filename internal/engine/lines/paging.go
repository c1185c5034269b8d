package lines

import (
	"github.com/dshills/textcore/internal/engine/pagecache"
)

// Evict moves the metadata of every line outside rows [keepFrom, keepTo)
// to the pager and returns the number of lines evicted. Lines without
// tokens or fold state stay in memory. Evicted metadata is restored
// transparently on the next access.
func (t *Table) Evict(keepFrom, keepTo int) (int, error) {
	if t.pager == nil {
		return 0, nil
	}
	evicted := 0
	var rows []int
	var run []pagecache.Record
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		refs, err := t.pager.Evict(run)
		if err != nil {
			return err
		}
		for i, row := range rows {
			ref := refs[i]
			t.lines.Update(row, func(e *entry) {
				disposeLayouts(e)
				e.tokens = nil
				e.fold = FoldNone
				e.page = &ref
			})
		}
		evicted += len(rows)
		rows, run = rows[:0], nil
		return nil
	}

	for row := range t.lines.Len() {
		if row >= keepFrom && row < keepTo {
			if err := flush(); err != nil {
				return evicted, err
			}
			continue
		}
		it := t.lines.At(row)
		e := it.Value
		if e.page != nil || (len(e.tokens) == 0 && e.fold == FoldNone) {
			continue
		}
		rows = append(rows, row)
		run = append(run, toPageRecord(it))
		if len(run) == t.pager.BlockSize() {
			if err := flush(); err != nil {
				return evicted, err
			}
		}
	}
	if err := flush(); err != nil {
		return evicted, err
	}
	t.logger.Debug("evicted metadata of %d lines", evicted)
	return evicted, nil
}

// restore brings row's paged-out metadata back into memory. Metadata
// that cannot be read back is regenerated: the line is marked dirty.
func (t *Table) restore(row int) {
	it := t.lines.At(row)
	if it.Value.page == nil {
		return
	}
	ref := *it.Value.page
	rec, err := t.pager.Restore(ref)
	if err != nil {
		t.logger.Warn("restore row %d: %v", row, err)
	}
	t.lines.Update(row, func(e *entry) {
		e.page = nil
		if err != nil || rec.Length != it.Length {
			e.dirty = true
			return
		}
		e.dirty = rec.Dirty
		e.fold = FoldState(rec.FoldState)
		if len(rec.Tokens) > 0 {
			e.tokens = make([]Token, len(rec.Tokens))
			for i, tok := range rec.Tokens {
				e.tokens[i] = Token{Type: int(tok.Type), Start: tok.Start, Length: tok.Length}
			}
		}
	})
}

// Paged reports whether row's metadata is currently evicted.
func (t *Table) Paged(row int) bool {
	if t.checkRow(row) != nil {
		return false
	}
	return t.lines.At(row).Value.page != nil
}

func toPageRecord(it lineItem) pagecache.Record {
	rec := pagecache.Record{
		Start:     it.Start,
		Length:    it.Length,
		Dirty:     it.Value.dirty,
		FoldState: int64(it.Value.fold),
	}
	if len(it.Value.tokens) > 0 {
		rec.Tokens = make([]pagecache.Token, len(it.Value.tokens))
		for i, tok := range it.Value.tokens {
			rec.Tokens[i] = pagecache.Token{Type: int64(tok.Type), Start: tok.Start, Length: tok.Length}
		}
	}
	return rec
}

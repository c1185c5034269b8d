package engine

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/dshills/textcore/internal/engine/folding"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/history"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
)

func lineTexts(t *testing.T, d *Document) []string {
	t.Helper()
	out := make([]string, d.LineCount())
	for row := range out {
		s, err := d.LineText(row)
		if err != nil {
			t.Fatalf("LineText(%d) error: %v", row, err)
		}
		out[row] = s
	}
	return out
}

func TestAppendThenInsert(t *testing.T) {
	d := New()
	if err := d.Append("a\nb\nc\nd"); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := d.Insert(2, "x"); err != nil {
		t.Fatalf("Insert error: %v", err)
	}

	want := []string{"a\n", "xb\n", "c\n", "d"}
	if got := lineTexts(t, d); !slices.Equal(got, want) {
		t.Errorf("lines = %q, want %q", got, want)
	}
}

func TestMixedTerminators(t *testing.T) {
	d := New(WithText("a\nb\rc\r\nd"))

	wantLen := []int64{2, 2, 3, 1}
	wantTerm := []lines.Terminator{lines.LF, lines.CR, lines.CRLF, lines.None}
	if d.LineCount() != len(wantLen) {
		t.Fatalf("LineCount = %d, want %d", d.LineCount(), len(wantLen))
	}
	for row := range wantLen {
		rec, err := d.Table().Record(row)
		if err != nil {
			t.Fatalf("Record(%d) error: %v", row, err)
		}
		if rec.Length != wantLen[row] || rec.Terminator != wantTerm[row] {
			t.Errorf("row %d = (%d, %v), want (%d, %v)", row, rec.Length, rec.Terminator, wantLen[row], wantTerm[row])
		}
	}
}

func TestUndoRestoresMixedTerminators(t *testing.T) {
	const original = "one\ntwo\rthree\r\nfour"
	d := New(WithText(original), WithMergeWindow(-1))

	edits := []func() error{
		func() error { return d.Insert(3, "\r\n") },
		func() error { return d.Remove(7, 2) },
		func() error { return d.Replace(0, 5, "X\rY\n", true) },
		func() error { return d.Append("\n") },
		func() error { return d.Remove(d.Len()-3, 3) },
	}
	for i, edit := range edits {
		if err := edit(); err != nil {
			t.Fatalf("edit %d error: %v", i, err)
		}
	}
	edited := d.Text()

	for d.CanUndo() {
		if err := d.Undo(); err != nil {
			t.Fatalf("Undo error: %v", err)
		}
	}
	if got := d.Text(); got != original {
		t.Errorf("after undo = %q, want %q", got, original)
	}
	if got := strings.Join(lineTexts(t, d), ""); got != original {
		t.Errorf("lines after undo = %q, want %q", got, original)
	}

	for d.CanRedo() {
		if err := d.Redo(); err != nil {
			t.Fatalf("Redo error: %v", err)
		}
	}
	if got := d.Text(); got != edited {
		t.Errorf("after redo = %q, want %q", got, edited)
	}
}

func TestReplaceValidation(t *testing.T) {
	tests := []struct {
		name           string
		offset, length int64
	}{
		{"negative offset", -1, 0},
		{"negative length", 0, -1},
		{"past end", 4, 0},
		{"span past end", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(WithText("abc"))
			err := d.Replace(tt.offset, tt.length, "x", false)
			if !errors.Is(err, ErrRange) {
				t.Errorf("error = %v, want ErrRange", err)
			}
			if d.Text() != "abc" || d.CanUndo() {
				t.Errorf("failed edit changed the document: %q", d.Text())
			}
		})
	}
}

func TestReplaceNoOp(t *testing.T) {
	d := New(WithText("abc"))
	var got []Update
	d.Subscribe(func(u Update) { got = append(got, u) })

	if err := d.Replace(1, 1, "b", false); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if len(got) != 0 || d.CanUndo() {
		t.Errorf("no-op replace produced updates %v or an undo step", got)
	}
}

func TestUndoEmpty(t *testing.T) {
	err := New().Undo()
	if !errors.Is(err, ErrInvalidOperation) || !errors.Is(err, history.ErrNothingToUndo) {
		t.Errorf("Undo on new document = %v", err)
	}
}

func TestUpdates(t *testing.T) {
	d := New(WithText("abc"))
	var got []Update
	sub := d.Subscribe(func(u Update) { got = append(got, u) })

	steps := []struct {
		name string
		edit func() error
		want Update
	}{
		{"single line", func() error { return d.Insert(1, "x") },
			Update{Type: UpdateReplace, StartIndex: 1, Inserted: 1, Row: 0}},
		{"line break", func() error { return d.Insert(2, "\n") },
			Update{Type: UpdateReplace, StartIndex: 2, Inserted: 1, Row: -1}},
		{"remove", func() error { return d.Remove(0, 1) },
			Update{Type: UpdateReplace, StartIndex: 0, Removed: 1, Row: 0}},
		{"clear", d.Clear,
			Update{Type: UpdateClear, Removed: 4, Row: -1}},
	}
	for _, st := range steps {
		got = nil
		if err := st.edit(); err != nil {
			t.Fatalf("%s: error %v", st.name, err)
		}
		if len(got) != 1 || got[0] != st.want {
			t.Errorf("%s: updates = %+v, want %+v", st.name, got, st.want)
		}
	}

	got = nil
	d.SetNotifications(false)
	_ = d.Insert(0, "q")
	d.SetNotifications(true)
	sub.Pause()
	_ = d.Insert(0, "q")
	sub.Resume()
	sub.Cancel()
	_ = d.Insert(0, "q")
	if len(got) != 0 {
		t.Errorf("updates delivered while disabled, paused or cancelled: %+v", got)
	}
	if sub.State() != SubscriptionCancelled {
		t.Errorf("State = %v, want cancelled", sub.State())
	}
}

func TestFind(t *testing.T) {
	d := New(WithText("is this a pen"))
	if _, err := d.Find(0, d.Len()); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("Find without pattern error = %v", err)
	}
	if err := d.SetFindParam("is", FindOptions{}); err != nil {
		t.Fatalf("SetFindParam error: %v", err)
	}
	seq, err := d.Find(0, d.Len())
	if err != nil {
		t.Fatalf("Find error: %v", err)
	}

	var got [][2]int64
	for m := range seq {
		got = append(got, [2]int64{m.Start, m.Last()})
	}
	want := [][2]int64{{0, 1}, {5, 6}}
	if !slices.Equal(got, want) {
		t.Errorf("matches = %v, want %v", got, want)
	}

	// ranging again restarts
	n := 0
	for range seq {
		n++
	}
	if n != 2 {
		t.Errorf("second pass found %d matches", n)
	}

	if _, err := d.Find(3, 100); !errors.Is(err, ErrRange) {
		t.Errorf("out of range Find error = %v", err)
	}
}

func TestFindAcrossLinesAndRanges(t *testing.T) {
	d := New(WithText("foo\r\nbar foo\nFOO"))
	if err := d.SetFindParam("foo", FindOptions{IgnoreCase: true}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		start, length int64
		want          []int64
	}{
		{0, 16, []int64{0, 9, 13}},
		{1, 15, []int64{9, 13}},
		{0, 11, []int64{0}},
		{0, 12, []int64{0, 9}},
	}
	for _, tt := range tests {
		seq, err := d.Find(tt.start, tt.length)
		if err != nil {
			t.Fatalf("Find(%d, %d) error: %v", tt.start, tt.length, err)
		}
		var got []int64
		for m := range seq {
			got = append(got, m.Start)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("Find(%d, %d) = %v, want %v", tt.start, tt.length, got, tt.want)
		}
	}
}

func TestFindResumesAfterEdits(t *testing.T) {
	d := New(WithText("is this is"))
	if err := d.SetFindParam("is", FindOptions{}); err != nil {
		t.Fatal(err)
	}
	seq, err := d.FindAll()
	if err != nil {
		t.Fatal(err)
	}

	var starts []int64
	for m := range seq {
		starts = append(starts, m.Start)
		if err := d.Replace(m.Start, m.Length, "XYZ", false); err != nil {
			t.Fatalf("Replace error: %v", err)
		}
	}
	if want := []int64{0, 6, 10}; !slices.Equal(starts, want) {
		t.Errorf("match starts = %v, want %v", starts, want)
	}
	if got, want := d.Text(), "XYZ thXYZ XYZ"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestReplaceAll(t *testing.T) {
	d := New(WithText("foo bar\nfoooo"))
	var types []UpdateType
	d.Subscribe(func(u Update) { types = append(types, u.Type) })

	if _, err := d.ReplaceAll("x", false); !errors.Is(err, ErrInvalidOperation) {
		t.Fatalf("ReplaceAll without pattern error = %v", err)
	}
	if err := d.SetFindParam(`f(o+)`, FindOptions{Regexp: true}); err != nil {
		t.Fatal(err)
	}
	n, err := d.ReplaceAll("g$1", true)
	if err != nil {
		t.Fatalf("ReplaceAll error: %v", err)
	}
	if n != 2 || d.Text() != "goo bar\ngoooo" {
		t.Errorf("ReplaceAll = %d, %q", n, d.Text())
	}
	if !slices.Equal(types, []UpdateType{UpdateRebuildLayout}) {
		t.Errorf("updates = %v, want one rebuild", types)
	}

	n, err = d.ReplaceAllLiteral("GOO", "$1", true)
	if err != nil {
		t.Fatalf("ReplaceAllLiteral error: %v", err)
	}
	if n != 2 || d.Text() != "$1 bar\n$1oo" {
		t.Errorf("ReplaceAllLiteral = %d, %q", n, d.Text())
	}

	// each bulk replace is one undo step holding the previous text
	_ = d.Undo()
	if d.Text() != "goo bar\ngoooo" {
		t.Errorf("after first undo = %q", d.Text())
	}
	_ = d.Undo()
	if d.Text() != "foo bar\nfoooo" {
		t.Errorf("after second undo = %q", d.Text())
	}
	if d.LineCount() != 2 {
		t.Errorf("LineCount = %d after undo", d.LineCount())
	}
}

func TestReplaceAllMatchesFind(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		pattern string
		want    string
	}{
		{"end anchor", "a\nb\na", `$`, "a#\nb#\na#"},
		{"start anchor", "a\nb\na", `^`, "#a\n#b\n#a"},
		{"no match across terminator", "a\nb\na", `a\sb`, "a\nb\na"},
		{"crlf kept", "a\r\nb\n", `$`, "a#\r\nb#\n"},
		{"empty middle line", "a\n\nb", `^$`, "a\n#\nb"},
		{"plain", "ab\rba", `a`, "#b\rb#"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(WithText(tt.text))
			if err := d.SetFindParam(tt.pattern, FindOptions{Regexp: true}); err != nil {
				t.Fatal(err)
			}
			seq, err := d.FindAll()
			if err != nil {
				t.Fatal(err)
			}
			found := 0
			for range seq {
				found++
			}

			n, err := d.ReplaceAll("#", false)
			if err != nil {
				t.Fatalf("ReplaceAll error: %v", err)
			}
			if n != found {
				t.Errorf("ReplaceAll replaced %d, Find yields %d", n, found)
			}
			if got := d.Text(); got != tt.want {
				t.Errorf("text = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReplaceAllLiteralStaysOnLines(t *testing.T) {
	d := New(WithText("a\nb\nA\nb"))
	n, err := d.ReplaceAllLiteral("a\nb", "x", false)
	if err != nil || n != 0 || d.Text() != "a\nb\nA\nb" {
		t.Errorf("ReplaceAllLiteral across lines = %d, %v, %q", n, err, d.Text())
	}
	n, err = d.ReplaceAllLiteral("a", "x", true)
	if err != nil || n != 2 || d.Text() != "x\nb\nx\nb" {
		t.Errorf("ReplaceAllLiteral = %d, %v, %q", n, err, d.Text())
	}
}

func TestLineCapacity(t *testing.T) {
	tests := []struct {
		name   string
		edit   func(d *Document) error
		wantOK bool
	}{
		{"fits", func(d *Document) error { return d.Insert(3, "x") }, true},
		{"too long", func(d *Document) error { return d.Replace(3, 0, "xyz", true) }, false},
		{"break keeps lines short", func(d *Document) error { return d.Insert(3, "xy\nzw") }, true},
		{"joining lines", func(d *Document) error { return d.Remove(3, 1) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New(WithText("abc\ndef"), WithLineCapacity(5))
			err := tt.edit(d)
			if tt.wantOK {
				if err != nil {
					t.Errorf("edit error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrCapacity) || !errors.Is(err, lines.ErrLineTooLong) {
				t.Errorf("err = %v, want ErrCapacity wrapping lines.ErrLineTooLong", err)
			}
			if d.Text() != "abc\ndef" {
				t.Errorf("text = %q after a rejected edit", d.Text())
			}
			if d.history.CanUndo() {
				t.Error("rejected edit recorded for undo")
			}
		})
	}
}

func TestMarkersFollowEdits(t *testing.T) {
	d := New(WithText("hello world"))
	if err := d.SetMarker(marker.Highlight, 6, 5, marker.Marker{Kind: marker.KindMark}); err != nil {
		t.Fatal(err)
	}
	start := func() int64 {
		t.Helper()
		spans, err := d.Markers(marker.Highlight, 0, d.Len())
		if err != nil {
			t.Fatal(err)
		}
		if len(spans) != 1 {
			return -1
		}
		return spans[0].Start
	}

	_ = d.Insert(0, "ab")
	if got := start(); got != 8 {
		t.Errorf("after insert before: start = %d, want 8", got)
	}
	_ = d.Remove(0, 2)
	if got := start(); got != 6 {
		t.Errorf("after remove before: start = %d, want 6", got)
	}
	_ = d.Insert(8, "xx")
	if got := start(); got != 6 {
		t.Errorf("after insert inside: start = %d, want 6", got)
	}
	_ = d.Replace(6, 7, "there", false)
	if got := start(); got != -1 {
		t.Errorf("marker inside replaced span survived at %d", got)
	}

	if err := d.SetMarker(marker.Highlight, 0, 50, marker.Marker{}); !errors.Is(err, ErrRange) {
		t.Errorf("SetMarker out of range error = %v", err)
	}
}

func TestWatchdogMarkers(t *testing.T) {
	d := New(WithText("see http://a.io now"), WithWatchdogs(marker.URLWatchdog()))

	urls := func() []marker.Span {
		spans, err := d.Markers(marker.URL, 0, d.Len())
		if err != nil {
			t.Fatal(err)
		}
		return spans
	}
	if got := urls(); len(got) != 1 || got[0].Start != 4 || got[0].Length != 11 {
		t.Fatalf("initial URL markers = %+v", got)
	}

	_ = d.Append("\nand https://b.io")
	if got := urls(); len(got) != 2 || got[1].Start != 24 {
		t.Errorf("after append URL markers = %+v", got)
	}

	_ = d.Remove(4, 7)
	if got := urls(); len(got) != 1 {
		t.Errorf("after removing the first URL = %+v", got)
	}
}

func TestSelections(t *testing.T) {
	d := New(WithText("hello world"))
	if err := d.Select(0, 5); err != nil {
		t.Fatal(err)
	}
	_ = d.Insert(0, "> ")

	if got := d.Primary(); got != (Selection{Anchor: 2, Head: 7}) {
		t.Errorf("selection after insert = %+v", got)
	}
	if d.Caret() != 7 {
		t.Errorf("Caret = %d, want 7", d.Caret())
	}
	spans, _ := d.Markers(marker.Selection, 0, d.Len())
	if len(spans) != 1 || spans[0].Start != 2 || spans[0].Length != 5 {
		t.Errorf("selection markers = %+v", spans)
	}
	if s, _ := d.SelectedText(); s != "hello" {
		t.Errorf("SelectedText = %q", s)
	}

	if err := d.AddSelection(12, 12); err != nil {
		t.Fatal(err)
	}
	if err := d.AddSelection(4, 9); err != nil {
		t.Fatal(err)
	}
	want := []Selection{{Anchor: 2, Head: 9}, {Anchor: 12, Head: 12}}
	if got := d.Selections(); !slices.Equal(got, want) {
		t.Errorf("Selections = %+v, want %+v", got, want)
	}
	if d.Primary() != want[0] {
		t.Errorf("Primary = %+v, want the merged selection", d.Primary())
	}

	if err := d.Select(0, 100); !errors.Is(err, ErrRange) {
		t.Errorf("Select out of range error = %v", err)
	}
}

func TestAutoIndent(t *testing.T) {
	d := New(WithText("\tfoo"))
	d.OnUserInput(AutoIndent)
	var signals []string
	d.OnUserInput(func(_ *Document, signal string, _ int64) {
		signals = append(signals, signal)
	})

	if err := d.Replace(4, 0, "\n", true); err != nil {
		t.Fatal(err)
	}
	if got := d.Text(); got != "\tfoo\n\t" {
		t.Errorf("text = %q", got)
	}
	_ = d.Replace(0, 1, "", true)
	_ = d.Replace(0, 0, "x", true)
	if want := []string{SignalNewline, SignalBackspace, ""}; !slices.Equal(signals, want) {
		t.Errorf("signals = %q, want %q", signals, want)
	}

	d.SetNotifications(false)
	_ = d.Replace(0, 0, "\n", true)
	if len(signals) != 3 {
		t.Errorf("hooks fired with notifications disabled")
	}
}

func TestInsertRectangle(t *testing.T) {
	d := New(WithText("ab\ncd"))
	if err := d.InsertRectangle(lines.Point{Row: 0, Column: 1}, []string{"X", "Y", "Z"}); err != nil {
		t.Fatal(err)
	}
	if got, want := d.Text(), "aXb\ncYd\n Z"; got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
	if err := d.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := d.Text(); got != "ab\ncd" {
		t.Errorf("after undo = %q", got)
	}

	d.SetNotifications(false)
	err := d.InsertRectangle(lines.Point{}, []string{"x"})
	if !errors.Is(err, ErrInvalidOperation) {
		t.Errorf("error with notifications disabled = %v", err)
	}
}

func TestPointRoundTrip(t *testing.T) {
	d := New(WithText("a\r\nb\rc\n\nd"))
	for i := int64(0); i <= d.Len(); i++ {
		p, err := d.PointFromIndex(i)
		if err != nil {
			t.Fatalf("PointFromIndex(%d) error: %v", i, err)
		}
		got, err := d.IndexFromPoint(p)
		if err != nil {
			t.Fatalf("IndexFromPoint(%+v) error: %v", p, err)
		}
		if got != i {
			t.Errorf("round trip of %d through %+v = %d", i, p, got)
		}
	}
	if _, err := d.PointFromIndex(d.Len() + 1); !errors.Is(err, ErrRange) {
		t.Errorf("PointFromIndex past end error = %v", err)
	}
	if _, err := d.IndexFromPoint(lines.Point{Row: 9}); !errors.Is(err, ErrRange) {
		t.Errorf("IndexFromPoint bad row error = %v", err)
	}
}

func TestGenerators(t *testing.T) {
	const src = "func main() {\n\tif x {\n\t\ty()\n\t}\n}\n"
	d := New(
		WithText(src),
		WithFoldingStrategy(folding.NewBrace()),
		WithHighlighter(highlight.GoHighlighter()),
	)
	var updates []Update
	d.Subscribe(func(u Update) { updates = append(updates, u) })

	changed, err := d.Refresh(true)
	if err != nil || !changed {
		t.Fatalf("Refresh = %v, %v", changed, err)
	}
	if len(d.Folds()) != 2 {
		t.Errorf("folds = %+v", d.Folds())
	}
	toks, err := d.Tokens(0)
	if err != nil || len(toks) == 0 || toks[0].Start != 0 || toks[0].Length != 4 {
		t.Errorf("tokens of row 0 = %+v, %v", toks, err)
	}

	if err := d.Fold(0); err != nil {
		t.Fatal(err)
	}
	rec, _ := d.Table().Record(1)
	if rec.FoldState != lines.FoldHidden {
		t.Errorf("row 1 fold state = %v, want hidden", rec.FoldState)
	}
	if err := d.Fold(2); !errors.Is(err, folding.ErrNoFold) {
		t.Errorf("Fold on a plain row error = %v", err)
	}
	if len(updates) != 2 || updates[1] != (Update{Type: UpdateBuildLayout, Row: 0}) {
		t.Errorf("updates = %+v", updates)
	}

	d.SetFoldingStrategy(nil)
	if _, err := d.Refresh(true); err != nil {
		t.Fatal(err)
	}
	if len(d.Folds()) != 0 {
		t.Errorf("null strategy left folds %+v", d.Folds())
	}
}

func TestLoadSave(t *testing.T) {
	d := New(WithText("old"))
	_ = d.Insert(0, "x")
	if err := d.Load(context.Background(), strings.NewReader("one\ntwo\n")); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if d.LineCount() != 3 || d.CanUndo() {
		t.Errorf("after load: %d lines, CanUndo %v", d.LineCount(), d.CanUndo())
	}

	var out bytes.Buffer
	if _, err := d.Save(context.Background(), &out); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if out.String() != "one\ntwo\n" {
		t.Errorf("saved %q", out.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := d.Load(ctx, strings.NewReader("z")); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled Load error = %v", err)
	}
}

func TestSaveReturnsCharacters(t *testing.T) {
	d := New(WithText("héllo\n"))
	var out bytes.Buffer
	n, err := d.Save(context.Background(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 || out.Len() != 7 {
		t.Errorf("Save = %d characters, %d bytes; want 6 and 7", n, out.Len())
	}
}

func TestClone(t *testing.T) {
	d := New(WithText("abc\ndef"))
	_ = d.SetMarker(marker.Highlight, 4, 3, marker.Marker{})
	_ = d.SetFindParam("e", FindOptions{})

	c := d.Clone()
	if c.ID() == d.ID() {
		t.Error("clone shares the document ID")
	}
	if c.CanUndo() {
		t.Error("clone copied the undo history")
	}
	_ = c.Insert(0, "zz")

	if d.Text() != "abc\ndef" || c.Text() != "zzabc\ndef" {
		t.Errorf("texts = %q, %q", d.Text(), c.Text())
	}
	orig, _ := d.Markers(marker.Highlight, 0, d.Len())
	cloned, _ := c.Markers(marker.Highlight, 0, c.Len())
	if len(orig) != 1 || orig[0].Start != 4 || len(cloned) != 1 || cloned[0].Start != 6 {
		t.Errorf("markers = %+v, %+v", orig, cloned)
	}
	if seq, err := c.FindAll(); err != nil {
		t.Errorf("clone lost the find pattern: %v", err)
	} else {
		for m := range seq {
			if m.Start != 7 {
				t.Errorf("clone match at %d", m.Start)
			}
		}
	}
	if c.LineCount() != 2 {
		t.Errorf("clone LineCount = %d", c.LineCount())
	}
}

func BenchmarkTyping(b *testing.B) {
	text := strings.Repeat(strings.Repeat("x", 80)+"\n", 10000)
	for b.Loop() {
		d := New(WithText(text))
		mid := d.Len() / 2
		for j := range int64(200) {
			_ = d.Insert(mid+j, "y")
		}
	}
}

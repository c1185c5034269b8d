package marker

import (
	"context"
	"errors"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/textcore/internal/script"
)

func spans(t *testing.T, c *Collection, id ID) [][2]int64 {
	t.Helper()
	var out [][2]int64
	for sp := range c.All(id) {
		out = append(out, [2]int64{sp.Start, sp.Length})
	}
	return out
}

func equalSpans(a, b [][2]int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSetOverwrites(t *testing.T) {
	c := NewCollection()
	mustSet(t, c, Highlight, 0, 5)
	mustSet(t, c, Highlight, 10, 5)
	mustSet(t, c, Highlight, 20, 5)

	// Overlaps the first two spans; both are replaced.
	mustSet(t, c, Highlight, 3, 9)

	want := [][2]int64{{3, 9}, {20, 5}}
	if got := spans(t, c, Highlight); !equalSpans(got, want) {
		t.Errorf("spans = %v, want %v", got, want)
	}
}

func mustSet(t *testing.T, c *Collection, id ID, start, length int64) {
	t.Helper()
	if err := c.Set(id, start, length, Marker{}); err != nil {
		t.Fatal(err)
	}
}

func TestSetRejectsInvalidSpan(t *testing.T) {
	c := NewCollection()
	if err := c.Set(Highlight, -1, 3, Marker{}); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("error = %v", err)
	}
	if err := c.Set(Highlight, 0, 0, Marker{}); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("error = %v", err)
	}
	if _, err := c.Get(Highlight, 0, -1); !errors.Is(err, ErrInvalidSpan) {
		t.Errorf("Get error = %v", err)
	}
}

func TestGetIncludesPartialOverlaps(t *testing.T) {
	c := NewCollection()
	mustSet(t, c, Find, 0, 4)
	mustSet(t, c, Find, 6, 4)
	mustSet(t, c, Find, 12, 4)

	got, err := c.Get(Find, 3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Start != 0 || got[1].Start != 6 {
		t.Errorf("Get(3, 5) = %v", got)
	}

	got, _ = c.Get(Find, 7, 0)
	if len(got) != 1 || got[0].Start != 6 {
		t.Errorf("Get(7) = %v", got)
	}
	if got, _ := c.Get(URL, 0, 100); got != nil {
		t.Errorf("empty category returned %v", got)
	}
}

func TestUpdateMarkersShift(t *testing.T) {
	tests := []struct {
		name             string
		offset, ins, rem int64
		want             [2]int64
	}{
		{"insert before", 2, 3, 0, [2]int64{13, 5}},
		{"remove before", 2, 0, 3, [2]int64{7, 5}},
		{"insert at start pushes", 10, 2, 0, [2]int64{12, 5}},
		{"insert inside grows", 12, 4, 0, [2]int64{10, 9}},
		{"remove inside shrinks", 11, 0, 2, [2]int64{10, 3}},
		{"insert at end is outside", 15, 3, 0, [2]int64{10, 5}},
		{"edit after", 20, 5, 2, [2]int64{10, 5}},
		{"remove over tail", 13, 0, 5, [2]int64{10, 3}},
		{"remove over head", 8, 1, 4, [2]int64{9, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCollection()
			mustSet(t, c, Highlight, 10, 5)
			c.UpdateMarkers(tt.offset, tt.ins, tt.rem)
			got := spans(t, c, Highlight)
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("spans = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUpdateMarkersDropsSwallowedSpans(t *testing.T) {
	c := NewCollection()
	mustSet(t, c, Highlight, 0, 2)
	mustSet(t, c, Highlight, 4, 2)
	mustSet(t, c, Highlight, 8, 2)
	mustSet(t, c, Selection, 5, 1)

	c.UpdateMarkers(3, 1, 4) // replace [3,7) with one character

	if got, want := spans(t, c, Highlight), [][2]int64{{0, 2}, {5, 2}}; !equalSpans(got, want) {
		t.Errorf("highlight = %v, want %v", got, want)
	}
	if got := spans(t, c, Selection); len(got) != 0 {
		t.Errorf("selection = %v, want none", got)
	}
}

func TestUpdateMarkersManyEdits(t *testing.T) {
	c := NewCollection()
	for i := int64(0); i < 50; i++ {
		mustSet(t, c, Highlight, i*10, 3)
	}
	// Type five characters at offset 100, one at a time.
	for i := int64(0); i < 5; i++ {
		c.UpdateMarkers(100+i, 1, 0)
	}
	got, _ := c.Get(Highlight, 105, 0)
	if len(got) != 1 || got[0].Start != 105 {
		t.Errorf("marker that was at 100 = %v", got)
	}
	got, _ = c.Get(Highlight, 495, 0)
	if len(got) != 1 || got[0].Start != 495 {
		t.Errorf("last marker = %v", got)
	}
	got, _ = c.Get(Highlight, 90, 0)
	if len(got) != 1 || got[0].Start != 90 {
		t.Errorf("marker before edit = %v", got)
	}
}

func TestRemoveAll(t *testing.T) {
	c := NewCollection()
	mustSet(t, c, Highlight, 0, 3)
	mustSet(t, c, Highlight, 4, 2)
	mustSet(t, c, URL, 5, 10)

	c.RemoveAll(3, 5)

	if got := spans(t, c, Highlight); !equalSpans(got, [][2]int64{{0, 3}}) {
		t.Errorf("highlight = %v", got)
	}
	if c.Count(URL) != 1 {
		t.Error("straddling URL marker must survive")
	}
}

func TestCloneIsDeep(t *testing.T) {
	c := NewCollection()
	mustSet(t, c, Highlight, 0, 3)
	d := c.Clone()
	d.UpdateMarkers(0, 5, 0)
	if got := spans(t, c, Highlight); got[0][0] != 0 {
		t.Error("clone shares state with original")
	}
}

func TestScanWatchdog(t *testing.T) {
	c := NewCollection()
	c.AddWatchdog(URLWatchdog())

	text := "see https://example.com and ftp://héllo.org\n"
	c.Scan(text, 100)

	got := spans(t, c, URL)
	want := [][2]int64{{104, 19}, {128, 15}}
	if !equalSpans(got, want) {
		t.Errorf("URL spans = %v, want %v", got, want)
	}

	// Rescanning a line without the URL removes only markers in that span.
	c.Scan("see nothing here\n", 100)
	if got := spans(t, c, URL); !equalSpans(got, [][2]int64{{128, 15}}) {
		t.Errorf("URL spans after rescan = %v", got)
	}
}

func TestLoadWatchdogsFromLua(t *testing.T) {
	st := script.NewState()
	defer st.Close()

	ws, err := LoadWatchdogs(context.Background(), st, `
watchdog{ id = 42, pattern = "TODO|FIXME", kind = "mark", color = "#ff0000", bold = true }
watchdog{ pattern = "\\d+" }
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(ws) != 2 {
		t.Fatalf("got %d watchdogs", len(ws))
	}
	w := ws[0]
	if w.ID != 42 || w.Marker.Kind != KindMark || !w.Marker.Bold {
		t.Errorf("watchdog = %+v", w)
	}
	if w.Marker.Color != tcell.NewRGBColor(255, 0, 0) {
		t.Errorf("color = %v", w.Marker.Color)
	}
	if ws[1].ID != Highlight || !ws[1].Pattern.MatchString("a12") {
		t.Errorf("second watchdog = %+v", ws[1])
	}

	if _, err := LoadWatchdogs(context.Background(), st, `watchdog{ pattern = "(" }`); err == nil {
		t.Error("invalid pattern must fail")
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want tcell.Color
		ok   bool
	}{
		{"#00ff00", tcell.NewRGBColor(0, 255, 0), true},
		{"#0f0", tcell.NewRGBColor(0, 255, 0), true},
		{"red", tcell.ColorRed, true},
		{"#zzzzzz", tcell.ColorDefault, false},
		{"nosuchcolor", tcell.ColorDefault, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAddKeepsOverlaps(t *testing.T) {
	c := NewCollection()
	if err := c.Add(Find, 0, 5, Marker{}); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(Find, 3, 5, Marker{}); err != nil {
		t.Fatal(err)
	}
	if got := spans(t, c, Find); !equalSpans(got, [][2]int64{{0, 5}, {3, 5}}) {
		t.Errorf("find = %v", got)
	}
	if err := c.Add(Find, 1, 0, Marker{}); err == nil {
		t.Error("expected error for empty span")
	}
}

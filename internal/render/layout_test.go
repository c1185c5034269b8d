package render

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
)

func layout(f *Factory, text string, wrap float64) *Line {
	return f.CreateLayout(text, nil, nil, nil, wrap).(*Line)
}

func rows(l *Line) []string {
	var out []string
	for r := range l.Rows() {
		out = append(out, l.Text(r))
	}
	return out
}

func TestCreateLayout(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wrap       float64
		atWord     bool
		wantRows   []string
		wantWidth  float64
		wantHeight float64
	}{
		{"empty", "", 0, true, []string{""}, 0, 1},
		{"plain", "Hello", 0, true, []string{"Hello"}, 5, 1},
		{"leading tab", "\tx", 0, true, []string{"    x"}, 5, 1},
		{"tab stop", "ab\tc", 0, true, []string{"ab  c"}, 5, 1},
		{"wide", "日本x", 0, true, []string{"日本x"}, 5, 1},
		{"control", "a\x01b", 0, true, []string{"ab"}, 2, 1},
		{"wrap at word", "hello world foo", 8, true, []string{"hello ", "world ", "foo"}, 6, 3},
		{"wrap at column", "hello world foo", 8, false, []string{"hello wo", "rld foo"}, 8, 2},
		{"wrap wide", "日本語", 5, true, []string{"日本", "語"}, 4, 2},
		{"fits", "abc", 3, true, []string{"abc"}, 3, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(nil, 4)
			f.SetWrapAtWord(tt.atWord)
			l := layout(f, tt.text, tt.wrap)
			got := rows(l)
			if strings.Join(got, "|") != strings.Join(tt.wantRows, "|") {
				t.Errorf("rows = %q, want %q", got, tt.wantRows)
			}
			if l.Width() != tt.wantWidth || l.Height() != tt.wantHeight {
				t.Errorf("size = %vx%v, want %vx%v", l.Width(), l.Height(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestWideCells(t *testing.T) {
	l := layout(NewFactory(nil, 4), "日本x", 0)
	if len(l.Cells) != 5 {
		t.Fatalf("cells = %d, want 5", len(l.Cells))
	}
	for i, want := range []bool{false, true, false, true, false} {
		if l.Cells[i].IsContinuation() != want {
			t.Errorf("cell %d continuation = %v, want %v", i, !want, want)
		}
	}
	if l.Cells[3].Offset != 1 || l.Cells[4].Offset != 2 {
		t.Errorf("offsets = %d, %d, want 1, 2", l.Cells[3].Offset, l.Cells[4].Offset)
	}
}

func TestColumn(t *testing.T) {
	f := NewFactory(nil, 4)
	tests := []struct {
		text   string
		wrap   float64
		offset int64
		row    int
		col    int
	}{
		{"日本x", 0, 1, 0, 2},
		{"日本x", 0, 2, 0, 4},
		{"\tx", 0, 1, 0, 4},
		{"hello world", 8, 7, 1, 1},
		{"abc", 0, 3, 0, 3},
	}
	for _, tt := range tests {
		row, col := layout(f, tt.text, tt.wrap).Column(tt.offset)
		if row != tt.row || col != tt.col {
			t.Errorf("%q Column(%d) = %d,%d, want %d,%d", tt.text, tt.offset, row, col, tt.row, tt.col)
		}
	}
}

func TestStyles(t *testing.T) {
	theme := highlight.DefaultTheme()
	f := NewFactory(theme, 4)
	red := tcell.NewRGBColor(255, 0, 0)

	syntax := []lines.Token{{Type: int(highlight.TokenKeyword), Start: 0, Length: 2}}
	markers := []marker.Span{
		{Start: 3, Length: 1, Value: marker.Marker{Kind: marker.KindMark, Color: red}},
		{Start: 4, Length: 1, Value: marker.Marker{Kind: marker.KindUnderline, Bold: true}},
	}
	selections := []marker.Span{{Start: 0, Length: 1, Value: marker.Marker{}}}
	l := f.CreateLayout("if x y", syntax, markers, selections, 0).(*Line)

	if got, want := l.Cells[0].Style, theme.Style(highlight.TokenKeyword).Reverse(true); got != want {
		t.Errorf("selected keyword style = %v, want %v", got, want)
	}
	if got, want := l.Cells[1].Style, theme.Style(highlight.TokenKeyword); got != want {
		t.Errorf("keyword style = %v, want %v", got, want)
	}
	if got := l.Cells[2].Style; got != theme.Default {
		t.Errorf("plain style = %v, want the theme default", got)
	}
	if _, bg, _ := l.Cells[3].Style.Decompose(); bg != red {
		t.Errorf("marked background = %v, want red", bg)
	}
	if _, _, attrs := l.Cells[4].Style.Decompose(); attrs&tcell.AttrUnderline == 0 || attrs&tcell.AttrBold == 0 {
		t.Errorf("underline marker attrs = %v, want bold underline", attrs)
	}
}

func TestANSI(t *testing.T) {
	f := NewFactory(highlight.DefaultTheme(), 4)
	syntax := []lines.Token{{Type: int(highlight.TokenKeyword), Start: 0, Length: 4}}
	l := f.CreateLayout("func x", syntax, nil, nil, 0).(*Line)

	got := l.ANSI(0)
	if !strings.HasPrefix(got, "\x1b[0;38;2;86;156;214mfunc\x1b[") {
		t.Errorf("ANSI = %q, want the keyword colored first", got)
	}
	if !strings.HasSuffix(got, reset) {
		t.Errorf("ANSI = %q, want a trailing reset", got)
	}
	if plain := l.Text(0); plain != "func x" {
		t.Errorf("Text = %q", plain)
	}
}

func TestSGR(t *testing.T) {
	tests := []struct {
		style tcell.Style
		want  string
	}{
		{tcell.StyleDefault, "\x1b[0m"},
		{tcell.StyleDefault.Bold(true).Reverse(true), "\x1b[0;1;7m"},
		{tcell.StyleDefault.Foreground(tcell.NewRGBColor(1, 2, 3)), "\x1b[0;38;2;1;2;3m"},
		{tcell.StyleDefault.Background(tcell.NewRGBColor(4, 5, 6)).StrikeThrough(true), "\x1b[0;9;48;2;4;5;6m"},
	}
	for _, tt := range tests {
		if got := SGR(tt.style); got != tt.want {
			t.Errorf("SGR = %q, want %q", got, tt.want)
		}
	}
}

func TestDocumentLayouts(t *testing.T) {
	f := NewFactory(nil, 4)
	d := engine.New(engine.WithText("a\tb\nhello world foo\n"), engine.WithLayoutFactory(f))

	ls, err := d.Layout(0)
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(ls) != 1 || ls[0].(*Line).Text(0) != "a   b" {
		t.Fatalf("row 0 layouts = %+v", ls)
	}

	first, err := d.Layout(1)
	if err != nil {
		t.Fatal(err)
	}
	if first[0].Height() != 1 {
		t.Errorf("unwrapped height = %v, want 1", first[0].Height())
	}

	d.SetWrapWidth(8)
	if !first[0].(*Line).Disposed() {
		t.Error("layout not disposed after the wrap width changed")
	}
	wrapped, err := d.Layout(1)
	if err != nil {
		t.Fatal(err)
	}
	if wrapped[0].Height() != 3 {
		t.Errorf("wrapped height = %v, want 3", wrapped[0].Height())
	}
	if f.Live() != 1 {
		t.Errorf("live layouts = %d, want 1", f.Live())
	}
}

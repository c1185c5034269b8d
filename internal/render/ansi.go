package render

import (
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

const reset = "\x1b[0m"

// Text returns row r without styling.
func (l *Line) Text(r int) string {
	var sb strings.Builder
	for _, c := range l.Row(r) {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// ANSI returns row r with SGR escape sequences for the cell styles. A row
// that changes style ends with a reset.
func (l *Line) ANSI(r int) string {
	var sb strings.Builder
	cur := tcell.StyleDefault
	for _, c := range l.Row(r) {
		if c.IsContinuation() {
			continue
		}
		if c.Style != cur {
			sb.WriteString(SGR(c.Style))
			cur = c.Style
		}
		sb.WriteString(c.Text)
	}
	if cur != tcell.StyleDefault {
		sb.WriteString(reset)
	}
	return sb.String()
}

// SGR converts a style into a select-graphic-rendition sequence.
func SGR(st tcell.Style) string {
	fg, bg, attrs := st.Decompose()
	codes := []string{"0"}
	if attrs&tcell.AttrBold != 0 {
		codes = append(codes, "1")
	}
	if attrs&tcell.AttrItalic != 0 {
		codes = append(codes, "3")
	}
	if attrs&tcell.AttrUnderline != 0 {
		codes = append(codes, "4")
	}
	if attrs&tcell.AttrReverse != 0 {
		codes = append(codes, "7")
	}
	if attrs&tcell.AttrStrikeThrough != 0 {
		codes = append(codes, "9")
	}
	if c, ok := rgbCode(fg); ok {
		codes = append(codes, "38;2;"+c)
	}
	if c, ok := rgbCode(bg); ok {
		codes = append(codes, "48;2;"+c)
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

func rgbCode(c tcell.Color) (string, bool) {
	if c == tcell.ColorDefault || !c.Valid() {
		return "", false
	}
	r, g, b := c.RGB()
	if r < 0 {
		return "", false
	}
	return strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b)), true
}

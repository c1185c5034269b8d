package engine

import (
	"strings"
)

// Signals passed to input hooks.
const (
	// SignalNewline is sent when a user edit inserted a line break.
	SignalNewline = "\n"
	// SignalBackspace is sent when a user edit only removed text.
	SignalBackspace = "\b"
)

// InputHook is called after a user edit. signal is SignalNewline,
// SignalBackspace or empty, and offset is the position just after the
// inserted text. Hooks may edit the document.
type InputHook func(d *Document, signal string, offset int64)

// OnUserInput registers h. Hooks run in registration order and only while
// notifications are enabled.
func (d *Document) OnUserInput(h InputHook) {
	d.hooks = append(d.hooks, h)
}

func inputSignal(removed int64, text string) string {
	switch {
	case text == "\n" || text == "\r" || text == "\r\n":
		return SignalNewline
	case text == "" && removed > 0:
		return SignalBackspace
	}
	return ""
}

// AutoIndent is an InputHook that copies the leading whitespace of the
// previous line after a line break.
func AutoIndent(d *Document, signal string, offset int64) {
	if signal != SignalNewline {
		return
	}
	row := d.table.RowOf(offset)
	if row == 0 {
		return
	}
	prev, err := d.table.LineContent(row - 1)
	if err != nil {
		return
	}
	indent := prev[:len(prev)-len(strings.TrimLeft(prev, " \t"))]
	if indent == "" {
		return
	}
	if err := d.Replace(offset, 0, indent, false); err != nil {
		d.logger.Warn("auto-indent: %v", err)
	}
}

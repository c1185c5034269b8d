// Package render lays out document lines as terminal cells.
//
// A Factory implements lines.LayoutFactory: the engine hands it the text
// of one line piece together with its syntax tokens, markers and
// selections, and gets back a *Line holding one styled cell per terminal
// column, with tabs expanded, wide characters taking two columns and the
// piece wrapped into rows at the wrap width.
//
//	f := render.NewFactory(theme, 4)
//	d := engine.New(engine.WithLayoutFactory(f))
//	layouts, _ := d.Layout(row)
//	for _, l := range layouts {
//		line := l.(*render.Line)
//		for r := range line.Rows() {
//			fmt.Println(line.ANSI(r))
//		}
//	}
package render

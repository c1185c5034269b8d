// Package engine provides the Document, the façade that ties the text core
// together.
//
// A Document owns one character buffer, one line index, one marker
// collection, one undo manager and the folding and syntax generators that
// annotate the line index. Every edit takes the same path:
//
//	validate -> drop markers inside the span -> mutate the buffer ->
//	reindex the affected lines -> re-anchor markers and generators ->
//	rescan watchdogs -> record undo -> notify subscribers -> input hooks
//
// # Basic Usage
//
//	d := engine.New(engine.WithText("a\nb\nc\nd"))
//	_ = d.Insert(2, "x")
//	row, _ := d.LineText(1) // "xb\n"
//	_ = d.Undo()
//
// # Concurrency
//
// A Document has a single logical writer: every mutating call must come
// from one sequence of operations. Only the character buffer is locked,
// so Load, Save and NewReader may run alongside readers of the raw text.
// Subscribers are called after the buffer lock is released and may read
// the document.
package engine

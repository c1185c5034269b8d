// Package history provides undo and redo for document edits.
//
// Every edit is recorded as a Command. Commands are plain values:
//   - Insert: text inserted at an offset
//   - Remove: text removed at an offset
//   - Replace: a span replaced by other text
//   - FullReplace: the whole document replaced, keeping both versions
//   - Group: several commands undone and redone as one step
//
// Commands apply themselves to a Target, which performs the edit and
// announces it like any other change.
//
// A Manager keeps the undo and redo stacks:
//
//	m := NewManager(WithLimit(1000))
//	m.Push(Insert{Offset: 0, Text: "a", At: time.Now()})
//	m.Undo(doc)
//	m.Redo(doc)
//
// Consecutive typing, consecutive backspaces and consecutive forward
// deletes are merged into one command when they arrive within the merge
// window and do not cross a line break. Merge is a pure function and can
// be used on its own.
//
// # Command Grouping
//
//	m.BeginGroup("Indent")
//	// ... several edits ...
//	m.EndGroup()
package history

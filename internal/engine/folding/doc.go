// Package folding computes collapsible regions of a document and keeps
// them anchored to the text as it changes.
//
// A Strategy reports regions as row ranges. The Generator turns them into
// offset-based folds, remembers which ones the user collapsed, and writes
// the resulting fold state into the line index so that hidden rows can be
// skipped by the caller.
package folding

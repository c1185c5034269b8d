// Package ranges provides Collection, a sorted sequence of intervals that
// batches offset shifts.
//
// Editing a document moves every interval after the edit point. Instead of
// rewriting all of them on each keystroke, a Collection keeps one pending
// shift: items after a boundary row are stored without the shift, and Head
// adds it back on read. Moving the boundary realizes the shift only on the
// items the boundary passes over, so a run of nearby edits costs a few
// items each rather than the whole tail.
//
// Lines, markers and folding regions are all kept in Collections.
package ranges

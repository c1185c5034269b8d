// Package lines maintains the line index of a document.
//
// A Table maps rows to character offsets with one record per physical
// line. Records are contiguous: each starts where the previous one ends,
// and each length includes the line's terminator. The document always has
// a final record without a terminator, which is empty when the text is
// empty or ends in a line break.
//
// Edits are applied incrementally with Update: only the lines touched by
// the edit are rescanned, and the shift of every following line start is
// deferred by the underlying range collection.
//
// Records also carry per-line metadata produced by generators (syntax
// tokens, fold state) and an opaque layout handle owned by the rendering
// side. Cold metadata can be moved out of memory through a pagecache.Pager.
package lines

// Package rope provides an immutable rope for storing document text.
//
// The rope is a B+ tree whose leaves hold bounded string chunks and whose
// internal nodes cache aggregated metrics (characters and bytes) for every
// child. All positions are character (rune) offsets, which keeps offset
// arithmetic independent of the UTF-8 width of the text.
//
// Operations return new ropes and never modify the receiver, so a rope value
// can be shared freely as a snapshot:
//
//	r := rope.FromString("hello world")
//	r = r.Insert(5, ",")   // "hello, world"
//	r = r.Delete(0, 7)     // "world"
//	text := r.String()     // "world"
package rope

// Package buffer holds the character content of a document.
//
// A Buffer stores text in an immutable rope and guards it with an RWLock:
// mutations take the exclusive side, reads the shared side. Reads capture
// the current rope under the shared lock and then work on that snapshot,
// so iteration and streaming never hold the lock for long.
//
// Offsets and lengths are measured in characters (runes). Every successful
// mutation returns a Delta describing what changed.
//
// Load and Save process large inputs in fixed-size chunks, taking the lock
// only around each chunk and checking the context between chunks. A
// cancelled Load leaves the chunks that were already applied in place.
package buffer

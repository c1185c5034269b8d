package buffer

import (
	"errors"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/dshills/textcore/internal/engine/rope"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("buffer: offset out of range")
	ErrRangeInvalid     = errors.New("buffer: invalid range")
)

// Delta describes one committed mutation: Removed characters starting at
// Offset were replaced by Inserted characters.
type Delta struct {
	Offset   int64
	Removed  int64
	Inserted int64
}

// IsEmpty reports whether the mutation changed nothing.
func (d Delta) IsEmpty() bool {
	return d.Removed == 0 && d.Inserted == 0
}

// NetChange returns the change in buffer length.
func (d Delta) NetChange() int64 {
	return d.Inserted - d.Removed
}

// Buffer is the character store of a document. All methods are safe for
// concurrent use.
type Buffer struct {
	lock     *RWLock
	rope     rope.Rope
	revision atomic.Uint64

	lineEnding LineEnding
	chunkSize  int
	encoding   encoding.Encoding
	normalize  bool
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		lock:       NewRWLock(),
		rope:       rope.New(),
		lineEnding: LineEndingLF,
		chunkSize:  DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FromString creates a buffer with initial content.
func FromString(s string, opts ...Option) *Buffer {
	b := New(opts...)
	b.rope = rope.FromString(sanitize(s))
	return b
}

// sanitize replaces invalid UTF-8 so that character counts stay stable
// when text is split and rejoined.
func sanitize(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

// Lock exposes the buffer's lock to callers that need to hold it across
// several reads.
func (b *Buffer) Lock() *RWLock {
	return b.lock
}

// Revision returns a counter incremented by every mutation.
func (b *Buffer) Revision() uint64 {
	return b.revision.Load()
}

// LineEnding returns the preferred line terminator of the buffer.
func (b *Buffer) LineEnding() LineEnding {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.lineEnding
}

// SetLineEnding changes the preferred line terminator.
func (b *Buffer) SetLineEnding(le LineEnding) {
	b.lock.Lock()
	b.lineEnding = le
	b.lock.Unlock()
}

// Snapshot returns the current content as an immutable rope.
func (b *Buffer) Snapshot() rope.Rope {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return b.rope
}

// Len returns the number of characters.
func (b *Buffer) Len() int64 {
	return b.Snapshot().Len()
}

// Size returns the UTF-8 encoded size in bytes.
func (b *Buffer) Size() int64 {
	return b.Snapshot().Size()
}

// String returns the full content. Prefer Substring or iteration for
// large buffers.
func (b *Buffer) String() string {
	return b.Snapshot().String()
}

// RuneAt returns the character at offset.
func (b *Buffer) RuneAt(offset int64) (rune, error) {
	r := b.Snapshot()
	ch, ok := r.RuneAt(offset)
	if !ok {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", ErrOffsetOutOfRange, offset, r.Len())
	}
	return ch, nil
}

// Substring returns length characters starting at offset.
func (b *Buffer) Substring(offset, length int64) (string, error) {
	r := b.Snapshot()
	if err := checkRange(offset, length, r.Len()); err != nil {
		return "", err
	}
	return r.Slice(offset, offset+length), nil
}

// Runes iterates over the characters from offset to the end of the buffer
// as it was when iteration started.
func (b *Buffer) Runes(from int64) iter.Seq2[int64, rune] {
	return b.Snapshot().Runes(from)
}

// Chunks iterates over the content in storage-sized pieces.
func (b *Buffer) Chunks() iter.Seq[string] {
	return b.Snapshot().Chunks()
}

// Insert inserts text at offset.
func (b *Buffer) Insert(offset int64, text string) (Delta, error) {
	return b.Replace(offset, 0, text)
}

// Remove removes length characters starting at offset.
func (b *Buffer) Remove(offset, length int64) (Delta, error) {
	return b.Replace(offset, length, "")
}

// Replace replaces length characters at offset with text. On error the
// buffer is left untouched.
func (b *Buffer) Replace(offset, length int64, text string) (Delta, error) {
	text = sanitize(text)

	b.lock.Lock()
	defer b.lock.Unlock()

	if err := checkRange(offset, length, b.rope.Len()); err != nil {
		return Delta{}, err
	}
	d := Delta{Offset: offset, Removed: length, Inserted: int64(utf8.RuneCountInString(text))}
	if d.IsEmpty() {
		return d, nil
	}
	b.rope = b.rope.Replace(offset, offset+length, text)
	b.revision.Add(1)
	return d, nil
}

// Clear removes all content.
func (b *Buffer) Clear() Delta {
	b.lock.Lock()
	defer b.lock.Unlock()

	d := Delta{Removed: b.rope.Len()}
	if d.Removed > 0 {
		b.rope = rope.New()
		b.revision.Add(1)
	}
	return d
}

// Clone returns an independent buffer with the same content and settings.
func (b *Buffer) Clone() *Buffer {
	b.lock.RLock()
	defer b.lock.RUnlock()

	c := &Buffer{
		lock:       NewRWLock(),
		rope:       b.rope,
		lineEnding: b.lineEnding,
		chunkSize:  b.chunkSize,
		encoding:   b.encoding,
		normalize:  b.normalize,
	}
	c.revision.Store(b.revision.Load())
	return c
}

func checkRange(offset, length, size int64) error {
	if length < 0 {
		return fmt.Errorf("%w: negative length %d", ErrRangeInvalid, length)
	}
	if offset < 0 || offset > size || offset+length > size {
		return fmt.Errorf("%w: [%d, %d) not in [0, %d]", ErrOffsetOutOfRange, offset, offset+length, size)
	}
	return nil
}

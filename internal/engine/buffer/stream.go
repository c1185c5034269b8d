package buffer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/dshills/textcore/internal/engine/rope"
)

// Load replaces the buffer content with the text read from r. The input is
// consumed in chunks; each chunk is appended under the exclusive lock and
// ctx is checked before the next one. On cancellation the error wraps
// ctx.Err() and the chunks already appended stay in the buffer.
//
// The returned Delta covers the whole load: the removed prior content and
// the inserted characters.
func (b *Buffer) Load(ctx context.Context, r io.Reader) (Delta, error) {
	if b.encoding != nil {
		r = transform.NewReader(r, b.encoding.NewDecoder())
	}
	if b.normalize {
		r = norm.NFC.Reader(r)
	}

	if err := b.lock.LockContext(ctx); err != nil {
		return Delta{}, fmt.Errorf("buffer: load: %w", err)
	}
	d := Delta{Removed: b.rope.Len()}
	b.rope = rope.New()
	b.revision.Add(1)
	b.lock.Unlock()

	buf := make([]byte, b.chunkSize)
	var carry []byte
	detected := false
	for {
		if err := ctx.Err(); err != nil {
			return d, fmt.Errorf("buffer: load: %w", err)
		}
		n, rerr := io.ReadFull(r, buf)
		data := append(carry, buf[:n]...)
		carry = nil

		eof := errors.Is(rerr, io.EOF) || errors.Is(rerr, io.ErrUnexpectedEOF)
		if rerr != nil && !eof {
			return d, fmt.Errorf("buffer: load: %w", rerr)
		}
		if !eof {
			keep := partialSuffix(data)
			carry = append([]byte(nil), data[len(data)-keep:]...)
			data = data[:len(data)-keep]
		}

		if len(data) > 0 {
			text := sanitize(string(data))
			if err := b.lock.LockContext(ctx); err != nil {
				return d, fmt.Errorf("buffer: load: %w", err)
			}
			if !detected {
				b.lineEnding = DetectLineEnding(text)
				detected = true
			}
			b.rope = b.rope.Insert(b.rope.Len(), text)
			b.revision.Add(1)
			b.lock.Unlock()
			d.Inserted += int64(utf8.RuneCountInString(text))
		}
		if eof {
			return d, nil
		}
	}
}

// partialSuffix returns the length of a truncated UTF-8 sequence at the end
// of p that must wait for the next chunk.
func partialSuffix(p []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(p); i++ {
		c := p[len(p)-i]
		if c&0xC0 == 0x80 {
			continue
		}
		if c < utf8.RuneSelf {
			return 0
		}
		if !utf8.FullRune(p[len(p)-i:]) {
			return i
		}
		return 0
	}
	return 0
}

// Save writes the content to w in chunks of roughly the configured size,
// taking the shared lock only to read each chunk. It returns the number of
// characters written. On cancellation the error wraps ctx.Err().
func (b *Buffer) Save(ctx context.Context, w io.Writer) (int64, error) {
	var tw *transform.Writer
	if b.encoding != nil {
		tw = transform.NewWriter(w, b.encoding.NewEncoder())
		w = tw
	}

	step := int64(b.chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("buffer: save: %w", err)
		}
		if err := b.lock.RLockContext(ctx); err != nil {
			return written, fmt.Errorf("buffer: save: %w", err)
		}
		total := b.rope.Len()
		chunk := b.rope.Slice(written, written+step)
		b.lock.RUnlock()

		if chunk != "" {
			if _, err := io.WriteString(w, chunk); err != nil {
				return written, fmt.Errorf("buffer: save: %w", err)
			}
			written += int64(utf8.RuneCountInString(chunk))
		}
		if written >= total {
			break
		}
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return written, fmt.Errorf("buffer: save: %w", err)
		}
	}
	return written, nil
}

// Reader streams a snapshot of the buffer. Seek offsets are measured in
// characters; Read returns UTF-8 bytes. Interleaving Read and ReadRune is
// only well defined at character boundaries.
type Reader struct {
	rope    rope.Rope
	pos     int64
	pending string
}

// NewReader returns a Reader over the current content. Later edits to the
// buffer do not affect the reader.
func (b *Buffer) NewReader() *Reader {
	return &Reader{rope: b.Snapshot()}
}

func (r *Reader) fill() bool {
	if r.pending != "" {
		return true
	}
	for _, s := range r.rope.ChunksFrom(r.pos) {
		r.pending = s
		r.pos += int64(utf8.RuneCountInString(s))
		return true
	}
	return false
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	total := 0
	for total < len(p) && r.fill() {
		n := copy(p[total:], r.pending)
		total += n
		r.pending = r.pending[n:]
	}
	if total == 0 {
		return 0, io.EOF
	}
	return total, nil
}

// ReadRune implements io.RuneReader.
func (r *Reader) ReadRune() (rune, int, error) {
	if !r.fill() {
		return 0, 0, io.EOF
	}
	ch, size := utf8.DecodeRuneInString(r.pending)
	r.pending = r.pending[size:]
	return ch, size, nil
}

// Seek implements io.Seeker with character offsets. It discards any
// partially read chunk.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	pos := r.Offset()
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos += offset
	case io.SeekEnd:
		pos = r.rope.Len() + offset
	default:
		return pos, fmt.Errorf("buffer: invalid whence %d", whence)
	}
	if pos < 0 {
		return r.Offset(), fmt.Errorf("%w: seek to %d", ErrOffsetOutOfRange, pos)
	}
	r.pos = pos
	r.pending = ""
	return pos, nil
}

// Offset returns the character offset of the next unread character.
func (r *Reader) Offset() int64 {
	return r.pos - int64(utf8.RuneCountInString(r.pending))
}

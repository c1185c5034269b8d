package rope

import (
	"io"
	"strings"
)

// Builder provides efficient incremental construction of a rope.
// It buffers writes and builds the tree when Build is called.
type Builder struct {
	chunks []Chunk
	buffer strings.Builder
}

// WriteString appends a string to the builder.
func (b *Builder) WriteString(s string) (int, error) {
	b.buffer.WriteString(s)
	if b.buffer.Len() >= MaxChunkSize*2 {
		b.flush(false)
	}
	return len(s), nil
}

// Write implements io.Writer.
func (b *Builder) Write(p []byte) (int, error) {
	return b.WriteString(string(p))
}

// flush moves buffered text into chunks. Unless final is set, a trailing
// partial UTF-8 sequence or lone '\r' stays in the buffer so that the next
// write can complete it.
func (b *Builder) flush(final bool) {
	s := b.buffer.String()
	if len(s) == 0 {
		return
	}
	keep := 0
	if !final {
		keep = incompleteSuffix(s)
	}
	b.buffer.Reset()
	b.chunks = append(b.chunks, splitIntoChunks(s[:len(s)-keep])...)
	b.buffer.WriteString(s[len(s)-keep:])
}

// incompleteSuffix returns how many trailing bytes of s must wait for more
// input: a truncated UTF-8 sequence or a final '\r'.
func incompleteSuffix(s string) int {
	if s[len(s)-1] == '\r' {
		return 1
	}
	for i := 1; i <= 3 && i <= len(s); i++ {
		c := s[len(s)-i]
		if !isUTF8Start(c) {
			continue
		}
		if c < 0x80 {
			return 0
		}
		need := 2
		switch {
		case c&0xF8 == 0xF0:
			need = 4
		case c&0xF0 == 0xE0:
			need = 3
		}
		if need > i {
			return i
		}
		return 0
	}
	return 0
}

// Build creates the rope from the accumulated text and resets the builder.
func (b *Builder) Build() Rope {
	b.flush(true)
	r := fromChunks(b.chunks)
	b.chunks = nil
	b.buffer.Reset()
	return r
}

// FromReader creates a rope from an io.Reader.
func FromReader(r io.Reader) (Rope, error) {
	var b Builder
	if _, err := io.Copy(&b, r); err != nil {
		return Rope{}, err
	}
	return b.Build(), nil
}

package buffer

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultChunkSize is the number of bytes Load and Save move per chunk.
const DefaultChunkSize = 64 * 1024

// LineEnding is a line terminator style.
type LineEnding uint8

const (
	LineEndingLF   LineEnding = iota // \n
	LineEndingCRLF                   // \r\n
	LineEndingCR                     // \r
)

// String returns an escaped form of the terminator, for display.
func (le LineEnding) String() string {
	switch le {
	case LineEndingCRLF:
		return "\\r\\n"
	case LineEndingCR:
		return "\\r"
	default:
		return "\\n"
	}
}

// Sequence returns the terminator characters.
func (le LineEnding) Sequence() string {
	switch le {
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		return "\n"
	}
}

// DetectLineEnding returns the most common terminator in text, or LF if
// the text has none.
func DetectLineEnding(text string) LineEnding {
	var lf, crlf, cr int
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				crlf++
				i++
			} else {
				cr++
			}
		case '\n':
			lf++
		}
	}
	switch {
	case crlf > 0 && crlf >= lf && crlf >= cr:
		return LineEndingCRLF
	case cr > 0 && cr >= lf:
		return LineEndingCR
	}
	return LineEndingLF
}

// Option is a functional option for configuring a Buffer.
type Option func(*Buffer)

// WithLineEnding sets the preferred line terminator.
func WithLineEnding(le LineEnding) Option {
	return func(b *Buffer) {
		b.lineEnding = le
	}
}

// WithChunkSize sets the byte size of Load/Save chunks.
func WithChunkSize(n int) Option {
	return func(b *Buffer) {
		if n > 0 {
			b.chunkSize = n
		}
	}
}

// WithEncoding makes Load decode from and Save encode to enc instead of UTF-8.
func WithEncoding(enc encoding.Encoding) Option {
	return func(b *Buffer) {
		b.encoding = enc
	}
}

// WithNormalization makes Load normalize text to NFC.
func WithNormalization(enabled bool) Option {
	return func(b *Buffer) {
		b.normalize = enabled
	}
}

// LookupEncoding resolves an encoding by its WHATWG or IANA name, such as
// "utf-16le", "shift_jis" or "windows-1252". The empty name and "utf-8"
// return nil, meaning no transcoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch name {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("buffer: unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

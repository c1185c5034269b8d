package rope

import "unicode/utf8"

// Summary holds aggregated metrics for a span of text.
// Summaries form a monoid under Add with the zero value as identity.
type Summary struct {
	// Chars is the number of runes.
	Chars int64

	// Bytes is the UTF-8 byte count.
	Bytes int64

	// ASCII reports that every rune is below 0x80, in which case
	// character and byte offsets coincide.
	ASCII bool
}

// Add combines two summaries.
func (s Summary) Add(other Summary) Summary {
	if s.Bytes == 0 {
		return other
	}
	if other.Bytes == 0 {
		return s
	}
	return Summary{
		Chars: s.Chars + other.Chars,
		Bytes: s.Bytes + other.Bytes,
		ASCII: s.ASCII && other.ASCII,
	}
}

// ComputeSummary calculates metrics for a string.
func ComputeSummary(s string) Summary {
	sum := Summary{Bytes: int64(len(s)), ASCII: true}
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			sum.ASCII = false
			break
		}
	}
	if sum.ASCII {
		sum.Chars = int64(len(s))
	} else {
		sum.Chars = int64(utf8.RuneCountInString(s))
	}
	return sum
}

// byteIndex returns the byte index of the char-th rune of s.
// char must be in [0, runecount(s)].
func byteIndex(s string, char int, ascii bool) int {
	if ascii {
		return char
	}
	n := 0
	for i := range s {
		if n == char {
			return i
		}
		n++
	}
	return len(s)
}

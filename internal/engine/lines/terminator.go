package lines

// Terminator is the line break ending a line.
type Terminator uint8

const (
	// None marks the last line, which has no line break.
	None Terminator = iota
	// LF is "\n".
	LF
	// CR is a lone "\r".
	CR
	// CRLF is "\r\n".
	CRLF
)

// Len returns the terminator's length in characters.
func (t Terminator) Len() int64 {
	switch t {
	case LF, CR:
		return 1
	case CRLF:
		return 2
	default:
		return 0
	}
}

// Sequence returns the terminator's characters.
func (t Terminator) Sequence() string {
	switch t {
	case LF:
		return "\n"
	case CR:
		return "\r"
	case CRLF:
		return "\r\n"
	default:
		return ""
	}
}

// String returns the terminator's name.
func (t Terminator) String() string {
	switch t {
	case LF:
		return "LF"
	case CR:
		return "CR"
	case CRLF:
		return "CRLF"
	default:
		return "None"
	}
}

// Segment is one scanned line: its length in characters, including the
// terminator, and the terminator kind.
type Segment struct {
	Length     int64
	Terminator Terminator
}

// scanner splits a rune stream into segments. A "\r" is held back until
// the next rune shows whether it starts a "\r\n".
type scanner struct {
	length int64
	cr     bool
	emit   func(Segment)
}

func (s *scanner) feed(r rune) {
	if s.cr {
		s.cr = false
		if r == '\n' {
			s.length++
			s.flush(CRLF)
			return
		}
		s.flush(CR)
	}
	s.length++
	switch r {
	case '\n':
		s.flush(LF)
	case '\r':
		s.cr = true
	}
}

func (s *scanner) flush(t Terminator) {
	s.emit(Segment{Length: s.length, Terminator: t})
	s.length = 0
}

func (s *scanner) finish() {
	switch {
	case s.cr:
		s.cr = false
		s.flush(CR)
	case s.length > 0:
		s.flush(None)
	}
}

// Split splits text into lines. A final line without terminator is
// included only if it is non-empty.
func Split(text string) []Segment {
	var out []Segment
	sc := scanner{emit: func(s Segment) { out = append(out, s) }}
	for _, r := range text {
		sc.feed(r)
	}
	sc.finish()
	return out
}

package engine

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dshills/textcore/internal/engine/marker"
)

// FindOptions controls how a find pattern is interpreted.
type FindOptions struct {
	// Regexp treats the pattern as an RE2 regular expression instead of
	// literal text.
	Regexp bool
	// IgnoreCase matches without regard to case.
	IgnoreCase bool
	// WholeWord only matches at word boundaries.
	WholeWord bool
}

// Match is one find result.
type Match struct {
	Start  int64
	Length int64
	Text   string
}

// End returns the offset just past the match.
func (m Match) End() int64 {
	return m.Start + m.Length
}

// Last returns the offset of the last matched character.
func (m Match) Last() int64 {
	return m.End() - 1
}

type finder struct {
	pattern string
	opts    FindOptions
	re      *regexp.Regexp
}

// SetFindParam compiles the pattern used by Find, ReplaceAll and
// HighlightMatches.
func (d *Document) SetFindParam(pattern string, opts FindOptions) error {
	if pattern == "" {
		return fmt.Errorf("%w: empty find pattern", ErrInvalidOperation)
	}
	expr := pattern
	if !opts.Regexp {
		expr = regexp.QuoteMeta(expr)
	}
	if opts.WholeWord {
		expr = `\b(?:` + expr + `)\b`
	}
	if opts.IgnoreCase {
		expr = `(?i)` + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("engine: find pattern: %w", err)
	}
	d.find = &finder{pattern: pattern, opts: opts, re: re}
	return nil
}

// FindParam returns the current pattern and options.
func (d *Document) FindParam() (string, FindOptions, bool) {
	if d.find == nil {
		return "", FindOptions{}, false
	}
	return d.find.pattern, d.find.opts, true
}

func (d *Document) pattern() (*regexp.Regexp, error) {
	if d.find == nil {
		return nil, fmt.Errorf("%w: no find pattern set", ErrInvalidOperation)
	}
	return d.find.re, nil
}

// Find returns the matches of the find pattern inside
// [start, start+length), line by line. The sequence may be ranged over
// again to restart the search.
//
// The document may be edited while ranging: after each match the scan
// resumes at the match's end shifted by however much the document length
// changed during the yield, and the search range grows or shrinks by the
// same amount.
func (d *Document) Find(start, length int64) (iter.Seq[Match], error) {
	re, err := d.pattern()
	if err != nil {
		return nil, err
	}
	if err := d.checkRange(start, length); err != nil {
		return nil, err
	}
	return func(yield func(Match) bool) {
		pos, end := start, start+length
		for pos < end {
			row := d.table.RowOf(pos)
			rec, err := d.table.Record(row)
			if err != nil {
				return
			}
			content, err := d.table.LineContent(row)
			if err != nil {
				return
			}
			col, n, text, ok := firstMatch(re, content, pos-rec.Start)
			if !ok {
				if row == d.table.Count()-1 || rec.End() >= end {
					return
				}
				pos = rec.End()
				continue
			}
			m := Match{Start: rec.Start + col, Length: n, Text: text}
			if m.End() > end {
				return
			}

			measured := d.buf.Len()
			if !yield(m) {
				return
			}
			delta := d.buf.Len() - measured
			end += delta
			pos = m.End() + delta
			if m.Length == 0 {
				pos++
			}
		}
	}, nil
}

// FindAll returns the matches in the whole document.
func (d *Document) FindAll() (iter.Seq[Match], error) {
	return d.Find(0, d.buf.Len())
}

// firstMatch returns the first match in content starting at or after
// character column col, in characters.
func firstMatch(re *regexp.Regexp, content string, col int64) (int64, int64, string, bool) {
	b := byteIndex(content, col)
	if b < 0 {
		return 0, 0, "", false
	}
	for _, loc := range re.FindAllStringIndex(content, -1) {
		if loc[0] < b {
			continue
		}
		start := col + int64(utf8.RuneCountInString(content[b:loc[0]]))
		return start, int64(utf8.RuneCountInString(content[loc[0]:loc[1]])), content[loc[0]:loc[1]], true
	}
	return 0, 0, "", false
}

// byteIndex returns the byte offset of character col in s, or -1 if s is
// shorter.
func byteIndex(s string, col int64) int {
	if col == 0 {
		return 0
	}
	var i int64
	for b := range s {
		if i == col {
			return b
		}
		i++
	}
	if i == col {
		return len(s)
	}
	return -1
}

// ReplaceAll replaces every match of the find pattern with replacement
// and returns the number of matches. Like Find it matches one line at a
// time, so anchors apply to lines and no match spans a terminator. With
// groupReplace, $1 and ${name} in replacement expand to submatches. The
// change is one undo step that keeps a copy of the whole previous text.
func (d *Document) ReplaceAll(replacement string, groupReplace bool) (int, error) {
	re, err := d.pattern()
	if err != nil {
		return 0, err
	}
	before, after, n, err := d.replaceLines(func(content string) (string, int) {
		k := len(re.FindAllStringIndex(content, -1))
		if k == 0 {
			return content, 0
		}
		if groupReplace {
			return re.ReplaceAllString(content, replacement), k
		}
		return re.ReplaceAllLiteralString(content, replacement), k
	})
	if err != nil || n == 0 {
		return 0, err
	}
	d.logger.Debug("replace all: %d matches", n)
	return n, d.replaceText(before, after, "Replace All")
}

// ReplaceAllLiteral replaces every occurrence of target with replacement
// without using the find pattern. Occurrences are found line by line as
// in ReplaceAll, and the change is one undo step holding the whole
// previous text.
func (d *Document) ReplaceAllLiteral(target, replacement string, caseInsensitive bool) (int, error) {
	if target == "" {
		return 0, fmt.Errorf("%w: empty replace target", ErrInvalidOperation)
	}
	var re *regexp.Regexp
	if caseInsensitive {
		re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(target))
	}
	before, after, n, err := d.replaceLines(func(content string) (string, int) {
		if re != nil {
			k := len(re.FindAllStringIndex(content, -1))
			if k == 0 {
				return content, 0
			}
			return re.ReplaceAllLiteralString(content, replacement), k
		}
		k := strings.Count(content, target)
		if k == 0 {
			return content, 0
		}
		return strings.ReplaceAll(content, target, replacement), k
	})
	if err != nil || n == 0 {
		return 0, err
	}
	return n, d.replaceText(before, after, "Replace All")
}

// replaceLines rewrites the content of every line Find searches with
// fn, copying terminators through, and returns the text before and after
// and the total count fn reported. The empty line after a final
// terminator starts at the end of the document and is not searched.
func (d *Document) replaceLines(fn func(content string) (string, int)) (string, string, int, error) {
	before := d.buf.String()
	docLen := d.buf.Len()
	var sb strings.Builder
	sb.Grow(len(before))
	n := 0
	for row, rec := range d.table.Records(0) {
		text, err := d.table.LineText(row)
		if err != nil {
			return "", "", 0, err
		}
		if rec.Start >= docLen {
			sb.WriteString(text)
			continue
		}
		content, err := d.table.LineContent(row)
		if err != nil {
			return "", "", 0, err
		}
		out, k := fn(content)
		n += k
		sb.WriteString(out)
		sb.WriteString(text[len(content):])
	}
	return before, sb.String(), n, nil
}

// HighlightMatches replaces the Find markers with one marker per match of
// the find pattern and returns the number of matches.
func (d *Document) HighlightMatches(m marker.Marker) (int, error) {
	seq, err := d.FindAll()
	if err != nil {
		return 0, err
	}
	d.markers.Clear(marker.Find)
	n := 0
	for match := range seq {
		if match.Length == 0 {
			continue
		}
		if err := d.markers.Add(marker.Find, match.Start, match.Length, m); err != nil {
			return n, classify(err)
		}
		n++
	}
	d.table.Invalidate(0, d.table.Count()-1)
	return n, nil
}

package rope

import (
	"testing"
	"unicode/utf8"
)

// FuzzInsertDelete checks that edits at character offsets agree with the
// same edits applied to a rune slice.
func FuzzInsertDelete(f *testing.F) {
	f.Add("hello", 0, "x", 1)
	f.Add("日本語", 1, "x", 2)
	f.Add("a\r\nb", 2, "\n", 1)
	f.Add("", 0, "test", 0)

	f.Fuzz(func(t *testing.T, initial string, offset int, insert string, n int) {
		if !utf8.ValidString(initial) || !utf8.ValidString(insert) {
			return
		}
		runes := []rune(initial)
		offset = min(max(offset, 0), len(runes))

		r := FromString(initial).Insert(int64(offset), insert)
		want := string(runes[:offset]) + insert + string(runes[offset:])
		if r.String() != want {
			t.Fatalf("insert: got %q, want %q", r.String(), want)
		}

		all := []rune(want)
		n = min(max(n, 0), len(all)-offset)
		r = r.Delete(int64(offset), int64(offset+n))
		want = string(all[:offset]) + string(all[offset+n:])
		if r.String() != want {
			t.Fatalf("delete: got %q, want %q", r.String(), want)
		}
		if r.Len() != int64(utf8.RuneCountInString(want)) {
			t.Fatalf("Len() = %d", r.Len())
		}
	})
}

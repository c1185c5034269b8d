package rope

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNew(t *testing.T) {
	r := New()
	if r.Len() != 0 {
		t.Errorf("New rope should have length 0, got %d", r.Len())
	}
	if !r.IsEmpty() {
		t.Error("New rope should be empty")
	}
	if r.String() != "" {
		t.Errorf("New rope String() should be empty, got %q", r.String())
	}
}

func TestFromString(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"single char", "a"},
		{"with newline", "hello\nworld"},
		{"crlf", "a\r\nb\r\nc"},
		{"unicode", "hello 世界 🌍"},
		{"long string", strings.Repeat("abcdefghij", 100)},
		{"long unicode", strings.Repeat("日本語テキスト\n", 300)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.input)
			if r.String() != tt.input {
				t.Errorf("String() = %q, want %q", r.String(), tt.input)
			}
			if want := int64(utf8.RuneCountInString(tt.input)); r.Len() != want {
				t.Errorf("Len() = %d, want %d", r.Len(), want)
			}
			if r.Size() != int64(len(tt.input)) {
				t.Errorf("Size() = %d, want %d", r.Size(), len(tt.input))
			}
		})
	}
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name     string
		initial  string
		offset   int64
		text     string
		expected string
	}{
		{"insert at start", "world", 0, "hello ", "hello world"},
		{"insert at end", "hello", 5, " world", "hello world"},
		{"insert in middle", "helloworld", 5, " ", "hello world"},
		{"insert into empty", "", 0, "hello", "hello"},
		{"insert empty string", "hello", 3, "", "hello"},
		{"insert after wide char", "世界", 1, "!", "世!界"},
		{"insert after emoji", "a🌍b", 2, "x", "a🌍xb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial).Insert(tt.offset, tt.text)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		initial    string
		start, end int64
		expected   string
	}{
		{"delete from start", "hello world", 0, 6, "world"},
		{"delete from end", "hello world", 5, 11, "hello"},
		{"delete from middle", "hello world", 5, 6, "helloworld"},
		{"delete all", "hello", 0, 5, ""},
		{"delete nothing", "hello", 3, 3, "hello"},
		{"delete beyond end", "hello", 0, 100, ""},
		{"delete wide chars", "日本語", 1, 2, "日語"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := FromString(tt.initial).Delete(tt.start, tt.end)
			if got := r.String(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestImmutability(t *testing.T) {
	r1 := FromString("hello")
	r2 := r1.Insert(5, " world")
	r3 := r2.Delete(0, 6)

	if r1.String() != "hello" {
		t.Errorf("r1 modified: %q", r1.String())
	}
	if r2.String() != "hello world" {
		t.Errorf("r2 = %q", r2.String())
	}
	if r3.String() != "world" {
		t.Errorf("r3 = %q", r3.String())
	}
}

func TestSliceAndRuneAt(t *testing.T) {
	text := strings.Repeat("αβγ\n", 200)
	r := FromString(text)
	runes := []rune(text)

	for _, span := range [][2]int64{{0, 4}, {3, 9}, {100, 400}, {795, 800}, {0, 800}} {
		want := string(runes[span[0]:span[1]])
		if got := r.Slice(span[0], span[1]); got != want {
			t.Errorf("Slice(%d, %d) = %q, want %q", span[0], span[1], got, want)
		}
	}

	for _, i := range []int64{0, 1, 3, 257, 799} {
		got, ok := r.RuneAt(i)
		if !ok || got != runes[i] {
			t.Errorf("RuneAt(%d) = %q, %v; want %q", i, got, ok, runes[i])
		}
	}
	if _, ok := r.RuneAt(800); ok {
		t.Error("RuneAt past end should fail")
	}
}

func TestSplitConcat(t *testing.T) {
	text := strings.Repeat("0123456789", 500)
	r := FromString(text)
	for _, at := range []int64{0, 1, 128, 1000, 4999, 5000} {
		left, right := r.Split(at)
		if left.Len() != at {
			t.Errorf("Split(%d) left len = %d", at, left.Len())
		}
		if got := left.Concat(right).String(); got != text {
			t.Errorf("Split(%d) then Concat lost text", at)
		}
	}
}

func TestManyEditsStayBalanced(t *testing.T) {
	r := New()
	var want strings.Builder
	for i := 0; i < 5000; i++ {
		r = r.Insert(r.Len(), "x")
		want.WriteByte('x')
	}
	if r.String() != want.String() {
		t.Fatal("content mismatch after appends")
	}
	if r.Height() > 12 {
		t.Errorf("height = %d, tree is not balanced", r.Height())
	}
}

func TestRunesFrom(t *testing.T) {
	r := FromString(strings.Repeat("ab€", 100))
	var got []rune
	var offsets []int64
	for off, ch := range r.Runes(298) {
		got = append(got, ch)
		offsets = append(offsets, off)
	}
	if string(got) != "ab" {
		t.Errorf("Runes(298) = %q, want %q", string(got), "ab")
	}
	if len(offsets) != 2 || offsets[0] != 298 || offsets[1] != 299 {
		t.Errorf("offsets = %v", offsets)
	}
}

func TestChunksCoverText(t *testing.T) {
	text := strings.Repeat("line\r\n", 400)
	r := FromString(text)
	var sb strings.Builder
	for c := range r.Chunks() {
		if strings.HasSuffix(c, "\r") {
			t.Errorf("chunk splits a CRLF pair: %q", c[max(0, len(c)-8):])
		}
		sb.WriteString(c)
	}
	if sb.String() != text {
		t.Error("chunks do not reassemble the text")
	}
}

func TestBuilderKeepsPartialRunes(t *testing.T) {
	text := strings.Repeat("日本語\r\n", 300)
	data := []byte(text)
	var b Builder
	// Feed in odd sized pieces so writes split multi-byte sequences.
	for i := 0; i < len(data); i += 7 {
		if _, err := b.Write(data[i:min(i+7, len(data))]); err != nil {
			t.Fatal(err)
		}
	}
	r := b.Build()
	if r.String() != text {
		t.Fatal("builder corrupted text")
	}
	if want := int64(utf8.RuneCountInString(text)); r.Len() != want {
		t.Errorf("Len() = %d, want %d", r.Len(), want)
	}
}

func TestFromReader(t *testing.T) {
	text := strings.Repeat("hello world\n", 1000)
	r, err := FromReader(strings.NewReader(text))
	if err != nil {
		t.Fatal(err)
	}
	if r.String() != text {
		t.Error("FromReader content mismatch")
	}
}

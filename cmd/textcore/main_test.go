package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"missing operands", []string{"find", "x"}, 2},
		{"bad flag", []string{"stats", "-nope", "a.txt"}, 2},
		{"missing file", []string{"stats", "/nonexistent/file.txt"}, 1},
		{"bad log level", []string{"-log-level", "loud", "stats", "a.txt"}, 2},
		{"missing config", []string{"-config", "/nonexistent/textcore.toml", "stats", "a.txt"}, 1},
		{"version", []string{"-version"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCmd(t, tt.args...)
			if code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestStats(t *testing.T) {
	path := writeFile(t, "a.txt", "a\r\nb\nhttp://x.io\n")
	code, out, errOut := runCmd(t, "stats", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	want := "lines=4 chars=17 longest=11 lf=2 crlf=1 cr=0 folds=0 urls=1"
	if !strings.Contains(out, want) {
		t.Errorf("stats output = %q, want it to contain %q", out, want)
	}
}

func TestStatsSeveralFilesInOrder(t *testing.T) {
	a := writeFile(t, "a.txt", "one\n")
	b := writeFile(t, "b.txt", "two\nlines\n")
	code, out, errOut := runCmd(t, "stats", a, b)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], a+":") || !strings.HasPrefix(lines[1], b+":") {
		t.Errorf("stats output = %q, want one line per file in argument order", out)
	}
}

func TestFind(t *testing.T) {
	path := writeFile(t, "pen.txt", "is this a pen\n")

	code, out, errOut := runCmd(t, "find", "is", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	want := path + ":1:1: is this a pen\n" + path + ":1:6: is this a pen\n"
	if out != want {
		t.Errorf("find output = %q, want %q", out, want)
	}

	_, out, _ = runCmd(t, "find", "-count", "-w", "is", path)
	if out != path+": 1\n" {
		t.Errorf("find -count -w output = %q, want one match", out)
	}
}

func TestReplaceDryRun(t *testing.T) {
	path := writeFile(t, "r.txt", "foo bar\nbaz\n")
	code, out, errOut := runCmd(t, "replace", "-dry-run", "foo", "qux", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	for _, want := range []string{"@@ -1,1 +1,1 @@\n", "-foo bar\n", "+qux bar\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff = %q, want it to contain %q", out, want)
		}
	}
	data, _ := os.ReadFile(path)
	if string(data) != "foo bar\nbaz\n" {
		t.Errorf("dry run modified the file: %q", data)
	}
}

func TestReplaceWritesFile(t *testing.T) {
	tests := []struct {
		name string
		args []string
		in   string
		want string
	}{
		{"literal", []string{"FOO", "qux"}, "foo bar\nFoo\n", "foo bar\nFoo\n"},
		{"literal ignore case", []string{"-i", "FOO", "qux"}, "foo bar\nFoo\n", "qux bar\nqux\n"},
		{"regexp groups", []string{"-regexp", "-group", `v(\d+)`, "version $1"}, "v2 and v10\n", "version 2 and version 10\n"},
		{"whole word", []string{"-w", "at", "@"}, "at cat at\n", "@ cat @\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "w.txt", tt.in)
			args := append([]string{"replace"}, tt.args...)
			code, _, errOut := runCmd(t, append(args, path)...)
			if code != 0 {
				t.Fatalf("exit code %d: %s", code, errOut)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("file = %q, want %q", data, tt.want)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	path := writeFile(t, "main.go", "package main\n\nfunc main() {\n\treturn\n}\n")
	code, out, errOut := runCmd(t, "tokens", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	for _, want := range []string{"1:1\tkeyword.other\t\"package\"", "3:1\tkeyword.declaration\t\"func\"", "4:2\tkeyword.control\t\"return\""} {
		if !strings.Contains(out, want) {
			t.Errorf("tokens output = %q, want it to contain %q", out, want)
		}
	}

	plain := writeFile(t, "notes.zzz", "no language here\n")
	if code, _, _ := runCmd(t, "tokens", plain); code != 1 {
		t.Errorf("file without a highlighter: exit code %d, want 1", code)
	}
}

func TestShow(t *testing.T) {
	path := writeFile(t, "main.go", "package main\n\nfunc main() {\n\treturn\n}\n")
	code, out, errOut := runCmd(t, "show", "-color", "never", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	want := "package main\n\nfunc main() {\n    return\n}\n"
	if out != want {
		t.Errorf("show output = %q, want %q", out, want)
	}

	code, out, _ = runCmd(t, "show", "-color", "always", "-find", "main", path)
	if code != 0 || !strings.Contains(out, "\x1b[") {
		t.Errorf("colored output = %q (exit %d), want escape sequences", out, code)
	}

	code, _, _ = runCmd(t, "show", "-color", "sometimes", path)
	if code != 1 {
		t.Errorf("invalid color mode: exit code %d, want 1", code)
	}
}

func TestShowWraps(t *testing.T) {
	path := writeFile(t, "w.go", "// hello world foo\n")
	code, out, errOut := runCmd(t, "show", "-color", "never", "-wrap", "9", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if want := "// hello \nworld foo\n"; out != want {
		t.Errorf("wrapped output = %q, want %q", out, want)
	}
}

func TestFolds(t *testing.T) {
	path := writeFile(t, "f.go", "func main() {\n\tif x {\n\t\ty()\n\t}\n}\n")
	code, out, errOut := runCmd(t, "folds", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "func main() {") || !strings.Contains(out, "  2-") {
		t.Errorf("folds output = %q, want the outer fold and the nested one indented", out)
	}

	_, out, _ = runCmd(t, "folds", "-strategy", "none", path)
	if out != "" {
		t.Errorf("folds with no strategy = %q, want nothing", out)
	}
}

func TestConfigFlag(t *testing.T) {
	cfg := writeFile(t, "textcore.yaml", "syntax:\n  folding: none\n")
	path := writeFile(t, "f.go", "func main() {\n}\n")
	code, out, errOut := runCmd(t, "-config", cfg, "stats", path)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, errOut)
	}
	if !strings.Contains(out, "folds=0") {
		t.Errorf("stats output = %q, want no folds with folding disabled", out)
	}
}

package main

import (
	"fmt"
	"io"
	"strings"

	diff "github.com/sergi/go-diff/diffmatchpatch"
)

// writeDiff prints the line changes between before and after as hunks
// without context.
func writeDiff(w io.Writer, path, before, after string) {
	dmp := diff.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	fmt.Fprintf(w, "--- a/%s\n+++ b/%s\n", path, path)
	oldLine, newLine := 1, 1
	var hunk []string
	var hunkOld, hunkNew, removed, added int
	flush := func() {
		if len(hunk) == 0 {
			return
		}
		fmt.Fprintf(w, "@@ -%d,%d +%d,%d @@\n", hunkOld, removed, hunkNew, added)
		for _, l := range hunk {
			fmt.Fprintln(w, l)
		}
		hunk, removed, added = hunk[:0], 0, 0
	}

	for _, d := range diffs {
		ls := splitLines(d.Text)
		if d.Type == diff.DiffEqual {
			flush()
			oldLine += len(ls)
			newLine += len(ls)
			continue
		}
		if len(hunk) == 0 {
			hunkOld, hunkNew = oldLine, newLine
		}
		prefix := "+"
		if d.Type == diff.DiffDelete {
			prefix = "-"
			removed += len(ls)
			oldLine += len(ls)
		} else {
			added += len(ls)
			newLine += len(ls)
		}
		for _, l := range ls {
			hunk = append(hunk, prefix+strings.TrimRight(l, "\r\n"))
		}
	}
	flush()
}

func splitLines(s string) []string {
	out := strings.SplitAfter(s, "\n")
	if out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/folding"
	"github.com/dshills/textcore/internal/engine/highlight"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/render"
)

func newFlagSet(e *env, name, operands string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.Usage = func() {
		fmt.Fprintf(e.stderr, "Usage: textcore %s [options] %s\n", name, operands)
		fs.PrintDefaults()
	}
	return fs
}

// parseArgs parses args and checks that at least n operands remain.
func parseArgs(fs *flag.FlagSet, args []string, n int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() < n {
		fs.Usage()
		return errUsage
	}
	return nil
}

// findFlags registers the flags shared by find and replace.
func findFlags(fs *flag.FlagSet) *engine.FindOptions {
	var o engine.FindOptions
	fs.BoolVar(&o.Regexp, "regexp", false, "Treat the pattern as a regular expression")
	fs.BoolVar(&o.IgnoreCase, "i", false, "Ignore case")
	fs.BoolVar(&o.WholeWord, "w", false, "Match whole words only")
	return &o
}

func runStats(e *env, args []string) error {
	fs := newFlagSet(e, "stats", "files...")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	s, err := openSession(e)
	if err != nil {
		return err
	}
	defer s.Close()
	files, err := loadFiles(e, s, fs.Args())
	if err != nil {
		return err
	}

	for _, f := range files {
		d := f.doc
		if _, err := d.Refresh(true); err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		var longest int64
		var terms [4]int
		for _, rec := range d.Table().Records(0) {
			longest = max(longest, rec.ContentLength())
			terms[rec.Terminator]++
		}
		urls, err := d.Markers(marker.URL, 0, d.Len())
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s: lines=%d chars=%d longest=%d lf=%d crlf=%d cr=%d folds=%d urls=%d\n",
			f.path, d.LineCount(), d.Len(), longest,
			terms[lines.LF], terms[lines.CRLF], terms[lines.CR],
			len(d.Folds()), len(urls))
	}
	return nil
}

func runFind(e *env, args []string) error {
	fs := newFlagSet(e, "find", "pattern files...")
	opts := findFlags(fs)
	count := fs.Bool("count", false, "Only print the number of matches per file")
	if err := parseArgs(fs, args, 2); err != nil {
		return err
	}
	pattern := fs.Arg(0)
	s, err := openSession(e)
	if err != nil {
		return err
	}
	defer s.Close()
	files, err := loadFiles(e, s, fs.Args()[1:])
	if err != nil {
		return err
	}

	for _, f := range files {
		d := f.doc
		if err := d.SetFindParam(pattern, *opts); err != nil {
			return err
		}
		matches, err := d.FindAll()
		if err != nil {
			return err
		}
		n := 0
		for m := range matches {
			n++
			if *count {
				continue
			}
			p, err := d.PointFromIndex(m.Start)
			if err != nil {
				return err
			}
			line, err := d.LineContent(p.Row)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s:%d:%d: %s\n", f.path, p.Row+1, p.Column+1, line)
		}
		if *count {
			fmt.Fprintf(e.stdout, "%s: %d\n", f.path, n)
		}
	}
	return nil
}

func runReplace(e *env, args []string) error {
	fs := newFlagSet(e, "replace", "pattern replacement files...")
	opts := findFlags(fs)
	group := fs.Bool("group", false, "Expand $1 and ${name} in the replacement (with -regexp)")
	dryRun := fs.Bool("dry-run", false, "Print a diff instead of writing the files")
	if err := parseArgs(fs, args, 3); err != nil {
		return err
	}
	pattern, replacement := fs.Arg(0), fs.Arg(1)
	s, err := openSession(e)
	if err != nil {
		return err
	}
	defer s.Close()
	files, err := loadFiles(e, s, fs.Args()[2:])
	if err != nil {
		return err
	}

	for _, f := range files {
		d := f.doc
		before := d.Text()
		var n int
		if opts.Regexp || opts.WholeWord {
			if err := d.SetFindParam(pattern, *opts); err != nil {
				return err
			}
			n, err = d.ReplaceAll(replacement, *group)
		} else {
			n, err = d.ReplaceAllLiteral(pattern, replacement, opts.IgnoreCase)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		if n == 0 {
			continue
		}
		if *dryRun {
			writeDiff(e.stdout, f.path, before, d.Text())
			continue
		}
		if err := saveFile(e, f.path, d); err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s: %d replacements\n", f.path, n)
	}
	return nil
}

func runTokens(e *env, args []string) error {
	fs := newFlagSet(e, "tokens", "file")
	lang := fs.String("lang", "", "Language or chroma lexer name; default from the file name")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	d, err := loadHighlighted(e, fs.Arg(0), *lang)
	if err != nil {
		return err
	}

	for row := range d.LineCount() {
		content, err := d.LineContent(row)
		if err != nil {
			return err
		}
		toks, err := d.Tokens(row)
		if err != nil {
			return err
		}
		runes := []rune(content)
		for _, tok := range toks {
			fmt.Fprintf(e.stdout, "%d:%d\t%s\t%q\n", row+1, tok.Start+1,
				highlight.TokenType(tok.Type), string(runes[tok.Start:tok.Start+tok.Length]))
		}
	}
	return nil
}

// loadHighlighted loads one file with a highlighter, from lang or the file
// name, and brings its tokens up to date.
func loadHighlighted(e *env, path, lang string, extra ...engine.Option) (*engine.Document, error) {
	s, err := openSession(e)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	files, err := loadFiles(e, s, []string{path}, extra...)
	if err != nil {
		return nil, err
	}
	d := files[0].doc
	if lang != "" {
		h, err := highlight.Lookup(highlight.DefaultRegistry(), lang)
		if err != nil {
			return nil, err
		}
		d.SetHighlighter(h)
	}
	if d.Highlighter() == nil {
		return nil, fmt.Errorf("%s: no highlighter; use -lang", path)
	}
	if _, err := d.Refresh(true); err != nil {
		return nil, err
	}
	return d, nil
}

func runShow(e *env, args []string) error {
	fs := newFlagSet(e, "show", "file")
	lang := fs.String("lang", "", "Language or chroma lexer name; default from the file name")
	color := fs.String("color", "auto", "Color output: auto, always or never")
	wrap := fs.Int("wrap", 0, "Wrap lines at this many columns; 0 disables wrapping")
	find := fs.String("find", "", "Highlight matches of this pattern")
	opts := findFlags(fs)
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	if *wrap < 0 {
		return fmt.Errorf("invalid wrap width %d", *wrap)
	}
	useColor, err := colorEnabled(*color, e.stdout)
	if err != nil {
		return err
	}
	theme, err := e.cfg.Theme()
	if err != nil {
		return err
	}
	factory := render.NewFactory(theme, int(e.cfg.Editor.TabWidth))
	d, err := loadHighlighted(e, fs.Arg(0), *lang, engine.WithLayoutFactory(factory))
	if err != nil {
		return err
	}
	if *find != "" {
		if err := d.SetFindParam(*find, *opts); err != nil {
			return err
		}
		if _, err := d.HighlightMatches(e.cfg.Markers()[marker.Find]); err != nil {
			return err
		}
	}
	d.SetWrapWidth(float64(*wrap))

	for row := range d.LineCount() {
		// The empty line after a final terminator is not printed.
		if row > 0 && row == d.LineCount()-1 {
			if content, _ := d.LineContent(row); content == "" {
				break
			}
		}
		layouts, err := d.Layout(row)
		if err != nil {
			return err
		}
		for _, l := range layouts {
			line := l.(*render.Line)
			for r := range line.Rows() {
				if useColor {
					fmt.Fprintln(e.stdout, line.ANSI(r))
				} else {
					fmt.Fprintln(e.stdout, line.Text(r))
				}
			}
		}
	}
	return nil
}

func runFolds(e *env, args []string) error {
	fs := newFlagSet(e, "folds", "file")
	strategy := fs.String("strategy", "", "Folding strategy: brace, indent or none; default from the configuration")
	if err := parseArgs(fs, args, 1); err != nil {
		return err
	}
	s, err := openSession(e)
	if err != nil {
		return err
	}
	defer s.Close()
	files, err := loadFiles(e, s, fs.Args()[:1])
	if err != nil {
		return err
	}
	d := files[0].doc
	if *strategy != "" {
		st, err := folding.ByName(*strategy, e.cfg.Editor.TabWidth)
		if err != nil {
			return err
		}
		d.SetFoldingStrategy(st)
	}
	if _, err := d.Refresh(true); err != nil {
		return err
	}

	for _, f := range d.Folds() {
		first, err := d.PointFromIndex(f.Start)
		if err != nil {
			return err
		}
		last, err := d.PointFromIndex(f.End())
		if err != nil {
			return err
		}
		head, err := d.LineContent(first.Row)
		if err != nil {
			return err
		}
		fmt.Fprintf(e.stdout, "%s%d-%d\t%s\n", strings.Repeat("  ", f.Depth), first.Row+1, last.Row+1, strings.TrimSpace(head))
	}
	return nil
}

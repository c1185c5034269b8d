package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/textcore/internal/config"
	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/highlight"
)

// file is a document loaded from disk.
type file struct {
	path string
	doc  *engine.Document
}

// loadFiles loads paths concurrently, in argument order, adding extra to
// the session options. The first failure cancels the remaining loads.
func loadFiles(e *env, s *config.Session, paths []string, extra ...engine.Option) ([]*file, error) {
	files := make([]*file, len(paths))
	g, ctx := errgroup.WithContext(e.ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			opts := append(s.Options(), extra...)
			if e.cfg.Syntax.Language == "" {
				if h := highlighterFor(path); h != nil {
					opts = append(opts, engine.WithHighlighter(h))
				}
			}
			d := engine.New(opts...)

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if err := d.Load(ctx, f); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			files[i] = &file{path: path, doc: d}
			e.logger.Debug("loaded %s: %d characters, %d lines", path, d.Len(), d.LineCount())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// highlighterFor picks a highlighter from the file name, preferring the
// built-in ones over chroma lexers.
func highlighterFor(path string) highlight.Highlighter {
	if h, ok := highlight.DefaultRegistry().ForFile(path); ok {
		return h
	}
	if h, err := highlight.ChromaForFile(filepath.Base(path)); err == nil {
		return h
	}
	return nil
}

// saveFile writes d back to path through a temporary file in the same
// directory, keeping the original permissions.
func saveFile(e *env, path string, d *engine.Document) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := d.Save(e.ctx, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// openSession resolves the configuration for the files of one command.
func openSession(e *env) (*config.Session, error) {
	return e.cfg.Open(e.ctx, e.logger)
}

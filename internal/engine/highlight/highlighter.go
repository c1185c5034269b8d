package highlight

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownLanguage is returned when no highlighter handles a language.
var ErrUnknownLanguage = errors.New("highlight: unknown language")

// Highlighter tokenizes one line at a time.
type Highlighter interface {
	// HighlightLine tokenizes line, which has no terminator. prev is the
	// state at the end of the previous line. It returns tokens sorted by
	// start and the state at the end of line.
	HighlightLine(line string, prev State) ([]Token, State)

	// Language returns the language name.
	Language() string

	// Extensions returns the file extensions handled, with the dot.
	Extensions() []string
}

// Registry looks up highlighters by language and file extension.
type Registry struct {
	mu          sync.RWMutex
	byLanguage  map[string]Highlighter
	byExtension map[string]Highlighter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byLanguage:  make(map[string]Highlighter),
		byExtension: make(map[string]Highlighter),
	}
}

// DefaultRegistry returns a registry holding the built-in regex
// highlighters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(GoHighlighter())
	r.Register(PythonHighlighter())
	r.Register(JavaScriptHighlighter())
	r.Register(LuaHighlighter())
	r.Register(MarkdownHighlighter())
	return r
}

// Register adds h, replacing any highlighter for the same language or
// extensions.
func (r *Registry) Register(h Highlighter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byLanguage[strings.ToLower(h.Language())] = h
	for _, ext := range h.Extensions() {
		r.byExtension[strings.ToLower(ext)] = h
	}
}

// ByLanguage returns the highlighter for language.
func (r *Registry) ByLanguage(language string) (Highlighter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byLanguage[strings.ToLower(language)]
	return h, ok
}

// ByExtension returns the highlighter for ext, with or without the dot.
func (r *Registry) ByExtension(ext string) (Highlighter, bool) {
	if ext == "" {
		return nil, false
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.byExtension[strings.ToLower(ext)]
	return h, ok
}

// ForFile returns the highlighter for path's extension.
func (r *Registry) ForFile(path string) (Highlighter, bool) {
	return r.ByExtension(filepath.Ext(path))
}

// Languages returns the registered language names, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.byLanguage))
	for lang := range r.byLanguage {
		out = append(out, lang)
	}
	slices.Sort(out)
	return out
}

// Lookup resolves name as a registered language first and a chroma lexer
// second.
func Lookup(r *Registry, name string) (Highlighter, error) {
	if r != nil {
		if h, ok := r.ByLanguage(name); ok {
			return h, nil
		}
	}
	return NewChroma(name)
}

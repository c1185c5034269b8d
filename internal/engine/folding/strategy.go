package folding

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/script"
)

// Region is a foldable block spanning rows [StartRow, EndRow].
type Region struct {
	StartRow int
	EndRow   int
}

// Strategy finds the foldable regions of a document.
type Strategy interface {
	Regions(ctx context.Context, t *lines.Table) ([]Region, error)
}

// Null folds nothing. Installing it clears every fold.
type Null struct{}

// Regions implements Strategy.
func (Null) Regions(context.Context, *lines.Table) ([]Region, error) {
	return nil, nil
}

// Brace folds the text between matching bracket pairs on different rows.
type Brace struct {
	// Pairs lists open and close runes alternately, e.g. "{}[]".
	Pairs string
	// LineComment starts a comment running to the end of the row.
	LineComment string
}

// NewBrace returns a Brace strategy for C-like languages.
func NewBrace() *Brace {
	return &Brace{Pairs: "{}[]()", LineComment: "//"}
}

type openBrace struct {
	r   rune
	row int
}

// Regions implements Strategy. Brackets inside quoted strings and line
// comments are ignored. Only the outermost region starting on a row is
// reported.
func (b *Brace) Regions(ctx context.Context, t *lines.Table) ([]Region, error) {
	pairs := []rune(b.Pairs)
	var stack []openBrace
	best := make(map[int]int)

	for row := range t.Count() {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		content, err := t.LineContent(row)
		if err != nil {
			return nil, err
		}
		if b.LineComment != "" {
			content = stripComment(content, b.LineComment)
		}
		var quote rune
		escaped := false
		for _, r := range content {
			if quote != 0 {
				switch {
				case escaped:
					escaped = false
				case r == '\\':
					escaped = true
				case r == quote:
					quote = 0
				}
				continue
			}
			if r == '"' || r == '\'' || r == '`' {
				quote = r
				continue
			}
			i := slices.Index(pairs, r)
			switch {
			case i < 0:
			case i%2 == 0:
				stack = append(stack, openBrace{r: r, row: row})
			case len(stack) > 0 && stack[len(stack)-1].r == pairs[i-1]:
				open := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if row > open.row && row > best[open.row] {
					best[open.row] = row
				}
			}
		}
	}

	out := make([]Region, 0, len(best))
	for start, end := range best {
		out = append(out, Region{StartRow: start, EndRow: end})
	}
	slices.SortFunc(out, func(a, b Region) int { return a.StartRow - b.StartRow })
	return out, nil
}

// stripComment cuts content at the first marker outside a string.
func stripComment(content, marker string) string {
	var quote rune
	escaped := false
	for i, r := range content {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
			}
			continue
		}
		if r == '"' || r == '\'' || r == '`' {
			quote = r
			continue
		}
		if strings.HasPrefix(content[i:], marker) {
			return content[:i]
		}
	}
	return content
}

// Indent folds blocks of rows indented deeper than the row above them.
// Blank rows never end a block.
type Indent struct {
	TabWidth int
}

type indentLevel struct {
	width int
	row   int
}

// Regions implements Strategy.
func (s *Indent) Regions(ctx context.Context, t *lines.Table) ([]Region, error) {
	tab := s.TabWidth
	if tab <= 0 {
		tab = 4
	}
	var (
		out       []Region
		stack     []indentLevel
		lastSolid = -1
	)
	closeTo := func(width int) {
		for len(stack) > 0 && stack[len(stack)-1].width >= width {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if lastSolid > top.row {
				out = append(out, Region{StartRow: top.row, EndRow: lastSolid})
			}
		}
	}

	for row := range t.Count() {
		if row%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		content, err := t.LineContent(row)
		if err != nil {
			return nil, err
		}
		width, blank := indentWidth(content, tab)
		if blank {
			continue
		}
		closeTo(width)
		stack = append(stack, indentLevel{width: width, row: row})
		lastSolid = row
	}
	closeTo(0)

	slices.SortFunc(out, func(a, b Region) int { return a.StartRow - b.StartRow })
	return out, nil
}

func indentWidth(s string, tab int) (int, bool) {
	w := 0
	for _, r := range s {
		switch r {
		case ' ':
			w++
		case '\t':
			w += tab - w%tab
		default:
			return w, false
		}
	}
	return w, true
}

// Lua delegates to a script function that receives the document rows as
// an array of strings and returns an array of {start_row, end_row} pairs.
// Script rows are 1-based.
type Lua struct {
	state *script.State
	fn    string
}

// DefaultLuaFunction is the script function a Lua strategy calls.
const DefaultLuaFunction = "folds"

// NewLua returns a strategy calling fn in st.
func NewLua(st *script.State, fn string) *Lua {
	if fn == "" {
		fn = DefaultLuaFunction
	}
	return &Lua{state: st, fn: fn}
}

// LoadLua runs src in st and returns a strategy calling its folds
// function.
func LoadLua(ctx context.Context, st *script.State, src string) (*Lua, error) {
	if err := st.DoString(ctx, src); err != nil {
		return nil, fmt.Errorf("folding: load script: %w", err)
	}
	if !st.HasFunction(DefaultLuaFunction) {
		return nil, fmt.Errorf("folding: %w: %s", script.ErrFunctionNotFound, DefaultLuaFunction)
	}
	return NewLua(st, DefaultLuaFunction), nil
}

// Regions implements Strategy.
func (l *Lua) Regions(ctx context.Context, t *lines.Table) ([]Region, error) {
	rows := make([]string, t.Count())
	for row := range rows {
		content, err := t.LineContent(row)
		if err != nil {
			return nil, err
		}
		rows[row] = content
	}
	res, err := l.state.Call(ctx, l.fn, l.state.StringSlice(rows))
	if err != nil {
		return nil, fmt.Errorf("folding: %s: %w", l.fn, err)
	}
	if len(res) == 0 {
		return nil, nil
	}
	var out []Region
	for _, pair := range script.Tables(res[0]) {
		a, b, ok := script.IntPair(pair)
		if !ok {
			continue
		}
		out = append(out, Region{StartRow: a - 1, EndRow: b - 1})
	}
	return out, nil
}

// ByName returns the built-in strategy called name: "brace", "indent" or
// "none". The empty name is "none".
func ByName(name string, tabWidth int) (Strategy, error) {
	switch strings.ToLower(name) {
	case "brace":
		return NewBrace(), nil
	case "indent":
		return &Indent{TabWidth: tabWidth}, nil
	case "", "none":
		return Null{}, nil
	default:
		return nil, fmt.Errorf("folding: unknown strategy %q", name)
	}
}

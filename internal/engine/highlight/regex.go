package highlight

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rule assigns Type to every match of Pattern.
type Rule struct {
	Pattern *regexp.Regexp
	Type    TokenType
}

type multiLine struct {
	start, end string
	typ        TokenType
	state      State
}

// RegexHighlighter tokenizes with delimited multi-line constructs first,
// then regex rules in order, then identifiers checked against a keyword
// table. Earlier matches win over later overlapping ones.
type RegexHighlighter struct {
	language   string
	extensions []string
	multi      []multiLine
	rules      []Rule
	keywords   map[string]TokenType
}

// NewRegexHighlighter creates an empty highlighter.
func NewRegexHighlighter(language string, extensions ...string) *RegexHighlighter {
	return &RegexHighlighter{
		language:   language,
		extensions: extensions,
		keywords:   make(map[string]TokenType),
	}
}

// AddRule appends a rule. It panics if pattern does not compile.
func (h *RegexHighlighter) AddRule(pattern string, typ TokenType) *RegexHighlighter {
	h.rules = append(h.rules, Rule{Pattern: regexp.MustCompile(pattern), Type: typ})
	return h
}

// AddKeywords maps each word to typ.
func (h *RegexHighlighter) AddKeywords(typ TokenType, words ...string) *RegexHighlighter {
	for _, w := range words {
		h.keywords[w] = typ
	}
	return h
}

// AddMultiLine adds a construct from start to end that may span lines.
// While it is open the line state is state.
func (h *RegexHighlighter) AddMultiLine(start, end string, typ TokenType, state State) *RegexHighlighter {
	h.multi = append(h.multi, multiLine{start: start, end: end, typ: typ, state: state})
	return h
}

// Language implements Highlighter.
func (h *RegexHighlighter) Language() string { return h.language }

// Extensions implements Highlighter.
func (h *RegexHighlighter) Extensions() []string { return h.extensions }

// HighlightLine implements Highlighter.
func (h *RegexHighlighter) HighlightLine(line string, prev State) ([]Token, State) {
	var tokens []Token
	pos := 0
	if prev != StateNormal {
		ml, ok := h.ruleFor(prev)
		if !ok {
			prev = StateNormal
		} else {
			i := strings.Index(line, ml.end)
			if i < 0 {
				if line == "" {
					return nil, prev
				}
				return []Token{{Type: ml.typ, Start: 0, End: len(line)}}, prev
			}
			pos = i + len(ml.end)
			tokens = append(tokens, Token{Type: ml.typ, Start: 0, End: pos})
		}
	}

	rest, state := h.highlightFrom(line, pos)
	tokens = append(tokens, rest...)
	return tokens, state
}

func (h *RegexHighlighter) ruleFor(s State) (multiLine, bool) {
	for _, ml := range h.multi {
		if ml.state == s {
			return ml, true
		}
	}
	return multiLine{}, false
}

// highlightFrom tokenizes line[from:] in the normal state.
func (h *RegexHighlighter) highlightFrom(line string, from int) ([]Token, State) {
	var tokens []Token
	covered := make([]bool, len(line))
	for i := range from {
		covered[i] = true
	}
	mark := func(s, e int) {
		for i := s; i < e; i++ {
			covered[i] = true
		}
	}
	free := func(s, e int) bool {
		return !slices.Contains(covered[s:e], true)
	}

	// Single-line rules claim their text before multi-line openers so
	// that "/*" inside a string does not open a comment.
	for _, r := range h.rules {
		for _, loc := range r.Pattern.FindAllStringIndex(line[from:], -1) {
			s, e := loc[0]+from, loc[1]+from
			if e > s && free(s, e) {
				tokens = append(tokens, Token{Type: r.Type, Start: s, End: e})
				mark(s, e)
			}
		}
	}

	state := StateNormal
	for at := from; at < len(line); {
		ml, s, ok := h.nextOpener(line, at, covered)
		if !ok {
			break
		}
		body := s + len(ml.start)
		if i := strings.Index(line[body:], ml.end); i >= 0 {
			e := body + i + len(ml.end)
			tokens = dropOverlapping(tokens, s, e)
			tokens = append(tokens, Token{Type: ml.typ, Start: s, End: e})
			mark(s, e)
			at = e
			continue
		}
		tokens = dropOverlapping(tokens, s, len(line))
		tokens = append(tokens, Token{Type: ml.typ, Start: s, End: len(line)})
		mark(s, len(line))
		state = ml.state
		break
	}

	tokens = append(tokens, h.identifiers(line, covered)...)
	slices.SortFunc(tokens, func(a, b Token) int { return a.Start - b.Start })
	return tokens, state
}

// nextOpener finds the earliest uncovered multi-line opener at or after at.
func (h *RegexHighlighter) nextOpener(line string, at int, covered []bool) (multiLine, int, bool) {
	best, bestPos := multiLine{}, -1
	for _, ml := range h.multi {
		for from := at; from < len(line); {
			i := strings.Index(line[from:], ml.start)
			if i < 0 {
				break
			}
			i += from
			if !covered[i] {
				if bestPos < 0 || i < bestPos {
					best, bestPos = ml, i
				}
				break
			}
			from = i + 1
		}
	}
	return best, bestPos, bestPos >= 0
}

func dropOverlapping(tokens []Token, s, e int) []Token {
	return slices.DeleteFunc(tokens, func(t Token) bool {
		return t.Start < e && t.End > s && t.Start >= s
	})
}

func (h *RegexHighlighter) identifiers(line string, covered []bool) []Token {
	var tokens []Token
	for i := 0; i < len(line); {
		r, size := utf8.DecodeRuneInString(line[i:])
		if covered[i] || !(unicode.IsLetter(r) || r == '_') {
			i += size
			continue
		}
		start := i
		for i < len(line) && !covered[i] {
			r, size = utf8.DecodeRuneInString(line[i:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				break
			}
			i += size
		}
		typ, ok := h.keywords[line[start:i]]
		if !ok {
			typ = TokenIdentifier
		}
		tokens = append(tokens, Token{Type: typ, Start: start, End: i})
	}
	return tokens
}

// GoHighlighter returns the built-in Go highlighter.
func GoHighlighter() *RegexHighlighter {
	h := NewRegexHighlighter("go", ".go")
	h.AddMultiLine("/*", "*/", TokenCommentBlock, StateBlockComment)
	h.AddMultiLine("`", "`", TokenString, StateStringBacktick)

	h.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	h.AddRule(`'(?:[^'\\]|\\.)+'`, TokenString)
	h.AddRule(`//.*$`, TokenCommentLine)
	h.AddRule(`\b0[xX][0-9a-fA-F_]+\b`, TokenNumber)
	h.AddRule(`\b\d[\d_]*\.?\d*(?:[eE][+-]?\d+)?\b`, TokenNumber)

	h.AddKeywords(TokenKeywordControl,
		"if", "else", "for", "range", "switch", "case", "default",
		"break", "continue", "return", "goto", "fallthrough", "select")
	h.AddKeywords(TokenKeywordDeclaration,
		"func", "var", "const", "type", "struct", "interface", "map", "chan")
	h.AddKeywords(TokenKeywordOther, "package", "import", "defer", "go")
	h.AddKeywords(TokenConstant, "true", "false", "nil", "iota")
	h.AddKeywords(TokenTypeBuiltin,
		"int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr",
		"float32", "float64", "complex64", "complex128",
		"bool", "byte", "rune", "string", "error", "any")
	h.AddKeywords(TokenFunctionBuiltin,
		"make", "new", "len", "cap", "append", "copy", "delete",
		"close", "panic", "recover", "min", "max", "clear")
	return h
}

// PythonHighlighter returns the built-in Python highlighter.
func PythonHighlighter() *RegexHighlighter {
	h := NewRegexHighlighter("python", ".py", ".pyi")
	h.AddMultiLine(`"""`, `"""`, TokenString, StateStringDouble)
	h.AddMultiLine(`'''`, `'''`, TokenString, StateStringSingle)

	h.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	h.AddRule(`'(?:[^'\\]|\\.)*'`, TokenString)
	h.AddRule(`#.*$`, TokenCommentLine)
	h.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?j?\b`, TokenNumber)
	h.AddRule(`@\w+`, TokenMeta)

	h.AddKeywords(TokenKeywordControl,
		"if", "elif", "else", "for", "while", "break", "continue",
		"return", "try", "except", "finally", "raise", "with", "match", "case")
	h.AddKeywords(TokenKeywordDeclaration, "def", "class", "lambda", "async", "await")
	h.AddKeywords(TokenKeywordOther,
		"import", "from", "as", "global", "nonlocal", "pass", "yield",
		"assert", "del", "in", "is", "not", "and", "or")
	h.AddKeywords(TokenConstant, "True", "False", "None")
	h.AddKeywords(TokenFunctionBuiltin, "print", "len", "range", "enumerate", "zip", "open", "isinstance")
	return h
}

// JavaScriptHighlighter returns the built-in JavaScript highlighter.
func JavaScriptHighlighter() *RegexHighlighter {
	h := NewRegexHighlighter("javascript", ".js", ".mjs", ".ts")
	h.AddMultiLine("/*", "*/", TokenCommentBlock, StateBlockComment)
	h.AddMultiLine("`", "`", TokenString, StateStringBacktick)

	h.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	h.AddRule(`'(?:[^'\\]|\\.)*'`, TokenString)
	h.AddRule(`//.*$`, TokenCommentLine)
	h.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, TokenNumber)

	h.AddKeywords(TokenKeywordControl,
		"if", "else", "for", "while", "do", "switch", "case", "default",
		"break", "continue", "return", "throw", "try", "catch", "finally")
	h.AddKeywords(TokenKeywordDeclaration,
		"function", "var", "let", "const", "class", "extends", "async", "await")
	h.AddKeywords(TokenKeywordOther,
		"import", "export", "from", "new", "delete", "typeof", "instanceof", "this")
	h.AddKeywords(TokenConstant, "true", "false", "null", "undefined")
	return h
}

// LuaHighlighter returns the built-in Lua highlighter.
func LuaHighlighter() *RegexHighlighter {
	h := NewRegexHighlighter("lua", ".lua")
	h.AddMultiLine("--[[", "]]", TokenCommentBlock, StateBlockComment)
	h.AddMultiLine("[[", "]]", TokenString, StateStringDouble)

	h.AddRule(`"(?:[^"\\]|\\.)*"`, TokenString)
	h.AddRule(`'(?:[^'\\]|\\.)*'`, TokenString)
	h.AddRule(`--(?:[^\[].*)?$`, TokenCommentLine)
	h.AddRule(`\b\d+\.?\d*(?:[eE][+-]?\d+)?\b`, TokenNumber)

	h.AddKeywords(TokenKeywordControl,
		"if", "then", "elseif", "else", "for", "while", "repeat", "until",
		"do", "end", "break", "return", "goto")
	h.AddKeywords(TokenKeywordDeclaration, "function", "local")
	h.AddKeywords(TokenKeywordOther, "and", "or", "not", "in")
	h.AddKeywords(TokenConstant, "true", "false", "nil")
	return h
}

// MarkdownHighlighter returns the built-in Markdown highlighter.
func MarkdownHighlighter() *RegexHighlighter {
	h := NewRegexHighlighter("markdown", ".md", ".markdown")
	h.AddRule(`^#{1,6}\s+.*$`, TokenMarkupHeading)
	h.AddRule("`[^`]+`", TokenMarkupCode)
	h.AddRule(`\*\*[^*]+\*\*`, TokenMarkupBold)
	h.AddRule(`\*[^*]+\*`, TokenMarkupItalic)
	h.AddRule(`^>\s+.*$`, TokenMarkupQuote)
	h.AddRule(`^\s*(?:[-*+]|\d+\.)\s+`, TokenMarkupList)
	h.AddRule(`\[[^\]]+\]\([^)]+\)`, TokenMarkupLink)
	return h
}

package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// ChromaHighlighter tokenizes with a chroma lexer. Chroma lexers keep
// their state inside a single Tokenise call, so each line is lexed on its
// own and constructs spanning lines are not tracked: the end state is
// always StateNormal.
type ChromaHighlighter struct {
	lexer      chroma.Lexer
	language   string
	extensions []string
}

// NewChroma returns a highlighter for the chroma lexer named language.
func NewChroma(language string) (*ChromaHighlighter, error) {
	lex := lexers.Get(language)
	if lex == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}
	return newChroma(lex), nil
}

// ChromaForFile returns a highlighter for the lexer matching filename.
func ChromaForFile(filename string) (*ChromaHighlighter, error) {
	lex := lexers.Match(filename)
	if lex == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLanguage, filename)
	}
	return newChroma(lex), nil
}

func newChroma(lex chroma.Lexer) *ChromaHighlighter {
	h := &ChromaHighlighter{lexer: chroma.Coalesce(lex)}
	if cfg := lex.Config(); cfg != nil {
		h.language = strings.ToLower(cfg.Name)
		for _, pat := range cfg.Filenames {
			if ext, ok := strings.CutPrefix(pat, "*"); ok && strings.HasPrefix(ext, ".") && !strings.ContainsAny(ext, "*?[") {
				h.extensions = append(h.extensions, ext)
			}
		}
	}
	return h
}

// Language implements Highlighter.
func (h *ChromaHighlighter) Language() string { return h.language }

// Extensions implements Highlighter.
func (h *ChromaHighlighter) Extensions() []string { return h.extensions }

// HighlightLine implements Highlighter.
func (h *ChromaHighlighter) HighlightLine(line string, _ State) ([]Token, State) {
	it, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return nil, StateNormal
	}
	var tokens []Token
	pos := 0
	for _, tok := range it.Tokens() {
		start := pos
		pos = min(pos+len(tok.Value), len(line))
		if typ := fromChroma(tok.Type); typ != TokenNone && pos > start {
			tokens = append(tokens, Token{Type: typ, Start: start, End: pos})
		}
	}
	return tokens, StateNormal
}

// fromChroma maps a chroma token type onto the local set.
func fromChroma(tt chroma.TokenType) TokenType {
	switch {
	case tt == chroma.Error:
		return TokenInvalid
	case tt == chroma.CommentPreproc:
		return TokenMeta
	case tt == chroma.CommentMultiline:
		return TokenCommentBlock
	case tt.InCategory(chroma.Comment):
		return TokenCommentLine
	case tt == chroma.LiteralStringEscape:
		return TokenStringEscape
	case tt == chroma.LiteralStringRegex:
		return TokenStringRegexp
	case tt.InSubCategory(chroma.LiteralString):
		return TokenString
	case tt.InSubCategory(chroma.LiteralNumber):
		return TokenNumber
	case tt == chroma.KeywordType:
		return TokenTypeBuiltin
	case tt == chroma.KeywordConstant:
		return TokenConstant
	case tt == chroma.KeywordDeclaration:
		return TokenKeywordDeclaration
	case tt == chroma.KeywordNamespace:
		return TokenKeywordOther
	case tt.InCategory(chroma.Keyword):
		return TokenKeyword
	case tt == chroma.NameFunction:
		return TokenFunction
	case tt == chroma.NameBuiltin:
		return TokenFunctionBuiltin
	case tt == chroma.NameClass:
		return TokenTypeName
	case tt == chroma.NameConstant:
		return TokenConstant
	case tt == chroma.NameDecorator:
		return TokenMeta
	case tt.InCategory(chroma.Name):
		return TokenIdentifier
	case tt.InCategory(chroma.Operator):
		return TokenOperator
	case tt.InCategory(chroma.Punctuation):
		return TokenPunctuation
	case tt == chroma.GenericHeading || tt == chroma.GenericSubheading:
		return TokenMarkupHeading
	case tt == chroma.GenericStrong:
		return TokenMarkupBold
	case tt == chroma.GenericEmph:
		return TokenMarkupItalic
	default:
		return TokenNone
	}
}

// toChroma is the chroma type whose style stands in for each local type.
var toChroma = map[TokenType]chroma.TokenType{
	TokenComment:            chroma.Comment,
	TokenCommentLine:        chroma.CommentSingle,
	TokenCommentBlock:       chroma.CommentMultiline,
	TokenString:             chroma.LiteralString,
	TokenStringEscape:       chroma.LiteralStringEscape,
	TokenStringRegexp:       chroma.LiteralStringRegex,
	TokenNumber:             chroma.LiteralNumber,
	TokenKeyword:            chroma.Keyword,
	TokenKeywordControl:     chroma.Keyword,
	TokenKeywordDeclaration: chroma.KeywordDeclaration,
	TokenKeywordOther:       chroma.KeywordNamespace,
	TokenOperator:           chroma.Operator,
	TokenPunctuation:        chroma.Punctuation,
	TokenIdentifier:         chroma.Name,
	TokenConstant:           chroma.KeywordConstant,
	TokenFunction:           chroma.NameFunction,
	TokenFunctionBuiltin:    chroma.NameBuiltin,
	TokenTypeName:           chroma.NameClass,
	TokenTypeBuiltin:        chroma.KeywordType,
	TokenMeta:               chroma.CommentPreproc,
	TokenMarkupHeading:      chroma.GenericHeading,
	TokenMarkupBold:         chroma.GenericStrong,
	TokenMarkupItalic:       chroma.GenericEmph,
	TokenInvalid:            chroma.Error,
}

// Package highlight turns line text into syntax tokens and keeps the
// tokens of a line index current as the document changes.
package highlight

import "strings"

// TokenType is the semantic type of a token.
type TokenType uint16

// Token types. Subtypes follow their category so that Category can find
// the parent by name.
const (
	TokenNone TokenType = iota

	TokenComment
	TokenCommentLine
	TokenCommentBlock

	TokenString
	TokenStringEscape
	TokenStringRegexp

	TokenNumber

	TokenKeyword
	TokenKeywordControl     // if, else, for, return
	TokenKeywordDeclaration // func, var, type
	TokenKeywordOther       // package, import

	TokenOperator
	TokenPunctuation

	TokenIdentifier
	TokenConstant

	TokenFunction
	TokenFunctionBuiltin

	TokenTypeName
	TokenTypeBuiltin

	TokenMeta

	TokenMarkup
	TokenMarkupHeading
	TokenMarkupBold
	TokenMarkupItalic
	TokenMarkupCode
	TokenMarkupLink
	TokenMarkupQuote
	TokenMarkupList

	TokenInvalid

	tokenTypeCount
)

var tokenTypeNames = [tokenTypeCount]string{
	TokenNone:               "none",
	TokenComment:            "comment",
	TokenCommentLine:        "comment.line",
	TokenCommentBlock:       "comment.block",
	TokenString:             "string",
	TokenStringEscape:       "string.escape",
	TokenStringRegexp:       "string.regexp",
	TokenNumber:             "number",
	TokenKeyword:            "keyword",
	TokenKeywordControl:     "keyword.control",
	TokenKeywordDeclaration: "keyword.declaration",
	TokenKeywordOther:       "keyword.other",
	TokenOperator:           "operator",
	TokenPunctuation:        "punctuation",
	TokenIdentifier:         "identifier",
	TokenConstant:           "constant",
	TokenFunction:           "function",
	TokenFunctionBuiltin:    "function.builtin",
	TokenTypeName:           "type",
	TokenTypeBuiltin:        "type.builtin",
	TokenMeta:               "meta",
	TokenMarkup:             "markup",
	TokenMarkupHeading:      "markup.heading",
	TokenMarkupBold:         "markup.bold",
	TokenMarkupItalic:       "markup.italic",
	TokenMarkupCode:         "markup.code",
	TokenMarkupLink:         "markup.link",
	TokenMarkupQuote:        "markup.quote",
	TokenMarkupList:         "markup.list",
	TokenInvalid:            "invalid",
}

var scopeToToken = func() map[string]TokenType {
	m := make(map[string]TokenType, len(tokenTypeNames))
	for i, name := range tokenTypeNames {
		m[name] = TokenType(i)
	}
	return m
}()

// String returns the dotted scope name of t.
func (t TokenType) String() string {
	if t < tokenTypeCount {
		return tokenTypeNames[t]
	}
	return "unknown"
}

// Category returns the top-level type of t, e.g. TokenComment for
// TokenCommentLine.
func (t TokenType) Category() TokenType {
	name := t.String()
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return scopeToToken[name[:i]]
	}
	return t
}

// TypeFromScope converts a dotted scope such as "keyword.control.go" to
// the most specific known type, dropping trailing segments until one
// matches.
func TypeFromScope(scope string) TokenType {
	for scope != "" {
		if t, ok := scopeToToken[scope]; ok {
			return t
		}
		i := strings.LastIndexByte(scope, '.')
		if i < 0 {
			break
		}
		scope = scope[:i]
	}
	return TokenNone
}

// Token is a highlighted span of a line in byte offsets.
type Token struct {
	Type  TokenType
	Start int
	End   int
}

// State is the lexer state carried from the end of one line to the start
// of the next, for constructs spanning lines.
type State uint32

// Lexer states.
const (
	StateNormal State = iota
	StateBlockComment
	StateStringDouble
	StateStringSingle
	StateStringBacktick

	stateUnknown State = ^State(0)
)

package highlight

import (
	"fmt"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"
)

// Theme maps token types to terminal styles.
type Theme struct {
	Name    string
	Default tcell.Style
	Styles  map[TokenType]tcell.Style
}

// Style returns the style for t, falling back to its category and then
// to the default style.
func (th *Theme) Style(t TokenType) tcell.Style {
	if s, ok := th.Styles[t]; ok {
		return s
	}
	if s, ok := th.Styles[t.Category()]; ok {
		return s
	}
	return th.Default
}

func rgb(r, g, b int32) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(r, g, b))
}

// DefaultTheme returns the built-in dark theme.
func DefaultTheme() *Theme {
	comment := rgb(106, 153, 85).Italic(true)
	keyword := rgb(86, 156, 214)
	str := rgb(206, 145, 120)
	typ := rgb(78, 201, 176)
	fn := rgb(220, 220, 170)
	return &Theme{
		Name:    "default",
		Default: rgb(212, 212, 212),
		Styles: map[TokenType]tcell.Style{
			TokenComment:         comment,
			TokenString:          str,
			TokenStringEscape:    rgb(215, 186, 125),
			TokenNumber:          rgb(181, 206, 168),
			TokenKeyword:         keyword,
			TokenConstant:        keyword,
			TokenIdentifier:      rgb(156, 220, 254),
			TokenFunction:        fn,
			TokenTypeName:        typ,
			TokenMeta:            rgb(197, 134, 192),
			TokenMarkupHeading:   keyword.Bold(true),
			TokenMarkupBold:      tcell.StyleDefault.Bold(true),
			TokenMarkupItalic:    tcell.StyleDefault.Italic(true),
			TokenMarkupCode:      str,
			TokenMarkupLink:      typ.Underline(true),
			TokenInvalid:         rgb(244, 71, 71),
			TokenOperator:        rgb(212, 212, 212),
			TokenPunctuation:     rgb(212, 212, 212),
			TokenFunctionBuiltin: fn,
		},
	}
}

// LightTheme returns the built-in light theme.
func LightTheme() *Theme {
	keyword := rgb(0, 0, 255)
	return &Theme{
		Name:    "light",
		Default: rgb(0, 0, 0),
		Styles: map[TokenType]tcell.Style{
			TokenComment:       rgb(0, 128, 0).Italic(true),
			TokenString:        rgb(163, 21, 21),
			TokenNumber:        rgb(9, 134, 88),
			TokenKeyword:       keyword,
			TokenConstant:      keyword,
			TokenFunction:      rgb(121, 94, 38),
			TokenTypeName:      rgb(38, 127, 153),
			TokenMarkupHeading: keyword.Bold(true),
			TokenInvalid:       rgb(205, 49, 49),
		},
	}
}

// ChromaTheme converts the chroma style called name.
func ChromaTheme(name string) (*Theme, error) {
	sty, ok := styles.Registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("highlight: unknown theme %q", name)
	}
	th := &Theme{
		Name:    sty.Name,
		Default: fromEntry(sty.Get(chroma.Text)),
		Styles:  make(map[TokenType]tcell.Style, len(toChroma)),
	}
	for t, ct := range toChroma {
		th.Styles[t] = fromEntry(sty.Get(ct))
	}
	return th, nil
}

func fromEntry(e chroma.StyleEntry) tcell.Style {
	s := tcell.StyleDefault
	if e.Colour.IsSet() {
		s = s.Foreground(tcell.NewRGBColor(int32(e.Colour.Red()), int32(e.Colour.Green()), int32(e.Colour.Blue())))
	}
	if e.Background.IsSet() {
		s = s.Background(tcell.NewRGBColor(int32(e.Background.Red()), int32(e.Background.Green()), int32(e.Background.Blue())))
	}
	return s.
		Bold(e.Bold == chroma.Yes).
		Italic(e.Italic == chroma.Yes).
		Underline(e.Underline == chroma.Yes)
}

// ThemeByName returns a built-in theme or, failing that, a chroma style.
func ThemeByName(name string) (*Theme, error) {
	switch strings.ToLower(name) {
	case "", "default", "dark":
		return DefaultTheme(), nil
	case "light":
		return LightTheme(), nil
	}
	return ChromaTheme(name)
}

// ThemeNames returns the built-in theme names followed by the chroma
// style names, sorted.
func ThemeNames() []string {
	names := styles.Names()
	slices.Sort(names)
	return append([]string{"default", "light"}, names...)
}

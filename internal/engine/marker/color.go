package marker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownColor is returned by ParseColor for unrecognized input.
var ErrUnknownColor = errors.New("marker: unknown color")

// ParseColor parses "#rrggbb", "#rgb" or a color name such as "red".
func ParseColor(s string) (tcell.Color, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(expandShortHex(s))
		if err != nil {
			return tcell.ColorDefault, fmt.Errorf("%w: %q", ErrUnknownColor, s)
		}
		r, g, b := c.RGB255()
		return tcell.NewRGBColor(int32(r), int32(g), int32(b)), nil
	}
	c := tcell.GetColor(strings.ToLower(s))
	if c == tcell.ColorDefault {
		return c, fmt.Errorf("%w: %q", ErrUnknownColor, s)
	}
	return c, nil
}

func expandShortHex(s string) string {
	if len(s) != 4 {
		return s
	}
	return string([]byte{'#', s[1], s[1], s[2], s[2], s[3], s[3]})
}

// ParseKind parses a decoration kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return KindNormal, nil
	case "underline":
		return KindUnderline, nil
	case "squiggle":
		return KindSquiggle, nil
	case "strike":
		return KindStrike, nil
	case "mark":
		return KindMark, nil
	}
	return KindNormal, fmt.Errorf("marker: unknown kind %q", s)
}

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindUnderline:
		return "underline"
	case KindSquiggle:
		return "squiggle"
	case KindStrike:
		return "strike"
	case KindMark:
		return "mark"
	}
	return "normal"
}

package marker

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/textcore/internal/script"
)

// Watchdog generates markers of category ID for every match of Pattern.
type Watchdog struct {
	ID      ID
	Pattern *regexp.Regexp
	Marker  Marker
}

// URLWatchdog marks http, https and ftp URLs.
func URLWatchdog() Watchdog {
	return Watchdog{
		ID:      URL,
		Pattern: regexp.MustCompile(`(?:https?|ftp)://[^\s<>"'()]+`),
		Marker:  Marker{Kind: KindUnderline},
	}
}

// AddWatchdog registers a rule. Existing text is not scanned until the
// next call to Scan.
func (c *Collection) AddWatchdog(w Watchdog) {
	c.watchdogs = append(c.watchdogs, w)
}

// Watchdogs returns the registered rules.
func (c *Collection) Watchdogs() []Watchdog {
	return c.watchdogs
}

// Scan re-evaluates every watchdog over text, which begins at document
// offset base and should consist of whole lines. Markers of each rule's
// category inside the scanned span are replaced by the fresh matches.
func (c *Collection) Scan(text string, base int64) {
	if len(c.watchdogs) == 0 {
		return
	}
	n := int64(utf8.RuneCountInString(text))
	for _, w := range c.watchdogs {
		if n > 0 {
			_ = c.RemoveRange(w.ID, base, n)
		}
		var bytePos int
		var charPos int64
		for _, loc := range w.Pattern.FindAllStringIndex(text, -1) {
			charPos += int64(utf8.RuneCountInString(text[bytePos:loc[0]]))
			start := charPos
			charPos += int64(utf8.RuneCountInString(text[loc[0]:loc[1]]))
			bytePos = loc[1]
			if charPos > start {
				_ = c.Set(w.ID, base+start, charPos-start, w.Marker)
			}
		}
	}
}

// LoadWatchdogs evaluates a Lua script that declares rules by calling
// watchdog{ id = 10, pattern = "TODO", kind = "mark", color = "#ffcc00", bold = true }.
func LoadWatchdogs(ctx context.Context, st *script.State, src string) ([]Watchdog, error) {
	var out []Watchdog
	var declErr error
	st.Register("watchdog", func(L *lua.LState) int {
		t := L.CheckTable(1)
		w, err := watchdogFromTable(t)
		if err != nil && declErr == nil {
			declErr = err
		}
		if err == nil {
			out = append(out, w)
		}
		return 0
	})
	if err := st.DoString(ctx, src); err != nil {
		return nil, fmt.Errorf("marker: watchdog script: %w", err)
	}
	if declErr != nil {
		return nil, declErr
	}
	return out, nil
}

func watchdogFromTable(t *lua.LTable) (Watchdog, error) {
	pattern := script.Field(t, "pattern", "")
	if pattern == "" {
		return Watchdog{}, errors.New("marker: watchdog without pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Watchdog{}, fmt.Errorf("marker: watchdog pattern %q: %w", pattern, err)
	}
	kind, err := ParseKind(script.Field(t, "kind", "normal"))
	if err != nil {
		return Watchdog{}, err
	}
	w := Watchdog{
		ID:      ID(script.IntField(t, "id", int(Highlight))),
		Pattern: re,
		Marker:  Marker{Kind: kind, Bold: script.BoolField(t, "bold", false)},
	}
	if hex := script.Field(t, "color", ""); hex != "" {
		if w.Marker.Color, err = ParseColor(hex); err != nil {
			return Watchdog{}, err
		}
	}
	return w, nil
}

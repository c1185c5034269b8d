package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/textcore/internal/engine"
	"github.com/dshills/textcore/internal/engine/marker"
	"github.com/dshills/textcore/internal/logging"
)

func TestNotifier(t *testing.T) {
	n := NewNotifier()

	var all, history, editor int
	subAll := n.Subscribe(func(Change) { all++ })
	n.SubscribeKey("history", func(Change) { history++ })
	n.SubscribeKey("editor.tab_width", func(Change) { editor++ })

	n.Notify(Change{Type: ChangeReload, Keys: []string{"history.undo_limit"}})
	n.Notify(Change{Type: ChangeReload, Keys: []string{"editor.tab_width", "log.level"}})
	n.Notify(Change{Type: ChangeError, Err: errors.New("boom")})

	if all != 3 || history != 1 || editor != 1 {
		t.Errorf("deliveries all=%d history=%d editor=%d, want 3, 1, 1", all, history, editor)
	}

	subAll.Unsubscribe()
	n.Notify(Change{Type: ChangeReload, Keys: []string{"history.merge_window"}})
	if all != 3 {
		t.Errorf("unsubscribed observer called: all=%d", all)
	}
	if history != 2 {
		t.Errorf("history = %d, want 2", history)
	}
}

// writeAtomic replaces path the way editors do, so the watcher sees a
// single create event for the file.
func writeAtomic(t *testing.T, path, content string) {
	t.Helper()
	tmp := filepath.Join(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
}

func waitChange(t *testing.T, ch <-chan Change) Change {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a config change")
	}
	return Change{}
}

func TestWatcherReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textcore.toml")
	writeAtomic(t, path, "[editor]\ntab_width = 4\n")

	w, err := Watch(path, WithDebounce(10*time.Millisecond))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	changes := make(chan Change, 8)
	w.Subscribe(func(c Change) { changes <- c })

	writeAtomic(t, path, "[editor]\ntab_width = 8\n")
	c := waitChange(t, changes)
	if c.Type != ChangeReload {
		t.Fatalf("Type = %v, want reload (err %v)", c.Type, c.Err)
	}
	if len(c.Keys) != 1 || c.Keys[0] != "editor.tab_width" {
		t.Errorf("Keys = %v, want [editor.tab_width]", c.Keys)
	}
	if c.Old.Editor.TabWidth != 4 || c.New.Editor.TabWidth != 8 {
		t.Errorf("Old/New tab width = %d/%d, want 4/8", c.Old.Editor.TabWidth, c.New.Editor.TabWidth)
	}
	if got := w.Current().Editor.TabWidth; got != 8 {
		t.Errorf("Current().TabWidth = %d, want 8", got)
	}

	writeAtomic(t, path, "[editor]\ntab_width = \"wide\"\n")
	c = waitChange(t, changes)
	if c.Type != ChangeError || c.Err == nil {
		t.Fatalf("Type = %v, Err = %v, want error change", c.Type, c.Err)
	}
	if got := w.Current().Editor.TabWidth; got != 8 {
		t.Errorf("Current().TabWidth = %d after failed reload, want 8", got)
	}
}

func TestWatcherClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textcore.yaml")
	writeAtomic(t, path, "log:\n  level: warn\n")

	w, err := Watch(path)
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	if w.Current().Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", w.Current().Log.Level)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := w.Reload(); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Reload after Close = %v, want ErrWatcherClosed", err)
	}
}

func TestWatchRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "textcore.json")
	writeAtomic(t, path, `{"editor": {"tab_width": -1}}`)
	if _, err := Watch(path); err == nil {
		t.Fatal("Watch accepted an invalid file")
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "watchdogs.lua")
	src := `watchdog{ id = 10, pattern = "TODO", kind = "mark", color = "#ffcc00" }`
	if err := os.WriteFile(script, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	c := Defaults()
	c.Syntax.Language = "go"
	c.Syntax.Watchdogs = script
	c.PageCache.Enabled = true
	c.PageCache.Dir = filepath.Join(dir, "pages")

	s, err := c.Open(context.Background(), logging.NullLogger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	text := "x := 1 // TODO see https://example.com\n"
	d := engine.New(append(s.Options(), engine.WithText(text))...)
	if d.Highlighter() == nil {
		t.Error("no highlighter configured")
	}

	todo, err := d.Markers(10, 0, d.Len())
	if err != nil {
		t.Fatal(err)
	}
	if len(todo) != 1 || todo[0].Start != 10 || todo[0].Length != 4 {
		t.Errorf("TODO markers = %+v, want one at 10 of length 4", todo)
	}

	urls, err := d.Markers(marker.URL, 0, d.Len())
	if err != nil {
		t.Fatal(err)
	}
	want, _ := ParseMarker(c.Palette["url"])
	if len(urls) != 1 || urls[0].Value != want {
		t.Errorf("URL markers = %+v, want one with %+v", urls, want)
	}

	if _, err := os.Stat(c.PageCache.Dir); err != nil {
		t.Errorf("page store directory not created: %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"folding", func(c *Config) { c.Syntax.Folding = "magic" }},
		{"encoding", func(c *Config) { c.Buffer.Encoding = "klingon" }},
		{"script", func(c *Config) { c.Syntax.Watchdogs = "/nonexistent/watchdogs.lua" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults()
			tt.mutate(c)
			if _, err := c.Open(context.Background(), nil); err == nil {
				t.Error("Open succeeded")
			}
		})
	}
}

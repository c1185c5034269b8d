package history

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// Target applies edits. Apply replaces removed characters at offset with text.
type Target interface {
	Apply(offset, removed int64, text string) error
}

// Command is a reversible edit. The concrete types are Insert, Remove,
// Replace, FullReplace and Group.
type Command interface {
	// Redo applies the command.
	Redo(t Target) error
	// Undo applies the inverse of the command.
	Undo(t Target) error
	// IsEmpty reports whether the command changes nothing.
	IsEmpty() bool
	// Description returns a human-readable description.
	Description() string

	command()
}

func runeLen(s string) int64 {
	return int64(utf8.RuneCountInString(s))
}

// Insert records text inserted at Offset.
type Insert struct {
	Offset int64
	Text   string
	At     time.Time
}

func (Insert) command() {}

func (c Insert) Redo(t Target) error { return t.Apply(c.Offset, 0, c.Text) }
func (c Insert) Undo(t Target) error { return t.Apply(c.Offset, runeLen(c.Text), "") }
func (c Insert) IsEmpty() bool       { return c.Text == "" }

func (c Insert) Description() string {
	return fmt.Sprintf("Insert %d characters", runeLen(c.Text))
}

// Remove records Text removed at Offset.
type Remove struct {
	Offset int64
	Text   string
	At     time.Time
}

func (Remove) command() {}

func (c Remove) Redo(t Target) error { return t.Apply(c.Offset, runeLen(c.Text), "") }
func (c Remove) Undo(t Target) error { return t.Apply(c.Offset, 0, c.Text) }
func (c Remove) IsEmpty() bool       { return c.Text == "" }

func (c Remove) Description() string {
	return fmt.Sprintf("Delete %d characters", runeLen(c.Text))
}

// Replace records Old replaced by New at Offset.
type Replace struct {
	Offset int64
	Old    string
	New    string
	At     time.Time
}

func (Replace) command() {}

func (c Replace) Redo(t Target) error { return t.Apply(c.Offset, runeLen(c.Old), c.New) }
func (c Replace) Undo(t Target) error { return t.Apply(c.Offset, runeLen(c.New), c.Old) }
func (c Replace) IsEmpty() bool       { return c.Old == c.New }

func (c Replace) Description() string {
	return "Replace"
}

// FullReplace records a change to the whole document by keeping the text
// before and after it. Bulk replacements use it instead of one command
// per match, at the cost of holding two copies of the document.
type FullReplace struct {
	Before string
	After  string
	Name   string
}

func (FullReplace) command() {}

func (c FullReplace) Redo(t Target) error { return t.Apply(0, runeLen(c.Before), c.After) }
func (c FullReplace) Undo(t Target) error { return t.Apply(0, runeLen(c.After), c.Before) }
func (c FullReplace) IsEmpty() bool       { return c.Before == c.After }

func (c FullReplace) Description() string {
	if c.Name != "" {
		return c.Name
	}
	return "Replace All"
}

// Group undoes and redoes its commands as one step.
type Group struct {
	Name     string
	Commands []Command
}

func (Group) command() {}

// Redo applies the commands in order. On error, the commands already
// applied are undone.
func (g Group) Redo(t Target) error {
	for i, c := range g.Commands {
		if err := c.Redo(t); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.Commands[j].Undo(t)
			}
			return fmt.Errorf("redo %s: %w", c.Description(), err)
		}
	}
	return nil
}

// Undo undoes the commands in reverse order. On error, the commands
// already undone are redone.
func (g Group) Undo(t Target) error {
	for i := len(g.Commands) - 1; i >= 0; i-- {
		if err := g.Commands[i].Undo(t); err != nil {
			for j := i + 1; j < len(g.Commands); j++ {
				_ = g.Commands[j].Redo(t)
			}
			return fmt.Errorf("undo %s: %w", g.Commands[i].Description(), err)
		}
	}
	return nil
}

// IsEmpty reports whether every command in the group is empty.
func (g Group) IsEmpty() bool {
	for _, c := range g.Commands {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func (g Group) Description() string {
	if g.Name != "" {
		return g.Name
	}
	return fmt.Sprintf("%d edits", len(g.Commands))
}

package history

import (
	"errors"
	"sync"
	"time"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("history: nothing to undo")
	ErrNothingToRedo = errors.New("history: nothing to redo")
)

// DefaultLimit is the default maximum number of undo steps.
const DefaultLimit = 1000

// Info describes one undo or redo step.
type Info struct {
	Description string
	Timestamp   time.Time
}

type entry struct {
	command   Command
	timestamp time.Time
}

// Manager keeps the undo and redo stacks of a document.
type Manager struct {
	mu sync.Mutex

	undoStack []entry
	redoStack []entry

	// open is true while the top of the undo stack may absorb the next
	// command.
	open bool

	// Grouping state; nested groups fold into the outermost one.
	depth     int
	groupName string
	groupCmds []Command

	limit  int
	window time.Duration
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLimit sets the maximum number of undo steps.
func WithLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.limit = n
		}
	}
}

// WithMergeWindow sets the longest pause between two merged edits. A
// negative window disables merging.
func WithMergeWindow(d time.Duration) Option {
	return func(m *Manager) {
		m.window = d
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		limit:  DefaultLimit,
		window: DefaultMergeWindow,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Push records an already applied command and clears the redo stack.
// Empty commands are dropped. Outside a group, the command is merged into
// the previous one when Merge allows it.
func (m *Manager) Push(cmd Command) {
	if cmd == nil || cmd.IsEmpty() {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redoStack = nil
	if m.depth > 0 {
		m.groupCmds = append(m.groupCmds, cmd)
		return
	}
	m.pushLocked(cmd, true)
}

func (m *Manager) pushLocked(cmd Command, mergeable bool) {
	if n := len(m.undoStack); n > 0 && mergeable && m.open && m.window >= 0 {
		if merged, ok := Merge(m.undoStack[n-1].command, cmd, m.window); ok {
			m.undoStack[n-1] = entry{command: merged, timestamp: m.now()}
			return
		}
	}

	m.undoStack = append(m.undoStack, entry{command: cmd, timestamp: m.now()})
	m.open = true

	if len(m.undoStack) > m.limit {
		excess := len(m.undoStack) - m.limit
		m.undoStack = append(m.undoStack[:0], m.undoStack[excess:]...)
	}
}

// Seal stops the last command from absorbing later ones.
func (m *Manager) Seal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = false
}

// Undo reverts the last command against t.
// The lock is released while the command runs, so t may call back into
// the manager.
func (m *Manager) Undo(t Target) error {
	m.mu.Lock()
	if len(m.undoStack) == 0 {
		m.mu.Unlock()
		return ErrNothingToUndo
	}
	e := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	m.open = false
	m.mu.Unlock()

	if err := e.command.Undo(t); err != nil {
		m.mu.Lock()
		m.undoStack = append(m.undoStack, e)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.redoStack = append(m.redoStack, e)
	m.mu.Unlock()
	return nil
}

// Redo reapplies the last undone command against t.
func (m *Manager) Redo(t Target) error {
	m.mu.Lock()
	if len(m.redoStack) == 0 {
		m.mu.Unlock()
		return ErrNothingToRedo
	}
	e := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.open = false
	m.mu.Unlock()

	if err := e.command.Redo(t); err != nil {
		m.mu.Lock()
		m.redoStack = append(m.redoStack, e)
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	m.undoStack = append(m.undoStack, e)
	m.mu.Unlock()
	return nil
}

// CanUndo returns true if undo is available.
func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack) > 0
}

// UndoCount returns the number of undo steps available.
func (m *Manager) UndoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undoStack)
}

// RedoCount returns the number of redo steps available.
func (m *Manager) RedoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.redoStack)
}

// BeginGroup starts a group. Commands pushed until the matching EndGroup
// become one undo step. Nested calls join the outer group.
func (m *Manager) BeginGroup(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.depth++
	if m.depth == 1 {
		m.groupName = name
		m.groupCmds = nil
	}
}

// EndGroup closes the innermost group. Closing the outermost one pushes
// the collected commands as a Group.
func (m *Manager) EndGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.depth == 0 {
		return
	}
	m.depth--
	if m.depth > 0 {
		return
	}

	cmds := m.groupCmds
	m.groupCmds = nil
	switch len(cmds) {
	case 0:
		return
	case 1:
		m.pushLocked(cmds[0], false)
	default:
		m.pushLocked(Group{Name: m.groupName, Commands: cmds}, false)
	}
	m.open = false
}

// CancelGroup drops the current group without recording it.
// The commands already applied stay applied.
func (m *Manager) CancelGroup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.depth = 0
	m.groupCmds = nil
}

// IsGrouping returns true while a group is open.
func (m *Manager) IsGrouping() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth > 0
}

// Clear removes all undo and redo history.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undoStack = nil
	m.redoStack = nil
	m.depth = 0
	m.groupCmds = nil
	m.open = false
}

// PeekUndo describes the next undo step.
func (m *Manager) PeekUndo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return peek(m.undoStack)
}

// PeekRedo describes the next redo step.
func (m *Manager) PeekRedo() (Info, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return peek(m.redoStack)
}

func peek(stack []entry) (Info, bool) {
	if len(stack) == 0 {
		return Info{}, false
	}
	e := stack[len(stack)-1]
	return Info{Description: e.command.Description(), Timestamp: e.timestamp}, true
}

// SetLimit changes the maximum number of undo steps, dropping the oldest
// ones if needed.
func (m *Manager) SetLimit(n int) {
	if n <= 0 {
		n = DefaultLimit
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.limit = n
	if len(m.undoStack) > n {
		m.undoStack = m.undoStack[len(m.undoStack)-n:]
	}
}

// Limit returns the maximum number of undo steps.
func (m *Manager) Limit() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limit
}

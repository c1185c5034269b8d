package history

// GroupScope closes a group with defer.
//
//	func indent(m *Manager, doc Target) {
//	    defer m.GroupScope("Indent").End()
//	    // ... multiple edits ...
//	}
type GroupScope struct {
	manager *Manager
	active  bool
}

// GroupScope starts a group and returns its scope.
func (m *Manager) GroupScope(name string) *GroupScope {
	m.BeginGroup(name)
	return &GroupScope{manager: m, active: true}
}

// End ends the group. Only the first call has an effect.
func (g *GroupScope) End() {
	if g.active {
		g.manager.EndGroup()
		g.active = false
	}
}

// Cancel drops the group without recording it.
func (g *GroupScope) Cancel() {
	if g.active {
		g.manager.CancelGroup()
		g.active = false
	}
}

// Transaction runs fn inside a group. If fn fails the group is cancelled
// and the error returned.
func (m *Manager) Transaction(name string, fn func() error) error {
	m.BeginGroup(name)
	if err := fn(); err != nil {
		m.CancelGroup()
		return err
	}
	m.EndGroup()
	return nil
}

// Checkpoint is a position in the undo stack.
type Checkpoint struct {
	depth int
}

// Checkpoint returns the current position. Later edits are not merged
// into steps recorded before it.
func (m *Manager) Checkpoint() Checkpoint {
	m.Seal()
	return Checkpoint{depth: m.UndoCount()}
}

// UndoTo undoes every step recorded after cp.
func (m *Manager) UndoTo(cp Checkpoint, t Target) error {
	for m.UndoCount() > cp.depth {
		if err := m.Undo(t); err != nil {
			return err
		}
	}
	return nil
}

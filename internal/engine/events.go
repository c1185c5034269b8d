package engine

import (
	"slices"
	"sync"
	"sync/atomic"
)

// UpdateType identifies what an Update announces.
type UpdateType int

const (
	// UpdateReplace is a local edit described by StartIndex, Removed and
	// Inserted.
	UpdateReplace UpdateType = iota
	// UpdateClear means the document was emptied.
	UpdateClear
	// UpdateRebuildLayout means the whole line index was rebuilt, after a
	// load or a document-wide replace.
	UpdateRebuildLayout
	// UpdateBuildLayout means layouts must be recreated without any
	// change to the text.
	UpdateBuildLayout
)

// String returns a human-readable name.
func (t UpdateType) String() string {
	switch t {
	case UpdateReplace:
		return "replace"
	case UpdateClear:
		return "clear"
	case UpdateRebuildLayout:
		return "rebuild-layout"
	case UpdateBuildLayout:
		return "build-layout"
	default:
		return "unknown"
	}
}

// Update is the notification sent to subscribers after a committed change.
type Update struct {
	Type       UpdateType
	StartIndex int64
	Removed    int64
	Inserted   int64
	// Row is the only line whose text changed, or -1 when the edit
	// changed line structure.
	Row int
}

// SubscriptionState represents the state of a subscription.
type SubscriptionState int32

const (
	// SubscriptionActive means the subscription receives updates.
	SubscriptionActive SubscriptionState = iota
	// SubscriptionPaused means updates are skipped until Resume.
	SubscriptionPaused
	// SubscriptionCancelled means the subscription is permanently removed.
	SubscriptionCancelled
)

// Subscription is a registered update handler.
type Subscription struct {
	fn    func(Update)
	state atomic.Int32
	owner *subscribers
}

// State returns the current subscription state.
func (s *Subscription) State() SubscriptionState {
	return SubscriptionState(s.state.Load())
}

// Pause temporarily stops delivery.
func (s *Subscription) Pause() {
	s.state.CompareAndSwap(int32(SubscriptionActive), int32(SubscriptionPaused))
}

// Resume restarts delivery after a pause.
func (s *Subscription) Resume() {
	s.state.CompareAndSwap(int32(SubscriptionPaused), int32(SubscriptionActive))
}

// Cancel removes the subscription. It cannot be resumed.
func (s *Subscription) Cancel() {
	if SubscriptionState(s.state.Swap(int32(SubscriptionCancelled))) == SubscriptionCancelled {
		return
	}
	s.owner.remove(s)
}

type subscribers struct {
	mu   sync.Mutex
	list []*Subscription
}

func (l *subscribers) add(fn func(Update)) *Subscription {
	s := &Subscription{fn: fn, owner: l}
	l.mu.Lock()
	l.list = append(l.list, s)
	l.mu.Unlock()
	return s
}

func (l *subscribers) remove(s *Subscription) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if i := slices.Index(l.list, s); i >= 0 {
		l.list = slices.Delete(l.list, i, i+1)
	}
}

// publish calls the active handlers in subscription order. Handlers may
// subscribe or cancel while being called.
func (l *subscribers) publish(u Update) {
	l.mu.Lock()
	list := slices.Clone(l.list)
	l.mu.Unlock()
	for _, s := range list {
		if s.State() == SubscriptionActive {
			s.fn(u)
		}
	}
}

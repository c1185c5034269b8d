package config

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// ChangeType represents the type of configuration change.
type ChangeType int

const (
	// ChangeReload indicates the configuration was reloaded with new values.
	ChangeReload ChangeType = iota

	// ChangeError indicates a reload failed and the old values stay in force.
	ChangeError
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeReload:
		return "reload"
	case ChangeError:
		return "error"
	default:
		return "unknown"
	}
}

// Change represents a configuration change event.
type Change struct {
	Type ChangeType

	// Source is the file the change came from.
	Source string

	// Keys lists the dotted keys whose values changed.
	Keys []string

	// Old and New are the configurations before and after. New is nil for
	// ChangeError.
	Old *Config
	New *Config

	// Err is the load failure for ChangeError.
	Err error
}

// Observer is called when configuration changes occur.
type Observer func(change Change)

// Subscription represents an active observer subscription.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes this subscription.
func (s *Subscription) Unsubscribe() {
	if s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

// Notifier manages configuration change subscriptions.
type Notifier struct {
	mu sync.RWMutex

	// Observers that receive all changes
	global map[uint64]Observer

	// Observers keyed by setting or section
	keyed map[string]map[uint64]Observer

	nextID uint64
}

// NewNotifier creates an empty Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		global: make(map[uint64]Observer),
		keyed:  make(map[string]map[uint64]Observer),
	}
}

// Subscribe registers an observer for all changes, failed reloads included.
func (n *Notifier) Subscribe(observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.global[id] = observer
	return &Subscription{id: id, notifier: n}
}

// SubscribeKey registers an observer for reloads that change key. A
// section name such as "history" matches every key inside it.
func (n *Notifier) SubscribeKey(key string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	if n.keyed[key] == nil {
		n.keyed[key] = make(map[uint64]Observer)
	}
	n.keyed[key][id] = observer
	return &Subscription{id: id, notifier: n}
}

// Notify delivers change synchronously, in subscription order.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	matched := make(map[uint64]Observer)
	maps.Copy(matched, n.global)
	if change.Type == ChangeReload {
		for key, observers := range n.keyed {
			if touches(change.Keys, key) {
				maps.Copy(matched, observers)
			}
		}
	}
	n.mu.RUnlock()

	// Call observers outside the lock
	for _, id := range slices.Sorted(maps.Keys(matched)) {
		matched[id](change)
	}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.global, id)
	for key, observers := range n.keyed {
		delete(observers, id)
		if len(observers) == 0 {
			delete(n.keyed, key)
		}
	}
}

func touches(keys []string, key string) bool {
	for _, k := range keys {
		if k == key || strings.HasPrefix(k, key+".") {
			return true
		}
	}
	return false
}

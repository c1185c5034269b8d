package buffer

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// maxReaders bounds the number of concurrent shared holders. A writer
// acquires the full weight, which excludes every reader and other writers.
const maxReaders = 1 << 30

// RWLock is a shared-reader/exclusive-writer lock with both blocking and
// context-aware acquisition. Waiters are served in FIFO order, so a queued
// writer holds back readers that arrive after it.
type RWLock struct {
	sem *semaphore.Weighted
}

// NewRWLock creates an unlocked RWLock.
func NewRWLock() *RWLock {
	return &RWLock{sem: semaphore.NewWeighted(maxReaders)}
}

// Lock acquires the lock exclusively, blocking until it is available.
func (l *RWLock) Lock() {
	_ = l.sem.Acquire(context.Background(), maxReaders)
}

// LockContext acquires the lock exclusively or returns ctx.Err() if the
// context is done first.
func (l *RWLock) LockContext(ctx context.Context) error {
	return l.sem.Acquire(ctx, maxReaders)
}

// TryLock acquires the lock exclusively without waiting.
func (l *RWLock) TryLock() bool {
	return l.sem.TryAcquire(maxReaders)
}

// Unlock releases an exclusive hold.
func (l *RWLock) Unlock() {
	l.sem.Release(maxReaders)
}

// RLock acquires a shared hold, blocking until it is available.
func (l *RWLock) RLock() {
	_ = l.sem.Acquire(context.Background(), 1)
}

// RLockContext acquires a shared hold or returns ctx.Err().
func (l *RWLock) RLockContext(ctx context.Context) error {
	return l.sem.Acquire(ctx, 1)
}

// TryRLock acquires a shared hold without waiting.
func (l *RWLock) TryRLock() bool {
	return l.sem.TryAcquire(1)
}

// RUnlock releases a shared hold.
func (l *RWLock) RUnlock() {
	l.sem.Release(1)
}

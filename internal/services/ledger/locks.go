package ledger

import (
	"context"
	"sync"
)

// OwnerLocks serializes work per owner. Withdrawal initiation and webhook
// reconciliation for the same owner never interleave; different owners never
// wait on each other.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	ch   chan struct{}
	refs int
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until the owner's lock is held or ctx is done. The returned
// function releases it.
func (l *OwnerLocks) Lock(ctx context.Context, ownerID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[ownerID]
	if !ok {
		lock = &ownerLock{ch: make(chan struct{}, 1)}
		l.locks[ownerID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-lock.ch
				l.release(ownerID, lock)
			})
		}, nil
	case <-ctx.Done():
		l.release(ownerID, lock)
		return nil, ctx.Err()
	}
}

func (l *OwnerLocks) release(ownerID string, lock *ownerLock) {
	l.mu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()
}

// size is the number of owners with a live lock entry.
func (l *OwnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

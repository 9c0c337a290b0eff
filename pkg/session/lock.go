package session

import "sync"

// Locker is the in-memory advisory session lock table. A lock is keyed
// by session id and held by an opaque holder identity (a connection
// id). Acquisition is a non-blocking try-once: there is no wait queue
// and a failed acquisition is reported immediately.
//
// Locks are not persisted and do not survive a restart. The connection
// layer releases a holder's lock when the connection closes.
type Locker struct {
	mu      sync.Mutex
	holders map[string]string // session id → holder id
}

// NewLocker returns an empty lock table.
func NewLocker() *Locker {
	return &Locker{holders: make(map[string]string)}
}

// Acquire attempts to take the lock for id on behalf of holder.
// Returns true if the lock was unheld or already held by this holder
// (re-entrant), false if another holder owns it.
func (l *Locker) Acquire(id, holder string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.holders[id]
	if ok && cur != holder {
		return false
	}
	l.holders[id] = holder
	return true
}

// Release drops the lock for id if holder owns it; no-op otherwise.
func (l *Locker) Release(id, holder string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.holders[id] == holder {
		delete(l.holders, id)
	}
}

// Holder returns the current holder of id's lock, if any.
func (l *Locker) Holder(id string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.holders[id]
	return h, ok
}

// LockedByOther reports whether id's lock is held by someone other than
// holder.
func (l *Locker) LockedByOther(id, holder string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.holders[id]
	return ok && cur != holder
}

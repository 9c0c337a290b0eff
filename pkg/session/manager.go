package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Patch is a partial session update applied by Manager.Update.
// Nil fields are left untouched. A non-nil Dimensions map replaces the
// prior map wholesale; honoring the monotonic coverage contract is the
// caller's responsibility. AppendHistory entries are appended in order.
type Patch struct {
	Phase         *Phase
	Dimensions    map[DimensionID]Dimension
	AppendHistory []Message
}

// Manager composes the session store and the advisory lock table and
// owns all session lifecycle and mutation. Mutations on the same
// session id are serialized through a per-id mutex; operations on
// different ids proceed independently.
//
// The lock is advisory: Update does not demand proof of lock
// possession. Callers that want single-writer semantics must check
// LockedByOther before mutating (the connection layer does).
type Manager struct {
	store *Store
	locks *Locker

	mu    sync.Mutex
	byID  map[string]*sync.Mutex
	clock func() time.Time
}

// NewManager creates a Manager over the given store.
func NewManager(store *Store) *Manager {
	return &Manager{
		store: store,
		locks: NewLocker(),
		byID:  make(map[string]*sync.Mutex),
		clock: time.Now,
	}
}

// idMu returns the mutation mutex for a session id.
func (m *Manager) idMu(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	mu, ok := m.byID[id]
	if !ok {
		mu = &sync.Mutex{}
		m.byID[id] = mu
	}
	return mu
}

// Create makes a new session with a fresh id, every dimension at
// not_started and phase gathering, persists it, and returns it.
func (m *Manager) Create(ctx context.Context, slug string) (*Session, error) {
	sess := &Session{
		ID:         uuid.New().String(),
		Slug:       slug,
		StartedAt:  m.clock().UTC(),
		Phase:      PhaseGathering,
		Dimensions: NewDimensions(),
		History:    []Message{},
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session by id. Returns ErrNotFound if absent.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Update applies patch to the session under a read-modify-write cycle
// serialized per session id, persists synchronously, and returns the
// updated session. Returns ErrNotFound if the session does not exist.
func (m *Manager) Update(ctx context.Context, id string, patch Patch) (*Session, error) {
	mu := m.idMu(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Phase != nil {
		sess.Phase = *patch.Phase
	}
	if patch.Dimensions != nil {
		sess.Dimensions = patch.Dimensions
	}
	if len(patch.AppendHistory) > 0 {
		sess.History = append(sess.History, patch.AppendHistory...)
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Delete removes a session. Idempotent.
func (m *Manager) Delete(ctx context.Context, id string) error {
	mu := m.idMu(id)
	mu.Lock()
	defer mu.Unlock()
	return m.store.Delete(ctx, id)
}

// List returns all persisted sessions.
func (m *Manager) List(ctx context.Context) ([]*Session, error) {
	return m.store.List(ctx)
}

// AcquireLock tries to take the advisory lock for id on behalf of
// holder. Non-blocking, first-writer-wins, re-entrant for the same
// holder.
func (m *Manager) AcquireLock(id, holder string) bool {
	return m.locks.Acquire(id, holder)
}

// ReleaseLock drops the lock if holder owns it; no-op otherwise.
func (m *Manager) ReleaseLock(id, holder string) {
	m.locks.Release(id, holder)
}

// IsLockedByOther reports whether id's lock is held by another holder.
func (m *Manager) IsLockedByOther(id, holder string) bool {
	return m.locks.LockedByOther(id, holder)
}

// LockHolder returns the current lock holder for id, if any.
func (m *Manager) LockHolder(id string) (string, bool) {
	return m.locks.Holder(id)
}

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/mcr5fh/nova-voice/pkg/kv"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session: not found")

// KV key layout:
//
//	session:{id} → msgpack Session
func sessionKey(id string) kv.Key {
	return kv.Key{"session", id}
}

// Store persists sessions in a key-value store. Records are encoded
// with msgpack. Every write is synchronous; a fresh Store over the same
// kv data recovers any previously written session.
type Store struct {
	kv kv.Store
}

// NewStore creates a Store over the given kv backend.
func NewStore(kvs kv.Store) *Store {
	return &Store{kv: kvs}
}

// Put writes the session record.
func (s *Store) Put(ctx context.Context, sess *Session) error {
	data, err := msgpack.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", sess.ID, err)
	}
	return s.kv.Set(ctx, sessionKey(sess.ID), data)
}

// Get loads a session by id. Returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.kv.Get(ctx, sessionKey(id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := msgpack.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", id, err)
	}
	return &sess, nil
}

// Delete removes a session record. Idempotent.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, sessionKey(id))
}

// List returns all persisted sessions in id order.
func (s *Store) List(ctx context.Context) ([]*Session, error) {
	var out []*Session
	for entry, err := range s.kv.List(ctx, kv.Key{"session"}) {
		if err != nil {
			return nil, err
		}
		var sess Session
		if err := msgpack.Unmarshal(entry.Value, &sess); err != nil {
			return nil, fmt.Errorf("session: decode %s: %w", entry.Key, err)
		}
		out = append(out, &sess)
	}
	return out, nil
}

// Package kv is a small key-value store abstraction with hierarchical
// keys. A key is a slice of path segments (e.g. ["session", id]) joined
// with ':' for storage.
//
// Two implementations are provided: a BadgerDB-backed store for durable
// on-disk persistence and an in-memory store for tests.
package kv

import (
	"context"
	"errors"
	"iter"
	"strings"
)

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("kv: not found")

// Separator joins key segments in the encoded representation.
// Segments must not contain it.
const Separator = ":"

// Key is a hierarchical storage key.
type Key []string

// String returns the encoded form of the key.
func (k Key) String() string { return strings.Join(k, Separator) }

// decodeKey splits an encoded key back into segments.
func decodeKey(s string) Key { return strings.Split(s, Separator) }

// Entry is a key-value pair yielded by List.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is a minimal key-value store. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores value under key, overwriting any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key Key) error

	// List iterates entries whose key starts with prefix, in
	// lexicographic order of the encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// Close releases resources held by the store.
	Close() error
}

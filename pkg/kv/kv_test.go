package kv_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mcr5fh/nova-voice/pkg/kv"
)

func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	s := kv.NewMemory()
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := kv.Key{"session", "abc"}

	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get absent = %v, want ErrNotFound", err)
	}

	if err := s.Set(ctx, key, []byte("v1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Get = %q, want v1", got)
	}

	if err := s.Set(ctx, key, []byte("v2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, _ = s.Get(ctx, key)
	if string(got) != "v2" {
		t.Fatalf("Get after overwrite = %q, want v2", got)
	}

	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("Get after delete = %v, want ErrNotFound", err)
	}

	// Idempotent delete.
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
}

func TestListPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, k := range []kv.Key{
		{"session", "a"},
		{"session", "b"},
		{"session", "c"},
		{"other", "x"},
	} {
		if err := s.Set(ctx, k, []byte(k.String())); err != nil {
			t.Fatalf("Set %v: %v", k, err)
		}
	}

	var got []string
	for e, err := range s.List(ctx, kv.Key{"session"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		got = append(got, e.Key.String())
	}
	want := []string{"session:a", "session:b", "session:c"}
	if len(got) != len(want) {
		t.Fatalf("List = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValuesDoNotAliasStore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	key := kv.Key{"session", "a"}
	if err := s.Set(ctx, key, []byte("value")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got[0] = 'X'

	for e, err := range s.List(ctx, key) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		e.Value[0] = 'Y'
	}

	got, _ = s.Get(ctx, key)
	if string(got) != "value" {
		t.Fatalf("stored value mutated to %q through a returned slice", got)
	}
}

func TestBadgerInMemory(t *testing.T) {
	ctx := context.Background()
	s, err := kv.OpenBadger(kv.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	key := kv.Key{"session", "persisted"}
	if err := s.Set(ctx, key, []byte("payload")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("Get = %q, want payload", got)
	}

	n := 0
	for _, err := range s.List(ctx, kv.Key{"session"}) {
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Fatalf("List count = %d, want 1", n)
	}
}

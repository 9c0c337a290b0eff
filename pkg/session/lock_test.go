package session_test

import (
	"testing"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

func TestLockExclusivity(t *testing.T) {
	l := session.NewLocker()

	if !l.Acquire("s1", "A") {
		t.Fatal("first acquire by A must succeed")
	}
	if l.Acquire("s1", "B") {
		t.Fatal("acquire by B while A holds must fail")
	}
	if !l.Acquire("s1", "A") {
		t.Fatal("re-acquire by the holder must succeed")
	}

	// Release by a non-holder is a no-op.
	l.Release("s1", "B")
	if !l.LockedByOther("s1", "C") {
		t.Fatal("lock must still be held by A after B's bogus release")
	}
	if l.LockedByOther("s1", "A") {
		t.Fatal("LockedByOther must be false for the holder")
	}

	l.Release("s1", "A")
	if _, held := l.Holder("s1"); held {
		t.Fatal("lock must be free after the holder releases")
	}
	if !l.Acquire("s1", "B") {
		t.Fatal("acquire after release must succeed")
	}
}

func TestLocksAreIndependentAcrossSessions(t *testing.T) {
	l := session.NewLocker()
	if !l.Acquire("s1", "A") {
		t.Fatal("acquire s1")
	}
	if !l.Acquire("s2", "B") {
		t.Fatal("acquire s2 must be independent of s1")
	}
	if h, _ := l.Holder("s1"); h != "A" {
		t.Fatalf("s1 holder = %q, want A", h)
	}
	if h, _ := l.Holder("s2"); h != "B" {
		t.Fatalf("s2 holder = %q, want B", h)
	}
}

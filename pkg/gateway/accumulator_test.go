package gateway_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mcr5fh/nova-voice/pkg/gateway"
)

func TestAccumulatorOrderedConcat(t *testing.T) {
	acc := gateway.NewAudioAccumulator(0)

	for _, c := range [][]byte{[]byte("aa"), []byte("bb"), []byte("cc")} {
		if err := acc.Append(c); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if acc.Len() != 6 {
		t.Fatalf("Len = %d, want 6", acc.Len())
	}

	got := acc.FlushAndClear()
	if !bytes.Equal(got, []byte("aabbcc")) {
		t.Fatalf("FlushAndClear = %q, want aabbcc", got)
	}
	if acc.Len() != 0 {
		t.Fatal("accumulator must be empty after flush")
	}
	if got := acc.FlushAndClear(); len(got) != 0 {
		t.Fatalf("second flush = %q, want empty", got)
	}
}

func TestAccumulatorOverflowRejects(t *testing.T) {
	acc := gateway.NewAudioAccumulator(4)

	if err := acc.Append([]byte("abc")); err != nil {
		t.Fatalf("Append under limit: %v", err)
	}
	err := acc.Append([]byte("de"))
	if !errors.Is(err, gateway.ErrUtteranceTooLarge) {
		t.Fatalf("Append over limit = %v, want ErrUtteranceTooLarge", err)
	}
	// Reject policy clears the whole utterance.
	if acc.Len() != 0 {
		t.Fatalf("Len after overflow = %d, want 0", acc.Len())
	}
	if err := acc.Append([]byte("next")); err != nil {
		t.Fatalf("Append after overflow: %v", err)
	}
}

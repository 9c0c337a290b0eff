package gateway_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mcr5fh/nova-voice/pkg/gateway"
	"github.com/mcr5fh/nova-voice/pkg/retry"
	"github.com/mcr5fh/nova-voice/pkg/speech"
)

func fastPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond}
}

func TestResponderEmitsSegmentsInOrder(t *testing.T) {
	synth := speech.SynthesizeFunc(func(_ context.Context, text string) ([]byte, error) {
		return []byte("pcm:" + text), nil
	})
	var chunks []string
	r := gateway.NewStreamingResponder(synth, fastPolicy(), func(chunk []byte) error {
		chunks = append(chunks, string(chunk))
		return nil
	})

	if err := r.Speak(context.Background(), "First. Second! Third?"); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	want := []string{"pcm:First.", "pcm:Second!", "pcm:Third?"}
	if len(chunks) != len(want) {
		t.Fatalf("got %d chunks (%v), want %d", len(chunks), chunks, len(want))
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunk %d = %q, want %q", i, chunks[i], want[i])
		}
	}
}

func TestResponderStopSuppressesRemainingAudio(t *testing.T) {
	var r *gateway.StreamingResponder
	var calls int
	synth := speech.SynthesizeFunc(func(_ context.Context, text string) ([]byte, error) {
		calls++
		// Interruption arrives while the first segment is being synthesized.
		r.Stop()
		return []byte(text), nil
	})
	var emitted int
	r = gateway.NewStreamingResponder(synth, fastPolicy(), func([]byte) error {
		emitted++
		return nil
	})

	if err := r.Speak(context.Background(), "One. Two. Three."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if calls != 1 {
		t.Fatalf("synthesizer called %d times, want 1", calls)
	}
	if emitted != 0 {
		t.Fatalf("%d chunks emitted after stop, want 0", emitted)
	}
}

func TestResponderNewSpeakClearsStop(t *testing.T) {
	synth := speech.SynthesizeFunc(func(_ context.Context, text string) ([]byte, error) {
		return []byte(text), nil
	})
	var emitted int
	r := gateway.NewStreamingResponder(synth, fastPolicy(), func([]byte) error {
		emitted++
		return nil
	})

	r.Stop()
	if err := r.Speak(context.Background(), "Hello."); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if emitted != 1 {
		t.Fatalf("%d chunks emitted, want 1", emitted)
	}
}

func TestResponderActiveTracksSynthesis(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	synth := speech.SynthesizeFunc(func(_ context.Context, text string) ([]byte, error) {
		entered <- struct{}{}
		<-release
		return []byte(text), nil
	})
	r := gateway.NewStreamingResponder(synth, fastPolicy(), func([]byte) error { return nil })

	if r.Active() {
		t.Fatal("Active before any Speak")
	}

	done := make(chan error, 1)
	go func() { done <- r.Speak(context.Background(), "One. Two.") }()

	for i := 0; i < 2; i++ {
		<-entered
		if !r.Active() {
			t.Fatalf("Active = false during synthesis of segment %d", i)
		}
		release <- struct{}{}
	}
	if err := <-done; err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if r.Active() {
		t.Fatal("Active after Speak returned")
	}
}

func TestResponderSynthesisError(t *testing.T) {
	synth := speech.SynthesizeFunc(func(context.Context, string) ([]byte, error) {
		return nil, errors.New("connection refused")
	})
	r := gateway.NewStreamingResponder(synth, fastPolicy(), func([]byte) error { return nil })

	err := r.Speak(context.Background(), "Hello.")
	if err == nil {
		t.Fatal("Speak: want error")
	}
}

package gateway

import (
	"context"
	"sync/atomic"

	"github.com/mcr5fh/nova-voice/pkg/retry"
	"github.com/mcr5fh/nova-voice/pkg/speech"
)

// StreamingResponder turns one response text into a sequence of
// synthesized audio chunks, one per sentence segment, emitted in order.
// It is owned by exactly one connection and never restarted mid-turn:
// each Speak call is a fresh, finite, cancellable stream.
type StreamingResponder struct {
	synth  speech.Synthesizer
	policy retry.Policy
	emit   func(chunk []byte) error

	cancelled atomic.Bool
	active    atomic.Bool
}

// NewStreamingResponder creates a responder that synthesizes with synth
// (each call wrapped by policy) and hands finished chunks to emit.
func NewStreamingResponder(synth speech.Synthesizer, policy retry.Policy, emit func(chunk []byte) error) *StreamingResponder {
	return &StreamingResponder{synth: synth, policy: policy, emit: emit}
}

// Speak streams text as synthesized audio, segment by segment. The
// cancellation flag is checked before each synthesis call and again
// before each emit; chunks already emitted are never retracted. A
// synthesis failure (after retries) aborts the remainder of the stream
// and is returned to the caller.
func (r *StreamingResponder) Speak(ctx context.Context, text string) error {
	r.cancelled.Store(false)
	for _, seg := range speech.SplitSentences(text) {
		if r.cancelled.Load() {
			return nil
		}
		var audio []byte
		r.active.Store(true)
		err := r.policy.Do(ctx, retry.CodeSynthesisFailed, func(ctx context.Context) error {
			b, err := r.synth.Synthesize(ctx, seg)
			if err != nil {
				return err
			}
			audio = b
			return nil
		})
		r.active.Store(false)
		if err != nil {
			return err
		}
		// A stop that landed during synthesis suppresses this chunk too.
		if r.cancelled.Load() {
			return nil
		}
		if err := r.emit(audio); err != nil {
			return err
		}
	}
	return nil
}

// Active reports whether a synthesis call is outstanding right now.
func (r *StreamingResponder) Active() bool { return r.active.Load() }

// Stop requests cancellation of the in-flight stream. Safe from any
// goroutine; a no-op when nothing is outstanding (the flag is reset at
// the start of the next Speak).
func (r *StreamingResponder) Stop() { r.cancelled.Store(true) }

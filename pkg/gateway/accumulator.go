package gateway

import (
	"errors"
	"fmt"
)

// DefaultMaxUtteranceBytes caps one buffered utterance. 8 MiB is a few
// minutes of compressed speech; anything larger is a runaway client.
const DefaultMaxUtteranceBytes = 8 << 20

// ErrUtteranceTooLarge is returned by Append when the buffered
// utterance would exceed the configured cap. The buffer is cleared so
// the next utterance starts clean (reject policy).
var ErrUtteranceTooLarge = errors.New("gateway: utterance exceeds size limit")

// AudioAccumulator buffers the chunks of one in-progress utterance, in
// arrival order, scoped to a single connection. It is driven only by
// that connection's dispatch goroutine and needs no locking.
type AudioAccumulator struct {
	max    int
	size   int
	chunks [][]byte
}

// NewAudioAccumulator creates an accumulator with the given byte cap;
// maxBytes <= 0 means DefaultMaxUtteranceBytes.
func NewAudioAccumulator(maxBytes int) *AudioAccumulator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUtteranceBytes
	}
	return &AudioAccumulator{max: maxBytes}
}

// Append adds a chunk to the current utterance. On overflow the whole
// buffer is dropped and ErrUtteranceTooLarge returned.
func (a *AudioAccumulator) Append(chunk []byte) error {
	if a.size+len(chunk) > a.max {
		a.chunks = nil
		a.size = 0
		return fmt.Errorf("%w (limit %d bytes)", ErrUtteranceTooLarge, a.max)
	}
	a.chunks = append(a.chunks, chunk)
	a.size += len(chunk)
	return nil
}

// Len returns the number of buffered bytes.
func (a *AudioAccumulator) Len() int { return a.size }

// FlushAndClear concatenates the buffered chunks in arrival order and
// resets the accumulator.
func (a *AudioAccumulator) FlushAndClear() []byte {
	out := make([]byte, 0, a.size)
	for _, c := range a.chunks {
		out = append(out, c...)
	}
	a.chunks = nil
	a.size = 0
	return out
}

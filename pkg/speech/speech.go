// Package speech defines the transcription and synthesis contracts the
// server consumes, the sentence segmentation used for incremental
// synthesis, and OpenAI-backed implementations of both engines.
package speech

import "context"

// Transcriber converts one complete spoken utterance to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// TranscribeFunc adapts a function to the Transcriber interface.
type TranscribeFunc func(ctx context.Context, audio []byte) (string, error)

func (f TranscribeFunc) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return f(ctx, audio)
}

// Synthesizer converts one text segment to audio bytes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// SynthesizeFunc adapts a function to the Synthesizer interface.
type SynthesizeFunc func(ctx context.Context, text string) ([]byte, error)

func (f SynthesizeFunc) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f(ctx, text)
}

// Package gateway implements the wire protocol for one conversational
// session per connection: a JSON message envelope over a websocket,
// a per-connection dispatcher with single-turn-in-flight semantics,
// the utterance audio accumulator, and the cancellable streaming
// responder that pairs response text with synthesized audio chunks.
package gateway

import (
	"encoding/json"
	"fmt"
	"time"
)

// Message types.
const (
	// Bidirectional: inbound it binds (or re-reads) a session, outbound
	// it carries the full session snapshot.
	TypeSessionState = "session_state"

	// Inbound.
	TypeTextInput    = "text_input"
	TypeAudioChunk   = "audio_chunk"
	TypeStopSpeaking = "stop_speaking"

	// Outbound.
	TypeAIResponse       = "ai_response"
	TypeAIAudio          = "ai_audio"
	TypeTranscriptUpdate = "transcript_update"
	TypeError            = "error"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// ParseEnvelope decodes a raw frame.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("gateway: malformed envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("gateway: envelope missing type")
	}
	return &env, nil
}

// NewEnvelope wraps payload in an envelope stamped with the current
// time.
func NewEnvelope(typ string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: encode %s payload: %w", typ, err)
	}
	return &Envelope{Type: typ, Payload: data, Timestamp: time.Now().UTC()}, nil
}

// BindPayload is the inbound session_state payload. Exactly one of
// Slug (create) or SessionID (resume) should be set.
type BindPayload struct {
	Slug      string `json:"slug,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// TextInputPayload is the inbound text_input payload.
type TextInputPayload struct {
	Text string `json:"text"`
}

// AudioChunkPayload is the inbound audio_chunk payload. Chunk is
// base64-encoded audio; IsLast marks the utterance's terminal chunk.
type AudioChunkPayload struct {
	Chunk  string `json:"chunk"`
	IsLast bool   `json:"isLast"`
}

// ResponsePayload is the outbound ai_response payload.
type ResponsePayload struct {
	Text               string `json:"text"`
	ShouldGenerateSpec bool   `json:"shouldGenerateSpec"`
}

// AudioPayload is the outbound ai_audio payload carrying one
// base64-encoded synthesized chunk.
type AudioPayload struct {
	Chunk string `json:"chunk"`
}

// TranscriptPayload is the outbound transcript_update payload.
type TranscriptPayload struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// ErrorPayload is the outbound error payload.
type ErrorPayload struct {
	Message      string `json:"message"`
	Code         string `json:"code"`
	FallbackMode string `json:"fallbackMode,omitempty"`
}

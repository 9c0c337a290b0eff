package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mcr5fh/nova-voice/pkg/engine"
	"github.com/mcr5fh/nova-voice/pkg/retry"
	"github.com/mcr5fh/nova-voice/pkg/session"
	"github.com/mcr5fh/nova-voice/pkg/specdoc"
	"github.com/mcr5fh/nova-voice/pkg/speech"
)

// ConnOptions configures a connection handler.
type ConnOptions struct {
	Manager     *session.Manager
	Engine      engine.Engine
	Transcriber speech.Transcriber
	Synthesizer speech.Synthesizer

	// Specs persists generated spec documents. Optional; when nil the
	// shouldGenerateSpec signal is forwarded to the client but nothing
	// is written server-side.
	Specs *specdoc.Writer

	// Policy wraps every external call (transcribe, synthesize, engine
	// turn, spec save, session persistence).
	Policy retry.Policy

	// MaxUtteranceBytes caps one buffered utterance; <= 0 means
	// DefaultMaxUtteranceBytes.
	MaxUtteranceBytes int

	Logger *slog.Logger

	// Send delivers one outbound envelope to the client. The server
	// serializes concurrent senders.
	Send func(*Envelope) error
}

// Conn handles the protocol for one connection. Lifecycle: Unbound →
// Bound (first successful session_state bind) → Bound, forever; a
// connection never returns to Unbound and never rebinds to a different
// session.
//
// Dispatch must be called from a single goroutine (the server's
// dispatch loop): one turn is in flight at a time and outbound
// messages are emitted strictly in production order. Stop is the one
// concurrency-safe entry point, used by the read loop to land
// stop_speaking mid-turn.
type Conn struct {
	id     string
	mgr    *session.Manager
	eng    engine.Engine
	stt    speech.Transcriber
	specs  *specdoc.Writer
	policy retry.Policy
	log    *slog.Logger
	send   func(*Envelope) error

	sessionID string
	acc       *AudioAccumulator
	resp      *StreamingResponder
}

// NewConn creates a connection handler with a fresh holder identity.
func NewConn(opts ConnOptions) *Conn {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conn{
		id:     uuid.New().String(),
		mgr:    opts.Manager,
		eng:    opts.Engine,
		stt:    opts.Transcriber,
		specs:  opts.Specs,
		policy: opts.Policy,
		send:   opts.Send,
		acc:    NewAudioAccumulator(opts.MaxUtteranceBytes),
	}
	c.log = logger.With("conn", c.id[:8])
	c.resp = NewStreamingResponder(opts.Synthesizer, opts.Policy, func(chunk []byte) error {
		return c.sendPayload(TypeAIAudio, AudioPayload{
			Chunk: base64.StdEncoding.EncodeToString(chunk),
		})
	})
	return c
}

// ID returns the connection's holder identity.
func (c *Conn) ID() string { return c.id }

// SessionID returns the bound session id, or "" while Unbound.
func (c *Conn) SessionID() string { return c.sessionID }

// Stop cancels in-flight audio streaming. Safe from any goroutine.
func (c *Conn) Stop() { c.resp.Stop() }

// Close releases the connection's session lock and cancels streaming.
// Called by the server when the socket goes away.
func (c *Conn) Close() {
	c.resp.Stop()
	if c.sessionID != "" {
		c.mgr.ReleaseLock(c.sessionID, c.id)
	}
}

// Dispatch processes one inbound envelope. Every failure is translated
// into an error reply on the same connection; the connection itself is
// never torn down by a handled failure.
func (c *Conn) Dispatch(ctx context.Context, env *Envelope) {
	switch env.Type {
	case TypeSessionState:
		c.handleBind(ctx, env.Payload)
	case TypeTextInput:
		c.handleText(ctx, env.Payload)
	case TypeAudioChunk:
		c.handleAudio(ctx, env.Payload)
	case TypeStopSpeaking:
		c.resp.Stop()
	default:
		c.replyError(retry.Newf(retry.CodeInvalidMessage, "unknown message type %q", env.Type))
	}
}

func (c *Conn) handleBind(ctx context.Context, payload json.RawMessage) {
	var p BindPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.replyError(retry.New(retry.CodeInvalidMessage, "malformed session_state payload"))
		return
	}

	// Already bound: a repeat session_state is a state read.
	if c.sessionID != "" {
		sess, err := c.mgr.Get(ctx, c.sessionID)
		if errors.Is(err, session.ErrNotFound) {
			c.replyError(retry.Newf(retry.CodeSessionNotFound, "session %s not found", c.sessionID))
			return
		}
		if err != nil {
			c.replyError(err)
			return
		}
		c.sendSession(sess)
		return
	}

	switch {
	case p.Slug != "":
		var sess *session.Session
		err := c.policy.Do(ctx, retry.CodeSessionPersistFailed, func(ctx context.Context) error {
			s, err := c.mgr.Create(ctx, p.Slug)
			if err != nil {
				return err
			}
			sess = s
			return nil
		})
		if err != nil {
			c.replyError(err)
			return
		}
		c.bindTo(sess)
	case p.SessionID != "":
		sess, err := c.mgr.Get(ctx, p.SessionID)
		if errors.Is(err, session.ErrNotFound) {
			c.replyError(retry.Newf(retry.CodeSessionNotFound, "session %s not found", p.SessionID))
			return
		}
		if err != nil {
			c.replyError(err)
			return
		}
		c.bindTo(sess)
	default:
		c.replyError(retry.New(retry.CodeInvalidMessage, "session_state requires slug or sessionId"))
	}
}

// bindTo transitions Unbound → Bound and takes the session lock best
// effort. A held lock does not fail the bind: reads are always allowed
// and the lock is re-checked on every mutating turn.
func (c *Conn) bindTo(sess *session.Session) {
	c.sessionID = sess.ID
	if !c.mgr.AcquireLock(sess.ID, c.id) {
		holder, _ := c.mgr.LockHolder(sess.ID)
		c.log.Info("session locked by another connection", "session", sess.ID, "holder", holder)
	}
	c.sendSession(sess)
}

func (c *Conn) handleText(ctx context.Context, payload json.RawMessage) {
	var p TextInputPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.replyError(retry.New(retry.CodeInvalidMessage, "malformed text_input payload"))
		return
	}
	if c.sessionID == "" {
		c.replyError(retry.New(retry.CodeNoActiveSession, "bind a session before sending input"))
		return
	}
	if p.Text == "" {
		c.replyError(retry.New(retry.CodeInvalidMessage, "empty text"))
		return
	}
	c.runTurn(ctx, p.Text)
}

func (c *Conn) handleAudio(ctx context.Context, payload json.RawMessage) {
	var p AudioChunkPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		c.replyError(retry.New(retry.CodeInvalidMessage, "malformed audio_chunk payload"))
		return
	}
	if c.sessionID == "" {
		c.replyError(retry.New(retry.CodeNoActiveSession, "bind a session before sending audio"))
		return
	}
	chunk, err := base64.StdEncoding.DecodeString(p.Chunk)
	if err != nil {
		c.replyError(retry.New(retry.CodeInvalidMessage, "chunk is not valid base64"))
		return
	}
	if err := c.acc.Append(chunk); err != nil {
		c.replyError(retry.New(retry.CodeInvalidMessage, err.Error()))
		return
	}
	if !p.IsLast {
		return // silent buffering
	}

	// Terminal chunk: the buffer is consumed now, success or failure.
	audio := c.acc.FlushAndClear()

	if c.mgr.IsLockedByOther(c.sessionID, c.id) {
		c.replyError(retry.New(retry.CodeSessionLocked, "session is locked by another connection"))
		return
	}

	var text string
	err = c.policy.Do(ctx, retry.CodeTranscriptionFailed, func(ctx context.Context) error {
		t, err := c.stt.Transcribe(ctx, audio)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		c.replyError(err)
		return
	}

	c.sendPayload(TypeTranscriptUpdate, TranscriptPayload{Text: text, Source: "voice"})
	c.runTurn(ctx, text)
}

// runTurn executes one conversation turn: append the user message, ask
// the engine, persist the assistant message plus the engine's dimension
// and phase updates, emit the response, optionally save the spec
// document, then stream synthesized audio.
func (c *Conn) runTurn(ctx context.Context, userText string) {
	// Acquire is re-entrant for the current holder, so one call both
	// checks and takes the lock with no window in between.
	if !c.mgr.AcquireLock(c.sessionID, c.id) {
		c.replyError(retry.New(retry.CodeSessionLocked, "session is locked by another connection"))
		return
	}

	sess, err := c.persist(ctx, session.Patch{
		AppendHistory: []session.Message{{
			Role:      session.RoleUser,
			Content:   userText,
			Timestamp: time.Now().UTC(),
		}},
	})
	if err != nil {
		c.replyError(err)
		return
	}

	var reply *engine.Reply
	err = c.policy.Do(ctx, retry.CodeConversationFailed, func(ctx context.Context) error {
		r, err := c.eng.Respond(ctx, sess, userText)
		if err != nil {
			return err
		}
		reply = r
		return nil
	})
	if err != nil {
		c.replyError(err)
		return
	}

	phase := reply.Phase
	sess, err = c.persist(ctx, session.Patch{
		Phase:      &phase,
		Dimensions: reply.Dimensions,
		AppendHistory: []session.Message{{
			Role:      session.RoleAssistant,
			Content:   reply.Text,
			Timestamp: time.Now().UTC(),
		}},
	})
	if err != nil {
		c.replyError(err)
		return
	}

	c.sendPayload(TypeAIResponse, ResponsePayload{
		Text:               reply.Text,
		ShouldGenerateSpec: reply.GenerateSpec,
	})

	if reply.GenerateSpec && c.specs != nil {
		var path string
		err := c.policy.Do(ctx, retry.CodeSpecSaveFailed, func(ctx context.Context) error {
			p, err := c.specs.Save(ctx, sess.Slug, specdoc.Render(sess))
			if err != nil {
				return err
			}
			path = p
			return nil
		})
		if err != nil {
			c.replyError(err)
		} else {
			c.log.Info("spec document saved", "session", sess.ID, "path", path)
		}
	}

	if err := c.resp.Speak(ctx, reply.Text); err != nil {
		c.replyError(retry.Classify(err, retry.CodeSynthesisFailed))
	}
}

// persist runs a session update under the retry policy, translating a
// vanished session into SESSION_NOT_FOUND.
func (c *Conn) persist(ctx context.Context, patch session.Patch) (*session.Session, error) {
	var sess *session.Session
	err := c.policy.Do(ctx, retry.CodeSessionPersistFailed, func(ctx context.Context) error {
		s, err := c.mgr.Update(ctx, c.sessionID, patch)
		if err != nil {
			return err
		}
		sess = s
		return nil
	})
	if errors.Is(err, session.ErrNotFound) {
		return nil, retry.Newf(retry.CodeSessionNotFound, "session %s not found", c.sessionID)
	}
	return sess, err
}

func (c *Conn) sendSession(sess *session.Session) {
	c.sendPayload(TypeSessionState, sess)
}

func (c *Conn) sendPayload(typ string, payload any) error {
	env, err := NewEnvelope(typ, payload)
	if err != nil {
		c.log.Error("encode outbound message", "type", typ, "err", err)
		return err
	}
	if err := c.send(env); err != nil {
		c.log.Warn("send failed", "type", typ, "err", err)
		return err
	}
	return nil
}

func (c *Conn) replyError(err error) {
	de := retry.Classify(err, retry.CodeInternal)
	msg := de.Message
	if msg == "" {
		msg = de.Error()
	}
	c.sendPayload(TypeError, ErrorPayload{
		Message:      msg,
		Code:         de.Code,
		FallbackMode: de.FallbackMode,
	})
	c.log.Warn("request failed", "code", de.Code, "err", err)
}

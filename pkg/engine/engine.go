// Package engine defines the conversation engine contract: one
// interview turn in, one reply out, with the engine owning dimension
// coverage assessment and the spec sign-off gate.
//
// Two hosted adapters are provided (OpenAI chat completions and Google
// Gemini) plus a scripted engine for tests.
package engine

import (
	"context"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

// Reply is the result of one interview turn.
type Reply struct {
	// Text is the assistant's response to speak/display.
	Text string

	// Dimensions is the full updated dimension map. Adapters clamp
	// downgrades against the session's current map, so coverage never
	// decreases.
	Dimensions map[session.DimensionID]session.Dimension

	// Phase is the (possibly advanced) interview phase.
	Phase session.Phase

	// GenerateSpec is true exactly when the sign-off gate passes on
	// Dimensions.
	GenerateSpec bool
}

// Engine produces one reply for a user turn against a session.
type Engine interface {
	Respond(ctx context.Context, sess *session.Session, userText string) (*Reply, error)
}

// Static is a scripted Engine for tests: it calls Fn for every turn.
type Static struct {
	Fn func(sess *session.Session, userText string) (*Reply, error)
}

func (s *Static) Respond(_ context.Context, sess *session.Session, userText string) (*Reply, error) {
	return s.Fn(sess, userText)
}

// clampDimensions merges the engine-proposed map against the current
// one: every known dimension is present in the result, coverage never
// drops below the current level, and evidence lists are carried
// forward when the proposal omits them.
func clampDimensions(current, proposed map[session.DimensionID]session.Dimension) map[session.DimensionID]session.Dimension {
	out := make(map[session.DimensionID]session.Dimension, len(session.DimensionIDs))
	for _, id := range session.DimensionIDs {
		cur := current[id]
		next, ok := proposed[id]
		if !ok {
			out[id] = cur
			continue
		}
		if next.Coverage < cur.Coverage {
			next.Coverage = cur.Coverage
		}
		if len(next.Evidence) == 0 {
			next.Evidence = cur.Evidence
		}
		out[id] = next
	}
	return out
}

// validPhase returns proposed if it names a known phase, cur otherwise.
func validPhase(cur session.Phase, proposed string) session.Phase {
	switch p := session.Phase(proposed); p {
	case session.PhaseGathering, session.PhaseEdgeCaseDiscovery,
		session.PhaseValidation, session.PhaseComplete:
		return p
	}
	return cur
}

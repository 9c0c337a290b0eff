package engine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/mcr5fh/nova-voice/pkg/session"
)

// historyWindow bounds how many prior messages are replayed to the
// model per turn.
const historyWindow = 16

const systemPromptTemplate = `You are a requirements interviewer helping a user turn an idea into a
buildable specification. You track six readiness dimensions:

  problem_clarity, solution_approach, success_criteria,
  scope_boundaries, edge_cases, constraints

Each dimension has a coverage level, in increasing order:
not_started, weak, partial, strong. Coverage only ever increases.

The interview moves through phases: gathering, edge_case_discovery,
validation, complete. Advance the phase when the conversation warrants
it, never backwards.

Current phase: %s
Current dimensions:
%s

Ask focused follow-up questions, one at a time. After considering the
user's latest message, respond ONLY with a JSON object of this shape:

{
  "response": "<what you say to the user next>",
  "phase": "<current or advanced phase>",
  "dimensions": {
    "<dimension id>": {"coverage": "<level>", "evidence": ["<verbatim or paraphrased user statements supporting the level>"]}
  }
}

Include all six dimensions in every reply.`

// turnResult is the JSON shape engines must produce per turn.
type turnResult struct {
	Response   string                                    `json:"response"`
	Phase      string                                    `json:"phase"`
	Dimensions map[session.DimensionID]session.Dimension `json:"dimensions"`
}

// systemPrompt renders the interviewer instructions with the session's
// current phase and dimension snapshot.
func systemPrompt(sess *session.Session) string {
	dims, err := json.MarshalIndent(sess.Dimensions, "", "  ")
	if err != nil {
		dims = []byte("{}")
	}
	return fmt.Sprintf(systemPromptTemplate, sess.Phase, dims)
}

// recentHistory returns the last historyWindow messages.
func recentHistory(sess *session.Session) []session.Message {
	h := sess.History
	if len(h) > historyWindow {
		h = h[len(h)-historyWindow:]
	}
	return h
}

// parseTurn decodes a model reply, repairing slightly-broken JSON
// (trailing prose, missing quotes) before giving up.
func parseTurn(raw string) (*turnResult, error) {
	raw = strings.TrimSpace(raw)
	var res turnResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		fixed, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return nil, fmt.Errorf("engine: unparseable reply: %w", err)
		}
		if err := json.Unmarshal([]byte(fixed), &res); err != nil {
			return nil, fmt.Errorf("engine: unparseable reply after repair: %w", err)
		}
	}
	if res.Response == "" {
		return nil, fmt.Errorf("engine: reply missing response text")
	}
	return &res, nil
}

// buildReply clamps a parsed turn against the session and evaluates the
// sign-off gate.
func buildReply(sess *session.Session, res *turnResult) *Reply {
	dims := clampDimensions(sess.Dimensions, res.Dimensions)
	return &Reply{
		Text:         res.Response,
		Dimensions:   dims,
		Phase:        validPhase(sess.Phase, res.Phase),
		GenerateSpec: GatePassed(dims),
	}
}

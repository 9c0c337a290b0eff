// Package session holds the durable conversational session model: six
// readiness dimensions with monotonically upgrading coverage, the
// interview phase, the conversation history, persistence over a
// key-value store, and the advisory single-writer lock.
package session

import (
	"encoding/json"
	"time"
)

// Coverage is the maturity rank of a readiness dimension.
// Ordering: not_started < weak < partial < strong.
type Coverage int

const (
	CoverageNotStarted Coverage = iota
	CoverageWeak
	CoveragePartial
	CoverageStrong
)

// String returns the wire name of the coverage level.
func (c Coverage) String() string {
	switch c {
	case CoverageWeak:
		return "weak"
	case CoveragePartial:
		return "partial"
	case CoverageStrong:
		return "strong"
	default:
		return "not_started"
	}
}

// AtLeast reports whether c meets or exceeds min.
func (c Coverage) AtLeast(min Coverage) bool { return c >= min }

// MarshalJSON implements json.Marshaler.
func (c Coverage) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements json.Unmarshaler. Unknown names decode as
// not_started.
func (c *Coverage) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "weak":
		*c = CoverageWeak
	case "partial":
		*c = CoveragePartial
	case "strong":
		*c = CoverageStrong
	default:
		*c = CoverageNotStarted
	}
	return nil
}

// Phase is the interview phase of a session.
type Phase string

const (
	PhaseGathering         Phase = "gathering"
	PhaseEdgeCaseDiscovery Phase = "edge_case_discovery"
	PhaseValidation        Phase = "validation"
	PhaseComplete          Phase = "complete"
)

// DimensionID names one of the six tracked readiness dimensions.
type DimensionID string

const (
	DimProblemClarity   DimensionID = "problem_clarity"
	DimSolutionApproach DimensionID = "solution_approach"
	DimSuccessCriteria  DimensionID = "success_criteria"
	DimScopeBoundaries  DimensionID = "scope_boundaries"
	DimEdgeCases        DimensionID = "edge_cases"
	DimConstraints      DimensionID = "constraints"
)

// DimensionIDs lists all dimensions in display order.
var DimensionIDs = []DimensionID{
	DimProblemClarity,
	DimSolutionApproach,
	DimSuccessCriteria,
	DimScopeBoundaries,
	DimEdgeCases,
	DimConstraints,
}

// Dimension tracks one readiness aspect of a session.
//
// Coverage follows a monotonic-upgrade contract: callers that supply
// updated dimension maps must never lower a coverage level. The store
// does not enforce this.
type Dimension struct {
	Coverage Coverage `json:"coverage" msgpack:"coverage"`
	Evidence []string `json:"evidence" msgpack:"evidence"`
}

// Role of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in a session's conversation history.
type Message struct {
	Role      Role      `json:"role" msgpack:"role"`
	Content   string    `json:"content" msgpack:"content"`
	Timestamp time.Time `json:"timestamp" msgpack:"timestamp"`
}

// Session is the durable conversational unit.
type Session struct {
	ID         string                    `json:"id" msgpack:"id"`
	Slug       string                    `json:"slug" msgpack:"slug"`
	StartedAt  time.Time                 `json:"startedAt" msgpack:"started_at"`
	Phase      Phase                     `json:"currentPhase" msgpack:"phase"`
	Dimensions map[DimensionID]Dimension `json:"dimensions" msgpack:"dimensions"`
	History    []Message                 `json:"conversationHistory" msgpack:"history"`
}

// NewDimensions returns a fresh dimension map with every dimension at
// not_started.
func NewDimensions() map[DimensionID]Dimension {
	m := make(map[DimensionID]Dimension, len(DimensionIDs))
	for _, id := range DimensionIDs {
		m[id] = Dimension{Coverage: CoverageNotStarted, Evidence: []string{}}
	}
	return m
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Dimensions = make(map[DimensionID]Dimension, len(s.Dimensions))
	for id, d := range s.Dimensions {
		ev := make([]string, len(d.Evidence))
		copy(ev, d.Evidence)
		cp.Dimensions[id] = Dimension{Coverage: d.Coverage, Evidence: ev}
	}
	cp.History = make([]Message, len(s.History))
	copy(cp.History, s.History)
	return &cp
}

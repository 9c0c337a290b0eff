package engine

import "github.com/mcr5fh/nova-voice/pkg/session"

// Sign-off gate thresholds: four dimensions must reach strong, two must
// reach at least partial.
var (
	gateStrong = []session.DimensionID{
		session.DimProblemClarity,
		session.DimSolutionApproach,
		session.DimSuccessCriteria,
		session.DimScopeBoundaries,
	}
	gatePartial = []session.DimensionID{
		session.DimEdgeCases,
		session.DimConstraints,
	}
)

// GatePassed reports whether the dimension map satisfies the spec
// sign-off gate.
func GatePassed(dims map[session.DimensionID]session.Dimension) bool {
	for _, id := range gateStrong {
		if !dims[id].Coverage.AtLeast(session.CoverageStrong) {
			return false
		}
	}
	for _, id := range gatePartial {
		if !dims[id].Coverage.AtLeast(session.CoveragePartial) {
			return false
		}
	}
	return true
}

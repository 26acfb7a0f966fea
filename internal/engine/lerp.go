package engine

import (
	"github.com/thermotab/thermotab/internal/props"
)

// trailCap bounds the diagnostic lerp trail. Oldest entries are evicted
// first. The trail never affects results.
const trailCap = 4

// LerpRecord captures one interpolation call for diagnostics.
type LerpRecord struct {
	A, B props.State
	X    float64
}

// lerp blends two states component-wise: x*A + (1-x)*B for every field.
// x is conceptually in [0,1] but is not enforced; out-of-range values
// extrapolate. The call is recorded in the bounded diagnostic trail.
func (e *Engine) lerp(x float64, a, b props.State) props.State {
	e.trail = append(e.trail, LerpRecord{A: a, B: b, X: x})
	if len(e.trail) > trailCap {
		e.trail = e.trail[1:]
	}

	var out props.State
	for _, p := range props.All() {
		out = out.WithField(p, x*a.Field(p)+(1.0-x)*b.Field(p))
	}
	return out
}

// Trail returns a copy of the diagnostic lerp trail, oldest first.
func (e *Engine) Trail() []LerpRecord {
	out := make([]LerpRecord, len(e.trail))
	copy(out, e.trail)
	return out
}

// logRecentLerps emits the most recent trail entries at debug level.
func (e *Engine) logRecentLerps(count int) {
	if count > len(e.trail) {
		count = len(e.trail)
	}
	for _, rec := range e.trail[len(e.trail)-count:] {
		e.logger.Debug("lerp",
			"x", rec.X,
			"a", rec.A,
			"b", rec.B,
		)
	}
}

// lerpFraction positions target within the bracket (a, b) such that
// lerp(x, A, B) with x = (target-b)/(a-b) reproduces A at target==a and B at
// target==b.
func lerpFraction(target, a, b float64) float64 {
	return (target - b) / (a - b)
}

package engine

import (
	"fmt"
	"math"
)

// maxBisectIterations caps the bisection loop. Hitting it is a fatal data or
// programming error, not a recoverable condition.
const maxBisectIterations = 100000

// bisect searches [lo, hi] for a root of f by bracket narrowing.
//
// Precondition: f(lo) and f(hi) must have opposite signs. Violation panics -
// the caller guarantees a valid bracket.
//
// Convergence criterion: iteration stops when two CONSECUTIVE evaluated
// function values differ by at most tol - not when the bracket width shrinks
// below tol. This is the designed contract: it can terminate early on flat
// stretches and callers must not assume bracket-width convergence. A midpoint
// whose value shares a sign with neither bound (i.e. f(mid) == 0, or a
// non-monotonic f) is returned immediately.
//
// Errors from f propagate unchanged. Exceeding the iteration cap panics with
// IterationLimitError.
func bisect(f func(float64) (float64, error), lo, hi, tol float64) (float64, error) {
	fLo, err := f(lo)
	if err != nil {
		return 0, fmt.Errorf("evaluate lower bracket %g: %w", lo, err)
	}
	fHi, err := f(hi)
	if err != nil {
		return 0, fmt.Errorf("evaluate upper bracket %g: %w", hi, err)
	}

	if !(fLo*fHi < 0) {
		panic(fmt.Sprintf("engine: bisection bracket [%g, %g] does not straddle a root (f=%g, %g)", lo, hi, fLo, fHi))
	}

	prev, cur := math.Inf(-1), math.Inf(1)
	for n := 0; math.Abs(cur-prev) > tol; n++ {
		if n >= maxBisectIterations {
			panic(&IterationLimitError{Iterations: maxBisectIterations})
		}

		mid := 0.5 * (lo + hi)
		fMid, err := f(mid)
		if err != nil {
			return 0, fmt.Errorf("evaluate midpoint %g: %w", mid, err)
		}
		prev, cur = cur, fMid

		switch {
		case fMid*fLo < 0:
			hi, fHi = mid, fMid
		case fMid*fHi < 0:
			lo, fLo = mid, fMid
		default:
			return mid, nil
		}
	}
	return 0.5 * (lo + hi), nil
}

package engine

import (
	"github.com/thermotab/thermotab/internal/props"
	"github.com/thermotab/thermotab/internal/table"
)

// quadrantBounds holds the four table rows bracketing a two-property query
// point in a single-phase table. "Upper" means at-or-below the target on the
// vertical axis, mirroring the visual layout of a printed property table.
type quadrantBounds struct {
	upperLeft  *props.State // vertical <= target, horizontal <= target
	lowerLeft  *props.State // vertical >= target, horizontal <= target
	lowerRight *props.State // vertical >= target, horizontal >= target
	upperRight *props.State // vertical <= target, horizontal >= target

	vertical   props.Property
	horizontal props.Property
}

// singlePhaseBounds scans every row of a single-phase table once and keeps,
// per quadrant, the tightest bracketing row. A row replaces the current best
// only when it is at least as close on BOTH axes simultaneously; partial
// improvement never wins. Any unfilled quadrant after the scan means the
// query point lies outside the table's convex extent.
func singlePhaseBounds(label string, t *table.SinglePhase, q props.Query) (quadrantBounds, error) {
	sorted := q.Sorted()
	bounds := quadrantBounds{vertical: sorted[0], horizontal: sorted[1]}
	tv, th := q[bounds.vertical], q[bounds.horizontal]

	for i := 0; i < t.Len(); i++ {
		state := t.State(i)
		v := state.Field(bounds.vertical)
		h := state.Field(bounds.horizontal)

		if v <= tv && h <= th {
			if bounds.upperLeft == nil ||
				(v >= bounds.upperLeft.Field(bounds.vertical) && h >= bounds.upperLeft.Field(bounds.horizontal)) {
				s := state
				bounds.upperLeft = &s
			}
		}
		if v >= tv && h <= th {
			if bounds.lowerLeft == nil ||
				(v <= bounds.lowerLeft.Field(bounds.vertical) && h >= bounds.lowerLeft.Field(bounds.horizontal)) {
				s := state
				bounds.lowerLeft = &s
			}
		}
		if v >= tv && h >= th {
			if bounds.lowerRight == nil ||
				(v <= bounds.lowerRight.Field(bounds.vertical) && h <= bounds.lowerRight.Field(bounds.horizontal)) {
				s := state
				bounds.lowerRight = &s
			}
		}
		if v <= tv && h >= th {
			if bounds.upperRight == nil ||
				(v >= bounds.upperRight.Field(bounds.vertical) && h <= bounds.upperRight.Field(bounds.horizontal)) {
				s := state
				bounds.upperRight = &s
			}
		}
	}

	if bounds.upperLeft == nil || bounds.lowerLeft == nil || bounds.lowerRight == nil || bounds.upperRight == nil {
		return quadrantBounds{}, &OutOfBoundsError{Table: label, Query: q}
	}
	return bounds, nil
}

// resolveSinglePhase performs bilinear resolution against one single-phase
// table: two vertical lerps produce a left and a right interpolant, one
// horizontal lerp blends those. A lerp is skipped (pass-through) whenever its
// corner pair is identical or the bracketed axis has zero width.
func (e *Engine) resolveSinglePhase(label string, t *table.SinglePhase, q props.Query) (props.State, error) {
	bounds, err := singlePhaseBounds(label, t, q)
	if err != nil {
		return props.State{}, err
	}
	tv, th := q[bounds.vertical], q[bounds.horizontal]

	lerps := 0
	left := *bounds.lowerLeft
	if !bounds.upperLeft.Equal(*bounds.lowerLeft) {
		lowV := bounds.lowerLeft.Field(bounds.vertical)
		upV := bounds.upperLeft.Field(bounds.vertical)
		if lowV != upV {
			left = e.lerp(lerpFraction(tv, lowV, upV), *bounds.lowerLeft, *bounds.upperLeft)
			lerps++
		}
	}

	right := *bounds.lowerRight
	if !bounds.upperRight.Equal(*bounds.lowerRight) {
		lowV := bounds.lowerRight.Field(bounds.vertical)
		upV := bounds.upperRight.Field(bounds.vertical)
		if lowV != upV {
			right = e.lerp(lerpFraction(tv, lowV, upV), *bounds.lowerRight, *bounds.upperRight)
			lerps++
		}
	}

	out := left
	if !left.Equal(right) {
		lh := left.Field(bounds.horizontal)
		rh := right.Field(bounds.horizontal)
		if lh != rh {
			out = e.lerp(lerpFraction(th, lh, rh), left, right)
			lerps++
		}
	}

	e.logger.Debug("bilinear resolution",
		"table", label,
		"vertical", string(bounds.vertical),
		"horizontal", string(bounds.horizontal),
		"lerps", lerps,
	)
	e.logRecentLerps(lerps)

	return out, nil
}

package engine

import (
	"fmt"
	"math"

	"github.com/thermotab/thermotab/internal/props"
)

const (
	// degenerateTol is the zero-width threshold for the liquid/vapor
	// denominator when computing quality.
	degenerateTol = 1e-9

	// qualityAgreementTol bounds the allowed disagreement between the two
	// independent quality estimates of the fully-free path. A larger gap is a
	// fatal consistency failure.
	qualityAgreementTol = 1e-3

	// saturationSearchTol is the bisection tolerance for the saturation
	// temperature search.
	saturationSearchTol = 1e-8
)

// saturatedResult is the saturated resolver's output: the quality plus the
// bracketing vapor and liquid states at the saturation point. The dispatcher
// lerps vapor/liquid by quality to produce the final state.
type saturatedResult struct {
	quality float64
	vapor   props.State
	liquid  props.State
}

// saturatedBracket sweeps the saturated table along one nonunique property
// and lerps the two tightest bracketing rows to the target value. Rows
// matching the target exactly satisfy both sides, in which case that row is
// returned as-is. Returns OutOfBoundsError when a side is missing.
func (e *Engine) saturatedBracket(p props.Property, value float64) (vapor, liquid props.State, err error) {
	var (
		lowerVapor, lowerLiquid props.State
		upperVapor, upperLiquid props.State
		haveLower, haveUpper    bool
	)

	for i := 0; i < e.saturated.Len(); i++ {
		rowVapor, rowLiquid := e.saturated.States(i)
		v := rowVapor.Field(p)

		if v <= value && (!haveLower || v > lowerVapor.Field(p)) {
			lowerVapor, lowerLiquid = rowVapor, rowLiquid
			haveLower = true
		}
		if v >= value && (!haveUpper || v < upperVapor.Field(p)) {
			upperVapor, upperLiquid = rowVapor, rowLiquid
			haveUpper = true
		}
	}

	if !haveLower || !haveUpper {
		return props.State{}, props.State{}, &OutOfBoundsError{
			Table: "saturated",
			Query: props.Query{p: value},
		}
	}

	lo, hi := lowerVapor.Field(p), upperVapor.Field(p)
	if lo == hi {
		// Exact row hit - both sides collapsed onto the same saturation row.
		return lowerVapor, lowerLiquid, nil
	}

	x := lerpFraction(value, lo, hi)
	return e.lerp(x, lowerVapor, upperVapor), e.lerp(x, lowerLiquid, upperLiquid), nil
}

// saturatedState resolves a two-property query within the saturated region.
// Which of the three query shapes applies is decided by how many of the two
// properties are nonunique (pressure/temperature).
//
// quiet suppresses the out-of-[0,1] region-mismatch classification; the
// fully-free path uses it while bisection is still narrowing, where
// intermediate quality estimates legitimately stray outside the interval.
func (e *Engine) saturatedState(q props.Query, quiet bool) (saturatedResult, error) {
	sorted := q.Sorted()
	nonunique := 0
	for _, p := range sorted {
		if p.NonUnique() {
			nonunique++
		}
	}

	switch nonunique {
	case 2:
		return e.saturatedFromBothNonUnique(q)
	case 1:
		return e.saturatedFromOneNonUnique(q, quiet)
	default:
		return e.saturatedFromFreeProperties(q, quiet)
	}
}

// saturatedFromBothNonUnique handles the dual-nonunique shape: pressure and
// temperature together never identify a unique two-phase state, so every
// outcome is an error. The bracket is located by pressure and the given
// temperature is compared against the liquid-side saturation temperature.
func (e *Engine) saturatedFromBothNonUnique(q props.Query) (saturatedResult, error) {
	_, liquid, err := e.saturatedBracket(props.Pressure, q[props.Pressure])
	if err != nil {
		return saturatedResult{}, err
	}

	t := q[props.Temperature]
	switch {
	case t < liquid.Temperature:
		return saturatedResult{}, &CompressedNotSaturatedError{}
	case t > liquid.Temperature:
		return saturatedResult{}, &SuperheatedNotSaturatedError{}
	default:
		return saturatedResult{}, &DegenerateStateError{
			Reason: "point lies exactly on the saturation line; quality is indeterminate from pressure and temperature alone",
		}
	}
}

// saturatedFromOneNonUnique handles the single-nonunique shape: bracket the
// saturation point by the given nonunique property, then read quality off the
// other property's position between the liquid and vapor values.
func (e *Engine) saturatedFromOneNonUnique(q props.Query, quiet bool) (saturatedResult, error) {
	sat := props.Temperature
	if _, ok := q[props.Pressure]; ok {
		sat = props.Pressure
	}
	var other props.Property
	for _, p := range q.Sorted() {
		if p != sat {
			other = p
		}
	}

	vapor, liquid, err := e.saturatedBracket(sat, q[sat])
	if err != nil {
		return saturatedResult{}, err
	}

	delta := vapor.Field(other) - liquid.Field(other)
	if math.Abs(delta) < degenerateTol {
		return saturatedResult{}, &DegenerateStateError{
			Reason: fmt.Sprintf("no difference in %s between saturated liquid and vapor", string(other)),
		}
	}

	quality := (q[other] - liquid.Field(other)) / delta
	if !quiet {
		e.logger.Debug("quality via single-property saturation bracket",
			"quality", quality,
			"saturation_property", string(sat),
			"saturation_value", q[sat],
			"other_property", string(other),
			"other_value", q[other],
		)
		e.logRecentLerps(2)

		if quality > 1.0 {
			return saturatedResult{}, &SuperheatedNotSaturatedError{Quality: quality}
		}
		if quality < 0.0 {
			return saturatedResult{}, &CompressedNotSaturatedError{Quality: quality}
		}
	}

	return saturatedResult{quality: quality, vapor: vapor, liquid: liquid}, nil
}

// saturatedFromFreeProperties handles the fully-free shape: neither pressure
// nor temperature is given, so the saturation temperature itself is unknown.
// For a candidate temperature T each given property yields an independent
// quality estimate via the single-nonunique path; bisection finds the T where
// the two estimates agree.
//
// After convergence the two estimates must agree within qualityAgreementTol;
// a larger gap indicates ill-posed input and panics rather than returning a
// silently averaged answer.
func (e *Engine) saturatedFromFreeProperties(q props.Query, quiet bool) (saturatedResult, error) {
	sorted := q.Sorted()
	p1, p2 := sorted[0], sorted[1]

	loT, hiT, err := e.saturated.Bounds(string(props.Temperature))
	if err != nil {
		return saturatedResult{}, err
	}

	qualityAt := func(t float64, p props.Property) (float64, error) {
		res, err := e.saturatedState(props.Query{props.Temperature: t, p: q[p]}, true)
		if err != nil {
			return 0, err
		}
		return res.quality, nil
	}

	tSat, err := bisect(func(t float64) (float64, error) {
		x1, err := qualityAt(t, p1)
		if err != nil {
			return 0, err
		}
		x2, err := qualityAt(t, p2)
		if err != nil {
			return 0, err
		}
		return x1 - x2, nil
	}, loT, hiT, saturationSearchTol)
	if err != nil {
		return saturatedResult{}, err
	}

	e.logger.Debug("saturation temperature via free-property search",
		"temperature", tSat,
		"property_1", string(p1), "value_1", q[p1],
		"property_2", string(p2), "value_2", q[p2],
	)
	e.logRecentLerps(4)

	x1, err := qualityAt(tSat, p1)
	if err != nil {
		return saturatedResult{}, err
	}
	x2, err := qualityAt(tSat, p2)
	if err != nil {
		return saturatedResult{}, err
	}
	if math.Abs(x1-x2) >= qualityAgreementTol {
		panic(fmt.Sprintf("engine: quality estimates disagree after convergence (%g vs %g)", x1, x2))
	}

	quality := 0.5 * (x1 + x2)
	vapor, liquid, err := e.saturatedBracket(props.Temperature, tSat)
	if err != nil {
		return saturatedResult{}, err
	}

	if !quiet {
		if quality > 1.0 {
			return saturatedResult{}, &SuperheatedNotSaturatedError{Quality: quality}
		}
		if quality < 0.0 {
			return saturatedResult{}, &CompressedNotSaturatedError{Quality: quality}
		}
	}
	return saturatedResult{quality: quality, vapor: vapor, liquid: liquid}, nil
}

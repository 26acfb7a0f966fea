package engine

import (
	"errors"
	"fmt"

	"github.com/thermotab/thermotab/internal/props"
)

// OutOfBoundsError reports a query point outside the convex extent of a table
// on at least one axis. It is the only error the dispatcher's region cascade
// falls through on; everything else propagates immediately.
type OutOfBoundsError struct {
	// Table names the table that could not bound the query
	// ("superheated", "compressed", "saturated").
	Table string

	// Query is the two-property query that fell outside.
	Query props.Query
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("query %v outside %s table bounds", e.Query, e.Table)
}

// DegenerateStateError reports inputs that cannot disambiguate a unique
// state: a dual-nonunique query landing exactly on the saturation line, or a
// zero-width liquid/vapor denominator.
type DegenerateStateError struct {
	Reason string
}

func (e *DegenerateStateError) Error() string {
	return fmt.Sprintf("degenerate state: %s", e.Reason)
}

// CompressedNotSaturatedError signals that a saturated-region query actually
// describes a compressed-liquid point (quality below zero, or temperature
// below the saturation line).
type CompressedNotSaturatedError struct {
	Quality float64 // computed quality when available, else 0
}

func (e *CompressedNotSaturatedError) Error() string {
	return fmt.Sprintf("state is compressed liquid, not a saturated mixture (quality %g)", e.Quality)
}

// SuperheatedNotSaturatedError signals that a saturated-region query actually
// describes a superheated-vapor point (quality above one, or temperature
// above the saturation line).
type SuperheatedNotSaturatedError struct {
	Quality float64 // computed quality when available, else 0
}

func (e *SuperheatedNotSaturatedError) Error() string {
	return fmt.Sprintf("state is superheated vapor, not a saturated mixture (quality %g)", e.Quality)
}

// IterationLimitError is the bisection iteration cap. It indicates a
// programming or data error upstream and is raised via panic; callers must
// not catch and retry it.
type IterationLimitError struct {
	Iterations int
}

func (e *IterationLimitError) Error() string {
	return fmt.Sprintf("bisection exceeded %d iterations without converging", e.Iterations)
}

// IsOutOfBounds reports whether err is an OutOfBoundsError, unwrapping as
// needed.
func IsOutOfBounds(err error) bool {
	var oob *OutOfBoundsError
	return errors.As(err, &oob)
}

// IsRegionMismatch reports whether err signals that the true region is a
// single-phase one rather than the saturated mixture.
func IsRegionMismatch(err error) bool {
	var comp *CompressedNotSaturatedError
	var sup *SuperheatedNotSaturatedError
	return errors.As(err, &comp) || errors.As(err, &sup)
}

// IsDegenerate reports whether err is a DegenerateStateError.
func IsDegenerate(err error) bool {
	var deg *DegenerateStateError
	return errors.As(err, &deg)
}

package harness

import (
	"fmt"
	"math"
	"strings"
)

// AssertionError is returned when a query outcome does not match its
// expectation.
type AssertionError struct {
	Seq      int    // 1-based query number
	Field    string // which part of the expectation failed
	Expected string
	Actual   string
}

func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "query %d: %s mismatch\n", e.Seq, e.Field)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// checkExpectation compares one trace event against its expect clause.
// Float comparisons use a relative tolerance, widened to absolute near
// zero.
func checkExpectation(seq int, expect ExpectClause, event TraceEvent, tolerance float64) error {
	if expect.Error != "" || event.Error != "" {
		if expect.Error != event.Error {
			return &AssertionError{
				Seq:      seq,
				Field:    "error",
				Expected: describeError(expect.Error),
				Actual:   describeError(event.Error),
			}
		}
		return nil
	}

	if expect.Region != "" && expect.Region != event.Region {
		return &AssertionError{
			Seq:      seq,
			Field:    "region",
			Expected: expect.Region,
			Actual:   event.Region,
		}
	}

	if expect.Quality != nil {
		if event.Quality == nil {
			return &AssertionError{
				Seq:      seq,
				Field:    "quality",
				Expected: fmt.Sprintf("%g", *expect.Quality),
				Actual:   "none",
			}
		}
		if !withinTolerance(*event.Quality, *expect.Quality, tolerance) {
			return &AssertionError{
				Seq:      seq,
				Field:    "quality",
				Expected: fmt.Sprintf("%g", *expect.Quality),
				Actual:   fmt.Sprintf("%g", *event.Quality),
			}
		}
	}

	for name, want := range expect.State {
		got, ok := event.State[name]
		if !ok || !withinTolerance(got, want, tolerance) {
			return &AssertionError{
				Seq:      seq,
				Field:    "state." + name,
				Expected: fmt.Sprintf("%g", want),
				Actual:   fmt.Sprintf("%g", got),
			}
		}
	}

	return nil
}

func withinTolerance(got, want, tolerance float64) bool {
	scale := math.Max(1.0, math.Abs(want))
	return math.Abs(got-want) <= tolerance*scale
}

func describeError(class string) string {
	if class == "" {
		return "success"
	}
	return class
}

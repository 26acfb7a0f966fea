package harness

import (
	"errors"

	"github.com/thermotab/thermotab/internal/engine"
	"github.com/thermotab/thermotab/internal/props"
)

// Error class names recorded in traces and named by expectations.
const (
	ErrClassOutOfBounds = "out_of_bounds"
	ErrClassCompressed  = "compressed_not_saturated"
	ErrClassSuperheated = "superheated_not_saturated"
	ErrClassDegenerate  = "degenerate"
	ErrClassOther       = "error"
)

// TraceEvent records the outcome of one query. Field order matters: it is
// the golden file serialization order.
type TraceEvent struct {
	Seq     int                `json:"seq"`
	Query   map[string]float64 `json:"query"`
	Region  string             `json:"region,omitempty"`
	Quality *float64           `json:"quality,omitempty"`
	State   map[string]float64 `json:"state,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// Result is the full trace of a scenario run.
type Result struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// Run resolves every query in the scenario against eng, in order, and
// records the outcomes. Query errors are recorded as trace events and do
// not stop the run; a failed expectation stops the run and returns an
// *AssertionError.
func Run(eng *engine.Engine, scenario *Scenario) (*Result, error) {
	tolerance := scenario.Tolerance
	if tolerance == 0 {
		tolerance = defaultTolerance
	}

	result := &Result{ScenarioName: scenario.Name}
	for i, step := range scenario.Queries {
		query := make(props.Query, len(step.Query))
		for name, value := range step.Query {
			p, err := props.Parse(name)
			if err != nil {
				return nil, err
			}
			query[p] = value
		}

		event := TraceEvent{Seq: i + 1, Query: step.Query}
		res, err := eng.Resolve(query)
		if err != nil {
			event.Error = classifyError(err)
		} else {
			event.Region = string(res.Region)
			event.Quality = res.Quality
			event.State = stateMap(res.State)
		}
		result.Trace = append(result.Trace, event)

		if step.Expect != nil {
			if err := checkExpectation(i+1, *step.Expect, event, tolerance); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

// classifyError maps resolution errors to stable trace class names.
func classifyError(err error) string {
	var (
		oob  *engine.OutOfBoundsError
		comp *engine.CompressedNotSaturatedError
		sup  *engine.SuperheatedNotSaturatedError
		deg  *engine.DegenerateStateError
	)
	switch {
	case errors.As(err, &oob):
		return ErrClassOutOfBounds
	case errors.As(err, &comp):
		return ErrClassCompressed
	case errors.As(err, &sup):
		return ErrClassSuperheated
	case errors.As(err, &deg):
		return ErrClassDegenerate
	default:
		return ErrClassOther
	}
}

func stateMap(s props.State) map[string]float64 {
	m := make(map[string]float64, 6)
	for _, p := range props.All() {
		m[string(p)] = s.Field(p)
	}
	return m
}

// Package testutil provides deterministic water-like table fixtures shared by
// engine, harness, and CLI tests.
//
// Every fixture column is an affine function of pressure and temperature, so
// bilinear interpolation reproduces the generating function exactly and
// expected values in tests can be computed by hand.
package testutil

import (
	"fmt"

	"github.com/thermotab/thermotab/internal/props"
	"github.com/thermotab/thermotab/internal/table"
)

// Fixture grid extents. The three regions are disjoint on at least one axis
// so cascade tests can tell which table satisfied a query.
var (
	SuperheatedPressures    = []float64{10e3, 50e3, 100e3}
	SuperheatedTemperatures = []float64{400, 500, 600}

	CompressedPressures    = []float64{5e6, 7.5e6, 10e6}
	CompressedTemperatures = []float64{300, 325, 350}

	SaturatedTemperatures = []float64{320, 340, 360, 380, 400}
)

// SuperheatedPoint evaluates the superheated fixture's generating functions.
func SuperheatedPoint(p, t float64) props.State {
	return props.State{
		Pressure:               p,
		Temperature:            t,
		SpecificVolume:         2.0 - 1e-5*p + 1e-3*t,
		SpecificInternalEnergy: 2.2e6 + 2.0*p + 1000*t,
		SpecificEnthalpy:       2.5e6 + 3.0*p + 1000*t,
		SpecificEntropy:        7000 - 0.01*p + 2.0*t,
	}
}

// CompressedPoint evaluates the compressed fixture's generating functions.
func CompressedPoint(p, t float64) props.State {
	return props.State{
		Pressure:               p,
		Temperature:            t,
		SpecificVolume:         1e-3 + 1e-12*p + 1e-7*t,
		SpecificInternalEnergy: 1.12e5 + 0.01*p + 400*t,
		SpecificEnthalpy:       1.2e5 + 0.02*p + 420*t,
		SpecificEntropy:        100 + 1e-6*p + 1.1*t,
	}
}

// SaturatedRow evaluates the saturated fixture's generating functions at a
// saturation temperature. Pressure is shared between the two views.
func SaturatedRow(t float64) (vapor, liquid props.State) {
	p := 1000 * (t - 300)
	liquid = props.State{
		Pressure:               p,
		Temperature:            t,
		SpecificVolume:         1e-3 + 1e-6*(t-300),
		SpecificInternalEnergy: 900 * t,
		SpecificEnthalpy:       1000 * t,
		SpecificEntropy:        10 * t,
	}
	vapor = props.State{
		Pressure:               p,
		Temperature:            t,
		SpecificVolume:         2.0 - 0.002*(t-300),
		SpecificInternalEnergy: 2.3e6 + 400*t,
		SpecificEnthalpy:       2.5e6 + 500*t,
		SpecificEntropy:        5000 + 10*t,
	}
	return vapor, liquid
}

// SinglePhaseHeaders is the canonical header list for single-phase fixtures.
func SinglePhaseHeaders() []string {
	headers := make([]string, 0, 6)
	for _, p := range props.All() {
		headers = append(headers, string(p))
	}
	return headers
}

// SaturatedHeaders is the dual-view header list for the saturated fixture.
func SaturatedHeaders() []string {
	headers := []string{string(props.Pressure), string(props.Temperature)}
	for _, p := range props.All() {
		if p.NonUnique() {
			continue
		}
		headers = append(headers, "liquid_"+string(p), "vapor_"+string(p))
	}
	return headers
}

func singlePhaseRow(s props.State) []float64 {
	row := make([]float64, 0, 6)
	for _, p := range props.All() {
		row = append(row, s.Field(p))
	}
	return row
}

// SuperheatedTable builds the superheated fixture grid.
func SuperheatedTable() *table.SinglePhase {
	var rows [][]float64
	for _, p := range SuperheatedPressures {
		for _, t := range SuperheatedTemperatures {
			rows = append(rows, singlePhaseRow(SuperheatedPoint(p, t)))
		}
	}
	return mustSinglePhase(SinglePhaseHeaders(), rows)
}

// CompressedTable builds the compressed-liquid fixture grid.
func CompressedTable() *table.SinglePhase {
	var rows [][]float64
	for _, p := range CompressedPressures {
		for _, t := range CompressedTemperatures {
			rows = append(rows, singlePhaseRow(CompressedPoint(p, t)))
		}
	}
	return mustSinglePhase(SinglePhaseHeaders(), rows)
}

// SaturatedTable builds the saturated fixture.
func SaturatedTable() *table.Saturated {
	var rows [][]float64
	for _, t := range SaturatedTemperatures {
		vapor, liquid := SaturatedRow(t)
		row := []float64{liquid.Pressure, liquid.Temperature}
		for _, p := range props.All() {
			if p.NonUnique() {
				continue
			}
			row = append(row, liquid.Field(p), vapor.Field(p))
		}
		rows = append(rows, row)
	}
	sat, err := table.NewSaturated(SaturatedHeaders(), rows)
	if err != nil {
		panic(fmt.Sprintf("testutil: saturated fixture: %v", err))
	}
	return sat
}

func mustSinglePhase(headers []string, rows [][]float64) *table.SinglePhase {
	t, err := table.NewSinglePhase(headers, rows)
	if err != nil {
		panic(fmt.Sprintf("testutil: single-phase fixture: %v", err))
	}
	return t
}

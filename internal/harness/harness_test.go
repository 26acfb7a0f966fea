package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thermotab/thermotab/internal/engine"
	"github.com/thermotab/thermotab/internal/table"
	"github.com/thermotab/thermotab/internal/testutil"
)

// scenarioEngine builds an engine over small integer-valued tables so every
// interpolated value in a trace is exact and golden files can be written by
// hand.
func scenarioEngine(t *testing.T) *engine.Engine {
	t.Helper()

	superheated, err := table.NewSinglePhase(testutil.SinglePhaseHeaders(), [][]float64{
		{100000, 400, 10, 1000, 2000, 50},
		{100000, 500, 12, 1200, 2200, 60},
		{200000, 400, 8, 1100, 2100, 40},
		{200000, 500, 9, 1300, 2300, 45},
	})
	require.NoError(t, err)

	compressed, err := table.NewSinglePhase(testutil.SinglePhaseHeaders(), [][]float64{
		{5000000, 300, 1, 500, 600, 5},
		{5000000, 350, 2, 550, 650, 6},
		{6000000, 300, 3, 520, 620, 7},
		{6000000, 350, 4, 570, 670, 8},
	})
	require.NoError(t, err)

	saturated, err := table.NewSaturated(testutil.SaturatedHeaders(), [][]float64{
		{10000, 300, 1, 3, 900, 2900, 1000, 3000, 10, 30},
		{20000, 400, 2, 4, 950, 2950, 2000, 4000, 12, 32},
	})
	require.NoError(t, err)

	return engine.New(superheated, compressed, saturated)
}

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name))
	require.NoError(t, err)
	return s
}

func TestLoadScenario_Valid(t *testing.T) {
	s := loadTestScenario(t, "water-baseline.yaml")

	assert.Equal(t, "water-baseline", s.Name)
	assert.NotEmpty(t, s.Description)
	require.Len(t, s.Queries, 6)
	assert.Equal(t, "superheated", s.Queries[0].Expect.Region)
	assert.Equal(t, ErrClassOutOfBounds, s.Queries[5].Expect.Error)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "unknown field",
			text: "name: x\ndescription: d\nqueris: []\n",
			want: "field queris not found",
		},
		{
			name: "missing name",
			text: "description: d\nqueries:\n  - query: {pressure: 1, temperature: 2}\n",
			want: "name is required",
		},
		{
			name: "missing description",
			text: "name: x\nqueries:\n  - query: {pressure: 1, temperature: 2}\n",
			want: "description is required",
		},
		{
			name: "no queries",
			text: "name: x\ndescription: d\nqueries: []\n",
			want: "non-empty",
		},
		{
			name: "wrong query size",
			text: "name: x\ndescription: d\nqueries:\n  - query: {pressure: 1}\n",
			want: "exactly 2 properties",
		},
		{
			name: "unknown property",
			text: "name: x\ndescription: d\nqueries:\n  - query: {pressure: 1, warmth: 2}\n",
			want: "warmth",
		},
		{
			name: "unknown error class",
			text: "name: x\ndescription: d\nqueries:\n  - query: {pressure: 1, temperature: 2}\n    expect:\n      error: exploded\n",
			want: "unknown error class",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.text), 0o644))
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_TraceRecordsOutcomes(t *testing.T) {
	eng := scenarioEngine(t)
	s := loadTestScenario(t, "water-baseline.yaml")

	result, err := Run(eng, s)
	require.NoError(t, err)
	require.Len(t, result.Trace, 6)

	first := result.Trace[0]
	assert.Equal(t, 1, first.Seq)
	assert.Equal(t, "superheated", first.Region)
	assert.Nil(t, first.Quality)
	assert.Equal(t, 2000.0, first.State["specific_enthalpy"])
	assert.Empty(t, first.Error)

	sat := result.Trace[3]
	assert.Equal(t, "saturated", sat.Region)
	require.NotNil(t, sat.Quality)
	assert.Equal(t, 0.5, *sat.Quality)
	assert.Equal(t, 300.0, sat.State["temperature"])

	assert.Equal(t, ErrClassSuperheated, result.Trace[4].Error)
	assert.Empty(t, result.Trace[4].Region)
	assert.Equal(t, ErrClassOutOfBounds, result.Trace[5].Error)
}

func TestRun_FailedExpectationStopsRun(t *testing.T) {
	eng := scenarioEngine(t)
	quality := 0.75
	s := &Scenario{
		Name:        "bad-quality",
		Description: "expectation mismatch",
		Queries: []QueryStep{
			{
				Query:  map[string]float64{"pressure": 10000, "specific_enthalpy": 2000},
				Expect: &ExpectClause{Quality: &quality},
			},
			{
				Query: map[string]float64{"pressure": 100000, "temperature": 400},
			},
		},
	}

	result, err := Run(eng, s)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, 1, aerr.Seq)
	assert.Equal(t, "quality", aerr.Field)
	assert.Equal(t, "0.75", aerr.Expected)
	assert.Equal(t, "0.5", aerr.Actual)
	// The partial trace up to the failure is still returned.
	require.NotNil(t, result)
	assert.Len(t, result.Trace, 1)
}

func TestRun_UnexpectedErrorFailsExpectation(t *testing.T) {
	eng := scenarioEngine(t)
	s := &Scenario{
		Name:        "unexpected-error",
		Description: "query misses every table but success was expected",
		Queries: []QueryStep{
			{
				Query:  map[string]float64{"pressure": 999999999, "temperature": 999},
				Expect: &ExpectClause{Region: "superheated"},
			},
		},
	}

	_, err := Run(eng, s)
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "error", aerr.Field)
	assert.Equal(t, "success", aerr.Expected)
	assert.Equal(t, ErrClassOutOfBounds, aerr.Actual)
}

func TestRun_StateExpectationUsesTolerance(t *testing.T) {
	eng := scenarioEngine(t)
	s := &Scenario{
		Name:        "tolerant",
		Description: "state values compared with a loose relative tolerance",
		Tolerance:   1e-3,
		Queries: []QueryStep{
			{
				Query: map[string]float64{"pressure": 150000, "temperature": 450},
				Expect: &ExpectClause{
					Region: "superheated",
					State:  map[string]float64{"specific_volume": 9.7501},
				},
			},
		},
	}

	_, err := Run(eng, s)
	require.NoError(t, err)
}

func TestRunWithGolden_WaterBaseline(t *testing.T) {
	eng := scenarioEngine(t)
	s := loadTestScenario(t, "water-baseline.yaml")
	require.NoError(t, RunWithGolden(t, eng, s))
}

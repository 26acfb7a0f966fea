package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtureTablesBuild(t *testing.T) {
	sup := SuperheatedTable()
	assert.Equal(t, len(SuperheatedPressures)*len(SuperheatedTemperatures), sup.Len())

	comp := CompressedTable()
	assert.Equal(t, len(CompressedPressures)*len(CompressedTemperatures), comp.Len())

	sat := SaturatedTable()
	assert.Equal(t, len(SaturatedTemperatures), sat.Len())
}

func TestSaturatedFixtureViews(t *testing.T) {
	sat := SaturatedTable()

	for i, temp := range SaturatedTemperatures {
		vapor, liquid := sat.States(i)
		wantVapor, wantLiquid := SaturatedRow(temp)

		require.Equal(t, wantVapor, vapor)
		require.Equal(t, wantLiquid, liquid)
		assert.Equal(t, vapor.Pressure, liquid.Pressure)
		assert.Equal(t, vapor.Temperature, liquid.Temperature)
	}
}

func TestSuperheatedFixtureRows(t *testing.T) {
	sup := SuperheatedTable()
	// Rows are laid out pressure-major.
	first := sup.State(0)
	assert.Equal(t, SuperheatedPoint(SuperheatedPressures[0], SuperheatedTemperatures[0]), first)

	last := sup.State(sup.Len() - 1)
	assert.Equal(t, SuperheatedPoint(
		SuperheatedPressures[len(SuperheatedPressures)-1],
		SuperheatedTemperatures[len(SuperheatedTemperatures)-1],
	), last)
}

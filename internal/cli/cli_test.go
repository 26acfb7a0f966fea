package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const superheatedSVUV = `pressure temperature specific_volume specific_internal_energy specific_enthalpy specific_entropy
P T v u h s
Pa K m^3/kg J/kg J/kg J/(kg*K)
!cite testdata
100000 400 10 1000 2000 50
100000 500 12 1200 2200 60
200000 400 8 1100 2100 40
200000 500 9 1300 2300 45
`

const compressedSVUV = `pressure temperature specific_volume specific_internal_energy specific_enthalpy specific_entropy
P T v u h s
Pa K m^3/kg J/kg J/kg J/(kg*K)
!cite testdata
5000000 300 1 500 600 5
5000000 350 2 550 650 6
6000000 300 3 520 620 7
6000000 350 4 570 670 8
`

const saturatedSVUV = `pressure temperature liquid_specific_volume vapor_specific_volume liquid_specific_internal_energy vapor_specific_internal_energy liquid_specific_enthalpy vapor_specific_enthalpy liquid_specific_entropy vapor_specific_entropy
P T v_f v_g u_f u_g h_f h_g s_f s_g
Pa K m^3/kg m^3/kg J/kg J/kg J/kg J/kg J/(kg*K) J/(kg*K)
!cite testdata
10000 300 1 3 900 2900 1000 3000 10 30
20000 400 2 4 950 2950 2000 4000 12 32
`

const materialsCUE = `package materials

material: water: {
	compressed:  "compressed.svuv"
	superheated: "superheated.svuv"
	saturated:   "saturated.svuv"
}
`

// writeDatasets lays out a manifest directory with the three water fixture
// datasets and returns its path.
func writeDatasets(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, text := range map[string]string{
		"materials.cue":    materialsCUE,
		"superheated.svuv": superheatedSVUV,
		"compressed.svuv":  compressedSVUV,
		"saturated.svuv":   saturatedSVUV,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
	return dir
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// bakedDatabase bakes the fixture datasets into a fresh database.
func bakedDatabase(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "props.db")
	out, err := execute(t, "bake", "--db", db, writeDatasets(t))
	require.NoError(t, err)
	require.Contains(t, out, "Baked 3 datasets for 1 materials")
	return db
}

func TestBakeCommand(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "tables", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "water")
	assert.Contains(t, out, "superheated")
	assert.Contains(t, out, "compressed")
	assert.Contains(t, out, "saturated")
	assert.Contains(t, out, "saturated.svuv")
}

func TestBakeCommand_MissingManifest(t *testing.T) {
	db := filepath.Join(t.TempDir(), "props.db")
	_, err := execute(t, "bake", "--db", db, filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStateCommand_Superheated(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "state", "--db", db, "--material", "water",
		"pressure=150000", "temperature=450")
	require.NoError(t, err)
	assert.Contains(t, out, "region:   superheated")
	assert.Contains(t, out, "specific_volume")
	assert.Contains(t, out, "9.75")
	assert.NotContains(t, out, "quality")
}

func TestStateCommand_SaturatedQuality(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "state", "--db", db, "--material", "water",
		"pressure=10000", "specific_enthalpy=2000")
	require.NoError(t, err)
	assert.Contains(t, out, "region:   saturated")
	assert.Contains(t, out, "quality:  0.5")
	assert.Contains(t, out, "temperature")
}

func TestStateCommand_JSONFormat(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "state", "--db", db, "--material", "water",
		"--format", "json", "pressure=10000", "specific_enthalpy=2000")
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "water", data["material"])
	assert.Equal(t, "saturated", data["region"])
	assert.Equal(t, 0.5, data["quality"])

	state, ok := data["state"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 300.0, state["temperature"])
	assert.Equal(t, 1900.0, state["specific_internal_energy"])
}

func TestStateCommand_QueryOutsideTables(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "state", "--db", db, "--material", "water",
		"pressure=999999999", "temperature=999")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error:")
}

func TestStateCommand_UnknownMaterial(t *testing.T) {
	db := bakedDatabase(t)

	_, err := execute(t, "state", "--db", db, "--material", "helium",
		"pressure=10000", "temperature=300")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "helium")
}

func TestStateCommand_MalformedArgs(t *testing.T) {
	db := bakedDatabase(t)

	tests := []struct {
		name string
		args []string
	}{
		{"missing equals", []string{"pressure", "temperature=300"}},
		{"unknown property", []string{"warmth=10", "temperature=300"}},
		{"bad value", []string{"pressure=ten", "temperature=300"}},
		{"duplicate property", []string{"pressure=1", "pressure=2"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			args := append([]string{"state", "--db", db, "--material", "water"}, tc.args...)
			_, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestTablesCommand_Preview(t *testing.T) {
	db := bakedDatabase(t)

	out, err := execute(t, "tables", "--db", db,
		"--material", "water", "--region", "saturated", "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "water/saturated (2 rows)")
	assert.Contains(t, out, "liquid_specific_enthalpy")
	assert.Contains(t, out, "10000 300 1 3 900 2900 1000 3000 10 30")
	assert.NotContains(t, out, "20000 400")
}

func TestTablesCommand_PreviewNeedsBothFlags(t *testing.T) {
	db := bakedDatabase(t)

	_, err := execute(t, "tables", "--db", db, "--material", "water")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTablesCommand_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	out, err := execute(t, "tables", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No baked datasets.")
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, "tables", "--db", "x.db", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestParseQueryArgs(t *testing.T) {
	q, err := parseQueryArgs([]string{"pressure=101325", "specific_enthalpy=1500e3"})
	require.NoError(t, err)
	assert.Equal(t, 101325.0, q["pressure"])
	assert.Equal(t, 1500e3, q["specific_enthalpy"])
}

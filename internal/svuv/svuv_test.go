package svuv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const saturatedSample = `# saturated water, excerpt
pressure temperature liquid_specific_enthalpy vapor_specific_enthalpy ~
P        T           h_f                      h_g                     note
kPa      degC        kJ/kg                    kJ/kg                   -

!cite cengel2015
101.325  100.0  419.17  2,675.6  0
!cite irvine1984
198.54   120.0  503.81  2705.9   0
`

func parseSample(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := NewParser().Parse(strings.NewReader(text), "sample.svuv")
	require.NoError(t, err)
	return doc
}

func TestParse_ColumnsAndSymbols(t *testing.T) {
	doc := parseSample(t, saturatedSample)

	assert.Equal(t, []string{
		"pressure", "temperature", "liquid_specific_enthalpy", "vapor_specific_enthalpy",
	}, doc.Columns)
	assert.Equal(t, "h_f", doc.Symbols["liquid_specific_enthalpy"])
	assert.NotContains(t, doc.Symbols, "~")
}

func TestParse_ConvertsToSI(t *testing.T) {
	doc := parseSample(t, saturatedSample)
	require.Len(t, doc.Rows, 2)

	assert.Equal(t, "Pa", doc.Units["pressure"])
	assert.Equal(t, "K", doc.Units["temperature"])
	assert.Equal(t, "J/kg", doc.Units["vapor_specific_enthalpy"])

	assert.InDelta(t, 101325.0, doc.Rows[0][0], 1e-6)
	assert.InDelta(t, 373.15, doc.Rows[0][1], 1e-9)
	assert.InDelta(t, 419.17e3, doc.Rows[0][2], 1e-6)
	assert.InDelta(t, 2675.6e3, doc.Rows[0][3], 1e-6) // thousands comma stripped
	assert.InDelta(t, 393.15, doc.Rows[1][1], 1e-9)
}

func TestParse_IgnoredColumnIsDropped(t *testing.T) {
	doc := parseSample(t, saturatedSample)
	for _, row := range doc.Rows {
		assert.Len(t, row, 4)
	}
}

func TestParse_CitationsFollowRows(t *testing.T) {
	doc := parseSample(t, saturatedSample)
	assert.Equal(t, []string{"cengel2015", "irvine1984"}, doc.Citations)
}

func TestParse_UncitedRowsGetUnknownKey(t *testing.T) {
	doc := parseSample(t, `
temperature pressure
T           P
K           Pa

300 1000
!cite smith
310 2000
`)
	assert.Equal(t, []string{"UNKNOWN", "smith"}, doc.Citations)
}

func TestParse_SetUnitsMidDocument(t *testing.T) {
	doc := parseSample(t, `
pressure
P
kPa

!cite a
100
!set-units
MPa
1
`)
	require.Len(t, doc.Rows, 2)
	assert.InDelta(t, 100e3, doc.Rows[0][0], 1e-9)
	assert.InDelta(t, 1e6, doc.Rows[1][0], 1e-9)
}

func TestParse_SetUnitsCannotChangeDimension(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader(`
pressure
P
kPa

!cite a
100
!set-units
K
`), "bad.svuv")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "dimension")
}

func TestParse_SetHeadingReorders(t *testing.T) {
	doc := parseSample(t, `
pressure temperature
P        T
kPa      K

!cite a
100 300
!set-heading
temperature pressure
!set-units
K kPa
200 400
`)
	require.Len(t, doc.Rows, 2)
	// Rows stay aligned with the opening column order.
	assert.InDelta(t, 100e3, doc.Rows[0][0], 1e-9)
	assert.InDelta(t, 300.0, doc.Rows[0][1], 1e-9)
	assert.InDelta(t, 400e3, doc.Rows[1][0], 1e-9)
	assert.InDelta(t, 200.0, doc.Rows[1][1], 1e-9)
}

func TestParse_SetHeadingCannotDropColumns(t *testing.T) {
	_, err := NewParser().Parse(strings.NewReader(`
pressure temperature
P        T
kPa      K

!cite a
100 300
!set-heading
pressure ~
`), "bad.svuv")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "drops column")
}

func TestParse_Uncertainty(t *testing.T) {
	doc := parseSample(t, `
pressure temperature
P        T
kPa      degC

!cite a
!set-uncertainty
0.5 ~
100 25
`)
	require.NotNil(t, doc.Uncertainties)
	assert.InDelta(t, 500.0, doc.Uncertainties["pressure"], 1e-9)
	assert.NotContains(t, doc.Uncertainties, "temperature")
}

func TestParse_UncertaintyIgnoresAffineOffset(t *testing.T) {
	doc := parseSample(t, `
temperature
T
degC

!cite a
!set-uncertainty
0.1
25
`)
	// A width of 0.1 degC is a width of 0.1 K, not 273.25 K.
	assert.InDelta(t, 0.1, doc.Uncertainties["temperature"], 1e-12)
}

func TestParse_SeparatorCommands(t *testing.T) {
	doc := parseSample(t, `
pressure temperature
P        T
kPa      K

!cite a
!add-separator ;
100;300
!ignore-separator ;
200 310
`)
	require.Len(t, doc.Rows, 2)
	assert.InDelta(t, 100e3, doc.Rows[0][0], 1e-9)
	assert.InDelta(t, 200e3, doc.Rows[1][0], 1e-9)
}

func TestParse_NonBreakingSpaceSeparates(t *testing.T) {
	doc := parseSample(t, "pressure temperature\nP T\nkPa K\n!cite a\n100 300\n")
	require.Len(t, doc.Rows, 1)
	assert.InDelta(t, 100e3, doc.Rows[0][0], 1e-9)
	assert.InDelta(t, 300.0, doc.Rows[0][1], 1e-9)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "unknown unit",
			text: "pressure\nP\nfurlongs\n!cite a\n1\n",
			want: "unknown unit",
		},
		{
			name: "bad number",
			text: "pressure\nP\nkPa\n!cite a\n1,23\n",
			want: "invalid number",
		},
		{
			name: "ragged row",
			text: "pressure temperature\nP T\nkPa K\n!cite a\n100\n",
			want: "row has 1 fields",
		},
		{
			name: "invalid column name",
			text: "Pressure\nP\nkPa\n!cite a\n1\n",
			want: "invalid column name",
		},
		{
			name: "duplicate column",
			text: "pressure pressure\nP P\nkPa kPa\n!cite a\n1 1\n",
			want: "duplicate column",
		},
		{
			name: "unknown command",
			text: "pressure\nP\nkPa\n!frobnicate\n1\n",
			want: "unknown command",
		},
		{
			name: "cite without key",
			text: "pressure\nP\nkPa\n!cite\n1\n",
			want: "citation key",
		},
		{
			name: "no data rows",
			text: "pressure\nP\nkPa\n",
			want: "no data rows",
		},
		{
			name: "truncated headers",
			text: "pressure\nP\n",
			want: "ends before",
		},
		{
			name: "dangling set-units",
			text: "pressure\nP\nkPa\n!cite a\n1\n!set-units\n",
			want: "without its argument",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tc.text), "bad.svuv")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParse_CommentsStripped(t *testing.T) {
	doc := parseSample(t, `
pressure  # only one column matters
P
kPa

!cite a   # standard reference
100       # atmospheric-ish
`)
	require.Len(t, doc.Rows, 1)
	assert.InDelta(t, 100e3, doc.Rows[0][0], 1e-9)
}

package svuv

import "fmt"

// UnknownUnitError reports a unit string absent from the registry.
type UnknownUnitError struct {
	File string
	Line int
	Unit string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("%s:%d: unknown unit %q", e.File, e.Line, e.Unit)
}

// unit converts a magnitude into SI base units: si = value*factor + offset.
// Affine units (degC) carry a nonzero offset; their delta form drops it.
type unit struct {
	factor    float64
	offset    float64
	canonical string
}

// registry covers the unit strings thermodynamic property datasets actually
// use. Canonical SI forms: Pa, K, m^3/kg, J/kg, J/(kg*K), "-".
var registry = map[string]unit{
	// pressure
	"Pa":   {1, 0, "Pa"},
	"kPa":  {1e3, 0, "Pa"},
	"MPa":  {1e6, 0, "Pa"},
	"bar":  {1e5, 0, "Pa"},
	"atm":  {101325, 0, "Pa"},
	"psi":  {6894.757293168, 0, "Pa"},
	"mmHg": {133.322387415, 0, "Pa"},

	// temperature
	"K":    {1, 0, "K"},
	"degC": {1, 273.15, "K"},

	// specific volume
	"m^3/kg":  {1, 0, "m^3/kg"},
	"L/kg":    {1e-3, 0, "m^3/kg"},
	"cm^3/g":  {1e-3, 0, "m^3/kg"},
	"cm^3/kg": {1e-6, 0, "m^3/kg"},

	// specific energy
	"J/kg":  {1, 0, "J/kg"},
	"kJ/kg": {1e3, 0, "J/kg"},
	"MJ/kg": {1e6, 0, "J/kg"},

	// specific entropy / heat capacity
	"J/(kg*K)":  {1, 0, "J/(kg*K)"},
	"kJ/(kg*K)": {1e3, 0, "J/(kg*K)"},

	// dimensionless
	"-": {1, 0, "-"},
	"1": {1, 0, "-"},
}

// toSI converts a value in the named unit to SI base units, returning the
// converted magnitude and the canonical unit string.
func toSI(value float64, unitName, file string, line int) (float64, string, error) {
	u, ok := registry[unitName]
	if !ok {
		return 0, "", &UnknownUnitError{File: file, Line: line, Unit: unitName}
	}
	return value*u.factor + u.offset, u.canonical, nil
}

// deltaToSI converts an absolute difference (an uncertainty) to SI base
// units, ignoring affine offsets: one degC of width is one kelvin of width.
func deltaToSI(value float64, unitName, file string, line int) (float64, error) {
	u, ok := registry[unitName]
	if !ok {
		return 0, &UnknownUnitError{File: file, Line: line, Unit: unitName}
	}
	return value * u.factor, nil
}

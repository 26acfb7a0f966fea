package props

import (
	"fmt"
	"sort"
)

// Property identifies one of the six intensive thermodynamic properties a
// table column can carry. The string form doubles as the canonical dataset
// column header.
type Property string

const (
	Pressure               Property = "pressure"
	Temperature            Property = "temperature"
	SpecificVolume         Property = "specific_volume"
	SpecificInternalEnergy Property = "specific_internal_energy"
	SpecificEnthalpy       Property = "specific_enthalpy"
	SpecificEntropy        Property = "specific_entropy"
)

// All returns the six properties in canonical order. The order is load-bearing:
// it defines the lexicographic comparison in State.Compare and the
// deterministic vertical/horizontal axis assignment during table resolution.
func All() [6]Property {
	return [6]Property{
		Pressure,
		Temperature,
		SpecificVolume,
		SpecificInternalEnergy,
		SpecificEnthalpy,
		SpecificEntropy,
	}
}

// Parse converts a column-header string into a Property.
func Parse(s string) (Property, error) {
	p := Property(s)
	if !p.Valid() {
		return "", fmt.Errorf("unknown property %q", s)
	}
	return p, nil
}

// Valid reports whether p is one of the six canonical properties.
func (p Property) Valid() bool {
	for _, q := range All() {
		if p == q {
			return true
		}
	}
	return false
}

// NonUnique reports whether p is pressure or temperature. Within the
// saturated table these two vary together along the saturation curve, so one
// of them alone never pins down the phase fraction.
func (p Property) NonUnique() bool {
	return p == Pressure || p == Temperature
}

// State is an immutable record of the six intensive properties at a single
// thermodynamic point. All values are SI: Pa, K, m^3/kg, J/kg, J/(kg*K).
//
// States are plain values - copy freely. Tables own canonical instances;
// interpolation produces new ones.
type State struct {
	Pressure               float64
	Temperature            float64
	SpecificVolume         float64
	SpecificInternalEnergy float64
	SpecificEnthalpy       float64
	SpecificEntropy        float64
}

// Field returns the value of the named property.
func (s State) Field(p Property) float64 {
	switch p {
	case Pressure:
		return s.Pressure
	case Temperature:
		return s.Temperature
	case SpecificVolume:
		return s.SpecificVolume
	case SpecificInternalEnergy:
		return s.SpecificInternalEnergy
	case SpecificEnthalpy:
		return s.SpecificEnthalpy
	case SpecificEntropy:
		return s.SpecificEntropy
	default:
		panic(fmt.Sprintf("props: invalid property %q", string(p)))
	}
}

// WithField returns a copy of s with the named property replaced.
func (s State) WithField(p Property, v float64) State {
	switch p {
	case Pressure:
		s.Pressure = v
	case Temperature:
		s.Temperature = v
	case SpecificVolume:
		s.SpecificVolume = v
	case SpecificInternalEnergy:
		s.SpecificInternalEnergy = v
	case SpecificEnthalpy:
		s.SpecificEnthalpy = v
	case SpecificEntropy:
		s.SpecificEntropy = v
	default:
		panic(fmt.Sprintf("props: invalid property %q", string(p)))
	}
	return s
}

// Equal reports exact structural equality of all six fields. Used for
// duplicate detection during interpolation, never for semantic closeness.
func (s State) Equal(o State) bool {
	return s == o
}

// Compare orders two states lexicographically over the six fields in
// canonical order. Returns -1, 0, or +1. The order carries no physical
// meaning; it exists so exact duplicates sort together.
func (s State) Compare(o State) int {
	for _, p := range All() {
		a, b := s.Field(p), o.Field(p)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
	}
	return 0
}

// Region tags which physical regime a resolved state came from.
type Region string

const (
	RegionSuperheated Region = "superheated"
	RegionCompressed  Region = "compressed"
	RegionSaturated   Region = "saturated"
)

// Query maps exactly two distinct properties to target values.
type Query map[Property]float64

// Validate rejects queries that do not hold exactly two valid properties.
func (q Query) Validate() error {
	if len(q) != 2 {
		return fmt.Errorf("query must hold exactly two properties, got %d", len(q))
	}
	for p := range q {
		if !p.Valid() {
			return fmt.Errorf("unknown property %q in query", string(p))
		}
	}
	return nil
}

// Sorted returns the query's properties in canonical order. Iteration over a
// Go map is randomized; every resolver walks properties through this instead.
func (q Query) Sorted() []Property {
	out := make([]Property, 0, len(q))
	for p := range q {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return canonicalIndex(out[i]) < canonicalIndex(out[j])
	})
	return out
}

func canonicalIndex(p Property) int {
	for i, q := range All() {
		if p == q {
			return i
		}
	}
	return len(All())
}

// Result is the outcome of a state resolution: the matched region, the
// resolved state, and - only for the saturated region - the vapor quality.
type Result struct {
	Region  Region
	State   State
	Quality *float64 // nil unless Region == RegionSaturated
}

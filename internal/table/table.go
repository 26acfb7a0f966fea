// Package table models the immutable property tables the resolution engine
// reads: an ordered sequence of numeric rows plus a header naming scheme.
//
// Column lookups are resolved once, at construction, into explicit
// property-to-column index tables. Row accessors after that are pure index
// arithmetic and cannot fail. Tables are read-only after construction and
// safe to share between engines and goroutines.
package table

import (
	"fmt"
	"math"
	"strings"

	"github.com/thermotab/thermotab/internal/props"
)

// MissingColumnError reports a required header absent from a table. It marks
// a malformed table or a loader contract violation and is never part of the
// region-fallback cascade.
type MissingColumnError struct {
	Column  string
	Headers []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q (headers: %s)", e.Column, strings.Join(e.Headers, ", "))
}

// Table is an ordered, read-only sequence of rows with named columns.
type Table struct {
	headers []string
	index   map[string]int
	rows    [][]float64
}

// New builds a Table from a header list and rectangular row data.
func New(headers []string, rows [][]float64) (*Table, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("duplicate column %q", h)
		}
		index[h] = i
	}
	for i, row := range rows {
		if len(row) != len(headers) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(headers))
		}
	}
	return &Table{headers: headers, index: index, rows: rows}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Headers returns the column names in table order.
func (t *Table) Headers() []string { return t.headers }

// Value returns the cell at (row, named column).
func (t *Table) Value(row int, column string) (float64, error) {
	col, ok := t.index[column]
	if !ok {
		return 0, &MissingColumnError{Column: column, Headers: t.headers}
	}
	return t.rows[row][col], nil
}

// Bounds returns the minimum and maximum of a named column.
func (t *Table) Bounds(column string) (lo, hi float64, err error) {
	col, ok := t.index[column]
	if !ok {
		return 0, 0, &MissingColumnError{Column: column, Headers: t.headers}
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range t.rows {
		v := row[col]
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// columnSet resolves the six canonical properties through a header transform.
func (t *Table) columnSet(transform func(props.Property) string) ([6]int, error) {
	var cols [6]int
	for i, p := range props.All() {
		name := transform(p)
		col, ok := t.index[name]
		if !ok {
			return cols, &MissingColumnError{Column: name, Headers: t.headers}
		}
		cols[i] = col
	}
	return cols, nil
}

func (t *Table) state(row int, cols [6]int) props.State {
	var s props.State
	for i, p := range props.All() {
		s = s.WithField(p, t.rows[row][cols[i]])
	}
	return s
}

// SinglePhase is a compressed-liquid or superheated-vapor table: every row
// carries the six canonical properties under their bare names.
type SinglePhase struct {
	*Table
	cols [6]int
}

// NewSinglePhase builds a Table and resolves the six canonical columns up
// front. Returns MissingColumnError if any canonical header is absent.
func NewSinglePhase(headers []string, rows [][]float64) (*SinglePhase, error) {
	t, err := New(headers, rows)
	if err != nil {
		return nil, err
	}
	return AsSinglePhase(t)
}

// AsSinglePhase wraps an existing Table, such as one reconstructed from a
// baked dataset, as a single-phase view.
func AsSinglePhase(t *Table) (*SinglePhase, error) {
	cols, err := t.columnSet(func(p props.Property) string { return string(p) })
	if err != nil {
		return nil, err
	}
	return &SinglePhase{Table: t, cols: cols}, nil
}

// State returns row i as a State.
func (t *SinglePhase) State(i int) props.State {
	return t.state(i, t.cols)
}

// Saturated is a two-phase table: each row exposes a liquid view and a vapor
// view. The four unique properties carry liquid_/vapor_ prefixes; pressure
// and temperature are shared and never prefixed.
type Saturated struct {
	*Table
	liquidCols [6]int
	vaporCols  [6]int
}

// saturatedHeader is the dual naming scheme for saturated rows.
func saturatedHeader(prefix string) func(props.Property) string {
	return func(p props.Property) string {
		if p.NonUnique() {
			return string(p)
		}
		return prefix + string(p)
	}
}

// NewSaturated builds a Table and resolves both liquid- and vapor-prefixed
// column sets up front. Returns MissingColumnError if any is absent.
func NewSaturated(headers []string, rows [][]float64) (*Saturated, error) {
	t, err := New(headers, rows)
	if err != nil {
		return nil, err
	}
	return AsSaturated(t)
}

// AsSaturated wraps an existing Table as a dual liquid/vapor view.
func AsSaturated(t *Table) (*Saturated, error) {
	liquid, err := t.columnSet(saturatedHeader("liquid_"))
	if err != nil {
		return nil, err
	}
	vapor, err := t.columnSet(saturatedHeader("vapor_"))
	if err != nil {
		return nil, err
	}
	return &Saturated{Table: t, liquidCols: liquid, vaporCols: vapor}, nil
}

// States returns the vapor and liquid views of row i. Both share pressure
// and temperature; the other four fields differ.
func (t *Saturated) States(i int) (vapor, liquid props.State) {
	return t.state(i, t.vaporCols), t.state(i, t.liquidCols)
}

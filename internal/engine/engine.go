// Package engine resolves full thermodynamic states from two known intensive
// properties of a pure substance, by searching and interpolating within three
// region-specific tables: compressed liquid, superheated vapor, and the
// saturated two-phase dome.
//
// Resolution is synchronous and CPU-bound. Tables are read-only after load
// and may be shared freely; the Engine itself keeps a small bounded
// diagnostic lerp trail and is therefore NOT safe for concurrent use - give
// each worker its own Engine over the shared tables.
package engine

import (
	"io"
	"log/slog"

	"github.com/thermotab/thermotab/internal/props"
	"github.com/thermotab/thermotab/internal/table"
)

// Engine resolves state queries against one substance's three tables.
type Engine struct {
	superheated *table.SinglePhase
	compressed  *table.SinglePhase
	saturated   *table.Saturated

	trail  []LerpRecord
	tokens TokenGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes diagnostic output to the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTokenGenerator replaces the query-token source. Tests use
// NewFixedGenerator for deterministic logs.
func WithTokenGenerator(g TokenGenerator) Option {
	return func(e *Engine) { e.tokens = g }
}

// New creates an Engine over the three regional tables. The tables are
// treated as immutable for the engine's lifetime.
func New(superheated, compressed *table.SinglePhase, saturated *table.Saturated, opts ...Option) *Engine {
	e := &Engine{
		superheated: superheated,
		compressed:  compressed,
		saturated:   saturated,
		tokens:      UUIDv7Generator{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Resolve determines the full state for a query of exactly two distinct
// properties.
//
// Region cascade: the superheated table is tried first, then the compressed
// table, then the saturated resolver. An attempt falls through to the next
// region only on OutOfBoundsError; every other error propagates immediately.
// Each attempt queries its own table - the superheated attempt reads the
// superheated table, the compressed attempt the compressed table.
//
// On a saturated match the final state is the vapor/liquid pair lerped by
// the resolved quality, and Result.Quality is set.
func (e *Engine) Resolve(q props.Query) (props.Result, error) {
	if err := q.Validate(); err != nil {
		return props.Result{}, err
	}

	token := e.tokens.Generate()
	e.logger.Debug("resolving state query", "token", token, "query", q)

	if state, err := e.resolveSinglePhase("superheated", e.superheated, q); err == nil {
		e.logger.Debug("query resolved", "token", token, "region", props.RegionSuperheated)
		return props.Result{Region: props.RegionSuperheated, State: state}, nil
	} else if !IsOutOfBounds(err) {
		return props.Result{}, err
	}

	if state, err := e.resolveSinglePhase("compressed", e.compressed, q); err == nil {
		e.logger.Debug("query resolved", "token", token, "region", props.RegionCompressed)
		return props.Result{Region: props.RegionCompressed, State: state}, nil
	} else if !IsOutOfBounds(err) {
		return props.Result{}, err
	}

	sat, err := e.saturatedState(q, false)
	if err != nil {
		return props.Result{}, err
	}

	quality := sat.quality
	state := e.lerp(quality, sat.vapor, sat.liquid)
	e.logger.Debug("query resolved",
		"token", token,
		"region", props.RegionSaturated,
		"quality", quality,
	)
	return props.Result{Region: props.RegionSaturated, State: state, Quality: &quality}, nil
}

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thermotab/thermotab/internal/engine"
	"github.com/thermotab/thermotab/internal/props"
	"github.com/thermotab/thermotab/internal/store"
	"github.com/thermotab/thermotab/internal/table"
)

// StateOptions holds flags for the state command.
type StateOptions struct {
	*RootOptions
	Database string
	Material string
}

// stateOutput is the state command's output payload.
type stateOutput struct {
	Material string             `json:"material"`
	Region   string             `json:"region"`
	Quality  *float64           `json:"quality,omitempty"`
	State    map[string]float64 `json:"state"`
}

// NewStateCommand creates the state command.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "state <property=value> <property=value>",
		Short: "Resolve a full thermodynamic state from two properties",
		Long: `State resolves the remaining intensive properties of a material from
two given ones, using the baked tables in the database. Values are SI:
Pa, K, m^3/kg, J/kg, J/(kg*K).

Example:
  thermotab state --db ./props.db --material water pressure=101325 specific_enthalpy=1500e3
  thermotab state --db ./props.db --material water temperature=373.15 specific_entropy=4000 --format json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runState(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Material, "material", "", "material name (required)")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("material")

	return cmd
}

func runState(opts *StateOptions, args []string, cmd *cobra.Command) error {
	query, err := parseQueryArgs(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid query", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	eng, err := loadEngine(cmd.Context(), st, opts.Material)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load tables", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	result, err := eng.Resolve(query)
	if err != nil {
		if ferr := formatter.Error(err.Error()); ferr != nil {
			return ferr
		}
		return WrapExitError(ExitFailure, "state resolution failed", err)
	}

	out := stateOutput{
		Material: opts.Material,
		Region:   string(result.Region),
		Quality:  result.Quality,
		State:    make(map[string]float64, 6),
	}
	for _, p := range props.All() {
		out.State[string(p)] = result.State.Field(p)
	}

	return formatter.Success(out, func(w io.Writer) {
		fmt.Fprintf(w, "material: %s\n", out.Material)
		fmt.Fprintf(w, "region:   %s\n", out.Region)
		if out.Quality != nil {
			fmt.Fprintf(w, "quality:  %g\n", *out.Quality)
		}
		for _, p := range props.All() {
			fmt.Fprintf(w, "%-26s %g\n", string(p), result.State.Field(p))
		}
	})
}

// parseQueryArgs converts property=value arguments into a query.
func parseQueryArgs(args []string) (props.Query, error) {
	query := make(props.Query, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected property=value, got %q", arg)
		}
		p, err := props.Parse(name)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %q", name, raw)
		}
		if _, dup := query[p]; dup {
			return nil, fmt.Errorf("property %s given twice", name)
		}
		query[p] = v
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return query, nil
}

// loadEngine reads a material's three regional tables from the store and
// assembles an engine over them.
func loadEngine(ctx context.Context, st *store.Store, material string) (*engine.Engine, error) {
	superheatedTab, err := st.ReadTable(ctx, material, "superheated")
	if err != nil {
		return nil, err
	}
	superheated, err := table.AsSinglePhase(superheatedTab)
	if err != nil {
		return nil, fmt.Errorf("superheated table: %w", err)
	}

	compressedTab, err := st.ReadTable(ctx, material, "compressed")
	if err != nil {
		return nil, err
	}
	compressed, err := table.AsSinglePhase(compressedTab)
	if err != nil {
		return nil, fmt.Errorf("compressed table: %w", err)
	}

	saturatedTab, err := st.ReadTable(ctx, material, "saturated")
	if err != nil {
		return nil, err
	}
	saturated, err := table.AsSaturated(saturatedTab)
	if err != nil {
		return nil, fmt.Errorf("saturated table: %w", err)
	}

	return engine.New(superheated, compressed, saturated, engine.WithLogger(slog.Default())), nil
}

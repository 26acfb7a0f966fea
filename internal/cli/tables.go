package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/thermotab/thermotab/internal/store"
)

// TablesOptions holds flags for the tables command.
type TablesOptions struct {
	*RootOptions
	Database string
	Material string
	Region   string
	Limit    int
}

// tableInfo is one row of the tables command's output payload.
type tableInfo struct {
	Material string `json:"material"`
	Region   string `json:"region"`
	Source   string `json:"source"`
	BakedAt  string `json:"baked_at"`
	Columns  int    `json:"columns"`
	Rows     int    `json:"rows"`
}

// NewTablesCommand creates the tables command.
func NewTablesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TablesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List or preview the baked datasets in a database",
		Long: `Tables lists every baked dataset with its material, region, source
file and size. With --material and --region it previews the leading rows
of one dataset instead.

Example:
  thermotab tables --db ./props.db
  thermotab tables --db ./props.db --material water --region saturated --limit 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Material != "" || opts.Region != "" {
				if opts.Material == "" || opts.Region == "" {
					return WrapExitError(ExitCommandError, "preview needs both --material and --region", nil)
				}
				return runTablePreview(opts, cmd)
			}
			return runTables(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Material, "material", "", "material to preview")
	cmd.Flags().StringVar(&opts.Region, "region", "", "region to preview")
	cmd.Flags().IntVar(&opts.Limit, "limit", 5, "maximum preview rows")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTables(opts *TablesOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	infos, err := st.List(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list datasets", err)
	}

	out := make([]tableInfo, 0, len(infos))
	for _, info := range infos {
		out = append(out, tableInfo{
			Material: info.Material,
			Region:   info.Region,
			Source:   info.Source,
			BakedAt:  info.BakedAt.UTC().Format(time.RFC3339),
			Columns:  info.Columns,
			Rows:     info.Rows,
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(out, func(w io.Writer) {
		if len(out) == 0 {
			fmt.Fprintln(w, "No baked datasets.")
			return
		}
		fmt.Fprintf(w, "%-12s %-12s %7s %7s  %s\n", "MATERIAL", "REGION", "COLUMNS", "ROWS", "SOURCE")
		for _, info := range out {
			fmt.Fprintf(w, "%-12s %-12s %7d %7d  %s\n",
				info.Material, info.Region, info.Columns, info.Rows, info.Source)
		}
	})
}

// tablePreview is the preview mode's output payload.
type tablePreview struct {
	Material string      `json:"material"`
	Region   string      `json:"region"`
	Headers  []string    `json:"headers"`
	Rows     [][]float64 `json:"rows"`
	Total    int         `json:"total_rows"`
}

func runTablePreview(opts *TablesOptions, cmd *cobra.Command) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	tab, err := st.ReadTable(cmd.Context(), opts.Material, opts.Region)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read dataset", err)
	}

	preview := tablePreview{
		Material: opts.Material,
		Region:   opts.Region,
		Headers:  tab.Headers(),
		Total:    tab.Len(),
	}
	n := tab.Len()
	if opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}
	for i := 0; i < n; i++ {
		row := make([]float64, 0, len(preview.Headers))
		for _, h := range preview.Headers {
			v, err := tab.Value(i, h)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to read dataset", err)
			}
			row = append(row, v)
		}
		preview.Rows = append(preview.Rows, row)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(preview, func(w io.Writer) {
		fmt.Fprintf(w, "%s/%s (%d rows)\n", preview.Material, preview.Region, preview.Total)
		for _, h := range preview.Headers {
			fmt.Fprintf(w, "%s ", h)
		}
		fmt.Fprintln(w)
		for _, row := range preview.Rows {
			for _, v := range row {
				fmt.Fprintf(w, "%g ", v)
			}
			fmt.Fprintln(w)
		}
	})
}

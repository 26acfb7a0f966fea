package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/thermotab/thermotab/internal/manifest"
	"github.com/thermotab/thermotab/internal/store"
	"github.com/thermotab/thermotab/internal/svuv"
)

// BakeOptions holds flags for the bake command.
type BakeOptions struct {
	*RootOptions
	Database string
}

// bakeSummary is the bake command's output payload.
type bakeSummary struct {
	Database  string `json:"database"`
	Materials int    `json:"materials"`
	Datasets  int    `json:"datasets"`
	Rows      int    `json:"rows"`
}

// NewBakeCommand creates the bake command.
func NewBakeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BakeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "bake <manifest-dir>",
		Short: "Parse .svuv datasets and bake them into a database",
		Long: `Bake reads a CUE material manifest, parses the .svuv dataset behind
each material region, converts all magnitudes to SI, and stores the
result in a SQLite database. Re-baking a material replaces its previous
datasets.

Example:
  thermotab bake --db ./props.db ./datasets
  thermotab bake --db /tmp/water.db ./datasets --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBake(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runBake(opts *BakeOptions, manifestDir string, cmd *cobra.Command) error {
	slog.Info("loading manifest", "dir", manifestDir)
	m, err := manifest.Load(manifestDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load manifest", err)
	}
	slog.Info("manifest loaded", "materials", len(m.Materials))

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	parser := svuv.NewParser(svuv.WithLogger(slog.Default()))
	summary := bakeSummary{Database: opts.Database, Materials: len(m.Materials)}

	ctx := cmd.Context()
	for _, mat := range m.Materials {
		for region, path := range mat.DatasetPaths() {
			full := m.Resolve(path)
			doc, err := parser.ParseFile(full)
			if err != nil {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("failed to parse dataset for %s/%s", mat.Name, region), err)
			}
			if err := st.BakeTable(ctx, mat.Name, region, doc); err != nil {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("failed to bake %s/%s", mat.Name, region), err)
			}
			slog.Info("dataset baked",
				"material", mat.Name,
				"region", region,
				"source", doc.Name,
				"rows", len(doc.Rows),
			)
			summary.Datasets++
			summary.Rows += len(doc.Rows)
		}
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	return formatter.Success(summary, func(w io.Writer) {
		fmt.Fprintf(w, "Baked %d datasets for %d materials (%d rows) into %s\n",
			summary.Datasets, summary.Materials, summary.Rows, summary.Database)
	})
}

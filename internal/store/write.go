package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/thermotab/thermotab/internal/svuv"
)

// BakeTable stores a parsed dataset under (material, region), replacing
// any dataset previously baked under the same pair. The whole bake runs
// in one transaction, so readers never observe a half-replaced dataset.
func (s *Store) BakeTable(ctx context.Context, material, region string, doc *svuv.Document) error {
	if len(doc.Rows) == 0 {
		return fmt.Errorf("bake %s/%s: dataset has no rows", material, region)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bake %s/%s: begin tx: %w", material, region, err)
	}
	defer tx.Rollback() // No-op if committed

	// Replace semantics: cascade clears columns, rows and values.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM datasets WHERE material = ? AND region = ?`,
		material, region,
	); err != nil {
		return fmt.Errorf("bake %s/%s: clear previous: %w", material, region, err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO datasets (material, region, source, baked_at)
		VALUES (?, ?, ?, ?)
	`, material, region, doc.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("bake %s/%s: insert dataset: %w", material, region, err)
	}
	datasetID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("bake %s/%s: dataset id: %w", material, region, err)
	}

	insertColumn, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_columns (dataset_id, position, name, unit, uncertainty)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("bake %s/%s: prepare columns: %w", material, region, err)
	}
	defer insertColumn.Close()
	for i, name := range doc.Columns {
		var unc sql.NullFloat64
		if u, ok := doc.Uncertainties[name]; ok {
			unc = sql.NullFloat64{Float64: u, Valid: true}
		}
		if _, err := insertColumn.ExecContext(ctx, datasetID, i, name, doc.Units[name], unc); err != nil {
			return fmt.Errorf("bake %s/%s: column %q: %w", material, region, name, err)
		}
	}

	insertRow, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_rows (dataset_id, row_index, citation)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("bake %s/%s: prepare rows: %w", material, region, err)
	}
	defer insertRow.Close()

	insertValue, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_values (dataset_id, row_index, position, value)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("bake %s/%s: prepare values: %w", material, region, err)
	}
	defer insertValue.Close()

	for r, row := range doc.Rows {
		if _, err := insertRow.ExecContext(ctx, datasetID, r, doc.Citations[r]); err != nil {
			return fmt.Errorf("bake %s/%s: row %d: %w", material, region, r, err)
		}
		for c, v := range row {
			if _, err := insertValue.ExecContext(ctx, datasetID, r, c, v); err != nil {
				return fmt.Errorf("bake %s/%s: row %d col %d: %w", material, region, r, c, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bake %s/%s: commit: %w", material, region, err)
	}
	return nil
}

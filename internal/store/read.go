package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/thermotab/thermotab/internal/table"
)

// NotFoundError reports a (material, region) pair absent from the store.
type NotFoundError struct {
	Material string
	Region   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no baked dataset for material %q region %q", e.Material, e.Region)
}

// DatasetInfo summarizes one baked dataset.
type DatasetInfo struct {
	Material string
	Region   string
	Source   string
	BakedAt  time.Time
	Columns  int
	Rows     int
}

// ReadTable reconstructs the baked dataset for (material, region) with
// columns and rows in their original order. Returns *NotFoundError if
// the pair was never baked.
func (s *Store) ReadTable(ctx context.Context, material, region string) (*table.Table, error) {
	var datasetID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM datasets WHERE material = ? AND region = ?`,
		material, region,
	).Scan(&datasetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Material: material, Region: region}
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", material, region, err)
	}

	headers, err := s.readColumns(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", material, region, err)
	}
	rows, err := s.readRows(ctx, datasetID, len(headers))
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", material, region, err)
	}

	t, err := table.New(headers, rows)
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", material, region, err)
	}
	return t, nil
}

func (s *Store) readColumns(ctx context.Context, datasetID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name FROM dataset_columns
		WHERE dataset_id = ?
		ORDER BY position
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	defer rows.Close()

	var headers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("columns: %w", err)
		}
		headers = append(headers, name)
	}
	return headers, rows.Err()
}

func (s *Store) readRows(ctx context.Context, datasetID int64, width int) ([][]float64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_index, position, value FROM dataset_values
		WHERE dataset_id = ?
		ORDER BY row_index, position
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}
	defer rows.Close()

	var data [][]float64
	for rows.Next() {
		var rowIndex, position int
		var value float64
		if err := rows.Scan(&rowIndex, &position, &value); err != nil {
			return nil, fmt.Errorf("values: %w", err)
		}
		if rowIndex != len(data)-1 {
			data = append(data, make([]float64, width))
		}
		if position >= width {
			return nil, fmt.Errorf("values: position %d exceeds %d columns", position, width)
		}
		data[len(data)-1][position] = value
	}
	return data, rows.Err()
}

// Citations returns the per-row citation keys for a baked dataset, in
// row order.
func (s *Store) Citations(ctx context.Context, material, region string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.citation
		FROM dataset_rows r
		JOIN datasets d ON d.id = r.dataset_id
		WHERE d.material = ? AND d.region = ?
		ORDER BY r.row_index
	`, material, region)
	if err != nil {
		return nil, fmt.Errorf("citations %s/%s: %w", material, region, err)
	}
	defer rows.Close()

	var citations []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("citations %s/%s: %w", material, region, err)
		}
		citations = append(citations, c)
	}
	if len(citations) == 0 {
		return nil, &NotFoundError{Material: material, Region: region}
	}
	return citations, rows.Err()
}

// Uncertainties returns the per-column measurement uncertainties a
// baked dataset declared, keyed by column name in SI units. Columns
// without a declared uncertainty are absent from the map. Returns
// *NotFoundError if the pair was never baked.
func (s *Store) Uncertainties(ctx context.Context, material, region string) (map[string]float64, error) {
	var datasetID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM datasets WHERE material = ? AND region = ?`,
		material, region,
	).Scan(&datasetID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Material: material, Region: region}
	}
	if err != nil {
		return nil, fmt.Errorf("uncertainties %s/%s: %w", material, region, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT name, uncertainty FROM dataset_columns
		WHERE dataset_id = ? AND uncertainty IS NOT NULL
		ORDER BY position
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("uncertainties %s/%s: %w", material, region, err)
	}
	defer rows.Close()

	uncertainties := make(map[string]float64)
	for rows.Next() {
		var name string
		var u float64
		if err := rows.Scan(&name, &u); err != nil {
			return nil, fmt.Errorf("uncertainties %s/%s: %w", material, region, err)
		}
		uncertainties[name] = u
	}
	return uncertainties, rows.Err()
}

// Materials returns the distinct material names with at least one baked
// dataset, sorted.
func (s *Store) Materials(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT material FROM datasets ORDER BY material`)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var materials []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("list materials: %w", err)
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

// List returns a summary of every baked dataset, sorted by material then
// region.
func (s *Store) List(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.material, d.region, d.source, d.baked_at,
		       (SELECT COUNT(*) FROM dataset_columns c WHERE c.dataset_id = d.id),
		       (SELECT COUNT(*) FROM dataset_rows r WHERE r.dataset_id = d.id)
		FROM datasets d
		ORDER BY d.material, d.region
	`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var infos []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		var bakedAt string
		if err := rows.Scan(&info.Material, &info.Region, &info.Source, &bakedAt, &info.Columns, &info.Rows); err != nil {
			return nil, fmt.Errorf("list datasets: %w", err)
		}
		if info.BakedAt, err = time.Parse(time.RFC3339, bakedAt); err != nil {
			return nil, fmt.Errorf("list datasets: baked_at: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

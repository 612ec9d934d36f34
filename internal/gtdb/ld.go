package gtdb

import (
	"context"
	"database/sql"

	"github.com/inodb/vibe-impute/internal/numeric"
)

// Undefined marks a statistic whose denominator was zero.
const Undefined = -999.0

// LDRow is one row of the ld table.
type LDRow struct {
	SNPID1          string  `db:"snp_id_1"`
	SNPID2          string  `db:"snp_id_2"`
	Dhat            float64 `db:"dhat"`
	R2              float64 `db:"r2"`
	MissingIndices2 string  `db:"missing_indices_of_2"`
}

// InsertLD inserts one pairwise LD row.
func (s *Store) InsertLD(ctx context.Context, row LDRow) error {
	return s.exec(ctx,
		`INSERT INTO ld (snp_id_1, snp_id_2, dhat, r2, missing_indices_of_2) VALUES (?, ?, ?, ?, ?)`,
		row.SNPID1, row.SNPID2, row.Dhat, row.R2, row.MissingIndices2)
}

// LDRows returns all ld rows ordered by SNP pair.
func (s *Store) LDRows(ctx context.Context) ([]LDRow, error) {
	var rows []LDRow
	err := s.selectAll(ctx, &rows,
		`SELECT snp_id_1, snp_id_2, dhat, r2, missing_indices_of_2 FROM ld ORDER BY snp_id_1, snp_id_2`)
	return rows, err
}

// R2Values returns every defined r2 value.
func (s *Store) R2Values(ctx context.Context) ([]float64, error) {
	var vals []float64
	err := s.selectAll(ctx, &vals, `SELECT r2 FROM ld WHERE r2 <> ?`, Undefined)
	return vals, err
}

// UndefinedR2Count returns how many ld rows carry the undefined sentinel.
func (s *Store) UndefinedR2Count(ctx context.Context) (int, error) {
	var n int
	err := s.get(ctx, &n, `SELECT count(*) FROM ld WHERE r2 = ?`, Undefined)
	return n, err
}

// R2Stdev returns the sample standard deviation of the defined r2 values.
// On SQLite it runs the stdev SQL aggregate; on DuckDB the values are
// streamed through the same accumulator in Go.
func (s *Store) R2Stdev(ctx context.Context) (float64, bool, error) {
	if s.backend == SQLite {
		var sd sql.NullFloat64
		if err := s.get(ctx, &sd, `SELECT stdev(r2) FROM ld WHERE r2 <> ?`, Undefined); err != nil {
			return 0, false, err
		}
		return sd.Float64, sd.Valid, nil
	}

	const query = `SELECT r2 FROM ld WHERE r2 <> ?`
	rows, err := s.reader().QueryxContext(ctx, query, Undefined)
	if err != nil {
		return 0, false, &StoreError{Statement: query, Err: err}
	}
	defer rows.Close()

	acc := numeric.NewStdev()
	for rows.Next() {
		var r2 float64
		if err := rows.Scan(&r2); err != nil {
			return 0, false, &StoreError{Statement: query, Err: err}
		}
		acc.Step(r2)
	}
	if err := rows.Err(); err != nil {
		return 0, false, &StoreError{Statement: query, Err: err}
	}
	sd, ok := acc.Finalize()
	return sd, ok, nil
}

package gtdb

import "context"

// SNPRow is one row of the snps table. Genotype vector and missing
// indices are kept as the comma-joined text they are stored as.
type SNPRow struct {
	VariantID      string `db:"variant_id"`
	Ref            string `db:"ref"`
	Alt            string `db:"alt"`
	GTVector       string `db:"gt_vector"`
	MissingIndices string `db:"missing_indices"`
}

// InsertSNP inserts one variant row.
func (s *Store) InsertSNP(ctx context.Context, row SNPRow) error {
	return s.exec(ctx,
		`INSERT INTO snps (variant_id, ref, alt, gt_vector, missing_indices) VALUES (?, ?, ?, ?, ?)`,
		row.VariantID, row.Ref, row.Alt, row.GTVector, row.MissingIndices)
}

// SNP returns the row for a variant id. A missing id yields a
// StoreError wrapping sql.ErrNoRows.
func (s *Store) SNP(ctx context.Context, id string) (SNPRow, error) {
	var row SNPRow
	err := s.get(ctx, &row,
		`SELECT variant_id, ref, alt, gt_vector, missing_indices FROM snps WHERE variant_id = ?`, id)
	return row, err
}

// SNPIDs returns every variant id in the snps table, in no particular order.
func (s *Store) SNPIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.selectAll(ctx, &ids, `SELECT variant_id FROM snps`)
	return ids, err
}

// MissingSNPIDs returns the ids of variants with at least one missing call.
func (s *Store) MissingSNPIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.selectAll(ctx, &ids, `SELECT variant_id FROM snps WHERE missing_indices <> ''`)
	return ids, err
}

// SNPRows returns all snps rows ordered by variant id.
func (s *Store) SNPRows(ctx context.Context) ([]SNPRow, error) {
	var rows []SNPRow
	err := s.selectAll(ctx, &rows,
		`SELECT variant_id, ref, alt, gt_vector, missing_indices FROM snps ORDER BY variant_id`)
	return rows, err
}

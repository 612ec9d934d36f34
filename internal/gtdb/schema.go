package gtdb

import (
	"context"
	"fmt"
)

// Table names.
const (
	TableSNPs    = "snps"
	TableLD      = "ld"
	TableKinship = "kinship"
	TableRuns    = "runs"
)

// resetStatements drop and recreate the three result tables without
// indices. TEXT and DOUBLE are understood by both backends.
var resetStatements = []string{
	`DROP TABLE IF EXISTS snps`,
	`DROP TABLE IF EXISTS ld`,
	`DROP TABLE IF EXISTS kinship`,
	`CREATE TABLE snps (
		variant_id TEXT NOT NULL,
		ref TEXT NOT NULL,
		alt TEXT NOT NULL,
		gt_vector TEXT NOT NULL,
		missing_indices TEXT NOT NULL
	)`,
	`CREATE TABLE ld (
		snp_id_1 TEXT NOT NULL,
		snp_id_2 TEXT NOT NULL,
		dhat DOUBLE NOT NULL,
		r2 DOUBLE NOT NULL,
		missing_indices_of_2 TEXT NOT NULL
	)`,
	`CREATE TABLE kinship (
		i INTEGER NOT NULL,
		j INTEGER NOT NULL,
		rbeta DOUBLE NOT NULL,
		rw DOUBLE NOT NULL,
		ru DOUBLE NOT NULL
	)`,
	createRunsTable,
}

const createRunsTable = `CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT NOT NULL,
	vcf_path TEXT NOT NULL,
	vcf_size BIGINT NOT NULL,
	vcf_modtime TEXT NOT NULL,
	backend TEXT NOT NULL,
	samples INTEGER NOT NULL,
	records BIGINT NOT NULL,
	variants BIGINT NOT NULL,
	snps BIGINT NOT NULL,
	kinship_rows BIGINT NOT NULL,
	ld_rows BIGINT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL
)`

// Reset drops and recreates the snps, ld and kinship tables and commits.
// The runs table is created if missing and otherwise kept.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range resetStatements {
		if err := s.exec(ctx, stmt); err != nil {
			return err
		}
	}
	return s.Commit()
}

// CreateSNPIndex creates the unique index on snps.variant_id.
func (s *Store) CreateSNPIndex(ctx context.Context) error {
	return s.exec(ctx, `CREATE UNIQUE INDEX idx_snps_variant_id ON snps (variant_id)`)
}

// CreateLDIndex creates the unique index on ld (snp_id_1, snp_id_2).
func (s *Store) CreateLDIndex(ctx context.Context) error {
	return s.exec(ctx, `CREATE UNIQUE INDEX idx_ld_pair ON ld (snp_id_1, snp_id_2)`)
}

// CreateKinshipIndex creates the unique index on kinship (i, j).
func (s *Store) CreateKinshipIndex(ctx context.Context) error {
	return s.exec(ctx, `CREATE UNIQUE INDEX idx_kinship_pair ON kinship (i, j)`)
}

// Count returns the number of rows in one of the store's tables.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case TableSNPs, TableLD, TableKinship, TableRuns:
	default:
		return 0, fmt.Errorf("count: unknown table %q", table)
	}
	var n int
	err := s.get(ctx, &n, "SELECT count(*) FROM "+table)
	return n, err
}

package gtdb

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
)

// timeLayout keeps run timestamps sortable as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

// FileFingerprint holds stat-based identity for an input file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
// Stdin ("-") has no fingerprint and yields a zero size and time.
func StatFile(path string) (FileFingerprint, error) {
	if path == "-" {
		return FileFingerprint{Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Run is one row of the runs audit table.
type Run struct {
	ID          string `db:"run_id"`
	VCFPath     string `db:"vcf_path"`
	VCFSize     int64  `db:"vcf_size"`
	VCFModTime  string `db:"vcf_modtime"`
	Backend     string `db:"backend"`
	Samples     int    `db:"samples"`
	Records     int64  `db:"records"`
	Variants    int64  `db:"variants"`
	SNPs        int64  `db:"snps"`
	KinshipRows int64  `db:"kinship_rows"`
	LDRows      int64  `db:"ld_rows"`
	StartedAt   string `db:"started_at"`
	FinishedAt  string `db:"finished_at"`
}

// NewRun starts a run record for the given input.
func NewRun(input FileFingerprint, backend Backend, started time.Time) Run {
	r := Run{
		ID:        uuid.NewString(),
		VCFPath:   input.Path,
		VCFSize:   input.Size,
		Backend:   string(backend),
		StartedAt: FormatTime(started),
	}
	if !input.ModTime.IsZero() {
		r.VCFModTime = FormatTime(input.ModTime)
	}
	return r
}

// FormatTime renders t in the runs table's timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// RecordRun appends a run record. The caller commits.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	return s.exec(ctx, `INSERT INTO runs (
		run_id, vcf_path, vcf_size, vcf_modtime, backend,
		samples, records, variants, snps, kinship_rows, ld_rows,
		started_at, finished_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.VCFPath, r.VCFSize, r.VCFModTime, r.Backend,
		r.Samples, r.Records, r.Variants, r.SNPs, r.KinshipRows, r.LDRows,
		r.StartedAt, r.FinishedAt)
}

// LastRun returns the most recently finished run.
// The boolean is false when no run has been recorded.
func (s *Store) LastRun(ctx context.Context) (Run, bool, error) {
	var runs []Run
	if err := s.selectAll(ctx, &runs, `SELECT
		run_id, vcf_path, vcf_size, vcf_modtime, backend,
		samples, records, variants, snps, kinship_rows, ld_rows,
		started_at, finished_at
		FROM runs ORDER BY finished_at DESC LIMIT 1`); err != nil {
		return Run{}, false, err
	}
	if len(runs) == 0 {
		return Run{}, false, nil
	}
	return runs[0], true, nil
}

package gtdb

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

var backends = []Backend{DuckDB, SQLite}

func openInMemory(t *testing.T, backend Backend) *Store {
	t.Helper()
	s, err := Open(backend, "")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Reset(context.Background()))
	return s
}

func forEachBackend(t *testing.T, fn func(t *testing.T, s *Store)) {
	for _, b := range backends {
		t.Run(string(b), func(t *testing.T) {
			fn(t, openInMemory(t, b))
		})
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, DuckDB, b)

	b, err = ParseBackend("SQLite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, b)

	_, err = ParseBackend("postgres")
	assert.Error(t, err)
}

func TestResetEmptiesTables(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertSNP(ctx, SNPRow{VariantID: "1-10", Ref: "A", Alt: "G", GTVector: "0,1"}))
		require.NoError(t, s.InsertKinship(ctx, KinshipRow{I: 0, J: 1}))
		require.NoError(t, s.CreateSNPIndex(ctx))
		require.NoError(t, s.Commit())

		// Twice: Reset is idempotent and drops the index with the table.
		require.NoError(t, s.Reset(ctx))
		require.NoError(t, s.Reset(ctx))

		for _, table := range []string{TableSNPs, TableLD, TableKinship} {
			n, err := s.Count(ctx, table)
			require.NoError(t, err)
			assert.Zero(t, n, table)
		}

		// Index can be created again on the fresh table.
		require.NoError(t, s.CreateSNPIndex(ctx))
		require.NoError(t, s.Commit())
	})
}

func TestSNPRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		rows := []SNPRow{
			{VariantID: "chr1-300", Ref: "G", Alt: "A", GTVector: "3,0,7", MissingIndices: "2"},
			{VariantID: "chr1-100", Ref: "A", Alt: "G", GTVector: "0,1,3", MissingIndices: ""},
			{VariantID: "chr1-200", Ref: "C", Alt: "T", GTVector: "7,7,0", MissingIndices: "0,1"},
		}
		for _, r := range rows {
			require.NoError(t, s.InsertSNP(ctx, r))
		}
		require.NoError(t, s.CreateSNPIndex(ctx))
		require.NoError(t, s.Commit())

		got, err := s.SNP(ctx, "chr1-200")
		require.NoError(t, err)
		assert.Equal(t, rows[2], got)

		ids, err := s.SNPIDs(ctx)
		require.NoError(t, err)
		sort.Strings(ids)
		assert.Equal(t, []string{"chr1-100", "chr1-200", "chr1-300"}, ids)

		missing, err := s.MissingSNPIDs(ctx)
		require.NoError(t, err)
		sort.Strings(missing)
		assert.Equal(t, []string{"chr1-200", "chr1-300"}, missing)

		all, err := s.SNPRows(ctx)
		require.NoError(t, err)
		assert.Equal(t, []SNPRow{rows[1], rows[2], rows[0]}, all)

		_, err = s.SNP(ctx, "chr9-1")
		var se *StoreError
		require.True(t, errors.As(err, &se))
		assert.True(t, errors.Is(err, sql.ErrNoRows))
	})
}

func TestReadsSeePendingWrites(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertSNP(ctx, SNPRow{VariantID: "2-5", Ref: "A", Alt: "C", GTVector: "0,3"}))

		n, err := s.Count(ctx, TableSNPs)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestUniqueIndexRejectsDuplicates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		row := LDRow{SNPID1: "a", SNPID2: "b", Dhat: 0.1, R2: 0.2}
		require.NoError(t, s.InsertLD(ctx, row))
		require.NoError(t, s.CreateLDIndex(ctx))
		require.NoError(t, s.Commit())

		err := s.InsertLD(ctx, row)
		if err == nil {
			// DuckDB may defer the constraint check to commit time.
			err = s.Commit()
		}
		var se *StoreError
		assert.True(t, errors.As(err, &se), "duplicate pair must fail, got %v", err)
	})
}

func TestKinshipWriter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		w, err := s.NewKinshipWriter(ctx)
		require.NoError(t, err)

		want := []KinshipRow{
			{I: 0, J: 1, RBeta: 1, RW: -0.56, RU: Undefined},
			{I: 0, J: 2, RBeta: 4, RW: 0.25, RU: 0.5},
			{I: 1, J: 2, RBeta: -5, RW: 0.16, RU: 0.1},
		}
		for _, r := range want {
			require.NoError(t, w.Write(r))
		}
		require.NoError(t, w.Close())
		require.NoError(t, s.CreateKinshipIndex(ctx))
		require.NoError(t, s.Commit())

		got, err := s.KinshipRows(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestR2Statistics(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		r2s := []float64{0.1, 0.4, Undefined, 0.9, 0.25}
		for i, r2 := range r2s {
			require.NoError(t, s.InsertLD(ctx, LDRow{
				SNPID1: "a", SNPID2: string(rune('b' + i)), Dhat: 0.01, R2: r2,
			}))
		}
		require.NoError(t, s.Commit())

		vals, err := s.R2Values(ctx)
		require.NoError(t, err)
		sort.Float64s(vals)
		defined := []float64{0.1, 0.25, 0.4, 0.9}
		assert.Equal(t, defined, vals)

		undef, err := s.UndefinedR2Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, undef)

		sd, ok, err := s.R2Stdev(ctx)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.InDelta(t, stat.StdDev(defined, nil), sd, 1e-12)
	})
}

func TestR2StdevUndefined(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		require.NoError(t, s.InsertLD(ctx, LDRow{SNPID1: "a", SNPID2: "b", R2: 0.3}))
		require.NoError(t, s.InsertLD(ctx, LDRow{SNPID1: "a", SNPID2: "c", R2: 0.7}))
		require.NoError(t, s.Commit())

		_, ok, err := s.R2Stdev(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRuns(t *testing.T) {
	forEachBackend(t, func(t *testing.T, s *Store) {
		ctx := context.Background()
		_, ok, err := s.LastRun(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		first := NewRun(FileFingerprint{Path: "a.vcf", Size: 10, ModTime: start}, s.Backend(), start)
		first.FinishedAt = FormatTime(start.Add(time.Second))
		second := NewRun(FileFingerprint{Path: "b.vcf", Size: 20}, s.Backend(), start)
		second.Samples = 3
		second.FinishedAt = FormatTime(start.Add(time.Minute))
		assert.NotEqual(t, first.ID, second.ID)

		require.NoError(t, s.RecordRun(ctx, first))
		require.NoError(t, s.RecordRun(ctx, second))
		require.NoError(t, s.Commit())

		// Reset keeps the audit table.
		require.NoError(t, s.Reset(ctx))

		last, ok, err := s.LastRun(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, second, last)
		assert.Empty(t, last.VCFModTime)
	})
}

func TestCountUnknownTable(t *testing.T) {
	s := openInMemory(t, DuckDB)
	_, err := s.Count(context.Background(), "snps; DROP TABLE ld")
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	for _, b := range backends {
		t.Run(string(b), func(t *testing.T) {
			ctx := context.Background()
			path := filepath.Join(t.TempDir(), "nested", "gt.db")

			s, err := Open(b, path)
			require.NoError(t, err)
			require.NoError(t, s.Reset(ctx))
			require.NoError(t, s.InsertSNP(ctx, SNPRow{VariantID: "x-1", Ref: "A", Alt: "T", GTVector: "0,3"}))
			require.NoError(t, s.Commit())
			// Uncommitted writes are rolled back on Close.
			require.NoError(t, s.InsertSNP(ctx, SNPRow{VariantID: "x-2", Ref: "A", Alt: "T", GTVector: "0,3"}))
			require.NoError(t, s.Close())

			s, err = Open(b, path)
			require.NoError(t, err)
			defer s.Close()
			n, err := s.Count(ctx, TableSNPs)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
			assert.Equal(t, path, s.Path())
		})
	}
}

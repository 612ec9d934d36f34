package ld

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/logging"
)

// Store is the part of the genotype database the engine reads and writes.
// Implementations need not be safe for concurrent use.
type Store interface {
	SNPIDs(ctx context.Context) ([]string, error)
	MissingSNPIDs(ctx context.Context) ([]string, error)
	SNP(ctx context.Context, id string) (gtdb.SNPRow, error)
	InsertLD(ctx context.Context, row gtdb.LDRow) error
}

// Engine scans every SNP with missing calls against all other SNPs.
type Engine struct {
	workers int
	log     *logging.Logger
}

// Result summarises one engine run.
type Result struct {
	LeftSNPs  int // SNPs with missing calls that were scanned
	Rows      int // ld rows inserted
	Undefined int // rows whose r2 is undefined
}

// NewEngine creates an engine running at most workers goroutines per
// batch, clamped to [1, runtime.NumCPU()].
func NewEngine(workers int, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Nop()
	}
	return &Engine{workers: ClampWorkers(workers), log: log}
}

// ClampWorkers bounds a requested worker count by the available CPUs.
func ClampWorkers(requested int) int {
	if n := runtime.NumCPU(); requested > n {
		requested = n
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// Workers returns the effective batch size.
func (e *Engine) Workers() int {
	return e.workers
}

// lockedStore serialises every store call behind one mutex, held for
// exactly one call.
type lockedStore struct {
	mu sync.Mutex
	s  Store
}

func (l *lockedStore) snp(ctx context.Context, id string) (gtdb.SNPRow, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.SNP(ctx, id)
}

func (l *lockedStore) insertLD(ctx context.Context, row gtdb.LDRow) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.s.InsertLD(ctx, row)
}

// Run computes and inserts the ld rows. SNPs with missing calls are taken
// in sorted order, in batches of Workers(); each batch runs one goroutine
// per SNP and completes before the next one starts. The first error
// aborts the run; rows already inserted are left in place.
func (e *Engine) Run(ctx context.Context, store Store) (Result, error) {
	var res Result

	missing, err := store.MissingSNPIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list snps with missing calls: %w", err)
	}
	all, err := store.SNPIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("list snps: %w", err)
	}
	sort.Strings(missing)
	sort.Strings(all)

	e.log.Info("computing linkage disequilibrium",
		zap.Int("left_snps", len(missing)),
		zap.Int("snps", len(all)),
		zap.Int("workers", e.workers))

	ls := &lockedStore{s: store}
	var rows, undefined atomic.Int64

	for start := 0; start < len(missing); start += e.workers {
		batch := missing[start:min(start+e.workers, len(missing))]

		g, gctx := errgroup.WithContext(ctx)
		for _, id := range batch {
			id := id
			g.Go(func() error {
				n, u, err := e.scan(gctx, ls, id, all)
				rows.Add(int64(n))
				undefined.Add(int64(u))
				return err
			})
		}
		if err := g.Wait(); err != nil {
			res.Rows, res.Undefined = int(rows.Load()), int(undefined.Load())
			return res, err
		}
		res.LeftSNPs += len(batch)
		e.log.Verbose("ld batch done",
			zap.Int("done", res.LeftSNPs), zap.Int("of", len(missing)))
	}

	res.Rows, res.Undefined = int(rows.Load()), int(undefined.Load())
	return res, nil
}

// scan pairs left SNP id with every other SNP in all, in order.
func (e *Engine) scan(ctx context.Context, ls *lockedStore, id string, all []string) (rows, undefined int, err error) {
	left, err := ls.snp(ctx, id)
	if err != nil {
		return 0, 0, fmt.Errorf("ld %s: %w", id, err)
	}
	a, err := genotype.ParseVector(left.GTVector)
	if err != nil {
		return 0, 0, fmt.Errorf("ld %s: %w", id, err)
	}

	for _, other := range all {
		if other == id {
			continue
		}
		if err := ctx.Err(); err != nil {
			return rows, undefined, err
		}

		right, err := ls.snp(ctx, other)
		if err != nil {
			return rows, undefined, fmt.Errorf("ld %s/%s: %w", id, other, err)
		}
		b, err := genotype.ParseVector(right.GTVector)
		if err != nil {
			return rows, undefined, fmt.Errorf("ld %s/%s: %w", id, other, err)
		}
		if len(a) != len(b) {
			return rows, undefined, fmt.Errorf("ld %s/%s: genotype vectors of length %d and %d", id, other, len(a), len(b))
		}

		p := Estimate(a, b)
		if !p.Defined {
			undefined++
			e.log.Warn("zero denominator for r2",
				zap.String("snp_1", id), zap.String("snp_2", other), zap.Int("n", p.N))
		}
		if e.log.Tracing(id) {
			e.log.Trace(id, "ld pair",
				zap.String("snp_2", other), zap.Ints("counts", p.Counts[:]),
				zap.Float64("dhat", p.Dhat), zap.Float64("r2", p.R2))
		}

		if err := ls.insertLD(ctx, gtdb.LDRow{
			SNPID1:          id,
			SNPID2:          other,
			Dhat:            p.Dhat,
			R2:              p.R2,
			MissingIndices2: right.MissingIndices,
		}); err != nil {
			return rows, undefined, fmt.Errorf("ld %s/%s: %w", id, other, err)
		}
		rows++
	}
	return rows, undefined, nil
}

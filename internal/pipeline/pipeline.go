// Package pipeline builds a genotype database from a VCF file: a single
// streaming pass fills the snps table and the kinship accumulator, then
// the LD engine scans SNPs with missing calls.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/kinship"
	"github.com/inodb/vibe-impute/internal/ld"
	"github.com/inodb/vibe-impute/internal/logging"
	"github.com/inodb/vibe-impute/internal/vcf"
)

// progressEvery is how many variant records pass between progress updates.
const progressEvery = 1000

// Options configures one build.
type Options struct {
	VCFPath string
	Workers int
}

// Result counts what a build wrote.
type Result struct {
	RunID       string
	Samples     int
	Records     int // variant records read
	Variants    int // records that passed validation
	SNPs        int // polymorphic records stored
	KinshipRows int
	LDRows      int
	UndefinedLD int
}

// Pipeline runs builds against one store.
type Pipeline struct {
	store *gtdb.Store
	log   *logging.Logger
	now   func() time.Time
}

// New creates a pipeline writing to store.
func New(store *gtdb.Store, log *logging.Logger) *Pipeline {
	if log == nil {
		log = logging.Nop()
	}
	return &Pipeline{store: store, log: log, now: time.Now}
}

// Run rebuilds the snps, kinship and ld tables from opts.VCFPath.
// Work is committed after the snps table, after the kinship table and
// after the ld table; a failure leaves earlier checkpoints in place.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Result, error) {
	var res Result
	started := p.now()

	input, err := gtdb.StatFile(opts.VCFPath)
	if err != nil {
		return res, &vcf.IOError{Path: opts.VCFPath, Err: err}
	}
	r, err := vcf.NewReader(opts.VCFPath)
	if err != nil {
		return res, err
	}
	defer r.Close()

	if err := p.store.Reset(ctx); err != nil {
		return res, fmt.Errorf("reset: %w", err)
	}

	p.log.Info("reading variants", zap.String("path", opts.VCFPath))
	acc, err := p.ingest(ctx, r, &res)
	if err != nil {
		return res, err
	}
	if err := p.store.CreateSNPIndex(ctx); err != nil {
		return res, err
	}
	if err := p.store.Commit(); err != nil {
		return res, err
	}
	p.log.Info("snps stored",
		zap.Int("samples", res.Samples), zap.Int("records", res.Records), zap.Int("snps", res.SNPs))

	if err := p.writeKinship(ctx, acc, &res); err != nil {
		return res, err
	}
	if err := p.store.CreateKinshipIndex(ctx); err != nil {
		return res, err
	}
	if err := p.store.Commit(); err != nil {
		return res, err
	}
	p.log.Info("kinship stored", zap.Int("rows", res.KinshipRows))

	ldRes, err := ld.NewEngine(opts.Workers, p.log).Run(ctx, p.store)
	res.LDRows, res.UndefinedLD = ldRes.Rows, ldRes.Undefined
	if err != nil {
		return res, fmt.Errorf("linkage disequilibrium: %w", err)
	}
	if err := p.store.CreateLDIndex(ctx); err != nil {
		return res, err
	}
	if err := p.store.Commit(); err != nil {
		return res, err
	}
	p.log.Info("ld stored", zap.Int("rows", res.LDRows), zap.Int("undefined_r2", res.UndefinedLD))

	run := gtdb.NewRun(input, p.store.Backend(), started)
	run.Samples = res.Samples
	run.Records = int64(res.Records)
	run.Variants = int64(res.Variants)
	run.SNPs = int64(res.SNPs)
	run.KinshipRows = int64(res.KinshipRows)
	run.LDRows = int64(res.LDRows)
	run.FinishedAt = gtdb.FormatTime(p.now())
	if err := p.store.RecordRun(ctx, run); err != nil {
		return res, err
	}
	if err := p.store.Commit(); err != nil {
		return res, err
	}
	res.RunID = run.ID
	return res, nil
}

// ingest streams r once, feeding every valid variant to the kinship
// accumulator and storing the polymorphic ones. The accumulator is nil
// when the file has no column header.
func (p *Pipeline) ingest(ctx context.Context, r *vcf.Reader, res *Result) (*kinship.Accumulator, error) {
	var acc *kinship.Accumulator
	defer p.log.EndProgress()

	for {
		rec, err := r.Next()
		if err != nil {
			return acc, err
		}

		switch rec.Kind {
		case vcf.KindEOF:
			p.log.Progress(res.Records, res.SNPs)
			return acc, nil

		case vcf.KindColumns:
			res.Samples = len(rec.Fields) - 9
			acc = kinship.New(res.Samples, p.log)
			p.log.Verbose("column header", zap.Int("samples", res.Samples))

		case vcf.KindVariant:
			if err := ctx.Err(); err != nil {
				return acc, err
			}
			res.Records++
			if err := p.variant(ctx, rec.Variant, r.LineNumber(), acc, res); err != nil {
				return acc, err
			}
			if res.Records%progressEvery == 0 {
				p.log.Progress(res.Records, res.SNPs)
			}
		}
	}
}

func (p *Pipeline) variant(ctx context.Context, v *vcf.Variant, line int, acc *kinship.Accumulator, res *Result) error {
	codes, err := Genotypes(v)
	if err != nil {
		return err
	}
	res.Variants++

	id := v.VariantID()
	if !v.IsSNV() {
		p.log.Warn("ref or alt is not a single base",
			zap.String("variant", id), zap.Int("line", line),
			zap.String("ref", v.Ref), zap.String("alt", v.Alt))
	}
	if err := acc.Add(id, codes); err != nil {
		return err
	}

	if !genotype.IsPolymorphic(codes) {
		p.log.Trace(id, "monomorphic, not stored", zap.String("gt_vector", genotype.FormatVector(codes)))
		return nil
	}

	row := gtdb.SNPRow{
		VariantID:      id,
		Ref:            v.Ref,
		Alt:            v.Alt,
		GTVector:       genotype.FormatVector(codes),
		MissingIndices: genotype.FormatIndices(genotype.MissingIndices(codes)),
	}
	p.log.Trace(id, "snp stored",
		zap.String("gt_vector", row.GTVector), zap.String("missing_indices", row.MissingIndices))
	if err := p.store.InsertSNP(ctx, row); err != nil {
		return err
	}
	res.SNPs++
	return nil
}

// writeKinship finalises the accumulator into the kinship table. Nothing is
// written when no variant was accumulated.
func (p *Pipeline) writeKinship(ctx context.Context, acc *kinship.Accumulator, res *Result) error {
	if acc == nil || acc.Variants() == 0 {
		return nil
	}
	n := acc.Samples()
	p.log.Verbose("finalising kinship",
		zap.Int("samples", n), zap.Int("pairs", n*(n-1)/2), zap.Int("variants", acc.Variants()))

	w, err := p.store.NewKinshipWriter(ctx)
	if err != nil {
		return err
	}
	err = acc.Finalize(func(row gtdb.KinshipRow) error {
		if err := w.Write(row); err != nil {
			return err
		}
		res.KinshipRows++
		return nil
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("kinship: %w", err)
	}
	return nil
}

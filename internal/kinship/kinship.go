// Package kinship accumulates pairwise relatedness statistics while the
// VCF is streamed, and finalises three estimators per pair of samples:
//
//	rbeta  a beta estimator: the pair's allele sharing, standardised against
//	       the mean sharing over all pairs
//	rw     a ratio of weighted sums: Σ(Xi-2p)(Xj-2p) / Σ2p(1-p)
//	ru     an unweighted average: mean of (Xi-2p)(Xj-2p)/(2p(1-p))
//
// where X is the reference-allele dosage and p the reference allele
// frequency of the variant.
package kinship

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/gtdb"
	"github.com/inodb/vibe-impute/internal/logging"
)

// Accumulator holds the running sums for every pair (i, j), i < j,
// in flat triangular buffers.
type Accumulator struct {
	n        int
	betaSum  []float64
	wNum     []float64
	wDen     []float64
	uSum     []float64
	uCount   []uint32
	betaAll  float64
	variants int

	dosage  []float64
	defined []bool
	log     *logging.Logger
}

// New allocates an accumulator for n samples.
func New(n int, log *logging.Logger) *Accumulator {
	if log == nil {
		log = logging.Nop()
	}
	m := Pairs(n)
	return &Accumulator{
		n:       n,
		betaSum: make([]float64, m),
		wNum:    make([]float64, m),
		wDen:    make([]float64, m),
		uSum:    make([]float64, m),
		uCount:  make([]uint32, m),
		dosage:  make([]float64, n),
		defined: make([]bool, n),
		log:     log,
	}
}

// Pairs returns n(n-1)/2.
func Pairs(n int) int {
	if n < 2 {
		return 0
	}
	return n * (n - 1) / 2
}

// Index returns the flat offset of pair (i, j), 0 <= i < j < n.
func Index(n, i, j int) int {
	return i*(2*n-i-1)/2 + (j - i - 1)
}

// Samples returns the number of samples.
func (a *Accumulator) Samples() int {
	return a.n
}

// Variants returns how many variants have been added.
func (a *Accumulator) Variants() int {
	return a.variants
}

// Add folds one variant's genotype vector into the running sums.
// variantID is only used for tracing.
func (a *Accumulator) Add(variantID string, codes []genotype.Code) error {
	if len(codes) != a.n {
		return fmt.Errorf("kinship: variant %s has %d genotypes, want %d", variantID, len(codes), a.n)
	}
	a.variants++

	c := genotype.Count(codes)
	p := float64(2*c.HomRef+c.Het) / float64(2*a.n)
	if p == 0 || p == 1 {
		a.log.Trace(variantID, "kinship skipped, fixed allele",
			zap.Float64("p", p), zap.Int("c0", c.HomRef), zap.Int("c1", c.Het))
		return nil
	}

	for s, code := range codes {
		a.dosage[s], a.defined[s] = genotype.Dosage(code)
	}

	twoP := 2 * p
	den := twoP * (1 - p)
	updated := 0
	k := 0
	for i := 0; i < a.n; i++ {
		if !a.defined[i] {
			k += a.n - i - 1
			continue
		}
		xi := a.dosage[i]
		di := xi - twoP
		for j := i + 1; j < a.n; j, k = j+1, k+1 {
			if !a.defined[j] {
				continue
			}
			xj := a.dosage[j]
			beta := (1 + (xi-1)*(xj-1)) / 2
			num := di * (xj - twoP)

			a.betaSum[k] += beta
			a.betaAll += beta
			a.wNum[k] += num
			a.wDen[k] += den
			a.uSum[k] += num / den
			a.uCount[k]++
			updated++
		}
	}

	a.log.Trace(variantID, "kinship updated",
		zap.Float64("p", p), zap.Int("c0", c.HomRef), zap.Int("c1", c.Het), zap.Int("pairs", updated))
	return nil
}

// Finalize computes the three estimators for every pair and hands the
// rows to emit in (i, j) order. Zero denominators yield gtdb.Undefined
// and a warning naming both samples.
func (a *Accumulator) Finalize(emit func(gtdb.KinshipRow) error) error {
	if a.n < 2 {
		return nil
	}

	mu := 2 * a.betaAll / float64(a.n*(a.n-1))

	k := 0
	for i := 0; i < a.n; i++ {
		for j := i + 1; j < a.n; j, k = j+1, k+1 {
			row := gtdb.KinshipRow{I: i, J: j}

			if mu != 1 {
				row.RBeta = (a.betaSum[k] - mu) / (1 - mu)
			} else {
				row.RBeta = gtdb.Undefined
				a.log.Warn("zero denominator for rbeta", zap.Int("i", i), zap.Int("j", j))
			}

			if a.wDen[k] != 0 {
				row.RW = a.wNum[k] / a.wDen[k]
			} else {
				row.RW = gtdb.Undefined
				a.log.Warn("zero denominator for rw", zap.Int("i", i), zap.Int("j", j))
			}

			if a.uCount[k] > 0 {
				row.RU = a.uSum[k] / float64(a.uCount[k])
			} else {
				row.RU = gtdb.Undefined
				a.log.Warn("zero denominator for ru", zap.Int("i", i), zap.Int("j", j))
			}

			if err := emit(row); err != nil {
				return err
			}
		}
	}
	return nil
}

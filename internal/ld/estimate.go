// Package ld computes pairwise linkage disequilibrium between SNPs from
// unphased genotypes.
package ld

import (
	"github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/gtdb"
)

// Pair is the LD estimate for two genotype vectors.
type Pair struct {
	// Counts is the 3x3 joint genotype table, row-major with the first
	// SNP's genotype (0/0, 0/1, 1/1) as the row.
	Counts [9]int
	// N is the number of samples called at both SNPs.
	N int
	// Allele counts over the kept samples.
	Ref1, Alt1, Ref2, Alt2 int
	Dhat                   float64
	R2                     float64
	// Defined is false when R2 carries gtdb.Undefined.
	Defined bool
}

func cell(c genotype.Code) int {
	switch c {
	case genotype.HomRef:
		return 0
	case genotype.Het:
		return 1
	}
	return 2
}

// Estimate builds the joint genotype table of a and b, skipping samples
// missing at either SNP, and derives the unbiased haplotype covariance
// estimator from unphased data together with the squared correlation.
// The vectors must have equal length.
func Estimate(a, b []genotype.Code) Pair {
	var p Pair
	for s := range a {
		ca, cb := a[s], b[s]
		if ca == genotype.Missing || cb == genotype.Missing {
			continue
		}
		p.Counts[3*cell(ca)+cell(cb)]++

		da, _ := genotype.Dosage(ca)
		db, _ := genotype.Dosage(cb)
		p.Ref1 += int(da)
		p.Alt1 += 2 - int(da)
		p.Ref2 += int(db)
		p.Alt2 += 2 - int(db)
		p.N++
	}

	p.R2 = gtdb.Undefined
	if p.N < 2 {
		return p
	}

	var n [10]float64
	for k, c := range p.Counts {
		n[k+1] = float64(c)
	}
	total := float64(p.N)

	coupling := (n[1] + n[2]/2 + n[4]/2 + n[5]/4) * (n[5]/4 + n[6]/2 + n[8]/2 + n[9])
	repulsion := (n[2]/2 + n[3] + n[5]/4 + n[6]/2) * (n[4]/2 + n[5]/4 + n[7] + n[8]/2)
	p.Dhat = (coupling - repulsion) / (total * (total - 1))

	alleles := 2 * total
	rf1 := float64(p.Ref1) / alleles
	af1 := float64(p.Alt1) / alleles
	rf2 := float64(p.Ref2) / alleles
	af2 := float64(p.Alt2) / alleles
	if den := rf1 * af1 * rf2 * af2; den != 0 {
		p.R2 = p.Dhat * p.Dhat / den
		p.Defined = true
	}
	return p
}

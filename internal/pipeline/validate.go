package pipeline

import (
	"slices"
	"strings"

	"github.com/inodb/vibe-impute/internal/genotype"
	"github.com/inodb/vibe-impute/internal/vcf"
)

// Genotypes checks that v is a biallelic record carrying a GT key and
// decodes one code per sample column.
func Genotypes(v *vcf.Variant) ([]genotype.Code, error) {
	if strings.Contains(v.Alt, ",") {
		return nil, &vcf.LocusError{Kind: vcf.MultiallelicLocus, Chrom: v.Chrom, Pos: v.Pos}
	}

	gt := slices.Index(strings.Split(strings.ToUpper(v.Format), ":"), "GT")
	if gt < 0 {
		return nil, &vcf.LocusError{Kind: vcf.FormatMissingGT, Chrom: v.Chrom, Pos: v.Pos}
	}

	codes := make([]genotype.Code, len(v.Samples))
	for s, sample := range v.Samples {
		fields := strings.Split(sample, ":")
		if gt >= len(fields) {
			return nil, &vcf.LocusError{Kind: vcf.InvalidGenotype, Chrom: v.Chrom, Pos: v.Pos}
		}
		c, ok := genotype.DecodeCall(fields[gt])
		if !ok {
			return nil, &vcf.LocusError{Kind: vcf.InvalidGenotype, Chrom: v.Chrom, Pos: v.Pos}
		}
		codes[s] = c
	}
	return codes, nil
}

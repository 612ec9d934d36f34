// Package vcf provides VCF file parsing functionality.
package vcf

import "fmt"

// RecordKind identifies which kind of line a Record came from.
type RecordKind int

// Record kinds, in the order they appear in a well-formed file.
const (
	KindMeta    RecordKind = iota // "##" header line
	KindColumns                   // the single "#CHROM" line
	KindVariant                   // a data line
	KindEOF                       // end of input
)

func (k RecordKind) String() string {
	switch k {
	case KindMeta:
		return "meta"
	case KindColumns:
		return "columns"
	case KindVariant:
		return "variant"
	case KindEOF:
		return "eof"
	}
	return fmt.Sprintf("RecordKind(%d)", int(k))
}

// Record is one line of a VCF file.
type Record struct {
	Kind    RecordKind
	Meta    string   // KindMeta: the raw line
	Fields  []string // KindColumns: the column names
	Variant *Variant // KindVariant
}

// Variant represents a single data line from a VCF file.
// No sub-field is interpreted by the reader.
type Variant struct {
	Chrom   string   // Chromosome name (e.g., "12", "chr12")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier (e.g., rs ID)
	Ref     string   // Reference allele
	Alt     string   // Alternate allele(s), comma separated when multiallelic
	Qual    string   // Quality score as written
	Filter  string   // Filter status (PASS or filter name)
	Info    string   // Raw INFO column
	Format  string   // Raw FORMAT column
	Samples []string // One raw string per sample column
}

// VariantID returns the "<chrom>-<pos>" key used by the genotype store.
func (v *Variant) VariantID() string {
	return FormatVariantID(v.Chrom, v.Pos)
}

// FormatVariantID builds a variant key from chromosome and position.
func FormatVariantID(chrom string, pos int64) string {
	return fmt.Sprintf("%s-%d", chrom, pos)
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

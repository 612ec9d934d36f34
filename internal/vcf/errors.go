package vcf

import "fmt"

// ErrorKind classifies fatal per-locus validation failures.
type ErrorKind int

const (
	// ArityMismatch: the sample column count differs from the header.
	ArityMismatch ErrorKind = iota + 1
	// MultiallelicLocus: ALT lists more than one allele.
	MultiallelicLocus
	// FormatMissingGT: FORMAT has no GT key.
	FormatMissingGT
	// InvalidGenotype: a GT value has neither '/' nor '|'.
	InvalidGenotype
)

func (k ErrorKind) String() string {
	switch k {
	case ArityMismatch:
		return "ArityMismatch"
	case MultiallelicLocus:
		return "MultiallelicLocus"
	case FormatMissingGT:
		return "FormatMissingGT"
	case InvalidGenotype:
		return "InvalidGenotype"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Sentinels for errors.Is matching on the kind alone.
var (
	ErrArityMismatch     = &LocusError{Kind: ArityMismatch}
	ErrMultiallelicLocus = &LocusError{Kind: MultiallelicLocus}
	ErrFormatMissingGT   = &LocusError{Kind: FormatMissingGT}
	ErrInvalidGenotype   = &LocusError{Kind: InvalidGenotype}
)

// LocusError is a fatal validation failure tied to one variant.
type LocusError struct {
	Kind  ErrorKind
	Chrom string
	Pos   int64
}

func (e *LocusError) Error() string {
	return fmt.Sprintf("%s(%s, %d)", e.Kind, e.Chrom, e.Pos)
}

// Is matches any LocusError of the same kind.
func (e *LocusError) Is(target error) bool {
	t, ok := target.(*LocusError)
	return ok && t.Kind == e.Kind
}

// IOError wraps a failure to open, read or decompress the input.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ParseError represents an error during VCF parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
